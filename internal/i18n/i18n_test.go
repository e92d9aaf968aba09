package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranslate(t *testing.T) {
	tests := []struct {
		name   string
		lang   Lang
		key    string
		params map[string]string
		want   string
	}{
		{"plain english", English, "nav.dashboard", nil, "Dashboard"},
		{"plain vietnamese", Vietnamese, "nav.dashboard", nil, "Bảng điều khiển"},
		{"interpolated", English, "dashboard.welcome", map[string]string{"name": "Lan"}, "Welcome back, Lan!"},
		{"unknown placeholder kept", English, "dashboard.welcome", map[string]string{"other": "x"}, "Welcome back, {{name}}!"},
		{"missing key", English, "nav.nope", nil, "nav.nope"},
		{"key points at subtree", English, "nav", nil, "nav"},
		{"unknown language falls back", Lang("fr"), "errors.GROUP_FULL", nil, "This study group is full."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, T(tt.lang, tt.key, tt.params))
		})
	}
}

func TestCatalogsHaveSameKeys(t *testing.T) {
	en, ok := Messages(English)
	require.True(t, ok)
	vi, ok := Messages(Vietnamese)
	require.True(t, ok)

	assert.ElementsMatch(t, flatten("", en), flatten("", vi))
}

func flatten(prefix string, tree map[string]interface{}) []string {
	var keys []string
	for k, v := range tree {
		full := k
		if prefix != "" {
			full = prefix + "." + k
		}
		if sub, ok := v.(map[string]interface{}); ok {
			keys = append(keys, flatten(full, sub)...)
			continue
		}
		keys = append(keys, full)
	}
	return keys
}

func TestParseAndResolve(t *testing.T) {
	l, ok := Parse("VI-vn")
	assert.True(t, ok)
	assert.Equal(t, Vietnamese, l)

	_, ok = Parse("de")
	assert.False(t, ok)

	assert.Equal(t, English, Resolve("de"))
}

func TestNegotiate(t *testing.T) {
	tests := []struct {
		header string
		want   Lang
		ok     bool
	}{
		{"vi-VN,vi;q=0.9,en;q=0.8", Vietnamese, true},
		{"en-US,en;q=0.9", English, true},
		{"", "", false},
		{"ja", "", false},
	}
	for _, tt := range tests {
		got, ok := Negotiate(tt.header)
		assert.Equal(t, tt.ok, ok, tt.header)
		if tt.ok {
			assert.Equal(t, tt.want, got, tt.header)
		}
	}
}
