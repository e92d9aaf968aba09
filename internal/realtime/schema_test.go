package realtime

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRevocation(t *testing.T) {
	single, err := json.Marshal(Envelope{Event: EventSessionRevoked, Data: SessionRevoked{JTI: "abc"}})
	require.NoError(t, err)
	all, err := json.Marshal(Envelope{Event: EventSessionRevoked, Data: SessionRevoked{}})
	require.NoError(t, err)
	other, err := json.Marshal(Envelope{Event: EventNotification, Data: map[string]int{"id": 1}})
	require.NoError(t, err)

	rev, ok := ParseRevocation(string(single))
	require.True(t, ok)
	assert.True(t, rev.Revokes("abc"))
	assert.False(t, rev.Revokes("def"))

	rev, ok = ParseRevocation(string(all))
	require.True(t, ok)
	assert.True(t, rev.Revokes("abc"))
	assert.True(t, rev.Revokes("def"))

	_, ok = ParseRevocation(string(other))
	assert.False(t, ok)

	_, ok = ParseRevocation("not json")
	assert.False(t, ok)
}
