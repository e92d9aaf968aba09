package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlexibleIntAcceptsNumberAndString(t *testing.T) {
	var req ViolationNoticeRequest
	require.NoError(t, json.Unmarshal([]byte(`{"userId":"5","postId":12}`), &req))
	assert.Equal(t, FlexibleInt(5), req.UserID)
	assert.Equal(t, FlexibleInt(12), req.PostID)

	var n FlexibleInt
	require.NoError(t, json.Unmarshal([]byte(`" 42 "`), &n))
	assert.Equal(t, FlexibleInt(42), n)

	require.NoError(t, json.Unmarshal([]byte(`null`), &n))
	assert.Equal(t, FlexibleInt(42), n, "null leaves the value untouched")
}

func TestFlexibleIntRejectsGarbage(t *testing.T) {
	var n FlexibleInt
	assert.Error(t, json.Unmarshal([]byte(`"abc"`), &n))
	assert.Error(t, json.Unmarshal([]byte(`1.5`), &n))
	assert.Error(t, json.Unmarshal([]byte(`true`), &n))
}
