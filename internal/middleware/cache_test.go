package middleware

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCachePayloadRoundTrip(t *testing.T) {
	hdr := http.Header{}
	hdr.Set("Content-Type", "application/json")
	hdr.Add("X-Custom", "a")
	hdr.Add("X-Custom", "b")
	body := []byte(`{"lessons":[]}`)

	payload, err := encodePayload(http.StatusOK, hdr, body)
	require.NoError(t, err)

	status, gotHdr, gotBody, ok := decodePayload(payload)
	require.True(t, ok)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, body, gotBody)
	assert.Equal(t, "application/json", gotHdr.Get("Content-Type"))
	assert.Equal(t, []string{"a", "b"}, gotHdr["X-Custom"])
}

func TestCachePayloadEmptyBody(t *testing.T) {
	payload, err := encodePayload(http.StatusNoContent, http.Header{}, nil)
	require.NoError(t, err)

	status, _, body, ok := decodePayload(payload)
	require.True(t, ok)
	assert.Equal(t, http.StatusNoContent, status)
	assert.Empty(t, body)
}

func TestDecodePayloadRejectsGarbage(t *testing.T) {
	for _, bs := range [][]byte{nil, {}, {1, 2, 3}, []byte("short"), {0, 0, 0, 200, 255, 255, 255, 255}} {
		_, _, _, ok := decodePayload(bs)
		assert.False(t, ok, "payload %v should be rejected", bs)
	}
}
