package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDigestKey = "00112233445566778899aabbccddeeff"

func TestDigestService_Deterministic(t *testing.T) {
	svc, err := NewHMACDigestService(testDigestKey)
	require.NoError(t, err)

	first := svc.Digest("bc1qxyz")
	second := svc.Digest("bc1qxyz")
	// Equality lookup over encrypted columns depends on this.
	assert.Equal(t, first, second)
	assert.Len(t, first, 64) // hex SHA-256
}

func TestDigestService_DistinctInputs(t *testing.T) {
	svc, err := NewHMACDigestService(testDigestKey)
	require.NoError(t, err)

	assert.NotEqual(t, svc.Digest("bc1qxyz"), svc.Digest("bc1qabc"))
}

func TestDigestService_KeyChangesDigest(t *testing.T) {
	svc1, err := NewHMACDigestService(testDigestKey)
	require.NoError(t, err)
	svc2, err := NewHMACDigestService("ffeeddccbbaa99887766554433221100")
	require.NoError(t, err)

	assert.NotEqual(t, svc1.Digest("bc1qxyz"), svc2.Digest("bc1qxyz"))
}

func TestDigestService_RejectsShortKey(t *testing.T) {
	_, err := NewHMACDigestService("deadbeef")
	assert.Error(t, err)
}

func TestDigestService_RejectsNonHexKey(t *testing.T) {
	_, err := NewHMACDigestService("not a hex key at all, definitely")
	assert.Error(t, err)
}
