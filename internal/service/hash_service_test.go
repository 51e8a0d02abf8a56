package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testArgon2Params() Argon2Params {
	p := DefaultArgon2Params()
	// Keep unit tests fast; production parameters are config-driven.
	p.Memory = 16 * 1024
	p.Time = 1
	return p
}

func TestHashService_VerifyCorrectPassword(t *testing.T) {
	svc := NewArgon2HashService(testArgon2Params())

	hash, err := svc.Hash("s3cret-pass")
	require.NoError(t, err)
	assert.Contains(t, hash, "$argon2id$")

	ok, err := svc.Verify("s3cret-pass", hash)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestHashService_VerifyWrongPassword(t *testing.T) {
	svc := NewArgon2HashService(testArgon2Params())

	hash, err := svc.Hash("s3cret-pass")
	require.NoError(t, err)

	ok, err := svc.Verify("wrong-pass", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHashService_SaltedHashesDiffer(t *testing.T) {
	svc := NewArgon2HashService(testArgon2Params())

	h1, err := svc.Hash("same-password")
	require.NoError(t, err)
	h2, err := svc.Hash("same-password")
	require.NoError(t, err)
	assert.NotEqual(t, h1, h2)
}

func TestHashService_VerifyMalformedHash(t *testing.T) {
	svc := NewArgon2HashService(testArgon2Params())

	_, err := svc.Verify("whatever", "not-an-argon2-hash")
	assert.Error(t, err)
}
