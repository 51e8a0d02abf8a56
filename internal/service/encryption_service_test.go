package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 32 bytes hex = AES-256
const testAESKey = "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"

func TestEncryptionService_RoundTrip(t *testing.T) {
	svc, err := NewAESEncryptionService(testAESKey)
	require.NoError(t, err)

	plaintext := "bc1qxy2kgdygjrsqtzq2n0yrf2493p83kkfjhx0wlh"
	ciphertext, err := svc.Encrypt(plaintext)
	require.NoError(t, err)
	assert.NotEqual(t, plaintext, ciphertext)

	decrypted, err := svc.Decrypt(ciphertext)
	require.NoError(t, err)
	assert.Equal(t, plaintext, decrypted)
}

func TestEncryptionService_NonDeterministic(t *testing.T) {
	svc, err := NewAESEncryptionService(testAESKey)
	require.NoError(t, err)

	// GCM with a random nonce: same plaintext, different ciphertexts.
	first, err := svc.Encrypt("0xdeadbeef")
	require.NoError(t, err)
	second, err := svc.Encrypt("0xdeadbeef")
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestEncryptionService_InvalidKey(t *testing.T) {
	_, err := NewAESEncryptionService("deadbeef")
	assert.Error(t, err)

	_, err = NewAESEncryptionService("not-hex")
	assert.Error(t, err)
}

func TestEncryptionService_TamperedCiphertext(t *testing.T) {
	svc, err := NewAESEncryptionService(testAESKey)
	require.NoError(t, err)

	ciphertext, err := svc.Encrypt("secret-address")
	require.NoError(t, err)

	b := []byte(ciphertext)
	if b[len(b)-1] == '0' {
		b[len(b)-1] = '1'
	} else {
		b[len(b)-1] = '0'
	}
	_, err = svc.Decrypt(string(b))
	assert.Error(t, err)
}

func TestEncryptionService_GarbageCiphertext(t *testing.T) {
	svc, err := NewAESEncryptionService(testAESKey)
	require.NoError(t, err)

	_, err = svc.Decrypt("zzzz")
	assert.Error(t, err)

	_, err = svc.Decrypt("abcd")
	assert.Error(t, err)
}
