package crypt

import (
	"bytes"
	"crypto/aes"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

var testKey = []byte("0123456789abcdef0123456789abcdef") // 32 bytes

func TestEncryptDecryptRoundTrip(t *testing.T) {
	plain := []byte("the quick brown fox")

	enc, err := Encrypt(plain, testKey)
	require.NoError(t, err)
	require.NotEqual(t, plain, enc)
	require.Zero(t, len(enc)%aes.BlockSize, "ciphertext is block aligned")

	dec, err := Decrypt(enc, testKey)
	require.NoError(t, err)
	require.Equal(t, plain, dec)
}

func TestEncryptKeySizes(t *testing.T) {
	plain := []byte("payload")

	for _, size := range []int{16, 24, 32} {
		key := bytes.Repeat([]byte{'k'}, size)
		enc, err := Encrypt(plain, key)
		require.NoError(t, err)

		dec, err := Decrypt(enc, key)
		require.NoError(t, err)
		require.Equal(t, plain, dec)
	}
}

func TestEncryptInvalidKeySize(t *testing.T) {
	_, err := Encrypt([]byte("x"), []byte("short"))
	require.ErrorIs(t, err, ErrInvalidKeySize)

	_, err = Decrypt(bytes.Repeat([]byte{0}, aes.BlockSize), []byte("short"))
	require.ErrorIs(t, err, ErrInvalidKeySize)
}

func TestEncryptEmptyInput(t *testing.T) {
	_, err := Encrypt(nil, testKey)
	require.ErrorIs(t, err, ErrEmptyInput)

	_, err = Decrypt(nil, testKey)
	require.ErrorIs(t, err, ErrEmptyInput)
}

func TestDecryptUnalignedCiphertext(t *testing.T) {
	_, err := Decrypt([]byte("not a block multiple"), testKey)
	require.ErrorIs(t, err, ErrInvalidCiphertext)
}

func TestDecryptWrongKeyMissesTrailer(t *testing.T) {
	enc, err := Encrypt([]byte("secret"), testKey)
	require.NoError(t, err)

	other := []byte("fedcba9876543210fedcba9876543210")
	_, err = Decrypt(enc, other)
	require.ErrorIs(t, err, ErrMissingTrailer)
}

func TestDecryptGarbageMissesTrailer(t *testing.T) {
	_, err := Decrypt(bytes.Repeat([]byte{0xAB}, aes.BlockSize*2), testKey)
	require.ErrorIs(t, err, ErrMissingTrailer)
}

func TestBase64RoundTrip(t *testing.T) {
	enc, err := EncryptBase64("hello world", testKey)
	require.NoError(t, err)

	dec, err := DecryptBase64(enc, testKey)
	require.NoError(t, err)
	require.Equal(t, "hello world", dec)
}

func TestDecryptBase64InvalidEncoding(t *testing.T) {
	_, err := DecryptBase64("not-base64!!!", testKey)
	require.Error(t, err)
}

func TestProperty_RoundTripPreservesPayload(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		plain := rapid.SliceOfN(rapid.Byte(), 1, 4096).Draw(t, "plain")

		enc, err := Encrypt(plain, testKey)
		require.NoError(t, err)

		dec, err := Decrypt(enc, testKey)
		require.NoError(t, err)
		require.Equal(t, plain, dec)
	})
}
