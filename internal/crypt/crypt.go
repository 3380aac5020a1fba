// Package crypt implements the block cipher scheme used for asset payload
// protection. Plaintext is terminated with a fixed trailer marker, zero
// padded to the cipher block size, and encrypted block by block with AES.
// The marker lets decryption recover the exact plaintext length without a
// separate length prefix.
package crypt

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/zjrosen/cachebox/internal/log"
)

// trailerMarker separates the plaintext from the zero padding. It is long
// enough that an accidental collision with payload bytes is not a concern.
const trailerMarker = "52168@E4B9!13Fe-33!B0D9CF6!$@!~"

var (
	// ErrEmptyInput is returned when there is nothing to encrypt or decrypt.
	ErrEmptyInput = errors.New("crypt: empty input")

	// ErrInvalidKeySize is returned for keys that are not 16, 24, or 32 bytes.
	ErrInvalidKeySize = errors.New("crypt: key must be 16, 24, or 32 bytes")

	// ErrInvalidCiphertext is returned when the ciphertext length is not a
	// multiple of the cipher block size.
	ErrInvalidCiphertext = errors.New("crypt: ciphertext not block aligned")

	// ErrMissingTrailer is returned when decryption succeeds mechanically
	// but the trailer marker is absent, meaning the key was wrong or the
	// data was not produced by Encrypt.
	ErrMissingTrailer = errors.New("crypt: trailer marker not found")
)

// Encrypt appends the trailer marker to plain, zero pads to the AES block
// size, and encrypts each block independently with key.
func Encrypt(plain, key []byte) ([]byte, error) {
	if len(plain) == 0 {
		return nil, ErrEmptyInput
	}
	block, err := newCipher(key)
	if err != nil {
		return nil, err
	}

	data := make([]byte, 0, len(plain)+len(trailerMarker)+aes.BlockSize)
	data = append(data, plain...)
	data = append(data, trailerMarker...)
	if rem := len(data) % aes.BlockSize; rem != 0 {
		data = append(data, make([]byte, aes.BlockSize-rem)...)
	}

	out := make([]byte, len(data))
	for i := 0; i < len(data); i += aes.BlockSize {
		block.Encrypt(out[i:i+aes.BlockSize], data[i:i+aes.BlockSize])
	}

	log.Debug(log.CatCrypt, "Encrypted payload", "plain", len(plain), "cipher", len(out))
	return out, nil
}

// Decrypt reverses Encrypt: each block is decrypted with key, then the
// plaintext is cut at the trailer marker. The marker and padding never
// reach the caller.
func Decrypt(encrypted, key []byte) ([]byte, error) {
	if len(encrypted) == 0 {
		return nil, ErrEmptyInput
	}
	if len(encrypted)%aes.BlockSize != 0 {
		return nil, fmt.Errorf("%w: %d bytes", ErrInvalidCiphertext, len(encrypted))
	}
	block, err := newCipher(key)
	if err != nil {
		return nil, err
	}

	out := make([]byte, len(encrypted))
	for i := 0; i < len(encrypted); i += aes.BlockSize {
		block.Decrypt(out[i:i+aes.BlockSize], encrypted[i:i+aes.BlockSize])
	}

	idx := bytes.Index(out, []byte(trailerMarker))
	if idx < 0 {
		log.Warn(log.CatCrypt, "Decryption produced no trailer marker", "cipher", len(encrypted))
		return nil, ErrMissingTrailer
	}

	log.Debug(log.CatCrypt, "Decrypted payload", "cipher", len(encrypted), "plain", idx)
	return out[:idx], nil
}

// EncryptBase64 encrypts plain and returns the ciphertext encoded with
// standard base64, convenient for text manifests.
func EncryptBase64(plain string, key []byte) (string, error) {
	out, err := Encrypt([]byte(plain), key)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(out), nil
}

// DecryptBase64 decodes standard base64 ciphertext and decrypts it.
func DecryptBase64(encoded string, key []byte) (string, error) {
	encrypted, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("crypt: decode base64: %w", err)
	}
	out, err := Decrypt(encrypted, key)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func newCipher(key []byte) (cipher.Block, error) {
	switch len(key) {
	case 16, 24, 32:
	default:
		return nil, fmt.Errorf("%w: got %d", ErrInvalidKeySize, len(key))
	}
	return aes.NewCipher(key)
}
