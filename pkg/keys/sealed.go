// Package keys seals the custody private key at rest.
//
// A sealed key is base64(nonce || ciphertext || tag) produced by AES-256-GCM.
// The AES key is derived from a 32-byte master key with HKDF-SHA256, so the
// master key itself never encrypts anything directly.
package keys

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"github.com/ethereum/go-ethereum/crypto"
	"golang.org/x/crypto/hkdf"
)

const (
	// MasterKeySize is the length of a master key in bytes.
	MasterKeySize = 32
	// privateKeySize is the length of a secp256k1 private key.
	privateKeySize = 32
)

// sealInfo binds derived keys to custody key sealing.
var sealInfo = []byte("vault-ledger custody key v1")

var (
	ErrMasterKeySize = errors.New("master key must be 32 bytes")
	ErrSealedKey     = errors.New("sealed key is malformed")
)

// GenerateMasterKey returns a new random master key.
func GenerateMasterKey() ([]byte, error) {
	key := make([]byte, MasterKeySize)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return nil, fmt.Errorf("failed to generate master key: %w", err)
	}
	return key, nil
}

// MasterKeyFromBase64 decodes a base64-encoded master key
func MasterKeyFromBase64(encoded string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode master key: %w", err)
	}
	if len(key) != MasterKeySize {
		return nil, fmt.Errorf("%w, got %d", ErrMasterKeySize, len(key))
	}
	return key, nil
}

// MasterKeyToBase64 encodes a master key as base64 for storage
func MasterKeyToBase64(key []byte) string {
	return base64.StdEncoding.EncodeToString(key)
}

func newGCM(masterKey []byte) (cipher.AEAD, error) {
	if len(masterKey) != MasterKeySize {
		return nil, ErrMasterKeySize
	}
	aesKey := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, masterKey, nil, sealInfo), aesKey); err != nil {
		return nil, fmt.Errorf("failed to derive sealing key: %w", err)
	}
	block, err := aes.NewCipher(aesKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return gcm, nil
}

// Seal encrypts a 32-byte secp256k1 private key under masterKey.
func Seal(privateKey, masterKey []byte) (string, error) {
	if len(privateKey) != privateKeySize {
		return "", fmt.Errorf("private key must be %d bytes", privateKeySize)
	}
	gcm, err := newGCM(masterKey)
	if err != nil {
		return "", err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	return base64.StdEncoding.EncodeToString(gcm.Seal(nonce, nonce, privateKey, nil)), nil
}

// Open decrypts a sealed key and returns the raw private key bytes.
func Open(sealed string, masterKey []byte) ([]byte, error) {
	gcm, err := newGCM(masterKey)
	if err != nil {
		return nil, err
	}
	raw, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSealedKey, err)
	}
	nonceSize := gcm.NonceSize()
	if len(raw) < nonceSize {
		return nil, fmt.Errorf("%w: too short", ErrSealedKey)
	}
	plaintext, err := gcm.Open(nil, raw[:nonceSize], raw[nonceSize:], nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSealedKey, err)
	}
	if len(plaintext) != privateKeySize {
		return nil, fmt.Errorf("%w: got %d key bytes", ErrSealedKey, len(plaintext))
	}
	return plaintext, nil
}

// OpenHex opens a sealed key and returns it hex encoded, the form the
// ethereum client accepts.
func OpenHex(sealed string, masterKey []byte) (string, error) {
	raw, err := Open(sealed, masterKey)
	if err != nil {
		return "", err
	}
	key, err := crypto.ToECDSA(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSealedKey, err)
	}
	return fmt.Sprintf("%x", crypto.FromECDSA(key)), nil
}
