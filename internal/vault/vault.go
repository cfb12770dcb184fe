package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"

	apperr "github.com/nadbot/dexbot-backend/internal/errors"
)

const (
	keyLen   = 32
	nonceLen = 12
)

// Vault performs authenticated symmetric encryption of raw secret material
// under a single process-wide key supplied at construction. The key is read
// concurrently and never mutated, so a Vault is safe for concurrent use.
type Vault struct {
	aead cipher.AEAD
}

// New builds a Vault from a 32-byte key.
func New(key []byte) (*Vault, error) {
	if len(key) != keyLen {
		return nil, fmt.Errorf("vault key must be %d bytes, got %d", keyLen, len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create GCM: %w", err)
	}
	return &Vault{aead: aead}, nil
}

// NewFromHex builds a Vault from a hex-encoded key, as carried in config.
func NewFromHex(keyHex string) (*Vault, error) {
	key, err := hex.DecodeString(keyHex)
	if err != nil {
		return nil, fmt.Errorf("decode vault key: %w", err)
	}
	return New(key)
}

// Encrypt seals secret bytes and returns a storable base64 envelope of
// nonce||ciphertext. A fresh random nonce is drawn per call.
func (v *Vault) Encrypt(secret []byte) (string, error) {
	nonce := make([]byte, nonceLen)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}
	sealed := v.aead.Seal(nonce, nonce, secret, nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt opens an envelope produced by Encrypt. Malformed input or an
// authentication-tag mismatch (wrong key, tampered ciphertext) both yield a
// decryption error. Callers must zero the returned bytes after use.
func (v *Vault) Decrypt(envelope string) ([]byte, error) {
	sealed, err := base64.StdEncoding.DecodeString(envelope)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindDecryption, "malformed ciphertext envelope", err)
	}
	if len(sealed) < nonceLen+v.aead.Overhead() {
		return nil, apperr.New(apperr.KindDecryption, "ciphertext too short")
	}
	nonce, ciphertext := sealed[:nonceLen], sealed[nonceLen:]
	secret, err := v.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindDecryption, "ciphertext authentication failed", err)
	}
	return secret, nil
}
