package wallet

import (
	"crypto/ecdsa"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"

	apperr "github.com/nadbot/dexbot-backend/internal/errors"
	"github.com/nadbot/dexbot-backend/internal/models"
	"github.com/nadbot/dexbot-backend/internal/vault"
)

const secretLen = 32

// Factory creates and imports accounts. The raw secret exists only inside
// a single call; what leaves the factory is the derived address plus the
// vault ciphertext.
type Factory struct {
	vault *vault.Vault
}

func NewFactory(v *vault.Vault) *Factory {
	return &Factory{vault: v}
}

// Create generates a fresh secp256k1 key, derives its address and encrypts
// the secret for storage.
func (f *Factory) Create(label string) (*models.Account, error) {
	pk, err := crypto.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}
	return f.seal(pk, label)
}

// Import accepts a hex-encoded 32-byte private key, with or without a 0x
// prefix, and derives the account exactly as Create does.
func (f *Factory) Import(rawHex, label string) (*models.Account, error) {
	cleaned := strings.TrimPrefix(strings.TrimSpace(rawHex), "0x")
	if len(cleaned) != secretLen*2 {
		return nil, apperr.New(apperr.KindInvalidKeyFormat,
			fmt.Sprintf("private key must be %d hex characters, got %d", secretLen*2, len(cleaned)))
	}
	if _, err := hex.DecodeString(cleaned); err != nil {
		return nil, apperr.Wrap(apperr.KindInvalidKeyFormat, "private key is not valid hex", err)
	}
	pk, err := crypto.HexToECDSA(cleaned)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInvalidKeyFormat, "invalid private key", err)
	}
	return f.seal(pk, label)
}

func (f *Factory) seal(pk *ecdsa.PrivateKey, label string) (*models.Account, error) {
	raw := crypto.FromECDSA(pk)
	defer clear(raw)

	encrypted, err := f.vault.Encrypt(raw)
	if err != nil {
		return nil, fmt.Errorf("encrypt key: %w", err)
	}
	return &models.Account{
		Address:      crypto.PubkeyToAddress(pk.PublicKey).Hex(),
		EncryptedKey: encrypted,
		Label:        label,
	}, nil
}

// RevealHex decrypts a stored account key into its 0x-prefixed hex form
// for display. Callers gate access to this; the factory only performs the
// decryption.
func (f *Factory) RevealHex(encryptedKey string) (string, error) {
	raw, err := f.vault.Decrypt(encryptedKey)
	if err != nil {
		return "", err
	}
	defer clear(raw)
	return "0x" + hex.EncodeToString(raw), nil
}

// Unlock decrypts a stored account key into a usable signing key. The
// caller owns the result for the duration of one signing operation and
// must let it go out of scope immediately afterwards.
func (f *Factory) Unlock(encryptedKey string) (*ecdsa.PrivateKey, error) {
	raw, err := f.vault.Decrypt(encryptedKey)
	if err != nil {
		return nil, err
	}
	defer clear(raw)

	pk, err := crypto.ToECDSA(raw)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindDecryption, "stored key is corrupt", err)
	}
	return pk, nil
}
