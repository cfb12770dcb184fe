package wallet

import (
	"crypto/rand"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	apperr "github.com/nadbot/dexbot-backend/internal/errors"
	"github.com/nadbot/dexbot-backend/internal/vault"
)

func newFactory(t *testing.T) *Factory {
	t.Helper()
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		t.Fatalf("rand: %v", err)
	}
	v, err := vault.New(key)
	if err != nil {
		t.Fatalf("vault.New: %v", err)
	}
	return NewFactory(v)
}

func TestCreate(t *testing.T) {
	f := newFactory(t)

	a, err := f.Create("Main Wallet")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !common.IsHexAddress(a.Address) {
		t.Fatalf("invalid address: %s", a.Address)
	}
	if a.EncryptedKey == "" {
		t.Fatal("expected encrypted key")
	}
	if a.Label != "Main Wallet" {
		t.Fatalf("label mismatch: %s", a.Label)
	}

	b, err := f.Create("Second")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if a.Address == b.Address {
		t.Fatal("two created accounts share an address")
	}
}

func TestCreateUnlockDerivesSameAddress(t *testing.T) {
	f := newFactory(t)

	a, err := f.Create("w")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	pk, err := f.Unlock(a.EncryptedKey)
	if err != nil {
		t.Fatalf("Unlock: %v", err)
	}
	if got := crypto.PubkeyToAddress(pk.PublicKey).Hex(); got != a.Address {
		t.Fatalf("unlocked key derives %s, account says %s", got, a.Address)
	}
}

func TestImportVector(t *testing.T) {
	f := newFactory(t)

	raw := strings.Repeat("a", 64)
	const want = "0x8fd379246834eac74B8419FfdA202CF8051F7A03"

	a, err := f.Import(raw, "Imported Wallet")
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if a.Address != want {
		t.Fatalf("address mismatch: got %s want %s", a.Address, want)
	}

	// 0x prefix must not change the derivation
	b, err := f.Import("0x"+raw, "Imported Wallet")
	if err != nil {
		t.Fatalf("Import with prefix: %v", err)
	}
	if b.Address != want {
		t.Fatalf("prefixed import derives %s", b.Address)
	}
}

func TestRevealHexRoundTrip(t *testing.T) {
	f := newFactory(t)

	raw := strings.Repeat("a", 64)
	a, err := f.Import(raw, "w")
	if err != nil {
		t.Fatalf("Import: %v", err)
	}

	revealed, err := f.RevealHex(a.EncryptedKey)
	if err != nil {
		t.Fatalf("RevealHex: %v", err)
	}
	if revealed != "0x"+raw {
		t.Fatalf("revealed %s, want 0x%s", revealed, raw)
	}
}

func TestRevealHexRejectsCorruptCiphertext(t *testing.T) {
	f := newFactory(t)

	if _, err := f.RevealHex("not-a-ciphertext"); err == nil {
		t.Fatal("expected error")
	}
}

func TestImportRejectsBadInput(t *testing.T) {
	f := newFactory(t)

	cases := []struct {
		name string
		in   string
	}{
		{"empty", ""},
		{"too short", strings.Repeat("a", 63)},
		{"too long", strings.Repeat("a", 65)},
		{"not hex", strings.Repeat("z", 64)},
		{"zero key", strings.Repeat("0", 64)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.Import(tc.in, "w")
			if err == nil {
				t.Fatal("expected error")
			}
			if apperr.KindOf(err) != apperr.KindInvalidKeyFormat {
				t.Fatalf("expected invalid key format, got %v", apperr.KindOf(err))
			}
		})
	}
}
