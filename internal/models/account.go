package models

import "time"

// Account is a custodial wallet entry: a derived public address plus the
// encrypted secret that controls it. The secret never appears here in
// cleartext.
type Account struct {
	Address      string `json:"address"`
	EncryptedKey string `json:"-"`
	Label        string `json:"label"`
}

type User struct {
	ID              int64     `json:"id"`
	Username        *string   `json:"username,omitempty"`
	FirstName       *string   `json:"firstName,omitempty"`
	LastName        *string   `json:"lastName,omitempty"`
	DefaultWalletID *int64    `json:"defaultWalletId,omitempty"`
	PasswordHash    *string   `json:"-"`
	SlippagePercent float64   `json:"slippagePercent"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

type Wallet struct {
	ID           int64     `json:"id"`
	UserID       int64     `json:"userId"`
	Name         string    `json:"name"`
	Address      string    `json:"address"`
	EncryptedKey string    `json:"-"`
	IsActive     bool      `json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
}
