package models

import "time"

// Transaction statuses as stored in the ledger.
const (
	TxStatusPending   = "pending"
	TxStatusConfirmed = "confirmed"
	TxStatusFailed    = "failed"
)

// Transaction is the ledger record of one buy/sell attempt.
// Amounts are base-unit integers stored as decimal strings.
type Transaction struct {
	ID           int64     `json:"id"`
	WalletID     int64     `json:"walletId"`
	TxHash       *string   `json:"txHash,omitempty"`
	Type         string    `json:"type"` // "buy" or "sell"
	TokenAddress string    `json:"tokenAddress"`
	AmountIn     string    `json:"amountIn"`
	AmountOut    *string   `json:"amountOut,omitempty"`
	GasUsed      *string   `json:"gasUsed,omitempty"`
	Status       string    `json:"status"`
	ErrorMessage *string   `json:"errorMessage,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}
