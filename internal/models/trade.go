package models

import "math/big"

// Direction of a trade relative to the token: buy spends the native coin,
// sell spends the token.
type Direction string

const (
	Buy  Direction = "buy"
	Sell Direction = "sell"
)

func (d Direction) Valid() bool { return d == Buy || d == Sell }

// TokenInfo is ERC20 metadata read from the token contract. Name and
// Symbol are best-effort; tokens without them still trade.
type TokenInfo struct {
	Address  string `json:"address"`
	Name     string `json:"name,omitempty"`
	Symbol   string `json:"symbol,omitempty"`
	Decimals uint8  `json:"decimals"`
}

// Quote is an ephemeral expected-output answer for a prospective trade.
// Amounts are base units.
type Quote struct {
	Token     string    `json:"token"`
	Direction Direction `json:"direction"`
	Router    string    `json:"router"`
	AmountIn  *big.Int  `json:"amountIn"`
	AmountOut *big.Int  `json:"amountOut"`
}

// TradeOrder is constructed per trade attempt. Deadline, Nonce and GasLimit
// are optional overrides; zero values mean "let the chain client decide".
type TradeOrder struct {
	Token        string
	Direction    Direction
	AmountIn     *big.Int
	AmountOutMin *big.Int
	Recipient    string
	Deadline     *big.Int
	Nonce        *uint64
	GasLimit     uint64
}

// TradeResult is immutable once produced. ApprovalTxHash is set only when
// the sell path had to raise an allowance first; it is retained even when
// the sequence fails afterwards so the caller can inspect the partial state.
type TradeResult struct {
	TxHash         string    `json:"txHash,omitempty"`
	ApprovalTxHash string    `json:"approvalTxHash,omitempty"`
	Direction      Direction `json:"direction"`
	Token          string    `json:"token"`
	Router         string    `json:"router,omitempty"`
	AmountIn       *big.Int  `json:"amountIn"`
	ExpectedOut    *big.Int  `json:"expectedOut,omitempty"`
	MinOut         *big.Int  `json:"minOut,omitempty"`
	GasUsed        uint64    `json:"gasUsed,omitempty"`
	Success        bool      `json:"success"`
}

// ConfirmationReceipt is the on-chain outcome of a submitted transaction.
type ConfirmationReceipt struct {
	TxHash      string `json:"txHash"`
	Success     bool   `json:"success"`
	GasUsed     uint64 `json:"gasUsed"`
	BlockNumber uint64 `json:"blockNumber"`
}
