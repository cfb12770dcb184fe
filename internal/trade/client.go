package trade

import (
	"context"
	"crypto/ecdsa"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/nadbot/dexbot-backend/internal/models"
)

// ChainClient is the on-chain collaborator the trade core depends on.
// Satisfied by chain.Client; tests substitute fakes.
type ChainClient interface {
	GetQuote(ctx context.Context, token common.Address, amountIn *big.Int, direction models.Direction) (*models.Quote, error)
	GetAllowance(ctx context.Context, token, owner, spender common.Address) (*big.Int, error)
	Approve(ctx context.Context, token, spender common.Address, amount *big.Int, signer *ecdsa.PrivateKey) (string, error)
	SubmitSwap(ctx context.Context, order *models.TradeOrder, router common.Address, signer *ecdsa.PrivateKey) (string, error)
	GetReceipt(ctx context.Context, txHash string) (*models.ConfirmationReceipt, error)
}

// ReceiptGetter is the slice of ChainClient the confirmation waiter needs.
type ReceiptGetter interface {
	GetReceipt(ctx context.Context, txHash string) (*models.ConfirmationReceipt, error)
}
