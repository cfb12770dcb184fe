package trade

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/nadbot/dexbot-backend/internal/models"
)

const (
	testRouter       = "0x00000000000000000000000000000000000000A1"
	testApprovalHash = "0xaaaa000000000000000000000000000000000000000000000000000000000001"
	testSwapHash     = "0xbbbb000000000000000000000000000000000000000000000000000000000002"
)

// fakeChain scripts the Chain Client boundary and records the order of
// calls so tests can assert sequencing.
type fakeChain struct {
	mu    sync.Mutex
	calls []string

	quoteOut     *big.Int
	quoteErr     error
	allowance    *big.Int
	allowanceErr error
	approveErr   error
	swapErr      error

	// receiptFn overrides receipt lookup; nil means instant success.
	receiptFn func(txHash string) (*models.ConfirmationReceipt, error)
}

func newFakeChain() *fakeChain {
	return &fakeChain{
		quoteOut:  big.NewInt(1000),
		allowance: big.NewInt(0),
	}
}

func (f *fakeChain) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeChain) callIndex(call string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, c := range f.calls {
		if c == call {
			return i
		}
	}
	return -1
}

func (f *fakeChain) GetQuote(ctx context.Context, token common.Address, amountIn *big.Int, direction models.Direction) (*models.Quote, error) {
	f.record("quote")
	if f.quoteErr != nil {
		return nil, f.quoteErr
	}
	return &models.Quote{
		Token:     token.Hex(),
		Direction: direction,
		Router:    testRouter,
		AmountIn:  new(big.Int).Set(amountIn),
		AmountOut: new(big.Int).Set(f.quoteOut),
	}, nil
}

func (f *fakeChain) GetAllowance(ctx context.Context, token, owner, spender common.Address) (*big.Int, error) {
	f.record("allowance")
	if f.allowanceErr != nil {
		return nil, f.allowanceErr
	}
	return new(big.Int).Set(f.allowance), nil
}

func (f *fakeChain) Approve(ctx context.Context, token, spender common.Address, amount *big.Int, signer *ecdsa.PrivateKey) (string, error) {
	f.record("approve")
	if f.approveErr != nil {
		return "", f.approveErr
	}
	return testApprovalHash, nil
}

func (f *fakeChain) SubmitSwap(ctx context.Context, order *models.TradeOrder, router common.Address, signer *ecdsa.PrivateKey) (string, error) {
	f.record("swap")
	if f.swapErr != nil {
		return "", f.swapErr
	}
	return testSwapHash, nil
}

func (f *fakeChain) GetReceipt(ctx context.Context, txHash string) (*models.ConfirmationReceipt, error) {
	f.record(fmt.Sprintf("receipt:%s", txHash))
	if f.receiptFn != nil {
		return f.receiptFn(txHash)
	}
	return &models.ConfirmationReceipt{
		TxHash:      txHash,
		Success:     true,
		GasUsed:     21000,
		BlockNumber: 100,
	}, nil
}
