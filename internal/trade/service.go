package trade

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	apperr "github.com/nadbot/dexbot-backend/internal/errors"
	"github.com/nadbot/dexbot-backend/internal/models"
	"github.com/nadbot/dexbot-backend/internal/wallet"
)

// WalletSource resolves the wallet a user trades from.
type WalletSource interface {
	DefaultWallet(ctx context.Context, userID int64) (*models.Wallet, error)
}

// TransactionRecorder is the ledger boundary for trade bookkeeping.
type TransactionRecorder interface {
	Record(ctx context.Context, tx *models.Transaction) (*models.Transaction, error)
	UpdateStatus(ctx context.Context, id int64, status string, txHash, amountOut, errMsg *string) error
}

// Notifier pushes human-readable trade events; may be a no-op.
type Notifier interface {
	Send(msg string)
}

// Service ties the sequencer to a user's custodial wallet and the ledger.
// Each call is an independent unit of work.
type Service struct {
	factory   *wallet.Factory
	quotes    *QuoteService
	sequencer *Sequencer
	wallets   WalletSource
	ledger    TransactionRecorder
	notify    Notifier
}

func NewService(factory *wallet.Factory, quotes *QuoteService, sequencer *Sequencer,
	wallets WalletSource, ledger TransactionRecorder, notify Notifier) *Service {
	return &Service{
		factory:   factory,
		quotes:    quotes,
		sequencer: sequencer,
		wallets:   wallets,
		ledger:    ledger,
		notify:    notify,
	}
}

// Quote returns the expected output for a prospective trade without
// touching any keys.
func (s *Service) Quote(ctx context.Context, token string, amountIn *big.Int, direction models.Direction) (*models.Quote, error) {
	if !common.IsHexAddress(token) {
		return nil, fmt.Errorf("invalid token address %q", token)
	}
	return s.quotes.Get(ctx, common.HexToAddress(token), amountIn, direction)
}

// Buy spends amountIn of the native coin on the token for the user's
// default wallet.
func (s *Service) Buy(ctx context.Context, userID int64, token string, amountIn *big.Int, slippagePercent float64) (*models.TradeResult, error) {
	return s.execute(ctx, userID, token, amountIn, slippagePercent, models.Buy)
}

// Sell converts amountIn of the token back to the native coin.
func (s *Service) Sell(ctx context.Context, userID int64, token string, amountIn *big.Int, slippagePercent float64) (*models.TradeResult, error) {
	return s.execute(ctx, userID, token, amountIn, slippagePercent, models.Sell)
}

func (s *Service) execute(ctx context.Context, userID int64, token string, amountIn *big.Int, slippagePercent float64, direction models.Direction) (*models.TradeResult, error) {
	if !common.IsHexAddress(token) {
		return nil, fmt.Errorf("invalid token address %q", token)
	}
	if err := ValidateSlippage(slippagePercent); err != nil {
		return nil, err
	}

	w, err := s.wallets.DefaultWallet(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("resolve wallet: %w", err)
	}

	entry, err := s.ledger.Record(ctx, &models.Transaction{
		WalletID:     w.ID,
		Type:         string(direction),
		TokenAddress: token,
		AmountIn:     amountIn.String(),
		Status:       models.TxStatusPending,
	})
	if err != nil {
		return nil, fmt.Errorf("record transaction: %w", err)
	}

	// The decrypted key lives for exactly one sequence and is zeroed on
	// the way out.
	signer, err := s.factory.Unlock(w.EncryptedKey)
	if err != nil {
		s.settle(ctx, entry.ID, nil, err)
		return nil, err
	}

	req := Request{
		Token:           common.HexToAddress(token),
		Direction:       direction,
		AmountIn:        amountIn,
		SlippagePercent: slippagePercent,
		Recipient:       common.HexToAddress(w.Address),
	}
	result, execErr := s.sequencer.Execute(ctx, req, signer)
	zeroKey(signer)

	s.settle(ctx, entry.ID, result, execErr)

	if execErr != nil {
		if swapStillUnknown(result, execErr) {
			s.notify.Send(fmt.Sprintf("%s of %s unconfirmed for wallet %s (tx %s), will settle from a later receipt",
				direction, token, shortAddr(w.Address), result.TxHash))
		} else {
			s.notify.Send(fmt.Sprintf("%s of %s FAILED for wallet %s: %v",
				direction, token, shortAddr(w.Address), execErr))
		}
		return result, execErr
	}
	// The native leg always has known decimals: spend for buys, expected
	// proceeds for sells.
	native := models.FormatAmount(amountIn, models.NativeDecimals) + " native in"
	if direction == models.Sell {
		native = "~" + models.FormatAmount(result.ExpectedOut, models.NativeDecimals) + " native out"
	}
	s.notify.Send(fmt.Sprintf("%s of %s confirmed for wallet %s, %s (tx %s)",
		direction, token, shortAddr(w.Address), native, result.TxHash))
	return result, nil
}

// swapStillUnknown reports whether the sequence ended with a submitted swap
// whose confirmation timed out, so the outcome is not yet known.
func swapStillUnknown(result *models.TradeResult, execErr error) bool {
	return result != nil && result.TxHash != "" &&
		apperr.KindOf(execErr) == apperr.KindConfirmationTimeout
}

func (s *Service) settle(ctx context.Context, entryID int64, result *models.TradeResult, execErr error) {
	status := models.TxStatusConfirmed
	var txHash, amountOut, errMsg *string
	if result != nil {
		if result.TxHash != "" {
			txHash = &result.TxHash
		}
		if result.ExpectedOut != nil {
			out := result.ExpectedOut.String()
			amountOut = &out
		}
	}
	if execErr != nil {
		if swapStillUnknown(result, execErr) {
			// A timed-out wait is not a verdict: the entry keeps its hash
			// and stays pending so the receipt sweep can settle it later.
			status = models.TxStatusPending
		} else {
			status = models.TxStatusFailed
			msg := execErr.Error()
			errMsg = &msg
		}
	}
	if err := s.ledger.UpdateStatus(ctx, entryID, status, txHash, amountOut, errMsg); err != nil {
		fmt.Printf("[TRADE] Failed to update ledger entry %d: %v\n", entryID, err)
	}
}

// zeroKey wipes the private scalar so the secret does not linger past the
// sequence that used it.
func zeroKey(k *ecdsa.PrivateKey) {
	if k != nil && k.D != nil {
		k.D.SetInt64(0)
	}
}

func shortAddr(addr string) string {
	if len(addr) > 12 {
		return addr[:8] + "..." + addr[len(addr)-4:]
	}
	return addr
}
