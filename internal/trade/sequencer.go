package trade

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	apperr "github.com/nadbot/dexbot-backend/internal/errors"
	"github.com/nadbot/dexbot-backend/internal/models"
)

// State names the steps of one buy/sell sequence.
type State string

const (
	StateQuoting              State = "QUOTING"
	StateCheckingAllowance    State = "CHECKING_ALLOWANCE"
	StateApproving            State = "APPROVING"
	StateAwaitingApproval     State = "AWAITING_APPROVAL"
	StateSwapping             State = "SWAPPING"
	StateAwaitingConfirmation State = "AWAITING_CONFIRMATION"
	StateDone                 State = "DONE"
	StateFailed               State = "FAILED"
)

// Request describes one trade attempt. AmountIn is base units.
type Request struct {
	Token           common.Address
	Direction       models.Direction
	AmountIn        *big.Int
	SlippagePercent float64
	Recipient       common.Address
	Deadline        *big.Int
}

// Sequencer runs the full trade protocol: quote, slippage bound, allowance
// top-up for sells, swap submission, confirmation. Funds-moving steps are
// never retried; a failed sequence returns whatever partial artifacts
// exist (notably an approval hash) alongside a typed error.
//
// A Sequencer holds no per-trade state, so concurrent Execute calls from
// independent sessions are safe.
type Sequencer struct {
	client         ChainClient
	quotes         *QuoteService
	waiter         *Waiter
	confirmTimeout time.Duration
}

func NewSequencer(client ChainClient, quotes *QuoteService, waiter *Waiter, confirmTimeout time.Duration) *Sequencer {
	if confirmTimeout <= 0 {
		confirmTimeout = 300 * time.Second
	}
	return &Sequencer{
		client:         client,
		quotes:         quotes,
		waiter:         waiter,
		confirmTimeout: confirmTimeout,
	}
}

// Execute runs one sequence to its terminal state. The returned
// TradeResult is always non-nil; on failure it carries whatever was
// produced before the failing step. The signer key is used only for the
// approve and swap calls and is not retained.
func (s *Sequencer) Execute(ctx context.Context, req Request, signer *ecdsa.PrivateKey) (*models.TradeResult, error) {
	result := &models.TradeResult{
		Direction: req.Direction,
		Token:     req.Token.Hex(),
		AmountIn:  new(big.Int).Set(req.AmountIn),
	}

	s.transition(req, StateQuoting)
	quote, err := s.quotes.Get(ctx, req.Token, req.AmountIn, req.Direction)
	if err != nil {
		return s.fail(req, result, err)
	}

	minOut, err := MinOut(quote.AmountOut, req.SlippagePercent)
	if err != nil {
		return s.fail(req, result, err)
	}
	result.Router = quote.Router
	result.ExpectedOut = quote.AmountOut
	result.MinOut = minOut
	router := common.HexToAddress(quote.Router)

	// Sells move tokens through the router, which needs an allowance at
	// least as large as the trade. The approval must be confirmed on-chain
	// before the swap is submitted.
	if req.Direction == models.Sell {
		if err := s.ensureAllowance(ctx, req, result, router, signer); err != nil {
			return s.fail(req, result, err)
		}
	}

	order := &models.TradeOrder{
		Token:        req.Token.Hex(),
		Direction:    req.Direction,
		AmountIn:     req.AmountIn,
		AmountOutMin: minOut,
		Recipient:    req.Recipient.Hex(),
		Deadline:     req.Deadline,
	}

	s.transition(req, StateSwapping)
	txHash, err := s.client.SubmitSwap(ctx, order, router, signer)
	if err != nil {
		return s.fail(req, result, apperr.Wrap(apperr.KindSwapSubmission, "swap submission failed", err))
	}
	result.TxHash = txHash

	s.transition(req, StateAwaitingConfirmation)
	receipt, err := s.waiter.Wait(ctx, txHash, s.confirmTimeout)
	if err != nil {
		return s.fail(req, result, err)
	}
	result.GasUsed = receipt.GasUsed
	if !receipt.Success {
		return s.fail(req, result, apperr.New(apperr.KindChain,
			fmt.Sprintf("swap %s reverted on-chain", txHash)))
	}

	result.Success = true
	s.transition(req, StateDone)
	return result, nil
}

func (s *Sequencer) ensureAllowance(ctx context.Context, req Request, result *models.TradeResult, router common.Address, signer *ecdsa.PrivateKey) error {
	owner := crypto.PubkeyToAddress(signer.PublicKey)

	s.transition(req, StateCheckingAllowance)
	allowance, err := s.client.GetAllowance(ctx, req.Token, owner, router)
	if err != nil {
		return apperr.Wrap(apperr.KindAllowanceCheck, "allowance check failed", err)
	}
	if allowance.Cmp(req.AmountIn) >= 0 {
		return nil
	}

	s.transition(req, StateApproving)
	approvalHash, err := s.client.Approve(ctx, req.Token, router, req.AmountIn, signer)
	if err != nil {
		return apperr.Wrap(apperr.KindApproval, "approval submission failed", err)
	}
	result.ApprovalTxHash = approvalHash

	s.transition(req, StateAwaitingApproval)
	receipt, err := s.waiter.Wait(ctx, approvalHash, s.confirmTimeout)
	if err != nil {
		// The approval hash stays on the result for the caller to inspect.
		return err
	}
	if !receipt.Success {
		return apperr.New(apperr.KindApproval,
			fmt.Sprintf("approval %s reverted on-chain", approvalHash))
	}
	return nil
}

func (s *Sequencer) fail(req Request, result *models.TradeResult, err error) (*models.TradeResult, error) {
	s.transition(req, StateFailed)
	return result, err
}

func (s *Sequencer) transition(req Request, state State) {
	fmt.Printf("[TRADE] %s %s -> %s\n", req.Direction, req.Token.Hex(), state)
}
