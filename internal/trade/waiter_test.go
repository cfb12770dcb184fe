package trade

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	apperr "github.com/nadbot/dexbot-backend/internal/errors"
	"github.com/nadbot/dexbot-backend/internal/models"
)

type scriptedReceipts struct {
	pendingPolls int32 // polls that return "still pending" before the receipt
	polls        atomic.Int32
	err          error
}

func (s *scriptedReceipts) GetReceipt(ctx context.Context, txHash string) (*models.ConfirmationReceipt, error) {
	n := s.polls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	if n <= s.pendingPolls {
		return nil, nil
	}
	return &models.ConfirmationReceipt{TxHash: txHash, Success: true, GasUsed: 50000, BlockNumber: 7}, nil
}

func TestWaitReceiptAppearsAfterPolls(t *testing.T) {
	src := &scriptedReceipts{pendingPolls: 3}
	w := NewWaiter(src, 5*time.Millisecond, time.Second)

	receipt, err := w.Wait(context.Background(), testSwapHash, 0)
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if !receipt.Success || receipt.GasUsed != 50000 {
		t.Fatalf("unexpected receipt: %+v", receipt)
	}
	if got := src.polls.Load(); got != 4 {
		t.Fatalf("expected 4 polls, got %d", got)
	}
}

func TestWaitTimesOut(t *testing.T) {
	// A client that never produces a receipt must fail with a timeout at
	// approximately the requested deadline.
	src := &scriptedReceipts{pendingPolls: 1 << 30}
	w := NewWaiter(src, 50*time.Millisecond, time.Minute)

	start := time.Now()
	_, err := w.Wait(context.Background(), testSwapHash, time.Second)
	elapsed := time.Since(start)

	if apperr.KindOf(err) != apperr.KindConfirmationTimeout {
		t.Fatalf("expected confirmation timeout, got %v", err)
	}
	if elapsed < 900*time.Millisecond || elapsed > 2*time.Second {
		t.Fatalf("timeout fired at %s, expected about 1s", elapsed)
	}
}

func TestWaitAbsorbsTransientErrors(t *testing.T) {
	var polls atomic.Int32
	src := receiptFunc(func(ctx context.Context, txHash string) (*models.ConfirmationReceipt, error) {
		if polls.Add(1) < 3 {
			return nil, errors.New("rpc hiccup")
		}
		return &models.ConfirmationReceipt{TxHash: txHash, Success: true}, nil
	})
	w := NewWaiter(src, 5*time.Millisecond, time.Second)

	receipt, err := w.Wait(context.Background(), testSwapHash, 0)
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if !receipt.Success {
		t.Fatal("expected successful receipt")
	}
}

func TestWaitCancelled(t *testing.T) {
	src := &scriptedReceipts{pendingPolls: 1 << 30}
	w := NewWaiter(src, 10*time.Millisecond, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(30 * time.Millisecond)
		cancel()
	}()

	_, err := w.Wait(ctx, testSwapHash, time.Minute)
	if err == nil || !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context cancellation, got %v", err)
	}
}

type receiptFunc func(ctx context.Context, txHash string) (*models.ConfirmationReceipt, error)

func (f receiptFunc) GetReceipt(ctx context.Context, txHash string) (*models.ConfirmationReceipt, error) {
	return f(ctx, txHash)
}
