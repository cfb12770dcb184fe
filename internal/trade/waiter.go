package trade

import (
	"context"
	"fmt"
	"time"

	apperr "github.com/nadbot/dexbot-backend/internal/errors"
	"github.com/nadbot/dexbot-backend/internal/models"
)

// Waiter polls for a transaction receipt at a fixed interval until the
// receipt appears or the timeout elapses. A timeout means the outcome is
// still unknown, not that the transaction failed; the underlying
// transaction is never cancelled or resubmitted.
type Waiter struct {
	client         ReceiptGetter
	pollInterval   time.Duration
	defaultTimeout time.Duration
}

func NewWaiter(client ReceiptGetter, pollInterval, defaultTimeout time.Duration) *Waiter {
	if pollInterval <= 0 {
		pollInterval = 2 * time.Second
	}
	if defaultTimeout <= 0 {
		defaultTimeout = 300 * time.Second
	}
	return &Waiter{client: client, pollInterval: pollInterval, defaultTimeout: defaultTimeout}
}

// Wait blocks until a receipt is available or timeout elapses. A timeout
// of zero uses the waiter's default. Transient receipt-query failures are
// absorbed and retried on the next tick; the deadline bounds the whole
// wait either way.
func (w *Waiter) Wait(ctx context.Context, txHash string, timeout time.Duration) (*models.ConfirmationReceipt, error) {
	if timeout <= 0 {
		timeout = w.defaultTimeout
	}
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	var lastErr error
	for {
		receipt, err := w.client.GetReceipt(ctx, txHash)
		if err != nil {
			lastErr = err
		} else if receipt != nil {
			return receipt, nil
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("confirmation wait aborted: %w", ctx.Err())
		case <-deadline.C:
			msg := fmt.Sprintf("no receipt for %s within %s", txHash, timeout)
			return nil, apperr.Wrap(apperr.KindConfirmationTimeout, msg, lastErr)
		case <-ticker.C:
		}
	}
}
