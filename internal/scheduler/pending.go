package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nadbot/dexbot-backend/internal/models"
)

// PendingLedger is the slice of the transaction repository the checker
// needs: submitted-but-unsettled entries and the means to settle them.
type PendingLedger interface {
	PendingWithHash(ctx context.Context, limit int) ([]models.Transaction, error)
	UpdateStatus(ctx context.Context, id int64, status string, txHash, amountOut, errMsg *string) error
}

// ReceiptSource looks up a transaction receipt; nil receipt means the
// transaction is still in flight.
type ReceiptSource interface {
	GetReceipt(ctx context.Context, txHash string) (*models.ConfirmationReceipt, error)
}

type PendingCheckerConfig struct {
	Interval  time.Duration // e.g. 1*time.Minute
	BatchSize int           // max entries per sweep
}

// PendingChecker periodically re-checks ledger entries whose confirmation
// wait timed out. A trade that outlives its waiter is not lost; it settles
// here on a later sweep.
type PendingChecker struct {
	ledger PendingLedger
	chain  ReceiptSource
	cfg    PendingCheckerConfig

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
}

func NewPendingChecker(ledger PendingLedger, chain ReceiptSource, cfg PendingCheckerConfig) *PendingChecker {
	if cfg.Interval <= 0 {
		cfg.Interval = 1 * time.Minute
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	return &PendingChecker{ledger: ledger, chain: chain, cfg: cfg}
}

func (c *PendingChecker) Start() {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		fmt.Println("[PENDING] Already running")
		return
	}
	c.running = true
	c.stopCh = make(chan struct{})
	c.mu.Unlock()

	go func() {
		ticker := time.NewTicker(c.cfg.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-c.stopCh:
				return
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				if n, err := c.Sweep(ctx); err != nil {
					fmt.Printf("[PENDING] Sweep failed: %v\n", err)
				} else if n > 0 {
					fmt.Printf("[PENDING] Settled %d transaction(s)\n", n)
				}
				cancel()
			}
		}
	}()

	fmt.Printf("[PENDING] Started (every %s)\n", c.cfg.Interval)
}

func (c *PendingChecker) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running {
		return
	}
	close(c.stopCh)
	c.running = false
	fmt.Println("[PENDING] Stopped")
}

func (c *PendingChecker) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// Sweep checks every stale pending entry once and settles those whose
// receipt has landed. Returns the number of entries settled.
func (c *PendingChecker) Sweep(ctx context.Context) (int, error) {
	entries, err := c.ledger.PendingWithHash(ctx, c.cfg.BatchSize)
	if err != nil {
		return 0, fmt.Errorf("load pending: %w", err)
	}

	settled := 0
	for _, entry := range entries {
		receipt, err := c.chain.GetReceipt(ctx, *entry.TxHash)
		if err != nil {
			fmt.Printf("[PENDING] Receipt lookup failed for tx %d: %v\n", entry.ID, err)
			continue
		}
		if receipt == nil {
			continue // still in flight
		}

		status := models.TxStatusConfirmed
		var errMsg *string
		if !receipt.Success {
			status = models.TxStatusFailed
			msg := "transaction reverted on-chain"
			errMsg = &msg
		}
		if err := c.ledger.UpdateStatus(ctx, entry.ID, status, nil, nil, errMsg); err != nil {
			fmt.Printf("[PENDING] Failed to settle tx %d: %v\n", entry.ID, err)
			continue
		}
		settled++
	}
	return settled, nil
}
