package risk

import (
	"context"
	"fmt"
	"time"
)

// TradeCounter abstracts the trade-counting dependency so Guardian can be
// tested without a real database.
type TradeCounter interface {
	CountSince(ctx context.Context, userID int64, cutoff time.Time) (int, error)
}

// WalletCounter reports how many active wallets a user holds.
type WalletCounter interface {
	CountByUser(ctx context.Context, userID int64) (int, error)
}

// Limits holds the per-user thresholds from config.
// A zero value for any field means that check is disabled.
type Limits struct {
	MaxWalletsPerUser int
	MaxDailyTrades    int
}

type Guardian struct {
	limits  Limits
	trades  TradeCounter
	wallets WalletCounter
	now     func() time.Time
}

func NewGuardian(limits Limits, trades TradeCounter, wallets WalletCounter) *Guardian {
	return &Guardian{limits: limits, trades: trades, wallets: wallets, now: time.Now}
}

// PreTradeCheck validates per-user constraints before execution.
// Returns nil if the trade is allowed, a descriptive error if blocked.
func (g *Guardian) PreTradeCheck(ctx context.Context, userID int64) error {
	if g.limits.MaxDailyTrades > 0 && g.trades != nil {
		cutoff := g.now().Add(-24 * time.Hour)
		count, err := g.trades.CountSince(ctx, userID, cutoff)
		if err != nil {
			return fmt.Errorf("trade blocked: unable to verify daily trade count: %w", err)
		}
		if count >= g.limits.MaxDailyTrades {
			return fmt.Errorf("trade blocked: daily limit of %d trades reached (%d in the last 24h)",
				g.limits.MaxDailyTrades, count)
		}
	}
	return nil
}

// WalletCreateCheck enforces the per-user wallet cap before a create or
// import.
func (g *Guardian) WalletCreateCheck(ctx context.Context, userID int64) error {
	if g.limits.MaxWalletsPerUser <= 0 || g.wallets == nil {
		return nil
	}
	count, err := g.wallets.CountByUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("wallet blocked: unable to verify wallet count: %w", err)
	}
	if count >= g.limits.MaxWalletsPerUser {
		return fmt.Errorf("wallet blocked: limit of %d wallets reached (%d active)",
			g.limits.MaxWalletsPerUser, count)
	}
	return nil
}
