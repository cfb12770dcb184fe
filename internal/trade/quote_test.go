package trade

import (
	"context"
	"math/big"
	"testing"

	"github.com/nadbot/dexbot-backend/internal/models"
)

func TestQuoteValidation(t *testing.T) {
	q := NewQuoteService(newFakeChain())
	ctx := context.Background()

	if _, err := q.Get(ctx, testToken, big.NewInt(100), "short"); err == nil {
		t.Fatal("expected error for unknown direction")
	}
	if _, err := q.Get(ctx, testToken, big.NewInt(0), models.Buy); err == nil {
		t.Fatal("expected error for zero amount")
	}
	if _, err := q.Get(ctx, testToken, nil, models.Buy); err == nil {
		t.Fatal("expected error for nil amount")
	}

	quote, err := q.Get(ctx, testToken, big.NewInt(100), models.Buy)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if quote.Router != testRouter || quote.AmountOut.Int64() != 1000 {
		t.Fatalf("unexpected quote: %+v", quote)
	}
}
