package trade

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/nadbot/dexbot-backend/internal/chain"
	apperr "github.com/nadbot/dexbot-backend/internal/errors"
	"github.com/nadbot/dexbot-backend/internal/models"
)

// QuoteService resolves expected output and routing venue for a
// prospective trade. It keeps the two failure classes apart: a token with
// no tradable route ("not listed") versus an RPC/transport failure
// ("temporarily unavailable").
type QuoteService struct {
	client ChainClient
}

func NewQuoteService(client ChainClient) *QuoteService {
	return &QuoteService{client: client}
}

func (q *QuoteService) Get(ctx context.Context, token common.Address, amountIn *big.Int, direction models.Direction) (*models.Quote, error) {
	if !direction.Valid() {
		return nil, fmt.Errorf("unknown trade direction %q", direction)
	}
	if amountIn == nil || amountIn.Sign() <= 0 {
		return nil, fmt.Errorf("amount in must be positive")
	}

	quote, err := q.client.GetQuote(ctx, token, amountIn, direction)
	if err != nil {
		if errors.Is(err, chain.ErrTokenNotListed) {
			return nil, apperr.Wrap(apperr.KindNoLiquidity,
				fmt.Sprintf("token %s has no tradable route", token.Hex()), err)
		}
		return nil, apperr.Wrap(apperr.KindChain, "quote request failed", err)
	}
	return quote, nil
}
