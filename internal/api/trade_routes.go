package api

import (
	"context"
	"fmt"
	"math/big"
	"net/http"

	"github.com/ethereum/go-ethereum/common"

	"github.com/nadbot/dexbot-backend/internal/models"
)

func (s *Server) handleTokenInfo(w http.ResponseWriter, r *http.Request) {
	token := r.PathValue("token")
	if !common.IsHexAddress(token) {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid token address %q", token))
		return
	}

	info, err := s.deps.Chain.TokenInfo(r.Context(), common.HexToAddress(token))
	if err != nil {
		fmt.Printf("Error fetching token info for %s: %v\n", token, err)
		writeError(w, http.StatusBadGateway, "failed to read token metadata")
		return
	}
	writeJSON(w, http.StatusOK, info)
}

type quoteResponse struct {
	Token              string `json:"token"`
	Symbol             string `json:"symbol,omitempty"`
	Direction          string `json:"direction"`
	AmountIn           string `json:"amountIn"`
	AmountOut          string `json:"amountOut"`
	AmountOutFormatted string `json:"amountOutFormatted"`
	Router             string `json:"router"`
}

func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	token := q.Get("token")
	direction := models.Direction(q.Get("direction"))
	if !direction.Valid() {
		writeError(w, http.StatusBadRequest, "direction must be buy or sell")
		return
	}
	if !common.IsHexAddress(token) {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid token address %q", token))
		return
	}

	info, err := s.deps.Chain.TokenInfo(r.Context(), common.HexToAddress(token))
	if err != nil {
		fmt.Printf("Error fetching token info for %s: %v\n", token, err)
		writeError(w, http.StatusBadGateway, "failed to read token metadata")
		return
	}

	// Buys spend the native coin and pay out tokens; sells the reverse.
	inDecimals, outDecimals := models.NativeDecimals, int(info.Decimals)
	if direction == models.Sell {
		inDecimals, outDecimals = outDecimals, inDecimals
	}

	amountIn, err := models.ParseAmount(q.Get("amount"), inDecimals)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid amount: %v", err))
		return
	}

	quote, err := s.deps.Trades.Quote(r.Context(), token, amountIn, direction)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, quoteResponse{
		Token:              token,
		Symbol:             info.Symbol,
		Direction:          string(direction),
		AmountIn:           amountIn.String(),
		AmountOut:          quote.AmountOut.String(),
		AmountOutFormatted: models.FormatAmount(quote.AmountOut, outDecimals),
		Router:             quote.Router,
	})
}

type tradeRequest struct {
	Token           string   `json:"token"`
	Amount          string   `json:"amount"`
	SlippagePercent *float64 `json:"slippagePercent"`
}

func (s *Server) handleBuy(w http.ResponseWriter, r *http.Request) {
	s.handleTrade(w, r, models.Buy)
}

func (s *Server) handleSell(w http.ResponseWriter, r *http.Request) {
	s.handleTrade(w, r, models.Sell)
}

// tradeAmount parses the request amount in the units the direction spends:
// the native coin for buys, the token's own decimals for sells.
func (s *Server) tradeAmount(ctx context.Context, token, amount string, direction models.Direction) (*big.Int, error) {
	decimals := models.NativeDecimals
	if direction == models.Sell {
		if !common.IsHexAddress(token) {
			return nil, fmt.Errorf("invalid token address %q", token)
		}
		info, err := s.deps.Chain.TokenInfo(ctx, common.HexToAddress(token))
		if err != nil {
			return nil, fmt.Errorf("read token decimals: %w", err)
		}
		decimals = int(info.Decimals)
	}
	return models.ParseAmount(amount, decimals)
}

func (s *Server) handleTrade(w http.ResponseWriter, r *http.Request, direction models.Direction) {
	userID, err := pathID(r, "userID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req tradeRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	amountIn, err := s.tradeAmount(r.Context(), req.Token, req.Amount, direction)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid amount: %v", err))
		return
	}

	if err := s.deps.Guardian.PreTradeCheck(r.Context(), userID); err != nil {
		writeError(w, http.StatusTooManyRequests, err.Error())
		return
	}

	// Fall back to the user's stored slippage preference.
	slippage := 0.0
	if req.SlippagePercent != nil {
		slippage = *req.SlippagePercent
	} else {
		u, err := s.userRepo.Get(r.Context(), userID)
		if err != nil {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		slippage = u.SlippagePercent
	}

	var result *models.TradeResult
	var tradeErr error
	switch direction {
	case models.Buy:
		result, tradeErr = s.deps.Trades.Buy(r.Context(), userID, req.Token, amountIn, slippage)
	case models.Sell:
		result, tradeErr = s.deps.Trades.Sell(r.Context(), userID, req.Token, amountIn, slippage)
	}
	if tradeErr != nil {
		fmt.Printf("Error executing %s for user %d: %v\n", direction, userID, tradeErr)
		writeAppError(w, tradeErr)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleTradeHistory(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	limit := parseLimit(r, 100)

	txs, err := s.txRepo.RecentByUser(r.Context(), userID, limit)
	if err != nil {
		fmt.Printf("Error fetching trade history for user %d: %v\n", userID, err)
		writeError(w, http.StatusInternalServerError, "failed to fetch trade history")
		return
	}
	writeJSON(w, http.StatusOK, txs)
}
