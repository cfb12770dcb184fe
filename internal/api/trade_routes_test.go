package api

import (
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/nadbot/dexbot-backend/internal/models"
)

type fakeChainReader struct {
	info    *models.TokenInfo
	infoErr error
}

func (f *fakeChainReader) GetBalance(ctx context.Context, addr common.Address) (*big.Int, error) {
	return big.NewInt(0), nil
}

func (f *fakeChainReader) TokenBalance(ctx context.Context, token, owner common.Address) (*big.Int, error) {
	return big.NewInt(0), nil
}

func (f *fakeChainReader) TokenInfo(ctx context.Context, token common.Address) (*models.TokenInfo, error) {
	if f.infoErr != nil {
		return nil, f.infoErr
	}
	info := *f.info
	info.Address = token.Hex()
	return &info, nil
}

const testTokenAddr = "0x760AfE86e5de5fa0Ee542fc7B7B713e1c5425701"

func TestHandleTokenInfo(t *testing.T) {
	s := &Server{deps: Deps{Chain: &fakeChainReader{
		info: &models.TokenInfo{Name: "Test Coin", Symbol: "TST", Decimals: 6},
	}}}

	req := httptest.NewRequest(http.MethodGet, "/v1/tokens/"+testTokenAddr, nil)
	req.SetPathValue("token", testTokenAddr)
	rr := httptest.NewRecorder()
	s.handleTokenInfo(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var info models.TokenInfo
	if err := json.Unmarshal(rr.Body.Bytes(), &info); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if info.Symbol != "TST" || info.Decimals != 6 {
		t.Fatalf("unexpected token info: %+v", info)
	}
	if info.Address != common.HexToAddress(testTokenAddr).Hex() {
		t.Fatalf("unexpected address: %s", info.Address)
	}
}

func TestHandleTokenInfo_BadAddress(t *testing.T) {
	s := &Server{deps: Deps{Chain: &fakeChainReader{}}}

	req := httptest.NewRequest(http.MethodGet, "/v1/tokens/nope", nil)
	req.SetPathValue("token", "nope")
	rr := httptest.NewRecorder()
	s.handleTokenInfo(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestTradeAmount_UsesTokenDecimalsForSells(t *testing.T) {
	s := &Server{deps: Deps{Chain: &fakeChainReader{
		info: &models.TokenInfo{Symbol: "TST", Decimals: 6},
	}}}

	got, err := s.tradeAmount(context.Background(), testTokenAddr, "1.5", models.Sell)
	if err != nil {
		t.Fatalf("tradeAmount: %v", err)
	}
	if got.String() != "1500000" {
		t.Fatalf("sell amount = %s, want 1500000 (6 decimals)", got)
	}

	got, err = s.tradeAmount(context.Background(), testTokenAddr, "1.5", models.Buy)
	if err != nil {
		t.Fatalf("tradeAmount: %v", err)
	}
	if got.String() != "1500000000000000000" {
		t.Fatalf("buy amount = %s, want native 18-decimal scale", got)
	}
}

func TestTradeAmount_SellFailsWhenDecimalsUnreadable(t *testing.T) {
	s := &Server{deps: Deps{Chain: &fakeChainReader{infoErr: errors.New("rpc down")}}}

	if _, err := s.tradeAmount(context.Background(), testTokenAddr, "1.5", models.Sell); err == nil {
		t.Fatal("sell amounts must not be scaled with guessed decimals")
	}
}
