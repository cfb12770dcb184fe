package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jackc/pgx/v5/pgxpool"

	apperr "github.com/nadbot/dexbot-backend/internal/errors"
	"github.com/nadbot/dexbot-backend/internal/models"
	"github.com/nadbot/dexbot-backend/internal/repository"
	"github.com/nadbot/dexbot-backend/internal/reveal"
	"github.com/nadbot/dexbot-backend/internal/risk"
	"github.com/nadbot/dexbot-backend/internal/trade"
	"github.com/nadbot/dexbot-backend/internal/wallet"
)

const maxQueryLimit = 1000

// ChainReader is the read-only slice of the chain client the balance and
// token-metadata routes need.
type ChainReader interface {
	GetBalance(ctx context.Context, addr common.Address) (*big.Int, error)
	TokenBalance(ctx context.Context, token, owner common.Address) (*big.Int, error)
	TokenInfo(ctx context.Context, token common.Address) (*models.TokenInfo, error)
}

// Deps carries the non-repository collaborators the server routes call.
type Deps struct {
	Factory  *wallet.Factory
	Trades   *trade.Service
	Gate     *reveal.Gate
	Guardian *risk.Guardian
	Chain    ChainReader
}

type Server struct {
	pool       *pgxpool.Pool
	userRepo   *repository.UserRepo
	walletRepo *repository.WalletRepo
	txRepo     *repository.TransactionRepo
	deps       Deps
	httpServer *http.Server
	apiKey     string
}

func NewServer(pool *pgxpool.Pool, port int, apiKey, corsOrigin string, deps Deps) *Server {
	s := &Server{
		pool:       pool,
		userRepo:   repository.NewUserRepo(pool),
		walletRepo: repository.NewWalletRepo(pool),
		txRepo:     repository.NewTransactionRepo(pool),
		deps:       deps,
		apiKey:     apiKey,
	}

	mux := http.NewServeMux()

	// User routes
	mux.HandleFunc("POST /v1/users/{userID}", s.handleRegisterUser)
	mux.HandleFunc("GET /v1/users/{userID}", s.handleGetUser)
	mux.HandleFunc("PUT /v1/users/{userID}/slippage", s.handleSetSlippage)

	// Wallet routes
	mux.HandleFunc("POST /v1/users/{userID}/wallets", s.handleCreateWallet)
	mux.HandleFunc("POST /v1/users/{userID}/wallets/import", s.handleImportWallet)
	mux.HandleFunc("GET /v1/users/{userID}/wallets", s.handleListWallets)
	mux.HandleFunc("PUT /v1/users/{userID}/wallets/{walletID}/default", s.handleSetDefaultWallet)
	mux.HandleFunc("DELETE /v1/users/{userID}/wallets/{walletID}", s.handleDeactivateWallet)
	mux.HandleFunc("GET /v1/users/{userID}/wallets/{walletID}/balance", s.handleWalletBalance)

	// Trade routes
	mux.HandleFunc("GET /v1/tokens/{token}", s.handleTokenInfo)
	mux.HandleFunc("GET /v1/quote", s.handleQuote)
	mux.HandleFunc("POST /v1/users/{userID}/trades/buy", s.handleBuy)
	mux.HandleFunc("POST /v1/users/{userID}/trades/sell", s.handleSell)
	mux.HandleFunc("GET /v1/users/{userID}/trades", s.handleTradeHistory)

	// Key reveal routes
	mux.HandleFunc("POST /v1/users/{userID}/reveal", s.handleRevealRequest)
	mux.HandleFunc("POST /v1/users/{userID}/reveal/password", s.handleRevealSubmit)

	// Health check (no auth required)
	mux.HandleFunc("GET /health", s.handleHealth)

	handler := s.authMiddleware(corsMiddleware(mux, corsOrigin))

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 6 * time.Minute, // trade routes block on confirmation
	}

	return s
}

func (s *Server) Start() error {
	fmt.Printf("[API] REST API server started on http://localhost%s\n", s.httpServer.Addr)
	fmt.Printf("[API] Health check: http://localhost%s/health\n", s.httpServer.Addr)
	if s.apiKey != "" {
		fmt.Println("[API] Authentication: enabled (Bearer token)")
	} else {
		fmt.Println("[API] Authentication: disabled (no API_KEY configured)")
	}
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// --- middleware ---

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.apiKey == "" || r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		auth := r.Header.Get("Authorization")
		if auth == "" {
			writeError(w, http.StatusUnauthorized, "missing Authorization header")
			return
		}

		token := strings.TrimPrefix(auth, "Bearer ")
		if token == auth || token != s.apiKey {
			writeError(w, http.StatusUnauthorized, "invalid API key")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func corsMiddleware(next http.Handler, allowOrigin string) http.Handler {
	if allowOrigin == "" {
		allowOrigin = "*"
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", allowOrigin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// --- request helpers ---

func pathID(r *http.Request, name string) (int64, error) {
	v := r.PathValue(name)
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s %q", name, v)
	}
	return id, nil
}

func parseLimit(r *http.Request, defaultLimit int) int {
	v := r.URL.Query().Get("limit")
	if v == "" {
		return defaultLimit
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return defaultLimit
	}
	if n > maxQueryLimit {
		return maxQueryLimit
	}
	return n
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// --- response helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeAppError translates typed failures into HTTP statuses. Unknown
// errors stay opaque 500s.
func writeAppError(w http.ResponseWriter, err error) {
	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	status := http.StatusInternalServerError
	switch appErr.Kind {
	case apperr.KindInvalidKeyFormat, apperr.KindInvalidSlippage:
		status = http.StatusBadRequest
	case apperr.KindPasswordMismatch:
		status = http.StatusForbidden
	case apperr.KindRateLimited:
		status = http.StatusTooManyRequests
	case apperr.KindNoLiquidity:
		status = http.StatusUnprocessableEntity
	case apperr.KindConfirmationTimeout:
		status = http.StatusGatewayTimeout
	}
	writeJSON(w, status, map[string]string{
		"error": appErr.Message,
		"kind":  string(appErr.Kind),
	})
}
