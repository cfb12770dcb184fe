package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nadbot/dexbot-backend/internal/api"
	"github.com/nadbot/dexbot-backend/internal/chain"
	"github.com/nadbot/dexbot-backend/internal/config"
	"github.com/nadbot/dexbot-backend/internal/db"
	"github.com/nadbot/dexbot-backend/internal/notifications"
	"github.com/nadbot/dexbot-backend/internal/repository"
	"github.com/nadbot/dexbot-backend/internal/reveal"
	"github.com/nadbot/dexbot-backend/internal/risk"
	"github.com/nadbot/dexbot-backend/internal/scheduler"
	"github.com/nadbot/dexbot-backend/internal/trade"
	"github.com/nadbot/dexbot-backend/internal/vault"
	"github.com/nadbot/dexbot-backend/internal/wallet"
)

const banner = `
╔══════════════════════════════════════╗
║      NAD DEX Bot Backend v0.1        ║
║                                      ║
╚══════════════════════════════════════╝
`

func main() {
	fmt.Print(banner)

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load error: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	cfg.Print()

	// Graceful shutdown context
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Database
	fmt.Printf("\n[DB] Connecting to %s:%d/%s ...\n", cfg.DBHost, cfg.DBPort, cfg.DBName)
	pool, err := db.Connect(ctx, cfg.DSN())
	if err != nil {
		fmt.Fprintf(os.Stderr, "[DB] Connection failed: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		pool.Close()
		fmt.Println("[DB] Connection pool closed")
	}()

	if err := db.Migrate(ctx, pool); err != nil {
		fmt.Fprintf(os.Stderr, "[DB] Migration failed: %v\n", err)
		os.Exit(1)
	}

	// Repos
	userRepo := repository.NewUserRepo(pool)
	walletRepo := repository.NewWalletRepo(pool)
	txRepo := repository.NewTransactionRepo(pool)

	// Key vault and account factory
	vaultKey, err := cfg.VaultKey()
	if err != nil {
		fmt.Fprintf(os.Stderr, "[VAULT] Bad key: %v\n", err)
		os.Exit(1)
	}
	kv, err := vault.New(vaultKey)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[VAULT] Init failed: %v\n", err)
		os.Exit(1)
	}
	factory := wallet.NewFactory(kv)

	// Chain client
	chainClient, err := chain.NewClient(cfg.RPCURL, cfg.ChainID, cfg.LensAddress, cfg.GasLimit, cfg.GasMultiplier)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[CHAIN] Connection failed: %v\n", err)
		os.Exit(1)
	}
	defer chainClient.Close()

	// Trade core
	waiter := trade.NewWaiter(chainClient,
		time.Duration(cfg.ReceiptPollSeconds)*time.Second,
		time.Duration(cfg.TxTimeoutSeconds)*time.Second)
	quotes := trade.NewQuoteService(chainClient)
	sequencer := trade.NewSequencer(chainClient, quotes, waiter,
		time.Duration(cfg.TxTimeoutSeconds)*time.Second)

	// Notifications
	notify := notifications.NewSender(cfg.WebhookURL, cfg.BotName)
	if notify.Enabled() {
		fmt.Println("[NOTIFY] Webhook notifications enabled")
	} else {
		fmt.Println("[NOTIFY] No webhook configured, trade events log to console only")
	}

	tradeSvc := trade.NewService(factory, quotes, sequencer, walletRepo, txRepo, notify)

	// Reveal gate and risk limits
	gate := reveal.NewGate(userRepo)
	guardian := risk.NewGuardian(risk.Limits{
		MaxWalletsPerUser: cfg.MaxWalletsPerUser,
		MaxDailyTrades:    cfg.MaxDailyTrades,
	}, txRepo, walletRepo)

	// 1. API server
	srv := api.NewServer(pool, cfg.APIPort, cfg.APIKey, cfg.CORSOrigin, api.Deps{
		Factory:  factory,
		Trades:   tradeSvc,
		Gate:     gate,
		Guardian: guardian,
		Chain:    chainClient,
	})
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fmt.Fprintf(os.Stderr, "[API] Server error: %v\n", err)
			os.Exit(1)
		}
	}()

	// 2. Pending transaction re-checker
	pending := scheduler.NewPendingChecker(txRepo, chainClient, scheduler.PendingCheckerConfig{
		Interval: time.Duration(cfg.PendingSweepSeconds) * time.Second,
	})
	pending.Start()

	fmt.Println("\nAll services started successfully")

	// Wait for shutdown signal
	<-ctx.Done()
	fmt.Println("\nShutting down gracefully...")

	pending.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		fmt.Fprintf(os.Stderr, "[API] Shutdown error: %v\n", err)
	}
	fmt.Println("[API] Server closed")
	fmt.Println("Shutdown complete")
}
