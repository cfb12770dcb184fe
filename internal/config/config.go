package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	// Secrets (from .env)
	RPCURL      string
	VaultKeyHex string
	WebhookURL  string
	BotName     string
	APIKey      string
	CORSOrigin  string

	// Database
	DBHost     string
	DBPort     int
	DBName     string
	DBUser     string
	DBPassword string

	// Blockchain
	ChainID     int64
	LensAddress string

	// Trading Parameters
	DefaultSlippagePercent float64
	GasLimit               uint64
	GasMultiplier          float64

	// Limits
	MaxWalletsPerUser int
	MaxDailyTrades    int

	// Timing
	TxTimeoutSeconds    int
	ReceiptPollSeconds  int
	PendingSweepSeconds int

	// API
	APIPort int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		// Secrets
		RPCURL:      envStr("RPC_URL", ""),
		VaultKeyHex: envStr("VAULT_KEY", ""),
		WebhookURL:  envStr("WEBHOOK_URL", ""),
		BotName:     envStr("BOT_NAME", "NadDexBot"),
		APIKey:      envStr("API_KEY", ""),
		CORSOrigin:  envStr("CORS_ALLOW_ORIGIN", "*"),

		// Database
		DBHost:     envStr("DB_HOST", "localhost"),
		DBPort:     envInt("DB_PORT", 5432),
		DBName:     envStr("DB_NAME", "nad_dexbot"),
		DBUser:     envStr("DB_USER", ""),
		DBPassword: envStr("DB_PASSWORD", ""),

		// Blockchain
		ChainID:     int64(envInt("CHAIN_ID", 10143)),
		LensAddress: envStr("LENS_ADDRESS", ""),

		// Trading
		DefaultSlippagePercent: envFloat("DEFAULT_SLIPPAGE_PERCENT", 5.0),
		GasLimit:               uint64(envInt("GAS_LIMIT", 500000)),
		GasMultiplier:          envFloat("GAS_MULTIPLIER", 1.2),

		// Limits
		MaxWalletsPerUser: envInt("MAX_WALLETS_PER_USER", 10),
		MaxDailyTrades:    envInt("MAX_DAILY_TRADES", 0),

		// Timing
		TxTimeoutSeconds:    envInt("TX_TIMEOUT_SECONDS", 300),
		ReceiptPollSeconds:  envInt("RECEIPT_POLL_SECONDS", 2),
		PendingSweepSeconds: envInt("PENDING_SWEEP_SECONDS", 60),

		// API
		APIPort: envInt("API_PORT", 3001),
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []string

	if c.RPCURL == "" {
		errs = append(errs, "RPC_URL is required")
	}
	if c.LensAddress == "" {
		errs = append(errs, "LENS_ADDRESS is required")
	}
	if c.VaultKeyHex == "" {
		errs = append(errs, "VAULT_KEY is required")
	} else if raw, err := hex.DecodeString(strings.TrimPrefix(c.VaultKeyHex, "0x")); err != nil || len(raw) != 32 {
		errs = append(errs, "VAULT_KEY must be 32 bytes of hex")
	}
	if c.DBUser == "" {
		errs = append(errs, "DB_USER is required")
	}
	if c.APIKey == "" {
		fmt.Println("[WARN] API_KEY not set, REST API has no authentication")
	}
	if c.MaxDailyTrades == 0 {
		fmt.Println("[WARN] MAX_DAILY_TRADES is 0, per-user trade limit disabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  %s", strings.Join(errs, "\n  "))
	}
	return nil
}

func (c *Config) Print() {
	fmt.Println("=== Nad DEX Bot Backend Configuration ===")
	fmt.Printf("Chain ID: %d\n", c.ChainID)
	fmt.Printf("Lens: %s\n", truncAddr(c.LensAddress))
	fmt.Printf("RPC: %s\n", truncURL(c.RPCURL))
	fmt.Println("--------------------------------------")
	fmt.Println("Trading Parameters:")
	fmt.Printf("  Default Slippage: %.1f%%\n", c.DefaultSlippagePercent)
	fmt.Printf("  Gas Limit: %d\n", c.GasLimit)
	fmt.Printf("  Gas Multiplier: %.2fx\n", c.GasMultiplier)
	fmt.Printf("  Confirmation Timeout: %ds (poll every %ds)\n", c.TxTimeoutSeconds, c.ReceiptPollSeconds)
	fmt.Println("--------------------------------------")
	fmt.Println("Limits:")
	fmt.Printf("  Max Wallets/User: %d\n", c.MaxWalletsPerUser)
	fmt.Printf("  Max Daily Trades: %d\n", c.MaxDailyTrades)
	fmt.Println("--------------------------------------")
	fmt.Printf("API Port: %d\n", c.APIPort)
	fmt.Printf("Webhook: %s\n", boolLabel(c.WebhookURL != "", "configured", "not set (console only)"))
	fmt.Println("======================================")
}

func (c *Config) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName)
}

// VaultKey decodes the hex vault key. Validate must have passed first.
func (c *Config) VaultKey() ([]byte, error) {
	return hex.DecodeString(strings.TrimPrefix(c.VaultKeyHex, "0x"))
}

// --- helpers ---

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func truncAddr(addr string) string {
	if len(addr) > 10 {
		return addr[:10] + "..."
	}
	return addr
}

func truncURL(url string) string {
	if len(url) > 40 {
		return url[:40] + "..."
	}
	return url
}

func boolLabel(cond bool, ifTrue, ifFalse string) string {
	if cond {
		return ifTrue
	}
	return ifFalse
}
