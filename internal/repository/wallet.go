package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nadbot/dexbot-backend/internal/models"
)

type WalletRepo struct {
	pool *pgxpool.Pool
}

func NewWalletRepo(pool *pgxpool.Pool) *WalletRepo {
	return &WalletRepo{pool: pool}
}

func (r *WalletRepo) Create(ctx context.Context, userID int64, name, address, encryptedKey string) (*models.Wallet, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO wallets (user_id, wallet_name, address, encrypted_private_key)
		 VALUES ($1, $2, $3, $4)
		 RETURNING wallet_id, user_id, wallet_name, address, encrypted_private_key, is_active, created_at`,
		userID, name, address, encryptedKey,
	)
	return scanWallet(row)
}

func (r *WalletRepo) Get(ctx context.Context, walletID int64) (*models.Wallet, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT wallet_id, user_id, wallet_name, address, encrypted_private_key, is_active, created_at
		 FROM wallets WHERE wallet_id = $1 AND is_active`,
		walletID,
	)
	w, err := scanWallet(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("wallet %d not found", walletID)
	}
	return w, err
}

func (r *WalletRepo) ByUser(ctx context.Context, userID int64) ([]models.Wallet, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT wallet_id, user_id, wallet_name, address, encrypted_private_key, is_active, created_at
		 FROM wallets WHERE user_id = $1 AND is_active
		 ORDER BY wallet_id ASC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectWallets(rows)
}

func (r *WalletRepo) CountByUser(ctx context.Context, userID int64) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM wallets WHERE user_id = $1 AND is_active`,
		userID,
	).Scan(&count)
	return count, err
}

// Deactivate soft-deletes a wallet. The row stays so the ledger keeps its
// foreign keys.
func (r *WalletRepo) Deactivate(ctx context.Context, userID, walletID int64) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE wallets SET is_active = FALSE WHERE wallet_id = $1 AND user_id = $2`,
		walletID, userID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("wallet %d not found for user %d", walletID, userID)
	}
	return nil
}

// DefaultWallet resolves the wallet trades draw from: the user's chosen
// default, or their oldest active wallet when no default is set.
func (r *WalletRepo) DefaultWallet(ctx context.Context, userID int64) (*models.Wallet, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT w.wallet_id, w.user_id, w.wallet_name, w.address,
		   w.encrypted_private_key, w.is_active, w.created_at
		 FROM wallets w
		 LEFT JOIN users u ON u.user_id = w.user_id
		 WHERE w.user_id = $1 AND w.is_active
		 ORDER BY (w.wallet_id = u.default_wallet_id) DESC NULLS LAST, w.wallet_id ASC
		 LIMIT 1`,
		userID,
	)
	w, err := scanWallet(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("user %d has no active wallet", userID)
	}
	return w, err
}

// --- scan helpers ---

func scanWallet(row scannable) (*models.Wallet, error) {
	var w models.Wallet
	err := row.Scan(
		&w.ID, &w.UserID, &w.Name, &w.Address,
		&w.EncryptedKey, &w.IsActive, &w.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

type rowsIter interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func collectWallets(rows rowsIter) ([]models.Wallet, error) {
	var out []models.Wallet
	for rows.Next() {
		var w models.Wallet
		if err := rows.Scan(
			&w.ID, &w.UserID, &w.Name, &w.Address,
			&w.EncryptedKey, &w.IsActive, &w.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}
