package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nadbot/dexbot-backend/internal/models"
)

type UserRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

// GetOrCreate upserts the user row and refreshes profile fields. The
// slippage default applies only on first insert.
func (r *UserRepo) GetOrCreate(ctx context.Context, userID int64, username, firstName, lastName *string) (*models.User, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO users (user_id, username, first_name, last_name)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (user_id) DO UPDATE SET
		   username = EXCLUDED.username,
		   first_name = EXCLUDED.first_name,
		   last_name = EXCLUDED.last_name,
		   updated_at = NOW()
		 RETURNING user_id, username, first_name, last_name,
		   default_wallet_id, password_hash, slippage_percent, created_at, updated_at`,
		userID, username, firstName, lastName,
	)
	return scanUser(row)
}

func (r *UserRepo) Get(ctx context.Context, userID int64) (*models.User, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT user_id, username, first_name, last_name,
		   default_wallet_id, password_hash, slippage_percent, created_at, updated_at
		 FROM users WHERE user_id = $1`,
		userID,
	)
	u, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("user %d not found", userID)
	}
	return u, err
}

func (r *UserRepo) SetDefaultWallet(ctx context.Context, userID, walletID int64) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET default_wallet_id = $2, updated_at = NOW() WHERE user_id = $1`,
		userID, walletID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user %d not found", userID)
	}
	return nil
}

func (r *UserRepo) SetSlippage(ctx context.Context, userID int64, percent float64) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET slippage_percent = $2, updated_at = NOW() WHERE user_id = $1`,
		userID, percent,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user %d not found", userID)
	}
	return nil
}

// PasswordHash returns the stored hash, or "" when none is on record yet.
func (r *UserRepo) PasswordHash(ctx context.Context, userID int64) (string, error) {
	var hash *string
	err := r.pool.QueryRow(ctx,
		`SELECT password_hash FROM users WHERE user_id = $1`, userID,
	).Scan(&hash)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", fmt.Errorf("user %d not found", userID)
	}
	if err != nil {
		return "", err
	}
	if hash == nil {
		return "", nil
	}
	return *hash, nil
}

func (r *UserRepo) SetPasswordHash(ctx context.Context, userID int64, hash string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET password_hash = $2, updated_at = NOW() WHERE user_id = $1`,
		userID, hash,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user %d not found", userID)
	}
	return nil
}

// --- scan helpers ---

type scannable interface {
	Scan(dest ...any) error
}

func scanUser(row scannable) (*models.User, error) {
	var u models.User
	err := row.Scan(
		&u.ID, &u.Username, &u.FirstName, &u.LastName,
		&u.DefaultWalletID, &u.PasswordHash, &u.SlippagePercent,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}
