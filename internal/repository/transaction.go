package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nadbot/dexbot-backend/internal/models"
)

type TransactionRepo struct {
	pool *pgxpool.Pool
}

func NewTransactionRepo(pool *pgxpool.Pool) *TransactionRepo {
	return &TransactionRepo{pool: pool}
}

func (r *TransactionRepo) Record(ctx context.Context, t *models.Transaction) (*models.Transaction, error) {
	ts := t.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	status := t.Status
	if status == "" {
		status = models.TxStatusPending
	}

	row := r.pool.QueryRow(ctx,
		`INSERT INTO transactions
		 (wallet_id, tx_hash, tx_type, token_address, amount_in, amount_out,
		  gas_used, status, error_message, timestamp)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		 RETURNING tx_id, wallet_id, tx_hash, tx_type, token_address, amount_in,
		   amount_out, gas_used, status, error_message, timestamp`,
		t.WalletID, t.TxHash, t.Type, t.TokenAddress, t.AmountIn, t.AmountOut,
		t.GasUsed, status, t.ErrorMessage, ts,
	)
	return scanTransaction(row)
}

// UpdateStatus settles a ledger entry. Nil fields keep their stored value.
func (r *TransactionRepo) UpdateStatus(ctx context.Context, id int64, status string, txHash, amountOut, errMsg *string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE transactions SET
		   status = $2,
		   tx_hash = COALESCE($3, tx_hash),
		   amount_out = COALESCE($4, amount_out),
		   error_message = COALESCE($5, error_message)
		 WHERE tx_id = $1`,
		id, status, txHash, amountOut, errMsg,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("transaction %d not found", id)
	}
	return nil
}

func (r *TransactionRepo) RecentByUser(ctx context.Context, userID int64, limit int) ([]models.Transaction, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT t.tx_id, t.wallet_id, t.tx_hash, t.tx_type, t.token_address,
		   t.amount_in, t.amount_out, t.gas_used, t.status, t.error_message, t.timestamp
		 FROM transactions t
		 JOIN wallets w ON w.wallet_id = t.wallet_id
		 WHERE w.user_id = $1
		 ORDER BY t.timestamp DESC LIMIT $2`,
		userID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTransactions(rows)
}

// PendingWithHash returns submitted-but-unsettled entries, oldest first.
// Entries without a hash never left the process and are excluded.
func (r *TransactionRepo) PendingWithHash(ctx context.Context, limit int) ([]models.Transaction, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT tx_id, wallet_id, tx_hash, tx_type, token_address,
		   amount_in, amount_out, gas_used, status, error_message, timestamp
		 FROM transactions
		 WHERE status = 'pending' AND tx_hash IS NOT NULL
		 ORDER BY timestamp ASC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTransactions(rows)
}

// CountSince counts trades submitted for the user at or after the cutoff.
func (r *TransactionRepo) CountSince(ctx context.Context, userID int64, cutoff time.Time) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*)
		 FROM transactions t
		 JOIN wallets w ON w.wallet_id = t.wallet_id
		 WHERE w.user_id = $1 AND t.timestamp >= $2`,
		userID, cutoff,
	).Scan(&count)
	return count, err
}

// --- scan helpers ---

func scanTransaction(row scannable) (*models.Transaction, error) {
	var t models.Transaction
	err := row.Scan(
		&t.ID, &t.WalletID, &t.TxHash, &t.Type, &t.TokenAddress,
		&t.AmountIn, &t.AmountOut, &t.GasUsed, &t.Status, &t.ErrorMessage,
		&t.Timestamp,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func collectTransactions(rows rowsIter) ([]models.Transaction, error) {
	var out []models.Transaction
	for rows.Next() {
		var t models.Transaction
		if err := rows.Scan(
			&t.ID, &t.WalletID, &t.TxHash, &t.Type, &t.TokenAddress,
			&t.AmountIn, &t.AmountOut, &t.GasUsed, &t.Status, &t.ErrorMessage,
			&t.Timestamp,
		); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
