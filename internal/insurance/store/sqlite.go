package store

import (
	"context"
	"database/sql"
	"fmt"

	"flightsurety/internal/insurance/models"
	"flightsurety/internal/keys"
	"flightsurety/internal/platform/database"
	"flightsurety/internal/sentinel"
	"flightsurety/pkg/domain"
)

// SQLiteStore keeps amounts in INTEGER columns; callers bound them by
// models.MaxAmount before writing.
type SQLiteStore struct {
	db *sql.DB
	tx *database.TxRunner
}

func NewSQLite(db *sql.DB, tx *database.TxRunner) *SQLiteStore {
	return &SQLiteStore{db: db, tx: tx}
}

func (s *SQLiteStore) AppendPolicy(ctx context.Context, key keys.Key, policy models.Policy) error {
	return s.tx.Run(ctx, func(ctx context.Context, tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO policies (policy_key, insuree, amount, purchased_at) VALUES (?, ?, ?, ?)`,
			key.String(), policy.Insuree.String(),
			int64(policy.Amount), //nolint:gosec // bounded by models.MaxAmount
			database.ToMillis(policy.PurchasedAt),
		)
		if err != nil {
			return fmt.Errorf("insert policy: %w", err)
		}
		return nil
	})
}

func (s *SQLiteStore) ListPolicies(ctx context.Context, key keys.Key) ([]models.Policy, error) {
	rows, err := database.QuerierFrom(ctx, s.db).QueryContext(ctx,
		`SELECT insuree, amount, purchased_at FROM policies WHERE policy_key = ? ORDER BY seq`, key.String())
	if err != nil {
		return nil, fmt.Errorf("list policies: %w", err)
	}
	defer rows.Close()

	out := []models.Policy{}
	for rows.Next() {
		var (
			insuree     string
			amount      int64
			purchasedAt int64
		)
		if err := rows.Scan(&insuree, &amount, &purchasedAt); err != nil {
			return nil, fmt.Errorf("scan policy: %w", err)
		}
		out = append(out, models.Policy{
			Insuree:     domain.Address(insuree),
			Amount:      uint64(amount), //nolint:gosec // CHECK constraint keeps it non-negative
			PurchasedAt: database.FromMillis(purchasedAt),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate policies: %w", err)
	}
	return out, nil
}

func (s *SQLiteStore) ClearPolicies(ctx context.Context, key keys.Key) error {
	return s.tx.Run(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM policies WHERE policy_key = ?`, key.String()); err != nil {
			return fmt.Errorf("clear policies: %w", err)
		}
		return nil
	})
}

func (s *SQLiteStore) Balance(ctx context.Context, insuree domain.Address) (uint64, error) {
	var bal int64
	err := database.QuerierFrom(ctx, s.db).QueryRowContext(ctx,
		`SELECT COALESCE((SELECT balance FROM credits WHERE insuree = ?), 0)`, insuree.String(),
	).Scan(&bal)
	if err != nil {
		return 0, fmt.Errorf("read balance: %w", err)
	}
	return uint64(bal), nil //nolint:gosec // CHECK constraint keeps it non-negative
}

func (s *SQLiteStore) SetBalance(ctx context.Context, insuree domain.Address, amount uint64) error {
	return s.tx.Run(ctx, func(ctx context.Context, tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO credits (insuree, balance) VALUES (?, ?)
			ON CONFLICT (insuree) DO UPDATE SET balance = excluded.balance`,
			insuree.String(),
			int64(amount), //nolint:gosec // bounded by models.MaxAmount
		)
		if err != nil {
			return fmt.Errorf("set balance: %w", err)
		}
		return nil
	})
}

func (s *SQLiteStore) CreateWithdrawal(ctx context.Context, w *models.Withdrawal) error {
	return s.tx.Run(ctx, func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO withdrawals (id, insuree, amount, status, reference, failure_reason, created_at, settled_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (id) DO NOTHING`,
			w.ID.String(), w.Insuree.String(),
			int64(w.Amount), //nolint:gosec // bounded by models.MaxAmount
			string(w.Status), w.Reference, w.FailureReason,
			database.ToMillis(w.CreatedAt), nullableMillis(w),
		)
		if err != nil {
			return fmt.Errorf("insert withdrawal: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("insert withdrawal: %w", err)
		}
		if n == 0 {
			return sentinel.ErrAlreadyUsed
		}
		return nil
	})
}

func (s *SQLiteStore) UpdateWithdrawal(ctx context.Context, w *models.Withdrawal) error {
	return s.tx.Run(ctx, func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE withdrawals SET status = ?, reference = ?, failure_reason = ?, settled_at = ?
			WHERE id = ?`,
			string(w.Status), w.Reference, w.FailureReason, nullableMillis(w), w.ID.String(),
		)
		if err != nil {
			return fmt.Errorf("update withdrawal: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("update withdrawal: %w", err)
		}
		if n == 0 {
			return sentinel.ErrNotFound
		}
		return nil
	})
}

func (s *SQLiteStore) ListWithdrawals(ctx context.Context, insuree domain.Address) ([]models.Withdrawal, error) {
	rows, err := database.QuerierFrom(ctx, s.db).QueryContext(ctx, `
		SELECT id, insuree, amount, status, reference, failure_reason, created_at, settled_at
		FROM withdrawals WHERE insuree = ? ORDER BY created_at, id`, insuree.String())
	if err != nil {
		return nil, fmt.Errorf("list withdrawals: %w", err)
	}
	defer rows.Close()

	out := []models.Withdrawal{}
	for rows.Next() {
		var (
			w         models.Withdrawal
			id        string
			addr      string
			amount    int64
			status    string
			createdAt int64
			settledAt sql.NullInt64
		)
		if err := rows.Scan(&id, &addr, &amount, &status, &w.Reference, &w.FailureReason, &createdAt, &settledAt); err != nil {
			return nil, fmt.Errorf("scan withdrawal: %w", err)
		}
		wid, err := domain.ParseWithdrawalID(id)
		if err != nil {
			return nil, fmt.Errorf("scan withdrawal id: %w", err)
		}
		w.ID = wid
		w.Insuree = domain.Address(addr)
		w.Amount = uint64(amount) //nolint:gosec // CHECK constraint keeps it positive
		w.Status = models.WithdrawalStatus(status)
		w.CreatedAt = database.FromMillis(createdAt)
		if settledAt.Valid {
			w.SettledAt = database.FromMillis(settledAt.Int64)
		}
		out = append(out, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate withdrawals: %w", err)
	}
	return out, nil
}

func nullableMillis(w *models.Withdrawal) sql.NullInt64 {
	if w.SettledAt.IsZero() {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: database.ToMillis(w.SettledAt), Valid: true}
}
