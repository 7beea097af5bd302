package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"flightsurety/internal/gate/models"
	"flightsurety/internal/platform/database"
	"flightsurety/pkg/domain"
)

// SQLiteStore persists gate state. The flag row is created lazily; until then
// the configured default applies.
type SQLiteStore struct {
	db                 *sql.DB
	tx                 *database.TxRunner
	defaultOperational bool
}

func NewSQLite(db *sql.DB, tx *database.TxRunner, defaultOperational bool) *SQLiteStore {
	return &SQLiteStore{db: db, tx: tx, defaultOperational: defaultOperational}
}

func (s *SQLiteStore) GetState(ctx context.Context) (*models.State, error) {
	var (
		operational bool
		updatedBy   string
		updatedAt   int64
	)
	err := database.QuerierFrom(ctx, s.db).QueryRowContext(ctx,
		`SELECT operational, updated_by, updated_at FROM gate_state WHERE id = 1`,
	).Scan(&operational, &updatedBy, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return &models.State{Operational: s.defaultOperational}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read gate state: %w", err)
	}
	return &models.State{
		Operational: operational,
		UpdatedBy:   domain.Address(updatedBy),
		UpdatedAt:   database.FromMillis(updatedAt),
	}, nil
}

func (s *SQLiteStore) SetOperational(ctx context.Context, operational bool, by domain.Address, at time.Time) error {
	return s.tx.Run(ctx, func(ctx context.Context, tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO gate_state (id, operational, updated_by, updated_at)
			VALUES (1, ?, ?, ?)
			ON CONFLICT (id) DO UPDATE SET
				operational = excluded.operational,
				updated_by = excluded.updated_by,
				updated_at = excluded.updated_at`,
			operational, by.String(), database.ToMillis(at),
		)
		if err != nil {
			return fmt.Errorf("write gate state: %w", err)
		}
		return nil
	})
}

func (s *SQLiteStore) AddCaller(ctx context.Context, caller models.AuthorizedCaller) (bool, error) {
	added := false
	err := s.tx.Run(ctx, func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO authorized_callers (address, authorized_by, authorized_at)
			VALUES (?, ?, ?)
			ON CONFLICT (address) DO NOTHING`,
			caller.Address.String(), caller.AuthorizedBy.String(), database.ToMillis(caller.AuthorizedAt),
		)
		if err != nil {
			return fmt.Errorf("insert authorized caller: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("insert authorized caller: %w", err)
		}
		added = n == 1
		return nil
	})
	return added, err
}

func (s *SQLiteStore) RemoveCaller(ctx context.Context, addr domain.Address) (bool, error) {
	removed := false
	err := s.tx.Run(ctx, func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM authorized_callers WHERE address = ?`, addr.String())
		if err != nil {
			return fmt.Errorf("delete authorized caller: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("delete authorized caller: %w", err)
		}
		removed = n == 1
		return nil
	})
	return removed, err
}

func (s *SQLiteStore) IsCaller(ctx context.Context, addr domain.Address) (bool, error) {
	var found int
	err := database.QuerierFrom(ctx, s.db).QueryRowContext(ctx,
		`SELECT 1 FROM authorized_callers WHERE address = ?`, addr.String(),
	).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("lookup authorized caller: %w", err)
	}
	return true, nil
}

func (s *SQLiteStore) ListCallers(ctx context.Context) ([]models.AuthorizedCaller, error) {
	rows, err := database.QuerierFrom(ctx, s.db).QueryContext(ctx, `
		SELECT address, authorized_by, authorized_at
		FROM authorized_callers
		ORDER BY authorized_at, address`)
	if err != nil {
		return nil, fmt.Errorf("list authorized callers: %w", err)
	}
	defer rows.Close()

	var out []models.AuthorizedCaller
	for rows.Next() {
		var (
			addr, by string
			at       int64
		)
		if err := rows.Scan(&addr, &by, &at); err != nil {
			return nil, fmt.Errorf("scan authorized caller: %w", err)
		}
		out = append(out, models.AuthorizedCaller{
			Address:      domain.Address(addr),
			AuthorizedBy: domain.Address(by),
			AuthorizedAt: database.FromMillis(at),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate authorized callers: %w", err)
	}
	return out, nil
}
