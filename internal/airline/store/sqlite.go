package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"flightsurety/internal/airline/models"
	"flightsurety/internal/platform/database"
	"flightsurety/internal/sentinel"
	"flightsurety/pkg/domain"
)

type SQLiteStore struct {
	db *sql.DB
	tx *database.TxRunner
}

func NewSQLite(db *sql.DB, tx *database.TxRunner) *SQLiteStore {
	return &SQLiteStore{db: db, tx: tx}
}

func (s *SQLiteStore) Create(ctx context.Context, airline *models.Airline) (bool, error) {
	created := false
	err := s.tx.Run(ctx, func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO airlines (address, name, is_registered, funding_submitted, registration_votes, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (address) DO NOTHING`,
			airline.ID.String(), airline.Name, airline.IsRegistered, airline.FundingSubmitted,
			int64(airline.RegistrationVotes), //nolint:gosec // tally is bounded by the number of voters
			database.ToMillis(airline.CreatedAt), database.ToMillis(airline.UpdatedAt),
		)
		if err != nil {
			return fmt.Errorf("insert airline: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("insert airline: %w", err)
		}
		created = n == 1
		return nil
	})
	return created, err
}

func (s *SQLiteStore) Get(ctx context.Context, id domain.Address) (*models.Airline, error) {
	var (
		a                    models.Airline
		addr                 string
		votes                int64
		createdAt, updatedAt int64
	)
	err := database.QuerierFrom(ctx, s.db).QueryRowContext(ctx, `
		SELECT address, name, is_registered, funding_submitted, registration_votes, created_at, updated_at
		FROM airlines WHERE address = ?`, id.String(),
	).Scan(&addr, &a.Name, &a.IsRegistered, &a.FundingSubmitted, &votes, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find airline: %w", err)
	}
	a.ID = domain.Address(addr)
	a.RegistrationVotes = uint64(votes) //nolint:gosec // CHECK constraint keeps it non-negative
	a.CreatedAt = database.FromMillis(createdAt)
	a.UpdatedAt = database.FromMillis(updatedAt)
	return &a, nil
}

func (s *SQLiteStore) Update(ctx context.Context, airline *models.Airline) error {
	return s.tx.Run(ctx, func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE airlines
			SET name = ?, is_registered = ?, funding_submitted = ?, registration_votes = ?, updated_at = ?
			WHERE address = ?`,
			airline.Name, airline.IsRegistered, airline.FundingSubmitted,
			int64(airline.RegistrationVotes), //nolint:gosec // tally is bounded by the number of voters
			database.ToMillis(airline.UpdatedAt), airline.ID.String(),
		)
		if err != nil {
			return fmt.Errorf("update airline: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("update airline: %w", err)
		}
		if n == 0 {
			return sentinel.ErrNotFound
		}
		return nil
	})
}

func (s *SQLiteStore) AddVote(ctx context.Context, vote models.Vote) (bool, error) {
	added := false
	err := s.tx.Run(ctx, func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO airline_votes (voter, candidate, cast_at)
			VALUES (?, ?, ?)
			ON CONFLICT (voter, candidate) DO NOTHING`,
			vote.Voter.String(), vote.Candidate.String(), database.ToMillis(vote.CastAt),
		)
		if err != nil {
			return fmt.Errorf("insert vote: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("insert vote: %w", err)
		}
		added = n == 1
		return nil
	})
	return added, err
}

func (s *SQLiteStore) HasVoted(ctx context.Context, voter, candidate domain.Address) (bool, error) {
	var found int
	err := database.QuerierFrom(ctx, s.db).QueryRowContext(ctx,
		`SELECT 1 FROM airline_votes WHERE voter = ? AND candidate = ?`,
		voter.String(), candidate.String(),
	).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("lookup vote: %w", err)
	}
	return true, nil
}

func (s *SQLiteStore) CountVotes(ctx context.Context, candidate domain.Address) (uint64, error) {
	var n int64
	err := database.QuerierFrom(ctx, s.db).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM airline_votes WHERE candidate = ?`, candidate.String(),
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count votes: %w", err)
	}
	return uint64(n), nil //nolint:gosec // COUNT is non-negative
}

func (s *SQLiteStore) AppendRegistered(ctx context.Context, id domain.Address) (bool, error) {
	appended := false
	err := s.tx.Run(ctx, func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO registered_airlines (address) VALUES (?) ON CONFLICT (address) DO NOTHING`,
			id.String(),
		)
		if err != nil {
			return fmt.Errorf("append registered airline: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("append registered airline: %w", err)
		}
		appended = n == 1
		return nil
	})
	return appended, err
}

func (s *SQLiteStore) ListRegistered(ctx context.Context) ([]domain.Address, error) {
	rows, err := database.QuerierFrom(ctx, s.db).QueryContext(ctx,
		`SELECT address FROM registered_airlines ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("list registered airlines: %w", err)
	}
	defer rows.Close()

	out := []domain.Address{}
	for rows.Next() {
		var addr string
		if err := rows.Scan(&addr); err != nil {
			return nil, fmt.Errorf("scan registered airline: %w", err)
		}
		out = append(out, domain.Address(addr))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate registered airlines: %w", err)
	}
	return out, nil
}
