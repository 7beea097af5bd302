package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"flightsurety/internal/flight/models"
	"flightsurety/internal/keys"
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

func (s *SQLiteStore) Save(ctx context.Context, flight *models.Flight) error {
	return s.tx.Run(ctx, func(ctx context.Context, tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO flights (flight_key, airline, code, departure_ts, is_registered, status_code, updated_ts)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (flight_key) DO UPDATE SET
				airline = excluded.airline,
				code = excluded.code,
				departure_ts = excluded.departure_ts,
				is_registered = excluded.is_registered,
				status_code = excluded.status_code,
				updated_ts = excluded.updated_ts`,
			flight.Key.String(), flight.Airline.String(), flight.Code, flight.Timestamp,
			flight.IsRegistered, flight.StatusCode, flight.UpdatedTimestamp,
		)
		if err != nil {
			return fmt.Errorf("save flight: %w", err)
		}
		return nil
	})
}

const selectFlight = `SELECT flight_key, airline, code, departure_ts, is_registered, status_code, updated_ts FROM flights`

func (s *SQLiteStore) Get(ctx context.Context, key keys.Key) (*models.Flight, error) {
	row := database.QuerierFrom(ctx, s.db).QueryRowContext(ctx, selectFlight+` WHERE flight_key = ?`, key.String())
	f, err := scanFlight(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find flight: %w", err)
	}
	return f, nil
}

func (s *SQLiteStore) ListByAirline(ctx context.Context, airline domain.Address) ([]models.Flight, error) {
	rows, err := database.QuerierFrom(ctx, s.db).QueryContext(ctx,
		selectFlight+` WHERE airline = ? ORDER BY departure_ts, code`, airline.String())
	if err != nil {
		return nil, fmt.Errorf("list flights: %w", err)
	}
	defer rows.Close()

	out := []models.Flight{}
	for rows.Next() {
		f, err := scanFlight(rows)
		if err != nil {
			return nil, fmt.Errorf("scan flight: %w", err)
		}
		out = append(out, *f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate flights: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanFlight(row scanner) (*models.Flight, error) {
	var (
		f       models.Flight
		key     string
		airline string
	)
	if err := row.Scan(&key, &airline, &f.Code, &f.Timestamp, &f.IsRegistered, &f.StatusCode, &f.UpdatedTimestamp); err != nil {
		return nil, err
	}
	k, err := keys.Parse(key)
	if err != nil {
		return nil, fmt.Errorf("stored flight key %q: %w", key, err)
	}
	f.Key = k
	f.Airline = domain.Address(airline)
	return &f, nil
}
