// Package database stores fired alerts in PostgreSQL.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"telemetry-streams/internal/events"

	"github.com/lib/pq"
)

// DefaultTable is the alert history table.
const DefaultTable = "stream_alerts"

const pingTimeout = 5 * time.Second

// AlertStore wraps a database connection and provides alert history operations.
type AlertStore struct {
	conn  *sql.DB
	table string
}

// NewAlertStore opens a connection using dsn and verifies it with a ping.
func NewAlertStore(dsn string) (*AlertStore, error) {
	conn, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	slog.Info("Successfully connected to PostgreSQL database")
	return &AlertStore{conn: conn, table: DefaultTable}, nil
}

// newWithConn wraps an existing connection.
func newWithConn(conn *sql.DB, table string) *AlertStore {
	return &AlertStore{conn: conn, table: table}
}

// Close closes the database connection.
func (s *AlertStore) Close() error {
	if s.conn != nil {
		slog.Info("Closing database connection")
		return s.conn.Close()
	}
	return nil
}

// EnsureSchema creates the alert table and its lookup index if they do not exist.
func (s *AlertStore) EnsureSchema(ctx context.Context) error {
	table := pq.QuoteIdentifier(s.table)
	index := pq.QuoteIdentifier(s.table + "_source_triggered_idx")
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS ` + table + ` (
			id                 BIGSERIAL PRIMARY KEY,
			source_id          TEXT NOT NULL,
			label              TEXT NOT NULL DEFAULT '',
			direction          TEXT NOT NULL,
			window_first_value DOUBLE PRECISION NOT NULL,
			window_last_value  DOUBLE PRECISION NOT NULL,
			delta              DOUBLE PRECISION NOT NULL,
			threshold          DOUBLE PRECISION NOT NULL,
			window_size        INTEGER NOT NULL,
			triggered_at       TIMESTAMPTZ NOT NULL,
			created_at         TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS ` + index + ` ON ` + table + ` (source_id, triggered_at DESC)`,
	}
	for _, stmt := range stmts {
		if _, err := s.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}

// InsertAlert stores alert and returns its row id.
func (s *AlertStore) InsertAlert(ctx context.Context, alert *events.Alert) (int64, error) {
	query := `
		INSERT INTO ` + pq.QuoteIdentifier(s.table) + ` (source_id, label, direction, window_first_value,
			window_last_value, delta, threshold, window_size, triggered_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`

	var id int64
	err := s.conn.QueryRowContext(ctx, query,
		alert.SourceID,
		alert.Label,
		alert.Direction,
		alert.WindowFirstValue,
		alert.WindowLastValue,
		alert.Delta,
		alert.Threshold,
		alert.WindowSize,
		alert.TriggeredAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert alert: %w", err)
	}

	slog.Debug("Stored alert", "id", id, "source_id", alert.SourceID)
	return id, nil
}

// Notify stores alert; it lets the store act as an alert notifier.
func (s *AlertStore) Notify(ctx context.Context, alert *events.Alert) error {
	_, err := s.InsertAlert(ctx, alert)
	return err
}

// Purge deletes every stored alert and returns the number of rows removed.
func (s *AlertStore) Purge(ctx context.Context) (int64, error) {
	res, err := s.conn.ExecContext(ctx, `DELETE FROM `+pq.QuoteIdentifier(s.table))
	if err != nil {
		return 0, fmt.Errorf("failed to purge alerts: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count purged alerts: %w", err)
	}
	return n, nil
}

// RecentAlerts returns up to limit alerts for sourceID, newest first.
func (s *AlertStore) RecentAlerts(ctx context.Context, sourceID string, limit int) ([]events.Alert, error) {
	query := `
		SELECT source_id, label, direction, window_first_value, window_last_value,
			delta, threshold, window_size, triggered_at
		FROM ` + pq.QuoteIdentifier(s.table) + `
		WHERE source_id = $1
		ORDER BY triggered_at DESC
		LIMIT $2
	`

	rows, err := s.conn.QueryContext(ctx, query, sourceID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query alerts: %w", err)
	}
	defer rows.Close()

	var out []events.Alert
	for rows.Next() {
		var a events.Alert
		if err := rows.Scan(
			&a.SourceID,
			&a.Label,
			&a.Direction,
			&a.WindowFirstValue,
			&a.WindowLastValue,
			&a.Delta,
			&a.Threshold,
			&a.WindowSize,
			&a.TriggeredAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate alerts: %w", err)
	}
	return out, nil
}
