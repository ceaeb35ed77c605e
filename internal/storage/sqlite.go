package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver registration.

	"quake_bot/internal/model"
	"quake_bot/migrations"
)

const timeLayout = "2006-01-02T15:04:05Z"

// SQLite implements Journal backed by a SQLite database.
type SQLite struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLite opens a SQLite database at dsn and runs pending migrations.
func NewSQLite(dsn string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// A single connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	if _, err := migrations.Run(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLite{db: db, now: time.Now}, nil
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// RecordDelivery appends a delivery attempt.
func (s *SQLite) RecordDelivery(ctx context.Context, d model.Delivery) error {
	created := d.CreatedAt
	if created.IsZero() {
		created = s.now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO deliveries (chat_id, category, event_id, title, status, error, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		d.ChatID, string(d.Category), d.EventID, d.Title, string(d.Status), d.Error,
		created.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("insert delivery: %w", err)
	}
	return nil
}

// WasDelivered reports whether eventID was ever sent successfully to chatID.
func (s *SQLite) WasDelivered(ctx context.Context, chatID, eventID string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM deliveries WHERE chat_id = ? AND event_id = ? AND status = ?`,
		chatID, eventID, string(model.DeliverySent),
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check delivered: %w", err)
	}
	return count > 0, nil
}

// Recent returns the latest deliveries for chatID, newest first.
func (s *SQLite) Recent(ctx context.Context, chatID string, limit int) ([]model.Delivery, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, chat_id, category, event_id, title, status, error, created_at
		 FROM deliveries WHERE chat_id = ? ORDER BY id DESC LIMIT ?`,
		chatID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query deliveries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []model.Delivery
	for rows.Next() {
		d, err := scanDelivery(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// Stats counts deliveries by outcome.
func (s *SQLite) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	err := s.db.QueryRowContext(ctx,
		`SELECT
		   COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0),
		   COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0)
		 FROM deliveries`,
		string(model.DeliverySent), string(model.DeliveryFailed),
	).Scan(&st.Sent, &st.Failed)
	if err != nil {
		return Stats{}, fmt.Errorf("query stats: %w", err)
	}
	return st, nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanDelivery(row scannable) (model.Delivery, error) {
	var d model.Delivery
	var category, status, created string
	err := row.Scan(&d.ID, &d.ChatID, &category, &d.EventID, &d.Title, &status, &d.Error, &created)
	if err != nil {
		return d, fmt.Errorf("scan delivery: %w", err)
	}
	d.Category = model.Category(category)
	d.Status = model.DeliveryStatus(status)
	d.CreatedAt, err = time.Parse(timeLayout, created)
	if err != nil {
		return d, fmt.Errorf("parse created_at of delivery %d: %w", d.ID, err)
	}
	return d, nil
}
