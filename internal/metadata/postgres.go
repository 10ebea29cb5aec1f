package metadata

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const pingTimeout = 5 * time.Second

type PostgresStore struct {
	db    *sql.DB
	table string
}

// OpenPostgres connects, pings and ensures the table exists.
func OpenPostgres(ctx context.Context, dsn, table string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := NewPostgresStore(db, table)
	if err := store.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func NewPostgresStore(db *sql.DB, table string) *PostgresStore {
	return &PostgresStore{db: db, table: table}
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, createTableSQL(s.table)); err != nil {
		return fmt.Errorf("migrate %s: %w", s.table, err)
	}
	return nil
}

func (s *PostgresStore) Insert(ctx context.Context, script, videoURL string) (*Record, error) {
	rec := &Record{
		ID:       uuid.NewString(),
		Script:   script,
		VideoURL: videoURL,
	}

	query := fmt.Sprintf(`INSERT INTO %s (id, script, video_url) VALUES ($1, $2, $3) RETURNING created_at`,
		pq.QuoteIdentifier(s.table))
	if err := s.db.QueryRowContext(ctx, query, rec.ID, rec.Script, rec.VideoURL).Scan(&rec.CreatedAt); err != nil {
		return nil, describe(err)
	}
	return rec, nil
}

func (s *PostgresStore) List(ctx context.Context, limit int) ([]Record, error) {
	query := fmt.Sprintf(`SELECT id, script, video_url, created_at FROM %s ORDER BY created_at DESC LIMIT $1`,
		pq.QuoteIdentifier(s.table))

	rows, err := s.db.QueryContext(ctx, query, ClampLimit(limit))
	if err != nil {
		return nil, describe(err)
	}
	defer func() { _ = rows.Close() }()

	records := make([]Record, 0)
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.Script, &rec.VideoURL, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, describe(err)
	}
	return records, nil
}

func createTableSQL(table string) string {
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id UUID PRIMARY KEY,
	script TEXT NOT NULL,
	video_url TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`, pq.QuoteIdentifier(table))
}

// describe keeps the server's message and adds the SQLSTATE when present.
func describe(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return fmt.Errorf("%s (%s)", pqErr.Message, pqErr.Code)
	}
	return err
}
