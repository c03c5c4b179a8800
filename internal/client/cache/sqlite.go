package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dmitrijs2005/posmart/internal/dbx"
)

type SQLiteStorage struct {
	db *sql.DB
}

func NewSQLiteStorage(db *sql.DB) *SQLiteStorage {
	return &SQLiteStorage{db: db}
}

func (s *SQLiteStorage) Create(ctx context.Context, generation string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO cache_generations (name, created_at) VALUES (?, ?) ON CONFLICT(name) DO NOTHING`,
		generation, time.Now().UnixNano())
	if err != nil {
		return fmt.Errorf("failed to create cache generation %s: %w", generation, err)
	}
	return nil
}

func (s *SQLiteStorage) Generations(ctx context.Context) ([]string, error) {
	names, err := dbx.QueryAll(ctx, s.db, dbx.ScanString, `SELECT name FROM cache_generations ORDER BY created_at, name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list cache generations: %w", err)
	}
	return names, nil
}

func (s *SQLiteStorage) DeleteGeneration(ctx context.Context, generation string) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM cache_entries WHERE generation = ?`, generation); err != nil {
			return fmt.Errorf("failed to delete cache entries of %s: %w", generation, err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM cache_generations WHERE name = ?`, generation); err != nil {
			return fmt.Errorf("failed to delete cache generation %s: %w", generation, err)
		}
		return nil
	})
}

func (s *SQLiteStorage) Put(ctx context.Context, generation string, e *Entry) error {
	header, err := json.Marshal(e.Header)
	if err != nil {
		return fmt.Errorf("failed to encode headers: %w", err)
	}
	body := e.Body
	if body == nil {
		body = []byte{}
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO cache_entries (generation, request_key, status_code, header, body, stored_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(generation, request_key) DO UPDATE SET
			status_code = excluded.status_code,
			header      = excluded.header,
			body        = excluded.body,
			stored_at   = excluded.stored_at
	`, generation, e.RequestKey, e.StatusCode, header, body, e.StoredAt.UnixNano())
	if err != nil {
		return fmt.Errorf("failed to store %s: %w", e.RequestKey, err)
	}
	return nil
}

func (s *SQLiteStorage) Match(ctx context.Context, generation, requestKey string) (*Entry, error) {
	var (
		header   []byte
		storedAt int64
		e        = &Entry{RequestKey: requestKey}
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT status_code, header, body, stored_at FROM cache_entries
		WHERE generation = ? AND request_key = ?
	`, generation, requestKey).Scan(&e.StatusCode, &header, &e.Body, &storedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to match %s: %w", requestKey, err)
	}

	e.Header = http.Header{}
	if err := json.Unmarshal(header, &e.Header); err != nil {
		return nil, fmt.Errorf("failed to decode headers of %s: %w", requestKey, err)
	}
	if e.Header == nil {
		e.Header = http.Header{}
	}
	e.StoredAt = time.Unix(0, storedAt)
	return e, nil
}
