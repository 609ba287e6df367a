package registry

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/aristath/crapto/internal/database"
)

// SQLiteStore keeps records in the registry database
type SQLiteStore struct {
	db *database.DB
}

// NewSQLiteStore migrates the registry schema
func NewSQLiteStore(db *database.DB) (*SQLiteStore, error) {
	if err := db.Migrate(); err != nil {
		return nil, fmt.Errorf("failed to migrate registry database: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Append inserts a record with id = count + 1 in one transaction
func (s *SQLiteStore) Append(ctx context.Context, record TokenRecord) (TokenRecord, error) {
	err := database.WithTransaction(s.db.Conn(), func(tx *sql.Tx) error {
		var count int64
		if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM tokens").Scan(&count); err != nil {
			return fmt.Errorf("failed to count tokens: %w", err)
		}
		record.ID = count + 1

		_, err := tx.ExecContext(ctx, `
			INSERT INTO tokens (id, name, ticker, image_url, creator, tx_id, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, record.ID, record.Name, record.Ticker, record.ImageURL, record.Creator, record.TxID, time.Now().Unix())
		if err != nil {
			return fmt.Errorf("failed to insert token: %w", err)
		}
		return nil
	})
	if err != nil {
		return TokenRecord{}, err
	}
	return record, nil
}

// List returns all records ordered by id
func (s *SQLiteStore) List(ctx context.Context) ([]TokenRecord, error) {
	rows, err := s.db.Conn().QueryContext(ctx, `
		SELECT id, name, ticker, COALESCE(image_url, ''), creator, tx_id
		FROM tokens
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query tokens: %w", err)
	}
	defer rows.Close()

	var records []TokenRecord
	for rows.Next() {
		var r TokenRecord
		if err := rows.Scan(&r.ID, &r.Name, &r.Ticker, &r.ImageURL, &r.Creator, &r.TxID); err != nil {
			return nil, fmt.Errorf("failed to scan token: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tokens: %w", err)
	}
	return records, nil
}

// Count returns the number of records
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.Conn().QueryRowContext(ctx, "SELECT COUNT(*) FROM tokens").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count tokens: %w", err)
	}
	return count, nil
}
