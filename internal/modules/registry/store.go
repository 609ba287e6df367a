// Package registry records tokens submitted through the create-token endpoint.
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// TokenRecord is one registered token
type TokenRecord struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Ticker   string `json:"ticker"`
	ImageURL string `json:"imageUrl"`
	Creator  string `json:"creator"`
	TxID     string `json:"txId"`
}

// Store persists token records. Append assigns the id as the current count plus one.
type Store interface {
	Append(ctx context.Context, record TokenRecord) (TokenRecord, error)
	List(ctx context.Context) ([]TokenRecord, error)
	Count(ctx context.Context) (int, error)
}

// JSONFileStore keeps every record in a single JSON array file
type JSONFileStore struct {
	mu   sync.Mutex
	path string
}

// NewJSONFileStore creates the file with an empty array if it does not exist
func NewJSONFileStore(path string) (*JSONFileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create registry directory: %w", err)
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := os.WriteFile(path, []byte("[]"), 0644); err != nil {
			return nil, fmt.Errorf("failed to initialize registry file: %w", err)
		}
	}
	return &JSONFileStore{path: path}, nil
}

// Path returns the registry file path
func (s *JSONFileStore) Path() string {
	return s.path
}

// Append adds a record with id = len(records) + 1
func (s *JSONFileStore) Append(ctx context.Context, record TokenRecord) (TokenRecord, error) {
	if err := ctx.Err(); err != nil {
		return TokenRecord{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.readLocked()
	if err != nil {
		return TokenRecord{}, err
	}

	record.ID = int64(len(records)) + 1
	records = append(records, record)

	if err := s.writeLocked(records); err != nil {
		return TokenRecord{}, err
	}
	return record, nil
}

// List returns all records in insertion order
func (s *JSONFileStore) List(ctx context.Context) ([]TokenRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readLocked()
}

// Count returns the number of records
func (s *JSONFileStore) Count(ctx context.Context) (int, error) {
	records, err := s.List(ctx)
	if err != nil {
		return 0, err
	}
	return len(records), nil
}

func (s *JSONFileStore) readLocked() ([]TokenRecord, error) {
	content, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read registry: %w", err)
	}

	var records []TokenRecord
	if err := json.Unmarshal(content, &records); err != nil {
		return nil, fmt.Errorf("failed to parse registry: %w", err)
	}
	return records, nil
}

// writeLocked replaces the file through a temp file and rename
func (s *JSONFileStore) writeLocked(records []TokenRecord) error {
	content, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("failed to encode registry: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, content, 0644); err != nil {
		return fmt.Errorf("failed to write registry: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to replace registry: %w", err)
	}
	return nil
}
