// Package transactions provides the append-only log of executed trades.
package transactions

import (
	"sync"

	"github.com/aristath/crapto/internal/domain"
)

// Log is an append-only transaction history
type Log struct {
	mu  sync.RWMutex
	txs []domain.Transaction
}

// NewLog creates an empty log
func NewLog() *Log {
	return &Log{}
}

// Record appends a validated transaction
func (l *Log) Record(tx domain.Transaction) error {
	if err := tx.Validate(); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.txs = append(l.txs, tx)
	return nil
}

// List returns the transactions newest first
func (l *Log) List() []domain.Transaction {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]domain.Transaction, len(l.txs))
	for i, tx := range l.txs {
		out[len(l.txs)-1-i] = tx
	}
	return out
}

// Len returns the number of recorded transactions
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.txs)
}
