// Package wallet holds the mock wallet session of the running process.
package wallet

import (
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/aristath/crapto/internal/domain"
	"github.com/aristath/crapto/internal/events"
	"github.com/aristath/crapto/internal/utils"
)

const (
	publicKeyPrefix = "Crapto"
	publicKeyLength = 8
)

// EventEmitter publishes wallet events
type EventEmitter interface {
	EmitTyped(module string, data events.EventData)
}

// Provider is the wallet session: a connected flag, a mock public key and a session id.
// Nothing is verified against a real chain.
type Provider struct {
	mu        sync.RWMutex
	sessionID string
	publicKey string
	keyGen    func() string
	events    EventEmitter
	log       zerolog.Logger
}

// Option configures a Provider
type Option func(*Provider)

// WithSessionID fixes the session id instead of generating a uuid
func WithSessionID(id string) Option {
	return func(p *Provider) { p.sessionID = id }
}

// WithKeyGenerator replaces the random public key generator
func WithKeyGenerator(gen func() string) Option {
	return func(p *Provider) { p.keyGen = gen }
}

// NewProvider creates a disconnected wallet session
func NewProvider(eventEmitter EventEmitter, log zerolog.Logger, opts ...Option) *Provider {
	p := &Provider{
		sessionID: uuid.NewString(),
		keyGen:    RandomPublicKey,
		events:    eventEmitter,
		log:       log.With().Str("module", "wallet").Logger(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Connect connects the wallet with a fresh mock public key. Connecting twice keeps the first key.
func (p *Provider) Connect() domain.Session {
	p.mu.Lock()
	if p.publicKey == "" {
		p.publicKey = p.keyGen()
	}
	session := p.snapshotLocked()
	p.mu.Unlock()

	p.log.Info().Str("public_key", session.PublicKey).Msg("Wallet connected")
	p.emit(session)
	return session
}

// Disconnect drops the public key. The portfolio and catalog are untouched.
func (p *Provider) Disconnect() domain.Session {
	p.mu.Lock()
	p.publicKey = ""
	session := p.snapshotLocked()
	p.mu.Unlock()

	p.log.Info().Msg("Wallet disconnected")
	p.emit(session)
	return session
}

// Connected reports whether a public key is set
func (p *Provider) Connected() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.publicKey != ""
}

// SessionID returns the opaque session identifier
func (p *Provider) SessionID() string {
	return p.sessionID
}

// Snapshot returns the current session state
func (p *Provider) Snapshot() domain.Session {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.snapshotLocked()
}

func (p *Provider) snapshotLocked() domain.Session {
	return domain.Session{
		SessionID: p.sessionID,
		PublicKey: p.publicKey,
		Connected: p.publicKey != "",
	}
}

func (p *Provider) emit(session domain.Session) {
	if p.events == nil {
		return
	}
	p.events.EmitTyped("wallet", &events.WalletChangedData{
		SessionID: session.SessionID,
		PublicKey: session.PublicKey,
		Connected: session.Connected,
	})
}

// RandomPublicKey returns a mock key such as "Crapto1k3z9q0ab..."
func RandomPublicKey() string {
	return publicKeyPrefix + utils.RandomBase36(publicKeyLength) + "..."
}
