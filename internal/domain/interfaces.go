package domain

// SessionState is the read side of the wallet session that gates launches
type SessionState interface {
	Connected() bool
	SessionID() string
}

// IDGenerator produces opaque identifiers
type IDGenerator func() string
