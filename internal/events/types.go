// Package events provides the in-process event bus that carries core outcomes to
// streaming clients and logs.
package events

// EventType represents different event types
type EventType string

const (
	// Wallet events
	WalletConnected    EventType = "WALLET_CONNECTED"
	WalletDisconnected EventType = "WALLET_DISCONNECTED"

	// Catalog events
	TokenLaunched EventType = "TOKEN_LAUNCHED"
	PriceUpdated  EventType = "PRICE_UPDATED"

	// Trading events
	TradeRequested EventType = "TRADE_REQUESTED"
	TradeExecuting EventType = "TRADE_EXECUTING"
	TradeSettled   EventType = "TRADE_SETTLED"
	TradeRejected  EventType = "TRADE_REJECTED"
	TradeAbandoned EventType = "TRADE_ABANDONED"

	// Notification events
	NotificationShown   EventType = "NOTIFICATION_SHOWN"
	NotificationCleared EventType = "NOTIFICATION_CLEARED"

	// Registry events
	TokenRegistered EventType = "TOKEN_REGISTERED"

	// System events
	ErrorOccurred EventType = "ERROR_OCCURRED"
)

// AllEventTypes lists every event type
var AllEventTypes = []EventType{
	WalletConnected,
	WalletDisconnected,
	TokenLaunched,
	PriceUpdated,
	TradeRequested,
	TradeExecuting,
	TradeSettled,
	TradeRejected,
	TradeAbandoned,
	NotificationShown,
	NotificationCleared,
	TokenRegistered,
	ErrorOccurred,
}
