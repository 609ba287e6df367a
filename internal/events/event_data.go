package events

// EventData is the interface that all event data types must implement
type EventData interface {
	// EventType returns the event type this data is associated with
	EventType() EventType
}

// WalletChangedData contains data for WalletConnected and WalletDisconnected events
type WalletChangedData struct {
	SessionID string `json:"session_id"`
	PublicKey string `json:"public_key,omitempty"`
	Connected bool   `json:"connected"`
}

// EventType returns WalletConnected or WalletDisconnected depending on the state
func (d *WalletChangedData) EventType() EventType {
	if d.Connected {
		return WalletConnected
	}
	return WalletDisconnected
}

// TokenLaunchedData contains data for TokenLaunched events
type TokenLaunchedData struct {
	TokenID   string `json:"token_id"`
	Name      string `json:"name"`
	Ticker    string `json:"ticker"`
	Price     string `json:"price"`
	CreatorID string `json:"creator_id"`
}

// EventType returns the event type for TokenLaunchedData
func (d *TokenLaunchedData) EventType() EventType {
	return TokenLaunched
}

// PriceUpdatedData contains data for PriceUpdated events
type PriceUpdatedData struct {
	TokenID   string `json:"token_id"`
	Ticker    string `json:"ticker"`
	Price     string `json:"price"`
	MarketCap string `json:"market_cap"`
	Change24h string `json:"change_24h"`
}

// EventType returns the event type for PriceUpdatedData
func (d *PriceUpdatedData) EventType() EventType {
	return PriceUpdated
}

// TradeStateData contains data for TradeRequested, TradeExecuting and TradeAbandoned events
type TradeStateData struct {
	RequestID string `json:"request_id"`
	Side      string `json:"side"`
	Ticker    string `json:"ticker"`
	State     string `json:"state"`
}

// EventType maps the trade state to its event type
func (d *TradeStateData) EventType() EventType {
	switch d.State {
	case "EXECUTING":
		return TradeExecuting
	case "ABANDONED":
		return TradeAbandoned
	}
	return TradeRequested
}

// TradeSettledData contains data for TradeSettled events
type TradeSettledData struct {
	TransactionID      string `json:"transaction_id"`
	Side               string `json:"side"`
	Ticker             string `json:"ticker"`
	UnitAmount         int64  `json:"unit_amount"`
	BaseCurrencyAmount string `json:"base_currency_amount"`
}

// EventType returns the event type for TradeSettledData
func (d *TradeSettledData) EventType() EventType {
	return TradeSettled
}

// TradeRejectedData contains data for TradeRejected events
type TradeRejectedData struct {
	Side   string `json:"side"`
	Ticker string `json:"ticker"`
	Input  string `json:"input"`
	Reason string `json:"reason"`
}

// EventType returns the event type for TradeRejectedData
func (d *TradeRejectedData) EventType() EventType {
	return TradeRejected
}

// NotificationData contains data for NotificationShown and NotificationCleared events
type NotificationData struct {
	ID        string `json:"id"`
	Message   string `json:"message,omitempty"`
	Severity  string `json:"severity,omitempty"`
	ExpiresAt string `json:"expires_at,omitempty"`
	Cleared   bool   `json:"cleared"`
}

// EventType returns NotificationCleared for cleared notifications, NotificationShown otherwise
func (d *NotificationData) EventType() EventType {
	if d.Cleared {
		return NotificationCleared
	}
	return NotificationShown
}

// TokenRegisteredData contains data for TokenRegistered events
type TokenRegisteredData struct {
	TokenID int64  `json:"token_id"`
	Ticker  string `json:"ticker"`
	TxID    string `json:"tx_id"`
}

// EventType returns the event type for TokenRegisteredData
func (d *TokenRegisteredData) EventType() EventType {
	return TokenRegistered
}

// ErrorEventData contains data for ErrorOccurred events
type ErrorEventData struct {
	Context map[string]interface{} `json:"context,omitempty"`
	Error   string                 `json:"error"`
}

// EventType returns the event type for ErrorEventData
func (d *ErrorEventData) EventType() EventType {
	return ErrorOccurred
}
