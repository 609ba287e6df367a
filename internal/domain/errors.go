package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// ErrTokenNotFound is returned when a token id or ticker is unknown
	ErrTokenNotFound = errors.New("token not found")
	// ErrTradeInProgress is returned while another trade is settling
	ErrTradeInProgress = errors.New("a trade is already executing")
	// ErrInvalidTransition is returned when a trade request is driven out of order
	ErrInvalidTransition = errors.New("invalid trade state transition")
)

// ValidationError reports missing or malformed input, or a disconnected wallet
type ValidationError struct {
	Field   string
	Message string
}

// NewValidationError creates a ValidationError
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// InsufficientFundsError is returned when a buy costs more than the base currency balance
type InsufficientFundsError struct {
	Required  decimal.Decimal
	Available decimal.Decimal
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: need %s, have %s", e.Required.String(), e.Available.String())
}

// InsufficientHoldingsError is returned when a sell exceeds the units held
type InsufficientHoldingsError struct {
	Ticker    string
	Required  int64
	Available int64
}

func (e *InsufficientHoldingsError) Error() string {
	return fmt.Sprintf("insufficient %s holdings: need %d, have %d", e.Ticker, e.Required, e.Available)
}

// IsValidation reports whether err is a ValidationError
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// IsInsufficientFunds reports whether err is an InsufficientFundsError
func IsInsufficientFunds(err error) bool {
	var v *InsufficientFundsError
	return errors.As(err, &v)
}

// IsInsufficientHoldings reports whether err is an InsufficientHoldingsError
func IsInsufficientHoldings(err error) bool {
	var v *InsufficientHoldingsError
	return errors.As(err, &v)
}
