package domain

import (
	"errors"
	"fmt"
)

// UserMessage renders a core error as the message shown to the user
func UserMessage(err error) string {
	var funds *InsufficientFundsError
	if errors.As(err, &funds) {
		return fmt.Sprintf("Not enough %s: need %s, have %s", BaseCurrency, funds.Required.String(), funds.Available.String())
	}
	var holdings *InsufficientHoldingsError
	if errors.As(err, &holdings) {
		return fmt.Sprintf("Not enough %s: need %d, have %d", holdings.Ticker, holdings.Required, holdings.Available)
	}
	var validation *ValidationError
	if errors.As(err, &validation) {
		return validation.Message
	}
	if errors.Is(err, ErrTradeInProgress) {
		return "Another trade is still confirming"
	}
	if errors.Is(err, ErrTokenNotFound) {
		return "Token not found"
	}
	return err.Error()
}
