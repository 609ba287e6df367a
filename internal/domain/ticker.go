package domain

import (
	"strings"
)

// MaxTickerLength is the longest accepted ticker
const MaxTickerLength = 5

// NormalizeTicker trims and uppercases a ticker, rejecting anything that is not 1-5 ASCII letters
func NormalizeTicker(raw string) (string, error) {
	ticker := strings.TrimSpace(raw)
	if ticker == "" {
		return "", NewValidationError("ticker", "Token Name and Ticker are required!")
	}
	// Checked before upper-casing: ToUpper maps some non-ASCII letters (ı, ſ) onto ASCII
	for _, r := range ticker {
		if !isASCIILetter(r) {
			return "", NewValidationError("ticker", "ticker must contain only letters")
		}
	}
	if len(ticker) > MaxTickerLength {
		return "", NewValidationError("ticker", "ticker must be at most 5 letters")
	}
	return strings.ToUpper(ticker), nil
}

func isASCIILetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}
