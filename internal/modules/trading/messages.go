package trading

import (
	"fmt"

	"github.com/aristath/crapto/internal/domain"
)

// SettledMessage is the success notification for a settled trade
func SettledMessage(tx domain.Transaction) string {
	verb := "Bought"
	if tx.Side.IsSell() {
		verb = "Sold"
	}
	return fmt.Sprintf("%s %d %s for %s %s", verb, tx.UnitAmount, tx.Ticker, tx.BaseCurrencyAmount.String(), domain.BaseCurrency)
}
