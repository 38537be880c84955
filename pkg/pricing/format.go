package pricing

import (
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var usdPrinter = message.NewPrinter(language.English)

// FormatUSD renders a USD amount for reports and CLI output.
func FormatUSD(amount float64) string {
	return usdPrinter.Sprint(currency.Symbol(currency.USD.Amount(amount)))
}
