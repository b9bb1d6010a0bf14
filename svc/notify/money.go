package notify

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.BritishEnglish)

// FormatAmount renders amount in the given ISO 4217 currency, e.g. "£ 495.00".
// Unknown codes fall back to "<amount> <code>".
func FormatAmount(amount decimal.Decimal, code string) string {
	unit, err := currency.ParseISO(code)
	if err != nil {
		return amount.StringFixed(2) + " " + code
	}
	return printer.Sprint(currency.Symbol(unit.Amount(amount.InexactFloat64())))
}
