package receipt

import (
	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"

	"github.com/zombor/receipt-extractor/internal/extraction"
)

var symbolCodes = map[string]string{
	extraction.Dollar: money.USD,
	extraction.Euro:   money.EUR,
	extraction.Pound:  money.GBP,
	extraction.Yen:    money.JPY,
	extraction.Rupee:  money.INR,
}

// applyMoney fills the ISO code, minor units and display string from the
// extracted amount and symbol. Unknown symbols leave the fields empty.
func applyMoney(r *Record) {
	if r.Amount == nil || r.Currency == nil {
		return
	}
	code, ok := symbolCodes[*r.Currency]
	if !ok {
		return
	}
	currency := money.GetCurrency(code)
	if currency == nil {
		return
	}

	multiplier := decimal.New(1, int32(currency.Fraction))
	minor := decimal.NewFromFloat(*r.Amount).Mul(multiplier).Round(0).IntPart()

	r.CurrencyCode = code
	r.AmountMinor = minor
	r.Display = money.New(minor, code).Display()
}
