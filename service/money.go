package service

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// minorUnitExponent converts stored minor units (cents) into major units for display
const minorUnitExponent = -2

// FormatAmount renders a minor-unit amount as "KES 12.50"
func FormatAmount(amount int64, currency string) string {
	return fmt.Sprintf("%s %s", currency, decimal.New(amount, minorUnitExponent).StringFixed(2))
}
