package common

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseDecimal parses a decimal amount from its string form, rejecting empty
// input explicitly so callers can distinguish "absent" from "zero".
func ParseDecimal(value string) (decimal.Decimal, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return decimal.Zero, strconv.ErrSyntax
	}
	return decimal.NewFromString(trimmed)
}
