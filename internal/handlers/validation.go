package handlers

import (
	"errors"

	"mfbank/internal/money"
)

var errInvalidAmount = errors.New("invalid amount")

func parseAmountMinor(raw string) (int64, error) {
	amount, err := money.ParseMinor(raw)
	if err != nil || amount <= 0 {
		return 0, errInvalidAmount
	}
	return amount, nil
}

func parseLimitOffset(limitRaw, offsetRaw string, fallbackLimit int) (int, int) {
	limit := fallbackLimit
	offset := 0
	if limitRaw != "" {
		if parsed, ok := atoiSafe(limitRaw); ok && parsed > 0 && parsed <= 200 {
			limit = parsed
		}
	}
	if offsetRaw != "" {
		if parsed, ok := atoiSafe(offsetRaw); ok && parsed >= 0 {
			offset = parsed
		}
	}
	return limit, offset
}

func atoiSafe(raw string) (int, bool) {
	value := 0
	for _, r := range raw {
		if r < '0' || r > '9' {
			return 0, false
		}
		value = value*10 + int(r-'0')
		if value > 1000000 {
			return 0, false
		}
	}
	return value, true
}
