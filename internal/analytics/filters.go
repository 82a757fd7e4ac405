package analytics

import (
	"fmt"
	"strings"
	"time"

	"moneyminder/internal/core"
)

// FilterCategory keeps transactions whose category equals cat, ignoring case.
func FilterCategory(txs []core.Transaction, cat string) []core.Transaction {
	var out []core.Transaction
	for _, tx := range txs {
		if strings.EqualFold(tx.Category, cat) {
			out = append(out, tx)
		}
	}
	return out
}

// FilterMerchant keeps transactions whose merchant equals merchant, ignoring case.
func FilterMerchant(txs []core.Transaction, merchant string) []core.Transaction {
	var out []core.Transaction
	for _, tx := range txs {
		if strings.EqualFold(tx.Merchant, merchant) {
			out = append(out, tx)
		}
	}
	return out
}

// FilterDateRange keeps transactions within the inclusive [start, end] range.
// A nil bound leaves that side open.
func FilterDateRange(txs []core.Transaction, start, end *time.Time) []core.Transaction {
	if start == nil && end == nil {
		return txs
	}
	var out []core.Transaction
	for _, tx := range txs {
		if start != nil && tx.Date.Before(*start) {
			continue
		}
		if end != nil && tx.Date.After(*end) {
			continue
		}
		out = append(out, tx)
	}
	return out
}

// parseOptionalDate parses an optional ISO date argument; empty means unset.
func parseOptionalDate(name, s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := core.ParseDate(s)
	if err != nil {
		return nil, fmt.Errorf("parse %s %q: %w", name, s, err)
	}
	return &t, nil
}

// amountStats computes sum, mean, min and max over the amounts of txs.
// txs must be non-empty.
func amountStats(txs []core.Transaction) (sum, mean, min, max float64) {
	min = txs[0].Amount
	max = txs[0].Amount
	for _, tx := range txs {
		sum += tx.Amount
		if tx.Amount < min {
			min = tx.Amount
		}
		if tx.Amount > max {
			max = tx.Amount
		}
	}
	mean = sum / float64(len(txs))
	return sum, mean, min, max
}

// uniqueMerchants counts distinct merchants, ignoring case.
func uniqueMerchants(txs []core.Transaction) int {
	seen := make(map[string]struct{})
	for _, tx := range txs {
		seen[strings.ToLower(tx.Merchant)] = struct{}{}
	}
	return len(seen)
}
