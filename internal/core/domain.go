package core

import (
	"errors"
	"strings"
	"time"
)

// Category is one of the fixed transaction categories.
type Category string

const (
	CategoryFood          Category = "food"
	CategoryShopping      Category = "shopping"
	CategoryEntertainment Category = "entertainment"
	CategoryTransport     Category = "transport"
	CategoryUtilities     Category = "utilities"
	CategoryHealth        Category = "health"
)

// Categories lists every valid category in display order.
var Categories = []Category{
	CategoryFood,
	CategoryShopping,
	CategoryEntertainment,
	CategoryTransport,
	CategoryUtilities,
	CategoryHealth,
}

// Transaction is one immutable ledger record. Merchant and category matching
// is always case-insensitive; amounts are non-negative.
type Transaction struct {
	ID          int64
	Date        time.Time
	Description string
	Category    string
	Amount      float64
	Merchant    string
}

var (
	ErrInvalidDate      = errors.New("invalid date")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidCategory  = errors.New("invalid category")
	ErrEmptyDescription = errors.New("empty description")
	ErrEmptyMerchant    = errors.New("empty merchant")
)

// ValidCategory reports whether s names a known category, ignoring case.
func ValidCategory(s string) bool {
	for _, c := range Categories {
		if strings.EqualFold(string(c), s) {
			return true
		}
	}
	return false
}

// ParseDate parses an ISO YYYY-MM-DD date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return t, nil
}

func (t Transaction) Validate() error {
	if t.Date.IsZero() {
		return ErrInvalidDate
	}
	if len(strings.TrimSpace(t.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(t.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	if t.Amount < 0 {
		return ErrInvalidAmount
	}
	if !ValidCategory(t.Category) {
		return ErrInvalidCategory
	}
	if strings.TrimSpace(t.Merchant) == "" {
		return ErrEmptyMerchant
	}
	return nil
}

// SearchText is the text a transaction is embedded under for semantic search:
// description, category and merchant concatenated.
func (t Transaction) SearchText() string {
	return t.Description + " " + t.Category + " " + t.Merchant
}
