package analytics

import (
	"encoding/json"
	"fmt"

	"moneyminder/internal/core"
)

// Messages returned instead of a JSON payload when an operation matches
// nothing. They are prose so the model can repeat them; the category and
// merchant variants name what was asked for so the model cannot confuse
// two empty results.
const (
	MsgNoSearchResults    = "No transactions found"
	MsgNoCategoryMatches  = "No transactions found for category: %s"
	MsgNoSummaryMatches   = "No transactions found in the specified period"
	MsgNoMerchantMatches  = "No transactions found for merchant: %s"
	MsgMerchantDateFilter = "Found %d transaction(s) for merchant '%s' without date filtering, but none within the requested date range (%s)"
)

// ScoredTransaction is a search hit with its similarity score.
type ScoredTransaction struct {
	core.Transaction
	Score float64
}

// CategoryAnalysis is the payload of analyze_by_category.
type CategoryAnalysis struct {
	Category           string  `json:"category"`
	Period             string  `json:"period,omitempty"`
	TotalSpent         float64 `json:"total_spent"`
	TransactionCount   int     `json:"transaction_count"`
	AverageTransaction float64 `json:"average_transaction"`
	MinTransaction     float64 `json:"min_transaction"`
	MaxTransaction     float64 `json:"max_transaction"`
	UniqueMerchants    int     `json:"unique_merchants"`
}

// SpendingSummary is the payload of get_spending_summary.
type SpendingSummary struct {
	Period             string             `json:"period"`
	TotalSpent         float64            `json:"total_spent"`
	TransactionsCount  int                `json:"transactions_count"`
	DailyAverage       float64            `json:"daily_average"`
	SpendingByCategory map[string]float64 `json:"spending_by_category"`
	TopMerchants       map[string]float64 `json:"top_merchants"`

	// TopMerchantsRanked preserves the descending order the JSON map loses.
	TopMerchantsRanked []MerchantTotal `json:"-"`
}

// MerchantTotal is one merchant with its spending total.
type MerchantTotal struct {
	Merchant string
	Total    float64
}

// MerchantAnalysis is the flat payload of analyze_merchant.
type MerchantAnalysis struct {
	Merchant           string  `json:"merchant"`
	Period             string  `json:"period,omitempty"`
	TotalSpent         float64 `json:"total_spent"`
	TransactionCount   int     `json:"transaction_count"`
	AverageTransaction float64 `json:"average_transaction"`
	MinTransaction     float64 `json:"min_transaction"`
	MaxTransaction     float64 `json:"max_transaction"`
}

// MerchantCategoryBreakdown is the grouped payload of analyze_merchant.
type MerchantCategoryBreakdown struct {
	Merchant          string              `json:"merchant"`
	Period            string              `json:"period,omitempty"`
	GroupedByCategory bool                `json:"grouped_by_category"`
	Categories        []CategorySubtotals `json:"categories"`
	OverallTotal      float64             `json:"overall_total"`
	OverallCount      int                 `json:"overall_count"`
}

// CategorySubtotals is one category slice of a merchant breakdown.
type CategorySubtotals struct {
	Category         string  `json:"category"`
	TotalSpent       float64 `json:"total_spent"`
	TransactionCount int     `json:"transaction_count"`
	Average          float64 `json:"average"`
}

func marshalPayload(v any) (string, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}
	return string(b), nil
}

// FormatHits renders ranked search hits the way the model consumes them,
// one pipe-delimited line per transaction.
func FormatHits(hits []ScoredTransaction) string {
	if len(hits) == 0 {
		return MsgNoSearchResults
	}
	out := ""
	for i, h := range hits {
		if i > 0 {
			out += "\n"
		}
		out += fmt.Sprintf("Date: %s | Description: %s | Category: %s | Amount: $%.2f | Merchant: %s",
			h.Date.Format("2006-01-02"), h.Description, h.Category, h.Amount, h.Merchant)
	}
	return out
}
