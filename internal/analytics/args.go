package analytics

import (
	"encoding/json"
	"fmt"
)

// Tool names offered to the reasoning agent.
const (
	ToolSearchTransactions = "search_transactions"
	ToolAnalyzeByCategory  = "analyze_by_category"
	ToolSpendingSummary    = "get_spending_summary"
	ToolAnalyzeMerchant    = "analyze_merchant"
)

// SortOrder reorders ranked search results.
type SortOrder string

const (
	SortAmountDesc SortOrder = "amount_desc"
	SortAmountAsc  SortOrder = "amount_asc"
	SortDateDesc   SortOrder = "date_desc"
	SortDateAsc    SortOrder = "date_asc"
)

// Args is the decoded argument payload of one tool call. Exactly one concrete
// type applies per tool; UnparsedArgs is the explicit fallback when the raw
// arguments do not decode.
type Args interface {
	ToolName() string
}

type SearchArgs struct {
	Query    string    `json:"query"`
	Limit    int       `json:"limit"`
	Category string    `json:"category,omitempty"`
	SortBy   SortOrder `json:"sort_by,omitempty"`
}

func (SearchArgs) ToolName() string { return ToolSearchTransactions }

type CategoryArgs struct {
	Category  string `json:"category"`
	StartDate string `json:"start_date,omitempty"`
	EndDate   string `json:"end_date,omitempty"`
}

func (CategoryArgs) ToolName() string { return ToolAnalyzeByCategory }

type SummaryArgs struct {
	Period string `json:"period"`
}

func (SummaryArgs) ToolName() string { return ToolSpendingSummary }

type MerchantArgs struct {
	Merchant        string `json:"merchant"`
	GroupByCategory bool   `json:"group_by_category"`
	StartDate       string `json:"start_date,omitempty"`
	EndDate         string `json:"end_date,omitempty"`
}

func (MerchantArgs) ToolName() string { return ToolAnalyzeMerchant }

// UnparsedArgs carries the raw input of a call whose arguments could not be
// decoded against the tool schema.
type UnparsedArgs struct {
	Tool string
	Raw  string
}

func (u UnparsedArgs) ToolName() string { return u.Tool }

// DecodeArgs decodes a raw argument map into the typed args for the named
// tool, applying documented defaults. Unknown tools and undecodable maps
// yield UnparsedArgs rather than an error.
func DecodeArgs(tool string, raw map[string]any) Args {
	switch tool {
	case ToolSearchTransactions:
		a := SearchArgs{
			Query:    getString(raw, "query"),
			Limit:    getInt(raw, "limit", 10),
			Category: getString(raw, "category"),
			SortBy:   SortOrder(getString(raw, "sort_by")),
		}
		return a
	case ToolAnalyzeByCategory:
		return CategoryArgs{
			Category:  getString(raw, "category"),
			StartDate: getString(raw, "start_date"),
			EndDate:   getString(raw, "end_date"),
		}
	case ToolSpendingSummary:
		a := SummaryArgs{Period: getString(raw, "period")}
		if a.Period == "" {
			a.Period = PeriodLastMonth
		}
		return a
	case ToolAnalyzeMerchant:
		return MerchantArgs{
			Merchant:        getString(raw, "merchant"),
			GroupByCategory: getBool(raw, "group_by_category"),
			StartDate:       getString(raw, "start_date"),
			EndDate:         getString(raw, "end_date"),
		}
	}
	return UnparsedArgs{Tool: tool, Raw: rawString(raw)}
}

func getString(m map[string]any, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

// getInt tolerates the float64 numbers JSON decoding produces.
func getInt(m map[string]any, key string, def int) int {
	switch v := m[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return int(n)
		}
	}
	return def
}

func getBool(m map[string]any, key string) bool {
	v, _ := m[key].(bool)
	return v
}

func rawString(m map[string]any) string {
	b, err := json.Marshal(m)
	if err != nil {
		return fmt.Sprintf("%v", m)
	}
	return string(b)
}
