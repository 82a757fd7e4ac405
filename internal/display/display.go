package display

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"moneyminder/internal/analytics"
	"moneyminder/internal/tracker"
)

// Chart hints the UI can act on. A view without a hint renders as a table.
const (
	ChartBar = "bar_chart"
)

// View is the presentable form of one completed tool execution.
type View struct {
	Tool    string     `json:"tool"`
	Title   string     `json:"title"`
	Chart   string     `json:"chart,omitempty"`
	Columns []string   `json:"columns,omitempty"`
	Rows    [][]string `json:"rows,omitempty"`
	Text    string     `json:"text,omitempty"`
}

// Handler builds a view for one tool's execution record.
type Handler func(question string, rec *tracker.Record) (View, error)

// Registry dispatches execution records to per-tool view handlers.
// Rendering never fails: unknown tools and broken handlers degrade to a
// generic view built from the record summary.
type Registry struct {
	handlers map[string]Handler
}

func NewRegistry() *Registry {
	r := &Registry{handlers: make(map[string]Handler)}
	r.Register(analytics.ToolSearchTransactions, searchView)
	r.Register(analytics.ToolAnalyzeByCategory, categoryView)
	r.Register(analytics.ToolSpendingSummary, summaryView)
	r.Register(analytics.ToolAnalyzeMerchant, merchantView)
	return r
}

func (r *Registry) Register(tool string, h Handler) {
	r.handlers[tool] = h
}

// Render adapts a completed record into its view.
func (r *Registry) Render(question string, rec *tracker.Record) (view View) {
	defer func() {
		if p := recover(); p != nil {
			view = genericView(rec)
		}
	}()
	h, ok := r.handlers[rec.Tool]
	if !ok {
		return genericView(rec)
	}
	v, err := h(question, rec)
	if err != nil {
		return genericView(rec)
	}
	return v
}

func genericView(rec *tracker.Record) View {
	return View{Tool: rec.Tool, Title: Titleize(rec.Tool), Text: rec.Summary}
}

func searchView(question string, rec *tracker.Record) (View, error) {
	args, _ := rec.Args.(analytics.SearchArgs)
	v := View{
		Tool:  rec.Tool,
		Title: fmt.Sprintf("Search Results: '%s'", args.Query),
	}
	if rec.Result == analytics.MsgNoSearchResults {
		v.Text = rec.Result
		return v, nil
	}
	v.Columns = []string{"Date", "Description", "Category", "Amount", "Merchant"}
	for _, line := range strings.Split(rec.Result, "\n") {
		row := parseHitLine(line)
		if row != nil {
			v.Rows = append(v.Rows, row)
		}
	}
	if len(v.Rows) == 0 {
		v.Text = rec.Summary
	}
	return v, nil
}

// parseHitLine splits one "Field: value | Field: value" search result line.
func parseHitLine(line string) []string {
	parts := strings.Split(line, " | ")
	if len(parts) != 5 {
		return nil
	}
	row := make([]string, 0, 5)
	for _, p := range parts {
		_, val, ok := strings.Cut(p, ": ")
		if !ok {
			return nil
		}
		row = append(row, val)
	}
	return row
}

func categoryView(question string, rec *tracker.Record) (View, error) {
	var payload analytics.CategoryAnalysis
	if err := json.Unmarshal([]byte(rec.Result), &payload); err != nil {
		return View{Tool: rec.Tool, Title: "Category Analysis", Text: rec.Summary}, nil
	}
	v := View{
		Tool:    rec.Tool,
		Title:   "Category Analysis: " + Titleize(payload.Category),
		Chart:   ChartBar,
		Columns: []string{"Metric", "Value"},
		Rows: [][]string{
			{"Total Spent", dollars(payload.TotalSpent)},
			{"Transactions", fmt.Sprintf("%d", payload.TransactionCount)},
			{"Average", dollars(payload.AverageTransaction)},
			{"Smallest", dollars(payload.MinTransaction)},
			{"Largest", dollars(payload.MaxTransaction)},
			{"Unique Merchants", fmt.Sprintf("%d", payload.UniqueMerchants)},
		},
	}
	if payload.Period != "" {
		v.Title += " (" + payload.Period + ")"
	}
	return v, nil
}

// categoriesWording flags questions asking for the breakdown itself rather
// than a period total.
var categoriesWording = []string{"list", "types", "kinds", "categories", "expenditures", "spendings"}

func summaryView(question string, rec *tracker.Record) (View, error) {
	var payload analytics.SpendingSummary
	if err := json.Unmarshal([]byte(rec.Result), &payload); err != nil {
		return View{Tool: rec.Tool, Title: "Spending Summary", Text: rec.Summary}, nil
	}
	title := "Spending Summary: " + Titleize(payload.Period)
	lower := strings.ToLower(question)
	for _, w := range categoriesWording {
		if strings.Contains(lower, w) {
			title = "Spending Categories"
			break
		}
	}
	v := View{
		Tool:    rec.Tool,
		Title:   title,
		Chart:   ChartBar,
		Columns: []string{"Category", "Total"},
	}
	cats := make([]string, 0, len(payload.SpendingByCategory))
	for c := range payload.SpendingByCategory {
		cats = append(cats, c)
	}
	sort.Slice(cats, func(i, j int) bool {
		if payload.SpendingByCategory[cats[i]] != payload.SpendingByCategory[cats[j]] {
			return payload.SpendingByCategory[cats[i]] > payload.SpendingByCategory[cats[j]]
		}
		return cats[i] < cats[j]
	})
	for _, c := range cats {
		v.Rows = append(v.Rows, []string{Titleize(c), dollars(payload.SpendingByCategory[c])})
	}
	return v, nil
}

func merchantView(question string, rec *tracker.Record) (View, error) {
	args, _ := rec.Args.(analytics.MerchantArgs)
	if args.GroupByCategory {
		var payload analytics.MerchantCategoryBreakdown
		if err := json.Unmarshal([]byte(rec.Result), &payload); err != nil {
			return View{Tool: rec.Tool, Title: "Merchant Analysis", Text: rec.Summary}, nil
		}
		v := View{
			Tool:    rec.Tool,
			Title:   Titleize(payload.Merchant) + " Spending by Category",
			Chart:   ChartBar,
			Columns: []string{"Category", "Total", "Transactions", "Average"},
		}
		for _, c := range payload.Categories {
			v.Rows = append(v.Rows, []string{
				Titleize(c.Category), dollars(c.TotalSpent),
				fmt.Sprintf("%d", c.TransactionCount), dollars(c.Average),
			})
		}
		return v, nil
	}

	var payload analytics.MerchantAnalysis
	if err := json.Unmarshal([]byte(rec.Result), &payload); err != nil {
		return View{Tool: rec.Tool, Title: "Merchant Analysis", Text: rec.Summary}, nil
	}
	return View{
		Tool:    rec.Tool,
		Title:   Titleize(payload.Merchant) + " Transactions",
		Columns: []string{"Metric", "Value"},
		Rows: [][]string{
			{"Total Spent", dollars(payload.TotalSpent)},
			{"Transactions", fmt.Sprintf("%d", payload.TransactionCount)},
			{"Average", dollars(payload.AverageTransaction)},
			{"Smallest", dollars(payload.MinTransaction)},
			{"Largest", dollars(payload.MaxTransaction)},
		},
	}, nil
}

func dollars(v float64) string {
	return fmt.Sprintf("$%.2f", v)
}

// Titleize turns snake_case or lowercase words into display casing.
func Titleize(s string) string {
	words := strings.FieldsFunc(s, func(r rune) bool { return r == '_' || r == ' ' })
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}
