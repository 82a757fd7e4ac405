package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"moneyminder/internal/core"
)

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

type fakeLedger struct {
	txs []core.Transaction
}

func (f *fakeLedger) GetAll(ctx context.Context) ([]core.Transaction, error) {
	return f.txs, nil
}

type fakeSearcher struct {
	hits []ScoredTransaction
}

func (f *fakeSearcher) Search(ctx context.Context, query string, limit int) ([]ScoredTransaction, error) {
	if len(f.hits) > limit {
		return f.hits[:limit], nil
	}
	return f.hits, nil
}

func tx(d time.Time, desc, cat string, amount float64, merchant string) core.Transaction {
	return core.Transaction{Date: d, Description: desc, Category: cat, Amount: amount, Merchant: merchant}
}

func TestDecodeArgsDefaults(t *testing.T) {
	got := DecodeArgs(ToolSearchTransactions, map[string]any{"query": "coffee"})
	search, ok := got.(SearchArgs)
	if !ok {
		t.Fatalf("expected SearchArgs, got %T", got)
	}
	if search.Query != "coffee" || search.Limit != 10 {
		t.Fatalf("unexpected args: %+v", search)
	}

	got = DecodeArgs(ToolSearchTransactions, map[string]any{"query": "coffee", "limit": float64(3)})
	if got.(SearchArgs).Limit != 3 {
		t.Fatalf("expected limit 3, got %+v", got)
	}

	got = DecodeArgs(ToolSpendingSummary, map[string]any{})
	if got.(SummaryArgs).Period != PeriodLastMonth {
		t.Fatalf("expected default period, got %+v", got)
	}

	got = DecodeArgs("export_to_pdf", map[string]any{"file": "out.pdf"})
	unparsed, ok := got.(UnparsedArgs)
	if !ok {
		t.Fatalf("expected UnparsedArgs, got %T", got)
	}
	if unparsed.Tool != "export_to_pdf" || !strings.Contains(unparsed.Raw, "out.pdf") {
		t.Fatalf("unexpected fallback: %+v", unparsed)
	}
}

func TestFilterDateRangeInclusive(t *testing.T) {
	txs := []core.Transaction{
		tx(date(2024, 2, 1), "a", "food", 1, "m"),
		tx(date(2024, 2, 15), "b", "food", 1, "m"),
		tx(date(2024, 2, 29), "c", "food", 1, "m"),
		tx(date(2024, 3, 1), "d", "food", 1, "m"),
	}
	start := date(2024, 2, 1)
	end := date(2024, 2, 29)
	got := FilterDateRange(txs, &start, &end)
	if len(got) != 3 {
		t.Fatalf("expected both bounds inclusive, got %d rows", len(got))
	}
	if got[0].Description != "a" || got[2].Description != "c" {
		t.Fatalf("unexpected rows: %+v", got)
	}
}

func TestSearchHitsCategoryFilterAndSort(t *testing.T) {
	searcher := &fakeSearcher{hits: []ScoredTransaction{
		{Transaction: tx(date(2024, 1, 3), "lunch", "food", 12.50, "Chipotle"), Score: 0.9},
		{Transaction: tx(date(2024, 1, 5), "headphones", "shopping", 89.99, "Amazon"), Score: 0.8},
		{Transaction: tx(date(2024, 1, 1), "coffee", "food", 4.75, "Starbucks"), Score: 0.7},
	}}
	e := NewEngine(&fakeLedger{}, searcher, nil)

	hits, err := e.SearchHits(context.Background(), SearchArgs{Query: "food", Category: "Food", SortBy: SortAmountDesc})
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("expected 2 food hits, got %d", len(hits))
	}
	if hits[0].Amount != 12.50 || hits[1].Amount != 4.75 {
		t.Fatalf("expected amount_desc order, got %+v", hits)
	}

	out, err := e.SearchTransactions(context.Background(), SearchArgs{Query: "nothing"})
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if out == MsgNoSearchResults {
		t.Fatalf("fake searcher always returns hits")
	}

	empty := NewEngine(&fakeLedger{}, &fakeSearcher{}, nil)
	out, err = empty.SearchTransactions(context.Background(), SearchArgs{Query: "nothing"})
	if err != nil || out != MsgNoSearchResults {
		t.Fatalf("expected %q, got %q (%v)", MsgNoSearchResults, out, err)
	}
}

func TestAnalyzeByCategory(t *testing.T) {
	ledger := &fakeLedger{txs: []core.Transaction{
		tx(date(2024, 2, 5), "groceries", "food", 54.30, "Whole Foods"),
		tx(date(2024, 2, 14), "dinner", "food", 86.20, "Olive Garden"),
		tx(date(2024, 2, 20), "coffee", "food", 4.50, "Starbucks"),
		tx(date(2024, 3, 2), "lunch", "food", 15.00, "Chipotle"),
		tx(date(2024, 2, 10), "movie", "entertainment", 24.00, "AMC"),
	}}
	e := NewEngine(ledger, &fakeSearcher{}, nil)

	out, err := e.AnalyzeByCategory(context.Background(), CategoryArgs{
		Category: "Food", StartDate: "2024-02-01", EndDate: "2024-02-29",
	})
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	var got CategoryAnalysis
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("payload is not JSON: %v\n%s", err, out)
	}
	if got.Category != "food" || got.TransactionCount != 3 {
		t.Fatalf("unexpected payload: %+v", got)
	}
	// Sums stay unrounded in the payload; formatting to two decimals is the
	// display layer's job.
	wantTotal := 54.30 + 86.20 + 4.50
	if got.TotalSpent != wantTotal || got.AverageTransaction != wantTotal/3 {
		t.Fatalf("unexpected totals: %+v", got)
	}
	if got.MinTransaction != 4.50 || got.MaxTransaction != 86.20 {
		t.Fatalf("unexpected extremes: %+v", got)
	}
	if got.UniqueMerchants != 3 {
		t.Fatalf("expected 3 merchants, got %d", got.UniqueMerchants)
	}
	if got.Period != "2024-02-01 to 2024-02-29" {
		t.Fatalf("unexpected period label %q", got.Period)
	}

	out, err = e.AnalyzeByCategory(context.Background(), CategoryArgs{Category: "Health"})
	want := "No transactions found for category: health"
	if err != nil || out != want {
		t.Fatalf("expected %q, got %q (%v)", want, out, err)
	}
}

func TestSpendingSummary(t *testing.T) {
	now := date(2024, 3, 31)
	ledger := &fakeLedger{txs: []core.Transaction{
		tx(date(2024, 3, 5), "groceries", "food", 100.00, "Whole Foods"),
		tx(date(2024, 3, 10), "shoes", "shopping", 60.00, "Nike"),
		tx(date(2024, 3, 12), "dinner", "food", 40.00, "Chipotle"),
		tx(date(2024, 3, 15), "books", "shopping", 60.00, "Amazon"),
		tx(date(2024, 3, 20), "gas", "transport", 45.00, "Shell"),
		tx(date(2024, 3, 22), "movie", "entertainment", 30.00, "AMC"),
		tx(date(2024, 3, 25), "pharmacy", "health", 25.00, "CVS"),
		tx(date(2023, 12, 1), "old", "food", 500.00, "Costco"),
	}}
	e := NewEngine(ledger, &fakeSearcher{}, func() time.Time { return now })

	summary, err := e.Summary(context.Background(), SummaryArgs{Period: PeriodLastMonth})
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if summary.TransactionsCount != 7 {
		t.Fatalf("expected December excluded, got %d rows", summary.TransactionsCount)
	}
	if summary.TotalSpent != 360.00 {
		t.Fatalf("unexpected total %v", summary.TotalSpent)
	}
	if summary.DailyAverage != 12.00 {
		t.Fatalf("expected 360/30 days, got %v", summary.DailyAverage)
	}
	if summary.SpendingByCategory["food"] != 140.00 || summary.SpendingByCategory["shopping"] != 120.00 {
		t.Fatalf("unexpected categories: %+v", summary.SpendingByCategory)
	}

	// Five merchants survive, ordered by total. Nike and Amazon tie at 60
	// and must keep first-seen order.
	ranked := summary.TopMerchantsRanked
	if len(ranked) != 5 {
		t.Fatalf("expected top 5, got %d", len(ranked))
	}
	if ranked[0].Merchant != "Whole Foods" || ranked[0].Total != 100.00 {
		t.Fatalf("unexpected leader: %+v", ranked[0])
	}
	if ranked[1].Merchant != "Nike" || ranked[2].Merchant != "Amazon" {
		t.Fatalf("tie must keep encounter order: %+v", ranked)
	}
	if _, ok := summary.TopMerchants["CVS"]; ok {
		t.Fatalf("CVS should fall outside the top 5")
	}

	empty := NewEngine(&fakeLedger{}, &fakeSearcher{}, func() time.Time { return now })
	out, err := empty.SpendingSummary(context.Background(), SummaryArgs{Period: PeriodLastWeek})
	if err != nil || out != MsgNoSummaryMatches {
		t.Fatalf("expected %q, got %q (%v)", MsgNoSummaryMatches, out, err)
	}
}

func TestSummaryAllTimeAnchorsEarliest(t *testing.T) {
	now := date(2024, 3, 31)
	ledger := &fakeLedger{txs: []core.Transaction{
		tx(date(2023, 12, 1), "old", "food", 500.00, "Costco"),
		tx(date(2024, 3, 5), "new", "food", 100.00, "Whole Foods"),
	}}
	e := NewEngine(ledger, &fakeSearcher{}, func() time.Time { return now })

	summary, err := e.Summary(context.Background(), SummaryArgs{Period: PeriodAllTime})
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if summary.TransactionsCount != 2 || summary.TotalSpent != 600.00 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	// 2023-12-01 to 2024-03-31 is 121 days.
	if summary.DailyAverage != 600.0/121.0 {
		t.Fatalf("unexpected daily average %v", summary.DailyAverage)
	}
}

func TestAnalyzeMerchant(t *testing.T) {
	ledger := &fakeLedger{txs: []core.Transaction{
		tx(date(2024, 1, 5), "groceries", "food", 80.00, "Target"),
		tx(date(2024, 1, 12), "towels", "shopping", 35.50, "Target"),
		tx(date(2024, 2, 3), "snacks", "food", 12.25, "Target"),
		tx(date(2024, 1, 8), "coffee", "food", 4.75, "Starbucks"),
	}}
	e := NewEngine(ledger, &fakeSearcher{}, nil)
	ctx := context.Background()

	out, err := e.AnalyzeMerchant(ctx, MerchantArgs{Merchant: "target"})
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	var flat MerchantAnalysis
	if err := json.Unmarshal([]byte(out), &flat); err != nil {
		t.Fatalf("payload is not JSON: %v", err)
	}
	if flat.TransactionCount != 3 || flat.TotalSpent != 127.75 {
		t.Fatalf("unexpected payload: %+v", flat)
	}

	out, err = e.AnalyzeMerchant(ctx, MerchantArgs{Merchant: "Target", GroupByCategory: true})
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	var grouped MerchantCategoryBreakdown
	if err := json.Unmarshal([]byte(out), &grouped); err != nil {
		t.Fatalf("payload is not JSON: %v", err)
	}
	if !grouped.GroupedByCategory || len(grouped.Categories) != 2 {
		t.Fatalf("unexpected breakdown: %+v", grouped)
	}
	if grouped.Categories[0].Category != "food" || grouped.Categories[0].TotalSpent != 92.25 {
		t.Fatalf("expected food first, got %+v", grouped.Categories)
	}
	if grouped.OverallTotal != 127.75 || grouped.OverallCount != 3 {
		t.Fatalf("unexpected overall: %+v", grouped)
	}

	// Merchant exists but nothing inside the window. The message names the
	// merchant and the rejected range so the model cannot blame the merchant.
	out, err = e.AnalyzeMerchant(ctx, MerchantArgs{Merchant: "Target", StartDate: "2024-06-01"})
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if !strings.Contains(out, "Found 3 transaction(s) for merchant 'Target' without date filtering") {
		t.Fatalf("expected date-filter disambiguation, got %q", out)
	}
	if !strings.Contains(out, "from 2024-06-01") {
		t.Fatalf("expected the rejected range in %q", out)
	}

	out, err = e.AnalyzeMerchant(ctx, MerchantArgs{Merchant: "Walmart"})
	want := fmt.Sprintf(MsgNoMerchantMatches, "Walmart")
	if err != nil || out != want {
		t.Fatalf("expected %q, got %q (%v)", want, out, err)
	}
}
