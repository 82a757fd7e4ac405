package analytics

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"moneyminder/internal/core"
)

// Named periods accepted by get_spending_summary.
const (
	PeriodLastWeek     = "last_week"
	PeriodLastMonth    = "last_month"
	PeriodLast3Months  = "last_3_months"
	PeriodAllTime      = "all_time"
	topMerchantsLimit  = 5
	defaultSearchLimit = 10
)

// Ledger provides the full transaction history, ordered by date then id.
type Ledger interface {
	GetAll(ctx context.Context) ([]core.Transaction, error)
}

// Searcher ranks transactions by semantic relevance to a free-text query.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]ScoredTransaction, error)
}

// Engine executes the analytics operations the agent exposes as tools.
type Engine struct {
	ledger   Ledger
	searcher Searcher
	now      func() time.Time
}

func NewEngine(ledger Ledger, searcher Searcher, now func() time.Time) *Engine {
	if now == nil {
		now = time.Now
	}
	return &Engine{ledger: ledger, searcher: searcher, now: now}
}

// SearchHits runs a ranked search, applies the optional category restriction
// and sort override, and truncates to the requested limit.
func (e *Engine) SearchHits(ctx context.Context, args SearchArgs) ([]ScoredTransaction, error) {
	limit := args.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	// Over-fetch when a category filter will discard candidates after ranking.
	fetch := limit
	if args.Category != "" {
		fetch = limit * 5
		if fetch < 50 {
			fetch = 50
		}
	}
	hits, err := e.searcher.Search(ctx, args.Query, fetch)
	if err != nil {
		return nil, fmt.Errorf("search transactions: %w", err)
	}
	if args.Category != "" {
		filtered := hits[:0:0]
		for _, h := range hits {
			if strings.EqualFold(h.Category, args.Category) {
				filtered = append(filtered, h)
			}
		}
		hits = filtered
	}
	sortHits(hits, args.SortBy)
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

// SearchTransactions is the tool-facing rendering of SearchHits.
func (e *Engine) SearchTransactions(ctx context.Context, args SearchArgs) (string, error) {
	hits, err := e.SearchHits(ctx, args)
	if err != nil {
		return "", err
	}
	return FormatHits(hits), nil
}

// sortHits reorders in place. An empty order keeps relevance ranking.
func sortHits(hits []ScoredTransaction, order SortOrder) {
	switch order {
	case SortAmountDesc:
		sort.SliceStable(hits, func(i, j int) bool { return hits[i].Amount > hits[j].Amount })
	case SortAmountAsc:
		sort.SliceStable(hits, func(i, j int) bool { return hits[i].Amount < hits[j].Amount })
	case SortDateDesc:
		sort.SliceStable(hits, func(i, j int) bool { return hits[i].Date.After(hits[j].Date) })
	case SortDateAsc:
		sort.SliceStable(hits, func(i, j int) bool { return hits[i].Date.Before(hits[j].Date) })
	}
}

// CategoryTransactions returns the transactions an analyze_by_category call
// aggregates over, for table rendering.
func (e *Engine) CategoryTransactions(ctx context.Context, args CategoryArgs) ([]core.Transaction, error) {
	txs, err := e.ledger.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load transactions: %w", err)
	}
	start, err := parseOptionalDate("start_date", args.StartDate)
	if err != nil {
		return nil, err
	}
	end, err := parseOptionalDate("end_date", args.EndDate)
	if err != nil {
		return nil, err
	}
	return FilterDateRange(FilterCategory(txs, args.Category), start, end), nil
}

// AnalyzeByCategory aggregates spending within one category, optionally
// restricted to an inclusive date range.
func (e *Engine) AnalyzeByCategory(ctx context.Context, args CategoryArgs) (string, error) {
	txs, err := e.CategoryTransactions(ctx, args)
	if err != nil {
		return "", err
	}
	if len(txs) == 0 {
		return fmt.Sprintf(MsgNoCategoryMatches, strings.ToLower(args.Category)), nil
	}
	sum, mean, min, max := amountStats(txs)
	payload := CategoryAnalysis{
		Category:           strings.ToLower(args.Category),
		Period:             rangeLabel(args.StartDate, args.EndDate),
		TotalSpent:         sum,
		TransactionCount:   len(txs),
		AverageTransaction: mean,
		MinTransaction:     min,
		MaxTransaction:     max,
		UniqueMerchants:    uniqueMerchants(txs),
	}
	return marshalPayload(payload)
}

// Summary aggregates spending over a named period.
func (e *Engine) Summary(ctx context.Context, args SummaryArgs) (*SpendingSummary, error) {
	txs, err := e.ledger.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load transactions: %w", err)
	}
	now := e.now()
	start := periodStart(args.Period, now, txs)
	txs = FilterDateRange(txs, &start, nil)
	if len(txs) == 0 {
		return nil, nil
	}

	var total float64
	byCategory := make(map[string]float64)
	merchantTotals := make(map[string]float64)
	var merchantOrder []string
	for _, tx := range txs {
		total += tx.Amount
		byCategory[strings.ToLower(tx.Category)] += tx.Amount
		key := tx.Merchant
		if _, seen := merchantTotals[key]; !seen {
			merchantOrder = append(merchantOrder, key)
		}
		merchantTotals[key] += tx.Amount
	}
	// Stable sort keeps first-encountered merchants ahead on equal totals.
	sort.SliceStable(merchantOrder, func(i, j int) bool {
		return merchantTotals[merchantOrder[i]] > merchantTotals[merchantOrder[j]]
	})
	if len(merchantOrder) > topMerchantsLimit {
		merchantOrder = merchantOrder[:topMerchantsLimit]
	}
	ranked := make([]MerchantTotal, 0, len(merchantOrder))
	top := make(map[string]float64, len(merchantOrder))
	for _, m := range merchantOrder {
		ranked = append(ranked, MerchantTotal{Merchant: m, Total: merchantTotals[m]})
		top[m] = merchantTotals[m]
	}

	elapsed := int(now.Sub(start).Hours() / 24)
	if elapsed < 1 {
		elapsed = 1
	}
	return &SpendingSummary{
		Period:             normalizePeriod(args.Period),
		TotalSpent:         total,
		TransactionsCount:  len(txs),
		DailyAverage:       total / float64(elapsed),
		SpendingByCategory: byCategory,
		TopMerchants:       top,
		TopMerchantsRanked: ranked,
	}, nil
}

// SpendingSummary is the tool-facing rendering of Summary.
func (e *Engine) SpendingSummary(ctx context.Context, args SummaryArgs) (string, error) {
	summary, err := e.Summary(ctx, args)
	if err != nil {
		return "", err
	}
	if summary == nil {
		return MsgNoSummaryMatches, nil
	}
	return marshalPayload(summary)
}

// periodStart resolves a named period to its inclusive lower bound.
// all_time anchors on the earliest transaction; unknown names fall back to
// last_month.
func periodStart(period string, now time.Time, txs []core.Transaction) time.Time {
	switch period {
	case PeriodLastWeek:
		return now.AddDate(0, 0, -7)
	case PeriodLast3Months:
		return now.AddDate(0, 0, -90)
	case PeriodAllTime:
		if len(txs) == 0 {
			return now
		}
		earliest := txs[0].Date
		for _, tx := range txs[1:] {
			if tx.Date.Before(earliest) {
				earliest = tx.Date
			}
		}
		return earliest
	default:
		return now.AddDate(0, 0, -30)
	}
}

func normalizePeriod(period string) string {
	switch period {
	case PeriodLastWeek, PeriodLast3Months, PeriodAllTime, PeriodLastMonth:
		return period
	}
	return PeriodLastMonth
}

// MerchantTransactions returns the transactions an analyze_merchant call
// aggregates over, after both filters.
func (e *Engine) MerchantTransactions(ctx context.Context, args MerchantArgs) ([]core.Transaction, error) {
	txs, _, err := e.merchantFiltered(ctx, args)
	return txs, err
}

// merchantFiltered also reports how many transactions matched the merchant
// before the date filter, to disambiguate the two empty outcomes.
func (e *Engine) merchantFiltered(ctx context.Context, args MerchantArgs) ([]core.Transaction, int, error) {
	all, err := e.ledger.GetAll(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("load transactions: %w", err)
	}
	byMerchant := FilterMerchant(all, args.Merchant)
	start, err := parseOptionalDate("start_date", args.StartDate)
	if err != nil {
		return nil, 0, err
	}
	end, err := parseOptionalDate("end_date", args.EndDate)
	if err != nil {
		return nil, 0, err
	}
	return FilterDateRange(byMerchant, start, end), len(byMerchant), nil
}

// AnalyzeMerchant aggregates spending at one merchant, flat or grouped by
// category.
func (e *Engine) AnalyzeMerchant(ctx context.Context, args MerchantArgs) (string, error) {
	txs, preFilter, err := e.merchantFiltered(ctx, args)
	if err != nil {
		return "", err
	}
	if len(txs) == 0 {
		if preFilter > 0 {
			return fmt.Sprintf(MsgMerchantDateFilter,
				preFilter, args.Merchant, rangeLabel(args.StartDate, args.EndDate)), nil
		}
		return fmt.Sprintf(MsgNoMerchantMatches, args.Merchant), nil
	}
	period := rangeLabel(args.StartDate, args.EndDate)
	if !args.GroupByCategory {
		sum, mean, min, max := amountStats(txs)
		return marshalPayload(MerchantAnalysis{
			Merchant:           args.Merchant,
			Period:             period,
			TotalSpent:         sum,
			TransactionCount:   len(txs),
			AverageTransaction: mean,
			MinTransaction:     min,
			MaxTransaction:     max,
		})
	}
	return marshalPayload(merchantBreakdown(args.Merchant, period, txs))
}

// merchantBreakdown groups a merchant's transactions by category, largest
// total first with encounter order breaking ties.
func merchantBreakdown(merchant, period string, txs []core.Transaction) MerchantCategoryBreakdown {
	totals := make(map[string]float64)
	counts := make(map[string]int)
	var order []string
	var overall float64
	for _, tx := range txs {
		c := strings.ToLower(tx.Category)
		if _, seen := totals[c]; !seen {
			order = append(order, c)
		}
		totals[c] += tx.Amount
		counts[c]++
		overall += tx.Amount
	}
	sort.SliceStable(order, func(i, j int) bool { return totals[order[i]] > totals[order[j]] })
	cats := make([]CategorySubtotals, 0, len(order))
	for _, c := range order {
		cats = append(cats, CategorySubtotals{
			Category:         c,
			TotalSpent:       totals[c],
			TransactionCount: counts[c],
			Average:          totals[c] / float64(counts[c]),
		})
	}
	return MerchantCategoryBreakdown{
		Merchant:          merchant,
		Period:            period,
		GroupedByCategory: true,
		Categories:        cats,
		OverallTotal:      overall,
		OverallCount:      len(txs),
	}
}

// rangeLabel describes an optional date range for payload context.
func rangeLabel(start, end string) string {
	switch {
	case start != "" && end != "":
		return start + " to " + end
	case start != "":
		return "from " + start
	case end != "":
		return "until " + end
	}
	return ""
}
