package agent

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"moneyminder/internal/analytics"
	"moneyminder/internal/core"
)

// Declarations describes the analytics tools offered to the model.
func Declarations() []*genai.Tool {
	categories := make([]string, len(core.Categories))
	for i, c := range core.Categories {
		categories[i] = string(c)
	}

	return []*genai.Tool{{
		FunctionDeclarations: []*genai.FunctionDeclaration{
			{
				Name: analytics.ToolSearchTransactions,
				Description: `Search transactions by meaning, not exact text. Returns the most relevant individual transactions with date, description, category, amount and merchant.

USE THIS WHEN: the user wants to find, list or show specific purchases, e.g. "show me my coffee purchases", "find my biggest Amazon orders", "what did I buy last week at the pharmacy".
DO NOT USE FOR: totals, averages or breakdowns. Use analyze_by_category, analyze_merchant or get_spending_summary for aggregated numbers.`,
				Parameters: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"query": {
							Type:        genai.TypeString,
							Description: "What to look for, e.g. 'coffee shops' or 'online shopping'",
						},
						"limit": {
							Type:        genai.TypeInteger,
							Description: "Maximum number of results, default 10",
						},
						"category": {
							Type:        genai.TypeString,
							Description: "Restrict results to one category",
							Enum:        categories,
						},
						"sort_by": {
							Type:        genai.TypeString,
							Description: "Reorder results instead of relevance ranking",
							Enum: []string{
								string(analytics.SortAmountDesc),
								string(analytics.SortAmountAsc),
								string(analytics.SortDateDesc),
								string(analytics.SortDateAsc),
							},
						},
					},
					Required: []string{"query"},
				},
			},
			{
				Name: analytics.ToolAnalyzeByCategory,
				Description: `Aggregate spending within one category, optionally restricted to an inclusive ISO date range. Returns total, count, average, min, max and unique merchants.

USE THIS WHEN: the user asks how much they spent on a category, e.g. "how much on food in February?".
For comparisons across two periods ("did my food spending increase from January to February?"), call this tool once per period with the matching start_date and end_date, then compare the totals.
DO NOT USE FOR: questions about one merchant (analyze_merchant) or overall spending (get_spending_summary).`,
				Parameters: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"category": {
							Type: genai.TypeString,
							Enum: categories,
						},
						"start_date": {
							Type:        genai.TypeString,
							Description: "Inclusive lower bound, YYYY-MM-DD",
						},
						"end_date": {
							Type:        genai.TypeString,
							Description: "Inclusive upper bound, YYYY-MM-DD",
						},
					},
					Required: []string{"category"},
				},
			},
			{
				Name: analytics.ToolSpendingSummary,
				Description: `Overall spending summary for a named period: total spent, transaction count, daily average, per-category breakdown and top merchants.

USE THIS WHEN: the user asks about spending in general, their categories, or their top merchants, e.g. "what are my spending categories?", "give me a summary of last month", "where does my money go?".
DO NOT USE FOR: one specific category or merchant. The dedicated analysis tools give exact numbers for those.`,
				Parameters: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"period": {
							Type: genai.TypeString,
							Enum: []string{
								analytics.PeriodLastWeek,
								analytics.PeriodLastMonth,
								analytics.PeriodLast3Months,
								analytics.PeriodAllTime,
							},
						},
					},
				},
			},
			{
				Name: analytics.ToolAnalyzeMerchant,
				Description: `Aggregate spending at one merchant, optionally within an inclusive ISO date range.

USE THIS WHEN: the user names a store or service, e.g. "how much did I spend at Target?".
Set group_by_category to true when the user wants that merchant's spending split per category.
For merchant-against-merchant comparisons, call this tool once per merchant and compare the totals.
DO NOT USE FOR: finding individual purchases (search_transactions) or category-wide totals (analyze_by_category).`,
				Parameters: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"merchant": {
							Type: genai.TypeString,
						},
						"group_by_category": {
							Type:        genai.TypeBoolean,
							Description: "Break the merchant's spending down per category",
						},
						"start_date": {
							Type:        genai.TypeString,
							Description: "Inclusive lower bound, YYYY-MM-DD",
						},
						"end_date": {
							Type:        genai.TypeString,
							Description: "Inclusive upper bound, YYYY-MM-DD",
						},
					},
					Required: []string{"merchant"},
				},
			},
		},
	}}
}

// Executor dispatches decoded tool calls to the analytics engine.
type Executor struct {
	engine *analytics.Engine
}

func NewExecutor(engine *analytics.Engine) *Executor {
	return &Executor{engine: engine}
}

// Execute runs one tool call. Unknown tools and unparsed arguments come back
// as prose the model can react to, not as errors.
func (e *Executor) Execute(ctx context.Context, args analytics.Args) (string, error) {
	switch a := args.(type) {
	case analytics.SearchArgs:
		return e.engine.SearchTransactions(ctx, a)
	case analytics.CategoryArgs:
		return e.engine.AnalyzeByCategory(ctx, a)
	case analytics.SummaryArgs:
		return e.engine.SpendingSummary(ctx, a)
	case analytics.MerchantArgs:
		return e.engine.AnalyzeMerchant(ctx, a)
	case analytics.UnparsedArgs:
		return fmt.Sprintf("Unknown tool: %s", a.Tool), nil
	}
	return "", fmt.Errorf("unhandled args type %T", args)
}
