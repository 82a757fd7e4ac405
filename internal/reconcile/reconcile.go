package reconcile

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"moneyminder/internal/analytics"
	"moneyminder/internal/core"
	"moneyminder/internal/tracker"
)

// Wordings that mark a question as comparative. Matched as substrings of the
// lowercased question, so "compared" and "lowest" count too.
var comparativeWords = []string{
	"more", "less", "vs", "versus", "compare", "increase", "decrease",
	"higher", "lower", "from", "to", "than",
}

// Wordings that make a comparative question temporal rather than
// category-against-category.
var temporalWords = []string{"increase", "decrease", "from", "to", "vs", "versus"}

// Fact is one numeric observation extracted from a tool execution.
type Fact struct {
	Tool     string
	Category string
	Label    string
	Total    float64
	Start    string
	End      string

	// Breakdown maps collected from summary payloads. The comparison
	// formatters work off Total; these ride along for handlers that want
	// the per-category or per-merchant split.
	ByCategory map[string]float64
	ByMerchant map[string]float64
}

// Process replaces a drafted answer with a computed comparison when the
// question is comparative and the tool executions yield two usable totals.
// Otherwise it cleans the draft of leaked tool-call artifacts. It never
// fails; the worst outcome is the draft returned as is.
func Process(question, draft string, records []*tracker.Record) string {
	if Comparative(question) {
		facts := ExtractFacts(records)
		if len(facts) >= 2 {
			if temporal(question) {
				return formatTemporal(facts)
			}
			return formatCategorical(facts)
		}
	}
	return cleanNarrative(draft)
}

// Comparative reports whether the question asks for a comparison.
func Comparative(question string) bool {
	return containsAny(question, comparativeWords)
}

func temporal(question string) bool {
	return containsAny(question, temporalWords)
}

func containsAny(question string, words []string) bool {
	lower := strings.ToLower(question)
	for _, w := range words {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}

// ExtractFacts pulls totals out of completed executions. Prose payloads and
// records without a spending total contribute nothing.
func ExtractFacts(records []*tracker.Record) []Fact {
	var facts []Fact
	for _, rec := range records {
		if rec == nil || !rec.Completed() {
			continue
		}
		var payload map[string]any
		if err := json.Unmarshal([]byte(rec.Result), &payload); err != nil {
			continue
		}
		total, ok := payload["total_spent"].(float64)
		if !ok {
			total, ok = payload["overall_total"].(float64)
		}
		if !ok {
			continue
		}
		fact := Fact{
			Tool:       rec.Tool,
			Total:      total,
			ByCategory: numberMap(payload["spending_by_category"]),
			ByMerchant: numberMap(payload["top_merchants"]),
		}
		switch args := rec.Args.(type) {
		case analytics.CategoryArgs:
			fact.Category = args.Category
			fact.Start = args.StartDate
			fact.End = args.EndDate
		case analytics.MerchantArgs:
			fact.Label = args.Merchant
			fact.Start = args.StartDate
			fact.End = args.EndDate
		case analytics.SummaryArgs:
			fact.Label = args.Period
		}
		if fact.Category == "" {
			if c, ok := payload["category"].(string); ok {
				fact.Category = c
			}
		}
		facts = append(facts, fact)
	}
	return facts
}

// numberMap copies a decoded JSON object's numeric entries.
func numberMap(v any) map[string]float64 {
	raw, ok := v.(map[string]any)
	if !ok || len(raw) == 0 {
		return nil
	}
	out := make(map[string]float64, len(raw))
	for k, entry := range raw {
		if f, ok := entry.(float64); ok {
			out[k] = f
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// formatTemporal lists the earliest and latest totals one per line, then
// states the computed change between them.
func formatTemporal(facts []Fact) string {
	sorted := make([]Fact, len(facts))
	copy(sorted, facts)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })
	earlier, later := sorted[0], sorted[len(sorted)-1]

	lines := factLine(earlier) + "\n" + factLine(later) + "\n\n"
	delta := later.Total - earlier.Total
	if delta == 0 {
		return lines + "The spending held steady between the two periods."
	}
	direction := "increased"
	if delta < 0 {
		direction = "decreased"
	}
	var pct float64
	if earlier.Total != 0 {
		pct = delta / earlier.Total * 100
	}
	return lines + fmt.Sprintf("The spending %s by $%.2f (%.1f%%).",
		direction, math.Abs(delta), math.Abs(pct))
}

// formatCategorical lists the first two facts one per line, then calls out
// the higher one.
func formatCategorical(facts []Fact) string {
	a, b := facts[0], facts[1]
	nameA := factName(a, "The first")
	nameB := factName(b, "The second")
	lines := fmt.Sprintf("%s: $%.2f\n%s: $%.2f\n\n", nameA, a.Total, nameB, b.Total)
	switch {
	case a.Total > b.Total:
		return lines + fmt.Sprintf("%s was higher by $%.2f.", nameA, a.Total-b.Total)
	case b.Total > a.Total:
		return lines + fmt.Sprintf("%s was higher by $%.2f.", nameB, b.Total-a.Total)
	}
	return lines + "Both came out equal."
}

// factLine renders one observation as "Food (January 2024): $956.62".
func factLine(f Fact) string {
	name := factName(f, "Spending")
	if label := periodLabel(f.Start, f.End); label != "" {
		name += " (" + label + ")"
	}
	return fmt.Sprintf("%s: $%.2f", name, f.Total)
}

func factName(f Fact, fallback string) string {
	if f.Category != "" {
		return titleize(f.Category)
	}
	if f.Label != "" {
		return titleize(f.Label)
	}
	return fallback
}

// periodLabel names a date range by month. A range within one month reads
// "January 2024"; a longer one reads "January 2024 to March 2024".
func periodLabel(start, end string) string {
	s, sErr := core.ParseDate(start)
	e, eErr := core.ParseDate(end)
	switch {
	case sErr == nil && eErr == nil:
		if s.Year() == e.Year() && s.Month() == e.Month() {
			return s.Format("January 2006")
		}
		return s.Format("January 2006") + " to " + e.Format("January 2006")
	case sErr == nil:
		return s.Format("January 2006")
	case eErr == nil:
		return e.Format("January 2006")
	}
	return ""
}

var (
	leakedPhrases = regexp.MustCompile(`(?i)(based on the tool call responses?|the tool returned|assuming)`)
	leakedCalls   = regexp.MustCompile(`\{[^}]*"name"[^}]*\}`)
	blankRuns     = regexp.MustCompile(`\n\s*\n\s*\n+`)
)

// cleanNarrative strips tool-call artifacts a model sometimes leaks into its
// prose. If stripping guts the answer, the draft wins.
func cleanNarrative(draft string) string {
	clean := leakedPhrases.ReplaceAllString(draft, "")
	clean = leakedCalls.ReplaceAllString(clean, "")
	clean = blankRuns.ReplaceAllString(clean, "\n\n")
	clean = strings.TrimSpace(clean)
	if len(clean) <= 20 {
		return draft
	}
	return clean
}

func titleize(s string) string {
	words := strings.FieldsFunc(s, func(r rune) bool { return r == '_' || r == ' ' })
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}
