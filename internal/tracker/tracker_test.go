package tracker

import (
	"strings"
	"testing"
	"time"

	"moneyminder/internal/analytics"
)

func at(sec int) time.Time {
	return time.Date(2024, 3, 1, 12, 0, sec, 0, time.UTC)
}

func TestFinishPairsOldestPending(t *testing.T) {
	tr := New()
	tr.Begin(analytics.ToolSpendingSummary, analytics.SummaryArgs{Period: "last_month"}, at(0))
	tr.Begin(analytics.ToolAnalyzeByCategory, analytics.CategoryArgs{Category: "food"}, at(1))

	// The first end event completes the first start, whichever tool actually
	// produced the payload.
	rec := tr.Finish(`{"category": "food"}`, at(3))
	if rec == nil || rec.Tool != analytics.ToolSpendingSummary {
		t.Fatalf("expected oldest pending record, got %+v", rec)
	}
	if rec.Duration != 3*time.Second {
		t.Fatalf("unexpected duration %v", rec.Duration)
	}

	rec = tr.Finish("payload", at(5))
	if rec == nil || rec.Tool != analytics.ToolAnalyzeByCategory {
		t.Fatalf("expected second record, got %+v", rec)
	}
	if tr.PendingCount() != 0 {
		t.Fatalf("expected no pending, got %d", tr.PendingCount())
	}

	done := tr.Completed()
	if len(done) != 2 || done[0].Tool != analytics.ToolSpendingSummary {
		t.Fatalf("unexpected completion order: %+v", done)
	}
	if last := tr.LastCompleted(); last == nil || last.Tool != analytics.ToolAnalyzeByCategory {
		t.Fatalf("unexpected last record: %+v", last)
	}
}

func TestFinishWithoutPending(t *testing.T) {
	tr := New()
	if rec := tr.Finish("orphan", at(0)); rec != nil {
		t.Fatalf("expected orphan end to be dropped, got %+v", rec)
	}
	if len(tr.Completed()) != 0 {
		t.Fatalf("orphan end must not create a record")
	}
}

func TestSummarize(t *testing.T) {
	short := "No transactions found"
	if got := Summarize(short); got != short {
		t.Fatalf("short payloads pass through, got %q", got)
	}

	long := strings.Repeat("x", 450)
	got := Summarize(long)
	if len(got) != 203 || !strings.HasSuffix(got, "...") {
		t.Fatalf("expected 200 chars plus ellipsis, got %d chars", len(got))
	}

	exact := strings.Repeat("y", 200)
	if got := Summarize(exact); got != exact {
		t.Fatalf("200 chars must not be truncated")
	}
}
