package core

import (
	"testing"
	"time"
)

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func TestValidCategory(t *testing.T) {
	cases := []struct {
		in string
		ok bool
	}{
		{"food", true},
		{"Food", true},
		{"SHOPPING", true},
		{"groceries", false},
		{"", false},
	}
	for i, tc := range cases {
		if got := ValidCategory(tc.in); got != tc.ok {
			t.Fatalf("case %d (%q): expected %v, got %v", i, tc.in, tc.ok, got)
		}
	}
}

func TestParseDate(t *testing.T) {
	got, err := ParseDate("2024-02-29")
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if !got.Equal(date(2024, 2, 29)) {
		t.Fatalf("expected 2024-02-29, got %v", got)
	}

	for _, bad := range []string{"", "2024-13-01", "02/29/2024", "2024-2-9x"} {
		if _, err := ParseDate(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestTransactionValidate(t *testing.T) {
	good := Transaction{
		Date:        date(2024, 1, 15),
		Description: "Morning coffee",
		Category:    "food",
		Amount:      4.75,
		Merchant:    "Starbucks",
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []Transaction{
		{Description: "a", Category: "food", Amount: 1, Merchant: "m"}, // zero date
		{Date: date(2024, 1, 1), Description: "", Category: "food", Amount: 1, Merchant: "m"},
		{Date: date(2024, 1, 1), Description: "a", Category: "misc", Amount: 1, Merchant: "m"},
		{Date: date(2024, 1, 1), Description: "a", Category: "food", Amount: -1, Merchant: "m"},
		{Date: date(2024, 1, 1), Description: "a", Category: "food", Amount: 1, Merchant: "  "},
	}
	for i, tx := range bads {
		if err := tx.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestSearchText(t *testing.T) {
	tx := Transaction{Description: "Grocery shopping", Category: "food", Merchant: "Whole Foods"}
	want := "Grocery shopping food Whole Foods"
	if got := tx.SearchText(); got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}
