package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"moneyminder/internal/agent"
	"moneyminder/internal/core"
	"moneyminder/internal/log"
)

type fakeAnswerer struct {
	lastQuestion string
	lastHistory  []agent.Turn
}

func (f *fakeAnswerer) Answer(ctx context.Context, qctx agent.QueryContext, question string, history []agent.Turn) agent.Result {
	f.lastQuestion = question
	f.lastHistory = history
	return agent.Result{Answer: "You spent $42.00 on coffee."}
}

type fakeLedger struct {
	txs []core.Transaction
	err error
}

func (f *fakeLedger) GetAll(ctx context.Context) ([]core.Transaction, error) {
	return f.txs, f.err
}

func (f *fakeLedger) Count(ctx context.Context) (int64, error) {
	return int64(len(f.txs)), f.err
}

func testServer(answerer Answerer, ledger Ledger) *Server {
	return NewServer(":0", answerer, ledger, log.New(log.DefaultConfig()))
}

func doRequest(s *Server, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	req.RemoteAddr = "203.0.113.7:1234"
	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, req)
	return rec
}

func TestHandleQuery(t *testing.T) {
	answerer := &fakeAnswerer{}
	s := testServer(answerer, &fakeLedger{})

	body := `{"question": "how much on coffee?", "session_id": "abc", "history": [{"role": "user", "text": "hi"}]}`
	rec := doRequest(s, http.MethodPost, "/api/query", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Answer    string `json:"answer"`
		SessionID string `json:"session_id"`
		QueryID   string `json:"query_id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Answer != "You spent $42.00 on coffee." {
		t.Fatalf("unexpected answer %q", resp.Answer)
	}
	if resp.SessionID != "abc" || resp.QueryID == "" {
		t.Fatalf("unexpected identity: %+v", resp)
	}
	if answerer.lastQuestion != "how much on coffee?" || len(answerer.lastHistory) != 1 {
		t.Fatalf("request not forwarded: %q %v", answerer.lastQuestion, answerer.lastHistory)
	}
}

func TestHandleQueryValidation(t *testing.T) {
	s := testServer(&fakeAnswerer{}, &fakeLedger{})

	cases := []struct {
		method string
		body   string
		want   int
	}{
		{http.MethodGet, "", http.StatusMethodNotAllowed},
		{http.MethodPost, "{not json", http.StatusBadRequest},
		{http.MethodPost, `{"question": "   "}`, http.StatusUnprocessableEntity},
		{http.MethodPost, `{"question": "` + strings.Repeat("x", maxQuestionLen+1) + `"}`, http.StatusUnprocessableEntity},
	}
	for i, tc := range cases {
		rec := doRequest(s, tc.method, "/api/query", tc.body)
		if rec.Code != tc.want {
			t.Fatalf("case %d: expected %d, got %d", i, tc.want, rec.Code)
		}
	}
}

func TestHandleExamples(t *testing.T) {
	s := testServer(&fakeAnswerer{}, &fakeLedger{})
	rec := doRequest(s, http.MethodGet, "/api/examples", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp struct {
		Examples []string `json:"examples"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil || len(resp.Examples) == 0 {
		t.Fatalf("unexpected examples payload: %s (%v)", rec.Body.String(), err)
	}
}

func TestHandlePreview(t *testing.T) {
	txs := make([]core.Transaction, 8)
	for i := range txs {
		txs[i] = core.Transaction{
			ID:          int64(i + 1),
			Date:        time.Date(2024, 1, i+1, 0, 0, 0, 0, time.UTC),
			Description: "tx",
			Category:    "food",
			Amount:      10,
			Merchant:    "m",
		}
	}
	s := testServer(&fakeAnswerer{}, &fakeLedger{txs: txs})

	rec := doRequest(s, http.MethodGet, "/api/preview?limit=3", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp struct {
		Transactions []previewTransaction `json:"transactions"`
		TotalCount   int                  `json:"total_count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Transactions) != 3 || resp.TotalCount != 8 {
		t.Fatalf("unexpected preview: %+v", resp)
	}
	if resp.Transactions[0].Date != "2024-01-01" {
		t.Fatalf("unexpected first row: %+v", resp.Transactions[0])
	}
}

func TestHealthAndReady(t *testing.T) {
	s := testServer(&fakeAnswerer{}, &fakeLedger{})

	if rec := doRequest(s, http.MethodGet, "/healthz", ""); rec.Code != http.StatusOK {
		t.Fatalf("healthz: expected 200, got %d", rec.Code)
	}
	if rec := doRequest(s, http.MethodGet, "/readyz", ""); rec.Code != http.StatusOK {
		t.Fatalf("readyz: expected 200, got %d", rec.Code)
	}
}

func TestRateLimitOnQueries(t *testing.T) {
	s := testServer(&fakeAnswerer{}, &fakeLedger{})
	defer s.rateLimiter.stop()

	var last int
	for i := 0; i < 61; i++ {
		rec := doRequest(s, http.MethodPost, "/api/query", `{"question": "q"}`)
		last = rec.Code
	}
	if last != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after 61 requests, got %d", last)
	}
}
