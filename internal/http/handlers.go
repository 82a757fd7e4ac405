package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"moneyminder/internal/agent"
	"moneyminder/internal/log"
)

const maxQuestionLen = 2000

type queryRequest struct {
	Question  string       `json:"question"`
	SessionID string       `json:"session_id,omitempty"`
	History   []agent.Turn `json:"history,omitempty"`
}

type queryResponse struct {
	agent.Result
	SessionID string `json:"session_id"`
	QueryID   string `json:"query_id"`
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		writeError(w, http.StatusMethodNotAllowed, "use POST")
		return
	}

	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	req.Question = strings.TrimSpace(req.Question)
	if req.Question == "" {
		writeError(w, http.StatusUnprocessableEntity, "question is required")
		return
	}
	if len(req.Question) > maxQuestionLen {
		writeError(w, http.StatusUnprocessableEntity, "question too long")
		return
	}

	qctx := agent.NewQueryContext(req.SessionID)
	result := s.answerer.Answer(r.Context(), qctx, req.Question, req.History)

	writeJSON(w, http.StatusOK, queryResponse{
		Result:    result,
		SessionID: qctx.SessionID,
		QueryID:   qctx.QueryID,
	})
}

// exampleQuestions seed the chat UI.
var exampleQuestions = []string{
	"How much did I spend on food last month?",
	"What are my top merchants this month?",
	"Did my food spending increase from January to February?",
	"Show me my biggest transactions at Amazon",
	"What types of expenditures do I have?",
	"How much did I spend at Target, grouped by category?",
}

func (s *Server) handleExamples(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		writeError(w, http.StatusMethodNotAllowed, "use GET")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"examples": exampleQuestions})
}

type previewTransaction struct {
	Date        string  `json:"date"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Amount      float64 `json:"amount"`
	Merchant    string  `json:"merchant"`
}

// handlePreview returns the first rows of the ledger with the overall count,
// so the UI can show what the assistant is working with.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		writeError(w, http.StatusMethodNotAllowed, "use GET")
		return
	}

	limit := 5
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > 50 {
		limit = 50
	}

	txs, err := s.ledger.GetAll(r.Context())
	if err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Preview load failed", log.FieldError, err.Error())
		writeError(w, http.StatusInternalServerError, "failed to load transactions")
		return
	}

	total := len(txs)
	if len(txs) > limit {
		txs = txs[:limit]
	}
	rows := make([]previewTransaction, 0, len(txs))
	for _, tx := range txs {
		rows = append(rows, previewTransaction{
			Date:        tx.Date.Format(time.DateOnly),
			Description: tx.Description,
			Category:    tx.Category,
			Amount:      tx.Amount,
			Merchant:    tx.Merchant,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"transactions": rows,
		"total_count":  total,
	})
}
