package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"moneyminder/internal/core"
)

// TransactionMessage carries one ledger transaction through the ingest queue.
type TransactionMessage struct {
	Date        string    `json:"date"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Amount      float64   `json:"amount"`
	Merchant    string    `json:"merchant"`
	Timestamp   time.Time `json:"timestamp"`
}

// NewTransactionMessage wraps a transaction for publishing.
func NewTransactionMessage(tx core.Transaction) *TransactionMessage {
	return &TransactionMessage{
		Date:        tx.Date.Format("2006-01-02"),
		Description: tx.Description,
		Category:    tx.Category,
		Amount:      tx.Amount,
		Merchant:    tx.Merchant,
		Timestamp:   time.Now(),
	}
}

// ToTransaction parses and validates the message into a domain transaction.
func (m *TransactionMessage) ToTransaction() (core.Transaction, error) {
	date, err := core.ParseDate(m.Date)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("message date %q: %w", m.Date, err)
	}
	tx := core.Transaction{
		Date:        date,
		Description: m.Description,
		Category:    m.Category,
		Amount:      m.Amount,
		Merchant:    m.Merchant,
	}
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, fmt.Errorf("message transaction: %w", err)
	}
	return tx, nil
}

// ToJSON converts the message to JSON bytes
func (m *TransactionMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// TransactionMessageFromJSON creates a message from JSON bytes
func TransactionMessageFromJSON(data []byte) (*TransactionMessage, error) {
	var msg TransactionMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
