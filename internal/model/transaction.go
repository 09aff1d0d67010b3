package model

import (
	"crypto/sha256"
	"fmt"
	"strings"
	"time"
)

// BankTransaction is a single imported bank statement line.
type BankTransaction struct {
	Date                time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
	ID                  string
	UserID              string
	ClientID            string // Empty when the transaction is not tied to a client
	RawDescription      string
	Description         string // Cleaned display form of RawDescription
	NormalizedPattern   string
	Hash                string
	SuggestedCategory   string
	ConfirmedCategory   string
	ConfirmedByUserID   string
	Feedback            string
	Amount              float64
	SuggestedConfidence float64
	IsDebit             bool
	Processed           bool
	LLMUsed             bool
}

// GenerateHash creates a stable hash for duplicate detection on import.
func (t *BankTransaction) GenerateHash() string {
	data := fmt.Sprintf("%s:%s:%s:%.2f",
		t.UserID,
		t.Date.Format("2006-01-02"),
		t.RawDescription,
		t.Amount)
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash)
}

// Validate checks that the transaction has all required fields.
func (t *BankTransaction) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return fmt.Errorf("transaction validation failed: missing ID")
	}
	if strings.TrimSpace(t.UserID) == "" {
		return fmt.Errorf("transaction validation failed: missing user ID")
	}
	if t.Date.IsZero() {
		return fmt.Errorf("transaction validation failed: missing date")
	}
	if strings.TrimSpace(t.RawDescription) == "" {
		return fmt.Errorf("transaction validation failed: missing description")
	}
	return nil
}
