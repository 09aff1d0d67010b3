// Package model defines the core data structures shared across the sean application.
package model

import (
	"fmt"
	"strings"
	"time"
)

// Category is a predefined allocation category with its keyword list.
type Category struct {
	Code     string
	Label    string
	Keywords []string
}

// ClientCategory is a client-specific category that extends the predefined set.
type ClientCategory struct {
	CreatedAt time.Time
	UpdatedAt time.Time
	ID        string
	ClientID  string
	Code      string
	Label     string
	Keywords  []string
	IsActive  bool
}

// Validate checks that the client category has all required fields.
func (c *ClientCategory) Validate() error {
	if strings.TrimSpace(c.ClientID) == "" {
		return fmt.Errorf("client category validation failed: client ID is required")
	}
	if strings.TrimSpace(c.Code) == "" {
		return fmt.Errorf("client category validation failed: code is required")
	}
	if strings.TrimSpace(c.Label) == "" {
		return fmt.Errorf("client category validation failed: label is required")
	}
	return nil
}
