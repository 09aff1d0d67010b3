package model

import (
	"fmt"
	"strings"
	"time"
)

// Knowledge domains. Questions and items are routed by domain before scoring.
const (
	DomainVAT               = "VAT"
	DomainIncomeTax         = "INCOME_TAX"
	DomainCompanyTax        = "COMPANY_TAX"
	DomainPayroll           = "PAYROLL"
	DomainCapitalGainsTax   = "CAPITAL_GAINS_TAX"
	DomainWithholdingTax    = "WITHHOLDING_TAX"
	DomainAccountingGeneral = "ACCOUNTING_GENERAL"
	DomainOther             = "OTHER"
)

// ValidDomains lists every accepted knowledge domain.
var ValidDomains = []string{
	DomainVAT,
	DomainIncomeTax,
	DomainCompanyTax,
	DomainPayroll,
	DomainCapitalGainsTax,
	DomainWithholdingTax,
	DomainAccountingGeneral,
	DomainOther,
}

// IsValidDomain reports whether the given domain is one of the accepted set.
func IsValidDomain(domain string) bool {
	for _, d := range ValidDomains {
		if d == domain {
			return true
		}
	}
	return false
}

// Knowledge layers.
const (
	LayerLegal  = "LEGAL"
	LayerFirm   = "FIRM"
	LayerClient = "CLIENT"
)

// Knowledge scope types.
const (
	ScopeGlobal = "GLOBAL"
	ScopeClient = "CLIENT"
)

// Knowledge item statuses.
const (
	StatusPending  = "PENDING"
	StatusApproved = "APPROVED"
	StatusRejected = "REJECTED"
)

// KnowledgeItem is one versioned entry in the knowledge base.
type KnowledgeItem struct {
	CreatedAt        time.Time
	UpdatedAt        time.Time
	ID               string
	Slug             string
	CitationID       string
	Layer            string
	ScopeType        string
	ScopeClientID    string
	Title            string
	ContentText      string
	Language         string
	Status           string
	PrimaryDomain    string
	SubmittedBy      string
	SourceType       string
	SourceRef        string
	Tags             []string
	SecondaryDomains []string
	KBVersion        int
}

// Validate checks that the knowledge item has all required fields.
func (k *KnowledgeItem) Validate() error {
	if strings.TrimSpace(k.Slug) == "" {
		return fmt.Errorf("knowledge item validation failed: slug is required")
	}
	if strings.TrimSpace(k.Title) == "" {
		return fmt.Errorf("knowledge item validation failed: title is required")
	}
	if strings.TrimSpace(k.ContentText) == "" {
		return fmt.Errorf("knowledge item validation failed: content is required")
	}
	switch k.Layer {
	case LayerLegal, LayerFirm, LayerClient:
	default:
		return fmt.Errorf("knowledge item validation failed: invalid layer %q", k.Layer)
	}
	if k.Layer == LayerClient && strings.TrimSpace(k.ScopeClientID) == "" {
		return fmt.Errorf("knowledge item validation failed: CLIENT layer requires a client ID")
	}
	if !IsValidDomain(k.PrimaryDomain) {
		return fmt.Errorf("knowledge item validation failed: invalid domain %q", k.PrimaryDomain)
	}
	if k.KBVersion < 1 {
		return fmt.Errorf("knowledge item validation failed: version must be at least 1, got %d", k.KBVersion)
	}
	return nil
}
