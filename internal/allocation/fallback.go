package allocation

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/lorenco/sean/internal/common"
	"github.com/lorenco/sean/internal/model"
	"github.com/lorenco/sean/internal/normalize"
	"github.com/lorenco/sean/internal/service"
)

// llmJSONPattern extracts the first JSON object containing a category key
// from a completion, tolerating surrounding prose.
var llmJSONPattern = regexp.MustCompile(`(?s)\{.*?"category".*?\}`)

// LLMAllocation is a category decision made by (or previously cached from)
// an external model.
type LLMAllocation struct {
	Category      string
	CategoryLabel string
	Reasoning     string
	Provider      string
	Confidence    float64
	Cached        bool
}

// Fallback asks an LLM to categorize descriptions no rule or keyword could
// handle. Results are cached permanently by normalized pattern so each
// unique pattern costs at most one API call.
type Fallback struct {
	storage service.Storage
	client  service.CompletionClient
	logger  *slog.Logger
}

func NewFallback(storage service.Storage, client service.CompletionClient, logger *slog.Logger) *Fallback {
	if logger == nil {
		logger = slog.Default()
	}
	return &Fallback{storage: storage, client: client, logger: logger}
}

// Allocate returns an LLM category decision for a description, or nil when
// the provider is unavailable, returns garbage, or names an unknown
// category. A nil result is not an error; callers fall back to OTHER.
func (f *Fallback) Allocate(ctx context.Context, description string) *LLMAllocation {
	normalized := normalize.Description(description)

	cached, err := f.storage.GetLLMCacheEntry(ctx, normalized)
	if err != nil {
		f.logger.Warn("LLM cache lookup failed", "pattern", normalized, "error", err)
	}
	if cached != nil {
		if err := f.storage.IncrementLLMCacheUse(ctx, cached.ID); err != nil {
			f.logger.Warn("failed to increment LLM cache use", "id", cached.ID, "error", err)
		}
		return &LLMAllocation{
			Category:      cached.Category,
			CategoryLabel: CategoryLabel(cached.Category),
			Confidence:    cached.Confidence,
			Reasoning:     cached.Reasoning,
			Provider:      cached.Provider,
			Cached:        true,
		}
	}

	if f.client == nil {
		return nil
	}

	var response string
	err = common.WithRetry(ctx, func() error {
		var completeErr error
		response, completeErr = f.client.Complete(ctx, service.CompletionRequest{
			UserPrompt: buildAllocationPrompt(description),
			MaxTokens:  500,
		})
		return completeErr
	}, service.RetryOptions{MaxAttempts: 2})
	if err != nil {
		f.logger.Warn("LLM allocation request failed", "provider", f.client.Name(), "error", err)
		return nil
	}

	allocation := parseAllocationResponse(response)
	if allocation == nil {
		f.logger.Warn("LLM allocation response unparseable", "provider", f.client.Name())
		return nil
	}
	allocation.Provider = f.client.Name()

	entry := &model.LLMCacheEntry{
		ID:                uuid.New().String(),
		NormalizedPattern: normalized,
		Category:          allocation.Category,
		Confidence:        allocation.Confidence,
		Reasoning:         allocation.Reasoning,
		Provider:          allocation.Provider,
		UsedCount:         1,
	}
	if err := f.storage.SaveLLMCacheEntry(ctx, entry); err != nil {
		f.logger.Warn("failed to cache LLM allocation", "pattern", normalized, "error", err)
	}

	f.audit(ctx, normalized, allocation)

	return allocation
}

func (f *Fallback) audit(ctx context.Context, pattern string, allocation *LLMAllocation) {
	details, _ := json.Marshal(map[string]any{
		"pattern":    pattern,
		"category":   allocation.Category,
		"confidence": allocation.Confidence,
		"provider":   allocation.Provider,
	})
	err := f.storage.RecordAudit(ctx, &model.AuditEntry{
		ActionType: model.AuditLLMAllocation,
		EntityType: "llm_cache",
		EntityID:   pattern,
		UserID:     "system",
		Details:    string(details),
	})
	if err != nil {
		f.logger.Warn("failed to record audit entry", "action", model.AuditLLMAllocation, "error", err)
	}
}

// buildAllocationPrompt lists every category code so the model can only
// answer in vocabulary we accept.
func buildAllocationPrompt(description string) string {
	var sb strings.Builder
	sb.WriteString("You are a South African accounting assistant. Categorize this bank transaction into one of the following accounting categories.\n\n")
	sb.WriteString("Transaction description: \"")
	sb.WriteString(description)
	sb.WriteString("\"\n\nAvailable categories:\n")
	for _, cat := range Categories {
		fmt.Fprintf(&sb, "- %s: %s\n", cat.Code, cat.Label)
	}
	sb.WriteString("\nRespond with ONLY a JSON object in exactly this format:\n")
	sb.WriteString(`{"category": "CATEGORY_CODE", "confidence": 0.8, "reasoning": "Brief explanation"}`)
	sb.WriteString("\n\nIf truly uncertain, use \"OTHER\" with lower confidence.")
	return sb.String()
}

// parseAllocationResponse pulls the JSON decision out of a completion.
// Confidence is clamped to [0.1, 0.95]; a missing confidence becomes 0.5.
func parseAllocationResponse(response string) *LLMAllocation {
	match := llmJSONPattern.FindString(response)
	if match == "" {
		return nil
	}

	var parsed struct {
		Category   string  `json:"category"`
		Confidence float64 `json:"confidence"`
		Reasoning  string  `json:"reasoning"`
	}
	if err := json.Unmarshal([]byte(match), &parsed); err != nil {
		return nil
	}

	category := FindCategory(parsed.Category)
	if category == nil {
		return nil
	}

	confidence := parsed.Confidence
	if confidence == 0 {
		confidence = 0.5
	}
	if confidence < 0.1 {
		confidence = 0.1
	}
	if confidence > 0.95 {
		confidence = 0.95
	}

	return &LLMAllocation{
		Category:      category.Code,
		CategoryLabel: category.Label,
		Confidence:    confidence,
		Reasoning:     parsed.Reasoning,
	}
}
