package bootstrap

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/lorenco/sean/internal/common"
	"github.com/lorenco/sean/internal/kb"
	"github.com/lorenco/sean/internal/model"
	"github.com/lorenco/sean/internal/service"
)

// Answer sources.
const (
	SourceCache = "cache"
	SourceKB    = "kb"
	SourceLLM   = "llm"
)

// Fallback answers when no knowledge matches and the LLM cannot help.
const (
	NotConfiguredAnswer = "I don't have knowledge about that yet, and external AI is not configured. " +
		"Please teach me using TEACH: prefix."
	unavailableAnswer = "I don't have knowledge about that yet, and I couldn't reach external AI right now. " +
		"Please try again later, or teach me using TEACH: prefix."
)

const systemPrompt = "You are Sean AI, a South African accounting and tax assistant for Lorenco Accounting. " +
	"Answer questions accurately and concisely for a professional accounting audience, focusing on " +
	"South African tax law and SARS practice. When amounts, rates or thresholds depend on the tax year, " +
	"state which year they apply to."

// Result is a bootstrap answer and where it came from.
type Result struct {
	Answer     string
	Source     string
	CitationID string
	Provider   string
	Stored     bool
}

// Engine resolves questions cache-first, then by knowledge base keyword
// match, then by a single LLM call whose answer is stored for next time.
type Engine struct {
	storage service.Storage
	client  service.CompletionClient
	logger  *slog.Logger
}

// NewEngine creates a bootstrap engine. A nil client disables the LLM
// step; cached and keyword answers still work.
func NewEngine(storage service.Storage, client service.CompletionClient, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{storage: storage, client: client, logger: logger}
}

// Answer resolves a question, consulting the LLM at most once per unique
// normalized query ever. A non-empty domain overrides the inferred one.
func (e *Engine) Answer(ctx context.Context, userID, question, domain string) (*Result, error) {
	hash := HashQuery(NormalizeQuery(question))

	cached, err := e.storage.FindApprovedBySlugFragment(ctx, strings.ToLower(hash))
	if err != nil {
		return nil, fmt.Errorf("failed to look up cached answer: %w", err)
	}
	if cached != nil {
		return &Result{
			Answer:     cached.ContentText,
			Source:     SourceCache,
			CitationID: cached.CitationID,
		}, nil
	}

	if result, err := e.answerFromKnowledge(ctx, question, domain); err != nil {
		return nil, err
	} else if result != nil {
		return result, nil
	}

	if e.client == nil {
		return &Result{Answer: NotConfiguredAnswer, Source: SourceKB}, nil
	}

	var answer string
	err = common.WithRetry(ctx, func() error {
		var completeErr error
		answer, completeErr = e.client.Complete(ctx, service.CompletionRequest{
			SystemPrompt: systemPrompt,
			UserPrompt:   question,
			MaxTokens:    1500,
		})
		return completeErr
	}, service.RetryOptions{MaxAttempts: 2})
	if err != nil {
		e.logger.Warn("bootstrap LLM request failed", "provider", e.client.Name(), "error", err)
		return &Result{Answer: unavailableAnswer, Source: SourceKB}, nil
	}

	item := e.storeAnswer(ctx, userID, question, answer, hash, domain)

	result := &Result{
		Answer:   answer,
		Source:   SourceLLM,
		Provider: e.client.Name(),
	}
	if item != nil {
		result.CitationID = item.CitationID
		result.Stored = true
	}
	return result, nil
}

// answerFromKnowledge scores approved items in the question's domain by
// the fraction of question keywords they contain. Only strong matches
// answer.
func (e *Engine) answerFromKnowledge(ctx context.Context, question, domain string) (*Result, error) {
	if domain == "" {
		domain = InferDomain(question)
	}
	items, err := e.storage.GetApprovedByDomains(ctx, []string{domain, model.DomainOther}, 200)
	if err != nil {
		return nil, fmt.Errorf("failed to load approved knowledge: %w", err)
	}

	keywords := make([]string, 0, 8)
	for _, word := range strings.Fields(strings.ToLower(question)) {
		word = strings.Trim(word, "?,.!:;\"'")
		if len(word) > 3 {
			keywords = append(keywords, word)
		}
	}
	if len(keywords) == 0 {
		return nil, nil
	}

	var best *model.KnowledgeItem
	bestScore := 0.0
	for i := range items {
		combined := strings.ToLower(items[i].Title + " " + items[i].ContentText)
		matches := 0
		for _, kw := range keywords {
			if strings.Contains(combined, kw) {
				matches++
			}
		}
		score := float64(matches) / float64(len(keywords))
		if score > bestScore && score >= 0.5 {
			best = &items[i]
			bestScore = score
		}
	}

	if best == nil || bestScore < 0.6 {
		return nil, nil
	}

	return &Result{
		Answer:     best.ContentText,
		Source:     SourceKB,
		CitationID: best.CitationID,
	}, nil
}

// storeAnswer persists an LLM answer as an auto-approved firm-level item
// keyed on the query hash. Failures are logged, not fatal; the caller
// still has the answer.
func (e *Engine) storeAnswer(ctx context.Context, userID, question, answer, hash, domain string) *model.KnowledgeItem {
	title := question
	if len(title) > 80 {
		title = title[:80] + "..."
	}
	if domain == "" {
		domain = InferDomain(question)
	}

	slug := kb.GenerateSlug("bootstrap-" + hash)
	item := &model.KnowledgeItem{
		ID:            uuid.New().String(),
		Slug:          slug,
		CitationID:    kb.CitationID(model.LayerFirm, slug, 1),
		Layer:         model.LayerFirm,
		ScopeType:     model.ScopeGlobal,
		Title:         "Bootstrap: " + title,
		ContentText:   answer,
		Language:      "EN",
		Status:        model.StatusApproved,
		PrimaryDomain: domain,
		SubmittedBy:   userID,
		SourceType:    "llm-bootstrap",
		Tags:          []string{"bootstrap", "auto-generated", strings.ToLower(e.client.Name())},
		KBVersion:     1,
	}

	if err := e.storage.CreateKnowledgeItem(ctx, item); err != nil {
		e.logger.Warn("failed to store bootstrap answer", "slug", slug, "error", err)
		return nil
	}

	details, _ := json.Marshal(map[string]any{
		"question": question,
		"hash":     hash,
		"provider": e.client.Name(),
		"slug":     slug,
	})
	err := e.storage.RecordAudit(ctx, &model.AuditEntry{
		ActionType: model.AuditLLMBootstrap,
		EntityType: "knowledge_item",
		EntityID:   item.ID,
		UserID:     userID,
		Details:    string(details),
	})
	if err != nil {
		e.logger.Warn("failed to record audit entry", "action", model.AuditLLMBootstrap, "error", err)
	}

	return item
}
