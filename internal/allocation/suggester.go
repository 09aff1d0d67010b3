package allocation

import (
	"context"
	"fmt"
	"strings"

	"github.com/lorenco/sean/internal/model"
	"github.com/lorenco/sean/internal/normalize"
	"github.com/lorenco/sean/internal/service"
)

// Match types reported on suggestions, from strongest to weakest.
const (
	MatchExact         = "exact"
	MatchLearned       = "learned"
	MatchKeyword       = "keyword"
	MatchClientKeyword = "client_keyword"
	MatchLLM           = "llm"
	MatchNone          = "none"
)

// Alternative is a lower-ranked category candidate.
type Alternative struct {
	Category   string
	Label      string
	Confidence float64
}

// Suggestion is the outcome of a category lookup for one transaction
// description.
type Suggestion struct {
	Category      string
	CategoryLabel string
	RuleID        string
	MatchType     string
	Alternatives  []Alternative
	Confidence    float64
}

// Suggester resolves transaction descriptions to categories by walking a
// fixed precedence: client rules, client custom category keywords, global
// learned rules, fuzzy rule matching, then predefined keywords.
type Suggester struct {
	storage service.Storage
}

func NewSuggester(storage service.Storage) *Suggester {
	return &Suggester{storage: storage}
}

// Suggest returns the best category match for a description. It never
// returns a nil suggestion on success; a MatchNone result carries zero
// confidence.
func (s *Suggester) Suggest(ctx context.Context, description, clientID string) (*Suggestion, error) {
	normalized := normalize.Description(description)
	keywords := normalize.Keywords(description)
	descLower := strings.ToLower(description)

	if clientID != "" {
		suggestion, err := s.suggestForClient(ctx, normalized, descLower, clientID)
		if err != nil {
			return nil, err
		}
		if suggestion != nil {
			return suggestion, nil
		}
	}

	rule, err := s.storage.FindRule(ctx, normalized, clientID)
	if err != nil {
		return nil, fmt.Errorf("failed to find exact rule: %w", err)
	}
	if rule != nil {
		return &Suggestion{
			Category:      rule.Category,
			CategoryLabel: CategoryLabel(rule.Category),
			Confidence:    capConfidence(rule.Confidence),
			RuleID:        rule.ID,
			MatchType:     MatchExact,
		}, nil
	}

	suggestion, err := s.suggestFuzzy(ctx, keywords, clientID)
	if err != nil {
		return nil, err
	}
	if suggestion != nil {
		return suggestion, nil
	}

	if suggestion := suggestByKeywords(descLower); suggestion != nil {
		return suggestion, nil
	}

	return &Suggestion{MatchType: MatchNone}, nil
}

// suggestForClient checks the client's own learned rules and custom
// category keywords. Returns nil when neither matches.
func (s *Suggester) suggestForClient(ctx context.Context, normalized, descLower, clientID string) (*Suggestion, error) {
	rule, err := s.storage.FindClientRule(ctx, normalized, clientID)
	if err != nil {
		return nil, fmt.Errorf("failed to find client rule: %w", err)
	}
	if rule != nil {
		return &Suggestion{
			Category:      rule.Category,
			CategoryLabel: s.clientCategoryLabel(ctx, clientID, rule.Category),
			Confidence:    capConfidence(rule.Confidence),
			RuleID:        rule.ID,
			MatchType:     MatchExact,
		}, nil
	}

	categories, err := s.storage.GetClientCategories(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("failed to get client categories: %w", err)
	}
	for _, cat := range categories {
		for _, kw := range cat.Keywords {
			if kw != "" && strings.Contains(descLower, strings.ToLower(kw)) {
				return &Suggestion{
					Category:      cat.Code,
					CategoryLabel: cat.Label,
					Confidence:    0.85,
					MatchType:     MatchClientKeyword,
				}, nil
			}
		}
	}

	return nil, nil
}

// suggestFuzzy scores learned rules by word overlap between the
// description and each rule's pattern. Only clear winners are used.
func (s *Suggester) suggestFuzzy(ctx context.Context, keywords []string, clientID string) (*Suggestion, error) {
	if len(keywords) == 0 {
		return nil, nil
	}

	rules, err := s.storage.GetRulesInScope(ctx, clientID, 500)
	if err != nil {
		return nil, fmt.Errorf("failed to get rules in scope: %w", err)
	}

	var best *model.AllocationRule
	bestScore := 0.0
	for i := range rules {
		score := overlapScore(keywords, rules[i].NormalizedPattern)
		if score > bestScore && score > 0.4 {
			best = &rules[i]
			bestScore = score
		}
	}

	if best == nil || bestScore <= 0.6 {
		return nil, nil
	}

	return &Suggestion{
		Category:      best.Category,
		CategoryLabel: CategoryLabel(best.Category),
		Confidence:    bestScore * best.Confidence,
		RuleID:        best.ID,
		MatchType:     MatchLearned,
	}, nil
}

// overlapScore measures partial word overlap between a description's
// keywords and a rule pattern, scaled by the larger word set.
func overlapScore(keywords []string, pattern string) float64 {
	ruleWords := make([]string, 0, 4)
	for _, word := range strings.Fields(pattern) {
		if len(word) > 2 {
			ruleWords = append(ruleWords, word)
		}
	}
	if len(ruleWords) == 0 {
		return 0
	}

	overlap := 0
	for _, kw := range keywords {
		for _, rw := range ruleWords {
			if strings.Contains(rw, kw) || strings.Contains(kw, rw) {
				overlap++
				break
			}
		}
	}

	denom := len(keywords)
	if len(ruleWords) > denom {
		denom = len(ruleWords)
	}
	return float64(overlap) / float64(denom)
}

// suggestByKeywords scores the predefined categories against the raw
// description. Longer keyword hits score higher. Returns nil when nothing
// matches.
func suggestByKeywords(descLower string) *Suggestion {
	type scored struct {
		category *model.Category
		score    int
	}
	matches := make([]scored, 0, 4)

	for i := range Categories {
		score := 0
		for _, kw := range Categories[i].Keywords {
			if strings.Contains(descLower, kw) {
				score += len(kw)
			}
		}
		if score > 0 {
			matches = append(matches, scored{category: &Categories[i], score: score})
		}
	}

	if len(matches) == 0 {
		return nil
	}

	for i := 1; i < len(matches); i++ {
		for j := i; j > 0 && matches[j].score > matches[j-1].score; j-- {
			matches[j], matches[j-1] = matches[j-1], matches[j]
		}
	}

	best := matches[0]
	confidence := float64(best.score) / float64(maxKeywordScore)
	if confidence > 0.85 {
		confidence = 0.85
	}

	suggestion := &Suggestion{
		Category:      best.category.Code,
		CategoryLabel: best.category.Label,
		Confidence:    confidence,
		MatchType:     MatchKeyword,
	}
	for _, alt := range matches[1:] {
		if len(suggestion.Alternatives) == 3 {
			break
		}
		altConfidence := float64(alt.score) / float64(maxKeywordScore)
		if altConfidence > 0.7 {
			altConfidence = 0.7
		}
		suggestion.Alternatives = append(suggestion.Alternatives, Alternative{
			Category:   alt.category.Code,
			Label:      alt.category.Label,
			Confidence: altConfidence,
		})
	}

	return suggestion
}

// clientCategoryLabel prefers the client's custom label for a code when
// one exists.
func (s *Suggester) clientCategoryLabel(ctx context.Context, clientID, code string) string {
	categories, err := s.storage.GetClientCategories(ctx, clientID)
	if err == nil {
		for _, cat := range categories {
			if cat.Code == code {
				return cat.Label
			}
		}
	}
	return CategoryLabel(code)
}

// capConfidence keeps learned-rule confidence just below certainty so a
// confirmed human decision always outranks it.
func capConfidence(confidence float64) float64 {
	if confidence > 0.99 {
		return 0.99
	}
	return confidence
}
