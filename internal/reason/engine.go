// Package reason answers questions deterministically from the approved
// knowledge base: infer the domain and topic, filter candidate items,
// score them, and answer with an exact citation. No LLM is involved.
package reason

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"github.com/lorenco/sean/internal/kb"
	"github.com/lorenco/sean/internal/model"
	"github.com/lorenco/sean/internal/service"
)

// Question topics, inferred from wording.
const (
	TopicThreshold   = "THRESHOLD"
	TopicRebate      = "REBATE"
	TopicBracketRate = "BRACKET_RATE"
	TopicGeneral     = "GENERAL"
)

// Suggested follow-up action types.
const (
	ActionSuggestTeach = "SUGGEST_KB_TEACH"
	ActionRequestInfo  = "REQUEST_INFO"
	ActionFlagRisk     = "FLAG_RISK"
)

// NoKnowledgeAnswer is returned when nothing in the knowledge base matches.
const NoKnowledgeAnswer = "I don't have knowledge about that specific question yet. " +
	"Could you teach me using TEACH: with the relevant information?"

// domainKeywords routes questions to a knowledge domain. First hit wins,
// in declaration order.
var domainKeywords = []struct {
	domain   string
	keywords []string
}{
	{model.DomainVAT, []string{"vat", "value added", "input tax", "output tax"}},
	{model.DomainIncomeTax, []string{"income tax", "taxable income", "personal tax", "salary tax"}},
	{model.DomainCompanyTax, []string{"company tax", "corporate tax", "business tax", "profit tax"}},
	{model.DomainPayroll, []string{"payroll", "salary", "wage", "employee tax", "paye"}},
	{model.DomainCapitalGainsTax, []string{"cgt", "capital gains", "investment income", "property sale"}},
	{model.DomainWithholdingTax, []string{"withholding", "dividend tax", "interest tax"}},
}

var (
	numberPattern   = regexp.MustCompile(`\d+`)
	yearRefPattern  = regexp.MustCompile(`(?i)\d{4}|current|year`)
	qualifierWords  = []string{"rebate", "threshold", "rate", "limit", "allowance"}
	agePatterns     = []*regexp.Regexp{
		regexp.MustCompile(`\b(\d+)\+\b`),
		regexp.MustCompile(`aged\s+(\d+)`),
		regexp.MustCompile(`(\d+)\s+years?`),
		regexp.MustCompile(`under\s+(\d+)`),
		regexp.MustCompile(`(\d+)\s+to\s+(\d+)`),
		regexp.MustCompile(`(\d+)\s+and\s+older`),
		regexp.MustCompile(`(\d+)\s+and\s+above`),
	}
)

// Action is a suggested follow-up attached to an answer.
type Action struct {
	Type       string
	Detail     string
	Confidence float64
}

// Result is a knowledge-base answer with its provenance.
type Result struct {
	Answer         string
	InferredDomain string
	InferredTopic  string
	Citations      []string
	Actions        []Action
	MatchCount     int
	HasRelevantKB  bool
}

// qualifiers are the numeric and phrasal constraints extracted from a
// question, used to reject items that answer a different variant.
type qualifiers struct {
	numbers []string
	ages    []string
	phrases []string
}

func (q qualifiers) empty() bool {
	return len(q.numbers) == 0 && len(q.ages) == 0 && len(q.phrases) == 0
}

// Engine answers questions from approved knowledge items.
type Engine struct {
	storage service.Storage
	logger  *slog.Logger
}

func NewEngine(storage service.Storage, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{storage: storage, logger: logger}
}

// Answer resolves a question against the approved knowledge base in the
// caller's scope. A non-empty layer restricts candidates to that layer.
// A citation is attached only when exactly one item matched; ambiguous
// answers ask for clarification instead.
func (e *Engine) Answer(ctx context.Context, userID, clientID, layer, question string) (*Result, error) {
	domain := InferDomain(question)
	topic := InferTopic(question)
	quals := extractQualifiers(question)

	items, err := e.storage.GetApprovedItems(ctx, clientID, layer)
	if err != nil {
		return nil, fmt.Errorf("failed to load approved knowledge: %w", err)
	}

	matched := make([]model.KnowledgeItem, 0, len(items))
	for _, item := range items {
		if itemMatchesQualifiers(item, quals) &&
			itemMatchesDomain(item, domain) &&
			itemMatchesTopic(item, topic, question) {
			matched = append(matched, item)
		}
	}

	// Numeric questions often only differ from stored items in phrasing.
	// When the strict pass finds nothing, retry keyed on the question's
	// leading word alone.
	if len(matched) == 0 && len(quals.numbers) > 0 {
		matched = relaxedMatch(items, question, domain, topic)
	}

	type scoredItem struct {
		item  model.KnowledgeItem
		score int
	}
	scored := make([]scoredItem, 0, len(matched))
	for _, item := range matched {
		if score := scoreItem(item, question); score > 0 {
			scored = append(scored, scoredItem{item: item, score: score})
		}
	}
	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].score != scored[j].score {
			return scored[i].score > scored[j].score
		}
		return kb.CitationVersion(scored[i].item.CitationID) > kb.CitationVersion(scored[j].item.CitationID)
	})
	if len(scored) > 3 {
		scored = scored[:3]
	}

	result := &Result{
		InferredDomain: domain,
		InferredTopic:  topic,
		MatchCount:     len(scored),
		HasRelevantKB:  len(scored) > 0,
	}

	switch {
	case len(scored) == 0:
		result.Answer = NoKnowledgeAnswer
		result.Actions = append(result.Actions, Action{
			Type:       ActionSuggestTeach,
			Detail:     "No knowledge base entry covers this question",
			Confidence: 0.9,
		})
	default:
		best := scored[0].item
		result.Answer = fmt.Sprintf("%s [%s]", best.ContentText, best.CitationID)
		if len(scored) == 1 {
			result.Citations = []string{best.CitationID}
		}
		if len(scored) > 1 {
			result.Actions = append(result.Actions, Action{
				Type:       ActionRequestInfo,
				Detail:     "Multiple knowledge base entries match, please narrow the question",
				Confidence: 0.6,
			})
		}
		if len(scored) == 1 && (topic == TopicThreshold || topic == TopicRebate) && !yearRefPattern.MatchString(question) {
			result.Actions = append(result.Actions, Action{
				Type:       ActionFlagRisk,
				Detail:     "Missing year reference",
				Confidence: 0.5,
			})
		}
	}

	e.audit(ctx, userID, question, result)

	return result, nil
}

// InferDomain maps a question to a knowledge domain by keyword, falling
// back to OTHER.
func InferDomain(question string) string {
	lower := strings.ToLower(question)
	for _, entry := range domainKeywords {
		for _, kw := range entry.keywords {
			if strings.Contains(lower, kw) {
				return entry.domain
			}
		}
	}
	return model.DomainOther
}

// InferTopic classifies what kind of figure a question asks for.
func InferTopic(question string) string {
	lower := strings.ToLower(question)
	switch {
	case strings.Contains(lower, "threshold"):
		return TopicThreshold
	case strings.Contains(lower, "rebate"):
		return TopicRebate
	case strings.Contains(lower, "bracket"), strings.Contains(lower, "rate"), strings.Contains(lower, "marginal"):
		return TopicBracketRate
	default:
		return TopicGeneral
	}
}

func extractQualifiers(question string) qualifiers {
	lower := strings.ToLower(question)

	var quals qualifiers
	seen := make(map[string]bool)
	for _, num := range numberPattern.FindAllString(lower, -1) {
		if !seen[num] {
			seen[num] = true
			quals.numbers = append(quals.numbers, num)
		}
	}

	for _, pattern := range agePatterns {
		for _, match := range pattern.FindAllStringSubmatch(lower, -1) {
			value := match[0]
			if len(match) > 1 && match[1] != "" {
				value = match[1]
			}
			quals.ages = append(quals.ages, value)
		}
	}

	for _, phrase := range qualifierWords {
		if strings.Contains(lower, phrase) {
			quals.phrases = append(quals.phrases, phrase)
		}
	}

	return quals
}

// itemMatchesQualifiers accepts an item when any extracted number, age or
// phrase from the question appears in its text. A question with no
// qualifiers accepts everything.
func itemMatchesQualifiers(item model.KnowledgeItem, quals qualifiers) bool {
	if quals.empty() {
		return true
	}
	combined := strings.ToLower(item.Title + " " + item.ContentText)
	for _, num := range quals.numbers {
		if strings.Contains(combined, num) {
			return true
		}
	}
	for _, age := range quals.ages {
		if strings.Contains(combined, age) {
			return true
		}
	}
	for _, phrase := range quals.phrases {
		if strings.Contains(combined, phrase) {
			return true
		}
	}
	return false
}

// itemMatchesDomain accepts items in the inferred domain or its secondary
// domains. Items filed under OTHER still match when their text names the
// inferred domain, which rescues early entries that predate domain tagging.
func itemMatchesDomain(item model.KnowledgeItem, inferred string) bool {
	if inferred == model.DomainOther {
		return true
	}
	if item.PrimaryDomain == inferred {
		return true
	}
	for _, secondary := range item.SecondaryDomains {
		if secondary == inferred {
			return true
		}
	}
	if item.PrimaryDomain == model.DomainOther {
		combined := strings.ToLower(item.Title + " " + item.ContentText)
		inferredLower := strings.ToLower(inferred)
		if strings.Contains(combined, "domain: "+inferredLower) || strings.Contains(combined, inferredLower) {
			return true
		}
	}
	return false
}

// itemMatchesTopic keeps only items that speak to the asked-for figure. A
// threshold question must not be answered by a rebate item unless the
// question mentioned rebates too.
func itemMatchesTopic(item model.KnowledgeItem, topic, question string) bool {
	combined := strings.ToLower(item.Title + " " + item.ContentText)
	questionLower := strings.ToLower(question)

	switch topic {
	case TopicThreshold:
		if !strings.Contains(combined, "threshold") {
			return false
		}
		if strings.Contains(combined, "rebate") && !strings.Contains(questionLower, "rebate") {
			return false
		}
		return true
	case TopicRebate:
		return strings.Contains(combined, "rebate")
	case TopicBracketRate:
		return strings.Contains(combined, "rate") ||
			strings.Contains(combined, "bracket") ||
			strings.Contains(combined, "marginal")
	default:
		return true
	}
}

func relaxedMatch(items []model.KnowledgeItem, question, domain, topic string) []model.KnowledgeItem {
	words := strings.Fields(strings.ToLower(question))
	if len(words) == 0 {
		return nil
	}
	first := strings.Trim(words[0], "?,.!:;\"'")
	if first == "" {
		return nil
	}

	matched := make([]model.KnowledgeItem, 0, 4)
	for _, item := range items {
		combined := strings.ToLower(item.Title + " " + item.ContentText)
		if strings.Contains(combined, first) &&
			itemMatchesDomain(item, domain) &&
			itemMatchesTopic(item, topic, question) {
			matched = append(matched, item)
		}
	}
	return matched
}

// scoreItem weighs title hits far above content hits so specific entries
// beat long general ones.
func scoreItem(item model.KnowledgeItem, question string) int {
	titleLower := strings.ToLower(item.Title)
	contentLower := strings.ToLower(item.ContentText)

	score := 0
	for _, word := range strings.Fields(strings.ToLower(question)) {
		word = strings.Trim(word, "?,.!:;\"'")
		if len(word) <= 3 {
			continue
		}
		if strings.Contains(titleLower, word) {
			score += 10
		}
		if strings.Contains(contentLower, word) {
			score++
		}
	}
	return score
}

func (e *Engine) audit(ctx context.Context, userID, question string, result *Result) {
	details, _ := json.Marshal(map[string]any{
		"question":   question,
		"domain":     result.InferredDomain,
		"topic":      result.InferredTopic,
		"matchCount": result.MatchCount,
		"citations":  result.Citations,
	})
	err := e.storage.RecordAudit(ctx, &model.AuditEntry{
		ActionType: model.AuditReasonQuery,
		EntityType: "knowledge_query",
		EntityID:   "",
		UserID:     userID,
		Details:    string(details),
	})
	if err != nil {
		e.logger.Warn("failed to record audit entry", "action", model.AuditReasonQuery, "error", err)
	}
}
