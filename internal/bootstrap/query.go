// Package bootstrap answers questions the knowledge base cannot, by
// asking an LLM once and persisting the answer as an approved knowledge
// item keyed on a stable query hash. Repeat questions are then served
// from the knowledge base without another API call.
package bootstrap

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/lorenco/sean/internal/model"
)

var (
	queryPunctuation = regexp.MustCompile(`[^\w\s]`)
	queryWhitespace  = regexp.MustCompile(`\s+`)
)

// queryStopWords are dropped before hashing so differently phrased
// versions of the same question collapse to one hash.
var queryStopWords = map[string]bool{
	"the": true, "a": true, "an": true, "is": true, "are": true, "was": true,
	"were": true, "be": true, "been": true, "being": true, "have": true,
	"has": true, "had": true, "do": true, "does": true, "did": true,
	"will": true, "would": true, "could": true, "should": true, "may": true,
	"might": true, "must": true, "shall": true, "can": true, "need": true,
	"dare": true, "ought": true, "used": true, "to": true, "of": true,
	"in": true, "for": true, "on": true, "with": true, "at": true,
	"by": true, "from": true, "as": true, "into": true, "through": true,
	"during": true, "before": true, "after": true, "above": true,
	"below": true, "between": true, "under": true, "again": true,
	"further": true, "then": true, "once": true, "here": true,
	"there": true, "when": true, "where": true, "why": true, "how": true,
	"all": true, "each": true, "few": true, "more": true, "most": true,
	"other": true, "some": true, "such": true, "no": true, "nor": true,
	"not": true, "only": true, "own": true, "same": true, "so": true,
	"than": true, "too": true, "very": true, "just": true, "what": true,
	"which": true, "who": true, "whom": true, "this": true, "that": true,
	"these": true, "those": true, "am": true, "i": true, "me": true,
	"my": true,
}

// NormalizeQuery canonicalizes a question for hashing: lowercase, strip
// punctuation, drop stop words and short words, sort the remainder.
func NormalizeQuery(question string) string {
	lower := strings.ToLower(question)
	lower = queryPunctuation.ReplaceAllString(lower, "")
	lower = strings.TrimSpace(queryWhitespace.ReplaceAllString(lower, " "))

	words := make([]string, 0, 8)
	for _, word := range strings.Fields(lower) {
		if len(word) > 2 && !queryStopWords[word] {
			words = append(words, word)
		}
	}
	sort.Strings(words)
	return strings.Join(words, " ")
}

// HashQuery produces a short stable identifier for a normalized query,
// embedded in bootstrap item slugs for exact-repeat lookup.
func HashQuery(normalized string) string {
	var hash int32
	for _, r := range normalized {
		hash = hash*31 + int32(r)
	}
	if hash < 0 {
		hash = -hash
	}
	return "QH" + strconv.FormatInt(int64(hash), 36)
}

// bootstrapDomains routes questions to a knowledge domain, with an extra
// general accounting bucket beyond the tax domains.
var bootstrapDomains = []struct {
	domain   string
	keywords []string
}{
	{model.DomainVAT, []string{"vat", "value added", "input tax", "output tax"}},
	{model.DomainIncomeTax, []string{"income tax", "taxable income", "personal tax", "salary tax"}},
	{model.DomainCompanyTax, []string{"company tax", "corporate tax", "business tax", "profit tax"}},
	{model.DomainPayroll, []string{"payroll", "salary", "wage", "employee tax", "paye"}},
	{model.DomainCapitalGainsTax, []string{"cgt", "capital gains", "investment income", "property sale"}},
	{model.DomainWithholdingTax, []string{"withholding", "dividend tax", "interest tax"}},
	{model.DomainAccountingGeneral, []string{"accounting", "journal", "ledger", "debit", "credit", "balance sheet", "income statement"}},
}

// InferDomain maps a question to a knowledge domain, falling back to OTHER.
func InferDomain(question string) string {
	lower := strings.ToLower(question)
	for _, entry := range bootstrapDomains {
		for _, kw := range entry.keywords {
			if strings.Contains(lower, kw) {
				return entry.domain
			}
		}
	}
	return model.DomainOther
}
