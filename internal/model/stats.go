package model

// CategoryRuleStats aggregates learned rules for one category.
type CategoryRuleStats struct {
	Category       string
	RuleCount      int
	TotalLearnings int
}

// RuleStats summarizes the learned rule base.
type RuleStats struct {
	ByCategory []CategoryRuleStats
	TopRules   []AllocationRule
	TotalRules int
}

// AllocationCounts summarizes transaction processing state.
type AllocationCounts struct {
	Pending     int
	Processed   int
	NeedsReview int
}
