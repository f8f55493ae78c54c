package bot

import (
	"regexp"
	"strconv"
)

// The pricing model is instructed to answer in exactly this shape:
//
//	Budget: <integer> USD, Deadline: <integer> days
//
// The parser is deliberately separate from the estimator so the fallback
// pricing rules stay testable without a text-generation collaborator.
var (
	budgetPattern   = regexp.MustCompile(`Budget:\s*(\d+)`)
	deadlinePattern = regexp.MustCompile(`Deadline:\s*(\d+)`)
)

// BudgetDeadline is a parsed pricing estimate: a budget in USD and a
// completion period in days.
type BudgetDeadline struct {
	BudgetUSD  int
	PeriodDays int
}

// ParseBudgetDeadline extracts a budget/deadline pair from a model
// response. Both fields must be present; otherwise ok is false and the
// caller falls back to deterministic pricing.
func ParseBudgetDeadline(s string) (BudgetDeadline, bool) {
	budgetMatch := budgetPattern.FindStringSubmatch(s)
	deadlineMatch := deadlinePattern.FindStringSubmatch(s)
	if budgetMatch == nil || deadlineMatch == nil {
		return BudgetDeadline{}, false
	}

	budget, err := strconv.Atoi(budgetMatch[1])
	if err != nil {
		// A digit run long enough to overflow int is not a usable estimate.
		return BudgetDeadline{}, false
	}
	deadline, err := strconv.Atoi(deadlineMatch[1])
	if err != nil {
		return BudgetDeadline{}, false
	}

	return BudgetDeadline{BudgetUSD: budget, PeriodDays: deadline}, true
}
