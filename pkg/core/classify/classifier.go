// Package classify maps an account name to a target report and category using
// an ordered keyword cascade. The first matching rule wins.
//
// Cascade order:
//  1. Aggregate rows (totals and subtotals) are never classified.
//  2. Balance-sheet rules, most specific first.
//  3. Cost-of-production rules, when enabled.
//  4. Profit-and-loss rules.
//
// Names matching no rule are reported as unclassified and need a mapping entry.
package classify

import (
	"regexp"
	"strings"

	"statement_transcriber/pkg/core/textnorm"
)

var reAggregate = regexp.MustCompile(`計$|(?i)(sub|grand)?total$`)

// Result is the outcome of classifying one name, or of resolving a mapping entry.
type Result struct {
	Report   ReportKey
	Category CategoryKey
	Rule     string // name of the matching rule, empty for mapping entries
}

// IsAggregateRow reports whether name is a total or subtotal line.
func IsAggregateRow(name string) bool {
	return reAggregate.MatchString(strings.ToLower(textnorm.Key(name)))
}

// Classifier holds an immutable rule cascade.
type Classifier struct {
	rules []Rule
}

// Option configures a Classifier.
type Option func(*options)

type options struct {
	costOfProduction bool
}

// WithCostOfProduction enables the cost-of-production tier ahead of the P&L rules.
func WithCostOfProduction(enabled bool) Option {
	return func(o *options) { o.costOfProduction = enabled }
}

// New builds the cascade.
func New(opts ...Option) *Classifier {
	var o options
	for _, fn := range opts {
		fn(&o)
	}
	rules := make([]Rule, 0, len(balanceSheetRules)+len(costOfProductionRules)+len(profitAndLossRules))
	rules = append(rules, balanceSheetRules...)
	if o.costOfProduction {
		rules = append(rules, costOfProductionRules...)
	}
	rules = append(rules, profitAndLossRules...)
	return &Classifier{rules: rules}
}

// Classify returns the first matching rule's target. ok is false for aggregate
// rows and for names no rule recognises.
func (c *Classifier) Classify(name string) (res Result, ok bool) {
	key := strings.ToLower(textnorm.Key(name))
	if key == "" || reAggregate.MatchString(key) {
		return Result{}, false
	}
	for _, r := range c.rules {
		if r.matches(key) {
			return Result{Report: r.Report, Category: r.Category, Rule: r.Name}, true
		}
	}
	return Result{}, false
}

// Rules returns a copy of the cascade in evaluation order.
func (c *Classifier) Rules() []Rule {
	out := make([]Rule, len(c.rules))
	copy(out, c.rules)
	return out
}
