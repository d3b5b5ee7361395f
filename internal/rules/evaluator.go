// Package rules evaluates script-setting conditions against event data.
package rules

import (
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/cases"

	"github.com/vmunix/scriptarr/internal/config"
	"github.com/vmunix/scriptarr/internal/event"
)

// result is the internal tri-state of a single condition. Evaluation
// errors collapse to a non-match at the public boundary.
type result int

const (
	matched result = iota
	notMatched
	evalError
)

// Evaluator decides whether a setting's conditions hold for an event.
type Evaluator struct {
	logger *slog.Logger
}

func NewEvaluator(logger *slog.Logger) *Evaluator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Evaluator{logger: logger}
}

// Evaluate reports whether every condition holds for ev. An empty list
// always matches. Conditions are ANDed with short-circuit on the first
// failure; an evaluation error counts as a failure and never propagates.
func (e *Evaluator) Evaluate(conds []config.Condition, ev event.Data) bool {
	for _, c := range conds {
		switch res, err := e.evalOne(c, ev); res {
		case matched:
		case notMatched:
			return false
		case evalError:
			e.logger.Warn("condition evaluation failed, treating as no match",
				"field", c.Field, "operator", c.Operator, "error", err)
			return false
		}
	}
	return true
}

func (e *Evaluator) evalOne(c config.Condition, ev event.Data) (result, error) {
	actual := ev.Field(c.Field)
	expected := c.Value

	switch c.Operator {
	case config.OpEquals:
		return boolResult(equalFold(actual, expected, c.CaseSensitive)), nil
	case config.OpNotEquals:
		return boolResult(!equalFold(actual, expected, c.CaseSensitive)), nil
	case config.OpContains:
		return boolResult(containsFold(actual, expected, c.CaseSensitive)), nil
	case config.OpNotContains:
		return boolResult(!containsFold(actual, expected, c.CaseSensitive)), nil
	case config.OpStartsWith:
		return boolResult(strings.HasPrefix(foldUnless(actual, c.CaseSensitive), foldUnless(expected, c.CaseSensitive))), nil
	case config.OpEndsWith:
		return boolResult(strings.HasSuffix(foldUnless(actual, c.CaseSensitive), foldUnless(expected, c.CaseSensitive))), nil
	case config.OpRegex:
		re, err := regexp.Compile(expected)
		if err != nil {
			return evalError, fmt.Errorf("invalid regex %q: %w", expected, err)
		}
		return boolResult(re.MatchString(actual)), nil
	case config.OpGreaterThan, config.OpLessThan:
		a, err := strconv.ParseFloat(strings.TrimSpace(actual), 64)
		if err != nil {
			return evalError, fmt.Errorf("field value %q is not numeric: %w", actual, err)
		}
		b, err := strconv.ParseFloat(strings.TrimSpace(expected), 64)
		if err != nil {
			return evalError, fmt.Errorf("comparison value %q is not numeric: %w", expected, err)
		}
		if c.Operator == config.OpGreaterThan {
			return boolResult(a > b), nil
		}
		return boolResult(a < b), nil
	case config.OpIn, config.OpNotIn:
		found := false
		for _, item := range strings.Split(expected, ",") {
			if equalFold(actual, strings.TrimSpace(item), c.CaseSensitive) {
				found = true
				break
			}
		}
		if c.Operator == config.OpIn {
			return boolResult(found), nil
		}
		return boolResult(!found), nil
	default:
		return evalError, fmt.Errorf("unknown operator %q", c.Operator)
	}
}

func boolResult(ok bool) result {
	if ok {
		return matched
	}
	return notMatched
}

func foldUnless(s string, caseSensitive bool) string {
	if caseSensitive {
		return s
	}
	// Casers are stateful, so build one per use.
	return cases.Fold().String(s)
}

func equalFold(a, b string, caseSensitive bool) bool {
	return foldUnless(a, caseSensitive) == foldUnless(b, caseSensitive)
}

func containsFold(haystack, needle string, caseSensitive bool) bool {
	return strings.Contains(foldUnless(haystack, caseSensitive), foldUnless(needle, caseSensitive))
}
