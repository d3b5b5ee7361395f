package rules

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vmunix/scriptarr/internal/config"
	"github.com/vmunix/scriptarr/internal/event"
)

func newTestEvaluator() *Evaluator {
	return NewEvaluator(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func cond(field string, op config.Operator, value string) config.Condition {
	return config.Condition{Field: field, Operator: op, Value: value}
}

func TestEvaluate_EmptyConditionsAlwaysMatch(t *testing.T) {
	e := newTestEvaluator()
	assert.True(t, e.Evaluate(nil, event.Data{Type: event.PlaybackStart}))
	assert.True(t, e.Evaluate([]config.Condition{}, event.Data{}))
}

func TestEvaluate_Operators(t *testing.T) {
	e := newTestEvaluator()
	ev := event.Data{
		Type:     event.PlaybackStart,
		UserName: "Alice",
		ItemName: "The Matrix Reloaded",
		ItemType: "Movie",
		Year:     2003,
		Genres:   []string{"Action", "Sci-Fi"},
	}

	tests := []struct {
		name string
		c    config.Condition
		want bool
	}{
		{"equals case-insensitive", cond("UserName", config.OpEquals, "alice"), true},
		{"equals case-sensitive miss", config.Condition{Field: "UserName", Operator: config.OpEquals, Value: "alice", CaseSensitive: true}, false},
		{"not_equals", cond("ItemType", config.OpNotEquals, "Episode"), true},
		{"contains", cond("ItemName", config.OpContains, "matrix"), true},
		{"not_contains", cond("ItemName", config.OpNotContains, "Animatrix"), true},
		{"starts_with", cond("ItemName", config.OpStartsWith, "the matrix"), true},
		{"starts_with miss", cond("ItemName", config.OpStartsWith, "Matrix"), false},
		{"ends_with", cond("ItemName", config.OpEndsWith, "Reloaded"), true},
		{"regex", cond("ItemName", config.OpRegex, `Matrix\s+Reloaded$`), true},
		{"regex miss", cond("ItemName", config.OpRegex, `^Matrix`), false},
		{"greater_than", cond("Year", config.OpGreaterThan, "1999"), true},
		{"less_than", cond("Year", config.OpLessThan, "1999"), false},
		{"in", cond("ItemType", config.OpIn, "Movie, Episode"), true},
		{"in with trimmed items", cond("ItemType", config.OpIn, " Episode ,  Movie "), true},
		{"not_in", cond("ItemType", config.OpNotIn, "Episode, Audio"), true},
		{"genres joined", cond("Genres", config.OpContains, "sci-fi"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, e.Evaluate([]config.Condition{tt.c}, ev))
		})
	}
}

func TestEvaluate_AndShortCircuits(t *testing.T) {
	e := newTestEvaluator()
	ev := event.Data{Type: event.PlaybackStart, ItemType: "Movie"}

	conds := []config.Condition{
		cond("ItemType", config.OpEquals, "Episode"), // fails
		cond("NoSuchField", config.OpGreaterThan, "boom"),
	}
	// The second condition would be an evaluation error, but the first
	// already failed the AND chain.
	assert.False(t, e.Evaluate(conds, ev))
}

func TestEvaluate_ErrorsDegradeToFalse(t *testing.T) {
	e := newTestEvaluator()
	ev := event.Data{Type: event.PlaybackStart, ItemName: "Movie"}

	// Invalid regex never panics or propagates.
	assert.False(t, e.Evaluate([]config.Condition{cond("ItemName", config.OpRegex, "([")}, ev))
	// Non-numeric operand on a numeric comparison.
	assert.False(t, e.Evaluate([]config.Condition{cond("ItemName", config.OpGreaterThan, "10")}, ev))
	// Unknown operator.
	assert.False(t, e.Evaluate([]config.Condition{cond("ItemName", "like", "x")}, ev))
}

func TestEvaluate_ExtraDataField(t *testing.T) {
	e := newTestEvaluator()
	ev := event.Data{
		Type:  event.PlaybackStop,
		Extra: map[string]string{"PlaybackPositionTicks": "12000"},
	}

	assert.True(t, e.Evaluate([]config.Condition{cond("PlaybackPositionTicks", config.OpGreaterThan, "10000")}, ev))
	// Unresolvable fields render as "" and fail string comparisons.
	assert.False(t, e.Evaluate([]config.Condition{cond("Mystery", config.OpEquals, "x")}, ev))
}
