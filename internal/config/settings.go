package config

import (
	"time"

	"github.com/vmunix/scriptarr/internal/event"
)

// Mode selects how event data reaches the script.
type Mode string

const (
	// ModeJSONPayload passes the whole event, canonically serialized, as
	// the sole data argument after the script path.
	ModeJSONPayload Mode = "json_payload"
	// ModeCompatibility maps individual attributes to argv and env.
	ModeCompatibility Mode = "compatibility"
)

// Operator is a condition comparison operator.
type Operator string

const (
	OpEquals      Operator = "equals"
	OpNotEquals   Operator = "not_equals"
	OpContains    Operator = "contains"
	OpNotContains Operator = "not_contains"
	OpStartsWith  Operator = "starts_with"
	OpEndsWith    Operator = "ends_with"
	OpRegex       Operator = "regex"
	OpGreaterThan Operator = "greater_than"
	OpLessThan    Operator = "less_than"
	OpIn          Operator = "in"
	OpNotIn       Operator = "not_in"
)

// Operators lists every supported condition operator.
var Operators = []Operator{
	OpEquals, OpNotEquals, OpContains, OpNotContains,
	OpStartsWith, OpEndsWith, OpRegex,
	OpGreaterThan, OpLessThan, OpIn, OpNotIn,
}

// Format selects how a data attribute reaches the script.
type Format string

const (
	// FormatArgument emits "--<name> <value>" on the command line.
	FormatArgument Format = "argument"
	// FormatEnvironment emits NAME=value in the process environment.
	FormatEnvironment Format = "environment"
	// FormatJSON re-serializes the value as canonical JSON, then emits it
	// like FormatArgument.
	FormatJSON Format = "json"
	// FormatString emits like FormatArgument without the JSON probe.
	FormatString Format = "string"
)

// Formats lists every supported attribute format.
var Formats = []Format{FormatArgument, FormatEnvironment, FormatJSON, FormatString}

// Condition is a single field/operator/value rule evaluated against
// event data. All conditions of a setting must hold (AND semantics).
type Condition struct {
	Field         string   `toml:"field"`
	Operator      Operator `toml:"operator"`
	Value         string   `toml:"value"`
	CaseSensitive bool     `toml:"case_sensitive"`
}

// DataAttribute maps one event field to an argument or environment entry.
type DataAttribute struct {
	Name     string `toml:"name"`
	Source   string `toml:"source"`
	Format   Format `toml:"format"`
	Required bool   `toml:"required"`
	Default  string `toml:"default"`
}

// ScriptSetting is one operator-configured rule binding triggers,
// conditions, and an execution descriptor. Authored externally; never
// mutated by the execution pipeline.
type ScriptSetting struct {
	ID       string `toml:"id"`
	Name     string `toml:"name"`
	Enabled  bool   `toml:"enabled"`
	Priority int    `toml:"priority"`

	Triggers   []event.Type `toml:"triggers"`
	Conditions []Condition  `toml:"condition"`

	Executor       string        `toml:"executor"`
	ExecutablePath string        `toml:"executable_path"`
	ScriptName     string        `toml:"script"`
	ScriptsRoot    string        `toml:"scripts_root"` // overrides the global root
	WorkingDir     string        `toml:"working_dir"`
	ExtraArgs      string        `toml:"extra_args"`
	Timeout        time.Duration `toml:"timeout"`

	Mode       Mode            `toml:"mode"`
	Attributes []DataAttribute `toml:"attribute"`
}

// TriggeredBy reports whether t is in the setting's trigger set. A
// setting with an empty trigger set never fires.
func (s ScriptSetting) TriggeredBy(t event.Type) bool {
	for _, trig := range s.Triggers {
		if trig == t {
			return true
		}
	}
	return false
}

// EffectiveTimeout returns the setting's own timeout or the global
// default.
func (s ScriptSetting) EffectiveTimeout(g GlobalSettings) time.Duration {
	if s.Timeout > 0 {
		return s.Timeout
	}
	return g.DefaultTimeout
}

// EffectiveRoot returns the per-setting override root or the global one.
func (s ScriptSetting) EffectiveRoot(g GlobalSettings) string {
	if s.ScriptsRoot != "" {
		return s.ScriptsRoot
	}
	return g.Root
}
