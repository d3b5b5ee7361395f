// Package attrs maps event fields into process arguments and
// environment variables per a setting's data attributes.
package attrs

import (
	"log/slog"
	"strings"

	"github.com/goccy/go-json"

	"github.com/vmunix/scriptarr/internal/config"
	"github.com/vmunix/scriptarr/internal/event"
)

// Processor builds the two invocation side-channels (argv, env) from a
// setting's attribute list.
type Processor struct {
	logger *slog.Logger
}

func NewProcessor(logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{logger: logger}
}

// Process resolves each attribute in declared order. Empty required
// values are warned about and skipped without aborting the rest; empty
// optional values fall back to the attribute default.
func (p *Processor) Process(attributes []config.DataAttribute, ev event.Data) ([]string, map[string]string) {
	var args []string
	env := make(map[string]string)

	for _, a := range attributes {
		value := ev.Field(a.Source)
		if value == "" {
			if a.Required {
				p.logger.Warn("required attribute resolved empty, skipping",
					"attribute", a.Name, "source", a.Source)
				continue
			}
			value = a.Default
		}

		switch a.Format {
		case config.FormatEnvironment:
			env[EnvKey(a.Name)] = value
		case config.FormatJSON:
			args = append(args, "--"+a.Name, canonicalJSON(value))
		case config.FormatArgument, config.FormatString:
			args = append(args, "--"+a.Name, value)
		default:
			p.logger.Warn("unknown attribute format, skipping",
				"attribute", a.Name, "format", a.Format)
		}
	}

	return args, env
}

// EnvKey normalizes an attribute name into an environment variable key:
// upper-cased, hyphens replaced by underscores.
func EnvKey(name string) string {
	return strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
}

// canonicalJSON re-serializes value when it parses as a JSON object or
// array, and otherwise wraps it as a JSON string literal.
func canonicalJSON(value string) string {
	trimmed := strings.TrimSpace(value)
	if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
		var parsed any
		if err := json.Unmarshal([]byte(trimmed), &parsed); err == nil {
			if out, err := json.Marshal(parsed); err == nil {
				return string(out)
			}
		}
	}
	out, err := json.Marshal(value)
	if err != nil {
		return value
	}
	return string(out)
}
