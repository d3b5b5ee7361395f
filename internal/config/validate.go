package config

import (
	"fmt"
	"os"
	"regexp"

	"github.com/hbollon/go-edlib"
	"github.com/vmunix/scriptarr/internal/event"
	"github.com/vmunix/scriptarr/internal/executor"
)

var validLogLevels = map[string]bool{
	"debug": true, "info": true, "warn": true, "error": true, "": true,
}

var validOperators = func() map[Operator]bool {
	m := make(map[Operator]bool, len(Operators))
	for _, op := range Operators {
		m[op] = true
	}
	return m
}()

var validFormats = func() map[Format]bool {
	m := make(map[Format]bool, len(Formats))
	for _, f := range Formats {
		m[f] = true
	}
	return m
}()

// Validate checks the configuration for errors.
// Returns a slice of error messages (empty if valid).
func (c *Config) Validate() []string {
	var errs []string

	if c.Server.Port != 0 && (c.Server.Port < 1 || c.Server.Port > 65535) {
		errs = append(errs, fmt.Sprintf("server.port: must be between 1 and 65535, got %d", c.Server.Port))
	}
	if !validLogLevels[c.Server.LogLevel] {
		errs = append(errs, fmt.Sprintf("server.log_level: must be one of debug, info, warn, error; got %q", c.Server.LogLevel))
	}
	if c.Scripts.MaxConcurrent < 1 {
		errs = append(errs, fmt.Sprintf("scripts.max_concurrent: must be at least 1, got %d", c.Scripts.MaxConcurrent))
	}
	if c.Scripts.DefaultTimeout <= 0 {
		errs = append(errs, "scripts.default_timeout: must be positive")
	}
	if c.Scripts.Root != "" {
		if _, err := os.Stat(c.Scripts.Root); os.IsNotExist(err) {
			errs = append(errs, fmt.Sprintf("scripts.root: warning: directory %q does not exist", c.Scripts.Root))
		}
	}

	seen := make(map[string]bool)
	for i, s := range c.Settings {
		prefix := fmt.Sprintf("setting[%d] %q", i, s.Name)

		if s.ID == "" {
			errs = append(errs, prefix+": id required")
		} else if seen[s.ID] {
			errs = append(errs, fmt.Sprintf("%s: duplicate id %q", prefix, s.ID))
		}
		seen[s.ID] = true

		if s.ScriptName == "" {
			errs = append(errs, prefix+": script required")
		}
		if s.Enabled && len(s.Triggers) == 0 {
			errs = append(errs, prefix+": warning: enabled but has no triggers, will never run")
		}
		for _, trig := range s.Triggers {
			if !trig.Valid() {
				errs = append(errs, fmt.Sprintf("%s: unknown trigger %q%s", prefix, trig, suggest(string(trig), eventTypeNames())))
			}
		}
		if _, err := executor.ParseCategory(s.Executor); err != nil {
			errs = append(errs, fmt.Sprintf("%s: unknown executor %q%s", prefix, s.Executor, suggest(s.Executor, categoryNames())))
		}
		if s.Mode != ModeJSONPayload && s.Mode != ModeCompatibility {
			errs = append(errs, fmt.Sprintf("%s: mode must be %s or %s; got %q", prefix, ModeJSONPayload, ModeCompatibility, s.Mode))
		}
		if s.Timeout < 0 {
			errs = append(errs, prefix+": timeout must not be negative")
		}

		for j, cond := range s.Conditions {
			cp := fmt.Sprintf("%s condition[%d]", prefix, j)
			if cond.Field == "" {
				errs = append(errs, cp+": field required")
			} else if isWellKnownMiss(cond.Field) {
				errs = append(errs, fmt.Sprintf("%s: warning: field %q is not a well-known field%s", cp, cond.Field, suggest(cond.Field, event.KnownFields())))
			}
			if !validOperators[cond.Operator] {
				errs = append(errs, fmt.Sprintf("%s: unknown operator %q%s", cp, cond.Operator, suggest(string(cond.Operator), operatorNames())))
			}
			if cond.Operator == OpRegex {
				if _, err := regexp.Compile(cond.Value); err != nil {
					errs = append(errs, fmt.Sprintf("%s: invalid regex %q: %v", cp, cond.Value, err))
				}
			}
		}

		for j, attr := range s.Attributes {
			ap := fmt.Sprintf("%s attribute[%d]", prefix, j)
			if attr.Name == "" {
				errs = append(errs, ap+": name required")
			}
			if attr.Source == "" {
				errs = append(errs, ap+": source required")
			} else if isWellKnownMiss(attr.Source) {
				errs = append(errs, fmt.Sprintf("%s: warning: source %q is not a well-known field%s", ap, attr.Source, suggest(attr.Source, event.KnownFields())))
			}
			if !validFormats[attr.Format] {
				errs = append(errs, fmt.Sprintf("%s: unknown format %q%s", ap, attr.Format, suggest(string(attr.Format), formatNames())))
			}
		}
	}

	return errs
}

// isWellKnownMiss reports whether name looks like it was meant to hit the
// dispatch table but doesn't. Names are allowed to target the open-ended
// additional-data map, so a miss is only worth a warning when it is close
// to a well-known field.
func isWellKnownMiss(name string) bool {
	canon := event.CanonicalField(name)
	for _, known := range event.KnownFields() {
		if canon == known {
			return false
		}
	}
	best, err := edlib.FuzzySearchThreshold(canon, event.KnownFields(), 0.8, edlib.Levenshtein)
	return err == nil && best != ""
}

// suggest returns a did-you-mean hint when input is close to a known name.
func suggest(input string, known []string) string {
	if input == "" {
		return ""
	}
	best, err := edlib.FuzzySearchThreshold(input, known, 0.7, edlib.Levenshtein)
	if err != nil || best == "" {
		return ""
	}
	return fmt.Sprintf(" (did you mean %q?)", best)
}

func eventTypeNames() []string {
	names := make([]string, len(event.Types))
	for i, t := range event.Types {
		names[i] = string(t)
	}
	return names
}

func categoryNames() []string {
	names := make([]string, len(executor.Categories))
	for i, c := range executor.Categories {
		names[i] = string(c)
	}
	return names
}

func operatorNames() []string {
	names := make([]string, len(Operators))
	for i, op := range Operators {
		names[i] = string(op)
	}
	return names
}

func formatNames() []string {
	names := make([]string, len(Formats))
	for i, f := range Formats {
		names[i] = string(f)
	}
	return names
}
