package runner

import (
	"time"

	"github.com/vmunix/scriptarr/internal/event"
)

// Outcome is the terminal state of one setting for one event.
type Outcome string

const (
	// OutcomeSuccess: the script ran and exited zero.
	OutcomeSuccess Outcome = "success"
	// OutcomeConditionNotMet: the setting's conditions rejected the event.
	OutcomeConditionNotMet Outcome = "condition_not_met"
	// OutcomeSkipped: invalid configuration (bad script path, traversal).
	OutcomeSkipped Outcome = "skipped"
	// OutcomeFailed: launch failure or non-zero exit.
	OutcomeFailed Outcome = "failed"
	// OutcomeTimedOut: the process overran its deadline and was killed.
	OutcomeTimedOut Outcome = "timed_out"
)

// Result records the outcome of one setting for one dispatched event.
type Result struct {
	RunID       string
	SettingID   string
	SettingName string
	EventType   event.Type
	Outcome     Outcome
	ExitCode    int
	Duration    time.Duration
	StartedAt   time.Time
	Error       string
	StderrTail  string
}

// Launched reports whether a process was actually started for this result.
func (r Result) Launched() bool {
	return r.Outcome == OutcomeSuccess || r.Outcome == OutcomeFailed || r.Outcome == OutcomeTimedOut
}
