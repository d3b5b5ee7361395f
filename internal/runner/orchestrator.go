// Package runner selects matching script settings for an event and
// supervises their execution under a shared concurrency gate.
package runner

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/vmunix/scriptarr/internal/attrs"
	"github.com/vmunix/scriptarr/internal/config"
	"github.com/vmunix/scriptarr/internal/event"
	"github.com/vmunix/scriptarr/internal/executor"
	"github.com/vmunix/scriptarr/internal/metrics"
	"github.com/vmunix/scriptarr/internal/rules"
)

// Orchestrator coordinates script execution for dispatched events. All
// event batches share one admission gate; a slot is acquired before each
// launch and released on every exit path.
type Orchestrator struct {
	provider config.Provider
	eval     *rules.Evaluator
	attrs    *attrs.Processor
	resolver *executor.Resolver
	launcher Launcher
	store    *Store // may be nil
	gate     *semaphore.Weighted
	logger   *slog.Logger
}

// New creates an Orchestrator. The gate is sized from the provider's
// current max-concurrent setting; resizing requires a restart. store may
// be nil to disable run history.
func New(provider config.Provider, resolver *executor.Resolver, launcher Launcher, store *Store, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	maxConcurrent := provider.Globals().MaxConcurrent
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &Orchestrator{
		provider: provider,
		eval:     rules.NewEvaluator(logger.With("component", "rules")),
		attrs:    attrs.NewProcessor(logger.With("component", "attrs")),
		resolver: resolver,
		launcher: launcher,
		store:    store,
		gate:     semaphore.NewWeighted(int64(maxConcurrent)),
		logger:   logger,
	}
}

// Run consumes events from ch until it closes or ctx is canceled. Each
// event is dispatched on its own goroutine, so multiple batches can be
// in flight; they all share the admission gate.
func (o *Orchestrator) Run(ctx context.Context, ch <-chan event.Data) error {
	var wg sync.WaitGroup
	for {
		select {
		case <-ctx.Done():
			wg.Wait()
			return ctx.Err()
		case ev, ok := <-ch:
			if !ok {
				wg.Wait()
				return nil
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				o.Dispatch(ctx, ev)
			}()
		}
	}
}

// Dispatch runs every matching setting for one event and returns when
// the whole batch has finished (scatter/gather). Failures are isolated
// per setting and never abort siblings.
func (o *Orchestrator) Dispatch(ctx context.Context, ev event.Data) []Result {
	metrics.EventsReceived.WithLabelValues(string(ev.Type)).Inc()

	globals := o.provider.Globals()
	matching := selectMatching(o.provider.Settings(), ev.Type)
	if len(matching) == 0 {
		o.logger.Debug("no settings match event", "type", ev.Type)
		return nil
	}

	o.logger.Info("dispatching event", "type", ev.Type, "matching_settings", len(matching))

	results := make([]Result, len(matching))
	var wg sync.WaitGroup
	// Spawned in ascending priority order so lower priorities reach the
	// gate first; completion order is not guaranteed.
	for i, s := range matching {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = o.runSetting(ctx, s, globals, ev)
		}()
	}
	wg.Wait()
	return results
}

// selectMatching returns the enabled settings triggered by t, in
// ascending priority order.
func selectMatching(settings []config.ScriptSetting, t event.Type) []config.ScriptSetting {
	var matching []config.ScriptSetting
	for _, s := range settings {
		if s.Enabled && s.TriggeredBy(t) {
			matching = append(matching, s)
		}
	}
	sort.SliceStable(matching, func(i, j int) bool {
		return matching[i].Priority < matching[j].Priority
	})
	return matching
}

// runSetting takes one setting through condition check, gate admission,
// launch, and outcome recording.
func (o *Orchestrator) runSetting(ctx context.Context, s config.ScriptSetting, g config.GlobalSettings, ev event.Data) Result {
	log := o.logger.With("setting", s.Name, "event", ev.Type)
	res := Result{
		RunID:       uuid.NewString(),
		SettingID:   s.ID,
		SettingName: s.Name,
		EventType:   ev.Type,
		StartedAt:   time.Now(),
	}

	if !o.eval.Evaluate(s.Conditions, ev) {
		res.Outcome = OutcomeConditionNotMet
		log.Debug("conditions not met")
		return o.record(res)
	}

	inv, err := o.buildInvocation(ctx, s, g, ev)
	if err != nil {
		res.Outcome = OutcomeSkipped
		res.Error = err.Error()
		log.Warn("setting skipped, invalid configuration", "error", err)
		return o.record(res)
	}

	if err := o.gate.Acquire(ctx, 1); err != nil {
		res.Outcome = OutcomeSkipped
		res.Error = "shutdown before gate acquisition: " + err.Error()
		return o.record(res)
	}
	defer o.gate.Release(1)

	metrics.ScriptsInFlight.Inc()
	defer metrics.ScriptsInFlight.Dec()

	runCtx, cancel := context.WithTimeout(ctx, s.EffectiveTimeout(g))
	defer cancel()

	start := time.Now()
	execRes, err := o.launcher.Launch(runCtx, inv)
	res.Duration = time.Since(start)
	res.ExitCode = execRes.ExitCode
	res.StderrTail = tail(execRes.Stderr, 2048)

	switch {
	case execRes.TimedOut:
		res.Outcome = OutcomeTimedOut
		log.Warn("script timed out, process tree killed",
			"timeout", s.EffectiveTimeout(g), "script", s.ScriptName)
	case err != nil:
		res.Outcome = OutcomeFailed
		res.Error = err.Error()
		log.Error("script launch failed", "error", err, "script", s.ScriptName)
	case execRes.ExitCode != 0:
		res.Outcome = OutcomeFailed
		log.Error("script exited non-zero",
			"exit_code", execRes.ExitCode, "stderr", res.StderrTail)
	default:
		res.Outcome = OutcomeSuccess
		log.Info("script succeeded", "duration", res.Duration)
		if execRes.Stdout != "" {
			log.Debug("script stdout", "output", execRes.Stdout)
		}
	}
	if res.Launched() {
		metrics.RunDuration.Observe(res.Duration.Seconds())
	}
	return o.record(res)
}

func (o *Orchestrator) record(r Result) Result {
	metrics.ScriptRuns.WithLabelValues(string(r.Outcome)).Inc()
	if o.store != nil {
		if err := o.store.Record(r); err != nil {
			o.logger.Error("failed to persist run outcome", "run_id", r.RunID, "error", err)
		}
	}
	return r
}

func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
