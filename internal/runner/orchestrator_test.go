package runner

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vmunix/scriptarr/internal/config"
	"github.com/vmunix/scriptarr/internal/event"
	"github.com/vmunix/scriptarr/internal/executor"
)

// launcherFunc adapts a function to the Launcher interface.
type launcherFunc func(ctx context.Context, inv Invocation) (ExecResult, error)

func (f launcherFunc) Launch(ctx context.Context, inv Invocation) (ExecResult, error) {
	return f(ctx, inv)
}

func okLauncher(calls *atomic.Int32) Launcher {
	return launcherFunc(func(ctx context.Context, inv Invocation) (ExecResult, error) {
		if calls != nil {
			calls.Add(1)
		}
		return ExecResult{ExitCode: 0}, nil
	})
}

func newTestOrchestrator(cfg *config.Config, l Launcher) *Orchestrator {
	return New(config.Static{Config: cfg}, executor.NewResolver("", discardLogger()), l, nil, discardLogger())
}

func binarySetting(id string, root string, triggers ...event.Type) config.ScriptSetting {
	return config.ScriptSetting{
		ID: id, Name: id, Enabled: true,
		Triggers:   triggers,
		Executor:   "binary",
		ScriptName: "hook.sh",
		Mode:       config.ModeJSONPayload,
	}
}

func TestDispatch_TriggerFiltering(t *testing.T) {
	root := scriptDir(t, "hook.sh")
	var calls atomic.Int32

	cfg := baseConfig(root)
	matching := binarySetting("matching", root, event.PlaybackStart)
	other := binarySetting("other", root, event.ItemAdded)
	disabled := binarySetting("disabled", root, event.PlaybackStart)
	disabled.Enabled = false
	noTriggers := binarySetting("no-triggers", root)
	cfg.Settings = []config.ScriptSetting{matching, other, disabled, noTriggers}

	o := newTestOrchestrator(cfg, okLauncher(&calls))
	results := o.Dispatch(context.Background(), event.Data{Type: event.PlaybackStart})

	require.Len(t, results, 1, "only the enabled, triggered setting runs")
	assert.Equal(t, "matching", results[0].SettingID)
	assert.Equal(t, OutcomeSuccess, results[0].Outcome)
	assert.Equal(t, int32(1), calls.Load())
}

func TestDispatch_NoMatchLaunchesNothing(t *testing.T) {
	root := scriptDir(t, "hook.sh")
	var calls atomic.Int32

	cfg := baseConfig(root)
	cfg.Settings = []config.ScriptSetting{binarySetting("s", root, event.ItemAdded)}

	o := newTestOrchestrator(cfg, okLauncher(&calls))
	results := o.Dispatch(context.Background(), event.Data{Type: event.ServerShutdown})

	assert.Empty(t, results)
	assert.Equal(t, int32(0), calls.Load())
}

func TestDispatch_ConditionNotMet(t *testing.T) {
	root := scriptDir(t, "hook.sh")
	var calls atomic.Int32

	s := binarySetting("guarded", root, event.PlaybackStart)
	s.Conditions = []config.Condition{{Field: "ItemType", Operator: config.OpEquals, Value: "Movie"}}
	cfg := baseConfig(root)
	cfg.Settings = []config.ScriptSetting{s}

	o := newTestOrchestrator(cfg, okLauncher(&calls))
	results := o.Dispatch(context.Background(), event.Data{Type: event.PlaybackStart, ItemType: "Episode"})

	require.Len(t, results, 1)
	assert.Equal(t, OutcomeConditionNotMet, results[0].Outcome)
	assert.Equal(t, int32(0), calls.Load(), "no process launches when conditions fail")
}

func TestDispatch_PriorityOrdersResults(t *testing.T) {
	root := scriptDir(t, "hook.sh")

	low := binarySetting("low", root, event.PlaybackStart)
	low.Priority = 20
	high := binarySetting("high", root, event.PlaybackStart)
	high.Priority = 1
	cfg := baseConfig(root)
	cfg.Settings = []config.ScriptSetting{low, high}

	o := newTestOrchestrator(cfg, okLauncher(nil))
	results := o.Dispatch(context.Background(), event.Data{Type: event.PlaybackStart})

	require.Len(t, results, 2)
	assert.Equal(t, "high", results[0].SettingID, "ascending priority order")
	assert.Equal(t, "low", results[1].SettingID)
}

func TestDispatch_MutualExclusionUnderGate(t *testing.T) {
	root := scriptDir(t, "hook.sh")

	var active atomic.Int32
	var overlapped atomic.Bool
	launcher := launcherFunc(func(ctx context.Context, inv Invocation) (ExecResult, error) {
		if active.Add(1) > 1 {
			overlapped.Store(true)
		}
		defer active.Add(-1)
		time.Sleep(50 * time.Millisecond)
		return ExecResult{ExitCode: 0}, nil
	})

	cfg := baseConfig(root)
	cfg.Scripts.MaxConcurrent = 1
	a := binarySetting("a", root, event.PlaybackStart)
	b := binarySetting("b", root, event.PlaybackStart)
	b.Priority = 5
	cfg.Settings = []config.ScriptSetting{a, b}

	o := newTestOrchestrator(cfg, launcher)
	results := o.Dispatch(context.Background(), event.Data{Type: event.PlaybackStart})

	require.Len(t, results, 2)
	assert.False(t, overlapped.Load(), "gate must serialize execution")
	assert.Equal(t, OutcomeSuccess, results[0].Outcome)
	assert.Equal(t, OutcomeSuccess, results[1].Outcome)
}

func TestDispatch_GateReleasedOnFailure(t *testing.T) {
	root := scriptDir(t, "hook.sh")

	var calls atomic.Int32
	launcher := launcherFunc(func(ctx context.Context, inv Invocation) (ExecResult, error) {
		if calls.Add(1) == 1 {
			return ExecResult{ExitCode: -1}, errors.New("spawn refused")
		}
		return ExecResult{ExitCode: 0}, nil
	})

	cfg := baseConfig(root)
	cfg.Scripts.MaxConcurrent = 1 // a leaked slot would deadlock the batch
	a := binarySetting("a", root, event.PlaybackStart)
	b := binarySetting("b", root, event.PlaybackStart)
	b.Priority = 5
	cfg.Settings = []config.ScriptSetting{a, b}

	o := newTestOrchestrator(cfg, launcher)

	done := make(chan []Result, 1)
	go func() { done <- o.Dispatch(context.Background(), event.Data{Type: event.PlaybackStart}) }()

	select {
	case results := <-done:
		require.Len(t, results, 2)
		outcomes := []Outcome{results[0].Outcome, results[1].Outcome}
		assert.Contains(t, outcomes, OutcomeFailed)
		assert.Contains(t, outcomes, OutcomeSuccess, "a failure must not starve siblings of the gate")
	case <-time.After(5 * time.Second):
		t.Fatal("dispatch deadlocked: gate slot leaked on failure path")
	}
}

func TestDispatch_TimeoutOutcome(t *testing.T) {
	root := scriptDir(t, "hook.sh")

	launcher := launcherFunc(func(ctx context.Context, inv Invocation) (ExecResult, error) {
		<-ctx.Done()
		return ExecResult{ExitCode: -1, TimedOut: errors.Is(ctx.Err(), context.DeadlineExceeded)}, ctx.Err()
	})

	s := binarySetting("slow", root, event.PlaybackStart)
	s.Timeout = 50 * time.Millisecond
	cfg := baseConfig(root)
	cfg.Settings = []config.ScriptSetting{s}

	o := newTestOrchestrator(cfg, launcher)
	results := o.Dispatch(context.Background(), event.Data{Type: event.PlaybackStart})

	require.Len(t, results, 1)
	assert.Equal(t, OutcomeTimedOut, results[0].Outcome)
}

func TestDispatch_TimeoutDoesNotCancelSiblings(t *testing.T) {
	root := scriptDir(t, "hook.sh")

	launcher := launcherFunc(func(ctx context.Context, inv Invocation) (ExecResult, error) {
		if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) < time.Second {
			// The short-timeout setting: block until killed.
			<-ctx.Done()
			return ExecResult{ExitCode: -1, TimedOut: true}, ctx.Err()
		}
		return ExecResult{ExitCode: 0}, nil
	})

	slow := binarySetting("slow", root, event.PlaybackStart)
	slow.Timeout = 50 * time.Millisecond
	fast := binarySetting("fast", root, event.PlaybackStart)
	fast.Priority = 5
	cfg := baseConfig(root)
	cfg.Settings = []config.ScriptSetting{slow, fast}

	o := newTestOrchestrator(cfg, launcher)
	results := o.Dispatch(context.Background(), event.Data{Type: event.PlaybackStart})

	require.Len(t, results, 2)
	assert.Equal(t, OutcomeTimedOut, results[0].Outcome)
	assert.Equal(t, OutcomeSuccess, results[1].Outcome, "one timeout never aborts the batch")
}

func TestDispatch_TraversalSkippedBeforeLaunch(t *testing.T) {
	root := scriptDir(t, "hook.sh")
	var calls atomic.Int32

	s := binarySetting("evil", root, event.PlaybackStart)
	s.ScriptName = "../evil.sh"
	cfg := baseConfig(root)
	cfg.Settings = []config.ScriptSetting{s}

	o := newTestOrchestrator(cfg, okLauncher(&calls))
	results := o.Dispatch(context.Background(), event.Data{Type: event.PlaybackStart})

	require.Len(t, results, 1)
	assert.Equal(t, OutcomeSkipped, results[0].Outcome)
	assert.Contains(t, results[0].Error, "escapes scripts root")
	assert.Equal(t, int32(0), calls.Load(), "rejected before any process is launched")
}

func TestDispatch_NonZeroExitIsFailed(t *testing.T) {
	root := scriptDir(t, "hook.sh")

	launcher := launcherFunc(func(ctx context.Context, inv Invocation) (ExecResult, error) {
		return ExecResult{ExitCode: 7, Stderr: "something broke"}, nil
	})

	cfg := baseConfig(root)
	cfg.Settings = []config.ScriptSetting{binarySetting("s", root, event.PlaybackStart)}

	o := newTestOrchestrator(cfg, launcher)
	results := o.Dispatch(context.Background(), event.Data{Type: event.PlaybackStart})

	require.Len(t, results, 1)
	assert.Equal(t, OutcomeFailed, results[0].Outcome)
	assert.Equal(t, 7, results[0].ExitCode)
	assert.Equal(t, "something broke", results[0].StderrTail)
}

func TestRun_ConsumesChannel(t *testing.T) {
	root := scriptDir(t, "hook.sh")
	var calls atomic.Int32

	cfg := baseConfig(root)
	cfg.Settings = []config.ScriptSetting{binarySetting("s", root, event.PlaybackStart)}
	o := newTestOrchestrator(cfg, okLauncher(&calls))

	ch := make(chan event.Data, 2)
	ch <- event.Data{Type: event.PlaybackStart}
	ch <- event.Data{Type: event.PlaybackStart}
	close(ch)

	err := o.Run(context.Background(), ch)
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}
