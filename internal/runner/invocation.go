package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"

	"github.com/vmunix/scriptarr/internal/config"
	"github.com/vmunix/scriptarr/internal/event"
	"github.com/vmunix/scriptarr/internal/executor"
)

// ErrOutsideRoot marks a script name that escapes the scripts root.
var ErrOutsideRoot = errors.New("script path escapes scripts root")

// Invocation is one fully built process launch: executable, arguments,
// environment entries (K=V, merged over the daemon environment), and
// working directory.
type Invocation struct {
	Path string
	Args []string
	Env  []string
	Dir  string
}

// ResolveScriptPath joins name against root and verifies the normalized
// result stays under root. Absolute names and traversal are rejected as
// configuration errors.
func ResolveScriptPath(root, name string) (string, error) {
	if name == "" {
		return "", errors.New("script name is empty")
	}
	if filepath.IsAbs(name) {
		return "", fmt.Errorf("script name %q must be relative to the scripts root", name)
	}
	rootAbs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolve scripts root: %w", err)
	}
	joined := filepath.Join(rootAbs, name)
	rel, err := filepath.Rel(rootAbs, joined)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q", ErrOutsideRoot, name)
	}
	return joined, nil
}

// buildInvocation turns one setting plus one event into a process
// invocation. Configuration problems (missing script, traversal) are
// returned as errors and surface as a skipped setting.
func (o *Orchestrator) buildInvocation(ctx context.Context, s config.ScriptSetting, g config.GlobalSettings, ev event.Data) (Invocation, error) {
	scriptPath, err := ResolveScriptPath(s.EffectiveRoot(g), s.ScriptName)
	if err != nil {
		return Invocation{}, err
	}
	if _, err := os.Stat(scriptPath); err != nil {
		return Invocation{}, fmt.Errorf("script not found: %w", err)
	}

	cat, err := executor.ParseCategory(s.Executor)
	if err != nil {
		return Invocation{}, err
	}
	interpreter := o.resolver.Resolve(ctx, cat, s.ExecutablePath)

	var inv Invocation
	if interpreter != "" {
		inv.Path = interpreter
		inv.Args = []string{scriptPath}
	} else {
		inv.Path = scriptPath
	}

	if s.Mode == config.ModeJSONPayload || len(s.Attributes) == 0 {
		payload, err := json.Marshal(ev)
		if err != nil {
			return Invocation{}, fmt.Errorf("marshal event payload: %w", err)
		}
		inv.Args = append(inv.Args, string(payload))
	} else {
		args, env := o.attrs.Process(s.Attributes, ev)
		inv.Args = append(inv.Args, args...)
		for k, v := range env {
			inv.Env = append(inv.Env, k+"="+v)
		}
	}

	// Free-form extra arguments always go last.
	inv.Args = append(inv.Args, SplitArgs(s.ExtraArgs)...)

	if s.WorkingDir != "" {
		inv.Dir = s.WorkingDir
	} else {
		inv.Dir = filepath.Dir(scriptPath)
	}
	return inv, nil
}
