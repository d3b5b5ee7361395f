package executor

import (
	"context"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"
)

const defaultProbeTimeout = 5 * time.Second

// AutoSentinel in a configured executable path means "discover for me".
const AutoSentinel = "auto"

// candidate is one interpreter location to try, with the arguments that
// make it print its version and exit.
type candidate struct {
	path   string
	args   []string
	marker string // required substring of the probe output, if any
}

// probeFunc runs a candidate and returns its combined output. Injectable
// so tests don't spawn real interpreters.
type probeFunc func(ctx context.Context, path string, args ...string) (string, error)

// Resolver discovers a launchable interpreter path per executor category.
// Successful probes are cached per category; the cache is read-mostly and
// safe for concurrent use.
type Resolver struct {
	bundleDir    string
	probeTimeout time.Duration
	logger       *slog.Logger
	probe        probeFunc
	cache        sync.Map // Category -> string
}

// NewResolver creates a Resolver. bundleDir optionally names a directory
// holding bundled runtimes, probed before system locations.
func NewResolver(bundleDir string, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		bundleDir:    bundleDir,
		probeTimeout: defaultProbeTimeout,
		logger:       logger,
		probe:        runProbe,
	}
}

// Resolve returns a concrete interpreter path for cat, or "" for direct
// binary execution. An explicit override that is neither empty, the auto
// sentinel, nor the category's default command always wins unprobed.
// If no candidate validates, a best-guess fallback is returned so the
// launch still happens and fails with a clear "not found" error.
func (r *Resolver) Resolve(ctx context.Context, cat Category, override string) string {
	if cat == Binary {
		return ""
	}
	if override != "" && override != AutoSentinel && override != defaultCommand(cat) {
		return override
	}
	if cached, ok := r.cache.Load(cat); ok {
		return cached.(string)
	}

	for _, c := range r.candidates(cat) {
		path := c.path
		if !filepath.IsAbs(path) {
			found, err := exec.LookPath(path)
			if err != nil {
				continue
			}
			path = found
		} else if _, err := os.Stat(path); err != nil {
			continue
		}

		probeCtx, cancel := context.WithTimeout(ctx, r.probeTimeout)
		out, err := r.probe(probeCtx, path, c.args...)
		cancel()
		if err != nil {
			r.logger.Debug("interpreter probe failed", "category", cat, "path", path, "error", err)
			continue
		}
		if c.marker != "" && !strings.Contains(out, c.marker) {
			r.logger.Debug("interpreter probe missing marker", "category", cat, "path", path, "marker", c.marker)
			continue
		}

		r.logger.Info("interpreter resolved", "category", cat, "path", path)
		r.cache.Store(cat, path)
		return path
	}

	fallback := defaultCommand(cat)
	r.logDiagnostics(cat, fallback)
	return fallback
}

// runProbe executes path with args and returns combined output. The
// context deadline forcibly terminates overrunning probes.
func runProbe(ctx context.Context, path string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, path, args...)
	out, err := cmd.CombinedOutput()
	return string(out), err
}

// candidates returns the ordered probe list for a category: bundled
// runtime first, then common install prefixes, version-suffixed
// variants, and finally bare commands resolved via PATH.
func (r *Resolver) candidates(cat Category) []candidate {
	var names []string
	var args []string
	marker := ""

	switch cat {
	case Python:
		names = []string{"python3", "python"}
		for _, v := range []string{"3.13", "3.12", "3.11", "3.10", "3.9"} {
			names = append(names, "python"+v)
		}
		args = []string{"--version"}
		marker = "Python"
	case PowerShell:
		names = []string{"pwsh", "powershell"}
		args = []string{"-NoProfile", "-Version"}
	case Bash:
		names = []string{"bash"}
		args = []string{"--version"}
	case Node:
		names = []string{"node", "nodejs"}
		args = []string{"--version"}
	default:
		return nil
	}

	var out []candidate
	if r.bundleDir != "" {
		for _, n := range names {
			out = append(out, candidate{path: filepath.Join(r.bundleDir, exeName(n)), args: args, marker: marker})
		}
	}
	for _, prefix := range installPrefixes() {
		for _, n := range names {
			out = append(out, candidate{path: filepath.Join(prefix, exeName(n)), args: args, marker: marker})
		}
	}
	if runtime.GOOS == "windows" && cat == Python {
		for _, v := range []string{"313", "312", "311", "310"} {
			out = append(out, candidate{path: `C:\Python` + v + `\python.exe`, args: args, marker: marker})
		}
	}
	for _, n := range names {
		out = append(out, candidate{path: exeName(n), args: args, marker: marker})
	}
	return out
}

func installPrefixes() []string {
	if runtime.GOOS == "windows" {
		return []string{`C:\Program Files`, `C:\Program Files (x86)`}
	}
	return []string{"/usr/local/bin", "/usr/bin", "/opt/homebrew/bin"}
}

func exeName(name string) string {
	if runtime.GOOS == "windows" {
		return name + ".exe"
	}
	return name
}

// defaultCommand is the well-known platform default for a category; also
// the best-guess fallback when probing finds nothing.
func defaultCommand(cat Category) string {
	switch cat {
	case Python:
		if runtime.GOOS == "windows" {
			return "python"
		}
		return "python3"
	case PowerShell:
		if runtime.GOOS == "windows" {
			return "powershell"
		}
		return "pwsh"
	case Bash:
		return "bash"
	case Node:
		return "node"
	default:
		return ""
	}
}

func (r *Resolver) logDiagnostics(cat Category, fallback string) {
	attrs := []any{
		"category", cat,
		"fallback", fallback,
		"os", runtime.GOOS,
		"arch", runtime.GOARCH,
		"path_entries", len(filepath.SplitList(os.Getenv("PATH"))),
	}
	for _, dir := range installPrefixes() {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			if n := e.Name(); strings.Contains(n, string(cat)) || strings.HasPrefix(n, "python") || strings.HasPrefix(n, "node") {
				names = append(names, n)
			}
		}
		if len(names) > 0 {
			attrs = append(attrs, "dir_"+dir, strings.Join(names, ","))
		}
	}
	r.logger.Warn("no interpreter validated, using fallback", attrs...)
}
