package executor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestParseCategory(t *testing.T) {
	c, err := ParseCategory("python")
	require.NoError(t, err)
	assert.Equal(t, Python, c)

	_, err = ParseCategory("ruby")
	assert.Error(t, err)
}

func TestResolve_BinaryNeedsNoInterpreter(t *testing.T) {
	r := NewResolver("", testLogger())
	assert.Equal(t, "", r.Resolve(context.Background(), Binary, ""))
}

func TestResolve_ExplicitOverrideWins(t *testing.T) {
	r := NewResolver("", testLogger())
	r.probe = func(ctx context.Context, path string, args ...string) (string, error) {
		t.Fatal("override must not be probed")
		return "", nil
	}

	got := r.Resolve(context.Background(), Python, "/opt/custom/python3")
	assert.Equal(t, "/opt/custom/python3", got)
}

func TestResolve_AutoSentinelTriggersProbing(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix candidate layout")
	}
	bundle := t.TempDir()
	bin := filepath.Join(bundle, "python3")
	require.NoError(t, os.WriteFile(bin, []byte("#!/bin/sh\n"), 0o755))

	r := NewResolver(bundle, testLogger())
	r.probe = func(ctx context.Context, path string, args ...string) (string, error) {
		if path == bin {
			return "Python 3.12.1", nil
		}
		return "", errors.New("not here")
	}

	got := r.Resolve(context.Background(), Python, AutoSentinel)
	assert.Equal(t, bin, got)
}

func TestResolve_PythonMarkerRequired(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix candidate layout")
	}
	bundle := t.TempDir()
	fake := filepath.Join(bundle, "python3")
	require.NoError(t, os.WriteFile(fake, []byte("#!/bin/sh\n"), 0o755))

	r := NewResolver(bundle, testLogger())
	r.probe = func(ctx context.Context, path string, args ...string) (string, error) {
		return "not an interpreter", nil // exit 0 but wrong banner
	}

	got := r.Resolve(context.Background(), Python, "")
	assert.NotEqual(t, fake, got, "candidate without Python marker must be rejected")
}

func TestResolve_FallbackWhenNothingValidates(t *testing.T) {
	r := NewResolver("", testLogger())
	r.probe = func(ctx context.Context, path string, args ...string) (string, error) {
		return "", errors.New("probe failed")
	}

	got := r.Resolve(context.Background(), Node, "")
	assert.Equal(t, defaultCommand(Node), got, "fallback keeps execution attemptable")
}

func TestResolve_CachesFirstHit(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix candidate layout")
	}
	bundle := t.TempDir()
	bin := filepath.Join(bundle, "bash")
	require.NoError(t, os.WriteFile(bin, []byte("#!/bin/sh\n"), 0o755))

	var probes atomic.Int32
	r := NewResolver(bundle, testLogger())
	r.probe = func(ctx context.Context, path string, args ...string) (string, error) {
		probes.Add(1)
		return "GNU bash, version 5.2", nil
	}

	first := r.Resolve(context.Background(), Bash, "")
	second := r.Resolve(context.Background(), Bash, "")
	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), probes.Load(), "second resolve must hit the cache")
}
