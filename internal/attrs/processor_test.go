package attrs

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vmunix/scriptarr/internal/config"
	"github.com/vmunix/scriptarr/internal/event"
)

func newTestProcessor() *Processor {
	return NewProcessor(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestProcess_ArgumentOrderPreserved(t *testing.T) {
	p := newTestProcessor()
	ev := event.Data{Type: event.PlaybackStart, UserName: "alice", ItemName: "The Matrix"}

	args, env := p.Process([]config.DataAttribute{
		{Name: "user", Source: "UserName", Format: config.FormatArgument},
		{Name: "item", Source: "ItemName", Format: config.FormatString},
	}, ev)

	assert.Equal(t, []string{"--user", "alice", "--item", "The Matrix"}, args)
	assert.Empty(t, env)
}

func TestProcess_EnvironmentKeyNormalization(t *testing.T) {
	p := newTestProcessor()
	ev := event.Data{Type: event.PlaybackStart}

	_, env := p.Process([]config.DataAttribute{
		{Name: "event-type", Source: "EventType", Format: config.FormatEnvironment},
	}, ev)

	require.Contains(t, env, "EVENT_TYPE")
	assert.Equal(t, "PlaybackStart", env["EVENT_TYPE"])
}

func TestProcess_RequiredEmptySkipped(t *testing.T) {
	p := newTestProcessor()
	ev := event.Data{Type: event.ItemAdded, ItemName: "Show"}

	args, _ := p.Process([]config.DataAttribute{
		{Name: "user", Source: "UserName", Format: config.FormatArgument, Required: true},
		{Name: "item", Source: "ItemName", Format: config.FormatArgument},
	}, ev)

	// The required-but-empty attribute is skipped; the rest still emit.
	assert.Equal(t, []string{"--item", "Show"}, args)
}

func TestProcess_OptionalEmptyUsesDefault(t *testing.T) {
	p := newTestProcessor()
	ev := event.Data{Type: event.ItemAdded}

	args, _ := p.Process([]config.DataAttribute{
		{Name: "rating", Source: "ContentRating", Format: config.FormatArgument, Default: "NR"},
	}, ev)

	assert.Equal(t, []string{"--rating", "NR"}, args)
}

func TestProcess_JSONFormat(t *testing.T) {
	p := newTestProcessor()
	ev := event.Data{
		Type: event.PlaybackStart,
		Extra: map[string]string{
			"Payload": ` {"b": 1, "a": "x"} `,
			"Plain":   "just text",
		},
	}

	args, _ := p.Process([]config.DataAttribute{
		{Name: "payload", Source: "Payload", Format: config.FormatJSON},
		{Name: "plain", Source: "Plain", Format: config.FormatJSON},
	}, ev)

	require.Len(t, args, 4)
	assert.Equal(t, "--payload", args[0])
	assert.JSONEq(t, `{"a":"x","b":1}`, args[1])
	assert.Equal(t, "--plain", args[2])
	// Non-JSON values get wrapped as a JSON string literal.
	assert.Equal(t, `"just text"`, args[3])
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "EVENT_TYPE", EnvKey("event-type"))
	assert.Equal(t, "USER_NAME", EnvKey("user_name"))
	assert.Equal(t, "ITEM", EnvKey("item"))
}
