// Package event defines the media-server event model consumed by the
// script execution pipeline.
package event

import (
	"fmt"
	"time"
)

// Type identifies a media-server lifecycle event.
type Type string

const (
	PlaybackStart       Type = "PlaybackStart"
	PlaybackStop        Type = "PlaybackStop"
	PlaybackPause       Type = "PlaybackPause"
	PlaybackResume      Type = "PlaybackResume"
	ItemAdded           Type = "ItemAdded"
	ItemUpdated         Type = "ItemUpdated"
	ItemRemoved         Type = "ItemRemoved"
	UserCreated         Type = "UserCreated"
	UserUpdated         Type = "UserUpdated"
	UserDeleted         Type = "UserDeleted"
	SessionStart        Type = "SessionStart"
	SessionEnd          Type = "SessionEnd"
	ServerStartup       Type = "ServerStartup"
	ServerShutdown      Type = "ServerShutdown"
	SeriesEpisodesAdded Type = "SeriesEpisodesAdded"
)

// Types lists every known event type.
var Types = []Type{
	PlaybackStart, PlaybackStop, PlaybackPause, PlaybackResume,
	ItemAdded, ItemUpdated, ItemRemoved,
	UserCreated, UserUpdated, UserDeleted,
	SessionStart, SessionEnd,
	ServerStartup, ServerShutdown,
	SeriesEpisodesAdded,
}

var typeSet = func() map[Type]bool {
	m := make(map[Type]bool, len(Types))
	for _, t := range Types {
		m[t] = true
	}
	return m
}()

// ParseType validates a string as a known event type.
func ParseType(s string) (Type, error) {
	t := Type(s)
	if !typeSet[t] {
		return "", fmt.Errorf("unknown event type: %q", s)
	}
	return t, nil
}

func (t Type) String() string { return string(t) }

// Valid reports whether t is a member of the closed enumeration.
func (t Type) Valid() bool { return typeSet[t] }

// Episode is one sub-record of a batched SeriesEpisodesAdded event.
type Episode struct {
	ItemID  string `json:"item_id"`
	Name    string `json:"name"`
	Season  int    `json:"season"`
	Episode int    `json:"episode"`
}

// Data is an immutable snapshot of one host event and its media/user
// context. Created fresh per event by the event source; read-only within
// the execution pipeline.
type Data struct {
	Type      Type      `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`

	UserID     string `json:"user_id,omitempty"`
	UserName   string `json:"user_name,omitempty"`
	SessionID  string `json:"session_id,omitempty"`
	DeviceID   string `json:"device_id,omitempty"`
	DeviceName string `json:"device_name,omitempty"`
	ClientName string `json:"client_name,omitempty"`

	ItemID   string `json:"item_id,omitempty"`
	ItemName string `json:"item_name,omitempty"`
	ItemType string `json:"item_type,omitempty"`
	ItemPath string `json:"item_path,omitempty"`

	SeriesName    string `json:"series_name,omitempty"`
	SeasonNumber  int    `json:"season_number,omitempty"`
	EpisodeNumber int    `json:"episode_number,omitempty"`
	Year          int    `json:"year,omitempty"`

	Genres        []string `json:"genres,omitempty"`
	ContentRating string   `json:"content_rating,omitempty"`

	// Extra holds open-ended scalar data keyed by name, e.g. playback
	// position or provider IDs the fixed fields don't cover.
	Extra map[string]string `json:"extra,omitempty"`

	// Episodes carries the sub-records of a batched SeriesEpisodesAdded.
	Episodes []Episode `json:"episodes,omitempty"`
}

// New returns a Data stamped with the current time.
func New(t Type) Data {
	return Data{Type: t, Timestamp: time.Now().UTC()}
}
