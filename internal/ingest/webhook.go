// Package ingest receives media-server webhooks and publishes them as
// events. It is the event-source collaborator of the execution
// pipeline: everything host-specific stops here.
package ingest

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/vmunix/scriptarr/internal/event"
	"github.com/vmunix/scriptarr/internal/events"
)

// WebhookPayload is the normalized payload received from the media
// server's webhook plugin. Field names follow the Jellyfin webhook
// conventions.
type WebhookPayload struct {
	NotificationType string `json:"NotificationType"`

	UserID   string `json:"UserId,omitempty"`
	UserName string `json:"NotificationUsername,omitempty"`

	SessionID  string `json:"SessionId,omitempty"`
	DeviceID   string `json:"DeviceId,omitempty"`
	DeviceName string `json:"DeviceName,omitempty"`
	ClientName string `json:"ClientName,omitempty"`

	ItemID   string `json:"ItemId,omitempty"`
	ItemName string `json:"Name,omitempty"`
	ItemType string `json:"ItemType,omitempty"`
	ItemPath string `json:"ItemPath,omitempty"`

	SeriesName    string `json:"SeriesName,omitempty"`
	SeasonNumber  int    `json:"SeasonNumber,omitempty"`
	EpisodeNumber int    `json:"EpisodeNumber,omitempty"`
	Year          int    `json:"Year,omitempty"`

	Genres         []string `json:"Genres,omitempty"`
	OfficialRating string   `json:"OfficialRating,omitempty"`

	Timestamp string `json:"Timestamp,omitempty"`

	Extra map[string]string `json:"Extra,omitempty"`

	Episodes []WebhookEpisode `json:"Episodes,omitempty"`
}

// WebhookEpisode is one entry of a batched episode notification.
type WebhookEpisode struct {
	ItemID  string `json:"ItemId"`
	Name    string `json:"Name"`
	Season  int    `json:"SeasonNumber"`
	Episode int    `json:"EpisodeNumber"`
}

// Handler accepts webhook posts and publishes them on the bus.
type Handler struct {
	bus    *events.Bus
	logger *slog.Logger
}

func NewHandler(bus *events.Bus, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{bus: bus, logger: logger}
}

// RegisterRoutes registers ingest routes on the given mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /webhook", h.receive)
}

func (h *Handler) receive(w http.ResponseWriter, r *http.Request) {
	var payload WebhookPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid payload: %v", err))
		return
	}

	ev, err := payload.ToEvent()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.bus.Publish(r.Context(), ev); err != nil {
		h.logger.Error("publish failed", "type", ev.Type, "error", err)
		writeError(w, http.StatusInternalServerError, "publish failed")
		return
	}

	h.logger.Debug("event ingested", "type", ev.Type, "item", ev.ItemName, "user", ev.UserName)
	w.WriteHeader(http.StatusAccepted)
}

// ToEvent maps the payload into the pipeline's event record.
func (p WebhookPayload) ToEvent() (event.Data, error) {
	t, err := event.ParseType(p.NotificationType)
	if err != nil {
		return event.Data{}, err
	}

	ev := event.New(t)
	if p.Timestamp != "" {
		if ts, err := time.Parse(time.RFC3339, p.Timestamp); err == nil {
			ev.Timestamp = ts.UTC()
		}
	}
	ev.UserID = p.UserID
	ev.UserName = p.UserName
	ev.SessionID = p.SessionID
	ev.DeviceID = p.DeviceID
	ev.DeviceName = p.DeviceName
	ev.ClientName = p.ClientName
	ev.ItemID = p.ItemID
	ev.ItemName = p.ItemName
	ev.ItemType = p.ItemType
	ev.ItemPath = p.ItemPath
	ev.SeriesName = p.SeriesName
	ev.SeasonNumber = p.SeasonNumber
	ev.EpisodeNumber = p.EpisodeNumber
	ev.Year = p.Year
	ev.Genres = p.Genres
	ev.ContentRating = p.OfficialRating
	ev.Extra = p.Extra
	for _, e := range p.Episodes {
		ev.Episodes = append(ev.Episodes, event.Episode{
			ItemID:  e.ItemID,
			Name:    e.Name,
			Season:  e.Season,
			Episode: e.Episode,
		})
	}
	return ev, nil
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(errorResponse{Error: message})
}
