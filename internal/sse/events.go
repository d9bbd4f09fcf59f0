// Package sse implements Server-Sent Events for pushing reader settings changes to clients.
package sse

import (
	"time"

	"github.com/listenupapp/listenup-reader/internal/domain"
)

// EventType represents the type of SSE Event.
type EventType string

const (
	// EventReaderSettingsUpdated is sent to a reader when their stored settings change.
	EventReaderSettingsUpdated EventType = "reader_settings.updated"
	// EventReaderSettingsReset is sent to a reader when their settings are deleted.
	EventReaderSettingsReset EventType = "reader_settings.reset"
	// EventReaderDefaultsChanged is broadcast to everyone when application defaults reload.
	EventReaderDefaultsChanged EventType = "reader_defaults.changed"

	// EventHeartbeat represents a connection keepalive event.
	EventHeartbeat EventType = "heartbeat"
)

// Sources of a settings change.
const (
	SourceUpdate  = "update"
	SourceReplace = "replace"
	SourceImport  = "import"
)

// Event represents an SSE event to be sent to clients.
// The Data field contains the event payload as a JSON object for direct deserialization.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
	Type      EventType `json:"type"`

	// UserID restricts delivery to one reader. Empty means broadcast to all.
	UserID string `json:"-"`
}

// ReaderSettingsUpdatedEventData is the payload for reader_settings.updated.
type ReaderSettingsUpdatedEventData struct {
	UserID        string                `json:"user_id"`
	Revision      string                `json:"revision"`
	Source        string                `json:"source"`
	ChangedFields []string              `json:"changed_fields"`
	Settings      domain.ReaderSettings `json:"settings"`
	UpdatedAt     time.Time             `json:"updated_at"`
}

// ReaderSettingsResetEventData is the payload for reader_settings.reset.
type ReaderSettingsResetEventData struct {
	UserID           string `json:"user_id"`
	PreviousRevision string `json:"previous_revision"`
}

// ReaderDefaultsChangedEventData is the payload for reader_defaults.changed.
type ReaderDefaultsChangedEventData struct {
	Defaults domain.Defaults `json:"defaults"`
}

// HeartbeatEventData is the data payload for heartbeat events.
type HeartbeatEventData struct {
	ServerTime time.Time `json:"server_time"`
}

// NewReaderSettingsUpdatedEvent creates a reader_settings.updated event addressed to the profile owner.
func NewReaderSettingsUpdatedEvent(profile *domain.ReaderProfile, source string, changed []string) Event {
	if changed == nil {
		changed = []string{}
	}
	return Event{
		Type: EventReaderSettingsUpdated,
		Data: ReaderSettingsUpdatedEventData{
			UserID:        profile.UserID,
			Revision:      profile.Revision,
			Source:        source,
			ChangedFields: changed,
			Settings:      profile.Settings.Clone(),
			UpdatedAt:     profile.UpdatedAt,
		},
		Timestamp: time.Now(),
		UserID:    profile.UserID,
	}
}

// NewReaderSettingsResetEvent creates a reader_settings.reset event addressed to userID.
func NewReaderSettingsResetEvent(userID, previousRevision string) Event {
	return Event{
		Type: EventReaderSettingsReset,
		Data: ReaderSettingsResetEventData{
			UserID:           userID,
			PreviousRevision: previousRevision,
		},
		Timestamp: time.Now(),
		UserID:    userID,
	}
}

// NewReaderDefaultsChangedEvent creates a broadcast reader_defaults.changed event.
func NewReaderDefaultsChangedEvent(d domain.Defaults) Event {
	return Event{
		Type:      EventReaderDefaultsChanged,
		Data:      ReaderDefaultsChangedEventData{Defaults: d},
		Timestamp: time.Now(),
	}
}

// NewHeartbeatEvent creates a heartbeat event.
func NewHeartbeatEvent() Event {
	return Event{
		Type: EventHeartbeat,
		Data: HeartbeatEventData{
			ServerTime: time.Now(),
		},
		Timestamp: time.Now(),
	}
}
