package domain

import "time"

// ReaderSettingsSchemaVersion is the version of the persisted settings shape.
// Version 0 and 1 are the legacy client blobs handled by the legacy package.
const ReaderSettingsSchemaVersion = 2

// ReaderProfile is the persisted settings snapshot for one reader.
// Profiles are replaced on write: a new Revision is assigned on every save.
type ReaderProfile struct {
	UserID        string         `json:"user_id"`
	Settings      ReaderSettings `json:"settings"`
	Revision      string         `json:"revision"`
	SchemaVersion int            `json:"schema_version"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// NewReaderProfile creates an unsaved profile with empty settings.
func NewReaderProfile(userID string) *ReaderProfile {
	return &ReaderProfile{
		UserID:        userID,
		Settings:      NewReaderSettings(),
		SchemaVersion: ReaderSettingsSchemaVersion,
		UpdatedAt:     time.Now(),
	}
}

// IsStored reports whether the profile has been saved at least once.
func (p *ReaderProfile) IsStored() bool {
	return p.Revision != ""
}

// Clone returns a deep copy of the profile.
func (p *ReaderProfile) Clone() *ReaderProfile {
	c := *p
	c.Settings = p.Settings.Clone()
	return &c
}
