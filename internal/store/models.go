package store

import "time"

type User struct {
	ID             int64     `json:"id"`
	ExternalUserID string    `json:"external_user_id"`
	PasswordHash   string    `json:"-"` // Do not expose this in JSON responses
	KnownTags      []string  `json:"known_tags"`
	CreatedAt      time.Time `json:"created_at"`
}

// InboxEntry is a raw user-submitted thought waiting to be sorted.
// The timestamp is an opaque caller-supplied token, never parsed as a date.
type InboxEntry struct {
	ID        string    `json:"id"` // Using UUID for external ID
	UserID    int64     `json:"-"`
	Text      string    `json:"text"`
	Timestamp string    `json:"timestamp"`
	CreatedAt time.Time `json:"created_at"`
}

// ArchiveRecord is a write-once snapshot of every inbox entry consumed by one
// sort run, kept so raw input survives any downstream failure.
type ArchiveRecord struct {
	ID         string       `json:"id"` // Using UUID for external ID
	UserID     int64        `json:"-"`
	SortRunID  string       `json:"sort_run_id"`
	Entries    []InboxEntry `json:"entries"`
	ArchivedAt time.Time    `json:"archived_at"`
}

// Note is one structured output of a sort run. OriginalText must stay
// byte-identical to the source inbox entry's text.
type Note struct {
	ID           string    `json:"id"` // Using UUID for external ID
	UserID       int64     `json:"-"`
	OriginalText string    `json:"originalText"`
	Timestamp    string    `json:"timestamp"`
	Filename     string    `json:"filename"`
	Tags         []string  `json:"tags"`
	AINote       string    `json:"aiNote"`
	SortRunID    string    `json:"sort_run_id"`
	CreatedAt    time.Time `json:"created_at"`
}
