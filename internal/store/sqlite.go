package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dataSourceName string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err = db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err = store.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	schema := `
    CREATE TABLE IF NOT EXISTS users (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        external_user_id TEXT UNIQUE NOT NULL,
        password_hash TEXT NOT NULL,
        known_tags_json TEXT NOT NULL DEFAULT '[]',
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP
    );

    CREATE TABLE IF NOT EXISTS inbox_entries (
        id TEXT PRIMARY KEY, -- UUID
        user_id INTEGER NOT NULL,
        text TEXT NOT NULL,
        timestamp TEXT NOT NULL,
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
        FOREIGN KEY (user_id) REFERENCES users (id)
    );

    CREATE TABLE IF NOT EXISTS archive_records (
        id TEXT PRIMARY KEY, -- UUID
        user_id INTEGER NOT NULL,
        sort_run_id TEXT NOT NULL,
        entries_json TEXT NOT NULL, -- Snapshot of the consumed inbox entries
        archived_at DATETIME DEFAULT CURRENT_TIMESTAMP,
        FOREIGN KEY (user_id) REFERENCES users (id)
    );

    CREATE TABLE IF NOT EXISTS notes (
        id TEXT PRIMARY KEY, -- UUID
        user_id INTEGER NOT NULL,
        original_text TEXT NOT NULL,
        timestamp TEXT NOT NULL,
        filename TEXT NOT NULL,
        tags_json TEXT NOT NULL, -- Storing as JSON string of []string
        ai_note TEXT NOT NULL DEFAULT '',
        sort_run_id TEXT NOT NULL,
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
        FOREIGN KEY (user_id) REFERENCES users (id)
    );
    `
	_, err := s.db.Exec(schema)
	return err
}

// User methods
func (s *SQLiteStore) GetUserByExternalID(externalUserID string) (*User, error) {
	var user User
	var knownTagsJSON string
	err := s.db.QueryRow("SELECT id, external_user_id, password_hash, known_tags_json, created_at FROM users WHERE external_user_id = ?", externalUserID).Scan(&user.ID, &user.ExternalUserID, &user.PasswordHash, &knownTagsJSON, &user.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // User not found
		}
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	user.KnownTags = unmarshalStringList(knownTagsJSON)
	return &user, nil
}

func (s *SQLiteStore) CreateUser(externalUserID, passwordHash string) (*User, error) {
	res, err := s.db.Exec("INSERT INTO users (external_user_id, password_hash) VALUES (?, ?)", externalUserID, passwordHash)
	if err != nil {
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}
	id, _ := res.LastInsertId()
	return s.getUserByID(id)
}

func (s *SQLiteStore) getUserByID(id int64) (*User, error) {
	var user User
	var knownTagsJSON string
	err := s.db.QueryRow("SELECT id, external_user_id, password_hash, known_tags_json, created_at FROM users WHERE id = ?", id).Scan(&user.ID, &user.ExternalUserID, &user.PasswordHash, &knownTagsJSON, &user.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}
	user.KnownTags = unmarshalStringList(knownTagsJSON)
	return &user, nil
}

// Settings methods. Known tags live on the user row and are replaced
// wholesale, merge-style against the rest of the row.
func (s *SQLiteStore) UpdateKnownTags(userID int64, knownTags []string) error {
	tagsJSON, err := json.Marshal(knownTags)
	if err != nil {
		return fmt.Errorf("failed to marshal known tags: %w", err)
	}

	res, err := s.db.Exec("UPDATE users SET known_tags_json = ? WHERE id = ?", string(tagsJSON), userID)
	if err != nil {
		return fmt.Errorf("failed to update known tags: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("user not found, known tags not updated")
	}
	return nil
}

func (s *SQLiteStore) GetKnownTags(userID int64) ([]string, error) {
	var knownTagsJSON string
	err := s.db.QueryRow("SELECT known_tags_json FROM users WHERE id = ?", userID).Scan(&knownTagsJSON)
	if err != nil {
		if err == sql.ErrNoRows {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to query known tags: %w", err)
	}
	return unmarshalStringList(knownTagsJSON), nil
}

// InboxEntry methods
func (s *SQLiteStore) AddInboxEntry(userID int64, text, timestamp string) (*InboxEntry, error) {
	entry := InboxEntry{
		ID:        uuid.NewString(),
		UserID:    userID,
		Text:      text,
		Timestamp: timestamp,
		CreatedAt: time.Now(),
	}

	stmt, err := s.db.Prepare("INSERT INTO inbox_entries (id, user_id, text, timestamp, created_at) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		return nil, fmt.Errorf("failed to prepare inbox insert: %w", err)
	}
	defer stmt.Close()

	_, err = stmt.Exec(entry.ID, entry.UserID, entry.Text, entry.Timestamp, entry.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to execute inbox insert: %w", err)
	}
	return &entry, nil
}

// GetInboxEntries returns all pending entries for a user in insertion order.
func (s *SQLiteStore) GetInboxEntries(userID int64) ([]InboxEntry, error) {
	rows, err := s.db.Query("SELECT id, user_id, text, timestamp, created_at FROM inbox_entries WHERE user_id = ? ORDER BY created_at ASC, id ASC", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query inbox entries: %w", err)
	}
	defer rows.Close()

	var entries []InboxEntry
	for rows.Next() {
		var entry InboxEntry
		if err := rows.Scan(&entry.ID, &entry.UserID, &entry.Text, &entry.Timestamp, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan inbox row: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// DeleteInboxEntries removes the given entries in a single transaction, so a
// sort run's clearing step is all-or-nothing.
func (s *SQLiteStore) DeleteInboxEntries(userID int64, entryIDs []string) error {
	if len(entryIDs) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin delete transaction: %w", err)
	}

	stmt, err := tx.Prepare("DELETE FROM inbox_entries WHERE id = ? AND user_id = ?")
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to prepare inbox delete: %w", err)
	}
	defer stmt.Close()

	for _, id := range entryIDs {
		if _, err := stmt.Exec(id, userID); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to delete inbox entry %s: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit inbox delete: %w", err)
	}
	return nil
}

// ArchiveRecord methods
func (s *SQLiteStore) CreateArchiveRecord(userID int64, sortRunID string, entries []InboxEntry) (*ArchiveRecord, error) {
	entriesJSON, err := json.Marshal(entries)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal archive snapshot: %w", err)
	}

	record := ArchiveRecord{
		ID:         uuid.NewString(),
		UserID:     userID,
		SortRunID:  sortRunID,
		Entries:    entries,
		ArchivedAt: time.Now(),
	}

	stmt, err := s.db.Prepare("INSERT INTO archive_records (id, user_id, sort_run_id, entries_json, archived_at) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		return nil, fmt.Errorf("failed to prepare archive insert: %w", err)
	}
	defer stmt.Close()

	_, err = stmt.Exec(record.ID, record.UserID, record.SortRunID, string(entriesJSON), record.ArchivedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to execute archive insert: %w", err)
	}
	return &record, nil
}

func (s *SQLiteStore) GetArchiveRecords(userID int64) ([]ArchiveRecord, error) {
	rows, err := s.db.Query("SELECT id, user_id, sort_run_id, entries_json, archived_at FROM archive_records WHERE user_id = ? ORDER BY archived_at DESC", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query archive records: %w", err)
	}
	defer rows.Close()

	var records []ArchiveRecord
	for rows.Next() {
		var record ArchiveRecord
		var entriesJSON string
		if err := rows.Scan(&record.ID, &record.UserID, &record.SortRunID, &entriesJSON, &record.ArchivedAt); err != nil {
			return nil, fmt.Errorf("failed to scan archive row: %w", err)
		}
		if err := json.Unmarshal([]byte(entriesJSON), &record.Entries); err != nil {
			log.Printf("Warning: failed to unmarshal archive snapshot for record %s: %v", record.ID, err)
			record.Entries = nil
		}
		records = append(records, record)
	}
	return records, nil
}

// Note methods
func (s *SQLiteStore) CreateNote(note *Note) error {
	if note.ID == "" {
		note.ID = uuid.NewString()
	}
	if note.CreatedAt.IsZero() {
		note.CreatedAt = time.Now()
	}

	tagsJSON, err := json.Marshal(note.Tags)
	if err != nil {
		return fmt.Errorf("failed to marshal note tags: %w", err)
	}

	stmt, err := s.db.Prepare("INSERT INTO notes (id, user_id, original_text, timestamp, filename, tags_json, ai_note, sort_run_id, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare note insert: %w", err)
	}
	defer stmt.Close()

	_, err = stmt.Exec(note.ID, note.UserID, note.OriginalText, note.Timestamp, note.Filename, string(tagsJSON), note.AINote, note.SortRunID, note.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to execute note insert: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetNotesByUserID(userID int64) ([]Note, error) {
	rows, err := s.db.Query("SELECT id, user_id, original_text, timestamp, filename, tags_json, ai_note, sort_run_id, created_at FROM notes WHERE user_id = ? ORDER BY timestamp DESC", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query notes: %w", err)
	}
	defer rows.Close()

	var notes []Note
	for rows.Next() {
		note, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		notes = append(notes, *note)
	}
	return notes, nil
}

func (s *SQLiteStore) GetNoteByID(noteID string, userID int64) (*Note, error) {
	row := s.db.QueryRow("SELECT id, user_id, original_text, timestamp, filename, tags_json, ai_note, sort_run_id, created_at FROM notes WHERE id = ? AND user_id = ?", noteID, userID)

	note, err := scanNote(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Not found
		}
		return nil, err
	}
	return note, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNote(row rowScanner) (*Note, error) {
	var note Note
	var tagsJSON string
	err := row.Scan(&note.ID, &note.UserID, &note.OriginalText, &note.Timestamp, &note.Filename, &tagsJSON, &note.AINote, &note.SortRunID, &note.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan note row: %w", err)
	}
	if err := json.Unmarshal([]byte(tagsJSON), &note.Tags); err != nil {
		log.Printf("Warning: failed to unmarshal tags for note %s: %v. Tags will be empty.", note.ID, err)
		note.Tags = []string{}
	}
	if note.Tags == nil {
		note.Tags = []string{}
	}
	return &note, nil
}

func unmarshalStringList(raw string) []string {
	if raw == "" {
		return []string{}
	}
	var list []string
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		log.Printf("Warning: failed to unmarshal string list %q: %v", raw, err)
		return []string{}
	}
	if list == nil {
		return []string{}
	}
	return list
}
