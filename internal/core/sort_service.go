package core

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"thoughtsort/internal/store"
)

// SortStore is the slice of the document store a sort run touches.
type SortStore interface {
	GetInboxEntries(userID int64) ([]store.InboxEntry, error)
	CreateArchiveRecord(userID int64, sortRunID string, entries []store.InboxEntry) (*store.ArchiveRecord, error)
	GetKnownTags(userID int64) ([]string, error)
	CreateNote(note *store.Note) error
	DeleteInboxEntries(userID int64, entryIDs []string) error
}

type SortResult struct {
	Count      int
	EmptyInbox bool // true only when the run found nothing to sort
}

// SortService runs the pipeline that turns a user's pending inbox entries
// into structured notes: read, archive, invoke the model, parse, persist,
// clear. Steps run strictly in that order; every failure leaves the inbox
// intact except a clearing failure, where the archive record still holds the
// raw input.
type SortService struct {
	dbStore SortStore
	llm     Generator

	mu      sync.Mutex
	running map[int64]struct{}
}

func NewSortService(db SortStore, llm Generator) *SortService {
	return &SortService{
		dbStore: db,
		llm:     llm,
		running: make(map[int64]struct{}),
	}
}

func (s *SortService) Run(ctx context.Context, userID int64) (*SortResult, error) {
	// Two concurrent runs for one user would read the same entries and
	// double-process them, so the second caller is turned away instead.
	if !s.acquire(userID) {
		return nil, ErrSortInProgress
	}
	defer s.release(userID)

	// Reading
	entries, err := s.dbStore.GetInboxEntries(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to read inbox: %w", err)
	}
	if len(entries) == 0 {
		// An empty inbox is a successful no-op: no archive, no model call.
		return &SortResult{Count: 0, EmptyInbox: true}, nil
	}

	// Archiving. The snapshot must exist before anything is deleted, so a
	// failure further down never loses the raw input permanently.
	sortRunID := time.Now().UTC().Format("2006-01-02 15:04")
	if _, err := s.dbStore.CreateArchiveRecord(userID, sortRunID, entries); err != nil {
		return nil, fmt.Errorf("failed to archive inbox snapshot: %w", err)
	}

	// Invoking
	knownTags, err := s.dbStore.GetKnownTags(userID)
	if err != nil {
		log.Printf("Failed to load known tags for user %d, sorting without hints: %v", userID, err)
		knownTags = nil
	}
	prompt := BuildSortPrompt(entries, knownTags)
	raw, err := s.llm.Generate(ctx, prompt, SortGenerateOptions)
	if err != nil {
		return nil, err // ModelError; inbox intact, archive kept, run retryable
	}

	// Parsing
	notes, err := ParseNoteArray(raw)
	if err != nil {
		return nil, err // ParseError; nothing persisted yet
	}

	// Persisting. Notes go in one at a time so a mid-batch store failure
	// reports the exact committed count instead of claiming full success.
	committed := 0
	for i := range notes {
		notes[i].UserID = userID
		notes[i].SortRunID = sortRunID
		notes[i].CreatedAt = time.Now().UTC()
		if err := s.dbStore.CreateNote(&notes[i]); err != nil {
			return nil, &PersistenceError{Op: "persist", Committed: committed, Expected: len(notes), Cause: err}
		}
		committed++
	}

	// Clearing. Only runs once every note is confirmed in the store; the
	// delete itself is a single transaction.
	entryIDs := make([]string, 0, len(entries))
	for _, entry := range entries {
		entryIDs = append(entryIDs, entry.ID)
	}
	if err := s.dbStore.DeleteInboxEntries(userID, entryIDs); err != nil {
		return nil, &PersistenceError{Op: "clear", Committed: committed, Expected: len(notes), Cause: err}
	}

	log.Printf("Sort run %s for user %d: %d entries -> %d notes", sortRunID, userID, len(entries), len(notes))
	return &SortResult{Count: len(notes)}, nil
}

func (s *SortService) acquire(userID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.running[userID]; busy {
		return false
	}
	s.running[userID] = struct{}{}
	return true
}

func (s *SortService) release(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.running, userID)
}
