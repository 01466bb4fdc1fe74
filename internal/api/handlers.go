package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"thoughtsort/internal/auth"
	"thoughtsort/internal/core"
	"thoughtsort/internal/store"
)

type APIHandler struct {
	dbStore     *store.SQLiteStore
	sortService *core.SortService
	noteService *core.NoteService
}

func NewAPIHandler(db *store.SQLiteStore, sorter *core.SortService, noter *core.NoteService) *APIHandler {
	return &APIHandler{
		dbStore:     db,
		sortService: sorter,
		noteService: noter,
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, kind, message string) {
	writeJSON(w, status, map[string]string{"error": message, "kind": kind})
}

// JWTAuthMiddleware resolves the bearer credential to a user. A missing or
// malformed header and a rejected token produce distinct 401 messages.
func (h *APIHandler) JWTAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			writeError(w, http.StatusUnauthorized, "auth_error", "Invalid authorization header")
			return
		}

		tokenString := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		externalUserID, err := auth.ValidateJWT(tokenString)
		if err != nil {
			log.Printf("Auth failed: %v", err)
			writeError(w, http.StatusUnauthorized, "auth_error", "Invalid or expired token")
			return
		}

		user, err := h.dbStore.GetUserByExternalID(externalUserID)
		if err != nil {
			log.Printf("Error in JWTAuthMiddleware for user %s: %v", externalUserID, err)
			writeError(w, http.StatusInternalServerError, "internal", "Failed to process user identity")
			return
		}

		if user == nil {
			writeError(w, http.StatusUnauthorized, "auth_error", "Invalid or expired token")
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, user.ID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type contextKey string

const userIDKey contextKey = "userID"

func userIDFrom(r *http.Request) int64 {
	return r.Context().Value(userIDKey).(int64)
}

type SignupRequest struct {
	UserID   string `json:"user_id"`
	Password string `json:"password"`
}

func (h *APIHandler) SignupHandler(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid request body: "+err.Error())
		return
	}

	if req.UserID == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "User ID and password are required")
		return
	}

	hashedPassword, err := auth.HashPassword(req.Password)
	if err != nil {
		log.Printf("Error hashing password for user %s: %v", req.UserID, err)
		writeError(w, http.StatusInternalServerError, "internal", "Failed to process password")
		return
	}

	user, err := h.dbStore.CreateUser(req.UserID, hashedPassword)
	if err != nil {
		log.Printf("Error creating user %s: %v", req.UserID, err)
		writeError(w, http.StatusInternalServerError, "internal", "Failed to create user")
		return
	}

	writeJSON(w, http.StatusCreated, user)
}

type LoginRequest struct {
	UserID   string `json:"user_id"`
	Password string `json:"password"`
}

func (h *APIHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid request body: "+err.Error())
		return
	}

	if req.UserID == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "User ID and password are required")
		return
	}

	user, err := h.dbStore.GetUserByExternalID(req.UserID)
	if err != nil {
		log.Printf("Error getting user %s: %v", req.UserID, err)
		writeError(w, http.StatusUnauthorized, "auth_error", "Invalid credentials")
		return
	}

	if user == nil || !auth.CheckPasswordHash(req.Password, user.PasswordHash) {
		writeError(w, http.StatusUnauthorized, "auth_error", "Invalid credentials")
		return
	}

	token, err := auth.GenerateJWT(req.UserID)
	if err != nil {
		log.Printf("Error generating JWT for user %s: %v", req.UserID, err)
		writeError(w, http.StatusInternalServerError, "internal", "Failed to generate token")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

type AppendRequest struct {
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
}

func (h *APIHandler) AppendInboxHandler(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r)

	var req AppendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid request body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "Entry text cannot be empty")
		return
	}

	if _, err := h.dbStore.AddInboxEntry(userID, req.Text, req.Timestamp); err != nil {
		log.Printf("Error appending inbox entry for user %d: %v", userID, err)
		writeError(w, http.StatusInternalServerError, "persistence_error", "Failed to append entry")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *APIHandler) SortHandler(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r)

	result, err := h.sortService.Run(r.Context(), userID)
	if err != nil {
		h.writeSortError(w, userID, err)
		return
	}

	// A run that consumed entries but produced zero notes is not the same as
	// an empty inbox; the message only belongs on the no-op short-circuit.
	if result.EmptyInbox {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "message": "Inbox is empty", "count": 0})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "count": result.Count})
}

// writeSortError maps pipeline error kinds onto the wire so callers can tell
// a retryable model/parse failure from a partial persistence failure.
func (h *APIHandler) writeSortError(w http.ResponseWriter, userID int64, err error) {
	var modelErr *core.ModelError
	var parseErr *core.ParseError
	var persistErr *core.PersistenceError

	switch {
	case errors.Is(err, core.ErrSortInProgress):
		writeError(w, http.StatusConflict, "sort_in_progress", err.Error())
	case errors.As(err, &modelErr):
		log.Printf("Sort model error for user %d: %v", userID, modelErr)
		writeError(w, http.StatusBadGateway, "model_error", modelErr.Error())
	case errors.As(err, &parseErr):
		log.Printf("Sort parse error for user %d: %v", userID, parseErr)
		writeError(w, http.StatusBadGateway, "parse_error", parseErr.Error())
	case errors.As(err, &persistErr):
		log.Printf("Sort persistence error for user %d: %v", userID, persistErr)
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"error":     persistErr.Error(),
			"kind":      "persistence_error",
			"committed": persistErr.Committed,
			"expected":  persistErr.Expected,
		})
	default:
		log.Printf("Sort error for user %d: %v", userID, err)
		writeError(w, http.StatusInternalServerError, "internal", "Sort run failed")
	}
}

func (h *APIHandler) ListNotesHandler(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r)

	notes, err := h.dbStore.GetNotesByUserID(userID)
	if err != nil {
		log.Printf("Error listing notes for user %d: %v", userID, err)
		writeError(w, http.StatusInternalServerError, "persistence_error", "Failed to list notes")
		return
	}
	if notes == nil {
		notes = []store.Note{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"notes": notes})
}

func (h *APIHandler) GetNoteHandler(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r)
	noteID := chi.URLParam(r, "noteID")

	note, err := h.dbStore.GetNoteByID(noteID, userID)
	if err != nil {
		log.Printf("Error getting note %s for user %d: %v", noteID, userID, err)
		writeError(w, http.StatusInternalServerError, "persistence_error", "Failed to get note")
		return
	}
	if note == nil {
		writeError(w, http.StatusNotFound, "not_found", "Note not found")
		return
	}
	writeJSON(w, http.StatusOK, note)
}

type SettingsRequest struct {
	KnownTags []string `json:"known_tags"`
}

func (h *APIHandler) SaveSettingsHandler(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r)

	var req SettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid request body: "+err.Error())
		return
	}
	if req.KnownTags == nil {
		req.KnownTags = []string{}
	}

	if err := h.dbStore.UpdateKnownTags(userID, req.KnownTags); err != nil {
		log.Printf("Error saving settings for user %d: %v", userID, err)
		writeError(w, http.StatusInternalServerError, "persistence_error", "Failed to save settings")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *APIHandler) GetSettingsHandler(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r)

	knownTags, err := h.dbStore.GetKnownTags(userID)
	if err != nil {
		log.Printf("Error getting settings for user %d: %v", userID, err)
		writeError(w, http.StatusInternalServerError, "persistence_error", "Failed to get settings")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"known_tags": knownTags})
}

type AnnotateRequest struct {
	Text      string   `json:"text"`
	KnownTags []string `json:"known_tags"`
}

func (h *APIHandler) AnnotateHandler(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r)

	var req AnnotateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid request body: "+err.Error())
		return
	}

	tags, err := h.noteService.Annotate(r.Context(), req.Text, req.KnownTags)
	if err != nil {
		h.writeSortError(w, userID, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"tags": tags, "aiNote": ""})
}

type AmalgamateRequest struct {
	Tag       string   `json:"tag"`
	Notes     []string `json:"notes"`
	KnownTags []string `json:"known_tags"`
}

func (h *APIHandler) AmalgamateHandler(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r)

	var req AmalgamateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid request body: "+err.Error())
		return
	}

	summary, err := h.noteService.Amalgamate(r.Context(), req.Tag, req.Notes, req.KnownTags)
	if err != nil {
		h.writeSortError(w, userID, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"summary": summary})
}
