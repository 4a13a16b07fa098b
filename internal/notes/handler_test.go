package notes_test

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Hanc1999/LiveNote/internal/auth"
	"github.com/Hanc1999/LiveNote/internal/notes"
	"github.com/Hanc1999/LiveNote/internal/notes/notestest"
)

func testLog() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestRouter(store *notestest.Store) *http.ServeMux {
	log := testLog()
	h := notes.NewHandler(notes.NewService(store, log), nil, log)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/notes", h.CreateNote)
	mux.HandleFunc("GET /api/notes", h.ListNotes)
	mux.HandleFunc("GET /api/notes/{id}", h.GetNote)
	mux.HandleFunc("PUT /api/notes/{id}", h.UpdateNote)
	mux.HandleFunc("DELETE /api/notes/{id}", h.DeleteNote)
	mux.HandleFunc("GET /api/notes/{id}/html", h.RenderNote)
	return mux
}

func doAuthed(t *testing.T, mux *http.ServeMux, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req = req.WithContext(auth.WithUserID(req.Context(), "u1"))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestHandler_CreateNote(t *testing.T) {
	mux := newTestRouter(notestest.New())

	rec := doAuthed(t, mux, http.MethodPost, "/api/notes", `{"title":"Plan","note_type":"markdown"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created notes.Note
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Plan", created.Title)
	assert.Equal(t, notes.TypeMarkdown, created.NoteType)
	assert.Equal(t, notes.DefaultColor, created.Color)
	assert.Contains(t, rec.Body.String(), `"content":{"type":"markdown","markdown":""}`)
}

func TestHandler_CreateNoteWithoutAuthIs401(t *testing.T) {
	mux := newTestRouter(notestest.New())

	req := httptest.NewRequest(http.MethodPost, "/api/notes", strings.NewReader(`{"title":"Plan","note_type":"markdown"}`))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandler_CreateNoteRejectsBadType(t *testing.T) {
	mux := newTestRouter(notestest.New())

	rec := doAuthed(t, mux, http.MethodPost, "/api/notes", `{"title":"Plan","note_type":"sketch"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_GetNote(t *testing.T) {
	store := notestest.New(&notes.Note{
		ID:       "n1",
		UserID:   "u1",
		Title:    "Groceries",
		NoteType: notes.TypeTodo,
		Content:  notes.TodoContent(nil),
		Color:    notes.ColorYellow,
	})
	mux := newTestRouter(store)

	rec := doAuthed(t, mux, http.MethodGet, "/api/notes/n1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"content":{"type":"todo","items":[]}`)

	rec = doAuthed(t, mux, http.MethodGet, "/api/notes/ghost", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler_ListNotesEmptyIsArray(t *testing.T) {
	mux := newTestRouter(notestest.New())

	rec := doAuthed(t, mux, http.MethodGet, "/api/notes", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))
}

func TestHandler_UpdateNote(t *testing.T) {
	store := notestest.New(&notes.Note{
		ID:       "n1",
		UserID:   "u1",
		Title:    "Plan",
		NoteType: notes.TypeMarkdown,
		Content:  notes.MarkdownContent("old"),
		Color:    notes.ColorBlue,
	})
	mux := newTestRouter(store)

	body := `{"title":"Plan","content":{"type":"markdown","markdown":"new"},"color":"green"}`
	rec := doAuthed(t, mux, http.MethodPut, "/api/notes/n1", body)
	require.Equal(t, http.StatusOK, rec.Code)

	var updated notes.Note
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, "new", updated.Content.Markdown)
	assert.Equal(t, notes.ColorGreen, updated.Color)

	// Mismatched content variant is rejected before any write.
	bad := `{"title":"Plan","content":{"type":"todo","items":[]},"color":"green"}`
	rec = doAuthed(t, mux, http.MethodPut, "/api/notes/n1", bad)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 1, store.UpdateCount())
}

func TestHandler_DeleteNote(t *testing.T) {
	store := notestest.New(&notes.Note{
		ID:       "n1",
		UserID:   "u1",
		Title:    "Plan",
		NoteType: notes.TypeMarkdown,
		Content:  notes.MarkdownContent(""),
		Color:    notes.ColorBlue,
	})
	mux := newTestRouter(store)

	rec := doAuthed(t, mux, http.MethodDelete, "/api/notes/n1", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doAuthed(t, mux, http.MethodDelete, "/api/notes/n1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler_RenderNote(t *testing.T) {
	store := notestest.New(
		&notes.Note{
			ID:       "md",
			UserID:   "u1",
			Title:    "Plan",
			NoteType: notes.TypeMarkdown,
			Content:  notes.MarkdownContent("**bold**"),
			Color:    notes.ColorBlue,
		},
		&notes.Note{
			ID:       "todo",
			UserID:   "u1",
			Title:    "Groceries",
			NoteType: notes.TypeTodo,
			Content:  notes.TodoContent(nil),
			Color:    notes.ColorBlue,
		},
	)
	mux := newTestRouter(store)

	rec := doAuthed(t, mux, http.MethodGet, "/api/notes/md/html", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "<strong>bold</strong>")

	rec = doAuthed(t, mux, http.MethodGet, "/api/notes/todo/html", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
