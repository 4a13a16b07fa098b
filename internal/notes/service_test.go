package notes_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Hanc1999/LiveNote/internal/auth"
	"github.com/Hanc1999/LiveNote/internal/notes"
	"github.com/Hanc1999/LiveNote/internal/notes/notestest"
)

func newService(store notes.Store) *notes.Service {
	return notes.NewService(store, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func authedCtx() context.Context {
	return auth.WithUserID(context.Background(), "u1")
}

func TestService_CreateRequiresAuthentication(t *testing.T) {
	svc := newService(notestest.New())

	_, err := svc.Create(context.Background(), "Plan", notes.TypeMarkdown, "")
	assert.ErrorIs(t, err, notes.ErrNotAuthenticated)
}

func TestService_CreateAppliesVariantDefaults(t *testing.T) {
	svc := newService(notestest.New())

	md, err := svc.Create(authedCtx(), "Plan", notes.TypeMarkdown, "")
	require.NoError(t, err)
	assert.Equal(t, "u1", md.UserID)
	assert.Equal(t, notes.MarkdownContent(""), md.Content)
	assert.Equal(t, notes.DefaultColor, md.Color)

	todo, err := svc.Create(authedCtx(), "Groceries", notes.TypeTodo, notes.ColorYellow)
	require.NoError(t, err)
	assert.Equal(t, notes.TodoContent(nil), todo.Content)
	assert.Equal(t, notes.ColorYellow, todo.Color)
}

func TestService_CreateRejectsBadInput(t *testing.T) {
	svc := newService(notestest.New())

	_, err := svc.Create(authedCtx(), "   ", notes.TypeMarkdown, "")
	assert.Error(t, err)

	_, err = svc.Create(authedCtx(), "Plan", "sketch", "")
	assert.Error(t, err)

	_, err = svc.Create(authedCtx(), "Plan", notes.TypeMarkdown, "mauve")
	assert.Error(t, err)
}

func TestService_UpdateRejectsVariantMismatch(t *testing.T) {
	store := notestest.New(&notes.Note{
		ID:       "n1",
		UserID:   "u1",
		Title:    "Plan",
		NoteType: notes.TypeMarkdown,
		Content:  notes.MarkdownContent("body"),
		Color:    notes.ColorBlue,
	})
	svc := newService(store)

	_, err := svc.Update(authedCtx(), "n1", notes.NoteUpdate{
		Title:   "Plan",
		Content: notes.TodoContent(nil),
		Color:   notes.ColorBlue,
	})
	assert.Error(t, err)
	assert.Zero(t, store.UpdateCount())
}

func TestService_UpdateRejectsBlankTitle(t *testing.T) {
	store := notestest.New(&notes.Note{
		ID:       "n1",
		UserID:   "u1",
		Title:    "Plan",
		NoteType: notes.TypeMarkdown,
		Content:  notes.MarkdownContent("body"),
		Color:    notes.ColorBlue,
	})
	svc := newService(store)

	_, err := svc.Update(authedCtx(), "n1", notes.NoteUpdate{
		Title:   "   ",
		Content: notes.MarkdownContent("body"),
		Color:   notes.ColorBlue,
	})
	assert.Error(t, err)
	assert.Zero(t, store.UpdateCount())
}

func TestService_UpdateDefaultsColorToStoredValue(t *testing.T) {
	store := notestest.New(&notes.Note{
		ID:       "n1",
		UserID:   "u1",
		Title:    "Plan",
		NoteType: notes.TypeMarkdown,
		Content:  notes.MarkdownContent("body"),
		Color:    notes.ColorPurple,
	})
	svc := newService(store)

	updated, err := svc.Update(authedCtx(), "n1", notes.NoteUpdate{
		Title:   "Plan v2",
		Content: notes.MarkdownContent("new body"),
	})
	require.NoError(t, err)
	assert.Equal(t, notes.ColorPurple, updated.Color)
}

func TestService_UpdateMissingNote(t *testing.T) {
	svc := newService(notestest.New())

	_, err := svc.Update(authedCtx(), "ghost", notes.NoteUpdate{
		Title:   "x",
		Content: notes.MarkdownContent("y"),
	})
	assert.ErrorIs(t, err, notes.ErrNoteNotFound)
}

func TestService_RenderHTML(t *testing.T) {
	store := notestest.New(
		&notes.Note{
			ID:       "md",
			UserID:   "u1",
			Title:    "Plan",
			NoteType: notes.TypeMarkdown,
			Content:  notes.MarkdownContent("# Heading\n\nSome *emphasis*."),
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
	svc := newService(store)

	html, err := svc.RenderHTML(authedCtx(), "md")
	require.NoError(t, err)
	assert.Contains(t, html, "<h1>Heading</h1>")
	assert.Contains(t, html, "<em>emphasis</em>")

	_, err = svc.RenderHTML(authedCtx(), "todo")
	assert.ErrorIs(t, err, notes.ErrNotMarkdown)
}
