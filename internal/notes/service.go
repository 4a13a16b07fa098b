package notes

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/yuin/goldmark"

	"github.com/Hanc1999/LiveNote/internal/auth"
)

var (
	ErrNotAuthenticated = errors.New("user not authenticated")
	ErrNotMarkdown      = errors.New("note is not a markdown note")
)

// Service validates note operations before they reach the store.
type Service struct {
	store Store
	md    goldmark.Markdown
	log   *slog.Logger
}

func NewService(store Store, log *slog.Logger) *Service {
	return &Service{
		store: store,
		md:    goldmark.New(),
		log:   log,
	}
}

// Create makes a new note with explicit default content for its variant: an
// empty markdown string or an empty item list. The caller must be
// authenticated; creation is rejected before any write otherwise.
func (s *Service) Create(ctx context.Context, title string, noteType NoteType, color NoteColor) (*Note, error) {
	userID, ok := auth.UserID(ctx)
	if !ok {
		return nil, ErrNotAuthenticated
	}

	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("title is required")
	}
	if !noteType.Valid() {
		return nil, fmt.Errorf("unknown note type %q", noteType)
	}
	if color == "" {
		color = DefaultColor
	}
	if !color.Valid() {
		return nil, fmt.Errorf("unknown color %q", color)
	}

	content := MarkdownContent("")
	if noteType == TypeTodo {
		content = TodoContent(nil)
	}

	note := &Note{
		UserID:   userID,
		Title:    title,
		NoteType: noteType,
		Content:  content,
		Color:    color,
	}
	return s.store.Create(ctx, note)
}

// Get retrieves a single note.
func (s *Service) Get(ctx context.Context, id string) (*Note, error) {
	return s.store.Get(ctx, id)
}

// List returns the caller's notes, most recently updated first.
func (s *Service) List(ctx context.Context) ([]*Note, error) {
	return s.store.List(ctx)
}

// Update validates the replacement payload against the stored note's variant
// and writes it wholesale.
func (s *Service) Update(ctx context.Context, id string, upd NoteUpdate) (*Note, error) {
	note, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(upd.Title) == "" {
		return nil, fmt.Errorf("title is required")
	}
	if upd.Content.Type != note.NoteType {
		return nil, fmt.Errorf("content type %q does not match note type %q", upd.Content.Type, note.NoteType)
	}
	if err := upd.Content.Validate(); err != nil {
		return nil, err
	}
	if upd.Color == "" {
		upd.Color = note.Color
	}
	if !upd.Color.Valid() {
		return nil, fmt.Errorf("unknown color %q", upd.Color)
	}

	return s.store.Update(ctx, id, upd)
}

// Delete removes a note.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.store.Delete(ctx, id)
}

// RenderHTML converts a markdown note's content to HTML.
func (s *Service) RenderHTML(ctx context.Context, id string) (string, error) {
	note, err := s.store.Get(ctx, id)
	if err != nil {
		return "", err
	}
	if note.NoteType != TypeMarkdown {
		return "", ErrNotMarkdown
	}

	var buf bytes.Buffer
	if err := s.md.Convert([]byte(note.Content.Markdown), &buf); err != nil {
		s.log.Error("failed to render markdown", "note", id, "error", err)
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return buf.String(), nil
}
