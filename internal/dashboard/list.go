// Package dashboard keeps the note collection behind the dashboard view
// consistent with both local CRUD actions and the inbound change feed.
package dashboard

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Hanc1999/LiveNote/internal/notes"
)

// List is an in-memory, de-duplicated note collection. Initial loads order
// by most-recently-updated first; inbound events splice at their dictated
// position without re-sorting. Every mutation replaces the whole slice
// (copy-on-write), so snapshots handed out by Notes stay stable.
type List struct {
	store notes.Store
	log   *slog.Logger

	mu    sync.Mutex
	items []*notes.Note
	err   error
}

func NewList(store notes.Store, log *slog.Logger) *List {
	if log == nil {
		log = slog.Default()
	}
	return &List{store: store, log: log}
}

// Notes returns a snapshot of the collection.
func (l *List) Notes() []*notes.Note {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]*notes.Note, len(l.items))
	copy(out, l.items)
	return out
}

// Err returns the last load error, if any. A failed Refresh leaves the list
// empty with the error exposed here.
func (l *List) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.err
}

// Refresh replaces the entire collection with a fresh server read.
func (l *List) Refresh(ctx context.Context) error {
	fetched, err := l.store.List(ctx)

	l.mu.Lock()
	defer l.mu.Unlock()
	if err != nil {
		l.items = nil
		l.err = fmt.Errorf("refresh notes: %w", err)
		l.log.Error("failed to refresh notes", "error", err)
		return l.err
	}
	l.items = fetched
	l.err = nil
	return nil
}

// Create inserts a new note with default empty content for its variant and
// prepends the authoritative record the store returned. The local collection
// is only touched after the store confirms.
func (l *List) Create(ctx context.Context, title string, noteType notes.NoteType, color notes.NoteColor) (*notes.Note, error) {
	if color == "" {
		color = notes.DefaultColor
	}
	content := notes.MarkdownContent("")
	if noteType == notes.TypeTodo {
		content = notes.TodoContent(nil)
	}

	created, err := l.store.Create(ctx, &notes.Note{
		Title:    title,
		NoteType: noteType,
		Content:  content,
		Color:    color,
	})
	if err != nil {
		l.log.Error("failed to create note", "error", err)
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.items = prepend(l.items, created)
	return created, nil
}

// Update sends the changed fields and replaces the matching local record
// with the authoritative response.
func (l *List) Update(ctx context.Context, id string, upd notes.NoteUpdate) (*notes.Note, error) {
	updated, err := l.store.Update(ctx, id, upd)
	if err != nil {
		l.log.Error("failed to update note", "note", id, "error", err)
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.items = replace(l.items, updated)
	return updated, nil
}

// Delete removes the note from the store, then locally. No undo.
func (l *List) Delete(ctx context.Context, id string) error {
	if err := l.store.Delete(ctx, id); err != nil {
		l.log.Error("failed to delete note", "note", id, "error", err)
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.items = remove(l.items, id)
	return nil
}

// Apply folds one inbound change-feed event into the collection:
//
//   - insert: prepend, unless the id is already present (the local session
//     may itself be the author of the change);
//   - update: replace the matching entry by id, no-op if absent;
//   - delete: remove the matching entry by id, no-op if absent.
func (l *List) Apply(ev notes.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()

	switch ev.Op {
	case notes.OpInsert:
		if ev.New == nil || contains(l.items, ev.New.ID) {
			return
		}
		l.items = prepend(l.items, ev.New)
	case notes.OpUpdate:
		if ev.New == nil || !contains(l.items, ev.New.ID) {
			return
		}
		l.items = replace(l.items, ev.New)
	case notes.OpDelete:
		if ev.Old == nil {
			return
		}
		l.items = remove(l.items, ev.Old.ID)
	}
}

// Run consumes events until the channel closes or ctx is cancelled. It is
// the single consumer of the subscription, so no two events mutate the
// collection concurrently.
func (l *List) Run(ctx context.Context, events <-chan notes.Event) {
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			l.Apply(ev)
		case <-ctx.Done():
			return
		}
	}
}

// --- copy-on-write helpers ---

func contains(items []*notes.Note, id string) bool {
	for _, n := range items {
		if n.ID == id {
			return true
		}
	}
	return false
}

func prepend(items []*notes.Note, n *notes.Note) []*notes.Note {
	out := make([]*notes.Note, 0, len(items)+1)
	out = append(out, n)
	return append(out, items...)
}

func replace(items []*notes.Note, n *notes.Note) []*notes.Note {
	out := make([]*notes.Note, len(items))
	for i, existing := range items {
		if existing.ID == n.ID {
			out[i] = n
		} else {
			out[i] = existing
		}
	}
	return out
}

func remove(items []*notes.Note, id string) []*notes.Note {
	out := make([]*notes.Note, 0, len(items))
	for _, existing := range items {
		if existing.ID != id {
			out = append(out, existing)
		}
	}
	return out
}
