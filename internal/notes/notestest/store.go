// Package notestest provides an in-memory Store used by editor, dashboard
// and service tests.
package notestest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Hanc1999/LiveNote/internal/feed"
	"github.com/Hanc1999/LiveNote/internal/notes"
)

// Store is a map-backed notes.Store. It mirrors the repository's observable
// behavior: insert/update-returning, updated_at-descending lists, change
// feed publication, and ErrNoteNotFound on misses.
type Store struct {
	// Hub, when set, receives an event for every successful write.
	Hub *feed.Hub[notes.Event]

	mu        sync.Mutex
	byID      map[string]*notes.Note
	updates   []notes.NoteUpdate
	updateErr error
}

// SetUpdateErr makes every subsequent Update call fail with err; pass nil to
// restore normal behavior.
func (s *Store) SetUpdateErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updateErr = err
}

var _ notes.Store = (*Store)(nil)

func New(seed ...*notes.Note) *Store {
	s := &Store{byID: make(map[string]*notes.Note)}
	for _, n := range seed {
		stored := n.Clone()
		if stored.ID == "" {
			stored.ID = uuid.NewString()
		}
		if stored.UpdatedAt.IsZero() {
			stored.UpdatedAt = time.Now().UTC()
		}
		s.byID[stored.ID] = stored
	}
	return s
}

func (s *Store) List(ctx context.Context) ([]*notes.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*notes.Note, 0, len(s.byID))
	for _, n := range s.byID {
		out = append(out, n.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

func (s *Store) Get(ctx context.Context, id string) (*notes.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.byID[id]
	if !ok {
		return nil, notes.ErrNoteNotFound
	}
	return n.Clone(), nil
}

func (s *Store) Create(ctx context.Context, n *notes.Note) (*notes.Note, error) {
	s.mu.Lock()
	stored := n.Clone()
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	stored.CreatedAt = now
	stored.UpdatedAt = now
	s.byID[stored.ID] = stored
	out := stored.Clone()
	s.mu.Unlock()

	s.publish(notes.Event{Op: notes.OpInsert, New: stored.Clone()})
	return out, nil
}

func (s *Store) Update(ctx context.Context, id string, upd notes.NoteUpdate) (*notes.Note, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.updateErr != nil {
		err := s.updateErr
		s.mu.Unlock()
		return nil, err
	}
	stored, ok := s.byID[id]
	if !ok {
		s.mu.Unlock()
		return nil, notes.ErrNoteNotFound
	}
	old := stored.Clone()
	stored.Title = upd.Title
	stored.Content = upd.Content
	stored.Color = upd.Color
	stored.UpdatedAt = time.Now().UTC()
	s.updates = append(s.updates, upd)
	out := stored.Clone()
	s.mu.Unlock()

	s.publish(notes.Event{Op: notes.OpUpdate, New: out.Clone(), Old: old})
	return out, nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	stored, ok := s.byID[id]
	if !ok {
		s.mu.Unlock()
		return notes.ErrNoteNotFound
	}
	delete(s.byID, id)
	old := stored.Clone()
	s.mu.Unlock()

	s.publish(notes.Event{Op: notes.OpDelete, Old: old})
	return nil
}

// Updates returns every NoteUpdate the store has accepted, in order.
func (s *Store) Updates() []notes.NoteUpdate {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]notes.NoteUpdate, len(s.updates))
	copy(out, s.updates)
	return out
}

// UpdateCount returns how many writes the store has accepted.
func (s *Store) UpdateCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.updates)
}

func (s *Store) publish(ev notes.Event) {
	if s.Hub != nil {
		s.Hub.Publish(ev)
	}
}
