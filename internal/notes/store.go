package notes

import "context"

// Store is the persistence surface the editor session and the dashboard list
// work against. The Mongo repository implements it on the server; tests use
// an in-memory implementation.
type Store interface {
	// List returns the caller's notes ordered by updated_at descending.
	List(ctx context.Context) ([]*Note, error)
	// Get returns a single note, or ErrNoteNotFound.
	Get(ctx context.Context, id string) (*Note, error)
	// Create inserts the note and returns the authoritative stored record.
	Create(ctx context.Context, n *Note) (*Note, error)
	// Update replaces title, content and color wholesale and returns the
	// updated record.
	Update(ctx context.Context, id string, upd NoteUpdate) (*Note, error)
	// Delete removes the note, or returns ErrNoteNotFound.
	Delete(ctx context.Context, id string) error
}
