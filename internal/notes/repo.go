package notes

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Hanc1999/LiveNote/internal/auth"
	"github.com/Hanc1999/LiveNote/internal/feed"
)

var ErrNoteNotFound = errors.New("note not found")

// Repo is the MongoDB implementation of Store. Every successful write is
// published to the change feed hub so open sessions and dashboards see it.
//
// When the context carries an authenticated user, reads and writes are scoped
// to that user's rows.
type Repo struct {
	coll *mongo.Collection
	hub  *feed.Hub[Event]
}

func NewRepo(database *mongo.Database, hub *feed.Hub[Event]) *Repo {
	return &Repo{coll: database.Collection("notes"), hub: hub}
}

// EnsureIndexes creates the indexes backing the dashboard list query.
func (r *Repo) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "user_id", Value: 1},
				{Key: "updated_at", Value: -1},
			},
		},
		{
			Keys: bson.D{{Key: "updated_at", Value: -1}},
		},
	}

	_, err := r.coll.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		return fmt.Errorf("create indexes: %w", err)
	}
	return nil
}

func (r *Repo) filter(ctx context.Context, base bson.M) bson.M {
	if userID, ok := auth.UserID(ctx); ok {
		base["user_id"] = userID
	}
	return base
}

// List returns the caller's notes, most recently updated first.
func (r *Repo) List(ctx context.Context) ([]*Note, error) {
	opts := options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}})

	cursor, err := r.coll.Find(ctx, r.filter(ctx, bson.M{}), opts)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	defer cursor.Close(ctx)

	var result []*Note
	if err := cursor.All(ctx, &result); err != nil {
		return nil, fmt.Errorf("decode notes: %w", err)
	}
	return result, nil
}

// Get retrieves a note by its id.
func (r *Repo) Get(ctx context.Context, id string) (*Note, error) {
	var note Note
	err := r.coll.FindOne(ctx, r.filter(ctx, bson.M{"_id": id})).Decode(&note)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNoteNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find note %s: %w", id, err)
	}
	return &note, nil
}

// Create inserts the note and returns the stored record.
func (r *Repo) Create(ctx context.Context, n *Note) (*Note, error) {
	stored := n.Clone()
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	stored.CreatedAt = now
	stored.UpdatedAt = now

	if _, err := r.coll.InsertOne(ctx, stored); err != nil {
		return nil, fmt.Errorf("insert note: %w", err)
	}

	r.publish(Event{Op: OpInsert, New: stored.Clone()})
	return stored, nil
}

// Update replaces title, content and color wholesale and returns the updated
// record.
func (r *Repo) Update(ctx context.Context, id string, upd NoteUpdate) (*Note, error) {
	// Fetch the old row first so the feed event can carry the before payload.
	old, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	update := bson.M{"$set": bson.M{
		"title":      upd.Title,
		"content":    upd.Content,
		"color":      upd.Color,
		"updated_at": time.Now().UTC(),
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated Note
	err = r.coll.FindOneAndUpdate(ctx, r.filter(ctx, bson.M{"_id": id}), update, opts).Decode(&updated)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNoteNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update note %s: %w", id, err)
	}

	r.publish(Event{Op: OpUpdate, New: updated.Clone(), Old: old})
	return &updated, nil
}

// Delete removes the note.
func (r *Repo) Delete(ctx context.Context, id string) error {
	var old Note
	err := r.coll.FindOneAndDelete(ctx, r.filter(ctx, bson.M{"_id": id})).Decode(&old)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNoteNotFound
	}
	if err != nil {
		return fmt.Errorf("delete note %s: %w", id, err)
	}

	r.publish(Event{Op: OpDelete, Old: &old})
	return nil
}

func (r *Repo) publish(ev Event) {
	if r.hub != nil {
		r.hub.Publish(ev)
	}
}
