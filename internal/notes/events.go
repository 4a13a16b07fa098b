package notes

// Op is the kind of change a feed event describes.
type Op string

const (
	OpInsert Op = "insert"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// Event is one change-feed notification carrying the before/after payloads.
// Inserts have only New, deletes only Old, updates both.
type Event struct {
	Op  Op    `json:"op"`
	New *Note `json:"new,omitempty"`
	Old *Note `json:"old,omitempty"`
}

// NoteID returns the id of the note the event is about.
func (e Event) NoteID() string {
	if e.New != nil {
		return e.New.ID
	}
	if e.Old != nil {
		return e.Old.ID
	}
	return ""
}
