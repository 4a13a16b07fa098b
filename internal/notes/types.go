package notes

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// NoteType discriminates the two content variants a note can hold.
type NoteType string

const (
	TypeMarkdown NoteType = "markdown"
	TypeTodo     NoteType = "todo"
)

func (t NoteType) Valid() bool {
	return t == TypeMarkdown || t == TypeTodo
}

// NoteColor is one of the eight card colors.
type NoteColor string

const (
	ColorBlue   NoteColor = "blue"
	ColorGreen  NoteColor = "green"
	ColorYellow NoteColor = "yellow"
	ColorOrange NoteColor = "orange"
	ColorPink   NoteColor = "pink"
	ColorPurple NoteColor = "purple"
	ColorGray   NoteColor = "gray"
	ColorRed    NoteColor = "red"

	DefaultColor = ColorBlue
)

func (c NoteColor) Valid() bool {
	switch c {
	case ColorBlue, ColorGreen, ColorYellow, ColorOrange, ColorPink, ColorPurple, ColorGray, ColorRed:
		return true
	}
	return false
}

// TodoItem is a single entry in a todo note. Order is assigned as the append
// index and is not re-normalized when items are deleted.
type TodoItem struct {
	ID        string `bson:"id" json:"id"`
	Text      string `bson:"text" json:"text"`
	Completed bool   `bson:"completed" json:"completed"`
	Order     int    `bson:"order" json:"order"`
}

func NewTodoItem(text string, order int) TodoItem {
	return TodoItem{ID: uuid.NewString(), Text: text, Order: order}
}

// Content is a note's variant-typed payload. Type selects which of Markdown
// or Items carries the data; the other field stays at its zero value.
type Content struct {
	Type     NoteType   `bson:"type" json:"type"`
	Markdown string     `bson:"markdown,omitempty" json:"markdown,omitempty"`
	Items    []TodoItem `bson:"items,omitempty" json:"items,omitempty"`
}

// MarkdownContent builds a markdown-variant payload.
func MarkdownContent(md string) Content {
	return Content{Type: TypeMarkdown, Markdown: md}
}

// TodoContent builds a todo-variant payload. A nil slice is normalized to an
// empty one so the wire shape always carries an items array.
func TodoContent(items []TodoItem) Content {
	if items == nil {
		items = []TodoItem{}
	}
	return Content{Type: TypeTodo, Items: items}
}

// Validate checks that the payload's internal shape matches its variant tag
// and that item ids are unique within the note.
func (c Content) Validate() error {
	switch c.Type {
	case TypeMarkdown:
		if len(c.Items) > 0 {
			return fmt.Errorf("markdown content must not carry todo items")
		}
	case TypeTodo:
		if c.Markdown != "" {
			return fmt.Errorf("todo content must not carry markdown text")
		}
		seen := make(map[string]struct{}, len(c.Items))
		for _, item := range c.Items {
			if item.ID == "" {
				return fmt.Errorf("todo item without id")
			}
			if _, dup := seen[item.ID]; dup {
				return fmt.Errorf("duplicate todo item id %q", item.ID)
			}
			seen[item.ID] = struct{}{}
		}
	default:
		return fmt.Errorf("unknown content type %q", c.Type)
	}
	return nil
}

// IsEmpty reports whether the payload holds nothing worth persisting: an
// empty markdown string or a todo list with zero items.
func (c Content) IsEmpty() bool {
	if c.Type == TypeTodo {
		return len(c.Items) == 0
	}
	return c.Markdown == ""
}

// MarshalJSON emits exactly {"type":"markdown","markdown":...} or
// {"type":"todo","items":[...]}, with the items array present even when empty.
func (c Content) MarshalJSON() ([]byte, error) {
	if c.Type == TypeTodo {
		items := c.Items
		if items == nil {
			items = []TodoItem{}
		}
		return json.Marshal(struct {
			Type  NoteType   `json:"type"`
			Items []TodoItem `json:"items"`
		}{c.Type, items})
	}
	return json.Marshal(struct {
		Type     NoteType `json:"type"`
		Markdown string   `json:"markdown"`
	}{c.Type, c.Markdown})
}

// Note is one persisted note row.
type Note struct {
	ID        string    `bson:"_id" json:"id"`
	UserID    string    `bson:"user_id" json:"user_id"`
	Title     string    `bson:"title" json:"title"`
	NoteType  NoteType  `bson:"note_type" json:"note_type"`
	Content   Content   `bson:"content" json:"content"`
	Color     NoteColor `bson:"color" json:"color"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
	Position  int       `bson:"position" json:"position"`
}

// Validate checks the note's cross-field invariants, most importantly that
// the content shape matches the note_type tag.
func (n *Note) Validate() error {
	if n.Title == "" {
		return fmt.Errorf("title is required")
	}
	if !n.NoteType.Valid() {
		return fmt.Errorf("unknown note type %q", n.NoteType)
	}
	if !n.Color.Valid() {
		return fmt.Errorf("unknown color %q", n.Color)
	}
	if n.Content.Type != n.NoteType {
		return fmt.Errorf("content type %q does not match note type %q", n.Content.Type, n.NoteType)
	}
	return n.Content.Validate()
}

// Clone returns a deep copy, so collection snapshots never alias stored items.
func (n *Note) Clone() *Note {
	cp := *n
	if n.Content.Items != nil {
		cp.Content.Items = make([]TodoItem, len(n.Content.Items))
		copy(cp.Content.Items, n.Content.Items)
	}
	return &cp
}

// NoteUpdate is the wholesale replacement payload an editor session writes:
// every field is sent on every save even if only one changed.
type NoteUpdate struct {
	Title   string    `json:"title"`
	Content Content   `json:"content"`
	Color   NoteColor `json:"color"`
}
