package editor

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/Hanc1999/LiveNote/internal/feed"
	"github.com/Hanc1999/LiveNote/internal/notes"
)

// State is the load-guard state machine. A session moves Idle → Loading →
// Ready → Closed; Closed is terminal and Ready is entered exactly once.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateReady
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// SaveStatus is the externally-visible autosave indicator.
type SaveStatus int

const (
	StatusSaved SaveStatus = iota
	StatusSaving
	StatusError
)

func (s SaveStatus) String() string {
	switch s {
	case StatusSaved:
		return "saved"
	case StatusSaving:
		return "saving"
	case StatusError:
		return "error"
	}
	return "unknown"
}

// Config tunes a session. Zero values fall back to the production delays:
// 1s for title and content, 500ms for color (color clicks are low-risk and
// benefit from snappier persistence), 1.5s load settle.
type Config struct {
	TitleDelay   time.Duration
	ContentDelay time.Duration
	ColorDelay   time.Duration
	SettleDelay  time.Duration

	// Feed, when set, delivers remote changes for this note into the session.
	Feed   *feed.Hub[notes.Event]
	Logger *slog.Logger
}

func (c Config) withDefaults() Config {
	if c.TitleDelay <= 0 {
		c.TitleDelay = time.Second
	}
	if c.ContentDelay <= 0 {
		c.ContentDelay = time.Second
	}
	if c.ColorDelay <= 0 {
		c.ColorDelay = 500 * time.Millisecond
	}
	if c.SettleDelay <= 0 {
		c.SettleDelay = 1500 * time.Millisecond
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return c
}

// Session is one open editor for one note. Edits arrive through the setters,
// settle through per-field debouncers, and are persisted by a single run-loop
// goroutine, guarded by the state machine and the emptiness policy.
type Session struct {
	store notes.Store
	log   *slog.Logger
	cfg   Config

	// ctx spans the session; cancelled on Close so an in-flight write aborts.
	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	state  State
	status SaveStatus
	note   *notes.Note

	// Live values, updated on every keystroke.
	title    string
	markdown string
	items    []notes.TodoItem
	color    notes.NoteColor

	// Settled values, updated only when a debouncer fires. Saves always send
	// all settled fields together.
	settled struct {
		title    string
		markdown string
		items    []notes.TodoItem
		color    notes.NoteColor
	}

	titleDeb    *Debouncer[string]
	markdownDeb *Debouncer[string]
	itemsDeb    *Debouncer[[]notes.TodoItem]
	colorDeb    *Debouncer[notes.NoteColor]

	settle *time.Timer
	sub    *feed.Subscription[notes.Event]
	done   chan struct{}
	wg     sync.WaitGroup
}

// Open fetches the note and starts an editing session for it. A fetch
// failure returns an error and no session; no write can ever precede the
// fetch completing. The session leaves Loading for Ready only after the
// settle delay has elapsed with the hydrated state in place.
func Open(ctx context.Context, store notes.Store, id string, cfg Config) (*Session, error) {
	cfg = cfg.withDefaults()

	note, err := store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("open editor for note %s: %w", id, err)
	}

	sctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		store:       store,
		log:         cfg.Logger,
		cfg:         cfg,
		ctx:         sctx,
		cancel:      cancel,
		state:       StateLoading,
		status:      StatusSaved,
		note:        note.Clone(),
		titleDeb:    NewDebouncer[string](cfg.TitleDelay),
		markdownDeb: NewDebouncer[string](cfg.ContentDelay),
		itemsDeb:    NewDebouncer[[]notes.TodoItem](cfg.ContentDelay),
		colorDeb:    NewDebouncer[notes.NoteColor](cfg.ColorDelay),
		done:        make(chan struct{}),
	}
	s.hydrateLocked(s.note)

	if cfg.Feed != nil {
		s.sub = cfg.Feed.Subscribe(8)
	}
	s.settle = time.AfterFunc(cfg.SettleDelay, s.markReady)

	s.wg.Add(1)
	go s.run()
	return s, nil
}

// hydrateLocked replaces both live and settled fields from n. It never feeds
// the debouncers, so hydration alone can never schedule a save.
func (s *Session) hydrateLocked(n *notes.Note) {
	s.title = n.Title
	s.settled.title = n.Title
	s.color = n.Color
	s.settled.color = n.Color
	switch n.NoteType {
	case notes.TypeMarkdown:
		s.markdown = n.Content.Markdown
		s.settled.markdown = n.Content.Markdown
	case notes.TypeTodo:
		s.items = slices.Clone(n.Content.Items)
		s.settled.items = slices.Clone(n.Content.Items)
	}
}

func (s *Session) markReady() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateLoading {
		s.state = StateReady
	}
}

// --- Accessors ---

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Status() SaveStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Note returns a copy of the last authoritative record the session has seen.
func (s *Session) Note() *notes.Note {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.note.Clone()
}

func (s *Session) Title() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.title
}

func (s *Session) Markdown() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.markdown
}

func (s *Session) Items() []notes.TodoItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.items)
}

func (s *Session) Color() notes.NoteColor {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.color
}

// --- Edit operations ---

func (s *Session) SetTitle(title string) {
	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return
	}
	s.title = title
	s.mu.Unlock()
	s.titleDeb.Set(title)
}

func (s *Session) SetColor(color notes.NoteColor) {
	s.mu.Lock()
	if s.state == StateClosed || !color.Valid() {
		s.mu.Unlock()
		return
	}
	s.color = color
	s.mu.Unlock()
	s.colorDeb.Set(color)
}

// SetMarkdown replaces a markdown note's content. Ignored on todo notes.
func (s *Session) SetMarkdown(md string) {
	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return
	}
	if s.note.NoteType != notes.TypeMarkdown {
		id := s.note.ID
		s.mu.Unlock()
		s.log.Debug("markdown edit ignored on todo note", "note", id)
		return
	}
	s.markdown = md
	s.mu.Unlock()
	s.markdownDeb.Set(md)
}

// SetItems replaces a todo note's item list. Ignored on markdown notes.
func (s *Session) SetItems(items []notes.TodoItem) {
	s.replaceItems(func([]notes.TodoItem) []notes.TodoItem {
		return slices.Clone(items)
	})
}

// AddItem appends a new unchecked item and returns its id. Blank text is
// rejected. The order rank is the append index.
func (s *Session) AddItem(text string) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}
	item := notes.NewTodoItem(text, 0)
	s.replaceItems(func(items []notes.TodoItem) []notes.TodoItem {
		item.Order = len(items)
		return append(slices.Clone(items), item)
	})
	return item.ID
}

// ToggleItem flips an item's completed flag.
func (s *Session) ToggleItem(id string) {
	s.replaceItems(func(items []notes.TodoItem) []notes.TodoItem {
		out := slices.Clone(items)
		for i := range out {
			if out[i].ID == id {
				out[i].Completed = !out[i].Completed
			}
		}
		return out
	})
}

// SetItemText replaces an item's text.
func (s *Session) SetItemText(id, text string) {
	s.replaceItems(func(items []notes.TodoItem) []notes.TodoItem {
		out := slices.Clone(items)
		for i := range out {
			if out[i].ID == id {
				out[i].Text = text
			}
		}
		return out
	})
}

// RemoveItem deletes an item. Remaining order ranks are left as-is.
func (s *Session) RemoveItem(id string) {
	s.replaceItems(func(items []notes.TodoItem) []notes.TodoItem {
		return slices.DeleteFunc(slices.Clone(items), func(it notes.TodoItem) bool {
			return it.ID == id
		})
	})
}

func (s *Session) replaceItems(mutate func([]notes.TodoItem) []notes.TodoItem) {
	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return
	}
	if s.note.NoteType != notes.TypeTodo {
		id := s.note.ID
		s.mu.Unlock()
		s.log.Debug("todo edit ignored on markdown note", "note", id)
		return
	}
	s.items = mutate(s.items)
	updated := slices.Clone(s.items)
	s.mu.Unlock()
	s.itemsDeb.Set(updated)
}

// --- Run loop ---

// run is the single consumer of all settle and feed channels: every save and
// every remote application happens here, one at a time.
func (s *Session) run() {
	defer s.wg.Done()

	var events <-chan notes.Event
	if s.sub != nil {
		events = s.sub.C
	}

	for {
		select {
		case v := <-s.titleDeb.C():
			s.mu.Lock()
			s.settled.title = v
			s.mu.Unlock()
			s.save()
		case v := <-s.markdownDeb.C():
			s.mu.Lock()
			s.settled.markdown = v
			s.mu.Unlock()
			s.save()
		case v := <-s.itemsDeb.C():
			s.mu.Lock()
			s.settled.items = v
			s.mu.Unlock()
			s.save()
		case v := <-s.colorDeb.C():
			s.mu.Lock()
			s.settled.color = v
			s.mu.Unlock()
			s.save()
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			s.applyRemote(ev)
		case <-s.done:
			return
		}
	}
}

// save persists all settled fields wholesale. The guard state and the
// emptiness policy are checked here, immediately before the write, because
// the session may have closed since the save was scheduled.
func (s *Session) save() {
	s.mu.Lock()
	if s.state != StateReady {
		state := s.state
		id := s.note.ID
		s.mu.Unlock()
		s.log.Debug("save skipped: session not ready", "note", id, "state", state.String())
		return
	}
	upd, ok := s.pendingUpdateLocked()
	if !ok {
		id := s.note.ID
		s.mu.Unlock()
		s.log.Debug("save skipped: empty payload", "note", id)
		return
	}
	id := s.note.ID
	s.status = StatusSaving
	s.mu.Unlock()

	updated, err := s.store.Update(s.ctx, id, upd)

	s.mu.Lock()
	defer s.mu.Unlock()
	// Nobody observes the status after close; leave it untouched.
	if s.state == StateClosed {
		return
	}
	if err != nil {
		s.status = StatusError
		s.log.Error("failed to save note", "note", id, "error", err)
		return
	}
	s.status = StatusSaved
	s.note = updated.Clone()
}

// pendingUpdateLocked applies the emptiness policy: a blank title, an empty
// markdown document or a zero-item todo list almost always means an unsettled
// or torn-down editor rather than user intent, so the save is silently
// skipped instead of risking data loss.
func (s *Session) pendingUpdateLocked() (notes.NoteUpdate, bool) {
	if strings.TrimSpace(s.settled.title) == "" {
		return notes.NoteUpdate{}, false
	}

	var content notes.Content
	switch s.note.NoteType {
	case notes.TypeTodo:
		if len(s.settled.items) == 0 {
			return notes.NoteUpdate{}, false
		}
		content = notes.TodoContent(slices.Clone(s.settled.items))
	default:
		if s.settled.markdown == "" {
			return notes.NoteUpdate{}, false
		}
		content = notes.MarkdownContent(s.settled.markdown)
	}

	return notes.NoteUpdate{
		Title:   s.settled.title,
		Content: content,
		Color:   s.settled.color,
	}, true
}

// applyRemote folds an inbound change for this note into the session:
// a wholesale replace of every field, last write wins, no merge. Pending
// debounced edits are discarded so a stale settle cannot resurrect them.
func (s *Session) applyRemote(ev notes.Event) {
	if ev.Op != notes.OpUpdate || ev.New == nil {
		return
	}

	s.mu.Lock()
	if s.state == StateClosed || ev.NoteID() != s.note.ID {
		s.mu.Unlock()
		return
	}
	s.note = ev.New.Clone()
	s.hydrateLocked(s.note)
	s.mu.Unlock()

	s.titleDeb.Cancel()
	s.markdownDeb.Cancel()
	s.itemsDeb.Cancel()
	s.colorDeb.Cancel()
}

// Close ends the editing session: pending debounce timers are cancelled, the
// feed subscription is torn down, an in-flight write is aborted and no
// further write can start. Idempotent.
func (s *Session) Close() {
	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return
	}
	s.state = StateClosed
	s.mu.Unlock()

	s.settle.Stop()
	s.titleDeb.Stop()
	s.markdownDeb.Stop()
	s.itemsDeb.Stop()
	s.colorDeb.Stop()
	if s.sub != nil {
		s.sub.Unsubscribe()
	}
	s.cancel()
	close(s.done)
	s.wg.Wait()
}
