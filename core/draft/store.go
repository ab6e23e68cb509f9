package draft

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"
)

// StorageKey is the key the draft list is persisted under.
const StorageKey = "drafts"

// Store is the in-memory draft list plus the draft currently being edited,
// mirrored to Storage after every change.
type Store struct {
	storage Storage
	key     string
	now     func() time.Time
	logger  *log.Logger

	mu          sync.RWMutex
	drafts      []Draft
	selected    int64
	hasSelected bool
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used for IDs and timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithLogger sets the logger used for non-fatal storage problems.
func WithLogger(l *log.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithKey overrides StorageKey.
func WithKey(key string) Option {
	return func(s *Store) { s.key = key }
}

// NewStore creates a Store on top of storage. Call Load to read persisted drafts.
func NewStore(storage Storage, opts ...Option) *Store {
	s := &Store{
		storage: storage,
		key:     StorageKey,
		now:     time.Now,
		logger:  log.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load reads the persisted list and makes it the in-memory list.
// A missing key yields an empty list; an unreadable value or one that is
// not a list is logged and also yields an empty list. Elements that are not
// local drafts are logged and skipped.
func (s *Store) Load() []Draft {
	drafts := s.read()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.drafts = drafts
	if s.hasSelected && s.indexOf(s.selected) < 0 {
		s.hasSelected = false
	}
	return cloneDrafts(s.drafts)
}

func (s *Store) read() []Draft {
	raw, ok, err := s.storage.Get(s.key)
	if err != nil {
		s.logger.Printf("WARNING: failed to read drafts: %v", err)
		return []Draft{}
	}
	if !ok {
		return []Draft{}
	}

	var elems []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &elems); err != nil {
		s.logger.Printf("WARNING: stored drafts are not a list: %v", err)
		return []Draft{}
	}
	if elems == nil {
		s.logger.Printf("WARNING: stored drafts value is null")
		return []Draft{}
	}

	// Merged listings may have been written here too; cloud records are
	// skipped and the local drafts around them kept.
	drafts := make([]Draft, 0, len(elems))
	for i, elem := range elems {
		var d Draft
		if err := json.Unmarshal(elem, &d); err != nil {
			s.logger.Printf("WARNING: skipping stored draft at index %d: %v", i, err)
			continue
		}
		if !d.valid() {
			s.logger.Printf("WARNING: skipping stored draft at index %d: no id", i)
			continue
		}
		drafts = append(drafts, d)
	}
	return drafts
}

// Save persists drafts. An empty list is never written, so a store that has
// not loaded yet cannot wipe what is on disk.
func (s *Store) Save(drafts []Draft) error {
	if len(drafts) == 0 {
		return nil
	}
	data, err := json.Marshal(drafts)
	if err != nil {
		return fmt.Errorf("encode drafts: %w", err)
	}
	if err := s.storage.Set(s.key, string(data)); err != nil {
		return fmt.Errorf("save drafts: %w", err)
	}
	return nil
}

// List returns a copy of the in-memory list.
func (s *Store) List() []Draft {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneDrafts(s.drafts)
}

// Get returns the draft with the given ID.
func (s *Store) Get(id int64) (Draft, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.indexOf(id)
	if i < 0 {
		return Draft{}, false
	}
	return s.drafts[i], true
}

// Create prepends a new draft holding content.
func (s *Store) Create(content string) (Draft, error) {
	if IsBlank(content) {
		return Draft{}, ErrEmptyContent
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	d := NewDraft(content, s.now())
	for s.indexOf(d.ID) >= 0 {
		d.ID++
	}
	s.drafts = append([]Draft{d}, s.drafts...)
	s.persist()
	return d, nil
}

// Update replaces the content of draft id, keeping its position.
// id must be the selected draft.
func (s *Store) Update(id int64, content string) (Draft, error) {
	if IsBlank(content) {
		return Draft{}, ErrEmptyContent
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.hasSelected || s.selected != id {
		return Draft{}, ErrNoSelection
	}
	i := s.indexOf(id)
	if i < 0 {
		return Draft{}, fmt.Errorf("update %d: %w", id, ErrNotFound)
	}

	updated := make([]Draft, len(s.drafts))
	copy(updated, s.drafts)
	updated[i].Content = content
	updated[i].Preview = MakePreview(content)
	updated[i].UpdatedAt = s.now().Format(TimestampLayout)
	s.drafts = updated
	s.persist()
	return updated[i], nil
}

// Delete removes draft id and clears the selection if it pointed at it.
func (s *Store) Delete(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return fmt.Errorf("delete %d: %w", id, ErrNotFound)
	}

	remaining := make([]Draft, 0, len(s.drafts)-1)
	remaining = append(remaining, s.drafts[:i]...)
	remaining = append(remaining, s.drafts[i+1:]...)
	s.drafts = remaining
	if s.hasSelected && s.selected == id {
		s.hasSelected = false
	}

	if len(s.drafts) == 0 {
		// Save skips empty lists; removing the key is the explicit delete-all.
		if err := s.storage.Remove(s.key); err != nil {
			s.logger.Printf("ERROR: failed to clear drafts: %v", err)
		}
		return nil
	}
	s.persist()
	return nil
}

// Select marks draft id as the one being edited.
func (s *Store) Select(id int64) (Draft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return Draft{}, fmt.Errorf("select %d: %w", id, ErrNotFound)
	}
	s.selected = id
	s.hasSelected = true
	return s.drafts[i], nil
}

// Selected returns the ID of the draft being edited, if any.
func (s *Store) Selected() (int64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selected, s.hasSelected
}

// ClearSelection stops editing the selected draft.
func (s *Store) ClearSelection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hasSelected = false
	s.selected = 0
}

// persist must be called with s.mu held.
func (s *Store) persist() {
	if err := s.Save(s.drafts); err != nil {
		s.logger.Printf("ERROR: %v", err)
	}
}

func (s *Store) indexOf(id int64) int {
	for i, d := range s.drafts {
		if d.ID == id {
			return i
		}
	}
	return -1
}

func cloneDrafts(in []Draft) []Draft {
	out := make([]Draft, len(in))
	copy(out, in)
	return out
}
