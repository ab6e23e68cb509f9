// Package editor holds the letter being written and the actions the user
// takes on it: saving and updating drafts, loading and deleting them, and
// uploading the letter.
package editor

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/jun/letterdrive/core/draft"
	"github.com/jun/letterdrive/core/markdown"
	"github.com/jun/letterdrive/core/session"
	lsync "github.com/jun/letterdrive/core/sync"
)

// Messages shown to the user.
const (
	MsgDraftSaved      = "Draft saved successfully."
	MsgDraftEmpty      = "Cannot save an empty draft."
	MsgDraftUpdated    = "Draft updated successfully."
	MsgUpdateEmpty     = "Cannot update with empty content."
	MsgDraftDeleted    = "Draft deleted."
	MsgUploadEmpty     = "Cannot upload an empty letter."
	MsgUploadSucceeded = "Letter uploaded to Google Drive successfully!"
	MsgUploadFailed    = "Failed to upload letter. Please try again."
)

// Uploader sends a finished letter to the backend.
type Uploader interface {
	Upload(ctx context.Context, s *session.Session, content string) error
}

// View is the merged draft list the editor shows and refreshes.
type View interface {
	Entries() []lsync.Entry
	Refresh()
	Reconcile(ctx context.Context, change session.Change) error
}

// Editor is the letter text plus its formatting, backed by the draft store.
type Editor struct {
	store    *draft.Store
	view     View
	uploader Uploader
	sessions *session.Context
	notice   *Notice
	renderer *markdown.Renderer
	logger   *log.Logger

	mu    sync.Mutex
	text  string
	style markdown.Style
}

// Config wires an Editor to its collaborators. Notice and Logger are optional.
type Config struct {
	Store    *draft.Store
	View     View
	Uploader Uploader
	Sessions *session.Context
	Notice   *Notice
	Logger   *log.Logger
}

// New creates an Editor.
func New(cfg Config) *Editor {
	if cfg.Notice == nil {
		cfg.Notice = NewNotice(nil)
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	return &Editor{
		store:    cfg.Store,
		view:     cfg.View,
		uploader: cfg.Uploader,
		sessions: cfg.Sessions,
		notice:   cfg.Notice,
		renderer: markdown.NewRenderer(),
		logger:   cfg.Logger,
	}
}

// Text returns the letter being written.
func (e *Editor) Text() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.text
}

// SetText replaces the letter being written.
func (e *Editor) SetText(text string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.text = text
}

// Style returns the active formatting.
func (e *Editor) Style() markdown.Style {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.style
}

// ToggleBold flips bold and returns the new state.
func (e *Editor) ToggleBold() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.style.Bold = !e.style.Bold
	return e.style.Bold
}

// ToggleItalic flips italic and returns the new state.
func (e *Editor) ToggleItalic() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.style.Italic = !e.style.Italic
	return e.style.Italic
}

// Message returns the visible notice.
func (e *Editor) Message() string {
	return e.notice.Text()
}

// Notice returns the editor's notice, which also receives sync failures.
func (e *Editor) Notice() *Notice {
	return e.notice
}

// Entries returns the merged list of cloud letters and local drafts.
func (e *Editor) Entries() []lsync.Entry {
	return e.view.Entries()
}

// Editing returns the ID of the draft being edited, if any.
func (e *Editor) Editing() (int64, bool) {
	return e.store.Selected()
}

// SaveDraft stores the letter as a new draft and starts a fresh letter.
func (e *Editor) SaveDraft() (draft.Draft, error) {
	d, err := e.store.Create(e.Text())
	if err != nil {
		e.notice.Notify(MsgDraftEmpty)
		return draft.Draft{}, err
	}
	e.store.ClearSelection()
	e.SetText("")
	e.notice.Notify(MsgDraftSaved)
	e.view.Refresh()
	return d, nil
}

// UpdateDraft writes the letter back into the draft being edited.
func (e *Editor) UpdateDraft() (draft.Draft, error) {
	id, ok := e.store.Selected()
	if !ok {
		e.notice.Notify(MsgUpdateEmpty)
		return draft.Draft{}, draft.ErrNoSelection
	}
	d, err := e.store.Update(id, e.Text())
	if err != nil {
		if errors.Is(err, draft.ErrNotFound) {
			e.logger.Printf("update draft %d: %v", id, err)
		}
		e.notice.Notify(MsgUpdateEmpty)
		return draft.Draft{}, err
	}
	e.notice.Notify(MsgDraftUpdated)
	e.view.Refresh()
	return d, nil
}

// LoadDraft puts a local draft in the editor and selects it.
func (e *Editor) LoadDraft(id int64) error {
	d, err := e.store.Select(id)
	if err != nil {
		return err
	}
	e.SetText(d.Content)
	e.notice.Clear()
	return nil
}

// CancelEdit discards the letter and the selection.
func (e *Editor) CancelEdit() {
	e.store.ClearSelection()
	e.SetText("")
}

// DeleteDraft removes a local draft. Deleting the draft being edited also
// clears the letter.
func (e *Editor) DeleteDraft(id int64) error {
	selected, wasSelected := e.store.Selected()
	if err := e.store.Delete(id); err != nil {
		return err
	}
	if wasSelected && selected == id {
		e.SetText("")
	}
	e.notice.Notify(MsgDraftDeleted)
	e.view.Refresh()
	return nil
}

// Upload sends the letter to the backend with the current session's
// credentials. On success the letter and selection are cleared and the
// cloud listing is fetched again; on failure the letter is kept.
func (e *Editor) Upload(ctx context.Context) error {
	text := e.Text()
	if draft.IsBlank(text) {
		e.notice.Notify(MsgUploadEmpty)
		return draft.ErrEmptyContent
	}

	current := e.sessions.Current()
	if err := e.uploader.Upload(ctx, current.Session, text); err != nil {
		e.logger.Printf("Error uploading letter: %v", err)
		e.notice.Notify(MsgUploadFailed)
		return fmt.Errorf("upload letter: %w", err)
	}

	e.store.ClearSelection()
	e.SetText("")
	e.notice.Notify(MsgUploadSucceeded)
	if err := e.view.Reconcile(ctx, current); err != nil && !errors.Is(err, lsync.ErrSuperseded) {
		e.logger.Printf("refresh after upload: %v", err)
	}
	return nil
}

// Preview renders the letter with the active formatting.
func (e *Editor) Preview() (string, error) {
	e.mu.Lock()
	text, style := e.text, e.style
	e.mu.Unlock()
	return e.renderer.RenderLetter(text, style)
}
