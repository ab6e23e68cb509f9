package editor

import (
	"bytes"
	"context"
	"errors"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jun/letterdrive/core/draft"
	"github.com/jun/letterdrive/core/session"
	lsync "github.com/jun/letterdrive/core/sync"
)

type fakeUploader struct {
	err      error
	sessions []*session.Session
	contents []string
}

func (f *fakeUploader) Upload(_ context.Context, s *session.Session, content string) error {
	f.sessions = append(f.sessions, s)
	f.contents = append(f.contents, content)
	return f.err
}

type fakeLister struct {
	files []lsync.CloudFile
	calls int
}

func (f *fakeLister) ListFiles(context.Context, *session.Session) ([]lsync.CloudFile, error) {
	f.calls++
	return f.files, nil
}

type fixture struct {
	editor   *Editor
	store    *draft.Store
	storage  *draft.MemoryStorage
	sessions *session.Context
	uploader *fakeUploader
	lister   *fakeLister
	timers   *manualTimers
	logs     *bytes.Buffer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logs := &bytes.Buffer{}
	logger := log.New(logs, "", 0)

	storage := draft.NewMemoryStorage()
	store := draft.NewStore(storage, draft.WithLogger(logger))
	store.Load()

	sessions := session.NewContext()
	lister := &fakeLister{}
	timers := &manualTimers{}
	notice := NewNotice(timers.schedule)
	reconciler := lsync.NewReconciler(lister, store, notice, logger)
	require.NoError(t, reconciler.Reconcile(context.Background(), sessions.Current()))

	uploader := &fakeUploader{}
	ed := New(Config{
		Store:    store,
		View:     reconciler,
		Uploader: uploader,
		Sessions: sessions,
		Notice:   notice,
		Logger:   logger,
	})
	return &fixture{ed, store, storage, sessions, uploader, lister, timers, logs}
}

func TestEditor_SaveDraft(t *testing.T) {
	f := newFixture(t)

	f.editor.SetText("Dear Ann")
	d, err := f.editor.SaveDraft()
	require.NoError(t, err)

	assert.Equal(t, MsgDraftSaved, f.editor.Message())
	assert.Empty(t, f.editor.Text())
	_, editing := f.editor.Editing()
	assert.False(t, editing)

	entries := f.editor.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, d.ID, entries[0].Draft.ID)

	_, ok, err := f.storage.Get(draft.StorageKey)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestEditor_SaveDraft_Blank(t *testing.T) {
	f := newFixture(t)

	f.editor.SetText("   ")
	_, err := f.editor.SaveDraft()
	assert.ErrorIs(t, err, draft.ErrEmptyContent)
	assert.Equal(t, MsgDraftEmpty, f.editor.Message())
	assert.Empty(t, f.store.List())
}

func TestEditor_LoadAndUpdateDraft(t *testing.T) {
	f := newFixture(t)
	f.editor.SetText("first version")
	d, err := f.editor.SaveDraft()
	require.NoError(t, err)

	require.NoError(t, f.editor.LoadDraft(d.ID))
	assert.Equal(t, "first version", f.editor.Text())
	assert.Empty(t, f.editor.Message())

	f.editor.SetText("second version")
	updated, err := f.editor.UpdateDraft()
	require.NoError(t, err)
	assert.Equal(t, d.ID, updated.ID)
	assert.Equal(t, "second version", updated.Content)
	assert.Equal(t, MsgDraftUpdated, f.editor.Message())
	assert.Equal(t, "second version", f.editor.Text(), "update keeps the letter open")
}

func TestEditor_UpdateDraft_Rejected(t *testing.T) {
	f := newFixture(t)

	f.editor.SetText("no selection")
	_, err := f.editor.UpdateDraft()
	assert.ErrorIs(t, err, draft.ErrNoSelection)
	assert.Equal(t, MsgUpdateEmpty, f.editor.Message())

	f.editor.SetText("x")
	d, err := f.editor.SaveDraft()
	require.NoError(t, err)
	require.NoError(t, f.editor.LoadDraft(d.ID))
	f.editor.SetText("")
	_, err = f.editor.UpdateDraft()
	assert.ErrorIs(t, err, draft.ErrEmptyContent)
	assert.Equal(t, MsgUpdateEmpty, f.editor.Message())
}

func TestEditor_LoadDraft_Unknown(t *testing.T) {
	f := newFixture(t)
	assert.ErrorIs(t, f.editor.LoadDraft(42), draft.ErrNotFound)
}

func TestEditor_CancelEdit(t *testing.T) {
	f := newFixture(t)
	f.editor.SetText("x")
	d, err := f.editor.SaveDraft()
	require.NoError(t, err)
	require.NoError(t, f.editor.LoadDraft(d.ID))

	f.editor.CancelEdit()
	assert.Empty(t, f.editor.Text())
	_, editing := f.editor.Editing()
	assert.False(t, editing)
}

func TestEditor_DeleteDraft(t *testing.T) {
	f := newFixture(t)
	f.editor.SetText("keep")
	keep, err := f.editor.SaveDraft()
	require.NoError(t, err)
	f.editor.SetText("drop")
	drop, err := f.editor.SaveDraft()
	require.NoError(t, err)

	require.NoError(t, f.editor.LoadDraft(drop.ID))
	require.NoError(t, f.editor.DeleteDraft(drop.ID))
	assert.Empty(t, f.editor.Text(), "deleting the open draft clears the letter")
	assert.Equal(t, MsgDraftDeleted, f.editor.Message())

	require.NoError(t, f.editor.LoadDraft(keep.ID))
	require.NoError(t, f.editor.DeleteDraft(keep.ID))
	assert.Empty(t, f.editor.Entries())

	_, ok, err := f.storage.Get(draft.StorageKey)
	require.NoError(t, err)
	assert.False(t, ok, "deleting the last draft removes the persisted list")

	assert.ErrorIs(t, f.editor.DeleteDraft(keep.ID), draft.ErrNotFound)
}

func TestEditor_DeleteDraft_OtherDraftKeepsLetter(t *testing.T) {
	f := newFixture(t)
	f.editor.SetText("a")
	a, err := f.editor.SaveDraft()
	require.NoError(t, err)
	f.editor.SetText("b")
	b, err := f.editor.SaveDraft()
	require.NoError(t, err)

	require.NoError(t, f.editor.LoadDraft(a.ID))
	require.NoError(t, f.editor.DeleteDraft(b.ID))
	assert.Equal(t, "a", f.editor.Text())
	id, editing := f.editor.Editing()
	assert.True(t, editing)
	assert.Equal(t, a.ID, id)
}

func TestEditor_Upload_Blank(t *testing.T) {
	f := newFixture(t)
	f.editor.SetText(" \t")

	err := f.editor.Upload(context.Background())
	assert.ErrorIs(t, err, draft.ErrEmptyContent)
	assert.Equal(t, MsgUploadEmpty, f.editor.Message())
	assert.Empty(t, f.uploader.contents, "no request for a blank letter")
}

func TestEditor_Upload_Success(t *testing.T) {
	f := newFixture(t)
	s := &session.Session{UserID: "u", AccessToken: "t", Kind: session.KindToken}
	f.sessions.Set(s)
	f.lister.files = []lsync.CloudFile{{ID: "uploaded", Name: "letter.txt"}}

	f.editor.SetText("Dear Ann")
	require.NoError(t, f.editor.Upload(context.Background()))

	assert.Equal(t, []string{"Dear Ann"}, f.uploader.contents)
	assert.Same(t, s, f.uploader.sessions[0])
	assert.Empty(t, f.editor.Text())
	assert.Equal(t, MsgUploadSucceeded, f.editor.Message())

	entries := f.editor.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "uploaded", entries[0].Key())
	assert.Equal(t, 1, f.lister.calls)
}

func TestEditor_Upload_Failure(t *testing.T) {
	f := newFixture(t)
	f.uploader.err = errors.New("status 500")

	f.editor.SetText("Dear Ann")
	err := f.editor.Upload(context.Background())
	require.Error(t, err)
	assert.Equal(t, MsgUploadFailed, f.editor.Message())
	assert.Equal(t, "Dear Ann", f.editor.Text(), "letter is kept after a failed upload")
	assert.Contains(t, f.logs.String(), "status 500")
}

func TestEditor_MessagesAreTransient(t *testing.T) {
	f := newFixture(t)
	f.editor.SetText("x")
	_, err := f.editor.SaveDraft()
	require.NoError(t, err)

	f.editor.SetText("")
	_, _ = f.editor.SaveDraft()
	require.Len(t, f.timers.pending, 2)

	f.timers.fire(0)
	assert.Equal(t, MsgDraftEmpty, f.editor.Message())
	f.timers.fire(1)
	assert.Empty(t, f.editor.Message())
}

func TestEditor_Styling(t *testing.T) {
	f := newFixture(t)
	f.editor.SetText("Hi")

	assert.True(t, f.editor.ToggleBold())
	assert.True(t, f.editor.ToggleItalic())
	assert.False(t, f.editor.ToggleItalic())

	html, err := f.editor.Preview()
	require.NoError(t, err)
	assert.Contains(t, html, `style="font-weight: bold;"`)
	assert.Contains(t, html, "<p>Hi</p>")
	assert.True(t, f.editor.Style().Bold)
}
