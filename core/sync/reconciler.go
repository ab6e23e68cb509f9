package sync

import (
	"context"
	"errors"
	"fmt"
	"log"
	stdsync "sync"

	"github.com/jun/letterdrive/core/draft"
	"github.com/jun/letterdrive/core/session"
)

// FetchFailedMessage is shown when the cloud listing cannot be fetched.
const FetchFailedMessage = "Failed to fetch cloud drafts. Showing local drafts only."

// ErrSuperseded is returned by Reconcile when a newer run replaced it
// before it completed. Its result was discarded.
var ErrSuperseded = errors.New("reconcile superseded by a newer run")

// Lister fetches the cloud listing for a session.
type Lister interface {
	ListFiles(ctx context.Context, s *session.Session) ([]CloudFile, error)
}

// DraftSource provides the current local drafts.
type DraftSource interface {
	List() []draft.Draft
}

// Notifier shows a short, non-blocking message to the user.
type Notifier interface {
	Notify(message string)
}

// Reconciler keeps the merged view of cloud files and local drafts in step
// with the session. Only the most recent run may change the view.
type Reconciler struct {
	lister   Lister
	drafts   DraftSource
	notifier Notifier
	logger   *log.Logger

	mu        stdsync.Mutex
	current   session.Change
	latest    uint64
	seq       uint64
	cancel    context.CancelFunc
	cloud     []CloudFile
	listeners []func([]Entry)
}

// NewReconciler creates a Reconciler. notifier may be nil.
func NewReconciler(lister Lister, drafts DraftSource, notifier Notifier, logger *log.Logger) *Reconciler {
	if logger == nil {
		logger = log.Default()
	}
	return &Reconciler{
		lister:   lister,
		drafts:   drafts,
		notifier: notifier,
		logger:   logger,
	}
}

// OnChange registers fn to receive the merged view every time it changes.
func (r *Reconciler) OnChange(fn func([]Entry)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners = append(r.listeners, fn)
}

// Entries returns the current merged view.
func (r *Reconciler) Entries() []Entry {
	r.mu.Lock()
	cloud := r.cloud
	r.mu.Unlock()
	return Merge(cloud, r.drafts.List())
}

// Refresh republishes the view after the local drafts changed.
func (r *Reconciler) Refresh() {
	r.publish()
}

// Reconcile applies a session change. Without a session no remote call is
// made and only local drafts are shown. With a session the listing for its
// kind is fetched and merged; on failure the previous view is kept and the
// user is notified. A run started for an older session version, or one
// overtaken by a newer run, returns ErrSuperseded without touching the view.
func (r *Reconciler) Reconcile(ctx context.Context, change session.Change) error {
	r.mu.Lock()
	if change.Version < r.latest {
		r.mu.Unlock()
		return ErrSuperseded
	}
	r.latest = change.Version
	r.current = change
	r.seq++
	run := r.seq
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}

	if change.Session == nil {
		r.cloud = nil
		r.mu.Unlock()
		r.logger.Printf("No user logged in - showing local drafts only")
		r.publish()
		return nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.mu.Unlock()
	defer cancel()

	files, err := r.lister.ListFiles(runCtx, change.Session)

	r.mu.Lock()
	if run != r.seq {
		r.mu.Unlock()
		return ErrSuperseded
	}
	r.cancel = nil
	if err != nil {
		r.mu.Unlock()
		r.logger.Printf("Error fetching cloud drafts: %v", err)
		if r.notifier != nil {
			r.notifier.Notify(FetchFailedMessage)
		}
		return fmt.Errorf("list cloud files: %w", err)
	}
	r.cloud = files
	r.mu.Unlock()

	r.publish()
	return nil
}

// Resync fetches the listing again for the current session.
func (r *Reconciler) Resync(ctx context.Context) error {
	r.mu.Lock()
	change := r.current
	r.mu.Unlock()
	return r.Reconcile(ctx, change)
}

// Watch reconciles on every change published by sc, including its current
// value. Each change runs in its own goroutine; older runs are superseded.
// The returned function unsubscribes and cancels any run in flight.
func (r *Reconciler) Watch(ctx context.Context, sc *session.Context) (stop func()) {
	ctx, cancel := context.WithCancel(ctx)
	unsubscribe := sc.Subscribe(func(change session.Change) {
		go func() {
			if err := r.Reconcile(ctx, change); err != nil && !errors.Is(err, ErrSuperseded) {
				r.logger.Printf("reconcile session v%d: %v", change.Version, err)
			}
		}()
	})
	return func() {
		unsubscribe()
		cancel()
	}
}

func (r *Reconciler) publish() {
	entries := r.Entries()
	r.mu.Lock()
	listeners := make([]func([]Entry), len(r.listeners))
	copy(listeners, r.listeners)
	r.mu.Unlock()

	for _, fn := range listeners {
		fn(entries)
	}
}
