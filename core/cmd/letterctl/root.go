package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/jun/letterdrive/core/api"
	"github.com/jun/letterdrive/core/draft"
	"github.com/jun/letterdrive/core/editor"
	"github.com/jun/letterdrive/core/session"
	lsync "github.com/jun/letterdrive/core/sync"
)

const sessionKey = "session"

type options struct {
	storePath string
	server    string
	verbose   bool
}

// app is everything a command needs, built once per invocation.
type app struct {
	storage    *draft.FileStorage
	store      *draft.Store
	client     *api.Client
	provider   *session.Provider
	reconciler *lsync.Reconciler
	editor     *editor.Editor
	out        io.Writer
}

func defaultStorePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "letterdrive.json"
	}
	return filepath.Join(home, ".letterdrive", "drafts.json")
}

func defaultServer() string {
	if v := os.Getenv("LETTERDRIVE_SERVER"); v != "" {
		return v
	}
	return "http://localhost:8080"
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	a := &app{}

	root := &cobra.Command{
		Use:           "letterctl",
		Short:         "Write, keep and upload letters",
		Long:          `letterctl keeps letter drafts in a local file and, once signed in, lists and uploads letters to the letters backend.`,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd, opts)
		},
	}

	root.PersistentFlags().StringVar(&opts.storePath, "store", defaultStorePath(), "path of the local draft file")
	root.PersistentFlags().StringVar(&opts.server, "server", defaultServer(), "base URL of the letters backend")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log warnings and sync failures")

	root.AddCommand(
		newDraftsCmd(a),
		newLoginCmd(a),
		newLogoutCmd(a),
		newSyncCmd(a),
		newUploadCmd(a),
	)
	return root
}

func (a *app) init(cmd *cobra.Command, opts *options) error {
	logOut := io.Discard
	if opts.verbose {
		logOut = cmd.ErrOrStderr()
	}
	logger := log.New(logOut, "", log.LstdFlags)

	if err := os.MkdirAll(filepath.Dir(opts.storePath), 0o755); err != nil {
		return fmt.Errorf("create store directory: %w", err)
	}

	a.out = cmd.OutOrStdout()
	a.storage = draft.NewFileStorage(opts.storePath)
	a.store = draft.NewStore(a.storage, draft.WithLogger(logger))
	a.store.Load()

	a.client = api.NewClient(opts.server, &http.Client{})
	a.provider = session.NewProvider(a.client, session.NewContext(), logger)
	a.provider.Context().Set(a.restoreSession(logger))

	notice := editor.NewNotice(func(time.Duration, func()) {})
	notice.OnChange(func(msg string) {
		if msg != "" {
			fmt.Fprintln(cmd.ErrOrStderr(), msg)
		}
	})
	a.reconciler = lsync.NewReconciler(a.client, a.store, notice, logger)
	a.editor = editor.New(editor.Config{
		Store:    a.store,
		View:     a.reconciler,
		Uploader: a.client,
		Sessions: a.provider.Context(),
		Notice:   notice,
		Logger:   logger,
	})
	return nil
}

// restoreSession reads the token session saved by login. The CLI has no
// browser cookie, so only token sessions survive between invocations.
func (a *app) restoreSession(logger *log.Logger) *session.Session {
	raw, ok, err := a.storage.Get(sessionKey)
	if err != nil || !ok {
		if err != nil {
			logger.Printf("WARNING: read saved session: %v", err)
		}
		return nil
	}
	var s session.Session
	if err := json.Unmarshal([]byte(raw), &s); err != nil || s.AccessToken == "" {
		logger.Printf("WARNING: ignoring malformed saved session")
		return nil
	}
	return &s
}

func (a *app) saveSession(s *session.Session) error {
	if s == nil {
		return a.storage.Remove(sessionKey)
	}
	raw, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return a.storage.Set(sessionKey, string(raw))
}

// sync fetches the cloud listing for the current session and returns the
// merged view. The view is returned even when the fetch fails, in which case
// it holds local drafts only.
func (a *app) sync(ctx context.Context) ([]lsync.Entry, error) {
	err := a.reconciler.Reconcile(ctx, a.provider.Context().Current())
	if errors.Is(err, lsync.ErrSuperseded) {
		err = nil
	}
	return a.reconciler.Entries(), err
}

func (a *app) printEntries(entries []lsync.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(a.out, "No drafts.")
		return
	}
	for _, e := range entries {
		if e.IsCloud() {
			fmt.Fprintf(a.out, "  cloud  %-20s  %-30s  %s\n", e.Key(), e.Title(), e.Updated())
			continue
		}
		fmt.Fprintf(a.out, "  local  %-20s  %-30s  %s\n", e.Key(), e.Title(), e.Updated())
	}
}
