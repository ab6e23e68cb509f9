package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jun/letterdrive/core/session"
)

// letterText joins args, or reads stdin when the only arg is "-".
func letterText(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 1 && args[0] == "-" {
		raw, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("read letter: %w", err)
		}
		return string(raw), nil
	}
	return strings.Join(args, " "), nil
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid draft id %q", s)
	}
	return id, nil
}

func newDraftsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "drafts",
		Short: "Manage local drafts",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List local drafts",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			a.printEntries(a.reconciler.Entries())
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "new <text...|->",
		Short: "Save a new draft",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := letterText(cmd, args)
			if err != nil {
				return err
			}
			a.editor.SetText(text)
			d, err := a.editor.SaveDraft()
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, d.ID)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show <id>",
		Short: "Print a draft's content",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := a.editor.LoadDraft(id); err != nil {
				return err
			}
			fmt.Fprintln(a.out, a.editor.Text())
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "update <id> <text...|->",
		Short: "Replace a draft's content",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			text, err := letterText(cmd, args[1:])
			if err != nil {
				return err
			}
			if err := a.editor.LoadDraft(id); err != nil {
				return err
			}
			a.editor.SetText(text)
			_, err = a.editor.UpdateDraft()
			return err
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a draft",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return a.editor.DeleteDraft(id)
		},
	})

	var style struct{ bold, italic bool }
	previewCmd := &cobra.Command{
		Use:   "preview <id>",
		Short: "Render a draft as HTML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := a.editor.LoadDraft(id); err != nil {
				return err
			}
			if style.bold {
				a.editor.ToggleBold()
			}
			if style.italic {
				a.editor.ToggleItalic()
			}
			html, err := a.editor.Preview()
			if err != nil {
				return err
			}
			fmt.Fprint(a.out, html)
			return nil
		},
	}
	previewCmd.Flags().BoolVar(&style.bold, "bold", false, "render in bold")
	previewCmd.Flags().BoolVar(&style.italic, "italic", false, "render in italic")
	cmd.AddCommand(previewCmd)

	return cmd
}

func newLoginCmd(a *app) *cobra.Command {
	var creds session.Credentials
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with a username and password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.provider.Login(cmd.Context(), creds)
			if err != nil {
				return fmt.Errorf("login failed: %w", err)
			}
			if err := a.saveSession(s); err != nil {
				return fmt.Errorf("save session: %w", err)
			}
			fmt.Fprintf(a.out, "Signed in as %s.\n", s.UserID)
			return nil
		},
	}
	cmd.Flags().StringVarP(&creds.Username, "username", "u", "", "account name")
	cmd.Flags().StringVarP(&creds.Password, "password", "p", "", "account password")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			err := a.provider.Logout(cmd.Context())
			if saveErr := a.saveSession(nil); saveErr != nil {
				return fmt.Errorf("clear session: %w", saveErr)
			}
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "server logout failed: %v\n", err)
			}
			fmt.Fprintln(a.out, "Signed out.")
			return nil
		},
	}
}

func newSyncCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "List cloud letters together with local drafts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := a.sync(cmd.Context())
			a.printEntries(entries)
			return err
		},
	}
}

func newUploadCmd(a *app) *cobra.Command {
	var draftID string
	cmd := &cobra.Command{
		Use:   "upload [text...|-]",
		Short: "Upload a letter",
		RunE: func(cmd *cobra.Command, args []string) error {
			if draftID != "" {
				id, err := parseID(draftID)
				if err != nil {
					return err
				}
				if err := a.editor.LoadDraft(id); err != nil {
					return err
				}
			} else {
				text, err := letterText(cmd, args)
				if err != nil {
					return err
				}
				a.editor.SetText(text)
			}
			return a.editor.Upload(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&draftID, "draft", "", "upload the draft with this id instead of the arguments")
	return cmd
}
