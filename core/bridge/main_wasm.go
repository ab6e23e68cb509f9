//go:build js && wasm

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"syscall/js"

	"github.com/jun/letterdrive/core/api"
	"github.com/jun/letterdrive/core/draft"
	"github.com/jun/letterdrive/core/editor"
	"github.com/jun/letterdrive/core/session"
	lsync "github.com/jun/letterdrive/core/sync"
)

// includeCredentials makes fetch send the session cookie to the API origin.
type includeCredentials struct {
	next http.RoundTripper
}

func (t includeCredentials) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("js.fetch:credentials", "include")
	return t.next.RoundTrip(req)
}

func baseURL() string {
	if v := js.Global().Get("LETTERDRIVE_BASE_URL"); v.Type() == js.TypeString {
		return v.String()
	}
	return js.Global().Get("location").Get("origin").String()
}

func main() {
	logger := log.Default()

	store := draft.NewStore(newLocalStorage(), draft.WithLogger(logger))
	store.Load()

	client := api.NewClient(baseURL(), &http.Client{
		Transport: includeCredentials{next: http.DefaultTransport},
	})
	provider := session.NewProvider(client, session.NewContext(), logger)

	notice := editor.NewNotice(nil)
	reconciler := lsync.NewReconciler(client, store, notice, logger)
	ed := editor.New(editor.Config{
		Store:    store,
		View:     reconciler,
		Uploader: client,
		Sessions: provider.Context(),
		Notice:   notice,
		Logger:   logger,
	})

	reconciler.Watch(context.Background(), provider.Context())
	go provider.Resolve(context.Background())

	exports := js.Global().Get("Object").New()

	// format: setText(text)
	exports.Set("setText", js.FuncOf(func(this js.Value, args []js.Value) any {
		if len(args) != 1 {
			return "Error: Invalid number of arguments"
		}
		ed.SetText(args[0].String())
		return nil
	}))
	exports.Set("text", js.FuncOf(func(this js.Value, args []js.Value) any {
		return ed.Text()
	}))
	exports.Set("toggleBold", js.FuncOf(func(this js.Value, args []js.Value) any {
		return ed.ToggleBold()
	}))
	exports.Set("toggleItalic", js.FuncOf(func(this js.Value, args []js.Value) any {
		return ed.ToggleItalic()
	}))
	exports.Set("preview", js.FuncOf(func(this js.Value, args []js.Value) any {
		html, err := ed.Preview()
		if err != nil {
			return "Error: " + err.Error()
		}
		return html
	}))
	exports.Set("message", js.FuncOf(func(this js.Value, args []js.Value) any {
		return ed.Message()
	}))

	exports.Set("saveDraft", js.FuncOf(func(this js.Value, args []js.Value) any {
		_, err := ed.SaveDraft()
		return err == nil
	}))
	exports.Set("updateDraft", js.FuncOf(func(this js.Value, args []js.Value) any {
		_, err := ed.UpdateDraft()
		return err == nil
	}))
	// format: loadDraft(id number) -> bool
	exports.Set("loadDraft", js.FuncOf(func(this js.Value, args []js.Value) any {
		if len(args) != 1 {
			return false
		}
		return ed.LoadDraft(int64(args[0].Float())) == nil
	}))
	exports.Set("cancelEdit", js.FuncOf(func(this js.Value, args []js.Value) any {
		ed.CancelEdit()
		return nil
	}))
	// format: deleteDraft(id number) -> bool
	exports.Set("deleteDraft", js.FuncOf(func(this js.Value, args []js.Value) any {
		if len(args) != 1 {
			return false
		}
		return ed.DeleteDraft(int64(args[0].Float())) == nil
	}))
	// format: entries() -> JSON array of cloud files and drafts
	exports.Set("entries", js.FuncOf(func(this js.Value, args []js.Value) any {
		return entriesJSON(ed.Entries())
	}))

	// format: upload() -> Promise<bool>
	exports.Set("upload", js.FuncOf(func(this js.Value, args []js.Value) any {
		return promise(func() (any, error) {
			return true, ed.Upload(context.Background())
		})
	}))
	// format: login(username, password) -> Promise<session>
	exports.Set("login", js.FuncOf(func(this js.Value, args []js.Value) any {
		if len(args) != 2 {
			return nil
		}
		creds := session.Credentials{Username: args[0].String(), Password: args[1].String()}
		return promise(func() (any, error) {
			s, err := provider.Login(context.Background(), creds)
			if err != nil {
				return nil, err
			}
			return sessionObject(s), nil
		})
	}))
	exports.Set("logout", js.FuncOf(func(this js.Value, args []js.Value) any {
		return promise(func() (any, error) {
			return true, provider.Logout(context.Background())
		})
	}))
	exports.Set("currentUser", js.FuncOf(func(this js.Value, args []js.Value) any {
		return sessionObject(provider.Context().Current().Session)
	}))

	// format: onChange(callback(entriesJSON, message))
	exports.Set("onChange", js.FuncOf(func(this js.Value, args []js.Value) any {
		if len(args) != 1 || args[0].Type() != js.TypeFunction {
			return nil
		}
		cb := args[0]
		reconciler.OnChange(func(entries []lsync.Entry) {
			cb.Invoke(entriesJSON(entries), ed.Message())
		})
		notice.OnChange(func(msg string) {
			cb.Invoke(entriesJSON(ed.Entries()), msg)
		})
		return nil
	}))

	js.Global().Set("letterdrive", exports)

	fmt.Println("letterdrive core wasm initialized")

	select {}
}

func entriesJSON(entries []lsync.Entry) string {
	raw, err := json.Marshal(entries)
	if err != nil {
		return "[]"
	}
	return string(raw)
}

func sessionObject(s *session.Session) any {
	if s == nil {
		return nil
	}
	obj := js.Global().Get("Object").New()
	obj.Set("id", s.UserID)
	obj.Set("email", s.Email)
	obj.Set("name", s.DisplayName)
	obj.Set("googleAuth", s.GoogleAuth())
	return obj
}

// promise runs fn off the event loop and settles a JS Promise with its result.
func promise(fn func() (any, error)) js.Value {
	var handler js.Func
	handler = js.FuncOf(func(this js.Value, args []js.Value) any {
		resolve, reject := args[0], args[1]
		go func() {
			defer handler.Release()
			v, err := fn()
			if err != nil {
				reject.Invoke(js.Global().Get("Error").New(err.Error()))
				return
			}
			resolve.Invoke(v)
		}()
		return nil
	})
	return js.Global().Get("Promise").New(handler)
}
