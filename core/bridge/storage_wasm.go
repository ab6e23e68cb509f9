//go:build js && wasm

package main

import "syscall/js"

// localStorage keeps drafts in the browser's window.localStorage.
type localStorage struct {
	ls js.Value
}

func newLocalStorage() *localStorage {
	return &localStorage{ls: js.Global().Get("localStorage")}
}

func (l *localStorage) Get(key string) (value string, ok bool, err error) {
	defer recoverJS(&err)
	v := l.ls.Call("getItem", key)
	if v.IsNull() || v.IsUndefined() {
		return "", false, nil
	}
	return v.String(), true, nil
}

func (l *localStorage) Set(key, value string) (err error) {
	defer recoverJS(&err)
	l.ls.Call("setItem", key, value)
	return nil
}

func (l *localStorage) Remove(key string) (err error) {
	defer recoverJS(&err)
	l.ls.Call("removeItem", key)
	return nil
}

// recoverJS turns a thrown JS exception (quota exceeded, storage disabled)
// into an error.
func recoverJS(err *error) {
	if r := recover(); r != nil {
		if jsErr, ok := r.(js.Error); ok {
			*err = jsErr
			return
		}
		panic(r)
	}
}
