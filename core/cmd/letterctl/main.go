// Command letterctl manages letter drafts from the terminal. Drafts live in
// a local JSON file; signing in lets it list and upload letters through the
// letters backend.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
