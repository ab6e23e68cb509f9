package draft

import "errors"

var (
	// ErrEmptyContent is returned when a draft would be saved with blank content.
	ErrEmptyContent = errors.New("draft content is empty")

	// ErrNoSelection is returned by Update when no draft is being edited.
	ErrNoSelection = errors.New("no draft selected")

	// ErrNotFound is returned when no draft has the requested ID.
	ErrNotFound = errors.New("draft not found")
)
