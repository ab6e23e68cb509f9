package adapter

import (
	"context"
	"time"
)

// FileMetadata represents metadata about a file stored in the cloud storage.
type FileMetadata struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	MIMEType     string    `json:"mimeType"`
	ModifiedTime time.Time `json:"modifiedTime"`
	Size         int64     `json:"size"`
	WebViewLink  string    `json:"webViewLink"`
}

// File represents a file with its content.
type File struct {
	FileMetadata
	Content []byte `json:"content"`
}

// StorageAdapter is where a user's letters are kept: Google Drive for
// Google users, the letter store for local accounts.
type StorageAdapter interface {
	// ListFiles lists the letters in a folder, newest first.
	ListFiles(ctx context.Context, folderID string) ([]FileMetadata, error)

	// GetFile retrieves a letter's content and metadata by its ID.
	GetFile(ctx context.Context, fileID string) (*File, error)

	// CreateFile creates a new letter in the specified folder.
	CreateFile(ctx context.Context, name string, content []byte, folderID string) (*FileMetadata, error)

	// EnsureRootFolder ensures a top-level folder exists and returns its ID.
	EnsureRootFolder(ctx context.Context, name string) (string, error)
}
