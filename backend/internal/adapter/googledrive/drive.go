package googledrive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jun/letterdrive/backend/internal/adapter"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const (
	letterExt      = ".txt"
	letterMIMEType = "text/plain"
	folderMIMEType = "application/vnd.google-apps.folder"
	fileFields     = "id, name, mimeType, modifiedTime, size, webViewLink"
)

// toDriveName appends the letter extension for storage on Google Drive.
func toDriveName(name string) string {
	if strings.HasSuffix(name, letterExt) {
		return name
	}
	return name + letterExt
}

// fromDriveName strips the letter extension when returning names to the API.
func fromDriveName(name string) string {
	return strings.TrimSuffix(name, letterExt)
}

// escapeQuery quotes a value for use inside a Drive query string literal.
func escapeQuery(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `'`, `\'`)
}

// DriveAdapter implements adapter.StorageAdapter for Google Drive.
type DriveAdapter struct {
	service  *drive.Service
	FolderID string
}

// NewDriveAdapter creates a new DriveAdapter.
// client should be an http.Client authorized with the user's credentials.
func NewDriveAdapter(ctx context.Context, client *http.Client, folderID string) (*DriveAdapter, error) {
	srv, err := drive.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve Drive client: %w", err)
	}
	return &DriveAdapter{service: srv, FolderID: folderID}, nil
}

func (d *DriveAdapter) folder(folderID string) string {
	if folderID != "" {
		return folderID
	}
	if d.FolderID != "" {
		return d.FolderID
	}
	return "root"
}

func toMetadata(f *drive.File) adapter.FileMetadata {
	modTime, _ := time.Parse(time.RFC3339, f.ModifiedTime)
	name := f.Name
	if f.MimeType != folderMIMEType {
		name = fromDriveName(name)
	}
	return adapter.FileMetadata{
		ID:           f.Id,
		Name:         name,
		MIMEType:     f.MimeType,
		ModifiedTime: modTime,
		Size:         f.Size,
		WebViewLink:  f.WebViewLink,
	}
}

// ListFiles lists the letters in a folder, newest first.
func (d *DriveAdapter) ListFiles(ctx context.Context, folderID string) ([]adapter.FileMetadata, error) {
	q := fmt.Sprintf("'%s' in parents and trashed = false and mimeType != '%s'", escapeQuery(d.folder(folderID)), folderMIMEType)

	files := []adapter.FileMetadata{}
	err := d.service.Files.List().
		Q(q).
		OrderBy("modifiedTime desc").
		Fields(googleapi.Field("nextPageToken, files(" + fileFields + ")")).
		Pages(ctx, func(page *drive.FileList) error {
			for _, f := range page.Files {
				if !strings.HasSuffix(f.Name, letterExt) {
					continue
				}
				files = append(files, toMetadata(f))
			}
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("unable to list files: %w", err)
	}
	return files, nil
}

// EnsureRootFolder finds the folder called name under My Drive, creating it
// if needed. A folder already recorded for the user is returned as is.
func (d *DriveAdapter) EnsureRootFolder(ctx context.Context, name string) (string, error) {
	if d.FolderID != "" {
		return d.FolderID, nil
	}

	q := fmt.Sprintf("name = '%s' and mimeType = '%s' and 'root' in parents and trashed = false", escapeQuery(name), folderMIMEType)
	r, err := d.service.Files.List().Q(q).Fields("files(id)").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("unable to search for root folder: %w", err)
	}
	if len(r.Files) > 0 {
		return r.Files[0].Id, nil
	}

	res, err := d.service.Files.Create(&drive.File{
		Name:     name,
		MimeType: folderMIMEType,
		Parents:  []string{"root"},
	}).Fields("id").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("unable to create root folder: %w", err)
	}
	return res.Id, nil
}

// GetFile retrieves a letter's content and metadata by its ID.
func (d *DriveAdapter) GetFile(ctx context.Context, fileID string) (*adapter.File, error) {
	f, err := d.service.Files.Get(fileID).
		Fields(googleapi.Field(fileFields)).
		Context(ctx).
		Do()
	if err != nil {
		if isNotFound(err) {
			return nil, adapter.ErrNotFound
		}
		return nil, fmt.Errorf("unable to get file metadata: %w", err)
	}

	resp, err := d.service.Files.Get(fileID).Context(ctx).Download()
	if err != nil {
		return nil, fmt.Errorf("unable to download file: %w", err)
	}
	defer resp.Body.Close()

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("unable to read file content: %w", err)
	}

	return &adapter.File{FileMetadata: toMetadata(f), Content: content}, nil
}

// CreateFile uploads a new letter into the folder.
func (d *DriveAdapter) CreateFile(ctx context.Context, name string, content []byte, folderID string) (*adapter.FileMetadata, error) {
	f := &drive.File{
		Name:     toDriveName(name),
		MimeType: letterMIMEType,
		Parents:  []string{d.folder(folderID)},
	}
	res, err := d.service.Files.Create(f).
		Media(bytes.NewReader(content), googleapi.ContentType(letterMIMEType)).
		Fields(googleapi.Field(fileFields)).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("unable to create file: %w", err)
	}

	meta := toMetadata(res)
	return &meta, nil
}

func isNotFound(err error) bool {
	var gErr *googleapi.Error
	if errors.As(err, &gErr) {
		return gErr.Code == http.StatusNotFound
	}
	return false
}
