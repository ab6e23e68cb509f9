package googledrive

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jun/letterdrive/backend/internal/adapter"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

func TestToDriveName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"appends .txt to plain name", "letter", "letter.txt"},
		{"keeps .txt if already present", "letter.txt", "letter.txt"},
		{"handles empty string", "", ".txt"},
		{"handles name with dots", "to.ann.v2", "to.ann.v2.txt"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := toDriveName(tt.in)
			if got != tt.want {
				t.Errorf("toDriveName(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestFromDriveName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"strips .txt extension", "letter.txt", "letter"},
		{"no-op if no .txt", "letter", "letter"},
		{"handles empty string", "", ""},
		{"strips only trailing .txt", "a.txt.backup.txt", "a.txt.backup"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := fromDriveName(tt.in)
			if got != tt.want {
				t.Errorf("fromDriveName(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestEscapeQuery(t *testing.T) {
	if got := escapeQuery(`Ann's \ letters`); got != `Ann\'s \\ letters` {
		t.Errorf("escapeQuery() = %q", got)
	}
}

func newTestAdapter(t *testing.T, h http.HandlerFunc) *DriveAdapter {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	svc, err := drive.NewService(context.Background(),
		option.WithHTTPClient(srv.Client()),
		option.WithEndpoint(srv.URL+"/"),
	)
	if err != nil {
		t.Fatalf("drive.NewService: %v", err)
	}
	return &DriveAdapter{service: svc, FolderID: "folder-1"}
}

func TestDriveAdapter_ListFiles(t *testing.T) {
	d := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query().Get("q")
		if !strings.Contains(q, "'folder-1' in parents") {
			t.Errorf("unexpected query %q", q)
		}
		if got := r.URL.Query().Get("orderBy"); got != "modifiedTime desc" {
			t.Errorf("orderBy = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"files": []map[string]any{
				{"id": "a", "name": "To Ann.txt", "mimeType": "text/plain", "modifiedTime": "2024-01-01T10:00:00Z", "webViewLink": "https://drive/a"},
				{"id": "b", "name": "notes.pdf", "mimeType": "application/pdf"},
			},
		})
	})

	files, err := d.ListFiles(context.Background(), "")
	if err != nil {
		t.Fatalf("ListFiles failed: %v", err)
	}
	if len(files) != 1 {
		t.Fatalf("Expected 1 letter, got %d", len(files))
	}
	if files[0].Name != "To Ann" || files[0].WebViewLink != "https://drive/a" {
		t.Errorf("unexpected letter %+v", files[0])
	}
	if files[0].ModifiedTime.Year() != 2024 {
		t.Errorf("modified time not parsed: %v", files[0].ModifiedTime)
	}
}

func TestDriveAdapter_GetFile_NotFound(t *testing.T) {
	d := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":{"code":404,"message":"File not found"}}`))
	})

	_, err := d.GetFile(context.Background(), "missing")
	if !errors.Is(err, adapter.ErrNotFound) {
		t.Fatalf("Expected adapter.ErrNotFound, got %v", err)
	}
}
