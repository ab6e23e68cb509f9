package memory

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jun/letterdrive/backend/internal/adapter"
)

func TestMemoryAdapter_Limits(t *testing.T) {
	ctx := context.Background()
	m := newTestAdapter("user1")

	t.Run("Name length limit", func(t *testing.T) {
		longName := strings.Repeat("a", maxNameLength+1)
		_, err := m.CreateFile(ctx, longName, []byte("content"), "")
		if !errors.Is(err, adapter.ErrLimitExceeded) || !strings.Contains(err.Error(), "name too long") {
			t.Errorf("Expected error about name length, got: %v", err)
		}
	})

	t.Run("Content size limit", func(t *testing.T) {
		largeContent := make([]byte, maxLetterSize+1)
		_, err := m.CreateFile(ctx, "big", largeContent, "")
		if !errors.Is(err, adapter.ErrLimitExceeded) || !strings.Contains(err.Error(), "content too large") {
			t.Errorf("Expected error about content size, got: %v", err)
		}
	})

	t.Run("Item count limit", func(t *testing.T) {
		m2 := newTestAdapter("user2")
		for i := 0; i < maxItemsPerUser; i++ {
			_, err := m2.CreateFile(ctx, "letter", []byte("ok"), "")
			if err != nil {
				t.Fatalf("Failed to create item %d: %v", i, err)
			}
		}
		_, err := m2.CreateFile(ctx, "overflow", []byte("ok"), "")
		if !errors.Is(err, adapter.ErrLimitExceeded) || !strings.Contains(err.Error(), "item limit reached") {
			t.Errorf("Expected error about item limit, got: %v", err)
		}
	})

	t.Run("Folder does not count toward item limit", func(t *testing.T) {
		m3 := newTestAdapter("user3")
		folderID, err := m3.EnsureRootFolder(ctx, "Letters")
		if err != nil {
			t.Fatalf("EnsureRootFolder failed: %v", err)
		}
		for i := 0; i < maxItemsPerUser; i++ {
			if _, err := m3.CreateFile(ctx, "letter", []byte("ok"), folderID); err != nil {
				t.Fatalf("Failed to create item %d: %v", i, err)
			}
		}
		if _, err := m3.CreateFile(ctx, "overflow", []byte("ok"), folderID); !errors.Is(err, adapter.ErrLimitExceeded) {
			t.Errorf("Expected item limit after %d letters, got: %v", maxItemsPerUser, err)
		}
	})
}
