package listcache

import (
	"context"
	"testing"
	"time"

	"github.com/jun/letterdrive/backend/internal/model"
)

func TestMemory_SetGetInvalidate(t *testing.T) {
	c := NewMemory(time.Minute)
	ctx := context.Background()

	if _, ok, _ := c.Get(ctx, "u1"); ok {
		t.Fatal("Expected miss on empty cache")
	}

	letters := []model.Letter{{ID: "1", Name: "Letter 1"}}
	if err := c.Set(ctx, "u1", letters); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	letters[0].Name = "mutated"

	got, ok, err := c.Get(ctx, "u1")
	if err != nil || !ok {
		t.Fatalf("Expected hit, got ok=%v err=%v", ok, err)
	}
	if len(got) != 1 || got[0].Name != "Letter 1" {
		t.Errorf("Expected stored copy, got %+v", got)
	}

	if _, ok, _ := c.Get(ctx, "u2"); ok {
		t.Error("Expected listings to be per user")
	}

	c.Invalidate(ctx, "u1")
	if _, ok, _ := c.Get(ctx, "u1"); ok {
		t.Error("Expected miss after Invalidate")
	}
}

func TestMemory_Expiry(t *testing.T) {
	c := NewMemory(time.Minute)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	c.Set(ctx, "u1", []model.Letter{})

	now = now.Add(59 * time.Second)
	got, ok, _ := c.Get(ctx, "u1")
	if !ok {
		t.Fatal("Expected hit before TTL")
	}
	if got == nil {
		t.Error("Expected empty listing to stay non-nil")
	}

	now = now.Add(time.Second)
	if _, ok, _ := c.Get(ctx, "u1"); ok {
		t.Error("Expected miss at TTL")
	}
}

func TestListKey(t *testing.T) {
	if got := listKey("local-abc"); got != "user:local-abc:letters" {
		t.Errorf("listKey() = %q", got)
	}
}

func TestNewRedis_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if _, err := NewRedis(ctx, true, "127.0.0.1:1", time.Minute); err == nil {
		t.Error("Expected ping error for unreachable redis, got nil")
	}
}
