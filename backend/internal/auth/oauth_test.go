package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jun/letterdrive/backend/internal/crypto"
	"github.com/jun/letterdrive/backend/internal/model"
	"golang.org/x/oauth2"
)

func testAuthService() *AuthService {
	return NewAuthService(
		&oauth2.Config{
			ClientID:     "test-client-id",
			ClientSecret: "test-client-secret",
			RedirectURL:  "http://localhost:8080/auth/google/callback",
		},
		nil, // No DynamoDB client, uses in-memory fallback
		"test-tokens-table",
		crypto.NewMockEncryptor(),
	)
}

func googleUser(id string) model.User {
	return model.User{ID: id, Email: id + "@example.com", Name: "User " + id, GoogleAuth: true}
}

func refreshToken(rt string) *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  "access",
		RefreshToken: rt,
		Expiry:       time.Now().Add(1 * time.Hour),
	}
}

func TestAuthService_SaveAndGetUserToken(t *testing.T) {
	s := testAuthService()
	ctx := context.Background()

	if err := s.SaveToken(ctx, googleUser("user1"), refreshToken("refresh-456")); err != nil {
		t.Fatalf("SaveToken failed: %v", err)
	}

	saved, err := s.GetUserToken(ctx, "user1")
	if err != nil {
		t.Fatalf("GetUserToken failed: %v", err)
	}
	if saved.UserID != "user1" {
		t.Errorf("Expected user ID 'user1', got '%s'", saved.UserID)
	}
	if saved.Email != "user1@example.com" || saved.Name != "User user1" {
		t.Errorf("Expected profile to be stored, got %+v", saved)
	}
	// MockEncryptor prefixes with "mock:"
	if saved.EncryptedRefreshToken != "mock:refresh-456" {
		t.Errorf("Expected encrypted token 'mock:refresh-456', got '%s'", saved.EncryptedRefreshToken)
	}
}

func TestAuthService_GetUserToken_NotFound(t *testing.T) {
	s := testAuthService()

	_, err := s.GetUserToken(context.Background(), "nonexistent-user")
	if !errors.Is(err, ErrUserNotFound) {
		t.Errorf("Expected ErrUserNotFound, got %v", err)
	}
}

func TestAuthService_UpdateLettersFolderID(t *testing.T) {
	s := testAuthService()
	ctx := context.Background()

	if err := s.SaveToken(ctx, googleUser("user1"), refreshToken("refresh")); err != nil {
		t.Fatalf("SaveToken failed: %v", err)
	}
	if err := s.UpdateLettersFolderID(ctx, "user1", "folder-abc"); err != nil {
		t.Fatalf("UpdateLettersFolderID failed: %v", err)
	}

	saved, _ := s.GetUserToken(ctx, "user1")
	if saved.LettersFolderID != "folder-abc" {
		t.Errorf("Expected LettersFolderID 'folder-abc', got '%s'", saved.LettersFolderID)
	}

	if err := s.UpdateLettersFolderID(ctx, "ghost", "folder"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("Expected ErrUserNotFound for unknown user, got %v", err)
	}
}

func TestAuthService_SaveToken_PreservesLettersFolderID(t *testing.T) {
	s := testAuthService()
	ctx := context.Background()

	s.SaveToken(ctx, googleUser("user1"), refreshToken("refresh-1"))
	s.UpdateLettersFolderID(ctx, "user1", "my-folder")
	s.SaveToken(ctx, googleUser("user1"), refreshToken("refresh-2"))

	saved, _ := s.GetUserToken(ctx, "user1")
	if saved.LettersFolderID != "my-folder" {
		t.Errorf("Expected LettersFolderID 'my-folder' to be preserved, got '%s'", saved.LettersFolderID)
	}
	if saved.EncryptedRefreshToken != "mock:refresh-2" {
		t.Errorf("Expected updated token, got '%s'", saved.EncryptedRefreshToken)
	}
}

func TestAuthService_SaveToken_EmptyRefreshToken(t *testing.T) {
	s := testAuthService()
	ctx := context.Background()

	// First login without a refresh token cannot be stored
	if err := s.SaveToken(ctx, googleUser("user1"), refreshToken("")); err == nil {
		t.Error("Expected error when no refresh token is available, got nil")
	}

	s.SaveToken(ctx, googleUser("user1"), refreshToken("original-refresh"))

	// Repeat consent omits the refresh token
	if err := s.SaveToken(ctx, googleUser("user1"), refreshToken("")); err != nil {
		t.Fatalf("SaveToken failed: %v", err)
	}

	saved, _ := s.GetUserToken(ctx, "user1")
	if saved.EncryptedRefreshToken != "mock:original-refresh" {
		t.Errorf("Expected original refresh token to be preserved, got '%s'", saved.EncryptedRefreshToken)
	}
}

func TestAuthService_GenerateAuthURL(t *testing.T) {
	s := testAuthService()

	url := s.GenerateAuthURL("test-state")
	for _, want := range []string{"test-state", "test-client-id", "access_type=offline"} {
		if !strings.Contains(url, want) {
			t.Errorf("Expected URL to contain %q, got '%s'", want, url)
		}
	}
}

func TestAuthService_GetClient(t *testing.T) {
	s := testAuthService()
	ctx := context.Background()

	if _, err := s.GetClient(ctx, "nobody"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("Expected ErrUserNotFound, got %v", err)
	}

	s.SaveToken(ctx, googleUser("user1"), refreshToken("refresh"))
	client, err := s.GetClient(ctx, "user1")
	if err != nil {
		t.Fatalf("GetClient failed: %v", err)
	}
	if client == nil {
		t.Error("Expected non-nil client")
	}
}

func TestAuthService_InMemoryTokenStore(t *testing.T) {
	s := testAuthService()
	ctx := context.Background()

	users := []string{"u1", "u2", "u3"}
	for _, uid := range users {
		if err := s.SaveToken(ctx, googleUser(uid), refreshToken("refresh-"+uid)); err != nil {
			t.Fatalf("SaveToken for %s failed: %v", uid, err)
		}
	}

	for _, uid := range users {
		saved, err := s.GetUserToken(ctx, uid)
		if err != nil {
			t.Fatalf("GetUserToken for %s failed: %v", uid, err)
		}
		if saved.EncryptedRefreshToken != "mock:refresh-"+uid {
			t.Errorf("Expected token for %s, got '%s'", uid, saved.EncryptedRefreshToken)
		}
	}
}
