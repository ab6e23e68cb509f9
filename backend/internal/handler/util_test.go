package handler_test

import (
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/golang-jwt/jwt/v5"
	"github.com/jun/letterdrive/backend/internal/handler"
	"github.com/jun/letterdrive/backend/internal/model"
)

const (
	testJWTSecret = "test-secret"
	testUserID    = "local-test-user-123"
	testGoogleID  = "109876543210"
)

var testSessions = handler.SessionConfig{
	JWTSecret:   testJWTSecret,
	TTL:         time.Hour,
	SameSite:    "Lax",
	FrontendURL: "http://localhost:3000",
}

func makeToken(userID, provider string) string {
	signed, _ := testSessions.IssueToken(model.User{ID: userID, Email: userID + "@example.com", Name: "Test"}, provider)
	return signed
}

func bearerRequest(token string) events.APIGatewayProxyRequest {
	return events.APIGatewayProxyRequest{
		Headers: map[string]string{
			"Authorization": "Bearer " + token,
			"Content-Type":  "application/json",
		},
		PathParameters: map[string]string{},
	}
}

func cookieRequest(token string) events.APIGatewayProxyRequest {
	return events.APIGatewayProxyRequest{
		Headers: map[string]string{
			"Cookie": "theme=dark; session_token=" + token,
		},
		PathParameters: map[string]string{},
	}
}

func TestGetIdentity_BearerToken(t *testing.T) {
	id, err := handler.GetIdentity(bearerRequest(makeToken(testUserID, handler.ProviderLocal)), testJWTSecret)
	if err != nil {
		t.Fatalf("GetIdentity failed: %v", err)
	}
	if id.UserID != testUserID || !id.Bearer || id.Provider != handler.ProviderLocal {
		t.Errorf("Unexpected identity %+v", id)
	}
}

func TestGetIdentity_Cookie(t *testing.T) {
	id, err := handler.GetIdentity(cookieRequest(makeToken(testGoogleID, handler.ProviderGoogle)), testJWTSecret)
	if err != nil {
		t.Fatalf("GetIdentity from cookie failed: %v", err)
	}
	if id.UserID != testGoogleID || id.Provider != handler.ProviderGoogle {
		t.Errorf("Unexpected identity %+v", id)
	}
	if id.Bearer {
		t.Error("Expected cookie identity not to be bearer")
	}
	if !id.User().GoogleAuth {
		t.Error("Expected google session to report googleAuth")
	}
}

func TestGetIdentity_BearerWinsOverCookie(t *testing.T) {
	req := cookieRequest(makeToken(testGoogleID, handler.ProviderGoogle))
	req.Headers["Authorization"] = "Bearer " + makeToken(testUserID, handler.ProviderLocal)

	id, err := handler.GetIdentity(req, testJWTSecret)
	if err != nil {
		t.Fatalf("GetIdentity failed: %v", err)
	}
	if !id.Bearer || id.UserID != testUserID {
		t.Errorf("Expected bearer identity for %s, got %+v", testUserID, id)
	}
}

func TestGetIdentity_NoToken(t *testing.T) {
	req := events.APIGatewayProxyRequest{
		Headers: map[string]string{},
	}

	_, err := handler.GetIdentity(req, testJWTSecret)
	if err == nil {
		t.Error("Expected error for missing token, got nil")
	}
}

func TestGetIdentity_InvalidToken(t *testing.T) {
	_, err := handler.GetIdentity(bearerRequest("invalid-jwt-token"), testJWTSecret)
	if err == nil {
		t.Error("Expected error for invalid token, got nil")
	}
}

func TestGetIdentity_WrongSecret(t *testing.T) {
	_, err := handler.GetIdentity(bearerRequest(makeToken(testUserID, handler.ProviderLocal)), "other-secret")
	if err == nil {
		t.Error("Expected error for token signed with another secret, got nil")
	}
}

func TestGetIdentity_ExpiredToken(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": testUserID,
		"exp": time.Now().Add(-1 * time.Hour).Unix(),
	})
	signed, _ := token.SignedString([]byte(testJWTSecret))

	_, err := handler.GetIdentity(bearerRequest(signed), testJWTSecret)
	if err == nil {
		t.Error("Expected error for expired token, got nil")
	}
}

func TestGetIdentity_CaseInsensitiveHeaders(t *testing.T) {
	req := events.APIGatewayProxyRequest{
		Headers: map[string]string{
			"authorization": "Bearer " + makeToken(testUserID, handler.ProviderLocal), // lowercase
		},
	}

	id, err := handler.GetIdentity(req, testJWTSecret)
	if err != nil {
		t.Fatalf("GetIdentity with lowercase header failed: %v", err)
	}
	if id.UserID != testUserID {
		t.Errorf("Expected userID '%s', got '%s'", testUserID, id.UserID)
	}
}

func TestSessionConfig_Cookies(t *testing.T) {
	set := testSessions.SetCookie("abc")
	for _, want := range []string{"session_token=abc", "HttpOnly", "Max-Age=3600", "SameSite=Lax"} {
		if !strings.Contains(set, want) {
			t.Errorf("Expected %q in cookie %q", want, set)
		}
	}

	cleared := testSessions.ClearCookie()
	if !strings.Contains(cleared, "session_token=;") || !strings.Contains(cleared, "Max-Age=0") {
		t.Errorf("Expected expired cookie, got %q", cleared)
	}
}
