package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/golang-jwt/jwt/v5"
	"github.com/jun/letterdrive/backend/internal/model"
)

const (
	// SessionCookie carries the session JWT for browser clients.
	SessionCookie = "session_token"
	stateCookie   = "oauth_state"

	ProviderGoogle = "google"
	ProviderLocal  = "local"
)

var errNoToken = errors.New("no authorization token found")

// SessionConfig controls how session tokens and cookies are issued.
type SessionConfig struct {
	JWTSecret   string
	TTL         time.Duration
	SameSite    string
	FrontendURL string
}

// Identity is the authenticated caller of a request.
type Identity struct {
	UserID   string
	Email    string
	Name     string
	Provider string
	// Bearer is true when the token came from the Authorization header
	// rather than the session cookie.
	Bearer bool
	Token  string
}

// User returns the profile carried by the session.
func (i *Identity) User() model.User {
	return model.User{ID: i.UserID, Email: i.Email, Name: i.Name, GoogleAuth: i.Provider == ProviderGoogle}
}

func getHeader(req events.APIGatewayProxyRequest, name string) string {
	for k, v := range req.Headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}

func getCookie(req events.APIGatewayProxyRequest, name string) string {
	// Cookie format: session_token=xxx; ...
	for _, part := range strings.Split(getHeader(req, "Cookie"), ";") {
		part = strings.TrimSpace(part)
		if strings.HasPrefix(part, name+"=") {
			return strings.TrimPrefix(part, name+"=")
		}
	}
	return ""
}

// GetIdentity extracts the caller from the Authorization header or, failing
// that, the session cookie.
func GetIdentity(req events.APIGatewayProxyRequest, jwtSecret string) (*Identity, error) {
	id := &Identity{}
	if authHeader := getHeader(req, "Authorization"); strings.HasPrefix(authHeader, "Bearer ") {
		id.Token = strings.TrimPrefix(authHeader, "Bearer ")
		id.Bearer = true
	}
	if id.Token == "" {
		id.Token = getCookie(req, SessionCookie)
	}
	if id.Token == "" {
		return nil, errNoToken
	}

	token, err := jwt.Parse(id.Token, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(jwtSecret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return nil, fmt.Errorf("invalid token claims")
	}
	id.UserID = sub
	id.Email, _ = claims["email"].(string)
	id.Name, _ = claims["name"].(string)
	id.Provider, _ = claims["provider"].(string)
	return id, nil
}

// IssueToken signs a session JWT for user.
func (c SessionConfig) IssueToken(user model.User, provider string) (string, error) {
	claims := jwt.MapClaims{
		"sub":      user.ID,
		"email":    user.Email,
		"name":     user.Name,
		"provider": provider,
		"exp":      time.Now().Add(c.TTL).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(c.JWTSecret))
}

func (c SessionConfig) cookie(name, value string, maxAge int) string {
	sameSite := c.SameSite
	if sameSite == "" {
		sameSite = "Lax"
	}
	return fmt.Sprintf("%s=%s; HttpOnly; Path=/; Max-Age=%d; SameSite=%s; Secure", name, value, maxAge, sameSite)
}

// SetCookie sets the session cookie to token.
func (c SessionConfig) SetCookie(token string) string {
	return c.cookie(SessionCookie, token, int(c.TTL.Seconds()))
}

// ClearCookie expires the session cookie.
func (c SessionConfig) ClearCookie() string {
	return c.cookie(SessionCookie, "", 0)
}

func jsonResponse(status int, v interface{}) events.APIGatewayProxyResponse {
	body, err := json.Marshal(v)
	if err != nil {
		fmt.Printf("Marshal error: %v\n", err)
		return textResponse(http.StatusInternalServerError, "Internal Server Error")
	}
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Body:       string(body),
		Headers: map[string]string{
			"Content-Type": "application/json",
		},
	}
}

func textResponse(status int, body string) events.APIGatewayProxyResponse {
	return events.APIGatewayProxyResponse{StatusCode: status, Body: body}
}

func unauthorized() events.APIGatewayProxyResponse {
	return textResponse(http.StatusUnauthorized, "Unauthorized")
}
