package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"
	"github.com/jun/letterdrive/backend/internal/auth"
	"github.com/jun/letterdrive/backend/internal/model"
)

// AuthHandler handles authentication requests.
type AuthHandler struct {
	authService *auth.AuthService
	accounts    *auth.AccountService
	sessions    SessionConfig
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(s *auth.AuthService, accounts *auth.AccountService, sessions SessionConfig) *AuthHandler {
	return &AuthHandler{authService: s, accounts: accounts, sessions: sessions}
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token string     `json:"token"`
	User  model.User `json:"user"`
}

// GoogleLogin initiates the Google OAuth2 flow. The state is echoed back
// through a short-lived cookie and checked in the callback.
func (h *AuthHandler) GoogleLogin(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	state := uuid.NewString()
	url := h.authService.GenerateAuthURL(state)

	return events.APIGatewayProxyResponse{
		StatusCode: http.StatusFound,
		Headers: map[string]string{
			"Location": url,
		},
		MultiValueHeaders: map[string][]string{
			"Set-Cookie": {h.sessions.cookie(stateCookie, state, 600)},
		},
	}, nil
}

// GoogleCallback handles the OAuth2 callback from Google.
func (h *AuthHandler) GoogleCallback(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	code := req.QueryStringParameters["code"]
	if code == "" {
		return textResponse(http.StatusBadRequest, "Missing code"), nil
	}
	state := req.QueryStringParameters["state"]
	if state == "" || state != getCookie(req, stateCookie) {
		return textResponse(http.StatusBadRequest, "Invalid state"), nil
	}

	token, err := h.authService.ExchangeCode(ctx, code)
	if err != nil {
		fmt.Printf("ExchangeCode error: %v\n", err)
		return textResponse(http.StatusInternalServerError, "Failed to exchange code"), nil
	}

	user, err := h.authService.FetchProfile(ctx, token)
	if err != nil {
		fmt.Printf("FetchProfile error: %v\n", err)
		return textResponse(http.StatusInternalServerError, "Failed to get user info"), nil
	}

	// Without a stored refresh token Drive calls fail later, but the user
	// can still sign in and retry the consent.
	if err := h.authService.SaveToken(ctx, user, token); err != nil {
		fmt.Printf("SaveToken error: %v\n", err)
	}

	signed, err := h.sessions.IssueToken(user, ProviderGoogle)
	if err != nil {
		return textResponse(http.StatusInternalServerError, "Failed to sign token"), nil
	}

	return events.APIGatewayProxyResponse{
		StatusCode: http.StatusFound,
		Headers: map[string]string{
			"Location": fmt.Sprintf("%s/?success=true", h.sessions.FrontendURL),
		},
		MultiValueHeaders: map[string][]string{
			"Set-Cookie": {h.sessions.SetCookie(signed), h.sessions.cookie(stateCookie, "", 0)},
		},
	}, nil
}

// GetUser returns the Google profile of the cookie session.
func (h *AuthHandler) GetUser(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	id, err := GetIdentity(req, h.sessions.JWTSecret)
	if err != nil || id.Bearer || id.Provider != ProviderGoogle {
		return unauthorized(), nil
	}

	user := id.User()
	token, err := h.authService.GetUserToken(ctx, id.UserID)
	if err != nil {
		if !errors.Is(err, auth.ErrUserNotFound) {
			fmt.Printf("GetUserToken error: %v\n", err)
			return textResponse(http.StatusInternalServerError, "Failed to get user profile"), nil
		}
	} else {
		if token.Email != "" {
			user.Email = token.Email
		}
		if token.Name != "" {
			user.Name = token.Name
		}
	}

	return jsonResponse(http.StatusOK, user), nil
}

func parseCredentials(body string) (credentials, bool) {
	var c credentials
	if err := json.Unmarshal([]byte(body), &c); err != nil {
		return c, false
	}
	return c, c.Username != "" && c.Password != ""
}

func (h *AuthHandler) issueLocalSession(status int, account *model.Account) (events.APIGatewayProxyResponse, error) {
	user := model.User{ID: account.UserID, Name: account.Username}
	signed, err := h.sessions.IssueToken(user, ProviderLocal)
	if err != nil {
		return textResponse(http.StatusInternalServerError, "Failed to sign token"), nil
	}

	resp := jsonResponse(status, tokenResponse{Token: signed, User: user})
	resp.MultiValueHeaders = map[string][]string{
		"Set-Cookie": {h.sessions.SetCookie(signed)},
	}
	return resp, nil
}

// Register creates a username/password account and signs it in.
func (h *AuthHandler) Register(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	creds, ok := parseCredentials(req.Body)
	if !ok {
		return textResponse(http.StatusBadRequest, "Username and password are required"), nil
	}

	account, err := h.accounts.Register(ctx, creds.Username, creds.Password)
	switch {
	case errors.Is(err, auth.ErrInvalidUsername), errors.Is(err, auth.ErrInvalidPassword):
		return textResponse(http.StatusBadRequest, err.Error()), nil
	case errors.Is(err, auth.ErrAccountExists):
		return textResponse(http.StatusConflict, err.Error()), nil
	case err != nil:
		fmt.Printf("Register error: %v\n", err)
		return textResponse(http.StatusInternalServerError, "Failed to create account"), nil
	}

	return h.issueLocalSession(http.StatusCreated, account)
}

// Login signs in a username/password account and returns its token.
func (h *AuthHandler) Login(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	creds, ok := parseCredentials(req.Body)
	if !ok {
		return textResponse(http.StatusBadRequest, "Username and password are required"), nil
	}

	account, err := h.accounts.Authenticate(ctx, creds.Username, creds.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		return unauthorized(), nil
	}
	if err != nil {
		fmt.Printf("Authenticate error: %v\n", err)
		return textResponse(http.StatusInternalServerError, "Failed to sign in"), nil
	}

	return h.issueLocalSession(http.StatusOK, account)
}

// CheckSession returns the user and token of a local-account cookie session.
func (h *AuthHandler) CheckSession(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	id, err := GetIdentity(req, h.sessions.JWTSecret)
	if err != nil || id.Bearer || id.Provider != ProviderLocal {
		return unauthorized(), nil
	}
	return jsonResponse(http.StatusOK, tokenResponse{Token: id.Token, User: id.User()}), nil
}

// Logout clears the session cookie.
func (h *AuthHandler) Logout(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	resp := jsonResponse(http.StatusOK, map[string]bool{"success": true})
	resp.MultiValueHeaders = map[string][]string{
		"Set-Cookie": {h.sessions.ClearCookie()},
	}
	return resp, nil
}
