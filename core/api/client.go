// Package api is the HTTP client for the letters backend.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/jun/letterdrive/core/draft"
	"github.com/jun/letterdrive/core/session"
	"github.com/jun/letterdrive/core/sync"
)

const (
	PathListFilesOAuth = "/api/list-files-oauth"
	PathListFiles      = "/api/list-files"
	PathUpload         = "/api/upload"
	PathGoogleUser     = "/auth/user"
	PathCheckSession   = "/auth/check-session"
	PathLogin          = "/auth/login"
	PathLogout         = "/auth/logout"
)

// ErrEmptyContent is returned by Upload for blank letters. No request is sent.
var ErrEmptyContent = errors.New("letter content is empty")

// StatusError reports a response with an unexpected HTTP status.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("unexpected status %d", e.Code)
	}
	return fmt.Sprintf("unexpected status %d: %s", e.Code, e.Body)
}

// Client talks to the backend at BaseURL. The underlying http.Client is
// expected to carry the session cookie (a cookie jar natively, the browser
// under js/wasm).
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a Client. A nil httpClient uses http.DefaultClient.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

type listedFile struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	WebViewLink  string `json:"webViewLink"`
	ModifiedTime string `json:"modifiedTime"`
}

type listResponse struct {
	Files []listedFile `json:"files"`
}

// ListFiles returns the cloud letters of s. Google sessions use the cookie
// endpoint, token sessions the bearer endpoint.
func (c *Client) ListFiles(ctx context.Context, s *session.Session) ([]sync.CloudFile, error) {
	if s == nil {
		return nil, session.ErrNoSession
	}
	path := PathListFiles
	if s.GoogleAuth() {
		path = PathListFilesOAuth
	}

	var body listResponse
	if err := c.do(ctx, http.MethodGet, path, nil, s.Authorizer(), &body); err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}

	files := make([]sync.CloudFile, 0, len(body.Files))
	for _, f := range body.Files {
		files = append(files, sync.CloudFile{
			ID:           f.ID,
			Name:         f.Name,
			WebViewLink:  f.WebViewLink,
			LastModified: f.ModifiedTime,
		})
	}
	return files, nil
}

// Upload stores content as a new letter. Only a 200 response counts as success.
func (c *Client) Upload(ctx context.Context, s *session.Session, content string) error {
	if draft.IsBlank(content) {
		return ErrEmptyContent
	}
	payload := map[string]string{"content": content}
	if err := c.do(ctx, http.MethodPost, PathUpload, payload, s.Authorizer(), nil); err != nil {
		return fmt.Errorf("upload: %w", err)
	}
	return nil
}

type userResponse struct {
	ID         string `json:"id"`
	Email      string `json:"email"`
	Name       string `json:"name"`
	GoogleAuth bool   `json:"googleAuth"`
}

type tokenResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

// GoogleUser returns the Google session carried by the cookie.
func (c *Client) GoogleUser(ctx context.Context) (*session.Session, error) {
	var u userResponse
	if err := c.do(ctx, http.MethodGet, PathGoogleUser, nil, nil, &u); err != nil {
		return nil, noSession(err)
	}
	if !u.GoogleAuth || u.ID == "" {
		return nil, session.ErrNoSession
	}
	return &session.Session{UserID: u.ID, Email: u.Email, DisplayName: u.Name, Kind: session.KindOAuth}, nil
}

// CheckSession returns the username/password session carried by the cookie.
func (c *Client) CheckSession(ctx context.Context) (*session.Session, error) {
	var r tokenResponse
	if err := c.do(ctx, http.MethodGet, PathCheckSession, nil, nil, &r); err != nil {
		return nil, noSession(err)
	}
	if r.User.ID == "" || r.Token == "" {
		return nil, session.ErrNoSession
	}
	return tokenSession(r), nil
}

// Login exchanges credentials for a token session.
func (c *Client) Login(ctx context.Context, creds session.Credentials) (*session.Session, error) {
	var r tokenResponse
	if err := c.do(ctx, http.MethodPost, PathLogin, creds, nil, &r); err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	if r.Token == "" {
		return nil, errors.New("login: response carried no token")
	}
	return tokenSession(r), nil
}

// Logout ends the server-side session.
func (c *Client) Logout(ctx context.Context) error {
	if err := c.do(ctx, http.MethodPost, PathLogout, nil, nil, nil); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

func tokenSession(r tokenResponse) *session.Session {
	return &session.Session{
		UserID:      r.User.ID,
		Email:       r.User.Email,
		DisplayName: r.User.Name,
		AccessToken: r.Token,
		Kind:        session.KindToken,
	}
}

func noSession(err error) error {
	var se *StatusError
	if errors.As(err, &se) && (se.Code == http.StatusUnauthorized || se.Code == http.StatusForbidden) {
		return session.ErrNoSession
	}
	return err
}

func (c *Client) do(ctx context.Context, method, path string, in any, auth session.Authorizer, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth != nil {
		auth.Authorize(req)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
