// Package session models who is signed in, how their requests are
// authorized, and publishes session changes to interested components.
package session

import (
	"errors"
	"net/http"

	"golang.org/x/oauth2"
)

// ErrNoSession is returned by a Backend when the caller is not signed in.
var ErrNoSession = errors.New("no active session")

// Kind tells how a session was established.
type Kind string

const (
	// KindOAuth is a Google sign-in. The browser carries the session cookie,
	// so requests need no explicit credential.
	KindOAuth Kind = "oauth"

	// KindToken is a username/password sign-in. Requests present the
	// access token as a bearer credential.
	KindToken Kind = "token"
)

// Session is the signed-in identity and its credential material.
// A nil *Session means nobody is signed in.
type Session struct {
	UserID      string `json:"id"`
	Email       string `json:"email,omitempty"`
	DisplayName string `json:"name,omitempty"`
	AccessToken string `json:"accessToken,omitempty"`
	Kind        Kind   `json:"kind"`
}

// GoogleAuth reports whether s came from the Google provider.
func (s *Session) GoogleAuth() bool {
	return s != nil && s.Kind == KindOAuth
}

// Authorizer attaches credentials to an outgoing request.
type Authorizer interface {
	Authorize(req *http.Request)
}

// Authorizer returns the request authorization strategy for the session kind.
func (s *Session) Authorizer() Authorizer {
	if s == nil || s.Kind == KindOAuth {
		return ambientAuthorizer{}
	}
	return bearerAuthorizer{token: &oauth2.Token{AccessToken: s.AccessToken, TokenType: "Bearer"}}
}

// ambientAuthorizer relies on the cookie the browser or cookie jar already holds.
type ambientAuthorizer struct{}

func (ambientAuthorizer) Authorize(*http.Request) {}

type bearerAuthorizer struct {
	token *oauth2.Token
}

func (b bearerAuthorizer) Authorize(req *http.Request) {
	b.token.SetAuthHeader(req)
}
