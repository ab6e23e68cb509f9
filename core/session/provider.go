package session

import (
	"context"
	"errors"
	"log"
)

// Credentials are the username/password pair posted to the login endpoint.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Backend is the remote side of authentication.
type Backend interface {
	// GoogleUser returns the provider-native Google session, or ErrNoSession.
	GoogleUser(ctx context.Context) (*Session, error)
	// CheckSession returns an existing username/password session, or ErrNoSession.
	CheckSession(ctx context.Context) (*Session, error)
	// Login exchanges credentials for a token session.
	Login(ctx context.Context, creds Credentials) (*Session, error)
	// Logout ends the server-side session.
	Logout(ctx context.Context) error
}

// Provider resolves, creates and ends sessions, publishing each result on its Context.
type Provider struct {
	backend Backend
	current *Context
	logger  *log.Logger
}

// NewProvider creates a Provider that publishes to c.
func NewProvider(backend Backend, c *Context, logger *log.Logger) *Provider {
	if logger == nil {
		logger = log.Default()
	}
	return &Provider{backend: backend, current: c, logger: logger}
}

// Context returns the context sessions are published on.
func (p *Provider) Context() *Context {
	return p.current
}

// Resolve looks for an existing session: the Google session first, then the
// username/password session. Failures resolve to no session.
func (p *Provider) Resolve(ctx context.Context) *Session {
	s, err := p.backend.GoogleUser(ctx)
	if err == nil && s != nil {
		p.current.Set(s)
		return s
	}
	if err != nil && !errors.Is(err, ErrNoSession) {
		p.logger.Printf("WARNING: google session lookup failed: %v", err)
	}

	s, err = p.backend.CheckSession(ctx)
	if err != nil || s == nil {
		if err != nil && !errors.Is(err, ErrNoSession) {
			p.logger.Printf("WARNING: session check failed: %v", err)
		}
		p.current.Set(nil)
		return nil
	}
	p.current.Set(s)
	return s
}

// Login signs in with credentials and publishes the token session.
func (p *Provider) Login(ctx context.Context, creds Credentials) (*Session, error) {
	s, err := p.backend.Login(ctx, creds)
	if err != nil {
		p.logger.Printf("Login error: %v", err)
		return nil, err
	}
	p.current.Set(s)
	return s, nil
}

// Logout ends the session. The local session is cleared even when the
// server call fails so no further session-scoped calls are made.
func (p *Provider) Logout(ctx context.Context) error {
	err := p.backend.Logout(ctx)
	p.current.Set(nil)
	if err != nil {
		p.logger.Printf("Logout error: %v", err)
		return err
	}
	return nil
}
