package session

import (
	"bytes"
	"context"
	"errors"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	google      *Session
	googleErr   error
	checked     *Session
	checkErr    error
	loginErr    error
	logoutErr   error
	logoutCalls int
}

func (f *fakeBackend) GoogleUser(context.Context) (*Session, error) {
	if f.googleErr != nil {
		return nil, f.googleErr
	}
	if f.google == nil {
		return nil, ErrNoSession
	}
	return f.google, nil
}

func (f *fakeBackend) CheckSession(context.Context) (*Session, error) {
	if f.checkErr != nil {
		return nil, f.checkErr
	}
	if f.checked == nil {
		return nil, ErrNoSession
	}
	return f.checked, nil
}

func (f *fakeBackend) Login(_ context.Context, creds Credentials) (*Session, error) {
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return &Session{UserID: creds.Username, AccessToken: "tok", Kind: KindToken}, nil
}

func (f *fakeBackend) Logout(context.Context) error {
	f.logoutCalls++
	return f.logoutErr
}

func newTestProvider(b Backend) (*Provider, *bytes.Buffer) {
	var logs bytes.Buffer
	return NewProvider(b, NewContext(), log.New(&logs, "", 0)), &logs
}

func TestProvider_Resolve_PrefersGoogle(t *testing.T) {
	google := &Session{UserID: "g1", Kind: KindOAuth}
	p, _ := newTestProvider(&fakeBackend{google: google, checked: &Session{UserID: "t1", Kind: KindToken}})

	assert.Same(t, google, p.Resolve(context.Background()))
	assert.Same(t, google, p.Context().Current().Session)
}

func TestProvider_Resolve_FallsBackToSessionCheck(t *testing.T) {
	checked := &Session{UserID: "t1", AccessToken: "tok", Kind: KindToken}
	p, logs := newTestProvider(&fakeBackend{checked: checked})

	assert.Same(t, checked, p.Resolve(context.Background()))
	assert.Empty(t, logs.String())
}

func TestProvider_Resolve_NoSession(t *testing.T) {
	p, logs := newTestProvider(&fakeBackend{
		googleErr: errors.New("network down"),
		checkErr:  errors.New("network down"),
	})

	assert.Nil(t, p.Resolve(context.Background()))
	assert.Nil(t, p.Context().Current().Session)
	assert.Contains(t, logs.String(), "network down")
}

func TestProvider_Login(t *testing.T) {
	p, _ := newTestProvider(&fakeBackend{})

	s, err := p.Login(context.Background(), Credentials{Username: "ana", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, KindToken, s.Kind)
	assert.Same(t, s, p.Context().Current().Session)
}

func TestProvider_Login_Failure(t *testing.T) {
	p, _ := newTestProvider(&fakeBackend{loginErr: errors.New("invalid credentials")})

	_, err := p.Login(context.Background(), Credentials{Username: "ana"})
	assert.Error(t, err)
	assert.Nil(t, p.Context().Current().Session)
}

func TestProvider_Logout_ClearsEvenOnFailure(t *testing.T) {
	b := &fakeBackend{logoutErr: errors.New("boom")}
	p, _ := newTestProvider(b)
	p.Context().Set(&Session{UserID: "u1", Kind: KindToken})

	err := p.Logout(context.Background())
	assert.Error(t, err)
	assert.Equal(t, 1, b.logoutCalls)
	assert.Nil(t, p.Context().Current().Session)
}
