package auth

import (
	"context"
	"fmt"
	"sync"

	"github.com/bbruceyuan/vmarker/internal/models"
	"golang.org/x/oauth2"
)

// Event names a session change pushed by a [Provider].
type Event string

const (
	EventInitialSession Event = "INITIAL_SESSION"
	EventSignedIn       Event = "SIGNED_IN"
	EventSignedOut      Event = "SIGNED_OUT"
	EventTokenRefreshed Event = "TOKEN_REFRESHED"
)

// OAuthProvider is a third-party identity provider supported for redirect sign-in.
type OAuthProvider string

const (
	ProviderGitHub OAuthProvider = "github"
	ProviderGoogle OAuthProvider = "google"
)

// ParseOAuthProvider accepts "github" or "google".
func ParseOAuthProvider(s string) (OAuthProvider, error) {
	switch OAuthProvider(s) {
	case ProviderGitHub, ProviderGoogle:
		return OAuthProvider(s), nil
	}
	return "", fmt.Errorf("unsupported oauth provider %q (use github or google)", s)
}

// Listener receives session changes. session is nil after sign-out.
type Listener func(event Event, session *models.AuthSession)

// Provider is the external auth service. Every operation's error is returned as the provider produced it.
type Provider interface {
	// GetSession returns the current session, refreshing it if needed, or nil when signed out.
	GetSession(ctx context.Context) (*models.AuthSession, error)
	// OnAuthStateChange registers fn for session changes and returns a function that removes it.
	OnAuthStateChange(fn Listener) (unsubscribe func())
	// SignInWithOTP emails a magic link that redirects to redirectTo.
	SignInWithOTP(ctx context.Context, email, redirectTo string) error
	// SignInWithOAuth returns the URL to send the user to.
	SignInWithOAuth(ctx context.Context, provider OAuthProvider, redirectTo string) (string, error)
	// ExchangeCodeForSession completes a redirect flow.
	ExchangeCodeForSession(ctx context.Context, code string) (*models.AuthSession, error)
	// SignOut ends the session locally and remotely.
	SignOut(ctx context.Context) error
}

// SessionStore persists sessions and pending PKCE verifiers, keyed by auth host.
type SessionStore interface {
	LoadSession(host string) (*models.AuthSession, error) // nil, nil when absent
	SaveSession(host string, session *models.AuthSession) error
	DeleteSession(host string) error
	SaveVerifier(host, verifier string) error
	TakeVerifier(host string) (string, error) // "" when absent
}

// OAuth2Token converts a session to an [oauth2.Token] for bearer injection.
func OAuth2Token(s *models.AuthSession) *oauth2.Token {
	if s == nil {
		return nil
	}
	return &oauth2.Token{
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		TokenType:    s.TokenType,
		Expiry:       s.ExpiresAt,
	}
}

// MemoryStore is a [SessionStore] that lives for the process.
type MemoryStore struct {
	mu        sync.Mutex
	sessions  map[string]models.AuthSession
	verifiers map[string]string
}

// NewMemoryStore creates an empty [MemoryStore].
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: map[string]models.AuthSession{}, verifiers: map[string]string{}}
}

func (m *MemoryStore) LoadSession(host string) (*models.AuthSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[host]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (m *MemoryStore) SaveSession(host string, session *models.AuthSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[host] = *session
	return nil
}

func (m *MemoryStore) DeleteSession(host string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, host)
	return nil
}

func (m *MemoryStore) SaveVerifier(host, verifier string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.verifiers[host] = verifier
	return nil
}

func (m *MemoryStore) TakeVerifier(host string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v := m.verifiers[host]
	delete(m.verifiers, host)
	return v, nil
}
