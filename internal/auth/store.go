package auth

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/bbruceyuan/vmarker/internal/models"
	"github.com/bbruceyuan/vmarker/internal/shared"
	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"
)

// State is the observable auth state.
type State struct {
	User            *models.AuthUser
	IsLoading       bool
	IsAuthenticated bool
}

// Store owns the single current [State] for the process.
//
// It is fed by an initial [Provider.GetSession] and then by the provider's
// change events until [Store.Close].
type Store struct {
	provider    Provider
	logger      *log.Logger
	redirectURL string
	now         func() time.Time

	// refreshMu serializes refreshes triggered by Token.
	refreshMu sync.Mutex

	mu          sync.RWMutex
	state       State
	session     *models.AuthSession
	subscribers map[int]func(State)
	nextID      int
	unsubscribe func()
}

// NewStore creates a store in the loading state.
func NewStore(p Provider, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Store{
		provider:    p,
		logger:      logger,
		now:         time.Now,
		state:       State{IsLoading: true},
		subscribers: map[int]func(State){},
	}
}

// WithRedirectURL sets where magic links and OAuth flows send the user back to.
func (s *Store) WithRedirectURL(u string) *Store {
	s.redirectURL = u
	return s
}

// Start loads the current session and subscribes to provider events.
//
// A failing initial fetch leaves the store signed out and is returned.
func (s *Store) Start(ctx context.Context) error {
	session, err := s.provider.GetSession(ctx)
	if err != nil {
		s.logger.Warn("failed to load session", "error", err)
		session = nil
	}
	s.apply(session)

	unsub := s.provider.OnAuthStateChange(func(event Event, session *models.AuthSession) {
		s.logger.Debug("session changed", "event", event)
		if event == EventSignedOut {
			session = nil
		}
		s.apply(session)
	})

	s.mu.Lock()
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
	s.unsubscribe = unsub
	s.mu.Unlock()
	return err
}

// Close detaches the store from the provider.
func (s *Store) Close() {
	s.mu.Lock()
	unsub := s.unsubscribe
	s.unsubscribe = nil
	s.mu.Unlock()

	if unsub != nil {
		unsub()
	}
}

// State returns a snapshot of the current state.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Subscribe registers fn for state changes and returns its unsubscribe function.
func (s *Store) Subscribe(fn func(State)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subscribers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subscribers, id)
		s.mu.Unlock()
	}
}

func (s *Store) apply(session *models.AuthSession) {
	next := State{}
	if session != nil {
		user := session.User
		next.User = &user
		next.IsAuthenticated = true
	}

	s.mu.Lock()
	s.session = session
	s.state = next
	fns := make([]func(State), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(next)
	}
}

// SignIn sends a magic link to email.
func (s *Store) SignIn(ctx context.Context, email string) error {
	return s.provider.SignInWithOTP(ctx, email, s.redirectURL)
}

// SignInWithOAuth returns the provider URL the user must visit.
func (s *Store) SignInWithOAuth(ctx context.Context, provider OAuthProvider) (string, error) {
	return s.provider.SignInWithOAuth(ctx, provider, s.redirectURL)
}

// ExchangeCode completes a redirect sign-in. The provider's SIGNED_IN event updates the state.
func (s *Store) ExchangeCode(ctx context.Context, code string) (*models.AuthSession, error) {
	return s.provider.ExchangeCodeForSession(ctx, code)
}

// SignOut ends the session.
func (s *Store) SignOut(ctx context.Context) error {
	return s.provider.SignOut(ctx)
}

// Token implements [oauth2.TokenSource] with the current access token.
//
// An access token about to expire is refreshed through the provider first.
func (s *Store) Token() (*oauth2.Token, error) {
	session := s.current()
	if session != nil && session.Expired(s.now(), refreshLeeway) {
		var err error
		if session, err = s.refresh(session); err != nil {
			return nil, err
		}
	}

	if session == nil || session.AccessToken == "" {
		return nil, shared.ErrNotAuthenticated
	}
	return OAuth2Token(session), nil
}

func (s *Store) current() *models.AuthSession {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session
}

func (s *Store) refresh(stale *models.AuthSession) (*models.AuthSession, error) {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	// another caller may have refreshed while we waited
	if cur := s.current(); cur != stale && !cur.Expired(s.now(), refreshLeeway) {
		return cur, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	session, err := s.provider.GetSession(ctx)
	if err != nil {
		s.logger.Warn("failed to refresh session", "error", err)
		return nil, err
	}
	s.apply(session)
	return session, nil
}
