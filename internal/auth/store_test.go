package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bbruceyuan/vmarker/internal/models"
	"github.com/bbruceyuan/vmarker/internal/shared"
)

type fakeProvider struct {
	session    *models.AuthSession
	getErr     error
	gets       int
	signInErr  error
	listeners  map[int]Listener
	next       int
	otpEmail   string
	redirectTo string
}

func newFakeProvider(session *models.AuthSession) *fakeProvider {
	return &fakeProvider{session: session, listeners: map[int]Listener{}}
}

func (f *fakeProvider) GetSession(context.Context) (*models.AuthSession, error) {
	f.gets++
	return f.session, f.getErr
}

func (f *fakeProvider) OnAuthStateChange(fn Listener) func() {
	id := f.next
	f.next++
	f.listeners[id] = fn
	return func() { delete(f.listeners, id) }
}

func (f *fakeProvider) push(e Event, s *models.AuthSession) {
	for _, fn := range f.listeners {
		fn(e, s)
	}
}

func (f *fakeProvider) SignInWithOTP(_ context.Context, email, redirectTo string) error {
	f.otpEmail, f.redirectTo = email, redirectTo
	return f.signInErr
}

func (f *fakeProvider) SignInWithOAuth(_ context.Context, p OAuthProvider, redirectTo string) (string, error) {
	f.redirectTo = redirectTo
	return "https://auth.example/authorize?provider=" + string(p), f.signInErr
}

func (f *fakeProvider) ExchangeCodeForSession(context.Context, string) (*models.AuthSession, error) {
	s := &models.AuthSession{AccessToken: "at", User: models.AuthUser{ID: "u1"}}
	f.push(EventSignedIn, s)
	return s, nil
}

func (f *fakeProvider) SignOut(context.Context) error {
	f.push(EventSignedOut, nil)
	return nil
}

func TestStoreLifecycle(t *testing.T) {
	p := newFakeProvider(nil)
	store := NewStore(p, nil)

	if !store.State().IsLoading {
		t.Fatal("new store should be loading")
	}

	var seen []State
	store.Subscribe(func(s State) { seen = append(seen, s) })

	if err := store.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if st := store.State(); st.IsLoading || st.IsAuthenticated {
		t.Errorf("expected signed out, got %+v", st)
	}

	p.push(EventSignedIn, &models.AuthSession{AccessToken: "at", User: models.AuthUser{ID: "u1", Email: "a@b.c"}})
	st := store.State()
	if !st.IsAuthenticated || st.User == nil || st.User.Email != "a@b.c" {
		t.Errorf("expected signed in, got %+v", st)
	}

	tok, err := store.Token()
	if err != nil || tok.AccessToken != "at" {
		t.Errorf("Token() = %v, %v", tok, err)
	}

	p.push(EventSignedOut, nil)
	if store.State().IsAuthenticated {
		t.Error("expected signed out after SIGNED_OUT")
	}
	if _, err := store.Token(); !errors.Is(err, shared.ErrNotAuthenticated) {
		t.Errorf("expected ErrNotAuthenticated, got %v", err)
	}

	if len(seen) != 3 {
		t.Errorf("expected 3 notifications, got %d", len(seen))
	}

	store.Close()
	if len(p.listeners) != 0 {
		t.Error("Close should unsubscribe from provider")
	}
	p.push(EventSignedIn, &models.AuthSession{AccessToken: "x"})
	if store.State().IsAuthenticated {
		t.Error("closed store must ignore events")
	}
}

func TestStoreStartWithSession(t *testing.T) {
	p := newFakeProvider(&models.AuthSession{AccessToken: "at", User: models.AuthUser{ID: "u1"}})
	store := NewStore(p, nil)
	defer store.Close()

	store.Start(context.Background())
	if !store.State().IsAuthenticated {
		t.Error("expected authenticated after initial session")
	}
}

func TestStoreStartError(t *testing.T) {
	p := newFakeProvider(nil)
	p.getErr = shared.ErrRefreshFailed
	store := NewStore(p, nil)
	defer store.Close()

	err := store.Start(context.Background())
	if !errors.Is(err, shared.ErrRefreshFailed) {
		t.Errorf("expected provider error, got %v", err)
	}
	if st := store.State(); st.IsLoading || st.IsAuthenticated {
		t.Errorf("expected settled signed-out state, got %+v", st)
	}
	if len(p.listeners) != 1 {
		t.Error("store should still subscribe after a failed fetch")
	}
}

func TestStoreActionsPassThrough(t *testing.T) {
	p := newFakeProvider(nil)
	store := NewStore(p, nil).WithRedirectURL("http://127.0.0.1:3000/auth/callback")
	store.Start(context.Background())
	defer store.Close()

	if err := store.SignIn(context.Background(), "a@b.c"); err != nil {
		t.Fatal(err)
	}
	if p.otpEmail != "a@b.c" || p.redirectTo != "http://127.0.0.1:3000/auth/callback" {
		t.Errorf("unexpected sign-in args %q %q", p.otpEmail, p.redirectTo)
	}

	want := errors.New("rate limited")
	p.signInErr = want
	if err := store.SignIn(context.Background(), "a@b.c"); err != want {
		t.Errorf("provider error should pass through unmodified, got %v", err)
	}

	if _, err := store.ExchangeCode(context.Background(), "code"); err != nil {
		t.Fatal(err)
	}
	if !store.State().IsAuthenticated {
		t.Error("exchange should sign in via provider event")
	}

	store.SignOut(context.Background())
	if store.State().IsAuthenticated {
		t.Error("expected signed out")
	}
}

func TestStoreTokenRefresh(t *testing.T) {
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	now := start

	p := newFakeProvider(&models.AuthSession{
		AccessToken:  "old",
		RefreshToken: "rt",
		ExpiresAt:    start.Add(time.Hour),
		User:         models.AuthUser{ID: "u1"},
	})
	store := NewStore(p, nil)
	store.now = func() time.Time { return now }

	if err := store.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	t.Run("fresh token is reused", func(t *testing.T) {
		tok, err := store.Token()
		if err != nil {
			t.Fatalf("Token() error = %v", err)
		}
		if tok.AccessToken != "old" {
			t.Errorf("expected old token, got %q", tok.AccessToken)
		}
		if p.gets != 1 {
			t.Errorf("expected no refresh, got %d GetSession calls", p.gets)
		}
	})

	t.Run("expired token is refreshed", func(t *testing.T) {
		now = start.Add(2 * time.Hour)
		p.session = &models.AuthSession{
			AccessToken:  "new",
			RefreshToken: "rt2",
			ExpiresAt:    now.Add(time.Hour),
			User:         models.AuthUser{ID: "u1"},
		}

		tok, err := store.Token()
		if err != nil {
			t.Fatalf("Token() error = %v", err)
		}
		if tok.AccessToken != "new" {
			t.Errorf("expected refreshed token, got %q", tok.AccessToken)
		}
		if p.gets != 2 {
			t.Errorf("expected one refresh, got %d GetSession calls", p.gets)
		}

		if _, err := store.Token(); err != nil {
			t.Fatalf("Token() error = %v", err)
		}
		if p.gets != 2 {
			t.Errorf("expected refreshed token to be cached, got %d GetSession calls", p.gets)
		}
	})

	t.Run("failed refresh is returned", func(t *testing.T) {
		now = now.Add(2 * time.Hour)
		p.getErr = errors.New("refresh rejected")

		if _, err := store.Token(); err == nil {
			t.Error("expected refresh error")
		}
	})

	t.Run("refresh to signed out", func(t *testing.T) {
		p.getErr = nil
		p.session = nil

		_, err := store.Token()
		if !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
		if store.State().IsAuthenticated {
			t.Error("expected store to be signed out")
		}
	})
}
