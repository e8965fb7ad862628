package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/bbruceyuan/vmarker/internal/models"
	"github.com/bbruceyuan/vmarker/internal/shared"
	"golang.org/x/oauth2"
)

func newTestProvider(t *testing.T, h http.HandlerFunc) (*GoTrueProvider, *MemoryStore) {
	t.Helper()
	server := httptest.NewServer(h)
	t.Cleanup(server.Close)

	store := NewMemoryStore()
	p, err := NewGoTrueProvider(server.URL, "anon-key", store, nil)
	if err != nil {
		t.Fatalf("NewGoTrueProvider() error = %v", err)
	}
	return p, store
}

const tokenJSON = `{"access_token":"at-1","token_type":"bearer","expires_in":3600,"refresh_token":"rt-1","user":{"id":"u1","email":"a@b.c"}}`

func TestNewGoTrueProvider(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		key     string
		wantErr error
	}{
		{"missing url", "", "k", shared.ErrMissingConfig},
		{"missing key", "https://x.supabase.co", "", shared.ErrMissingConfig},
		{"bad url", "not a url", "k", shared.ErrInvalidConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewGoTrueProvider(tt.url, tt.key, nil, nil)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestSignInWithOTP(t *testing.T) {
	var body map[string]any
	p, store := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/v1/otp" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("redirect_to") != "http://127.0.0.1:3000/auth/callback" {
			t.Errorf("unexpected redirect_to %q", r.URL.Query().Get("redirect_to"))
		}
		if r.Header.Get("apikey") != "anon-key" {
			t.Errorf("missing apikey header")
		}
		json.NewDecoder(r.Body).Decode(&body)
		w.Write([]byte(`{}`))
	})

	err := p.SignInWithOTP(context.Background(), "a@b.c", "http://127.0.0.1:3000/auth/callback")
	if err != nil {
		t.Fatalf("SignInWithOTP() error = %v", err)
	}
	if body["email"] != "a@b.c" || body["code_challenge_method"] != "s256" {
		t.Errorf("unexpected body %v", body)
	}

	verifier, _ := store.TakeVerifier(p.host)
	if verifier == "" {
		t.Fatal("expected a stored verifier")
	}
	if body["code_challenge"] != oauth2.S256ChallengeFromVerifier(verifier) {
		t.Error("challenge does not match stored verifier")
	}
}

func TestSignInWithOAuth(t *testing.T) {
	p, store := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("authorize URL must not be fetched")
	})

	raw, err := p.SignInWithOAuth(context.Background(), ProviderGitHub, "http://localhost/cb")
	if err != nil {
		t.Fatalf("SignInWithOAuth() error = %v", err)
	}
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(u.Path, "/auth/v1/authorize") {
		t.Errorf("unexpected path %s", u.Path)
	}
	q := u.Query()
	if q.Get("provider") != "github" || q.Get("redirect_to") != "http://localhost/cb" {
		t.Errorf("unexpected query %v", q)
	}
	verifier, _ := store.TakeVerifier(p.host)
	if q.Get("code_challenge") != oauth2.S256ChallengeFromVerifier(verifier) {
		t.Error("challenge does not match stored verifier")
	}
}

func TestExchangeCodeForSession(t *testing.T) {
	t.Run("stores session and emits SIGNED_IN", func(t *testing.T) {
		p, store := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Get("grant_type") != "pkce" {
				t.Errorf("unexpected grant %q", r.URL.Query().Get("grant_type"))
			}
			var body map[string]string
			json.NewDecoder(r.Body).Decode(&body)
			if body["auth_code"] != "code-1" || body["code_verifier"] != "v-1" {
				t.Errorf("unexpected body %v", body)
			}
			w.Write([]byte(tokenJSON))
		})
		store.SaveVerifier(p.host, "v-1")

		var events []Event
		p.OnAuthStateChange(func(e Event, _ *models.AuthSession) { events = append(events, e) })

		session, err := p.ExchangeCodeForSession(context.Background(), "code-1")
		if err != nil {
			t.Fatalf("ExchangeCodeForSession() error = %v", err)
		}
		if session.AccessToken != "at-1" || session.User.Role != "authenticated" {
			t.Errorf("unexpected session %+v", session)
		}
		if saved, _ := store.LoadSession(p.host); saved == nil {
			t.Error("session should be persisted")
		}
		if len(events) != 1 || events[0] != EventSignedIn {
			t.Errorf("expected SIGNED_IN, got %v", events)
		}
	})

	t.Run("without verifier", func(t *testing.T) {
		p, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
			t.Error("no request expected")
		})
		_, err := p.ExchangeCodeForSession(context.Background(), "code-1")
		if !errors.Is(err, shared.ErrAuthFailed) {
			t.Errorf("expected ErrAuthFailed, got %v", err)
		}
	})

	t.Run("server error is typed", func(t *testing.T) {
		p, store := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error_code":"flow_state_not_found","msg":"invalid flow state"}`))
		})
		store.SaveVerifier(p.host, "v-1")

		_, err := p.ExchangeCodeForSession(context.Background(), "code-1")
		var authErr *Error
		if !errors.As(err, &authErr) {
			t.Fatalf("expected *Error, got %v", err)
		}
		if authErr.Code != "flow_state_not_found" || authErr.Message != "invalid flow state" {
			t.Errorf("unexpected error %+v", authErr)
		}
	})
}

func TestGetSession(t *testing.T) {
	t.Run("signed out", func(t *testing.T) {
		p, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {})
		s, err := p.GetSession(context.Background())
		if err != nil || s != nil {
			t.Errorf("expected nil, nil; got %v, %v", s, err)
		}
	})

	t.Run("refreshes expired session", func(t *testing.T) {
		p, store := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Get("grant_type") != "refresh_token" {
				t.Errorf("unexpected grant %q", r.URL.Query().Get("grant_type"))
			}
			w.Write([]byte(tokenJSON))
		})
		store.SaveSession(p.host, &models.AuthSession{
			AccessToken:  "old",
			RefreshToken: "rt-0",
			ExpiresAt:    time.Now().Add(-time.Minute),
		})

		var events []Event
		p.OnAuthStateChange(func(e Event, _ *models.AuthSession) { events = append(events, e) })

		s, err := p.GetSession(context.Background())
		if err != nil {
			t.Fatalf("GetSession() error = %v", err)
		}
		if s.AccessToken != "at-1" {
			t.Errorf("expected refreshed token, got %q", s.AccessToken)
		}
		if len(events) != 1 || events[0] != EventTokenRefreshed {
			t.Errorf("expected TOKEN_REFRESHED, got %v", events)
		}
	})

	t.Run("rejected refresh signs out", func(t *testing.T) {
		p, store := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":"invalid_grant","error_description":"Refresh Token Not Found"}`))
		})
		store.SaveSession(p.host, &models.AuthSession{RefreshToken: "rt-0", ExpiresAt: time.Now().Add(-time.Hour)})

		_, err := p.GetSession(context.Background())
		if !errors.Is(err, shared.ErrRefreshFailed) {
			t.Errorf("expected ErrRefreshFailed, got %v", err)
		}
		if s, _ := store.LoadSession(p.host); s != nil {
			t.Error("session should be removed")
		}
	})
}

func TestSignOut(t *testing.T) {
	for _, status := range []int{http.StatusNoContent, http.StatusUnauthorized} {
		p, store := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "Bearer at-1" {
				t.Errorf("expected user bearer, got %q", r.Header.Get("Authorization"))
			}
			w.WriteHeader(status)
		})
		store.SaveSession(p.host, &models.AuthSession{AccessToken: "at-1"})

		signedOut := false
		unsub := p.OnAuthStateChange(func(e Event, s *models.AuthSession) {
			signedOut = e == EventSignedOut && s == nil
		})

		if err := p.SignOut(context.Background()); err != nil {
			t.Fatalf("SignOut() with status %d error = %v", status, err)
		}
		if s, _ := store.LoadSession(p.host); s != nil {
			t.Error("session should be removed")
		}
		if !signedOut {
			t.Error("expected SIGNED_OUT event")
		}
		unsub()
	}
}

func TestOnAuthStateChangeUnsubscribe(t *testing.T) {
	p, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {})
	calls := 0
	unsub := p.OnAuthStateChange(func(Event, *models.AuthSession) { calls++ })

	p.emit(EventSignedOut, nil)
	unsub()
	p.emit(EventSignedOut, nil)

	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}
