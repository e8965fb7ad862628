package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bbruceyuan/vmarker/internal/shared"
	tu "github.com/bbruceyuan/vmarker/internal/testing"
)

func TestAPIService(t *testing.T) {
	t.Run("New", func(t *testing.T) {
		t.Run("With Custom BaseURL and Client", func(t *testing.T) {
			customClient := &http.Client{}
			srv := NewAPIService("http://example.com/", customClient)

			if srv.baseURL != "http://example.com" {
				t.Errorf("expected trailing slash to be trimmed, got %s", srv.baseURL)
			}
			if srv.httpClient != customClient {
				t.Error("expected custom client to be used")
			}
		})

		t.Run("With Empty BaseURL", func(t *testing.T) {
			srv := NewAPIService("", nil)

			if srv.baseURL != shared.DefaultAPIURL {
				t.Errorf("expected default baseURL %s, got %s", shared.DefaultAPIURL, srv.baseURL)
			}
			if srv.httpClient != http.DefaultClient {
				t.Error("expected http.DefaultClient to be used")
			}
		})

		t.Run("Rate Limit", func(t *testing.T) {
			srv := NewAPIService("", nil).WithRateLimit(5)
			if srv.limiter == nil {
				t.Fatal("expected limiter")
			}
			if srv.WithRateLimit(0).limiter != nil {
				t.Error("zero rate should disable pacing")
			}
		})
	})

	t.Run("Get", func(t *testing.T) {
		t.Run("Path Gets API Prefix", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodGet {
					t.Errorf("expected GET method, got %s", r.Method)
				}
				if r.URL.Path != "/api/v1/chapter-bar/themes" {
					t.Errorf("expected prefixed path, got %s", r.URL.Path)
				}
				if r.Header.Get("X-Request-Id") == "" {
					t.Error("expected request id header")
				}
				w.Header().Set("Content-Type", "application/json")
				json.NewEncoder(w).Encode(map[string]string{"status": "success"})
			}))
			defer server.Close()

			srv := NewAPIService(server.URL, nil)
			resp, err := srv.Get(context.Background(), "chapter-bar/themes")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if !resp.IsJSON || resp.JSONData == nil {
				t.Error("expected JSON response")
			}
		})

		t.Run("Prefixed Path Is Kept", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/api/v1/auth/check" {
					t.Errorf("unexpected path %s", r.URL.Path)
				}
			}))
			defer server.Close()

			if _, err := NewAPIService(server.URL, nil).Get(context.Background(), "/api/v1/auth/check"); err != nil {
				t.Fatal(err)
			}
		})

		t.Run("Non-2xx Is Returned Raw", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
				w.Write([]byte("plain text response"))
			}))
			defer server.Close()

			resp, err := NewAPIService(server.URL, nil).Get(context.Background(), "/missing")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if resp.StatusCode != http.StatusNotFound || resp.IsJSON {
				t.Errorf("unexpected response %+v", resp)
			}
			if string(resp.Body) != "plain text response" {
				t.Errorf("unexpected body %s", resp.Body)
			}
		})

		t.Run("Failed Request Creation", func(t *testing.T) {
			_, err := NewAPIService("http://example.com", nil).Get(context.Background(), "/test\x00invalid")
			if err == nil || !strings.Contains(err.Error(), "failed to create request") {
				t.Errorf("expected 'failed to create request' error, got %v", err)
			}
		})

		t.Run("Failed HTTP Request", func(t *testing.T) {
			client := &http.Client{Transport: tu.NewMockRoundTripper(nil, errors.New("connection failed"))}

			_, err := NewAPIService("http://example.com", client).Get(context.Background(), "/test")
			if !errors.Is(err, shared.ErrAPIRequest) {
				t.Errorf("expected ErrAPIRequest, got %v", err)
			}
			if err == nil || !strings.Contains(err.Error(), "request failed") {
				t.Errorf("expected 'request failed' error, got %v", err)
			}
		})

		t.Run("Failed Response Body Read", func(t *testing.T) {
			client := &http.Client{
				Transport: tu.NewMockRoundTripper(&http.Response{
					StatusCode: http.StatusOK,
					Body:       &tu.FCloser{},
					Header:     http.Header{},
				}, nil),
			}

			_, err := NewAPIService("http://example.com", client).Get(context.Background(), "/test")
			if err == nil || !strings.Contains(err.Error(), "failed to read response") {
				t.Errorf("expected 'failed to read response' error, got %v", err)
			}
		})

		t.Run("With Canceled Context", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
			defer server.Close()

			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			if _, err := NewAPIService(server.URL, nil).Get(ctx, "/test"); err == nil {
				t.Error("expected error for canceled context")
			}
		})
	})

	t.Run("Post", func(t *testing.T) {
		t.Run("Sends JSON", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Header.Get("Content-Type") != "application/json" {
					t.Errorf("expected Content-Type 'application/json', got %s", r.Header.Get("Content-Type"))
				}
				body, _ := io.ReadAll(r.Body)
				var data map[string]string
				if err := json.Unmarshal(body, &data); err != nil || data["url"] != "x" {
					t.Errorf("unexpected request body %s", body)
				}
				w.WriteHeader(http.StatusCreated)
				w.Write([]byte(`{"id":"123"}`))
			}))
			defer server.Close()

			resp, err := NewAPIService(server.URL, nil).Post(context.Background(), "/youtube/from-url", []byte(`{"url":"x"}`))
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if resp.StatusCode != http.StatusCreated || !resp.IsJSON {
				t.Errorf("unexpected response %+v", resp)
			}
		})
	})

	t.Run("Typed Errors", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"detail":"SRT 文件格式错误"}`))
		}))
		defer server.Close()

		backend := NewBackend(NewAPIService(server.URL, nil))
		_, err := backend.ChapterBar.Themes(context.Background())

		var apiErr *shared.APIError
		if !errors.As(err, &apiErr) {
			t.Fatalf("expected APIError, got %v", err)
		}
		if apiErr.StatusCode != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", apiErr.StatusCode)
		}
		if shared.UserMessage(err) != "SRT 文件格式错误" {
			t.Errorf("unexpected user message %q", shared.UserMessage(err))
		}
	})

	t.Run("Status Text When Body Empty", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer server.Close()

		_, err := NewBackend(NewAPIService(server.URL, nil)).ProgressBar.Colors(context.Background())
		var apiErr *shared.APIError
		if !errors.As(err, &apiErr) || apiErr.Message != "Service Unavailable" {
			t.Errorf("expected status text message, got %v", err)
		}
	})

	t.Run("Extra Headers", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Cf-Access-Token") != "gw" {
				t.Errorf("expected gateway header, got %v", r.Header)
			}
			w.Write([]byte(`[]`))
		}))
		defer server.Close()

		h, err := shared.ParseCurlCommand(`curl -H 'CF-Access-Token: gw'`)
		if err != nil {
			t.Fatal(err)
		}
		api := NewAPIService(server.URL, nil).WithHeaders(h)
		if _, err := NewBackend(api).ChapterBar.Themes(context.Background()); err != nil {
			t.Fatal(err)
		}
	})

	t.Run("Rate Limited Requests Still Complete", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`[]`))
		}))
		defer server.Close()

		api := NewAPIService(server.URL, nil).WithRateLimit(50)
		start := time.Now()
		for range 3 {
			if _, err := NewBackend(api).ProgressBar.Colors(context.Background()); err != nil {
				t.Fatal(err)
			}
		}
		if time.Since(start) < 30*time.Millisecond {
			t.Error("expected requests to be paced")
		}
	})
}

func TestBearerInjection(t *testing.T) {
	var mu sync.Mutex
	seen := map[string]string{}
	header := func(path string) string {
		mu.Lock()
		defer mu.Unlock()
		return seen[path]
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		seen[r.URL.Path] = r.Header.Get("Authorization")
		mu.Unlock()
		switch r.URL.Path {
		case "/api/v1/auth/me":
			w.Write([]byte(`{"id":"u1","email":"a@b.c","role":"authenticated","aud":"authenticated"}`))
		case "/api/v1/auth/check":
			w.Write([]byte(`{"authenticated":true,"user":{"id":"u1","role":"authenticated","aud":"authenticated"}}`))
		default:
			w.Write([]byte(`[]`))
		}
	}))
	defer server.Close()

	ts := tu.NewTokenSource("tok-1")
	backend := NewBackend(NewAPIService(server.URL, nil).WithTokenSource(ts))

	user, err := backend.Auth.Me(context.Background())
	if err != nil {
		t.Fatalf("Me() error = %v", err)
	}
	if user.ID != "u1" || user.Email != "a@b.c" {
		t.Errorf("unexpected user %+v", user)
	}

	check, err := backend.Auth.Check(context.Background())
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if !check.Authenticated || check.User == nil {
		t.Errorf("unexpected check %+v", check)
	}

	if _, err := backend.ChapterBar.Themes(context.Background()); err != nil {
		t.Fatal(err)
	}

	if header("/api/v1/auth/me") != "Bearer tok-1" || header("/api/v1/auth/check") != "Bearer tok-1" {
		t.Error("auth endpoints should carry the bearer token")
	}
	if got := header("/api/v1/chapter-bar/themes"); got != "" {
		t.Errorf("unauthenticated endpoints must not carry a token, got %q", got)
	}

	t.Run("No Session Omits Header", func(t *testing.T) {
		ts.SetError(shared.ErrNotAuthenticated)
		if _, err := backend.Auth.Check(context.Background()); err != nil {
			t.Fatal(err)
		}
		if got := header("/api/v1/auth/check"); got != "" {
			t.Errorf("expected no header without a session, got %q", got)
		}
	})
}
