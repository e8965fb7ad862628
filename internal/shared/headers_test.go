package shared

import (
	"net/http"
	"os"
	"path/filepath"
	"testing"
)

func TestParseCurlCommand(t *testing.T) {
	tt := []struct {
		name        string
		curlCmd     string
		wantHeaders map[string]string
		wantCookie  string
		wantErr     bool
	}{
		{
			name:        "single header with single quotes",
			curlCmd:     `curl -H 'CF-Access-Token: abc' https://api.example.com`,
			wantHeaders: map[string]string{"Cf-Access-Token": "abc"},
		},
		{
			name:        "single header with double quotes",
			curlCmd:     `curl -H "X-Gateway-Key: k1" https://api.example.com`,
			wantHeaders: map[string]string{"X-Gateway-Key": "k1"},
		},
		{
			name:        "content headers are dropped",
			curlCmd:     `curl -H 'Content-Type: application/json' -H 'X-Gateway-Key: k1' https://api.example.com`,
			wantHeaders: map[string]string{"X-Gateway-Key": "k1"},
		},
		{
			name:        "cookie in -b flag",
			curlCmd:     `curl -b 'session=abc123' https://api.example.com`,
			wantHeaders: map[string]string{},
			wantCookie:  "session=abc123",
		},
		{
			name:        "cookie header",
			curlCmd:     `curl -H 'Cookie: session=abc123; token=xyz' https://api.example.com`,
			wantHeaders: map[string]string{},
			wantCookie:  "session=abc123; token=xyz",
		},
		{
			name:        "-b cookie takes precedence over -H cookie",
			curlCmd:     `curl -H 'Cookie: old=value' -b 'new=value' https://api.example.com`,
			wantHeaders: map[string]string{},
			wantCookie:  "new=value",
		},
		{
			name: "multiline curl with backslashes",
			curlCmd: `curl 'https://api.example.com/api/v1/chapter-bar/themes' \
  -H 'accept: */*' \
  -H 'cf-access-token: tok' \
  -H 'cookie: CF_Authorization=xyz'`,
			wantHeaders: map[string]string{
				"Accept":          "*/*",
				"Cf-Access-Token": "tok",
			},
			wantCookie: "CF_Authorization=xyz",
		},
		{
			name:    "no headers or cookies",
			curlCmd: `curl https://api.example.com`,
			wantErr: true,
		},
		{
			name:    "empty command",
			curlCmd: "",
			wantErr: true,
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			result, err := ParseCurlCommand(tc.curlCmd)

			if (err != nil) != tc.wantErr {
				t.Fatalf("ParseCurlCommand() error = %v, wantErr %v", err, tc.wantErr)
			}
			if tc.wantErr {
				return
			}

			if len(result.Header) != len(tc.wantHeaders) {
				t.Errorf("ParseCurlCommand() headers count = %v, want %v", len(result.Header), len(tc.wantHeaders))
			}
			for key, want := range tc.wantHeaders {
				if got := result.Header.Get(key); got != want {
					t.Errorf("ParseCurlCommand() header[%s] = %v, want %v", key, got, want)
				}
			}
			if result.Cookie != tc.wantCookie {
				t.Errorf("ParseCurlCommand() cookie = %v, want %v", result.Cookie, tc.wantCookie)
			}
		})
	}
}

func TestLoadExtraHeaders(t *testing.T) {
	t.Run("file parse", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "curl.sh")
		if err := os.WriteFile(path, []byte(`curl -H 'X-Gateway-Key: k1' https://api.example.com`), 0644); err != nil {
			t.Fatal(err)
		}

		h, err := LoadExtraHeaders(path)
		if err != nil {
			t.Fatalf("LoadExtraHeaders() error = %v", err)
		}
		if h.Header.Get("X-Gateway-Key") != "k1" {
			t.Errorf("unexpected headers %v", h.Header)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, err := LoadExtraHeaders("/nonexistent/file.sh"); err == nil {
			t.Error("expected error for nonexistent file")
		}
	})
}

func TestExtraHeadersApply(t *testing.T) {
	h := &ExtraHeaders{
		Header: http.Header{"X-Gateway-Key": {"k1"}, "Authorization": {"Basic gw"}},
		Cookie: "a=b",
	}

	req, _ := http.NewRequest(http.MethodGet, "http://example.com", nil)
	req.Header.Set("Authorization", "Bearer session")
	h.Apply(req)

	if req.Header.Get("Authorization") != "Bearer session" {
		t.Error("Apply should not replace headers already on the request")
	}
	if req.Header.Get("X-Gateway-Key") != "k1" {
		t.Error("Apply should add missing headers")
	}
	if req.Header.Get("Cookie") != "a=b" {
		t.Error("Apply should set the cookie")
	}

	var nilHeaders *ExtraHeaders
	nilHeaders.Apply(req)
}
