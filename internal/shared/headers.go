// Extra request headers imported from a cURL command, for backends that sit behind an
// authenticating gateway (access tokens, session cookies copied from browser devtools).
package shared

import (
	"fmt"
	"net/http"
	"os"
	"regexp"
	"strings"
)

var (
	curlHeaderPattern = regexp.MustCompile(`-H\s+'([^']+)'|-H\s+"([^"]+)"`)
	curlCookiePattern = regexp.MustCompile(`-b\s+'([^']+)'|-b\s+"([^"]+)"`)
)

// headers the client always computes itself
var skippedHeaders = map[string]bool{
	"content-type":    true,
	"content-length":  true,
	"host":            true,
	"accept-encoding": true,
}

// ExtraHeaders holds headers and a cookie string parsed from a cURL command.
type ExtraHeaders struct {
	Header http.Header
	Cookie string
}

// LoadExtraHeaders reads a file containing a cURL command and extracts its headers.
func LoadExtraHeaders(path string) (*ExtraHeaders, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read headers file: %w", err)
	}
	return ParseCurlCommand(string(content))
}

// ParseCurlCommand extracts -H headers and the -b cookie from a cURL command.
//
// A -b cookie wins over a Cookie header. Headers the client sets per request are dropped.
func ParseCurlCommand(cmd string) (*ExtraHeaders, error) {
	cmd = strings.ReplaceAll(cmd, "\\\n", " ")
	cmd = strings.ReplaceAll(cmd, "\\", "")

	result := &ExtraHeaders{Header: http.Header{}}
	var headerCookie string

	for _, match := range curlHeaderPattern.FindAllStringSubmatch(cmd, -1) {
		line := firstGroup(match)
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		switch lower := strings.ToLower(key); {
		case lower == "cookie":
			if headerCookie == "" {
				headerCookie = value
			}
		case skippedHeaders[lower]:
		default:
			result.Header.Set(key, value)
		}
	}

	if m := curlCookiePattern.FindStringSubmatch(cmd); m != nil {
		result.Cookie = firstGroup(m)
	} else {
		result.Cookie = headerCookie
	}

	if len(result.Header) == 0 && result.Cookie == "" {
		return nil, fmt.Errorf("%w: no headers found in curl command", ErrInvalidInput)
	}
	return result, nil
}

// Apply copies the headers onto req without replacing values the request already carries.
func (h *ExtraHeaders) Apply(req *http.Request) {
	if h == nil {
		return
	}
	for key, values := range h.Header {
		if req.Header.Get(key) != "" {
			continue
		}
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	if h.Cookie != "" && req.Header.Get("Cookie") == "" {
		req.Header.Set("Cookie", h.Cookie)
	}
}

func firstGroup(match []string) string {
	if match[1] != "" {
		return match[1]
	}
	return match[2]
}
