// HTTP plumbing shared by every backend resource client
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/bbruceyuan/vmarker/internal/models"
	"github.com/bbruceyuan/vmarker/internal/shared"
	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const apiPrefix = "/api/v1"

// APIService talks to the vmarker backend. Resource clients ([ChapterBarClient], [VideoClient], ...)
// are thin typed views over it.
//
// Failures are surfaced once; nothing is retried.
type APIService struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	tokens     oauth2.TokenSource
	headers    *shared.ExtraHeaders
	logger     *log.Logger
}

// NewAPIService creates a new API service instance for the backend at baseURL.
func NewAPIService(baseURL string, client *http.Client) *APIService {
	if baseURL == "" {
		baseURL = shared.DefaultAPIURL
	}
	if client == nil {
		client = http.DefaultClient
	}

	return &APIService{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: client,
		logger:     log.New(io.Discard),
	}
}

// WithRateLimit paces outgoing requests to rps per second. Zero or less disables pacing.
func (a *APIService) WithRateLimit(rps float64) *APIService {
	if rps <= 0 {
		a.limiter = nil
		return a
	}
	a.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	return a
}

// WithTokenSource sets where bearer tokens for authenticated endpoints come from.
func (a *APIService) WithTokenSource(ts oauth2.TokenSource) *APIService {
	a.tokens = ts
	return a
}

// WithHeaders attaches extra headers to every request.
func (a *APIService) WithHeaders(h *shared.ExtraHeaders) *APIService {
	a.headers = h
	return a
}

// WithLogger sets the request logger.
func (a *APIService) WithLogger(l *log.Logger) *APIService {
	if l != nil {
		a.logger = l
	}
	return a
}

// BaseURL returns the backend root.
func (a *APIService) BaseURL() string { return a.baseURL }

// APIResponse represents a raw API response with status and body.
type APIResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	IsJSON     bool
	JSONData   any
}

// Get performs a GET request to the specified path and returns the raw response, whatever its status.
func (a *APIService) Get(ctx context.Context, path string) (*APIResponse, error) {
	req, err := a.newRequest(ctx, http.MethodGet, path, nil, "")
	if err != nil {
		return nil, err
	}
	return a.raw(req)
}

// Post performs a POST request with the given JSON data and returns the raw response, whatever its status.
func (a *APIService) Post(ctx context.Context, path string, data []byte) (*APIResponse, error) {
	req, err := a.newRequest(ctx, http.MethodPost, path, bytes.NewReader(data), "application/json")
	if err != nil {
		return nil, err
	}
	return a.raw(req)
}

func (a *APIService) raw(req *http.Request) (*APIResponse, error) {
	resp, err := a.send(req, true)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	apiResp := &APIResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       body,
	}

	var jsonData any
	if err := json.Unmarshal(body, &jsonData); err == nil {
		apiResp.IsJSON = true
		apiResp.JSONData = jsonData
	}

	return apiResp, nil
}

// newRequest builds a request for path, which may omit the /api/v1 prefix.
func (a *APIService) newRequest(ctx context.Context, method, path string, body io.Reader, contentType string) (*http.Request, error) {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if !strings.HasPrefix(path, apiPrefix+"/") && path != apiPrefix {
		path = apiPrefix + path
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("X-Request-Id", shared.GenerateID())
	a.headers.Apply(req)
	return req, nil
}

// send paces, authenticates and performs req. Only transport failures are errors here.
func (a *APIService) send(req *http.Request, withAuth bool) (*http.Response, error) {
	if a.limiter != nil {
		if err := a.limiter.Wait(req.Context()); err != nil {
			return nil, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
		}
	}

	if withAuth && a.tokens != nil {
		if tok, err := a.tokens.Token(); err == nil && tok.AccessToken != "" {
			tok.SetAuthHeader(req)
		} else if err != nil {
			a.logger.Debug("sending without session", "path", req.URL.Path, "reason", err)
		}
	}

	start := time.Now()
	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: request failed: %v", shared.ErrAPIRequest, err)
	}

	a.logger.Debug("api request",
		"method", req.Method,
		"path", req.URL.Path,
		"status", resp.StatusCode,
		"elapsed", time.Since(start).Round(time.Millisecond),
		"request_id", req.Header.Get("X-Request-Id"))
	return resp, nil
}

// do performs req and converts non-2xx responses into [*shared.APIError].
// The caller closes the returned body.
func (a *APIService) do(req *http.Request, withAuth bool) (*http.Response, error) {
	resp, err := a.send(req, withAuth)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		return nil, shared.NewAPIError(resp.StatusCode, body)
	}
	return resp, nil
}

func decodeJSON(resp *http.Response, out any) error {
	defer resp.Body.Close()
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (a *APIService) getJSON(ctx context.Context, path string, withAuth bool, out any) error {
	req, err := a.newRequest(ctx, http.MethodGet, path, nil, "")
	if err != nil {
		return err
	}
	resp, err := a.do(req, withAuth)
	if err != nil {
		return err
	}
	return decodeJSON(resp, out)
}

func (a *APIService) postJSON(ctx context.Context, path string, in, out any) error {
	resp, err := a.postJSONResponse(ctx, path, in)
	if err != nil {
		return err
	}
	return decodeJSON(resp, out)
}

func (a *APIService) postJSONResponse(ctx context.Context, path string, in any) (*http.Response, error) {
	var body io.Reader
	contentType := ""
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(data)
		contentType = "application/json"
	}

	req, err := a.newRequest(ctx, http.MethodPost, path, body, contentType)
	if err != nil {
		return nil, err
	}
	return a.do(req, false)
}

// postBlob posts a JSON body and returns the binary response.
func (a *APIService) postBlob(ctx context.Context, path string, in any) (*models.Blob, error) {
	resp, err := a.postJSONResponse(ctx, path, in)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return &models.Blob{Data: data, ContentType: resp.Header.Get("Content-Type")}, nil
}

// postMultipart streams file as the "file" form field, plus any extra fields, and decodes the JSON reply.
func (a *APIService) postMultipart(ctx context.Context, path string, file *models.File, fields map[string]string, out any) error {
	src, err := file.Open()
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", file.Name(), err)
	}

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		defer src.Close()
		err := writeMultipart(mw, file.Name(), src, fields)
		pw.CloseWithError(err)
	}()

	req, err := a.newRequest(ctx, http.MethodPost, path, pr, mw.FormDataContentType())
	if err != nil {
		pr.Close()
		return err
	}

	resp, err := a.do(req, false)
	pr.Close()
	if err != nil {
		return err
	}
	return decodeJSON(resp, out)
}

func writeMultipart(mw *multipart.Writer, name string, src io.Reader, fields map[string]string) error {
	part, err := mw.CreateFormFile("file", name)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, src); err != nil {
		return err
	}
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return err
		}
	}
	return mw.Close()
}

func (a *APIService) delete(ctx context.Context, path string) error {
	req, err := a.newRequest(ctx, http.MethodDelete, path, nil, "")
	if err != nil {
		return err
	}
	resp, err := a.do(req, false)
	if err != nil {
		return err
	}
	return decodeJSON(resp, nil)
}
