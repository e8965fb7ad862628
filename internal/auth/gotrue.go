package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/bbruceyuan/vmarker/internal/models"
	"github.com/bbruceyuan/vmarker/internal/shared"
	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"
)

// refreshLeeway refreshes tokens slightly before they expire.
const refreshLeeway = 30 * time.Second

// Error is an error response from the auth server.
type Error struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("auth error (status %d, %s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("auth error (status %d): %s", e.StatusCode, e.Message)
}

// GoTrueProvider talks to a Supabase project's auth endpoints using the PKCE flow.
type GoTrueProvider struct {
	baseURL    string
	host       string
	anonKey    string
	httpClient *http.Client
	store      SessionStore
	logger     *log.Logger
	now        func() time.Time

	mu        sync.Mutex
	listeners map[int]Listener
	nextID    int
}

// NewGoTrueProvider creates a provider for the project at supabaseURL.
func NewGoTrueProvider(supabaseURL, anonKey string, store SessionStore, client *http.Client) (*GoTrueProvider, error) {
	if supabaseURL == "" || anonKey == "" {
		return nil, fmt.Errorf("%w: supabase url and anon key are required", shared.ErrMissingConfig)
	}
	u, err := url.Parse(supabaseURL)
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("%w: bad supabase url %q", shared.ErrInvalidConfig, supabaseURL)
	}
	if client == nil {
		client = http.DefaultClient
	}
	if store == nil {
		store = NewMemoryStore()
	}

	return &GoTrueProvider{
		baseURL:    strings.TrimRight(supabaseURL, "/") + "/auth/v1",
		host:       u.Host,
		anonKey:    anonKey,
		httpClient: client,
		store:      store,
		logger:     log.New(io.Discard),
		now:        time.Now,
		listeners:  map[int]Listener{},
	}, nil
}

// WithLogger sets the provider's logger.
func (p *GoTrueProvider) WithLogger(l *log.Logger) *GoTrueProvider {
	if l != nil {
		p.logger = l
	}
	return p
}

// GetSession loads the stored session and refreshes it when the access token is about to expire.
func (p *GoTrueProvider) GetSession(ctx context.Context) (*models.AuthSession, error) {
	session, err := p.store.LoadSession(p.host)
	if err != nil || session == nil {
		return nil, err
	}

	if !session.Expired(p.now(), refreshLeeway) {
		return session, nil
	}
	if session.RefreshToken == "" {
		return nil, shared.ErrNoRefreshToken
	}

	refreshed, err := p.refresh(ctx, session.RefreshToken)
	if err != nil {
		var authErr *Error
		if errors.As(err, &authErr) && authErr.StatusCode >= 400 && authErr.StatusCode < 500 {
			_ = p.store.DeleteSession(p.host)
			p.emit(EventSignedOut, nil)
		}
		return nil, err
	}

	p.emit(EventTokenRefreshed, refreshed)
	return refreshed, nil
}

// OnAuthStateChange registers fn and returns its unsubscribe function.
func (p *GoTrueProvider) OnAuthStateChange(fn Listener) func() {
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.listeners[id] = fn
	p.mu.Unlock()

	return func() {
		p.mu.Lock()
		delete(p.listeners, id)
		p.mu.Unlock()
	}
}

func (p *GoTrueProvider) emit(event Event, session *models.AuthSession) {
	p.mu.Lock()
	fns := make([]Listener, 0, len(p.listeners))
	for _, fn := range p.listeners {
		fns = append(fns, fn)
	}
	p.mu.Unlock()

	p.logger.Debug("auth state change", "event", event)
	for _, fn := range fns {
		fn(event, session)
	}
}

// SignInWithOTP sends a magic link to email.
func (p *GoTrueProvider) SignInWithOTP(ctx context.Context, email, redirectTo string) error {
	challenge, err := p.beginPKCE()
	if err != nil {
		return err
	}

	body := map[string]any{
		"email":                 email,
		"create_user":           true,
		"code_challenge":        challenge,
		"code_challenge_method": "s256",
	}

	path := "/otp"
	if redirectTo != "" {
		path += "?" + url.Values{"redirect_to": {redirectTo}}.Encode()
	}
	return p.call(ctx, http.MethodPost, path, "", body, nil)
}

// SignInWithOAuth returns the authorize URL for provider.
func (p *GoTrueProvider) SignInWithOAuth(ctx context.Context, provider OAuthProvider, redirectTo string) (string, error) {
	challenge, err := p.beginPKCE()
	if err != nil {
		return "", err
	}

	q := url.Values{
		"provider":              {string(provider)},
		"code_challenge":        {challenge},
		"code_challenge_method": {"s256"},
	}
	if redirectTo != "" {
		q.Set("redirect_to", redirectTo)
	}
	return p.baseURL + "/authorize?" + q.Encode(), nil
}

// beginPKCE stores a fresh verifier and returns its S256 challenge.
func (p *GoTrueProvider) beginPKCE() (string, error) {
	verifier := oauth2.GenerateVerifier()
	if err := p.store.SaveVerifier(p.host, verifier); err != nil {
		return "", fmt.Errorf("failed to save code verifier: %w", err)
	}
	return oauth2.S256ChallengeFromVerifier(verifier), nil
}

// ExchangeCodeForSession trades an auth code and the pending verifier for a session.
func (p *GoTrueProvider) ExchangeCodeForSession(ctx context.Context, code string) (*models.AuthSession, error) {
	verifier, err := p.store.TakeVerifier(p.host)
	if err != nil {
		return nil, fmt.Errorf("failed to load code verifier: %w", err)
	}
	if verifier == "" {
		return nil, fmt.Errorf("%w: no sign-in in progress", shared.ErrAuthFailed)
	}

	var tok tokenResponse
	body := map[string]string{"auth_code": code, "code_verifier": verifier}
	if err := p.call(ctx, http.MethodPost, "/token?grant_type=pkce", "", body, &tok); err != nil {
		return nil, err
	}

	session := tok.session(p.now())
	if err := p.store.SaveSession(p.host, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	p.emit(EventSignedIn, session)
	return session, nil
}

// SignOut revokes the session remotely and forgets it locally.
//
// An already-invalid session (401/403/404) still signs out locally.
func (p *GoTrueProvider) SignOut(ctx context.Context) error {
	session, err := p.store.LoadSession(p.host)
	if err != nil {
		return err
	}

	if session != nil {
		err := p.call(ctx, http.MethodPost, "/logout", session.AccessToken, nil, nil)
		var authErr *Error
		if err != nil && !(errors.As(err, &authErr) && isGone(authErr.StatusCode)) {
			return err
		}
	}

	if err := p.store.DeleteSession(p.host); err != nil {
		return err
	}
	p.emit(EventSignedOut, nil)
	return nil
}

func isGone(status int) bool {
	return status == http.StatusUnauthorized || status == http.StatusForbidden || status == http.StatusNotFound
}

// User fetches the user behind the current access token.
func (p *GoTrueProvider) User(ctx context.Context) (*models.AuthUser, error) {
	session, err := p.GetSession(ctx)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, shared.ErrNotAuthenticated
	}

	var u userResponse
	if err := p.call(ctx, http.MethodGet, "/user", session.AccessToken, nil, &u); err != nil {
		return nil, err
	}
	user := u.authUser()
	return &user, nil
}

func (p *GoTrueProvider) refresh(ctx context.Context, refreshToken string) (*models.AuthSession, error) {
	var tok tokenResponse
	body := map[string]string{"refresh_token": refreshToken}
	if err := p.call(ctx, http.MethodPost, "/token?grant_type=refresh_token", "", body, &tok); err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrRefreshFailed, err)
	}

	session := tok.session(p.now())
	if err := p.store.SaveSession(p.host, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	return session, nil
}

// call performs a GoTrue request. bearer defaults to the anon key.
func (p *GoTrueProvider) call(ctx context.Context, method, path, bearer string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, p.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if bearer == "" {
		bearer = p.anonKey
	}
	req.Header.Set("apikey", p.anonKey)
	req.Header.Set("Authorization", "Bearer "+bearer)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return parseError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode auth response: %w", err)
	}
	return nil
}

// parseError understands both the OAuth style and the newer GoTrue error bodies.
func parseError(resp *http.Response) error {
	data, _ := io.ReadAll(resp.Body)
	var doc struct {
		Error            string `json:"error"`
		ErrorDescription string `json:"error_description"`
		ErrorCode        string `json:"error_code"`
		Code             any    `json:"code"`
		Msg              string `json:"msg"`
		Message          string `json:"message"`
	}
	_ = json.Unmarshal(data, &doc)

	e := &Error{StatusCode: resp.StatusCode, Code: doc.ErrorCode}
	if e.Code == "" {
		e.Code = doc.Error
	}
	for _, m := range []string{doc.ErrorDescription, doc.Msg, doc.Message, strings.TrimSpace(string(data))} {
		if m != "" {
			e.Message = m
			break
		}
	}
	if e.Message == "" {
		e.Message = http.StatusText(resp.StatusCode)
	}
	return e
}

type userResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
	Aud   string `json:"aud"`
}

func (u userResponse) authUser() models.AuthUser {
	user := models.AuthUser{ID: u.ID, Email: u.Email, Role: u.Role, Aud: u.Aud}
	if user.Role == "" {
		user.Role = "authenticated"
	}
	if user.Aud == "" {
		user.Aud = "authenticated"
	}
	return user
}

type tokenResponse struct {
	AccessToken  string       `json:"access_token"`
	TokenType    string       `json:"token_type"`
	ExpiresIn    int64        `json:"expires_in"`
	ExpiresAt    int64        `json:"expires_at"`
	RefreshToken string       `json:"refresh_token"`
	User         userResponse `json:"user"`
}

func (t tokenResponse) session(now time.Time) *models.AuthSession {
	s := &models.AuthSession{
		User:         t.User.authUser(),
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		TokenType:    t.TokenType,
	}
	switch {
	case t.ExpiresAt > 0:
		s.ExpiresAt = time.Unix(t.ExpiresAt, 0)
	case t.ExpiresIn > 0:
		s.ExpiresAt = now.Add(time.Duration(t.ExpiresIn) * time.Second)
	}
	if s.TokenType == "" {
		s.TokenType = "bearer"
	}
	return s
}
