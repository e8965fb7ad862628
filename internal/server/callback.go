package server

import (
	"context"
	"fmt"
	"html"
	"net/http"
	"strings"
	"sync"
)

// ExchangeFunc completes a sign-in given the code from the redirect.
type ExchangeFunc func(ctx context.Context, code string) error

// CallbackResult is the outcome of one redirect callback.
type CallbackResult struct {
	// Exchanged is false when the redirect carried no code.
	Exchanged bool
	err       error
}

func (c *CallbackResult) Error() error {
	return c.err
}

// CallbackHandler receives the auth provider's redirect on /auth/callback.
//
// It handles exactly one callback. Its result is delivered on [CallbackHandler.Result]
// unless the waiter has called [CallbackHandler.Detach] first.
type CallbackHandler struct {
	exchange ExchangeFunc
	results  chan CallbackResult
	once     sync.Once

	mu       sync.Mutex
	hit      bool
	detached bool
}

// NewCallbackHandler creates a handler that calls exchange with the received code.
func NewCallbackHandler(exchange ExchangeFunc) *CallbackHandler {
	return &CallbackHandler{exchange: exchange, results: make(chan CallbackResult, 1)}
}

// Routes returns the HTTP routes this handler serves.
func (h *CallbackHandler) Routes() []string {
	return []string{"/auth/callback"}
}

// ServeHTTP exchanges the code, if any, then redirects to redirect_to or renders a status page.
func (h *CallbackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	if h.hit {
		h.mu.Unlock()
		http.Error(w, "Callback already processed", http.StatusBadRequest)
		return
	}
	h.hit = true
	h.mu.Unlock()

	q := r.URL.Query()
	code := q.Get("code")

	var result CallbackResult
	switch {
	case code != "":
		result.Exchanged = true
		if err := h.exchange(r.Context(), code); err != nil {
			result.err = fmt.Errorf("code exchange failed: %w", err)
		}
	case q.Get("error") != "":
		result.err = fmt.Errorf("authorization failed: %s - %s", q.Get("error"), q.Get("error_description"))
	}

	h.Send(result)

	if target := q.Get("redirect_to"); isLocalPath(target) {
		http.Redirect(w, r, target, http.StatusSeeOther)
		return
	}

	if result.err != nil {
		writePage(w, http.StatusBadRequest, "Sign-in failed", result.err.Error())
		return
	}
	writePage(w, http.StatusOK, "Signed in", "You can close this window and return to the terminal.")
}

// isLocalPath accepts only same-origin absolute paths.
func isLocalPath(p string) bool {
	return strings.HasPrefix(p, "/") && !strings.HasPrefix(p, "//") && !strings.Contains(p, "\\")
}

// Detach stops delivery of any result not yet sent.
func (h *CallbackHandler) Detach() {
	h.mu.Lock()
	h.detached = true
	h.mu.Unlock()
}

// Send delivers result once, unless the handler is detached.
func (h *CallbackHandler) Send(result CallbackResult) {
	h.mu.Lock()
	detached := h.detached
	h.mu.Unlock()
	if detached {
		return
	}

	h.once.Do(func() {
		h.results <- result
		close(h.results)
	})
}

// Result receives exactly one result and is then closed.
func (h *CallbackHandler) Result() <-chan CallbackResult {
	return h.results
}

func writePage(w http.ResponseWriter, status int, title, message string) {
	color := "#2563EB"
	if status >= 400 {
		color = "#DC2626"
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	fmt.Fprintf(w, `<!DOCTYPE html>
<html>
<head>
    <title>%[1]s</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
               display: flex; align-items: center; justify-content: center; height: 100vh;
               margin: 0; background: #f5f5f5; }
        .container { text-align: center; background: white; padding: 2rem;
                     border-radius: 8px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        h1 { color: %[3]s; margin: 0 0 1rem 0; }
        p { color: #666; margin: 0; }
    </style>
</head>
<body>
    <div class="container">
        <h1>%[1]s</h1>
        <p>%[2]s</p>
    </div>
</body>
</html>
`, html.EscapeString(title), html.EscapeString(message), color)
}
