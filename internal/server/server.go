package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
)

// Middleware wraps an http.Handler and returns a new http.Handler with additional behavior.
type Middleware func(http.Handler) http.Handler

// Handler is an [http.Handler] that knows which paths it serves.
type Handler interface {
	http.Handler      // ServeHTTP handles the HTTP request and writes the response
	Routes() []string // Routes returns the path patterns this handler serves
}

// Router defines HTTP routing and middleware management.
type Router interface {
	Use(middleware ...Middleware)                     // Use adds middleware to the router's middleware stack
	Handle(method, path string, handler http.Handler) // Handle registers a handler for the specified method and path
	Handler(handler Handler)                          // Handler registers a custom Handler implementation
	ServeHTTP(w http.ResponseWriter, r *http.Request) // ServeHTTP implements http.Handler for the entire router
}

// Local is a short-lived loopback server for redirect callbacks and blob previews.
type Local struct {
	srv    *http.Server
	ln     net.Listener
	logger *log.Logger
}

// NewLocal binds host:port. Port 0 picks a free port.
func NewLocal(host string, port int, handler http.Handler, logger *log.Logger) (*Local, error) {
	if logger == nil {
		logger = log.New(io.Discard)
	}

	ln, err := net.Listen("tcp", net.JoinHostPort(host, fmt.Sprint(port)))
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s:%d: %w", host, port, err)
	}

	return &Local{
		srv:    &http.Server{Handler: handler, ReadHeaderTimeout: 10 * time.Second},
		ln:     ln,
		logger: logger,
	}, nil
}

// Addr is the bound address, e.g. 127.0.0.1:3000.
func (l *Local) Addr() string { return l.ln.Addr().String() }

// URL returns an absolute http URL for path on this server.
func (l *Local) URL(path string) string { return "http://" + l.Addr() + path }

// Start serves in the background. The returned channel receives at most one error and is
// closed when the server stops.
func (l *Local) Start() <-chan error {
	errs := make(chan error, 1)
	go func() {
		defer close(errs)
		l.logger.Debug("local server listening", "addr", l.Addr())
		if err := l.srv.Serve(l.ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- err
		}
	}()
	return errs
}

// Shutdown stops the server, waiting up to 5 seconds for in-flight requests.
func (l *Local) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return l.srv.Shutdown(ctx)
}
