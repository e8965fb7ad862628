// Package server runs the small loopback HTTP server the CLI needs.
//
// It catches auth redirects on /auth/callback ([CallbackHandler]) and lets a browser
// play generated videos from /preview/{id} ([PreviewHandler]). Routing is chi based;
// [Middleware] wraps handlers in reverse order (last added executes first).
package server
