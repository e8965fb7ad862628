package main

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/bbruceyuan/vmarker/internal/auth"
	"github.com/bbruceyuan/vmarker/internal/server"
	"github.com/bbruceyuan/vmarker/internal/shared"
)

const defaultLoginWait = 5 * time.Minute

func (r *Runner) requireAuth() (*auth.Store, error) {
	if r.auth == nil {
		return nil, fmt.Errorf("%w: set [auth] supabase_url and anon_key, or %s and %s",
			shared.ErrMissingConfig, shared.EnvSupabaseURL, shared.EnvSupabaseAnonKey)
	}
	return r.auth, nil
}

// AuthLogin signs in through a magic link or an OAuth provider and waits for the redirect.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	store, err := r.requireAuth()
	if err != nil {
		return err
	}

	email, providerName := cmd.String("email"), cmd.String("provider")
	if (email == "") == (providerName == "") {
		return fmt.Errorf("%w: give exactly one of --email or --provider", shared.ErrInvalidFlag)
	}

	callback := server.NewCallbackHandler(func(ctx context.Context, code string) error {
		_, err := store.ExchangeCode(ctx, code)
		return err
	})

	router := server.NewBasicRouter()
	router.Use(server.RequestIDMiddleware(), server.LoggingMiddleware(r.logger), server.RecoveryMiddleware(r.logger))
	router.Handler(callback)

	local, err := server.NewLocal(r.config.Server.Host, r.config.Server.Port, router, r.logger)
	if err != nil {
		return err
	}
	serveErrs := local.Start()
	defer func() {
		if err := local.Shutdown(context.WithoutCancel(ctx)); err != nil {
			r.logger.Warn("failed to stop callback server", "error", err)
		}
	}()

	if email != "" {
		if err := store.SignIn(ctx, email); err != nil {
			return err
		}
		r.writePlain("✓ Magic link sent to %s\nOpen it on this machine to finish signing in.\n", email)
	} else {
		provider, err := auth.ParseOAuthProvider(providerName)
		if err != nil {
			return err
		}
		url, err := store.SignInWithOAuth(ctx, provider)
		if err != nil {
			return err
		}
		r.writePlain("Opening %s\n", url)
		if err := shared.OpenBrowser(url); err != nil {
			r.logger.Warn("could not open a browser, visit the URL above", "error", err)
		}
	}

	r.logger.Info("waiting for sign-in redirect", "addr", local.Addr())

	select {
	case result := <-callback.Result():
		if err := result.Error(); err != nil {
			return fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
		}
		if !result.Exchanged {
			return fmt.Errorf("%w: redirect carried no code", shared.ErrAuthFailed)
		}
	case err := <-serveErrs:
		callback.Detach()
		return fmt.Errorf("callback server failed: %w", err)
	case <-time.After(cmd.Duration("wait")):
		callback.Detach()
		return fmt.Errorf("%w: no sign-in redirect received", shared.ErrTimeout)
	case <-ctx.Done():
		callback.Detach()
		return ctx.Err()
	}

	state := store.State()
	if !state.IsAuthenticated {
		return shared.ErrNotAuthenticated
	}
	return r.writePlain("✓ Signed in as %s\n", state.User.Email)
}

// AuthLogout ends the session.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	store, err := r.requireAuth()
	if err != nil {
		return err
	}
	if err := store.SignOut(ctx); err != nil {
		return err
	}
	return r.writePlain("✓ Signed out\n")
}

// AuthStatus prints the local session state without calling the backend.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	store, err := r.requireAuth()
	if err != nil {
		return err
	}

	state := store.State()
	switch {
	case state.IsLoading:
		return r.writePlain("… Loading session\n")
	case state.IsAuthenticated:
		return r.writePlain("Authentication: ✓ Signed in as %s (%s)\n", state.User.Email, state.User.ID)
	default:
		return r.writePlain("Authentication: ✗ Not signed in\n")
	}
}

// AuthMe asks the backend for the current user.
func (r *Runner) AuthMe(ctx context.Context, cmd *cli.Command) error {
	user, err := r.backend.Auth.Me(ctx)
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(user, true)
	}
	return r.writePlain("%s  %s  role=%s\n", user.ID, user.Email, user.Role)
}

// AuthCheck asks the backend whether the session is accepted.
func (r *Runner) AuthCheck(ctx context.Context, cmd *cli.Command) error {
	res, err := r.backend.Auth.Check(ctx)
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(res, true)
	}
	if res.Authenticated && res.User != nil {
		return r.writePlain("Authentication: ✓ Authenticated as %s\n", res.User.Email)
	}
	return r.writePlain("Authentication: ✗ Not authenticated\n")
}
