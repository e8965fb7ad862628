package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"

	"github.com/bbruceyuan/vmarker/internal/server"
	"github.com/bbruceyuan/vmarker/internal/shared"
	"github.com/bbruceyuan/vmarker/internal/ui"
)

// TUI launches the interactive terminal UI.
//
// A loopback server serves rendered videos so they can be previewed in a browser.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	if r.engine == nil {
		return fmt.Errorf("%w: video engine not initialized", shared.ErrServiceUnavailable)
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger("./tmp/vmarker-tui.log")
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)
	r.engine.WithLogger(fileLogger)

	previews := server.NewPreviewHandler()
	router := server.NewBasicRouter()
	router.Use(server.RequestIDMiddleware(), server.LoggingMiddleware(fileLogger), server.RecoveryMiddleware(fileLogger))
	router.Handler(previews)

	deps := ui.Deps{
		Backend:  r.backend,
		Engine:   r.engine,
		Archive:  r.archive,
		Logger:   fileLogger,
		StartDir: cmd.String("dir"),
	}

	// port 0: the configured port is kept free for auth callbacks
	local, err := server.NewLocal(r.config.Server.Host, 0, router, fileLogger)
	if err != nil {
		fileLogger.Warn("previews disabled", "error", err)
	} else {
		go func() {
			for err := range local.Start() {
				fileLogger.Error("preview server stopped", "error", err)
			}
		}()
		defer func() {
			if err := local.Shutdown(context.WithoutCancel(ctx)); err != nil {
				fileLogger.Warn("failed to stop preview server", "error", err)
			}
		}()
		deps.Previews = previews
		deps.PreviewURL = local.URL
	}

	model := ui.NewModel(ctx, deps)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
