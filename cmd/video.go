package main

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/bbruceyuan/vmarker/internal/models"
	"github.com/bbruceyuan/vmarker/internal/repositories"
	"github.com/bbruceyuan/vmarker/internal/shared"
	"github.com/bbruceyuan/vmarker/internal/tasks"
	"github.com/bbruceyuan/vmarker/internal/wizard"
)

// printProgress writes updates until the returned stop function is called.
func (r *Runner) printProgress() (chan<- tasks.ProgressUpdate, func()) {
	updates := make(chan tasks.ProgressUpdate, 16)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for u := range updates {
			r.writePlain("[%3.0f%%] %s\n", u.Percent, u.Message)
		}
	}()
	return updates, func() {
		close(updates)
		wg.Wait()
	}
}

func composeConfig(cmd *cli.Command) (tasks.ComposeConfig, error) {
	cfg := tasks.DefaultComposeConfig()

	switch p := models.Position(cmd.String("position")); p {
	case models.PositionTop, models.PositionBottom:
		cfg.Position = p
	default:
		return cfg, fmt.Errorf("%w: position must be top or bottom, got %q", shared.ErrInvalidFlag, p)
	}
	if theme := cmd.String("theme"); theme != "" {
		cfg.Theme = theme
	}
	for _, c := range []struct {
		flag string
		dst  *string
	}{
		{"played", &cfg.PlayedColor},
		{"unplayed", &cfg.UnplayedColor},
	} {
		v := cmd.String(c.flag)
		if v == "" {
			continue
		}
		if err := wizard.ValidateColor(v); err != nil {
			return cfg, err
		}
		*c.dst = v
	}
	return cfg, nil
}

// VideoProcess uploads a video, runs the selected features and saves the results.
func (r *Runner) VideoProcess(ctx context.Context, cmd *cli.Command) error {
	file, err := fileArg(cmd, "file")
	if err != nil {
		return err
	}
	sel, err := tasks.ParseSelection(cmd.StringSlice("features"))
	if err != nil {
		return err
	}
	cfg, err := composeConfig(cmd)
	if err != nil {
		return err
	}

	updates, stop := r.printProgress()
	session, err := r.engine.Upload(ctx, file, updates)
	if err != nil {
		stop()
		return err
	}

	if !cmd.Bool("keep") {
		defer func() {
			cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
			defer cancel()
			if err := r.engine.Reset(cleanupCtx); err != nil {
				r.logger.Warn("failed to clean up session", "session", session.SessionID, "error", err)
			}
		}()
	}

	results, err := r.engine.Process(ctx, sel, cfg, updates)
	stop()
	if err != nil {
		return err
	}

	r.writePlainHeader(fmt.Sprintf("%s (session %s)", file.Name(), session.SessionID))
	if results.ChapterBar != nil {
		r.writePlain("Chapters:\n")
		for _, c := range results.ChapterBar.Chapters {
			r.writePlain("  %s %s\n", shared.FormatTime(c.StartTime), c.Title)
		}
	}
	if results.ShowNotes != nil {
		r.writePlain("Summary: %s\n", results.ShowNotes.Summary)
	}
	if results.Subtitle != nil {
		r.writePlain("Subtitle polish: %d changes\n", results.Subtitle.ChangesCount)
	}

	for _, out := range results.Outputs() {
		if err := r.save(ctx, file.Name(), out, ""); err != nil {
			return err
		}
	}
	if cmd.Bool("keep") {
		r.writePlainln("Session %s kept; run `vmarker video cleanup %s` when done.", session.SessionID, session.SessionID)
	}
	return nil
}

func sessionArg(cmd *cli.Command) (string, error) {
	id := cmd.StringArg("session")
	if id == "" {
		return "", fmt.Errorf("%w: session", shared.ErrMissingArgument)
	}
	return id, nil
}

// VideoASR runs speech recognition on an existing session.
func (r *Runner) VideoASR(ctx context.Context, cmd *cli.Command) error {
	id, err := sessionArg(cmd)
	if err != nil {
		return err
	}
	res, err := r.backend.Video.ASR(ctx, id)
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(res, true)
	}
	return r.writePlain("%d subtitles, %s\n", res.SubtitleCount, shared.FormatTime(res.Duration))
}

// VideoSRT prints or writes a session's transcript.
func (r *Runner) VideoSRT(ctx context.Context, cmd *cli.Command) error {
	id, err := sessionArg(cmd)
	if err != nil {
		return err
	}
	res, err := r.backend.Video.SRT(ctx, id)
	if err != nil {
		return err
	}

	if path := cmd.String("output"); path != "" {
		if err := os.WriteFile(path, []byte(res.SRTContent), 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
		return r.writePlain("✓ Saved %s\n", path)
	}
	return r.writePlain("%s", res.SRTContent)
}

// VideoCleanup deletes one session, or all locally active ones with --all.
func (r *Runner) VideoCleanup(ctx context.Context, cmd *cli.Command) error {
	var sessions *repositories.VideoSessionRepository
	if r.db != nil {
		sessions = repositories.NewVideoSessionRepository(r.db)
	}

	ids := []string{}
	if cmd.Bool("all") {
		if sessions == nil {
			return fmt.Errorf("%w: --all needs the database", shared.ErrMissingConfig)
		}
		active, err := sessions.Active()
		if err != nil {
			return err
		}
		for _, s := range active {
			ids = append(ids, s.ID())
		}
	} else {
		id, err := sessionArg(cmd)
		if err != nil {
			return err
		}
		ids = append(ids, id)
	}

	for _, id := range ids {
		if err := r.backend.Video.Cleanup(ctx, id); err != nil {
			return err
		}
		if sessions != nil {
			if err := sessions.MarkCleaned(id); err != nil {
				r.logger.Debug("session not tracked locally", "session", id, "error", err)
			}
		}
		r.writePlain("✓ Cleaned up %s\n", id)
	}
	return nil
}

type sessionView struct {
	ID        string    `json:"id"`
	Source    string    `json:"source"`
	Duration  float64   `json:"duration"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// VideoSessions lists sessions still active on the server, as far as we know.
func (r *Runner) VideoSessions(ctx context.Context, cmd *cli.Command) error {
	if r.db == nil {
		return fmt.Errorf("%w: database unavailable", shared.ErrMissingConfig)
	}
	active, err := repositories.NewVideoSessionRepository(r.db).Active()
	if err != nil {
		return err
	}

	views := make([]sessionView, len(active))
	for i, s := range active {
		views[i] = sessionView{s.ID(), s.SourceName(), s.Info().Duration, string(s.Status()), s.CreatedAt()}
	}
	if cmd.Bool("json") {
		return r.writeJSON(views, true)
	}

	if len(views) == 0 {
		return r.writePlain("No active sessions\n")
	}
	for _, v := range views {
		r.writePlain("%s  %-30s %6s  %s\n", v.ID, v.Source, shared.FormatTime(v.Duration), v.CreatedAt.Format(time.DateTime))
	}
	return nil
}
