package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/bbruceyuan/vmarker/internal/formatter"
	"github.com/bbruceyuan/vmarker/internal/models"
	"github.com/bbruceyuan/vmarker/internal/shared"
	"github.com/bbruceyuan/vmarker/internal/wizard"
)

// validationWait bounds how long quick mode waits for the backend to check fallback chapters.
const validationWait = 30 * time.Second

// fileArg reads a positional file argument and opens it as a [models.File].
func fileArg(cmd *cli.Command, name string) (*models.File, error) {
	path := cmd.StringArg(name)
	if path == "" {
		return nil, fmt.Errorf("%w: %s", shared.ErrMissingArgument, name)
	}
	return models.FileFromPath(path)
}

// subtitleArg is [fileArg] plus the local .srt checks.
func subtitleArg(cmd *cli.Command, name string) (*models.File, error) {
	file, err := fileArg(cmd, name)
	if err != nil {
		return nil, err
	}
	if err := shared.ValidateSubtitleFile(file.Name(), file.Size()); err != nil {
		return nil, err
	}
	return file, nil
}

func videoFormat(cmd *cli.Command) (models.VideoFormat, error) {
	f, ok := models.ParseVideoFormat(cmd.String("format"))
	if !ok {
		return "", fmt.Errorf("%w: format must be mp4 or mov, got %q", shared.ErrInvalidFlag, cmd.String("format"))
	}
	return f, nil
}

// ChapterBarThemes lists the backend's themes.
func (r *Runner) ChapterBarThemes(ctx context.Context, cmd *cli.Command) error {
	themes, err := r.backend.ChapterBar.Themes(ctx)
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(themes, true)
	}

	r.writePlainHeader("Chapter bar themes")
	for _, t := range themes {
		r.writePlain("%-16s %-20s played %s  unplayed %s\n", t.Name, t.DisplayName, t.PlayedBg, t.UnplayedBg)
	}
	return nil
}

// ChapterBarParse reports subtitle count and duration.
func (r *Runner) ChapterBarParse(ctx context.Context, cmd *cli.Command) error {
	file, err := subtitleArg(cmd, "file")
	if err != nil {
		return err
	}

	res, err := r.backend.ChapterBar.Parse(ctx, file)
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(res, true)
	}
	return r.writePlain("%s: %d subtitles, %s\n", file.Name(), res.SubtitleCount, shared.FormatTime(res.Duration))
}

// ChapterBarExtract runs AI or fixed-interval extraction. AI failures fall back to fixed intervals.
func (r *Runner) ChapterBarExtract(ctx context.Context, cmd *cli.Command) error {
	file, err := subtitleArg(cmd, "file")
	if err != nil {
		return err
	}

	mode, err := wizard.ParseExtractMode(cmd.String("mode"))
	if err != nil {
		return err
	}

	ex := wizard.NewExtraction(r.backend.ChapterBar)
	ex.SetMode(mode)
	if !ex.SetInterval(cmd.Int("interval")) {
		return fmt.Errorf("%w: interval must be between %d and %d", shared.ErrInvalidFlag, wizard.MinInterval, wizard.MaxInterval)
	}

	r.logger.Info("extracting chapters", "file", file.Name(), "mode", mode)
	res, err := ex.Run(ctx, file)
	if err != nil {
		return err
	}
	if res.FellBack() {
		r.logger.Warn("AI extraction failed, used fixed intervals", "error", res.AIError)
	}

	if path := cmd.String("csv"); path != "" {
		data, err := formatter.ChaptersCSV(res.Chapters)
		if err != nil {
			return err
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
		r.logger.Info("chapters written", "path", path, "count", len(res.Chapters))
	}

	if cmd.Bool("json") {
		return r.writeJSON(res.Chapters, true)
	}
	r.writePlainHeader(fmt.Sprintf("%d chapters (%s)", len(res.Chapters), res.Mode))
	return r.writePlain("%s", formatter.ChaptersTable(res.Chapters))
}

func readChapters(path string) ([]models.Chapter, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidFile, err)
	}
	return formatter.ParseChaptersCSV(data)
}

// ChapterBarValidate checks a chapter CSV and fails when the backend reports blocking issues.
func (r *Runner) ChapterBarValidate(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("chapters")
	if path == "" {
		return fmt.Errorf("%w: chapters", shared.ErrMissingArgument)
	}
	chapters, err := readChapters(path)
	if err != nil {
		return err
	}
	duration, ok := shared.ParseTime(cmd.String("duration"))
	if !ok {
		return fmt.Errorf("%w: %q", shared.ErrInvalidDuration, cmd.String("duration"))
	}

	res, err := r.backend.ChapterBar.Validate(ctx, chapters, duration)
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		if err := r.writeJSON(res, true); err != nil {
			return err
		}
	} else {
		r.writeIssues(res.Issues)
	}

	if !res.Valid {
		return fmt.Errorf("%w: chapters have blocking issues", shared.ErrInvalidInput)
	}
	return r.writePlain("✓ %d chapters are valid\n", len(chapters))
}

func (r *Runner) writeIssues(issues []models.ValidationIssue) {
	for _, issue := range issues {
		mark := "!"
		if issue.Blocking {
			mark = "✗"
		}
		where := ""
		if issue.ChapterIndex != nil {
			where = fmt.Sprintf("chapter %d: ", *issue.ChapterIndex+1)
		}
		r.writePlain("%s %s%s\n", mark, where, issue.Message)
	}
}

// ChapterBarGenerate renders a chapter bar from a chapter CSV.
func (r *Runner) ChapterBarGenerate(ctx context.Context, cmd *cli.Command) error {
	file, err := subtitleArg(cmd, "file")
	if err != nil {
		return err
	}
	chapters, err := readChapters(cmd.String("chapters"))
	if err != nil {
		return err
	}
	format, err := videoFormat(cmd)
	if err != nil {
		return err
	}

	parsed, err := r.backend.ChapterBar.Parse(ctx, file)
	if err != nil {
		return err
	}

	selector := wizard.NewThemeSelector(wizard.DefaultThemeConfig())
	if err := selector.Load(ctx, r.backend.ChapterBar); err != nil {
		r.logger.Warn("could not load themes, theme name not checked", "error", err)
	}
	if err := r.applyStyle(cmd, selector); err != nil {
		return err
	}

	gen := wizard.NewGenerator(r.backend.ChapterBar, chapters, parsed.Duration, selector.Config(), nil)
	gen.SetFormat(format)
	return r.generateChapterBar(ctx, gen, file.Name(), cmd.String("output"))
}

// applyStyle maps theme, color and size flags onto selector.
func (r *Runner) applyStyle(cmd *cli.Command, selector *wizard.ThemeSelector) error {
	if err := selector.SelectTheme(cmd.String("theme")); err != nil {
		return err
	}

	played, unplayed := cmd.String("played"), cmd.String("unplayed")
	switch {
	case played != "" && unplayed != "":
		if err := selector.SetCustomColors(played, unplayed); err != nil {
			return err
		}
		selector.UseCustom()
	case played != "" || unplayed != "":
		return fmt.Errorf("%w: --played and --unplayed go together", shared.ErrInvalidFlag)
	}

	if preset := cmd.String("preset"); preset != "" {
		if err := selector.ApplyPreset(preset); err != nil {
			return err
		}
	}
	if w, h := cmd.Int("width"), cmd.Int("height"); w != 0 || h != 0 {
		cfg := selector.Config()
		if w == 0 {
			w = cfg.Width
		}
		if h == 0 {
			h = cfg.Height
		}
		if err := selector.SetSize(w, h); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) generateChapterBar(ctx context.Context, gen *wizard.Generator, source, path string) error {
	req := gen.Request()
	r.logger.Info("rendering chapter bar", "chapters", len(req.Chapters), "theme", req.Theme, "size", fmt.Sprintf("%dx%d", req.Width, req.Height))

	if _, err := gen.Generate(ctx); err != nil {
		return err
	}
	out, ok := gen.Output()
	if !ok {
		return gen.Err()
	}
	return r.save(ctx, source, out, path)
}

// ChapterBarQuick extracts chapters with AI and renders them with the default style.
//
// When AI extraction fails the wizard falls back to the extract step; the command
// then uses fixed intervals, waits for validation and continues.
func (r *Runner) ChapterBarQuick(ctx context.Context, cmd *cli.Command) error {
	file, err := subtitleArg(cmd, "file")
	if err != nil {
		return err
	}
	format, err := videoFormat(cmd)
	if err != nil {
		return err
	}

	snapshots := make(chan wizard.EditorSnapshot, 8)
	w := wizard.NewChapterBar(ctx, r.backend.ChapterBar, nil, wizard.WithUpdates(func(s wizard.EditorSnapshot) {
		select {
		case snapshots <- s:
		default:
		}
	}))
	defer w.Close()

	parsed, err := w.LoadFile(ctx, file)
	if err != nil {
		return err
	}

	outcome, err := w.QuickGenerate(ctx, file, parsed.Duration)
	if err != nil {
		return err
	}

	if outcome.Kind == wizard.QuickFallback {
		r.logger.Warn("AI extraction failed, falling back to fixed intervals", "error", outcome.Err)
		if err := r.quickFallback(ctx, w, file, snapshots); err != nil {
			return err
		}
	}

	gen := w.Generator()
	if gen == nil {
		return fmt.Errorf("%w: wizard did not reach the generate step", shared.ErrStepLocked)
	}
	gen.SetFormat(format)
	return r.generateChapterBar(ctx, gen, file.Name(), cmd.String("output"))
}

func (r *Runner) quickFallback(ctx context.Context, w *wizard.ChapterBar, file *models.File, snapshots <-chan wizard.EditorSnapshot) error {
	ex := w.Extraction()
	ex.SetMode(wizard.ModeAuto)
	res, err := ex.Run(ctx, file)
	if err != nil {
		return err
	}
	if err := w.ChaptersExtracted(res.Chapters); err != nil {
		return err
	}

	timeout := time.After(validationWait)
	for {
		select {
		case snap := <-snapshots:
			if snap.Validating {
				continue
			}
			if !snap.CanProceed() {
				r.writeIssues(snap.Issues)
			}
			if err := w.EditNext(); err != nil {
				return err
			}
			w.ConfigChanged(wizard.DefaultThemeConfig())
			return w.ConfigNext()
		case <-timeout:
			return fmt.Errorf("%w: chapter validation", shared.ErrTimeout)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
