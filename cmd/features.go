package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/atotto/clipboard"
	"github.com/urfave/cli/v3"

	"github.com/bbruceyuan/vmarker/internal/formatter"
	"github.com/bbruceyuan/vmarker/internal/shared"
	"github.com/bbruceyuan/vmarker/internal/wizard"
)

// ProgressBarColors lists the color presets.
func (r *Runner) ProgressBarColors(ctx context.Context, cmd *cli.Command) error {
	colors, err := r.backend.ProgressBar.Colors(ctx)
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(colors, true)
	}

	r.writePlainHeader("Progress bar colors")
	for _, c := range colors {
		r.writePlain("%-12s %-16s played %s  unplayed %s\n", c.Name, c.DisplayName, c.Played, c.Unplayed)
	}
	return nil
}

// ProgressBarGenerate renders a progress bar video.
func (r *Runner) ProgressBarGenerate(ctx context.Context, cmd *cli.Command) error {
	format, err := videoFormat(cmd)
	if err != nil {
		return err
	}

	pb := wizard.NewProgressBar(r.backend.ProgressBar, nil)
	defer pb.Close()

	pb.SetDuration(cmd.String("duration"))
	pb.SetFormat(format)
	if err := pb.SetWidth(cmd.Int("width")); err != nil {
		return err
	}
	if err := pb.SetHeight(cmd.Int("height")); err != nil {
		return err
	}

	if name := cmd.String("color"); name != "" {
		if _, err := pb.LoadColors(ctx); err != nil {
			return err
		}
		if err := pb.SelectColor(name); err != nil {
			return err
		}
	}
	if played, unplayed := cmd.String("played"), cmd.String("unplayed"); played != "" || unplayed != "" {
		if err := pb.SetColors(played, unplayed); err != nil {
			return err
		}
	}

	cfg, err := pb.Config()
	if err != nil {
		return err
	}
	r.logger.Info("rendering progress bar", "duration", cfg.Duration, "size", fmt.Sprintf("%dx%d", cfg.Width, cfg.Height))

	if _, err := pb.Generate(ctx); err != nil {
		return err
	}
	out, ok := pb.Output()
	if !ok {
		return pb.Err()
	}
	return r.save(ctx, "progress-bar-"+strconv.FormatFloat(cfg.Duration, 'f', -1, 64)+"s", out, cmd.String("output"))
}

// ShowNotes prints show notes for a subtitle file.
func (r *Runner) ShowNotes(ctx context.Context, cmd *cli.Command) error {
	file, err := subtitleArg(cmd, "file")
	if err != nil {
		return err
	}

	notes := wizard.NewShowNotes(r.backend.ShowNotes)
	if err := notes.SetFile(file); err != nil {
		return err
	}
	notes.SetTimestamps(!cmd.Bool("no-timestamps"))

	r.logger.Info("generating show notes", "file", file.Name())
	result, err := notes.Generate(ctx)
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(result, true)
	}

	md := notes.Markdown()
	if err := r.writePlain("%s", md); err != nil {
		return err
	}

	if cmd.Bool("copy") {
		if err := clipboard.WriteAll(md); err != nil {
			r.logger.Warn("failed to copy to clipboard", "error", err)
		} else {
			r.writePlainln("✓ Copied to clipboard")
		}
	}

	if path := cmd.String("output"); path != "" || cmd.Bool("save") {
		out, _ := notes.Output()
		return r.save(ctx, file.Name(), out, path)
	}
	return nil
}

// SubtitlePolish polishes a subtitle file and lists what changed.
func (r *Runner) SubtitlePolish(ctx context.Context, cmd *cli.Command) error {
	file, err := subtitleArg(cmd, "file")
	if err != nil {
		return err
	}

	polish := wizard.NewSubtitlePolish(r.backend.Subtitle)
	if err := polish.SetFile(file); err != nil {
		return err
	}

	r.logger.Info("polishing subtitles", "file", file.Name())
	result, err := polish.Polish(ctx)
	if err != nil {
		return err
	}

	r.writePlainHeader(fmt.Sprintf("%d of %d cues changed", result.ChangesCount, len(result.Subtitles)))
	if err := r.writePlain("%s", formatter.PolishChanges(result, cmd.Bool("only-changed"))); err != nil {
		return err
	}

	if path := cmd.String("output"); path != "" || cmd.Bool("save") {
		out, _ := polish.Output()
		return r.save(ctx, file.Name(), out, path)
	}
	return nil
}

// YouTube prints chapters for a YouTube link.
func (r *Runner) YouTube(ctx context.Context, cmd *cli.Command) error {
	url := cmd.StringArg("url")
	if url == "" {
		return fmt.Errorf("%w: url", shared.ErrMissingArgument)
	}

	yt := wizard.NewYouTube(r.backend.YouTube)
	r.logger.Info("fetching chapters", "url", url)
	result, err := yt.Fetch(ctx, url)
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(result, true)
	}

	r.writePlainHeader(fmt.Sprintf("%s (%s)", result.VideoTitle, shared.FormatTime(result.Duration)))
	text := yt.CopyText()
	if text == "" {
		text = formatter.YouTubeChapters(result.Chapters)
	}
	if err := r.writePlain("%s\n", text); err != nil {
		return err
	}

	if cmd.Bool("copy") {
		if err := clipboard.WriteAll(text); err != nil {
			r.logger.Warn("failed to copy to clipboard", "error", err)
			return nil
		}
		return r.writePlainln("✓ Copied to clipboard")
	}
	return nil
}
