package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/bbruceyuan/vmarker/internal/models"
	"github.com/bbruceyuan/vmarker/internal/repositories"
	"github.com/bbruceyuan/vmarker/internal/services"
	"github.com/bbruceyuan/vmarker/internal/shared"
)

func (r *Runner) writeResponse(resp *services.APIResponse, pretty bool) error {
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return shared.NewAPIError(resp.StatusCode, resp.Body)
	}

	if resp.IsJSON {
		return r.writeJSON(resp.JSONData, pretty)
	}

	if _, err := r.output.Write(resp.Body); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	_, err := r.output.Write([]byte("\n"))
	return err
}

// APIGet makes a direct GET request to the backend
func (r *Runner) APIGet(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	if path == "" {
		return fmt.Errorf("%w: path", shared.ErrMissingArgument)
	}

	r.logger.Info("GET request", "path", path)

	resp, err := r.api.Get(ctx, path)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	return r.writeResponse(resp, !cmd.Bool("json"))
}

// APIPost makes a direct POST request to the backend
func (r *Runner) APIPost(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	data := cmd.String("data")

	if path == "" {
		return fmt.Errorf("%w: path", shared.ErrMissingArgument)
	}
	if data == "" {
		return fmt.Errorf("%w: --data flag is required", shared.ErrMissingArgument)
	}

	r.logger.Info("POST request", "path", path)

	if !json.Valid([]byte(data)) {
		return fmt.Errorf("%w: data is not valid JSON", shared.ErrInvalidInput)
	}

	resp, err := r.api.Post(ctx, path, []byte(data))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	return r.writeResponse(resp, true)
}

type artifactView struct {
	ID          string `json:"id"`
	Feature     string `json:"feature"`
	Source      string `json:"source"`
	Location    string `json:"location"`
	Backend     string `json:"backend"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
	CreatedAt   string `json:"created_at"`
}

func newArtifactView(a *models.Artifact) artifactView {
	return artifactView{
		ID:          a.ID(),
		Feature:     string(a.Feature()),
		Source:      a.SourceName(),
		Location:    a.Location(),
		Backend:     a.Backend(),
		ContentType: a.ContentType(),
		Size:        a.Size(),
		CreatedAt:   a.CreatedAt().Format("2006-01-02 15:04:05"),
	}
}

// History lists saved outputs, newest first.
func (r *Runner) History(ctx context.Context, cmd *cli.Command) error {
	if r.db == nil {
		return fmt.Errorf("%w: database unavailable, run `vmarker setup database`", shared.ErrMissingConfig)
	}

	criteria := map[string]any{"limit": cmd.Int("limit")}
	if name := cmd.String("feature"); name != "" {
		f, ok := models.ParseFeature(name)
		if !ok {
			return fmt.Errorf("%w: unknown feature %q", shared.ErrInvalidFlag, name)
		}
		criteria["feature"] = f
	}

	artifacts, err := repositories.NewArtifactRepository(r.db).List(criteria)
	if err != nil {
		return err
	}

	views := make([]artifactView, len(artifacts))
	for i, a := range artifacts {
		views[i] = newArtifactView(a)
	}
	if cmd.Bool("json") {
		return r.writeJSON(views, true)
	}

	if len(views) == 0 {
		return r.writePlain("Nothing saved yet\n")
	}
	r.writePlainHeader(fmt.Sprintf("%d saved outputs", len(views)))
	for _, v := range views {
		r.writePlain("%s  %-12s %-28s %s\n", v.CreatedAt, v.Feature, v.Source, v.Location)
	}
	return nil
}
