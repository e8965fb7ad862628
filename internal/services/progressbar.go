package services

import (
	"context"
	"fmt"

	"github.com/bbruceyuan/vmarker/internal/models"
)

// ProgressBarClient implements [ProgressBarService].
type ProgressBarClient struct {
	api *APIService
}

// Colors lists the preset palettes.
func (c *ProgressBarClient) Colors(ctx context.Context) ([]models.ProgressBarColor, error) {
	var colors []models.ProgressBarColor
	if err := c.api.getJSON(ctx, "/progress-bar/colors", false, &colors); err != nil {
		return nil, fmt.Errorf("failed to fetch colors: %w", err)
	}
	return colors, nil
}

// Generate renders a progress bar video.
func (c *ProgressBarClient) Generate(ctx context.Context, cfg models.ProgressBarConfig) (*models.Blob, error) {
	if cfg.Format == "" {
		cfg.Format = models.FormatMP4
	}

	blob, err := c.api.postBlob(ctx, "/progress-bar/generate", cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to generate progress bar: %w", err)
	}
	return blob, nil
}
