package services

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/bbruceyuan/vmarker/internal/models"
)

// DefaultExtractInterval is the auto-segmentation interval in seconds.
const DefaultExtractInterval = 60

// ChapterBarClient implements [ChapterBarService].
type ChapterBarClient struct {
	api *APIService
}

// Themes lists the server's color schemes.
func (c *ChapterBarClient) Themes(ctx context.Context) ([]models.Theme, error) {
	var themes []models.Theme
	if err := c.api.getJSON(ctx, "/chapter-bar/themes", false, &themes); err != nil {
		return nil, fmt.Errorf("failed to fetch themes: %w", err)
	}
	return themes, nil
}

// Parse uploads an SRT file and returns its cue count and duration.
func (c *ChapterBarClient) Parse(ctx context.Context, file *models.File) (*models.ParseResult, error) {
	var result models.ParseResult
	if err := c.api.postMultipart(ctx, "/chapter-bar/parse", file, nil, &result); err != nil {
		return nil, fmt.Errorf("failed to parse subtitles: %w", err)
	}
	return &result, nil
}

// ExtractAuto splits the subtitles into fixed intervals of interval seconds.
func (c *ChapterBarClient) ExtractAuto(ctx context.Context, file *models.File, interval int) (*models.ChapterList, error) {
	if interval <= 0 {
		interval = DefaultExtractInterval
	}

	var result models.ChapterList
	fields := map[string]string{"interval": strconv.Itoa(interval)}
	if err := c.api.postMultipart(ctx, "/chapter-bar/chapters/auto", file, fields, &result); err != nil {
		return nil, fmt.Errorf("failed to extract chapters: %w", err)
	}
	return &result, nil
}

// ExtractAI asks the server's model to segment the subtitles.
func (c *ChapterBarClient) ExtractAI(ctx context.Context, file *models.File) (*models.ChapterList, error) {
	var result models.ChapterList
	if err := c.api.postMultipart(ctx, "/chapter-bar/chapters/ai", file, nil, &result); err != nil {
		return nil, fmt.Errorf("failed to extract chapters with AI: %w", err)
	}
	return &result, nil
}

// Validate checks chapters against duration. The chapter array is the body; duration is a query parameter.
func (c *ChapterBarClient) Validate(ctx context.Context, chapters []models.Chapter, duration float64) (*models.ChapterValidationResult, error) {
	if chapters == nil {
		chapters = []models.Chapter{}
	}

	q := url.Values{"duration": {strconv.FormatFloat(duration, 'f', -1, 64)}}
	var result models.ChapterValidationResult
	if err := c.api.postJSON(ctx, "/chapter-bar/validate?"+q.Encode(), chapters, &result); err != nil {
		return nil, fmt.Errorf("failed to validate chapters: %w", err)
	}
	return &result, nil
}

// Generate renders the chapter bar video.
func (c *ChapterBarClient) Generate(ctx context.Context, req models.ChapterBarRequest) (*models.Blob, error) {
	if req.Format == "" {
		req.Format = models.FormatMP4
	}

	blob, err := c.api.postBlob(ctx, "/chapter-bar/generate", req)
	if err != nil {
		return nil, fmt.Errorf("failed to generate chapter bar: %w", err)
	}
	return blob, nil
}
