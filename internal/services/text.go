package services

import (
	"context"
	"fmt"

	"github.com/bbruceyuan/vmarker/internal/models"
)

// ShowNotesClient implements [ShowNotesService].
type ShowNotesClient struct {
	api *APIService
}

// Generate uploads subtitles and returns the AI summary and outline.
func (c *ShowNotesClient) Generate(ctx context.Context, file *models.File) (*models.ShowNotesResult, error) {
	var result models.ShowNotesResult
	if err := c.api.postMultipart(ctx, "/shownotes/generate", file, nil, &result); err != nil {
		return nil, fmt.Errorf("failed to generate show notes: %w", err)
	}
	return &result, nil
}

// SubtitleClient implements [SubtitleService].
type SubtitleClient struct {
	api *APIService
}

// Polish uploads subtitles and returns the corrected cues.
func (c *SubtitleClient) Polish(ctx context.Context, file *models.File) (*models.PolishResult, error) {
	var result models.PolishResult
	if err := c.api.postMultipart(ctx, "/subtitle/polish", file, nil, &result); err != nil {
		return nil, fmt.Errorf("failed to polish subtitles: %w", err)
	}
	return &result, nil
}

// YouTubeClient implements [YouTubeService].
type YouTubeClient struct {
	api *APIService
}

// FromURL generates chapters for the video at url.
func (c *YouTubeClient) FromURL(ctx context.Context, url string) (*models.YouTubeChaptersResult, error) {
	var result models.YouTubeChaptersResult
	if err := c.api.postJSON(ctx, "/youtube/from-url", map[string]string{"url": url}, &result); err != nil {
		return nil, fmt.Errorf("failed to generate chapters from url: %w", err)
	}
	return &result, nil
}

// AuthClient implements [AuthService]. Both calls carry the session's bearer token when one exists.
type AuthClient struct {
	api *APIService
}

// Me returns the signed-in user; the backend answers 401 without a session.
func (c *AuthClient) Me(ctx context.Context) (*models.AuthUser, error) {
	var user models.AuthUser
	if err := c.api.getJSON(ctx, "/auth/me", true, &user); err != nil {
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}
	return &user, nil
}

// Check reports whether the backend accepts the current session.
func (c *AuthClient) Check(ctx context.Context) (*models.AuthCheckResponse, error) {
	var result models.AuthCheckResponse
	if err := c.api.getJSON(ctx, "/auth/check", true, &result); err != nil {
		return nil, fmt.Errorf("failed to check session: %w", err)
	}
	return &result, nil
}
