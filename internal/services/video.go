package services

import (
	"context"
	"fmt"
	"net/url"

	"github.com/bbruceyuan/vmarker/internal/models"
)

// VideoClient implements [VideoService].
type VideoClient struct {
	api *APIService
}

// Upload streams a video to the backend and opens a session.
func (c *VideoClient) Upload(ctx context.Context, file *models.File) (*models.VideoUploadResult, error) {
	var result models.VideoUploadResult
	if err := c.api.postMultipart(ctx, "/video/upload", file, nil, &result); err != nil {
		return nil, fmt.Errorf("failed to upload video: %w", err)
	}
	return &result, nil
}

// ASR transcribes the session's audio.
func (c *VideoClient) ASR(ctx context.Context, sessionID string) (*models.ASRResult, error) {
	var result models.ASRResult
	if err := c.api.postJSON(ctx, "/video/asr/"+url.PathEscape(sessionID), nil, &result); err != nil {
		return nil, fmt.Errorf("failed to transcribe video: %w", err)
	}
	return &result, nil
}

// SRT fetches the stored transcript of a session.
func (c *VideoClient) SRT(ctx context.Context, sessionID string) (*models.SRTResult, error) {
	var result models.SRTResult
	if err := c.api.getJSON(ctx, "/video/srt/"+url.PathEscape(sessionID), false, &result); err != nil {
		return nil, fmt.Errorf("failed to fetch transcript: %w", err)
	}
	return &result, nil
}

// Compose burns an overlay into the session's video and returns the result.
func (c *VideoClient) Compose(ctx context.Context, sessionID string, req models.ComposeRequest) (*models.Blob, error) {
	blob, err := c.api.postBlob(ctx, "/video/compose/"+url.PathEscape(sessionID), req)
	if err != nil {
		return nil, fmt.Errorf("failed to compose %s: %w", req.Feature, err)
	}
	return blob, nil
}

// Cleanup deletes the session and its server-side files.
func (c *VideoClient) Cleanup(ctx context.Context, sessionID string) error {
	if err := c.api.delete(ctx, "/video/"+url.PathEscape(sessionID)); err != nil {
		return fmt.Errorf("failed to clean up session %s: %w", sessionID, err)
	}
	return nil
}
