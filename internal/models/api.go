package models

import "time"

// Chapter is a titled time interval within a media duration, in seconds.
type Chapter struct {
	Title     string  `json:"title"`
	StartTime float64 `json:"start_time"`
	EndTime   float64 `json:"end_time"`
}

// Length returns the chapter's duration in seconds.
func (c Chapter) Length() float64 { return c.EndTime - c.StartTime }

// ChapterList is returned by chapter extraction.
type ChapterList struct {
	Chapters []Chapter `json:"chapters"`
	Duration float64   `json:"duration"`
}

// ValidationIssue is a server-reported problem with a chapter list.
//
// Codes are defined server-side; only Blocking is interpreted by the client.
type ValidationIssue struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	Blocking     bool   `json:"blocking"`
	ChapterIndex *int   `json:"chapter_index,omitempty"`
}

// ChapterValidationResult carries the verdict and the server-normalized chapters.
type ChapterValidationResult struct {
	Valid    bool              `json:"valid"`
	Issues   []ValidationIssue `json:"issues"`
	Chapters []Chapter         `json:"chapters"`
}

// HasBlocking reports whether any issue blocks progression.
func (r ChapterValidationResult) HasBlocking() bool {
	for _, issue := range r.Issues {
		if issue.Blocking {
			return true
		}
	}
	return false
}

// Theme is a named chapter bar color scheme.
type Theme struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	PlayedBg    string `json:"played_bg"`
	UnplayedBg  string `json:"unplayed_bg"`
}

// CustomColors replaces a theme's colors.
type CustomColors struct {
	PlayedBg   string `json:"played_bg"`
	UnplayedBg string `json:"unplayed_bg"`
}

// VideoConfig holds overlay dimensions in pixels.
type VideoConfig struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// ParseResult summarizes an uploaded SRT file.
type ParseResult struct {
	SubtitleCount int     `json:"subtitle_count"`
	Duration      float64 `json:"duration"`
}

// ChapterBarRequest is the body of a chapter bar generation.
type ChapterBarRequest struct {
	Chapters     []Chapter     `json:"chapters"`
	Duration     float64       `json:"duration"`
	Width        int           `json:"width"`
	Height       int           `json:"height"`
	Theme        string        `json:"theme"`
	Format       VideoFormat   `json:"format"`
	CustomColors *CustomColors `json:"custom_colors,omitempty"`
}

// OutlineItem is one show-notes outline entry.
type OutlineItem struct {
	Timestamp float64 `json:"timestamp"`
	Title     string  `json:"title"`
}

// ShowNotesResult is the AI generated summary and outline.
type ShowNotesResult struct {
	Summary string        `json:"summary"`
	Outline []OutlineItem `json:"outline"`
}

// PolishedSubtitleItem is one subtitle cue before and after polishing.
type PolishedSubtitleItem struct {
	Index        int     `json:"index"`
	StartTime    float64 `json:"start_time"`
	EndTime      float64 `json:"end_time"`
	OriginalText string  `json:"original_text"`
	PolishedText string  `json:"polished_text"`
	Changed      bool    `json:"changed"`
}

// PolishResult is the outcome of subtitle polishing.
type PolishResult struct {
	Subtitles    []PolishedSubtitleItem `json:"subtitles"`
	ChangesCount int                    `json:"changes_count"`
	SRTContent   string                 `json:"srt_content"`
}

// Changed returns only the cues the polish modified.
func (r PolishResult) Changed() []PolishedSubtitleItem {
	var out []PolishedSubtitleItem
	for _, s := range r.Subtitles {
		if s.Changed {
			out = append(out, s)
		}
	}
	return out
}

// ProgressBarColor is a preset progress bar palette.
type ProgressBarColor struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Played      string `json:"played"`
	Unplayed    string `json:"unplayed"`
}

// ProgressBarConfig is the body of a progress bar generation.
type ProgressBarConfig struct {
	Duration      float64     `json:"duration"`
	Width         int         `json:"width"`
	Height        int         `json:"height"`
	PlayedColor   string      `json:"played_color"`
	UnplayedColor string      `json:"unplayed_color"`
	Format        VideoFormat `json:"format"`
}

// VideoUploadResult describes a newly created server-side video session.
type VideoUploadResult struct {
	SessionID  string  `json:"session_id"`
	Duration   float64 `json:"duration"`
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	FPS        float64 `json:"fps"`
	FileSizeMB float64 `json:"file_size_mb"`
}

// ASRResult is a speech recognition transcript for a video session.
type ASRResult struct {
	SessionID     string  `json:"session_id"`
	SubtitleCount int     `json:"subtitle_count"`
	Duration      float64 `json:"duration"`
	SRTContent    string  `json:"srt_content"`
}

// SRTResult wraps the stored transcript of a session.
type SRTResult struct {
	SRTContent string `json:"srt_content"`
}

// ComposeRequest burns an overlay into a session's video.
type ComposeRequest struct {
	Feature  Feature  `json:"feature"`
	Position Position `json:"position"`

	Chapters  []Chapter `json:"chapters,omitempty"`
	Theme     string    `json:"theme,omitempty"`
	BarWidth  int       `json:"bar_width,omitempty"`
	BarHeight int       `json:"bar_height,omitempty"`

	PlayedColor    string `json:"played_color,omitempty"`
	UnplayedColor  string `json:"unplayed_color,omitempty"`
	ProgressHeight int    `json:"progress_height,omitempty"`
}

// YouTubeChaptersResult is generated from a YouTube link.
type YouTubeChaptersResult struct {
	VideoTitle    string    `json:"video_title"`
	Duration      float64   `json:"duration"`
	Chapters      []Chapter `json:"chapters"`
	YouTubeFormat string    `json:"youtube_format"`
}

// AuthUser is the backend's view of the signed-in user.
type AuthUser struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
	Role  string `json:"role"`
	Aud   string `json:"aud"`
}

// AuthCheckResponse reports whether the request carried a valid session.
type AuthCheckResponse struct {
	Authenticated bool      `json:"authenticated"`
	User          *AuthUser `json:"user,omitempty"`
}

// Blob is an opaque binary payload returned by the backend.
type Blob struct {
	Data        []byte
	ContentType string
}

// Size returns the payload length in bytes.
func (b *Blob) Size() int64 {
	if b == nil {
		return 0
	}
	return int64(len(b.Data))
}

// Output is a named result ready to be saved.
type Output struct {
	Feature     Feature
	Filename    string
	ContentType string
	Data        []byte
	CreatedAt   time.Time
}
