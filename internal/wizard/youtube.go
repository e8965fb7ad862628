package wizard

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/bbruceyuan/vmarker/internal/models"
	"github.com/bbruceyuan/vmarker/internal/services"
	"github.com/bbruceyuan/vmarker/internal/shared"
)

var youtubeURL = regexp.MustCompile(`^(https?://)?(www\.)?(youtube\.com/(watch\?v=|shorts/)|youtu\.be/)[\w-]+`)

// ValidateYouTubeURL accepts watch, shorts, and youtu.be links.
func ValidateYouTubeURL(url string) error {
	if !youtubeURL.MatchString(strings.TrimSpace(url)) {
		return fmt.Errorf("%w: %q is not a YouTube video link", shared.ErrInvalidURL, url)
	}
	return nil
}

// YouTubeStatus tracks a from-url request.
type YouTubeStatus string

const (
	YouTubeIdle      YouTubeStatus = "idle"
	YouTubeFetching  YouTubeStatus = "fetching"
	YouTubeAnalyzing YouTubeStatus = "analyzing"
	YouTubeDone      YouTubeStatus = "done"
	YouTubeError     YouTubeStatus = "error"
)

// DefaultAnalyzeAfter is how long a request shows as fetching before it shows as analyzing.
// The backend reports no progress, so the switch is time based.
const DefaultAnalyzeAfter = 2 * time.Second

// YouTube turns a link into chapters.
type YouTube struct {
	svc          services.YouTubeService
	analyzeAfter time.Duration

	mu     sync.Mutex
	status YouTubeStatus
	result *models.YouTubeChaptersResult
	err    error
	run    uint64
}

func NewYouTube(svc services.YouTubeService) *YouTube {
	return &YouTube{svc: svc, analyzeAfter: DefaultAnalyzeAfter, status: YouTubeIdle}
}

// WithAnalyzeAfter overrides [DefaultAnalyzeAfter].
func (y *YouTube) WithAnalyzeAfter(d time.Duration) *YouTube {
	y.analyzeAfter = d
	return y
}

func (y *YouTube) Status() YouTubeStatus {
	y.mu.Lock()
	defer y.mu.Unlock()
	return y.status
}

func (y *YouTube) Err() error {
	y.mu.Lock()
	defer y.mu.Unlock()
	return y.err
}

func (y *YouTube) Result() *models.YouTubeChaptersResult {
	y.mu.Lock()
	defer y.mu.Unlock()
	return y.result
}

// Fetch validates url and requests chapters for it.
func (y *YouTube) Fetch(ctx context.Context, url string) (*models.YouTubeChaptersResult, error) {
	url = strings.TrimSpace(url)
	if err := ValidateYouTubeURL(url); err != nil {
		return nil, err
	}

	y.mu.Lock()
	y.run++
	run := y.run
	y.status = YouTubeFetching
	y.err = nil
	y.result = nil
	y.mu.Unlock()

	timer := time.AfterFunc(y.analyzeAfter, func() {
		y.mu.Lock()
		defer y.mu.Unlock()
		if y.run == run && y.status == YouTubeFetching {
			y.status = YouTubeAnalyzing
		}
	})
	defer timer.Stop()

	result, err := y.svc.FromURL(ctx, url)

	y.mu.Lock()
	defer y.mu.Unlock()
	if y.run != run {
		return result, err
	}
	if err != nil {
		y.status = YouTubeError
		y.err = err
		return nil, err
	}
	y.status = YouTubeDone
	y.result = result
	return result, nil
}

// CopyText is the chapter list in the backend's YouTube description format.
func (y *YouTube) CopyText() string {
	y.mu.Lock()
	defer y.mu.Unlock()
	if y.result == nil {
		return ""
	}
	return y.result.YouTubeFormat
}

// Reset returns to idle. A request still in flight is ignored when it completes.
func (y *YouTube) Reset() {
	y.mu.Lock()
	defer y.mu.Unlock()
	y.run++
	y.status = YouTubeIdle
	y.result = nil
	y.err = nil
}
