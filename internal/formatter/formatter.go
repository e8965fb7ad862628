// Package formatter renders backend results as text, Markdown, and CSV.
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/bbruceyuan/vmarker/internal/models"
	"github.com/bbruceyuan/vmarker/internal/shared"
)

const (
	summaryHeading = "## 视频摘要"
	outlineHeading = "## 内容大纲"
)

// ShowNotesMarkdown renders a summary and outline as Markdown.
//
// With timestamps each outline line reads "- m:ss title"; without, "- title".
func ShowNotesMarkdown(result *models.ShowNotesResult, withTimestamps bool) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s\n\n%s\n\n%s\n\n", summaryHeading, result.Summary, outlineHeading)
	for _, item := range result.Outline {
		if withTimestamps {
			fmt.Fprintf(&b, "- %s %s\n", shared.FormatTime(item.Timestamp), item.Title)
		} else {
			fmt.Fprintf(&b, "- %s\n", item.Title)
		}
	}

	return b.String()
}

// YouTubeChapters renders chapters in the "0:00 Title" form YouTube reads from descriptions.
func YouTubeChapters(chapters []models.Chapter) string {
	var b strings.Builder
	for _, c := range chapters {
		fmt.Fprintf(&b, "%s %s\n", shared.FormatTime(c.StartTime), c.Title)
	}
	return b.String()
}

// ChaptersTable renders chapters as an aligned plain text table.
func ChaptersTable(chapters []models.Chapter) string {
	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)

	fmt.Fprintln(w, "#\tSTART\tEND\tLENGTH\tTITLE")
	for i, c := range chapters {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
			i+1,
			shared.FormatTime(c.StartTime),
			shared.FormatTime(c.EndTime),
			shared.FormatTime(c.Length()),
			c.Title,
		)
	}
	w.Flush()

	return buf.String()
}

// ChaptersCSV converts chapters to CSV with columns: Index, Title, Start, End.
// Times are written in seconds.
func ChaptersCSV(chapters []models.Chapter) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write([]string{"Index", "Title", "Start", "End"}); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for i, c := range chapters {
		record := []string{
			strconv.Itoa(i + 1),
			c.Title,
			strconv.FormatFloat(c.StartTime, 'f', -1, 64),
			strconv.FormatFloat(c.EndTime, 'f', -1, 64),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ParseChaptersCSV reads the output of [ChaptersCSV] back. Times may be seconds or m:ss.
func ParseChaptersCSV(data []byte) ([]models.Chapter, error) {
	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrInvalidFile, err)
	}
	if len(records) == 0 {
		return nil, shared.ErrNoChapters
	}

	chapters := make([]models.Chapter, 0, len(records)-1)
	for n, rec := range records[1:] {
		if len(rec) < 4 {
			return nil, fmt.Errorf("%w: row %d has %d columns", shared.ErrInvalidFile, n+2, len(rec))
		}
		start, ok := shared.ParseTime(rec[2])
		if !ok {
			return nil, fmt.Errorf("%w: row %d start %q", shared.ErrInvalidFile, n+2, rec[2])
		}
		end, ok := shared.ParseTime(rec[3])
		if !ok {
			return nil, fmt.Errorf("%w: row %d end %q", shared.ErrInvalidFile, n+2, rec[3])
		}
		chapters = append(chapters, models.Chapter{Title: rec[1], StartTime: start, EndTime: end})
	}

	if len(chapters) == 0 {
		return nil, shared.ErrNoChapters
	}
	return chapters, nil
}

// PolishChanges lists changed cues as "[m:ss] original -> polished" lines.
func PolishChanges(result *models.PolishResult, onlyChanged bool) string {
	items := result.Subtitles
	if onlyChanged {
		items = result.Changed()
	}

	var b strings.Builder
	for _, s := range items {
		if s.Changed {
			fmt.Fprintf(&b, "[%s] %s -> %s\n", shared.FormatTime(s.StartTime), s.OriginalText, s.PolishedText)
		} else {
			fmt.Fprintf(&b, "[%s] %s\n", shared.FormatTime(s.StartTime), s.OriginalText)
		}
	}
	return b.String()
}

// PolishedFilename returns "<stem>_polished.srt" for an uploaded subtitle name.
func PolishedFilename(name string) string {
	base := filepath.Base(name)
	return strings.TrimSuffix(base, filepath.Ext(base)) + "_polished.srt"
}
