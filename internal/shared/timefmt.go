package shared

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	secondsPattern = regexp.MustCompile(`^\d+(\.\d+)?$`)
	minutesPattern = regexp.MustCompile(`^(\d+):(\d+)$`)
)

// ParseTime parses a user-entered time as plain seconds ("90", "12.5") or minutes:seconds ("1:30").
//
// The second return value is false for anything else.
func ParseTime(s string) (float64, bool) {
	s = strings.TrimSpace(s)

	if secondsPattern.MatchString(s) {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		return v, true
	}

	if m := minutesPattern.FindStringSubmatch(s); m != nil {
		mins, err := strconv.Atoi(m[1])
		if err != nil {
			return 0, false
		}
		secs, err := strconv.Atoi(m[2])
		if err != nil {
			return 0, false
		}
		return float64(mins)*60 + float64(secs), true
	}

	return 0, false
}

// FormatTime renders seconds as m:ss, truncating fractional seconds.
func FormatTime(seconds float64) string {
	if seconds < 0 || math.IsNaN(seconds) {
		seconds = 0
	}
	total := int(math.Floor(seconds))
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}
