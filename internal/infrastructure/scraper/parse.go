package scraper

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Ordered matchers for the link shapes TikTok uses for a single video.
// Tried in sequence; the first capture wins.
var videoIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`tiktok\.com/@[^/]+/video/(\d+)`),
	regexp.MustCompile(`tiktok\.com/(?:v|embed|video)/(\d+)`),
	regexp.MustCompile(`/video/(\d+)`),
}

var shortLinkPattern = regexp.MustCompile(`^https?://(?:vm|vt)\.tiktok\.com/[A-Za-z0-9]+/?`)

var nonDigitPattern = regexp.MustCompile(`\D`)

// ExtractVideoID pulls the numeric video id out of a canonical video URL.
// Returns "" when no pattern matches.
func ExtractVideoID(url string) string {
	for _, pattern := range videoIDPatterns {
		if m := pattern.FindStringSubmatch(url); m != nil {
			return m[1]
		}
	}
	return ""
}

// IsShortLink reports whether the URL is a vm/vt short link. Short links
// carry no video id; it has to be recovered from the canonical URL after
// the redirect.
func IsShortLink(url string) bool {
	return shortLinkPattern.MatchString(url)
}

// ParseViewCount converts a display count like "12.3K", "1.5M" or "42"
// into an absolute number. Unparsable input yields 0, never a placeholder.
func ParseViewCount(text string) int64 {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0
	}

	upper := strings.ToUpper(text)
	suffixes := []struct {
		unit   string
		factor float64
	}{
		{"K", 1e3},
		{"M", 1e6},
		{"B", 1e9},
	}
	for _, s := range suffixes {
		if strings.Contains(upper, s.unit) {
			numText := strings.ReplaceAll(strings.Replace(upper, s.unit, "", 1), ",", "")
			f, err := strconv.ParseFloat(strings.TrimSpace(numText), 64)
			if err != nil {
				return 0
			}
			return int64(math.Round(f * s.factor))
		}
	}

	digits := nonDigitPattern.ReplaceAllString(text, "")
	if digits == "" {
		return 0
	}
	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
