package crawler

import (
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/araddon/dateparse"
)

// summaryLimit is the maximum length of an item summary in runes.
const summaryLimit = 500

// CleanHTML extracts the rendered text from an HTML fragment: script and
// style contents are dropped and runs of whitespace collapse to single
// spaces.
func CleanHTML(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return strings.Join(strings.Fields(html), " ")
	}
	doc.Find("script, style").Remove()
	return strings.Join(strings.Fields(doc.Text()), " ")
}

// ParseTime parses a date string in any of the common feed formats into a
// UTC instant. UTC is assumed when the string carries no zone. Returns
// ok=false on malformed input; callers substitute the current time.
func ParseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return t.UTC(), true
}

// Truncate cuts text to at most max runes, backing off to the last space so
// words are never split, and appends an ellipsis. Text within the limit is
// returned unchanged.
func Truncate(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	cut := string(runes[:max])
	if i := strings.LastIndex(cut, " "); i > 0 {
		cut = cut[:i]
	}
	return cut + "…"
}
