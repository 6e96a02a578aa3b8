package content

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Source tags the remote or local origin of a DisplayItem.
type Source string

const (
	SourceNASA Source = "NASA"
	SourceISRO Source = "ISRO"
	SourceESA  Source = "ESA"
)

// FilterAll matches every source.
const FilterAll = "all"

var knownSources = []Source{SourceNASA, SourceISRO, SourceESA}

// KnownSources returns the fixed set of source tags in display order.
func KnownSources() []Source {
	return append([]Source(nil), knownSources...)
}

func ParseSource(raw string) (Source, error) {
	trimmed := strings.TrimSpace(raw)
	for _, s := range knownSources {
		if strings.EqualFold(trimmed, string(s)) {
			return s, nil
		}
	}
	return "", fmt.Errorf("unknown source tag: %q", raw)
}

// DisplayItem is the normalized renderable record produced by every adapter.
type DisplayItem struct {
	Title   string
	Source  Source
	Image   string
	Summary string
	Long    string
	Link    string
}

// Body returns the text shown in the detail overlay.
func (i DisplayItem) Body() string {
	if strings.TrimSpace(i.Long) != "" {
		return i.Long
	}
	return i.Summary
}

func (i DisplayItem) HasLink() bool {
	return strings.TrimSpace(i.Link) != ""
}

// Filter is the search state applied to one aggregation pass.
type Filter struct {
	Query  string
	Source string
}

func (f Filter) SourceLabel() string {
	if strings.TrimSpace(f.Source) == "" {
		return FilterAll
	}
	return f.Source
}

func (f Filter) IsZero() bool {
	return strings.TrimSpace(f.Query) == "" && (f.Source == "" || strings.EqualFold(f.Source, FilterAll))
}

// Match reports whether item passes both the text and source predicates.
func (f Filter) Match(item DisplayItem) bool {
	q := strings.ToLower(strings.TrimSpace(f.Query))
	if q != "" {
		if !strings.Contains(strings.ToLower(item.Title), q) && !strings.Contains(strings.ToLower(item.Summary), q) {
			return false
		}
	}
	src := strings.TrimSpace(f.Source)
	if src == "" || strings.EqualFold(src, FilterAll) {
		return true
	}
	return strings.EqualFold(src, string(item.Source))
}

func Apply(items []DisplayItem, f Filter) []DisplayItem {
	out := make([]DisplayItem, 0, len(items))
	for _, item := range items {
		if f.Match(item) {
			out = append(out, item)
		}
	}
	return out
}

// NextSourceFilter cycles all -> each known tag -> all.
func NextSourceFilter(current string) string {
	if current == "" || strings.EqualFold(current, FilterAll) {
		return string(knownSources[0])
	}
	for i, s := range knownSources {
		if strings.EqualFold(current, string(s)) {
			if i == len(knownSources)-1 {
				return FilterAll
			}
			return string(knownSources[i+1])
		}
	}
	return FilterAll
}

// StaticEntries are local cards appended after every remote result.
func StaticEntries() []DisplayItem {
	return []DisplayItem{
		{
			Title:   "ISRO Updates",
			Source:  SourceISRO,
			Image:   "https://www.isro.gov.in/sites/default/files/isro_logo.png",
			Summary: "Official ISRO updates and mission news.",
			Link:    "https://www.isro.gov.in/",
		},
	}
}

// Truncate cuts s to at most n runes without adding a marker.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}

// Excerpt cuts s to n runes and always appends an ellipsis.
func Excerpt(s string, n int) string {
	return Truncate(strings.TrimSpace(s), n) + "..."
}
