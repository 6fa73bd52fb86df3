package news

import (
	"sort"
	"strings"
	"time"

	"golang.org/x/text/cases"
)

// WindowPolicy determines the retention window for the time filter.
type WindowPolicy interface {
	Window(now time.Time) (start, end time.Time)
}

// DailyCutoff snaps the window to a fixed hour of day in a fixed
// timezone. Runs before the cutoff use [yesterday's cutoff, today's);
// runs at or after it use [today's cutoff, tomorrow's).
type DailyCutoff struct {
	Hour     int
	Location *time.Location
}

func (p DailyCutoff) Window(now time.Time) (time.Time, time.Time) {
	local := now.In(p.Location)
	cutoff := time.Date(local.Year(), local.Month(), local.Day(), p.Hour, 0, 0, 0, p.Location)

	if local.Before(cutoff) {
		return cutoff.AddDate(0, 0, -1), cutoff
	}
	return cutoff, cutoff.AddDate(0, 0, 1)
}

// RollingLookback keeps the last Duration before now.
type RollingLookback struct {
	Duration time.Duration
}

func (p RollingLookback) Window(now time.Time) (time.Time, time.Time) {
	return now.Add(-p.Duration), now
}

// FilterByWindow retains candidates published inside [start, end).
// Candidates without a publish timestamp are always excluded.
func FilterByWindow(candidates []Candidate, now time.Time, policy WindowPolicy) []Candidate {
	start, end := policy.Window(now)

	filtered := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.PublishedAt == nil {
			continue
		}
		t := *c.PublishedAt
		if !t.Before(start) && t.Before(end) {
			filtered = append(filtered, c)
		}
	}
	return filtered
}

// FilterByKeywords retains candidates whose title or summary contains at
// least one keyword, case-insensitive.
func FilterByKeywords(candidates []Candidate, keywords []string) []Candidate {
	if len(keywords) == 0 {
		return candidates
	}

	lowered := make([]string, len(keywords))
	for i, kw := range keywords {
		lowered[i] = strings.ToLower(kw)
	}

	filtered := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		text := strings.ToLower(c.Title + " " + c.Summary)
		for _, kw := range lowered {
			if strings.Contains(text, kw) {
				filtered = append(filtered, c)
				break
			}
		}
	}
	return filtered
}

// NormalizeTitle case-folds and trims a title for duplicate detection.
func NormalizeTitle(title string) string {
	return cases.Fold().String(strings.TrimSpace(title))
}

// Deduplicate keeps the first candidate for each normalized title,
// preserving input order. Titles only; URLs are deliberately ignored.
func Deduplicate(candidates []Candidate) []Candidate {
	seen := make(map[string]struct{}, len(candidates))
	unique := make([]Candidate, 0, len(candidates))

	for _, c := range candidates {
		key := NormalizeTitle(c.Title)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, c)
	}
	return unique
}

// Backfill appends candidates from pool to selected until min is reached
// or the pool is exhausted, skipping URLs and normalized titles already
// present. Used when the keyword filter leaves too few candidates.
func Backfill(selected, pool []Candidate, min int) []Candidate {
	if len(selected) >= min {
		return selected
	}

	urls := make(map[string]struct{}, len(selected))
	titles := make(map[string]struct{}, len(selected))
	for _, c := range selected {
		if c.URL != "" {
			urls[c.URL] = struct{}{}
		}
		titles[NormalizeTitle(c.Title)] = struct{}{}
	}

	for _, c := range pool {
		if len(selected) >= min {
			break
		}
		if c.URL != "" {
			if _, ok := urls[c.URL]; ok {
				continue
			}
		}
		key := NormalizeTitle(c.Title)
		if _, ok := titles[key]; ok {
			continue
		}
		urls[c.URL] = struct{}{}
		titles[key] = struct{}{}
		selected = append(selected, c)
	}
	return selected
}

// SortByScore orders candidates by Score descending, stable on ties.
func SortByScore(candidates []Candidate) []Candidate {
	sorted := make([]Candidate, len(candidates))
	copy(sorted, candidates)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Score > sorted[j].Score
	})
	return sorted
}
