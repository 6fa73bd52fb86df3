package news

import (
	"testing"
	"time"
)

func tokyo(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Tokyo")
	if err != nil {
		t.Fatalf("Failed to load timezone: %v", err)
	}
	return loc
}

func candidateAt(title string, published time.Time) Candidate {
	return Candidate{
		Title:       title,
		URL:         "https://example.com/" + title,
		PublishedAt: &published,
	}
}

func TestDailyCutoff_BeforeCutoff(t *testing.T) {
	loc := tokyo(t)
	policy := DailyCutoff{Hour: 7, Location: loc}

	// 06:30 is before the cutoff, so the window is yesterday 07:00 to today 07:00
	now := time.Date(2025, 6, 10, 6, 30, 0, 0, loc)
	start, end := policy.Window(now)

	wantStart := time.Date(2025, 6, 9, 7, 0, 0, 0, loc)
	wantEnd := time.Date(2025, 6, 10, 7, 0, 0, 0, loc)

	if !start.Equal(wantStart) {
		t.Errorf("Expected window start %v, got %v", wantStart, start)
	}
	if !end.Equal(wantEnd) {
		t.Errorf("Expected window end %v, got %v", wantEnd, end)
	}
}

func TestDailyCutoff_AfterCutoff(t *testing.T) {
	loc := tokyo(t)
	policy := DailyCutoff{Hour: 7, Location: loc}

	now := time.Date(2025, 6, 10, 8, 0, 0, 0, loc)
	start, end := policy.Window(now)

	wantStart := time.Date(2025, 6, 10, 7, 0, 0, 0, loc)
	wantEnd := time.Date(2025, 6, 11, 7, 0, 0, 0, loc)

	if !start.Equal(wantStart) {
		t.Errorf("Expected window start %v, got %v", wantStart, start)
	}
	if !end.Equal(wantEnd) {
		t.Errorf("Expected window end %v, got %v", wantEnd, end)
	}
}

func TestFilterByWindow_Boundaries(t *testing.T) {
	loc := tokyo(t)
	policy := DailyCutoff{Hour: 7, Location: loc}
	now := time.Date(2025, 6, 10, 8, 0, 0, 0, loc)

	atStart := time.Date(2025, 6, 10, 7, 0, 0, 0, loc)
	atEnd := time.Date(2025, 6, 11, 7, 0, 0, 0, loc)

	candidates := []Candidate{
		candidateAt("at-start", atStart),
		candidateAt("inside", atStart.Add(time.Hour)),
		candidateAt("at-end", atEnd),
		candidateAt("before", atStart.Add(-time.Second)),
	}

	result := FilterByWindow(candidates, now, policy)

	if len(result) != 2 {
		t.Fatalf("Expected 2 candidates, got %d", len(result))
	}
	if result[0].Title != "at-start" {
		t.Errorf("Window start should be inclusive, got first candidate %q", result[0].Title)
	}
	if result[1].Title != "inside" {
		t.Errorf("Expected 'inside' as second candidate, got %q", result[1].Title)
	}
}

func TestFilterByWindow_NilPublishedExcluded(t *testing.T) {
	loc := tokyo(t)
	now := time.Date(2025, 6, 10, 8, 0, 0, 0, loc)

	candidates := []Candidate{
		{Title: "no-timestamp", URL: "https://example.com/x"},
		candidateAt("dated", now.Add(-time.Hour)),
	}

	result := FilterByWindow(candidates, now, DailyCutoff{Hour: 7, Location: loc})

	if len(result) != 1 {
		t.Fatalf("Expected 1 candidate, got %d", len(result))
	}
	if result[0].Title != "dated" {
		t.Errorf("Candidate without timestamp should be excluded, got %q", result[0].Title)
	}
}

func TestRollingLookback_Window(t *testing.T) {
	policy := RollingLookback{Duration: 48 * time.Hour}
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)

	start, end := policy.Window(now)

	if !start.Equal(now.Add(-48 * time.Hour)) {
		t.Errorf("Expected start 48h before now, got %v", start)
	}
	if !end.Equal(now) {
		t.Errorf("Expected end at now, got %v", end)
	}
}

func TestFilterByKeywords_CaseInsensitive(t *testing.T) {
	candidates := []Candidate{
		{Title: "OpenAI ships new model", Summary: ""},
		{Title: "Local sports roundup", Summary: "weekend scores"},
		{Title: "Quiet day", Summary: "progress in Machine Learning research"},
	}

	result := FilterByKeywords(candidates, []string{"openai", "machine learning"})

	if len(result) != 2 {
		t.Fatalf("Expected 2 candidates, got %d", len(result))
	}
	if result[0].Title != "OpenAI ships new model" || result[1].Title != "Quiet day" {
		t.Errorf("Unexpected keyword matches: %q, %q", result[0].Title, result[1].Title)
	}
}

func TestFilterByKeywords_EmptyKeywordsKeepsAll(t *testing.T) {
	candidates := []Candidate{
		{Title: "one"},
		{Title: "two"},
	}

	result := FilterByKeywords(candidates, nil)

	if len(result) != 2 {
		t.Errorf("Expected all candidates with no keywords, got %d", len(result))
	}
}

func TestDeduplicate_TitleOnly(t *testing.T) {
	candidates := []Candidate{
		{Title: "Big Launch", URL: "https://a.example.com/1"},
		{Title: "  big launch ", URL: "https://b.example.com/2"},
		{Title: "Other Story", URL: "https://a.example.com/1"},
	}

	result := Deduplicate(candidates)

	if len(result) != 2 {
		t.Fatalf("Expected 2 candidates, got %d", len(result))
	}
	if result[0].URL != "https://a.example.com/1" {
		t.Errorf("First occurrence should win, got %q", result[0].URL)
	}
	if result[1].Title != "Other Story" {
		t.Errorf("Same URL with different title must survive, got %q", result[1].Title)
	}
}

func TestBackfill_SkipsDuplicates(t *testing.T) {
	selected := []Candidate{
		{Title: "kept", URL: "https://example.com/kept"},
	}
	pool := []Candidate{
		{Title: "kept", URL: "https://example.com/other"},       // duplicate title
		{Title: "same-url", URL: "https://example.com/kept"},    // duplicate URL
		{Title: "fresh-1", URL: "https://example.com/fresh-1"},
		{Title: "fresh-2", URL: "https://example.com/fresh-2"},
	}

	result := Backfill(selected, pool, 3)

	if len(result) != 3 {
		t.Fatalf("Expected 3 candidates, got %d", len(result))
	}
	if result[1].Title != "fresh-1" || result[2].Title != "fresh-2" {
		t.Errorf("Backfill should skip duplicates, got %q, %q", result[1].Title, result[2].Title)
	}
}

func TestBackfill_NoopWhenEnough(t *testing.T) {
	selected := []Candidate{
		{Title: "a", URL: "https://example.com/a"},
		{Title: "b", URL: "https://example.com/b"},
	}
	pool := []Candidate{
		{Title: "c", URL: "https://example.com/c"},
	}

	result := Backfill(selected, pool, 2)

	if len(result) != 2 {
		t.Errorf("Expected no backfill above the minimum, got %d candidates", len(result))
	}
}

func TestSortByScore_StableDescending(t *testing.T) {
	candidates := []Candidate{
		{Title: "low", Score: 10},
		{Title: "high", Score: 90},
		{Title: "mid-first", Score: 50},
		{Title: "mid-second", Score: 50},
	}

	result := SortByScore(candidates)

	want := []string{"high", "mid-first", "mid-second", "low"}
	for i, title := range want {
		if result[i].Title != title {
			t.Errorf("Position %d: expected %q, got %q", i, title, result[i].Title)
		}
	}

	if candidates[0].Title != "low" {
		t.Errorf("SortByScore must not mutate its input")
	}
}

func TestNormalizeTitle(t *testing.T) {
	if NormalizeTitle("  Hello World  ") != NormalizeTitle("hello world") {
		t.Errorf("Normalization should be case and whitespace insensitive")
	}
}

func TestTruncateSummary(t *testing.T) {
	long := make([]rune, MaxSummaryLen+100)
	for i := range long {
		long[i] = 'あ'
	}

	result := TruncateSummary(string(long))

	if got := len([]rune(result)); got != MaxSummaryLen {
		t.Errorf("Expected %d runes, got %d", MaxSummaryLen, got)
	}
}
