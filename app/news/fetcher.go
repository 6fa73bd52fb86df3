package news

import (
	"bytes"
	"cmp"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/harukit/morning-brief/app/sources"
)

// MaxSummaryLen bounds the summary carried into downstream processing.
const MaxSummaryLen = 500

// Fetcher retrieves one feed at a time and normalizes its entries into
// Candidates. A failing source returns an error to the caller; it never
// affects other sources.
type Fetcher struct {
	httpClient   *http.Client
	gofeedParser *gofeed.Parser
	userAgent    string
	timeout      time.Duration
}

func NewFetcher(httpClient *http.Client, userAgent string, timeout time.Duration) *Fetcher {
	return &Fetcher{
		httpClient:   httpClient,
		gofeedParser: gofeed.NewParser(),
		userAgent:    userAgent,
		timeout:      timeout,
	}
}

func (f *Fetcher) FetchSource(ctx context.Context, src sources.Source) ([]Candidate, error) {
	data, err := f.fetchFeed(ctx, src.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}

	feed, err := f.gofeedParser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	candidates := make([]Candidate, 0, len(feed.Items))
	for _, item := range feed.Items {
		candidates = append(candidates, f.normalizeItem(item, src))
	}

	return candidates, nil
}

func (f *Fetcher) fetchFeed(ctx context.Context, url string) ([]byte, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return data, nil
}

func (f *Fetcher) normalizeItem(item *gofeed.Item, src sources.Source) Candidate {
	candidate := Candidate{
		Title:   cmp.Or(item.Title, "No Title"),
		URL:     item.Link,
		Summary: TruncateSummary(cmp.Or(item.Description, item.Content)),
		Source:  src.Name,
		Region:  src.Region,
	}

	// published falls back to updated; items without either stay nil
	// and are dropped by the time filter.
	if item.PublishedParsed != nil {
		candidate.PublishedAt = item.PublishedParsed
	} else if item.UpdatedParsed != nil {
		candidate.PublishedAt = item.UpdatedParsed
	}

	return candidate
}

// TruncateSummary trims a summary to MaxSummaryLen runes.
func TruncateSummary(s string) string {
	s = strings.TrimSpace(s)
	runes := []rune(s)
	if len(runes) <= MaxSummaryLen {
		return s
	}
	return string(runes[:MaxSummaryLen])
}
