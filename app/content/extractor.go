// Package content fills in missing candidate summaries by extracting
// readable text from the article page itself. Some feeds ship bare
// links with no description; the curator scores those poorly unless we
// give it something to read.
package content

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"

	"github.com/harukit/morning-brief/app/news"
)

type Extractor struct {
	httpClient *http.Client
	userAgent  string
	timeout    time.Duration
}

func NewExtractor(httpClient *http.Client, userAgent string, timeout time.Duration) *Extractor {
	return &Extractor{
		httpClient: httpClient,
		userAgent:  userAgent,
		timeout:    timeout,
	}
}

// BackfillSummaries extracts page text for candidates whose summary is
// empty, up to maxFetches pages. Extraction failures are logged and
// skipped; the candidate keeps its empty summary.
func (e *Extractor) BackfillSummaries(ctx context.Context, candidates []news.Candidate, maxFetches int) []news.Candidate {
	fetched := 0

	for i := range candidates {
		if fetched >= maxFetches {
			break
		}
		if strings.TrimSpace(candidates[i].Summary) != "" || candidates[i].URL == "" {
			continue
		}

		fetched++
		summary, err := e.extract(ctx, candidates[i].URL)
		if err != nil {
			slog.Debug("Summary extraction failed", "url", candidates[i].URL, "error", err)
			continue
		}

		candidates[i].Summary = news.TruncateSummary(summary)
	}

	return candidates
}

func (e *Extractor) extract(ctx context.Context, pageURL string) (string, error) {
	parsedURL, err := url.Parse(pageURL)
	if err != nil {
		return "", fmt.Errorf("failed to parse url: %w", err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, "GET", pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", e.userAgent)

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("page returned status %d", resp.StatusCode)
	}

	article, err := readability.FromReader(resp.Body, parsedURL)
	if err != nil {
		return "", fmt.Errorf("failed to extract content: %w", err)
	}

	text := strings.TrimSpace(article.TextContent)
	if text == "" {
		text = strings.TrimSpace(article.Excerpt)
	}
	if text == "" {
		return "", fmt.Errorf("no readable content")
	}

	return strings.Join(strings.Fields(text), " "), nil
}
