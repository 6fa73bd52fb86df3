package content

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/harukit/morning-brief/app/news"
)

const samplePage = `<!DOCTYPE html>
<html>
<head><title>Test Article</title></head>
<body>
<article>
<h1>Test Article</h1>
<p>This is the first paragraph of the article body with enough text to be
considered readable content by the extractor.</p>
<p>This is the second paragraph, adding more substance so the readability
heuristics keep the article body.</p>
</article>
</body>
</html>`

func TestExtractor_BackfillSummaries(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(samplePage))
	}))
	defer server.Close()

	e := NewExtractor(server.Client(), "Test Agent/1.0", 5*time.Second)

	candidates := []news.Candidate{
		{Title: "no summary", URL: server.URL + "/article"},
		{Title: "has summary", URL: server.URL + "/other", Summary: "already set"},
	}

	result := e.BackfillSummaries(context.Background(), candidates, 5)

	if result[0].Summary == "" {
		t.Errorf("Expected extracted summary for candidate without one")
	}
	if !strings.Contains(result[0].Summary, "first paragraph") {
		t.Errorf("Summary should contain article text, got %q", result[0].Summary)
	}
	if result[1].Summary != "already set" {
		t.Errorf("Existing summary must not be overwritten, got %q", result[1].Summary)
	}
}

func TestExtractor_RespectsFetchLimit(t *testing.T) {
	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.Write([]byte(samplePage))
	}))
	defer server.Close()

	e := NewExtractor(server.Client(), "Test Agent/1.0", 5*time.Second)

	candidates := []news.Candidate{
		{Title: "a", URL: server.URL + "/a"},
		{Title: "b", URL: server.URL + "/b"},
		{Title: "c", URL: server.URL + "/c"},
	}

	e.BackfillSummaries(context.Background(), candidates, 2)

	if requests != 2 {
		t.Errorf("Expected 2 page fetches, got %d", requests)
	}
}

func TestExtractor_FailureKeepsCandidate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	e := NewExtractor(server.Client(), "Test Agent/1.0", 5*time.Second)

	candidates := []news.Candidate{
		{Title: "gone", URL: server.URL + "/gone"},
	}

	result := e.BackfillSummaries(context.Background(), candidates, 5)

	if len(result) != 1 {
		t.Fatalf("Candidate must survive extraction failure")
	}
	if result[0].Summary != "" {
		t.Errorf("Failed extraction should leave summary empty, got %q", result[0].Summary)
	}
}
