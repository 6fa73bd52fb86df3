package curator

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/harukit/morning-brief/app/llm"
	"github.com/harukit/morning-brief/app/news"
)

// stubClient returns a fixed response or error for every call.
type stubClient struct {
	response string
	err      error
	prompts  []string
}

func (c *stubClient) Complete(ctx context.Context, messages []llm.Message) (string, error) {
	for _, m := range messages {
		c.prompts = append(c.prompts, m.Content)
	}
	if c.err != nil {
		return "", c.err
	}
	return c.response, nil
}

func makePool(n int) []news.Candidate {
	pool := make([]news.Candidate, n)
	for i := range pool {
		pool[i] = news.Candidate{
			Title:   fmt.Sprintf("Story %d", i+1),
			URL:     fmt.Sprintf("https://example.com/%d", i+1),
			Summary: fmt.Sprintf("Summary %d", i+1),
			Source:  "Test Feed",
			Score:   (i + 1) * 5,
		}
	}
	return pool
}

func selection(indices ...int) string {
	resp := map[string]interface{}{
		"theme":           "テーマ",
		"morning_comment": "おはようございます",
	}
	var articles []map[string]interface{}
	for rank, idx := range indices {
		articles = append(articles, map[string]interface{}{
			"index":            idx,
			"title_ja":         fmt.Sprintf("記事%d", idx),
			"summary_ja":       "要約",
			"importance_score": 100 - rank,
			"category":         "ai",
		})
	}
	resp["articles"] = articles
	data, _ := json.Marshal(resp)
	return string(data)
}

func TestCurator_NilClientPassesThrough(t *testing.T) {
	c := New(nil, ProfileDaily, 3, 30)
	pool := makePool(5)

	brief := c.Run(context.Background(), pool)

	if len(brief.Articles) != 3 {
		t.Fatalf("Expected 3 articles, got %d", len(brief.Articles))
	}
	// Pass-through keeps pipeline order, not score order
	for i := 0; i < 3; i++ {
		if brief.Articles[i].Title != pool[i].Title {
			t.Errorf("Position %d: expected %q, got %q", i, pool[i].Title, brief.Articles[i].Title)
		}
	}
}

func TestCurator_EmptyInput(t *testing.T) {
	c := New(nil, ProfileDaily, 10, 30)

	brief := c.Run(context.Background(), nil)

	if len(brief.Articles) != 0 {
		t.Errorf("Expected empty brief, got %d articles", len(brief.Articles))
	}
	if brief.GeneratedAt.IsZero() {
		t.Errorf("Empty brief must still carry a generation timestamp")
	}
}

func TestCurator_ValidSelection(t *testing.T) {
	client := &stubClient{response: selection(2, 5, 1)}
	c := New(client, ProfileDaily, 3, 30)
	pool := makePool(10)

	brief := c.Run(context.Background(), pool)

	if brief.Theme != "テーマ" {
		t.Errorf("Expected theme from response, got %q", brief.Theme)
	}
	if len(brief.Articles) != 3 {
		t.Fatalf("Expected 3 articles, got %d", len(brief.Articles))
	}

	// Sorted by importance score desc: index 2 (100), 5 (99), 1 (98)
	wantTitles := []string{"Story 2", "Story 5", "Story 1"}
	for i, want := range wantTitles {
		if brief.Articles[i].Title != want {
			t.Errorf("Position %d: expected %q, got %q", i, want, brief.Articles[i].Title)
		}
	}

	if brief.Articles[0].LocalTitle != "記事2" {
		t.Errorf("Expected local title from response, got %q", brief.Articles[0].LocalTitle)
	}
	if brief.Articles[0].URL != "https://example.com/2" {
		t.Errorf("URL must come from the candidate, got %q", brief.Articles[0].URL)
	}
}

func TestCurator_CodeFencedResponse(t *testing.T) {
	client := &stubClient{response: "```json\n" + selection(1) + "\n```"}
	c := New(client, ProfileDaily, 1, 30)

	brief := c.Run(context.Background(), makePool(3))

	if len(brief.Articles) != 1 || brief.Articles[0].Title != "Story 1" {
		t.Errorf("Code-fenced JSON should parse, got %+v", brief.Articles)
	}
}

func TestCurator_OutOfRangeIndicesDropped(t *testing.T) {
	client := &stubClient{response: selection(1, 99, 0, 2)}
	c := New(client, ProfileDaily, 10, 30)

	brief := c.Run(context.Background(), makePool(5))

	// Invalid indices are dropped; 1 and 2 survive, then supplementation
	// tops back up to 5 from the remaining pool.
	if len(brief.Articles) != 5 {
		t.Fatalf("Expected 5 articles after supplementation, got %d", len(brief.Articles))
	}
	seen := make(map[string]int)
	for _, a := range brief.Articles {
		seen[a.Title]++
	}
	for title, n := range seen {
		if n > 1 {
			t.Errorf("Article %q appears %d times", title, n)
		}
	}
}

func TestCurator_SupplementsShortSelection(t *testing.T) {
	// Model picks 2 of 10; target is 5
	client := &stubClient{response: selection(1, 2)}
	c := New(client, ProfileDaily, 5, 30)
	pool := makePool(10)

	brief := c.Run(context.Background(), pool)

	if len(brief.Articles) != 5 {
		t.Fatalf("Expected exactly 5 articles, got %d", len(brief.Articles))
	}

	// Supplements are the highest-score unselected candidates: 10, 9, 8
	titles := make(map[string]bool)
	for _, a := range brief.Articles {
		titles[a.Title] = true
	}
	for _, want := range []string{"Story 1", "Story 2", "Story 10", "Story 9", "Story 8"} {
		if !titles[want] {
			t.Errorf("Expected %q in supplemented brief", want)
		}
	}
}

func TestCurator_ClientErrorFallsBack(t *testing.T) {
	client := &stubClient{err: fmt.Errorf("upstream unavailable")}
	c := New(client, ProfileDaily, 3, 30)
	pool := makePool(6)

	brief := c.Run(context.Background(), pool)

	if len(brief.Articles) != 3 {
		t.Fatalf("Fallback should produce min(K, n) articles, got %d", len(brief.Articles))
	}
	// Score-sorted truncation: stories 6, 5, 4
	wantTitles := []string{"Story 6", "Story 5", "Story 4"}
	for i, want := range wantTitles {
		if brief.Articles[i].Title != want {
			t.Errorf("Position %d: expected %q, got %q", i, want, brief.Articles[i].Title)
		}
	}
}

func TestCurator_GarbageResponseFallsBack(t *testing.T) {
	client := &stubClient{response: "I could not decide today."}
	c := New(client, ProfileDaily, 2, 30)

	brief := c.Run(context.Background(), makePool(4))

	if len(brief.Articles) != 2 {
		t.Errorf("Unparseable response should fall back, got %d articles", len(brief.Articles))
	}
}

func TestCurator_PoolLimitApplied(t *testing.T) {
	client := &stubClient{err: fmt.Errorf("force fallback")}
	c := New(client, ProfileDaily, 50, 5)
	pool := makePool(20)

	brief := c.Run(context.Background(), pool)

	if len(brief.Articles) != 5 {
		t.Errorf("Only the first poolLimit candidates may be used, got %d articles", len(brief.Articles))
	}
}

func TestStripCodeFences(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"{\"a\":1}", "{\"a\":1}"},
		{"```json\n{\"a\":1}\n```", "{\"a\":1}"},
		{"```\n{\"a\":1}\n```", "{\"a\":1}"},
		{"  ```json\n{\"a\":1}\n```  ", "{\"a\":1}"},
	}

	for _, tc := range cases {
		if got := stripCodeFences(tc.in); got != tc.want {
			t.Errorf("stripCodeFences(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
