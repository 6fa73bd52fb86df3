// Package curator selects and enriches the day's top articles with an
// LLM. Every degradation path still yields a usable brief: no
// credential means pass-through, a broken model response means
// score-sorted fallback.
package curator

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/harukit/morning-brief/app/llm"
	"github.com/harukit/morning-brief/app/news"
)

type Curator struct {
	client    llm.Client
	profile   string
	topCount  int
	poolLimit int
	now       func() time.Time
}

// New builds a curator. A nil client is valid and selects the
// pass-through path.
func New(client llm.Client, profile string, topCount, poolLimit int) *Curator {
	return &Curator{
		client:    client,
		profile:   profile,
		topCount:  topCount,
		poolLimit: poolLimit,
		now:       time.Now,
	}
}

// curatorResponse is the JSON shape the model is instructed to return.
// Indices are 1-based positions into the prompt's candidate list.
type curatorResponse struct {
	Theme          string `json:"theme"`
	MorningComment string `json:"morning_comment"`
	Articles       []struct {
		Index           int    `json:"index"`
		TitleJa         string `json:"title_ja"`
		SummaryJa       string `json:"summary_ja"`
		ImportanceScore int    `json:"importance_score"`
		Category        string `json:"category"`
		OneLiner        string `json:"one_liner"`
		WhyImportant    string `json:"why_important"`
		ActionItem      string `json:"action_item"`
	} `json:"articles"`
}

// Run curates candidates into a brief. The input order is the prior
// stages' order; only the first poolLimit candidates are offered to the
// model.
func (c *Curator) Run(ctx context.Context, candidates []news.Candidate) news.Brief {
	if len(candidates) == 0 {
		return news.Brief{GeneratedAt: c.now()}
	}

	pool := candidates
	if len(pool) > c.poolLimit {
		pool = pool[:c.poolLimit]
	}

	if c.client == nil {
		slog.Info("No curator credential configured, passing candidates through")
		return c.passThrough(pool)
	}

	brief, err := c.curate(ctx, pool)
	if err != nil {
		slog.Warn("Curation failed, falling back to score order", "error", err)
		return c.fallback(pool)
	}

	return brief
}

func (c *Curator) curate(ctx context.Context, pool []news.Candidate) (news.Brief, error) {
	content, err := c.client.Complete(ctx, []llm.Message{
		{Role: "system", Content: systemPrompt(c.profile)},
		{Role: "user", Content: buildPrompt(pool, c.topCount)},
	})
	if err != nil {
		return news.Brief{}, fmt.Errorf("curation request failed: %w", err)
	}

	var parsed curatorResponse
	if err := json.Unmarshal([]byte(stripCodeFences(content)), &parsed); err != nil {
		return news.Brief{}, fmt.Errorf("failed to parse curator response: %w", err)
	}

	if len(parsed.Articles) == 0 {
		return news.Brief{}, fmt.Errorf("curator selected no articles")
	}

	brief := news.Brief{
		Theme:       parsed.Theme,
		Comment:     parsed.MorningComment,
		GeneratedAt: c.now(),
	}

	used := make(map[int]struct{}, len(parsed.Articles))
	for _, sel := range parsed.Articles {
		idx := sel.Index - 1
		if idx < 0 || idx >= len(pool) {
			slog.Warn("Curator returned out-of-range index", "index", sel.Index, "pool", len(pool))
			continue
		}
		if _, ok := used[idx]; ok {
			continue
		}
		used[idx] = struct{}{}

		cand := pool[idx]
		brief.Articles = append(brief.Articles, news.Article{
			Title:           cand.Title,
			LocalTitle:      sel.TitleJa,
			Summary:         cand.Summary,
			LocalSummary:    sel.SummaryJa,
			URL:             cand.URL,
			Source:          cand.Source,
			Region:          cand.Region,
			ImportanceScore: sel.ImportanceScore,
			Category:        sel.Category,
			PublishedAt:     cand.PublishedAt,
			OneLiner:        sel.OneLiner,
			WhyImportant:    sel.WhyImportant,
			ActionItem:      sel.ActionItem,
		})
		if len(brief.Articles) >= c.topCount {
			break
		}
	}

	if len(brief.Articles) == 0 {
		return news.Brief{}, fmt.Errorf("no valid article indices in curator response")
	}

	c.supplement(&brief, pool, used)

	sort.SliceStable(brief.Articles, func(i, j int) bool {
		return brief.Articles[i].ImportanceScore > brief.Articles[j].ImportanceScore
	})

	return brief, nil
}

// supplement tops the brief back up to topCount from unselected pool
// candidates, highest prior score first.
func (c *Curator) supplement(brief *news.Brief, pool []news.Candidate, used map[int]struct{}) {
	if len(brief.Articles) >= c.topCount {
		return
	}

	var rest []news.Candidate
	for i, cand := range pool {
		if _, ok := used[i]; ok {
			continue
		}
		rest = append(rest, cand)
	}
	rest = news.SortByScore(rest)

	for _, cand := range rest {
		if len(brief.Articles) >= c.topCount {
			break
		}
		brief.Articles = append(brief.Articles, articleFromCandidate(cand))
	}

	slog.Info("Supplemented curated brief", "articles", len(brief.Articles), "target", c.topCount)
}

// fallback produces a brief without any model involvement, keeping the
// prior-stage score order.
func (c *Curator) fallback(pool []news.Candidate) news.Brief {
	sorted := news.SortByScore(pool)
	if len(sorted) > c.topCount {
		sorted = sorted[:c.topCount]
	}

	brief := news.Brief{
		Theme:       "Morning Brief",
		Comment:     "Automated selection; curation was unavailable this run.",
		GeneratedAt: c.now(),
	}
	for _, cand := range sorted {
		brief.Articles = append(brief.Articles, articleFromCandidate(cand))
	}
	return brief
}

// passThrough takes the first topCount candidates unchanged.
func (c *Curator) passThrough(pool []news.Candidate) news.Brief {
	if len(pool) > c.topCount {
		pool = pool[:c.topCount]
	}

	brief := news.Brief{
		Theme:       "Morning Brief",
		Comment:     "Uncurated selection.",
		GeneratedAt: c.now(),
	}
	for _, cand := range pool {
		brief.Articles = append(brief.Articles, articleFromCandidate(cand))
	}
	return brief
}

func articleFromCandidate(cand news.Candidate) news.Article {
	return news.Article{
		Title:           cand.Title,
		Summary:         cand.Summary,
		URL:             cand.URL,
		Source:          cand.Source,
		Region:          cand.Region,
		ImportanceScore: cand.Score,
		Category:        "general",
		PublishedAt:     cand.PublishedAt,
	}
}

// stripCodeFences removes a surrounding markdown code fence, with or
// without a language tag. Models wrap JSON in ```json blocks even when
// told not to.
func stripCodeFences(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}

	trimmed = strings.TrimPrefix(trimmed, "```")
	if idx := strings.Index(trimmed, "\n"); idx >= 0 {
		trimmed = trimmed[idx+1:]
	}
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")

	return strings.TrimSpace(trimmed)
}
