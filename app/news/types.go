package news

import (
	"time"
)

// Candidate is one discovered news item, normalized from any source.
type Candidate struct {
	Title       string     `json:"title"`
	URL         string     `json:"url"`
	Summary     string     `json:"summary"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	Source      string     `json:"source"`
	Region      string     `json:"region"`

	// Score is the prior-stage importance signal used for fallback
	// ordering and supplementation.
	Score int `json:"importance_score,omitempty"`
}

// Article is a curated candidate with enrichment from the curator.
type Article struct {
	Title           string     `json:"title"`
	LocalTitle      string     `json:"local_title"`
	Summary         string     `json:"summary"`
	LocalSummary    string     `json:"local_summary"`
	URL             string     `json:"url"`
	Source          string     `json:"source"`
	Region          string     `json:"region"`
	ImportanceScore int        `json:"importance_score"`
	Category        string     `json:"category"`
	PublishedAt     *time.Time `json:"published_at,omitempty"`

	// Optional curator commentary
	OneLiner     string `json:"one_liner,omitempty"`
	WhyImportant string `json:"why_important,omitempty"`
	ActionItem   string `json:"action_item,omitempty"`
}

// Brief is the output artifact consumed by all downstream renderers.
// Articles are sorted by ImportanceScore descending, stable on ties.
type Brief struct {
	Theme       string    `json:"theme"`
	Comment     string    `json:"morning_comment"`
	GeneratedAt time.Time `json:"generated_at"`
	Articles    []Article `json:"articles"`
}

// URLs returns the non-empty article URLs of the brief, in order.
func (b Brief) URLs() []string {
	urls := make([]string, 0, len(b.Articles))
	for _, a := range b.Articles {
		if a.URL != "" {
			urls = append(urls, a.URL)
		}
	}
	return urls
}
