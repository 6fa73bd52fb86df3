package curator

import (
	"fmt"
	"strings"
	"time"

	"github.com/harukit/morning-brief/app/news"
)

// Curation profiles. "daily" is the commuter-facing default; "editorial"
// asks for a longer analytical selection.
const (
	ProfileDaily     = "daily"
	ProfileEditorial = "editorial"
)

func systemPrompt(profile string) string {
	switch profile {
	case ProfileEditorial:
		return "You are a senior technology editor. Select the stories with " +
			"the most lasting significance, weigh primary sources over " +
			"commentary, and explain structural implications. " +
			"Respond with JSON only, no code fences."
	default:
		return "You are a morning news curator for busy engineers in Japan. " +
			"Select the most important stories for a quick commute read. " +
			"Respond with JSON only, no code fences."
	}
}

// buildPrompt lists the candidates with 1-based indices and pins the
// response schema. The model refers to candidates by index only, so a
// hallucinated title cannot smuggle in an article we never fetched.
func buildPrompt(pool []news.Candidate, topCount int) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Select the top %d articles from the %d candidates below.\n\n", topCount, len(pool))

	for i, cand := range pool {
		fmt.Fprintf(&b, "[%d] %s\n", i+1, cand.Title)
		fmt.Fprintf(&b, "    source: %s", cand.Source)
		if cand.Region != "" {
			fmt.Fprintf(&b, " (%s)", cand.Region)
		}
		b.WriteString("\n")
		if cand.PublishedAt != nil {
			fmt.Fprintf(&b, "    published: %s\n", cand.PublishedAt.Format(time.RFC3339))
		}
		if cand.Summary != "" {
			fmt.Fprintf(&b, "    summary: %s\n", cand.Summary)
		}
		b.WriteString("\n")
	}

	b.WriteString(`Respond with exactly this JSON structure:
{
  "theme": "one-line theme of the day in Japanese",
  "morning_comment": "2-3 sentence morning greeting in Japanese referencing the theme",
  "articles": [
    {
      "index": 1,
      "title_ja": "Japanese translation of the title",
      "summary_ja": "2-3 sentence Japanese summary",
      "importance_score": 85,
      "category": "one of: ai, business, engineering, security, science, general",
      "one_liner": "one punchy Japanese sentence",
      "why_important": "why this matters, in Japanese",
      "action_item": "optional concrete follow-up, in Japanese"
    }
  ]
}

"index" must be one of the bracketed candidate numbers above.
"importance_score" is 0-100. Order articles by importance descending.`)

	return b.String()
}
