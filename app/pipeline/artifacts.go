package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/harukit/morning-brief/app/news"
)

// WriteArtifacts writes the brief as JSON and rendered markdown into
// outputDir, named by generation date. Files are written to a temp path
// and renamed so readers never see a partial brief.
func WriteArtifacts(outputDir string, brief news.Brief) error {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	stamp := brief.GeneratedAt.Format("20060102")

	jsonData, err := json.MarshalIndent(brief, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal brief: %w", err)
	}
	jsonPath := filepath.Join(outputDir, fmt.Sprintf("morning_brief_%s.json", stamp))
	if err := writeAtomic(jsonPath, jsonData); err != nil {
		return err
	}

	mdPath := filepath.Join(outputDir, fmt.Sprintf("morning_brief_%s.md", stamp))
	if err := writeAtomic(mdPath, []byte(renderMarkdown(brief))); err != nil {
		return err
	}

	return nil
}

func writeAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write '%s': %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to replace '%s': %w", path, err)
	}
	return nil
}

func renderMarkdown(brief news.Brief) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Morning Brief %s\n\n", brief.GeneratedAt.Format("2006-01-02"))
	if brief.Theme != "" {
		fmt.Fprintf(&b, "**%s**\n\n", brief.Theme)
	}
	if brief.Comment != "" {
		fmt.Fprintf(&b, "%s\n\n", brief.Comment)
	}

	if len(brief.Articles) == 0 {
		b.WriteString("No articles made the cut today.\n")
		return b.String()
	}

	for i, a := range brief.Articles {
		title := a.LocalTitle
		if title == "" {
			title = a.Title
		}
		fmt.Fprintf(&b, "## %d. %s\n\n", i+1, title)
		if a.LocalTitle != "" && a.Title != a.LocalTitle {
			fmt.Fprintf(&b, "*%s*\n\n", a.Title)
		}

		fmt.Fprintf(&b, "- Score: %d", a.ImportanceScore)
		if a.Category != "" {
			fmt.Fprintf(&b, " | Category: %s", a.Category)
		}
		fmt.Fprintf(&b, " | Source: %s", a.Source)
		if a.Region != "" {
			fmt.Fprintf(&b, " (%s)", a.Region)
		}
		b.WriteString("\n")
		if a.URL != "" {
			fmt.Fprintf(&b, "- %s\n", a.URL)
		}
		b.WriteString("\n")

		summary := a.LocalSummary
		if summary == "" {
			summary = a.Summary
		}
		if summary != "" {
			fmt.Fprintf(&b, "%s\n\n", summary)
		}
		if a.WhyImportant != "" {
			fmt.Fprintf(&b, "**Why it matters:** %s\n\n", a.WhyImportant)
		}
		if a.ActionItem != "" {
			fmt.Fprintf(&b, "**Action:** %s\n\n", a.ActionItem)
		}
	}

	return b.String()
}
