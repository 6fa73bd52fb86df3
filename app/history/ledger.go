// Package history tracks URLs delivered by previous runs so the same
// item is not delivered twice.
package history

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/harukit/morning-brief/app/news"
)

type ledgerFile struct {
	SeenURLs    []string  `json:"seen_urls"`
	LastUpdated time.Time `json:"last_updated"`
}

// Ledger is the persisted set of delivered URLs. It assumes a single
// writer per run; concurrent runs are not supported.
type Ledger struct {
	path string
	seen map[string]struct{}
}

// Load reads the ledger file. A missing or corrupt file yields an empty
// ledger; loading never fails.
func Load(path string) *Ledger {
	l := &Ledger{
		path: path,
		seen: make(map[string]struct{}),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("Failed to read history ledger, starting empty", "path", path, "error", err)
		}
		return l
	}

	var file ledgerFile
	if err := json.Unmarshal(data, &file); err != nil {
		slog.Warn("Failed to parse history ledger, starting empty", "path", path, "error", err)
		return l
	}

	for _, url := range file.SeenURLs {
		if url != "" {
			l.seen[url] = struct{}{}
		}
	}

	return l
}

func (l *Ledger) Size() int {
	return len(l.seen)
}

func (l *Ledger) Contains(url string) bool {
	_, ok := l.seen[url]
	return ok
}

// FilterUnseen returns candidates whose URL is not in the ledger.
// Candidates with an empty URL are never suppressed; they cannot be
// reliably identified across runs.
func (l *Ledger) FilterUnseen(candidates []news.Candidate) []news.Candidate {
	unseen := make([]news.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.URL != "" && l.Contains(c.URL) {
			continue
		}
		unseen = append(unseen, c)
	}
	return unseen
}

// Commit persists the union of the loaded set and newURLs by writing a
// temp file and renaming it over the ledger. A crash between Load and
// Commit loses only this run's URLs, which may re-deliver items on the
// next run.
func (l *Ledger) Commit(newURLs []string) error {
	for _, url := range newURLs {
		if url != "" {
			l.seen[url] = struct{}{}
		}
	}

	urls := make([]string, 0, len(l.seen))
	for url := range l.seen {
		urls = append(urls, url)
	}
	sort.Strings(urls)

	data, err := json.MarshalIndent(ledgerFile{
		SeenURLs:    urls,
		LastUpdated: time.Now().UTC(),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal history ledger: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return fmt.Errorf("failed to create ledger directory: %w", err)
	}

	tmp := l.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write history ledger: %w", err)
	}

	if err := os.Rename(tmp, l.path); err != nil {
		return fmt.Errorf("failed to replace history ledger: %w", err)
	}

	return nil
}
