// Package archive keeps produced briefs and run summaries in a local
// SQLite database. The delivered-URL lookback over prior briefs guards
// against a reset or partially written history ledger.
package archive

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/harukit/morning-brief/app/news"
)

// RunSummary is one pipeline run's stage counters.
type RunSummary struct {
	Mode              string    `json:"mode"`
	StartedAt         time.Time `json:"started_at"`
	Fetched           int       `json:"fetched"`
	TimeFiltered      int       `json:"time_filtered"`
	KeywordMatched    int       `json:"keyword_matched"`
	Deduplicated      int       `json:"deduplicated"`
	HistorySuppressed int       `json:"history_suppressed"`
	Curated           int       `json:"curated"`
	Output            int       `json:"output"`
	Aborted           bool      `json:"aborted"`
}

type Archive struct {
	db *sql.DB
}

func Open(path string) (*Archive, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}

	// modernc sqlite misbehaves with concurrent writers on one file
	db.SetMaxOpenConns(1)

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Archive{db: db}, nil
}

func (a *Archive) Close() error {
	return a.db.Close()
}

// StoreBrief records the brief and its article URLs for lookback.
func (a *Archive) StoreBrief(brief news.Brief) error {
	payload, err := json.Marshal(brief)
	if err != nil {
		return fmt.Errorf("failed to marshal brief: %w", err)
	}

	tx, err := a.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec(`
		INSERT INTO briefs (theme, comment, generated_at, payload)
		VALUES (?, ?, ?, ?)
	`, brief.Theme, brief.Comment, brief.GeneratedAt.UTC().Format(time.RFC3339), string(payload))
	if err != nil {
		return fmt.Errorf("failed to insert brief: %w", err)
	}

	briefID, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get brief id: %w", err)
	}

	for _, article := range brief.Articles {
		if article.URL == "" {
			continue
		}
		_, err := tx.Exec(`
			INSERT INTO brief_articles (brief_id, url, title, importance_score)
			VALUES (?, ?, ?, ?)
		`, briefID, article.URL, article.Title, article.ImportanceScore)
		if err != nil {
			return fmt.Errorf("failed to insert brief article: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit brief: %w", err)
	}

	return nil
}

// DeliveredURLs returns every URL that appeared in a brief generated
// within the last N days.
func (a *Archive) DeliveredURLs(days int) (map[string]struct{}, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -days).Format(time.RFC3339)

	rows, err := a.db.Query(`
		SELECT ba.url
		FROM brief_articles ba
		JOIN briefs b ON b.id = ba.brief_id
		WHERE b.generated_at >= ?
	`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to query delivered urls: %w", err)
	}
	defer rows.Close()

	delivered := make(map[string]struct{})
	for rows.Next() {
		var url string
		if err := rows.Scan(&url); err != nil {
			return nil, fmt.Errorf("failed to scan delivered url: %w", err)
		}
		delivered[url] = struct{}{}
	}

	return delivered, rows.Err()
}

// LatestBrief returns the most recently generated brief, or nil if the
// archive is empty.
func (a *Archive) LatestBrief() (*news.Brief, error) {
	var payload string
	err := a.db.QueryRow(`
		SELECT payload FROM briefs ORDER BY generated_at DESC, id DESC LIMIT 1
	`).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query latest brief: %w", err)
	}

	var brief news.Brief
	if err := json.Unmarshal([]byte(payload), &brief); err != nil {
		return nil, fmt.Errorf("failed to parse stored brief: %w", err)
	}

	return &brief, nil
}

func (a *Archive) GetBriefCount() (int, error) {
	var count int
	err := a.db.QueryRow(`SELECT COUNT(*) FROM briefs`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count briefs: %w", err)
	}
	return count, nil
}

// RecordRun stores one run's stage counters.
func (a *Archive) RecordRun(summary RunSummary) error {
	aborted := 0
	if summary.Aborted {
		aborted = 1
	}

	_, err := a.db.Exec(`
		INSERT INTO runs (mode, started_at, fetched, time_filtered, keyword_matched,
			deduplicated, history_suppressed, curated, output, aborted)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, summary.Mode, summary.StartedAt.UTC().Format(time.RFC3339),
		summary.Fetched, summary.TimeFiltered, summary.KeywordMatched,
		summary.Deduplicated, summary.HistorySuppressed, summary.Curated,
		summary.Output, aborted)
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}

	return nil
}

// RecentRuns returns the most recent run summaries, newest first.
func (a *Archive) RecentRuns(limit int) ([]RunSummary, error) {
	rows, err := a.db.Query(`
		SELECT mode, started_at, fetched, time_filtered, keyword_matched,
			deduplicated, history_suppressed, curated, output, aborted
		FROM runs ORDER BY started_at DESC, id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var r RunSummary
		var startedAt string
		var aborted int
		err := rows.Scan(&r.Mode, &startedAt, &r.Fetched, &r.TimeFiltered,
			&r.KeywordMatched, &r.Deduplicated, &r.HistorySuppressed,
			&r.Curated, &r.Output, &aborted)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		if t, err := time.Parse(time.RFC3339, startedAt); err == nil {
			r.StartedAt = t
		}
		r.Aborted = aborted != 0
		runs = append(runs, r)
	}

	return runs, rows.Err()
}
