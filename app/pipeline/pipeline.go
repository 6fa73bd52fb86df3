// Package pipeline runs one end-to-end brief generation: fetch,
// filter, deduplicate, suppress history, curate, publish.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/harukit/morning-brief/app/archive"
	"github.com/harukit/morning-brief/app/cfg"
	"github.com/harukit/morning-brief/app/content"
	"github.com/harukit/morning-brief/app/curator"
	"github.com/harukit/morning-brief/app/history"
	"github.com/harukit/morning-brief/app/news"
	"github.com/harukit/morning-brief/app/notify"
	"github.com/harukit/morning-brief/app/sources"
	"github.com/harukit/morning-brief/app/tasks"
)

// Result is one finished pipeline run. Aborted means the circuit
// breaker stopped the fetch phase; whatever was fetched before the
// abort was still processed.
type Result struct {
	Brief   news.Brief
	Summary archive.RunSummary
	Aborted bool
}

type Pipeline struct {
	config     *cfg.Cfg
	sources    *sources.ConfigCache
	fetcher    tasks.SourceFetcher
	extractor  *content.Extractor
	curator    *curator.Curator
	notifier   *notify.Notifier
	dispatcher *tasks.Dispatcher
	ledger     *history.Ledger
	archive    *archive.Archive
	policy     news.WindowPolicy
	mode       string
	sendNotify bool
	now        func() time.Time
}

// Options carries the per-mode knobs; everything else comes from cfg.
type Options struct {
	Mode       string
	Policy     news.WindowPolicy
	SendNotify bool
}

func New(config *cfg.Cfg, sourceConfig *sources.ConfigCache, fetcher tasks.SourceFetcher,
	extractor *content.Extractor, cur *curator.Curator, notifier *notify.Notifier,
	ledger *history.Ledger, arch *archive.Archive, opts Options) *Pipeline {

	return &Pipeline{
		config:     config,
		sources:    sourceConfig,
		fetcher:    fetcher,
		extractor:  extractor,
		curator:    cur,
		notifier:   notifier,
		dispatcher: tasks.NewDispatcher(config.WorkerCount, config.TaskRetries, config.FailureThreshold),
		ledger:     ledger,
		archive:    arch,
		policy:     opts.Policy,
		mode:       opts.Mode,
		sendNotify: opts.SendNotify,
		now:        time.Now,
	}
}

// Run executes the pipeline once. An empty brief is a normal outcome
// and still produces artifacts; only setup problems surface as errors.
func (p *Pipeline) Run(ctx context.Context) (Result, error) {
	startedAt := p.now()

	fetched, aborted := p.fetchAll(ctx)
	slog.Info("Fetch phase finished", "candidates", len(fetched), "aborted", aborted)

	inWindow := news.FilterByWindow(fetched, p.now(), p.policy)
	slog.Info("Time window applied", "kept", len(inWindow), "dropped", len(fetched)-len(inWindow))

	matched := news.FilterByKeywords(inWindow, p.sources.GetKeywords())
	deduped := news.Deduplicate(matched)

	// Keyword misses are still fair backfill material as long as they
	// are in-window and not duplicates of a kept title.
	backfilled := news.Backfill(deduped, news.Deduplicate(inWindow), p.config.MinCandidates)
	if len(backfilled) > len(deduped) {
		slog.Info("Backfilled candidates below minimum",
			"keyword_matched", len(deduped),
			"after_backfill", len(backfilled),
			"minimum", p.config.MinCandidates)
	}

	unseen := p.ledger.FilterUnseen(backfilled)
	unseen = p.filterDelivered(unseen)
	slog.Info("History applied", "kept", len(unseen), "suppressed", len(backfilled)-len(unseen))

	if p.extractor != nil {
		unseen = p.extractor.BackfillSummaries(ctx, unseen, p.config.SummaryBackfill)
	}

	brief := p.curator.Run(ctx, unseen)
	slog.Info("Curation finished", "articles", len(brief.Articles))

	result := Result{
		Brief:   brief,
		Aborted: aborted,
		Summary: archive.RunSummary{
			Mode:              p.mode,
			StartedAt:         startedAt,
			Fetched:           len(fetched),
			TimeFiltered:      len(inWindow),
			KeywordMatched:    len(matched),
			Deduplicated:      len(backfilled),
			HistorySuppressed: len(backfilled) - len(unseen),
			Curated:           len(unseen),
			Output:            len(brief.Articles),
			Aborted:           aborted,
		},
	}

	if err := WriteArtifacts(p.config.OutputDir, brief); err != nil {
		return result, err
	}

	if p.sendNotify {
		p.notifier.Send(ctx, brief)
	}

	if err := p.ledger.Commit(brief.URLs()); err != nil {
		slog.Error("Failed to commit history ledger", "error", err)
	}

	p.record(result)

	return result, nil
}

func (p *Pipeline) fetchAll(ctx context.Context) ([]news.Candidate, bool) {
	sourceList := p.sources.GetSources()
	sink := news.NewSink(len(sourceList))

	batch := make([]tasks.TaskInterface, 0, len(sourceList))
	for i, src := range sourceList {
		batch = append(batch, tasks.NewFetchSourceTask(src, i, p.fetcher, sink))
	}

	batchResult := p.dispatcher.Run(ctx, batch)
	slog.Info("Dispatch complete",
		"dispatched", batchResult.Dispatched,
		"data", batchResult.Data,
		"empty", batchResult.Empty,
		"failures", batchResult.Failures,
		"skipped", batchResult.Skipped)

	return sink.Flatten(), batchResult.Aborted
}

// filterDelivered drops candidates whose URL appeared in a stored brief
// within the lookback period. This backstops a reset history ledger.
func (p *Pipeline) filterDelivered(candidates []news.Candidate) []news.Candidate {
	if p.archive == nil {
		return candidates
	}

	delivered, err := p.archive.DeliveredURLs(p.config.LookbackDays)
	if err != nil {
		slog.Warn("Failed to load delivered urls from archive", "error", err)
		return candidates
	}
	if len(delivered) == 0 {
		return candidates
	}

	kept := make([]news.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if _, ok := delivered[c.URL]; ok && c.URL != "" {
			continue
		}
		kept = append(kept, c)
	}
	return kept
}

func (p *Pipeline) record(result Result) {
	if p.archive == nil {
		return
	}

	if len(result.Brief.Articles) > 0 {
		if err := p.archive.StoreBrief(result.Brief); err != nil {
			slog.Error("Failed to store brief in archive", "error", err)
		}
	}
	if err := p.archive.RecordRun(result.Summary); err != nil {
		slog.Error("Failed to record run in archive", "error", err)
	}
}
