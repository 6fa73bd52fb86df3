package tasks

import (
	"context"
	"fmt"

	"github.com/harukit/morning-brief/app/news"
	"github.com/harukit/morning-brief/app/sources"
)

// SourceFetcher is satisfied by news.Fetcher.
type SourceFetcher interface {
	FetchSource(ctx context.Context, src sources.Source) ([]news.Candidate, error)
}

// FetchSourceTask downloads and parses one configured feed, then hands
// the candidates to the shared sink under the source's batch index.
type FetchSourceTask struct {
	Task
	source      sources.Source
	sourceIndex int
	fetcher     SourceFetcher
	sink        *news.Sink
}

func NewFetchSourceTask(source sources.Source, sourceIndex int, fetcher SourceFetcher, sink *news.Sink) *FetchSourceTask {
	return &FetchSourceTask{
		Task:        NewTask(TaskTypeFetchSource, source.Name),
		source:      source,
		sourceIndex: sourceIndex,
		fetcher:     fetcher,
		sink:        sink,
	}
}

func (t *FetchSourceTask) Execute(ctx context.Context) (Outcome, error) {
	candidates, err := t.fetcher.FetchSource(ctx, t.source)
	if err != nil {
		return OutcomeFailure, fmt.Errorf("failed to fetch source '%s': %w", t.source.Name, err)
	}

	if len(candidates) == 0 {
		return OutcomeEmpty, nil
	}

	t.sink.Put(t.sourceIndex, candidates)

	return OutcomeData, nil
}
