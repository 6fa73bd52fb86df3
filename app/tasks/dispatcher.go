package tasks

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const maxRetryDelay = 30 * time.Second

// BatchResult summarizes one dispatcher batch.
type BatchResult struct {
	Dispatched int
	Data       int
	Empty      int
	Failures   int
	Skipped    int
	Aborted    bool
}

// Dispatcher executes a batch of independent tasks on a bounded worker
// pool, with per-task retry and a shared circuit breaker. Completion
// order is unconstrained.
type Dispatcher struct {
	workerCount int
	maxRetries  int
	breaker     *Breaker
	retryBase   time.Duration
}

func NewDispatcher(workerCount, maxRetries, failureThreshold int) *Dispatcher {
	return &Dispatcher{
		workerCount: workerCount,
		maxRetries:  maxRetries,
		breaker:     NewBreaker(failureThreshold),
		retryBase:   time.Second,
	}
}

// Run dispatches tasks until all are done or the breaker opens. Once
// open, no further tasks start; in-flight tasks drain cooperatively and
// their side effects stay.
func (d *Dispatcher) Run(ctx context.Context, batch []TaskInterface) BatchResult {
	var (
		mu     sync.Mutex
		result BatchResult
		wg     sync.WaitGroup
	)

	queue := make(chan TaskInterface)

	for i := 0; i < d.workerCount; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for task := range queue {
				// Re-check on receipt: the breaker may have opened while
				// this task sat in the queue.
				if d.breaker.Open() {
					mu.Lock()
					result.Skipped++
					mu.Unlock()
					continue
				}

				mu.Lock()
				result.Dispatched++
				mu.Unlock()

				outcome := d.executeTask(ctx, workerID, task)

				mu.Lock()
				switch outcome {
				case OutcomeData:
					result.Data++
				case OutcomeEmpty:
					result.Empty++
				case OutcomeFailure:
					result.Failures++
				}
				mu.Unlock()
			}
		}(i)
	}

	for _, task := range batch {
		if d.breaker.Open() {
			mu.Lock()
			result.Skipped++
			mu.Unlock()
			continue
		}

		select {
		case queue <- task:
		case <-ctx.Done():
			mu.Lock()
			result.Skipped++
			mu.Unlock()
		}
	}
	close(queue)

	wg.Wait()

	result.Aborted = d.breaker.Open()
	if result.Aborted {
		slog.Warn("Batch aborted by circuit breaker",
			"failures", d.breaker.Failures(),
			"dispatched", result.Dispatched,
			"skipped", result.Skipped)
	}

	return result
}

// executeTask runs one task with bounded retry and exponential backoff.
// Only the final failure counts against the breaker.
func (d *Dispatcher) executeTask(ctx context.Context, workerID int, task TaskInterface) Outcome {
	task.Start()

	var outcome Outcome
	var err error

	for attempt := 0; attempt < d.maxRetries; attempt++ {
		if attempt > 0 {
			retryDelay := d.retryBase << uint(attempt-1)
			if retryDelay > maxRetryDelay {
				retryDelay = maxRetryDelay
			}
			select {
			case <-time.After(retryDelay):
			case <-ctx.Done():
				return OutcomeFailure
			}
		}

		outcome, err = task.Execute(ctx)
		if outcome != OutcomeFailure {
			d.breaker.RecordSuccess()
			slog.Info("Task completed",
				"worker_id", workerID,
				"type", string(task.GetType()),
				"name", task.GetName(),
				"duration", task.GetDuration(),
				"empty", outcome == OutcomeEmpty)
			return outcome
		}

		slog.Warn("Task attempt failed",
			"worker_id", workerID,
			"type", string(task.GetType()),
			"name", task.GetName(),
			"attempt", attempt+1,
			"max_retries", d.maxRetries,
			"error", err)
	}

	opened := d.breaker.RecordFailure()
	slog.Error("Task failed after maximum retries",
		"type", string(task.GetType()),
		"name", task.GetName(),
		"max_retries", d.maxRetries,
		"breaker_open", opened,
		"error", err)

	return OutcomeFailure
}
