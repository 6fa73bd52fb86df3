package tasks

import (
	"context"
	"fmt"
	"math/rand"
	"time"
)

type TaskType string

const (
	TaskTypeFetchSource TaskType = "fetch_source"
	TaskTypeAgentCheck  TaskType = "agent_check"
)

// Outcome classifies a finished task for circuit-breaker accounting.
type Outcome int

const (
	// OutcomeData means the task succeeded and produced items.
	OutcomeData Outcome = iota
	// OutcomeEmpty means the task succeeded but found nothing new.
	OutcomeEmpty
	// OutcomeFailure means the task failed after its own retries.
	OutcomeFailure
)

type TaskInterface interface {
	Execute(ctx context.Context) (Outcome, error)
	GetID() string
	GetType() TaskType
	GetName() string
	Start()
	GetDuration() time.Duration
}

type Task struct {
	ID        string
	Type      TaskType
	Name      string
	StartedAt *time.Time
}

func (t *Task) GetID() string {
	return t.ID
}

func (t *Task) GetType() TaskType {
	return t.Type
}

func (t *Task) GetName() string {
	return t.Name
}

func (t *Task) Start() {
	now := time.Now()
	t.StartedAt = &now
}

func (t *Task) GetDuration() time.Duration {
	if t.StartedAt == nil {
		return 0
	}
	return time.Since(*t.StartedAt)
}

func NewTask(taskType TaskType, name string) Task {
	uniqueID := fmt.Sprintf("%d-%d", time.Now().UnixNano(), rand.Intn(10000))

	return Task{
		ID:   uniqueID,
		Type: taskType,
		Name: name,
	}
}
