package tasks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/harukit/morning-brief/app/llm"
	"github.com/harukit/morning-brief/app/sources"
)

// noNewsMarker is the phrase the agent is instructed to answer with
// when nothing noteworthy happened. Its presence makes the check an
// empty success rather than a failure.
const noNewsMarker = "No significant news found"

// AgentCheckTask asks a search-capable model to scan a category's
// accounts for the last day and writes the findings as a dated
// markdown report.
type AgentCheckTask struct {
	Task
	agent      sources.Agent
	client     llm.Client
	reportsDir string
	now        func() time.Time
}

func NewAgentCheckTask(agent sources.Agent, client llm.Client, reportsDir string) *AgentCheckTask {
	return &AgentCheckTask{
		Task:       NewTask(TaskTypeAgentCheck, agent.Name),
		agent:      agent,
		client:     client,
		reportsDir: reportsDir,
		now:        time.Now,
	}
}

func (t *AgentCheckTask) Execute(ctx context.Context) (Outcome, error) {
	content, err := t.client.Complete(ctx, []llm.Message{
		{Role: "system", Content: agentSystemPrompt},
		{Role: "user", Content: t.buildPrompt()},
	})
	if err != nil {
		return OutcomeFailure, fmt.Errorf("agent check '%s' failed: %w", t.agent.Name, err)
	}

	content = stripCodeFences(content)

	if strings.Contains(content, noNewsMarker) {
		return OutcomeEmpty, nil
	}

	if err := t.writeReport(content); err != nil {
		return OutcomeFailure, err
	}

	return OutcomeData, nil
}

const agentSystemPrompt = "You are a news research assistant. " +
	"Report only concrete, dated announcements. " +
	"If nothing noteworthy happened, reply exactly: " + noNewsMarker

func (t *AgentCheckTask) buildPrompt() string {
	var b strings.Builder

	fmt.Fprintf(&b, "Check the following %s accounts for announcements from the last 24 hours:\n\n", t.agent.Category)
	for _, account := range t.agent.Accounts {
		fmt.Fprintf(&b, "- %s\n", account)
	}
	b.WriteString("\nSummarize each finding as a markdown bullet with the account, ")
	b.WriteString("the announcement, and why it matters. ")
	b.WriteString("If there is nothing significant, reply exactly: " + noNewsMarker)

	return b.String()
}

func (t *AgentCheckTask) writeReport(content string) error {
	dir := filepath.Join(t.reportsDir, t.now().Format("2006-01-02"))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create reports directory: %w", err)
	}

	path := filepath.Join(dir, t.agent.Name+".md")

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", t.agent.Name)
	fmt.Fprintf(&b, "Category: %s\n\n", t.agent.Category)
	b.WriteString(content)
	if !strings.HasSuffix(content, "\n") {
		b.WriteString("\n")
	}

	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("failed to write report '%s': %w", path, err)
	}

	return nil
}

// stripCodeFences removes a surrounding markdown code fence, with or
// without a language tag.
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
