// Package notify posts a finished brief to a chat webhook. Delivery is
// best effort; a failed notification never fails the run.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/harukit/morning-brief/app/news"
)

type Notifier struct {
	webhookURL string
	token      string
	httpClient *http.Client
}

func New(webhookURL, token string, timeout time.Duration) *Notifier {
	return &Notifier{
		webhookURL: webhookURL,
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Send posts the brief headline block to the webhook. No-op when the
// webhook URL is not configured.
func (n *Notifier) Send(ctx context.Context, brief news.Brief) {
	if n.webhookURL == "" {
		slog.Info("No webhook configured, skipping notification")
		return
	}

	payload, err := json.Marshal(map[string]string{"text": formatMessage(brief)})
	if err != nil {
		slog.Warn("Failed to marshal notification", "error", err)
		return
	}

	req, err := http.NewRequestWithContext(ctx, "POST", n.webhookURL, bytes.NewBuffer(payload))
	if err != nil {
		slog.Warn("Failed to create notification request", "error", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")
	if n.token != "" {
		req.Header.Set("Authorization", "Bearer "+n.token)
	}

	resp, err := n.httpClient.Do(req)
	if err != nil {
		slog.Warn("Failed to send notification", "error", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		slog.Warn("Notification rejected", "status", resp.StatusCode)
		return
	}

	slog.Info("Notification sent", "articles", len(brief.Articles))
}

func formatMessage(brief news.Brief) string {
	var b strings.Builder

	fmt.Fprintf(&b, "☀️ %s\n", brief.GeneratedAt.Format("2006-01-02"))
	if brief.Theme != "" {
		fmt.Fprintf(&b, "%s\n", brief.Theme)
	}
	if brief.Comment != "" {
		fmt.Fprintf(&b, "%s\n", brief.Comment)
	}
	b.WriteString("\n")

	if len(brief.Articles) == 0 {
		b.WriteString("No articles made the cut today.\n")
		return b.String()
	}

	for i, a := range brief.Articles {
		title := a.LocalTitle
		if title == "" {
			title = a.Title
		}
		fmt.Fprintf(&b, "%d. [%d] %s\n", i+1, a.ImportanceScore, title)
		if a.URL != "" {
			fmt.Fprintf(&b, "   %s\n", a.URL)
		}
	}

	return b.String()
}
