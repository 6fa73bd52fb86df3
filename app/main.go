package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/harukit/morning-brief/app/api"
	"github.com/harukit/morning-brief/app/archive"
	"github.com/harukit/morning-brief/app/cfg"
	"github.com/harukit/morning-brief/app/content"
	"github.com/harukit/morning-brief/app/curator"
	"github.com/harukit/morning-brief/app/history"
	"github.com/harukit/morning-brief/app/llm"
	"github.com/harukit/morning-brief/app/news"
	"github.com/harukit/morning-brief/app/notify"
	"github.com/harukit/morning-brief/app/pipeline"
	"github.com/harukit/morning-brief/app/sources"
	"github.com/harukit/morning-brief/app/tasks"
)

// Exit codes. A degraded run (fallback curation, empty brief) is still
// a completed run and exits 0.
const (
	exitOK      = 0
	exitAborted = 1
	exitSetup   = 2
)

func main() {
	os.Exit(run())
}

func run() int {
	appCfg, err := cfg.Load()
	if err != nil {
		slog.Error("Configuration error", "error", err)
		return exitSetup
	}
	if appCfg == nil {
		// Help was shown
		return exitOK
	}

	setupLogger(appCfg.Debug)
	slog.Info("Starting Morning Brief", "version", appCfg.Version, "mode", appCfg.Mode)

	configCache := sources.NewConfigCache(appCfg.ConfigDir)
	if err := configCache.Run(); err != nil {
		slog.Error("Failed to load source configuration", "error", err)
		return exitSetup
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch appCfg.Mode {
	case "brief":
		return runPipeline(ctx, appCfg, configCache, news.DailyCutoff{
			Hour:     appCfg.CutoffHour,
			Location: appCfg.Location(),
		}, !appCfg.NoNotify)
	case "sentinel":
		return runPipeline(ctx, appCfg, configCache, news.RollingLookback{
			Duration: time.Duration(appCfg.LookbackHours) * time.Hour,
		}, false)
	case "agents":
		return runAgents(ctx, appCfg, configCache)
	case "serve":
		return runServe(ctx, appCfg, configCache)
	default:
		slog.Error("Unknown run mode", "mode", appCfg.Mode)
		return exitSetup
	}
}

func setupLogger(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})))
}

func runPipeline(ctx context.Context, appCfg *cfg.Cfg, configCache *sources.ConfigCache,
	policy news.WindowPolicy, sendNotify bool) int {

	mode := appCfg.Mode
	httpClient := &http.Client{Timeout: time.Duration(appCfg.FetchTimeout) * time.Second}
	fetchTimeout := time.Duration(appCfg.FetchTimeout) * time.Second

	fetcher := news.NewFetcher(httpClient, appCfg.UserAgent, fetchTimeout)
	extractor := content.NewExtractor(httpClient, appCfg.UserAgent, fetchTimeout)
	ledger := history.Load(appCfg.HistoryFile)
	slog.Info("History ledger loaded", "path", appCfg.HistoryFile, "urls", ledger.Size())

	arch, err := archive.Open(appCfg.ArchivePath)
	if err != nil {
		slog.Warn("Archive unavailable, continuing without lookback", "path", appCfg.ArchivePath, "error", err)
		arch = nil
	} else {
		defer arch.Close()
	}

	var curatorClient llm.Client
	if appCfg.LLMAPIKey != "" {
		curatorClient = llm.NewClient(appCfg.LLMEndpoint, appCfg.LLMModel, appCfg.LLMAPIKey,
			appCfg.LLMTemperature, time.Duration(appCfg.LLMTimeout)*time.Second)
	}
	cur := curator.New(curatorClient, appCfg.CurationProfile, appCfg.TopCount, appCfg.CuratorPool)

	notifier := notify.New(appCfg.NotifyWebhookURL, appCfg.NotifyToken, 15*time.Second)

	p := pipeline.New(appCfg, configCache, fetcher, extractor, cur, notifier, ledger, arch,
		pipeline.Options{Mode: mode, Policy: policy, SendNotify: sendNotify})

	result, err := p.Run(ctx)
	if err != nil {
		slog.Error("Pipeline failed", "error", err)
		return exitSetup
	}

	slog.Info("Run complete",
		"mode", mode,
		"fetched", result.Summary.Fetched,
		"output", result.Summary.Output,
		"aborted", result.Aborted)

	if result.Aborted {
		return exitAborted
	}
	return exitOK
}

func runAgents(ctx context.Context, appCfg *cfg.Cfg, configCache *sources.ConfigCache) int {
	agents := configCache.GetAgents()
	if len(agents) == 0 {
		slog.Error("No agents configured")
		return exitSetup
	}
	if appCfg.AgentAPIKey == "" {
		slog.Error("No agent API key configured")
		return exitSetup
	}

	client := llm.NewClient(appCfg.AgentEndpoint, appCfg.AgentModel, appCfg.AgentAPIKey,
		appCfg.LLMTemperature, time.Duration(appCfg.LLMTimeout)*time.Second)

	batch := make([]tasks.TaskInterface, 0, len(agents))
	for _, agent := range agents {
		batch = append(batch, tasks.NewAgentCheckTask(agent, client, appCfg.ReportsDir))
	}

	dispatcher := tasks.NewDispatcher(appCfg.WorkerCount, appCfg.TaskRetries, appCfg.FailureThreshold)
	result := dispatcher.Run(ctx, batch)

	slog.Info("Agent run complete",
		"dispatched", result.Dispatched,
		"reports", result.Data,
		"empty", result.Empty,
		"failures", result.Failures,
		"aborted", result.Aborted)

	if result.Aborted {
		return exitAborted
	}
	return exitOK
}

func runServe(ctx context.Context, appCfg *cfg.Cfg, configCache *sources.ConfigCache) int {
	arch, err := archive.Open(appCfg.ArchivePath)
	if err != nil {
		slog.Error("Failed to open archive", "path", appCfg.ArchivePath, "error", err)
		return exitSetup
	}
	defer arch.Close()

	handler := api.NewHandler(arch, configCache, appCfg.Version)
	server := api.NewServer(handler)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", appCfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info("Shutdown signal received")
	case err := <-serverErrChan:
		slog.Error("HTTP server error", "error", err)
		return exitSetup
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	} else {
		slog.Info("HTTP server stopped")
	}

	return exitOK
}
