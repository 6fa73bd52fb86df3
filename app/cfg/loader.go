package cfg

import (
	"cmp"
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Run configuration
	Mode       string `long:"mode" env:"RUN_MODE" default:"brief" choice:"brief" choice:"sentinel" choice:"agents" choice:"serve" description:"Run mode: full daily batch, lightweight incremental check, agent monitoring, or HTTP API"`
	ConfigDir  string `long:"config-dir" env:"CONFIG_DIR" default:"./config" description:"Directory containing sources.yml"`
	OutputDir  string `long:"output-dir" env:"OUTPUT_DIR" default:"./output" description:"Directory for brief artifacts"`
	ReportsDir string `long:"reports-dir" env:"REPORTS_DIR" default:"./reports" description:"Directory for per-entity agent reports"`

	// Persistence
	HistoryFile  string `long:"history-file" env:"HISTORY_FILE" default:"./output/seen_urls.json" description:"Delivered-URL ledger file"`
	ArchivePath  string `long:"archive-path" env:"ARCHIVE_PATH" default:"./output/archive.db" description:"SQLite brief archive path"`
	LookbackDays int    `long:"lookback-days" env:"LOOKBACK_DAYS" default:"3" description:"Days of prior briefs scanned for delivered URLs"`

	// Pipeline tuning
	WorkerCount      int `long:"worker-count" env:"WORKER_COUNT" default:"3" description:"Number of concurrent workers for fetch and agent tasks"`
	FailureThreshold int `long:"failure-threshold" env:"FAILURE_THRESHOLD" default:"5" description:"Consecutive task failures before the batch is aborted"`
	TaskRetries      int `long:"task-retries" env:"TASK_RETRIES" default:"3" description:"Attempts per task before it counts as a batch failure"`
	MinCandidates    int `long:"min-candidates" env:"MIN_CANDIDATES" default:"10" description:"Minimum candidate count before keyword backfill kicks in"`
	TopCount         int `long:"top-count" env:"TOP_COUNT" default:"10" description:"Target number of articles in the final brief"`
	CuratorPool      int `long:"curator-pool" env:"CURATOR_POOL" default:"30" description:"Maximum candidates sent to the curator"`
	SummaryBackfill  int `long:"summary-backfill" env:"SUMMARY_BACKFILL" default:"5" description:"Maximum page extractions for candidates missing a summary"`

	// Time window
	CutoffHour    int    `long:"cutoff-hour" env:"CUTOFF_HOUR" default:"7" description:"Daily cutoff hour for the brief window"`
	LookbackHours int    `long:"lookback-hours" env:"LOOKBACK_HOURS" default:"48" description:"Rolling window size for sentinel runs"`
	Timezone      string `long:"timezone" env:"TZ" default:"Asia/Tokyo" description:"Timezone for the daily cutoff and timestamps"`

	// LLM configuration
	LLMEndpoint     string  `long:"llm-endpoint" env:"LLM_ENDPOINT" default:"https://api.openai.com/v1/chat/completions" description:"Chat completions endpoint for curation"`
	LLMModel        string  `long:"llm-model" env:"LLM_MODEL" default:"gpt-4o-mini" description:"Model used for curation"`
	LLMAPIKey       string  `long:"llm-api-key" env:"LLM_API_KEY" description:"API key for curation (absence degrades to pass-through)"`
	LLMTemperature  float64 `long:"llm-temperature" env:"LLM_TEMPERATURE" default:"0.2" description:"Sampling temperature for curation"`
	LLMTimeout      int     `long:"llm-timeout" env:"LLM_TIMEOUT" default:"60" description:"LLM request timeout in seconds"`
	AgentEndpoint   string  `long:"agent-endpoint" env:"AGENT_ENDPOINT" default:"https://api.x.ai/v1/chat/completions" description:"Chat completions endpoint for agent monitoring"`
	AgentModel      string  `long:"agent-model" env:"AGENT_MODEL" default:"grok-4-1-fast-non-reasoning" description:"Model used for agent monitoring"`
	AgentAPIKey     string  `long:"agent-api-key" env:"XAI_API_KEY" description:"API key for agent monitoring"`
	CurationProfile string  `long:"curation-profile" env:"CURATION_PROFILE" default:"daily" choice:"daily" choice:"editorial" description:"Curation prompt profile"`

	// Notification
	NotifyWebhookURL string `long:"notify-webhook" env:"NOTIFY_WEBHOOK_URL" description:"Webhook URL for brief push notification (optional)"`
	NotifyToken      string `long:"notify-token" env:"NOTIFY_TOKEN" description:"Bearer token for the notification webhook"`
	NoNotify         bool   `long:"no-notify" env:"NO_NOTIFY" description:"Suppress the push notification channel"`

	// HTTP
	Port         string `long:"port" env:"PORT" default:"8080" description:"HTTP server port for serve mode"`
	FetchTimeout int    `long:"fetch-timeout" env:"FETCH_TIMEOUT" default:"30" description:"Per-source fetch timeout in seconds"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"Morning Brief/1.0" description:"User agent string for HTTP requests"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		Mode:             raw.Mode,
		ConfigDir:        raw.ConfigDir,
		OutputDir:        raw.OutputDir,
		ReportsDir:       raw.ReportsDir,
		HistoryFile:      raw.HistoryFile,
		ArchivePath:      raw.ArchivePath,
		LookbackDays:     raw.LookbackDays,
		WorkerCount:      raw.WorkerCount,
		FailureThreshold: raw.FailureThreshold,
		TaskRetries:      raw.TaskRetries,
		MinCandidates:    raw.MinCandidates,
		TopCount:         raw.TopCount,
		CuratorPool:      raw.CuratorPool,
		SummaryBackfill:  raw.SummaryBackfill,
		CutoffHour:       raw.CutoffHour,
		LookbackHours:    raw.LookbackHours,
		Timezone:         raw.Timezone,
		LLMEndpoint:      raw.LLMEndpoint,
		LLMModel:         raw.LLMModel,
		LLMAPIKey:        raw.LLMAPIKey,
		LLMTemperature:   raw.LLMTemperature,
		LLMTimeout:       raw.LLMTimeout,
		AgentEndpoint:    raw.AgentEndpoint,
		AgentModel:       raw.AgentModel,
		AgentAPIKey:      raw.AgentAPIKey,
		CurationProfile:  raw.CurationProfile,
		NotifyWebhookURL: raw.NotifyWebhookURL,
		NotifyToken:      raw.NotifyToken,
		NoNotify:         raw.NoNotify,
		Port:             raw.Port,
		FetchTimeout:     raw.FetchTimeout,
		UserAgent:        raw.UserAgent,
		Debug:            raw.Debug,
		Version:          GetVersion(),
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

// Location resolves the configured timezone, falling back to UTC.
func (c *Cfg) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
		}
	}
	return nil
}
