package cfg

type Cfg struct {
	// Run configuration
	Mode       string
	ConfigDir  string
	OutputDir  string
	ReportsDir string

	// Persistence
	HistoryFile  string
	ArchivePath  string
	LookbackDays int

	// Pipeline tuning
	WorkerCount      int
	FailureThreshold int
	TaskRetries      int
	MinCandidates    int
	TopCount         int
	CuratorPool      int
	SummaryBackfill  int

	// Time window
	CutoffHour    int
	LookbackHours int
	Timezone      string

	// LLM configuration
	LLMEndpoint     string
	LLMModel        string
	LLMAPIKey       string
	LLMTemperature  float64
	LLMTimeout      int
	AgentEndpoint   string
	AgentModel      string
	AgentAPIKey     string
	CurationProfile string

	// Notification
	NotifyWebhookURL string
	NotifyToken      string
	NoNotify         bool

	// HTTP
	Port         string
	FetchTimeout int

	// Application metadata
	UserAgent string
	Debug     bool
	Version   string
}
