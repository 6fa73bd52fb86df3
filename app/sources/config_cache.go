package sources

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

const configFileName = "sources.yml"

// ConfigCache loads and holds the source/keyword/agent configuration.
// Reload is safe to call concurrently with readers.
type ConfigCache struct {
	configDir string
	cache     *Config
	mu        sync.RWMutex
}

func NewConfigCache(configDir string) *ConfigCache {
	return &ConfigCache{
		configDir: configDir,
		cache:     &Config{},
	}
}

func (cc *ConfigCache) Run() error {
	config, err := cc.parseConfig(cc.configFilePath())
	if err != nil {
		return err
	}

	if len(config.Sources) == 0 && len(config.Agents) == 0 {
		return fmt.Errorf("no sources or agents configured in %s", cc.configFilePath())
	}

	cc.mu.Lock()
	cc.cache = config
	cc.mu.Unlock()

	slog.Debug("Configuration loaded",
		"sources", len(config.Sources),
		"keywords", len(config.Keywords),
		"agents", len(config.Agents))

	return nil
}

func (cc *ConfigCache) GetSources() []Source {
	cc.mu.RLock()
	defer cc.mu.RUnlock()
	return cc.cache.Sources
}

func (cc *ConfigCache) GetKeywords() []string {
	cc.mu.RLock()
	defer cc.mu.RUnlock()
	return cc.cache.Keywords
}

func (cc *ConfigCache) GetAgents() []Agent {
	cc.mu.RLock()
	defer cc.mu.RUnlock()
	return cc.cache.Agents
}

func (cc *ConfigCache) GetSourceCount() int {
	cc.mu.RLock()
	defer cc.mu.RUnlock()
	return len(cc.cache.Sources)
}

func (cc *ConfigCache) configFilePath() string {
	return filepath.Join(cc.configDir, configFileName)
}

func (cc *ConfigCache) parseConfig(configFile string) (*Config, error) {
	data, err := os.ReadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	for i, src := range config.Sources {
		if src.Name == "" {
			return nil, fmt.Errorf("source %d has no name", i)
		}
		if src.URL == "" {
			return nil, fmt.Errorf("source %q has no url", src.Name)
		}
	}

	for i, agent := range config.Agents {
		if agent.Name == "" {
			return nil, fmt.Errorf("agent %d has no name", i)
		}
	}

	return &config, nil
}
