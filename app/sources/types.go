package sources

// Source describes one RSS/Atom feed to collect candidates from.
type Source struct {
	Name   string `yaml:"name"`
	URL    string `yaml:"url"`
	Region string `yaml:"region"`
}

// Agent describes one monitored entity queried through the agent endpoint.
type Agent struct {
	Category string   `yaml:"category"`
	Name     string   `yaml:"name"`
	Accounts []string `yaml:"accounts"`
}

// Config is the full contents of sources.yml.
type Config struct {
	Sources  []Source `yaml:"sources"`
	Keywords []string `yaml:"keywords"`
	Agents   []Agent  `yaml:"agents"`
}
