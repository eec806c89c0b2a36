package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	ferrors "git.home.luguber.info/inful/cmsbridge/internal/foundation/errors"
)

// Config is the root configuration for the CMSBridge adapter.
type Config struct {
	Backend  BackendConfig  `yaml:"backend"`
	Content  ContentConfig  `yaml:"content"`
	Workflow WorkflowConfig `yaml:"workflow"`
	Events   EventsConfig   `yaml:"events"`
	Audit    AuditConfig    `yaml:"audit"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// BackendConfig describes the remote version-control endpoint.
type BackendConfig struct {
	Kind     ClientKind `yaml:"kind"`      // forgejo|local
	APIURL   string     `yaml:"api_url"`   // e.g. https://git.example.com/api/v1
	BaseURL  string     `yaml:"base_url"`  // web UI base, used for links
	Owner    string     `yaml:"owner"`     // repository owner/org
	Repo     string     `yaml:"repo"`      // repository name
	Branch   string     `yaml:"branch"`    // default (published) branch
	Token    string     `yaml:"token"`     // API token; usually ${CMSBRIDGE_TOKEN}
	RepoPath string     `yaml:"repo_path"` // local clone path (kind: local)

	Retry RetryConfig `yaml:"retry"`
}

// RetryConfig tunes retries of idempotent VCS reads.
type RetryConfig struct {
	Backoff    RetryBackoffMode `yaml:"backoff"`
	Initial    time.Duration    `yaml:"initial"`
	Max        time.Duration    `yaml:"max"`
	MaxRetries int              `yaml:"max_retries"` // 0 = default; negative disables retries
}

// ContentConfig describes where entries and media live in the repository.
type ContentConfig struct {
	MediaFolder    string `yaml:"media_folder"`
	PublicFolder   string `yaml:"public_folder"`   // URL prefix for fallback display URLs
	PreviewContext string `yaml:"preview_context"` // exact CI status context for deploy previews
}

// WorkflowConfig tunes the editorial workflow layer.
type WorkflowConfig struct {
	BranchPrefix     string        `yaml:"branch_prefix"`     // default "cms/"
	LockTimeout      time.Duration `yaml:"lock_timeout"`      // workflow lock acquisition budget
	FetchConcurrency int           `yaml:"fetch_concurrency"` // media download ceiling
}

// EventsConfig configures optional NATS publication of workflow transitions.
type EventsConfig struct {
	Enabled bool   `yaml:"enabled"`
	NATSURL string `yaml:"nats_url"`
	Subject string `yaml:"subject"`
}

// AuditConfig configures the optional SQLite workflow audit log.
type AuditConfig struct {
	Enabled bool   `yaml:"enabled"`
	DBPath  string `yaml:"db_path"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level  LogLevel  `yaml:"level"`
	Format LogFormat `yaml:"format"`
}

// MetricsConfig enables the Prometheus recorder.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Load loads configuration from the specified file.
// A .env file alongside the process is loaded first (without overriding
// existing environment), then ${VAR} references in the YAML are expanded.
func Load(configPath string) (*Config, error) {
	// Missing .env is fine; only the config file itself is required.
	_ = godotenv.Load()

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, ferrors.ConfigError("could not read configuration file").
			WithCause(err).
			WithContext("path", configPath).
			Build()
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, ferrors.ConfigError("could not parse configuration file").
			WithCause(err).
			WithContext("path", configPath).
			Build()
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyDefaults fills zero values with sensible defaults.
func (c *Config) applyDefaults() {
	if c.Backend.Kind == "" {
		c.Backend.Kind = ClientForgejo
	} else {
		c.Backend.Kind = NormalizeClientKind(string(c.Backend.Kind))
	}
	if c.Backend.Branch == "" {
		c.Backend.Branch = "main"
	}
	if c.Backend.Retry.Backoff == "" {
		c.Backend.Retry.Backoff = RetryBackoffLinear
	}

	if c.Content.MediaFolder == "" {
		c.Content.MediaFolder = "static/media"
	}
	if c.Content.PublicFolder == "" {
		c.Content.PublicFolder = "/media"
	}

	if c.Workflow.BranchPrefix == "" {
		c.Workflow.BranchPrefix = "cms/"
	}
	if c.Workflow.LockTimeout <= 0 {
		c.Workflow.LockTimeout = 30 * time.Second
	}
	if c.Workflow.FetchConcurrency <= 0 {
		c.Workflow.FetchConcurrency = 10
	}

	if c.Events.Subject == "" {
		c.Events.Subject = "cmsbridge.workflow"
	}
	if c.Audit.DBPath == "" {
		c.Audit.DBPath = "cmsbridge-audit.db"
	}

	c.Logging.Level = NormalizeLogLevel(string(c.Logging.Level))
	c.Logging.Format = NormalizeLogFormat(string(c.Logging.Format))
}
