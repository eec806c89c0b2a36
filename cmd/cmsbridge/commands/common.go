package commands

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/cmsbridge/internal/backend"
	"git.home.luguber.info/inful/cmsbridge/internal/config"
	"git.home.luguber.info/inful/cmsbridge/internal/events"
	"git.home.luguber.info/inful/cmsbridge/internal/eventstore"
	"git.home.luguber.info/inful/cmsbridge/internal/metrics"
	"git.home.luguber.info/inful/cmsbridge/internal/observability"
	"git.home.luguber.info/inful/cmsbridge/internal/vcs"
)

// Global carries state shared by subcommands.
type Global struct {
	Logger *slog.Logger
}

// CLI is the root command definition with global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"cmsbridge.yaml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Auth    AuthCmd    `cmd:"" help:"Verify or inspect remote credentials"`
	Entries EntriesCmd `cmd:"" help:"List and read published entries"`
	Media   MediaCmd   `cmd:"" help:"List and upload media assets"`
	Drafts  DraftsCmd  `cmd:"" help:"Work with unpublished entries in the editorial workflow"`
	Preview PreviewCmd `cmd:"" help:"Look up the deploy preview for an unpublished entry"`
	Audit   AuditCmd   `cmd:"" help:"Query the workflow audit log"`
}

// AfterApply runs after flag parsing; sets up logging once.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	logger := observability.NewLogger(observability.LoggerOptions{Level: level, Output: os.Stderr})
	slog.SetDefault(logger)
	return nil
}

// setup loads configuration and assembles the backend with its optional
// side-effect sinks. The returned cleanup func closes them.
func setup(root *CLI) (*backend.Backend, func(), error) {
	cfg, err := loadConfig(root)
	if err != nil {
		return nil, nil, err
	}

	client, err := vcs.NewClient(cfg.Backend)
	if err != nil {
		return nil, nil, err
	}

	var opts []backend.Option
	var cleanups []func()

	if cfg.Metrics.Enabled {
		opts = append(opts, backend.WithRecorder(metrics.NewPrometheusRecorder(nil)))
	}
	// transitions are a best-effort side channel; a down broker must not
	// block editorial work. Without a broker the in-process bus is used.
	pub, perr := events.NewPublisher(cfg.Events)
	if perr != nil {
		slog.Warn("events publishing unavailable", "error", perr)
	} else {
		opts = append(opts, backend.WithPublisher(pub))
		cleanups = append(cleanups, func() { _ = pub.Close() })
	}
	if cfg.Audit.Enabled {
		store, serr := eventstore.NewSQLiteStore(cfg.Audit.DBPath)
		if serr != nil {
			return nil, nil, serr
		}
		opts = append(opts, backend.WithAuditStore(store))
		cleanups = append(cleanups, func() { _ = store.Close() })
	}

	cleanup := func() {
		for _, fn := range cleanups {
			fn()
		}
	}
	return backend.New(cfg, client, opts...), cleanup, nil
}

// loadConfig loads the config file and applies its logging section unless
// --verbose already forced debug output.
func loadConfig(root *CLI) (*config.Config, error) {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return nil, err
	}
	if !root.Verbose {
		logger := observability.NewLogger(observability.LoggerOptions{
			Level:  cfg.Logging.Level.SlogLevel(),
			Format: string(cfg.Logging.Format),
			Output: os.Stderr,
		})
		slog.SetDefault(logger)
	}
	return cfg, nil
}
