package vcs

import (
	"git.home.luguber.info/inful/cmsbridge/internal/config"
	ferrors "git.home.luguber.info/inful/cmsbridge/internal/foundation/errors"
)

// NewClient constructs the Client implementation selected by configuration.
func NewClient(cfg config.BackendConfig) (Client, error) {
	switch cfg.Kind {
	case config.ClientForgejo:
		return NewForgejoClient(cfg)
	case config.ClientLocal:
		return NewLocalClient(cfg)
	default:
		return nil, ferrors.ConfigError("unsupported backend kind").
			WithContext("kind", string(cfg.Kind)).
			Build()
	}
}
