package config

import (
	ferrors "git.home.luguber.info/inful/cmsbridge/internal/foundation/errors"
)

// Validate enforces required fields. Configuration problems fail fast; the
// adapter never silently defaults a missing repository identity.
func (c *Config) Validate() error {
	switch c.Backend.Kind {
	case ClientForgejo:
		if c.Backend.APIURL == "" {
			return missing("backend.api_url")
		}
		if c.Backend.Owner == "" {
			return missing("backend.owner")
		}
		if c.Backend.Repo == "" {
			return missing("backend.repo")
		}
		if c.Backend.Token == "" {
			return missing("backend.token")
		}
	case ClientLocal:
		if c.Backend.RepoPath == "" {
			return missing("backend.repo_path")
		}
	default:
		return ferrors.ConfigError("unsupported backend kind").
			WithContext("kind", string(c.Backend.Kind)).
			Build()
	}

	if c.Events.Enabled && c.Events.NATSURL == "" {
		return missing("events.nats_url")
	}
	return nil
}

func missing(field string) error {
	return ferrors.ConfigError("missing required configuration field").
		WithContext("field", field).
		Build()
}
