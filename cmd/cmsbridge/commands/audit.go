package commands

import (
	"context"
	"fmt"
	"time"

	"git.home.luguber.info/inful/cmsbridge/internal/eventstore"
	ferrors "git.home.luguber.info/inful/cmsbridge/internal/foundation/errors"
)

// AuditCmd queries the local workflow audit log.
type AuditCmd struct {
	Key   string        `arg:"" optional:"" help:"Content key to filter on; omit to list recent transitions"`
	Since time.Duration `default:"168h" help:"Window for unfiltered queries"`
}

func (a *AuditCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	if !cfg.Audit.Enabled {
		return ferrors.ConfigError("audit log is not enabled in configuration").Build()
	}

	store, err := eventstore.NewSQLiteStore(cfg.Audit.DBPath)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	ctx := context.Background()
	var transitions []eventstore.Transition
	if a.Key != "" {
		transitions, err = store.ByKey(ctx, a.Key)
	} else {
		now := time.Now()
		transitions, err = store.Range(ctx, now.Add(-a.Since), now)
	}
	if err != nil {
		return err
	}

	for _, t := range transitions {
		from := t.FromStatus
		if from == "" {
			from = "-"
		}
		actor := t.Actor
		if actor == "" {
			actor = "-"
		}
		fmt.Printf("%s\t%s\t%s -> %s\t%s\n",
			t.OccurredAt.Format(time.RFC3339), t.Key, from, t.ToStatus, actor)
	}
	return nil
}
