package events

import (
	"context"
	"time"

	"git.home.luguber.info/inful/cmsbridge/internal/config"
)

// WorkflowTransition records one editorial state change of an unpublished
// entry. From is empty when the entry enters the workflow, To is "deleted"
// or "published" when it leaves.
type WorkflowTransition struct {
	Key        string    `json:"key"`
	Branch     string    `json:"branch"`
	From       string    `json:"from,omitempty"`
	To         string    `json:"to"`
	Actor      string    `json:"actor,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Publisher delivers workflow transitions to interested consumers. A nil
// Publisher is treated as disabled by the backend.
type Publisher interface {
	PublishTransition(ctx context.Context, t WorkflowTransition) error
	Close() error
}

// NewPublisher selects the transition publisher for the configured sink:
// NATS JetStream when events publishing is enabled, otherwise an in-process
// bus so local subscribers still observe transitions.
func NewPublisher(cfg config.EventsConfig) (Publisher, error) {
	if cfg.Enabled {
		return NewNATSPublisher(cfg)
	}
	return NewBus(), nil
}
