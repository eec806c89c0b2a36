// Package backend is the adapter facade: it orchestrates the VCS client,
// the content key codec, the workflow lock and the bounded media fetcher
// into the operations a content editor needs.
package backend

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"git.home.luguber.info/inful/cmsbridge/internal/config"
	"git.home.luguber.info/inful/cmsbridge/internal/events"
	"git.home.luguber.info/inful/cmsbridge/internal/eventstore"
	"git.home.luguber.info/inful/cmsbridge/internal/logfields"
	"git.home.luguber.info/inful/cmsbridge/internal/metrics"
	"git.home.luguber.info/inful/cmsbridge/internal/observability"
	"git.home.luguber.info/inful/cmsbridge/internal/vcs"
)

// Backend owns the VCS client, the workflow lock and the fetch semaphore for
// its lifetime. Both synchronization primitives are constructed here, not
// lazily on first use.
type Backend struct {
	client    vcs.Client
	cfg       *config.Config
	recorder  metrics.Recorder
	publisher events.Publisher
	audit     eventstore.Store

	lock     *workflowLock
	fetchSem chan struct{}

	mu    sync.RWMutex
	user  *vcs.User
	token string
}

// Option customizes a Backend at construction time.
type Option func(*Backend)

// WithRecorder injects a metrics recorder (default: noop).
func WithRecorder(r metrics.Recorder) Option {
	return func(b *Backend) {
		if r != nil {
			b.recorder = r
		}
	}
}

// WithPublisher injects a workflow-transition publisher.
func WithPublisher(p events.Publisher) Option {
	return func(b *Backend) { b.publisher = p }
}

// WithAuditStore injects the workflow audit log.
func WithAuditStore(s eventstore.Store) Option {
	return func(b *Backend) { b.audit = s }
}

// New constructs the facade over a VCS client.
func New(cfg *config.Config, client vcs.Client, opts ...Option) *Backend {
	concurrency := cfg.Workflow.FetchConcurrency
	if concurrency < 1 {
		concurrency = 10
	}

	b := &Backend{
		client:   client,
		cfg:      cfg,
		recorder: metrics.NoopRecorder{},
		lock:     newWorkflowLock(cfg.Workflow.LockTimeout),
		fetchSem: make(chan struct{}, concurrency),
		token:    cfg.Backend.Token,
	}
	for _, opt := range opts {
		opt(b)
	}
	b.recorder.SetMediaFetchConcurrency(concurrency)
	return b
}

func (b *Backend) branchPrefix() string {
	return b.cfg.Workflow.BranchPrefix
}

// Authenticate verifies the configured token against the remote and stores
// the resulting identity for attribution.
func (b *Backend) Authenticate(ctx context.Context) (*vcs.User, error) {
	user, err := b.client.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}

	b.mu.Lock()
	b.user = user
	b.mu.Unlock()

	observability.InfoContext(ctx, "authenticated", logfields.User(user.Login))
	return user, nil
}

// AuthStatus probes the remote and reports whether the stored credentials
// still work. Failures are logged, not returned.
func (b *Backend) AuthStatus(ctx context.Context) bool {
	if _, err := b.client.CurrentUser(ctx); err != nil {
		observability.WarnContext(ctx, "auth probe failed", logfields.Error(err))
		return false
	}
	return true
}

// Logout forgets the stored identity and token.
func (b *Backend) Logout() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.user = nil
	b.token = ""
}

// Token returns the stored API token.
func (b *Backend) Token() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.token
}

// actorLogin is the login of the authenticated user, if any.
func (b *Backend) actorLogin() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.user == nil {
		return ""
	}
	return b.user.Login
}

// observe records one operation's duration and outcome.
func (b *Backend) observe(ctx context.Context, op string, start time.Time, err error) {
	elapsed := time.Since(start)
	b.recorder.ObserveOperationDuration(op, elapsed)
	result := metrics.ResultSuccess
	if err != nil {
		result = metrics.ResultFailure
	}
	b.recorder.IncOperationResult(op, result)

	attrs := []slog.Attr{logfields.DurationMS(float64(elapsed) / float64(time.Millisecond))}
	if err != nil {
		attrs = append(attrs, logfields.Error(err))
	}
	observability.DebugContext(ctx, "operation finished", attrs...)
}
