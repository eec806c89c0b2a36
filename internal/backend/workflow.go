package backend

import (
	"context"
	"path"
	"time"

	"git.home.luguber.info/inful/cmsbridge/internal/contentkey"
	"git.home.luguber.info/inful/cmsbridge/internal/events"
	ferrors "git.home.luguber.info/inful/cmsbridge/internal/foundation/errors"
	"git.home.luguber.info/inful/cmsbridge/internal/logfields"
	"git.home.luguber.info/inful/cmsbridge/internal/observability"
	"git.home.luguber.info/inful/cmsbridge/internal/vcs"
)

// Guarded operation names, carried in lock errors and metrics labels.
const (
	opUpdateWorkflowStatus    = "updateWorkflowStatus"
	opDeleteUnpublishedEntry  = "deleteUnpublishedEntry"
	opPublishUnpublishedEntry = "publishUnpublishedEntry"
)

const defaultLockTimeout = 30 * time.Second

// workflowLock serializes the workflow-mutating operations adapter-wide.
// Remote workflow mutations are multi-step and not atomic; one slot keeps
// them totally ordered.
type workflowLock struct {
	slot    chan struct{}
	timeout time.Duration
}

func newWorkflowLock(timeout time.Duration) *workflowLock {
	if timeout <= 0 {
		timeout = defaultLockTimeout
	}
	return &workflowLock{slot: make(chan struct{}, 1), timeout: timeout}
}

// acquire blocks until the slot is free, the context is canceled, or the
// timeout elapses. The returned release func must be called exactly once.
func (l *workflowLock) acquire(ctx context.Context, op string) (func(), error) {
	timer := time.NewTimer(l.timeout)
	defer timer.Stop()

	select {
	case l.slot <- struct{}{}:
		return func() { <-l.slot }, nil
	case <-ctx.Done():
		return nil, ferrors.LockError("workflow lock acquisition canceled").
			WithCause(ctx.Err()).
			WithContext("operation", op).
			Build()
	case <-timer.C:
		return nil, ferrors.LockError("workflow lock acquisition timed out").
			WithContext("operation", op).
			WithContext("timeout", l.timeout.String()).
			Build()
	}
}

// guard acquires the workflow lock for op, recording the wait time.
func (b *Backend) guard(ctx context.Context, op string) (func(), error) {
	start := time.Now()
	release, err := b.lock.acquire(ctx, op)
	b.recorder.ObserveLockWait(op, time.Since(start))
	return release, err
}

// UnpublishedEntry is one entry in the editorial workflow.
type UnpublishedEntry struct {
	Key         contentkey.Key
	Branch      string
	Status      string
	Description string
	DataFiles   []string
	MediaFiles  []vcs.MediaFileDescriptor
	UpdatedAt   time.Time
}

// UnpublishedEntryRequest identifies an entry by key or by its parts.
type UnpublishedEntryRequest struct {
	ID         string // content key, "collection/slug"
	Collection string
	Slug       string
}

func (b *Backend) resolveKey(req UnpublishedEntryRequest) (contentkey.Key, error) {
	switch {
	case req.ID != "":
		return contentkey.FromBranch(b.branchPrefix(), contentkey.Key(req.ID).Branch(b.branchPrefix()))
	case req.Collection != "" || req.Slug != "":
		return contentkey.FromCollectionSlug(req.Collection, req.Slug)
	default:
		return "", ferrors.ValidationError("request must carry an id or a collection and slug").Build()
	}
}

// ListUnpublishedEntries enumerates workflow branches and reads each one's
// editorial metadata, bounded by the fetch semaphore. Branches that do not
// decode to a content key, or whose metadata cannot be read, are skipped
// with a warning rather than failing the listing.
func (b *Backend) ListUnpublishedEntries(ctx context.Context) (entries []UnpublishedEntry, err error) {
	ctx = observability.WithOperation(ctx, "listUnpublishedEntries")
	start := time.Now()
	defer func() { b.observe(ctx, "listUnpublishedEntries", start, err) }()

	branches, err := b.client.ListWorkflowBranches(ctx, b.branchPrefix())
	if err != nil {
		return nil, err
	}

	keyed := make([]string, 0, len(branches))
	for _, branch := range branches {
		if _, kerr := contentkey.FromBranch(b.branchPrefix(), branch); kerr != nil {
			observability.WarnContext(ctx, "skipping undecodable workflow branch",
				logfields.Branch(branch),
				logfields.Error(kerr))
			continue
		}
		keyed = append(keyed, branch)
	}

	results := runOrdered(ctx, b.fetchSem, keyed, func(ctx context.Context, branch string) (*vcs.BranchWorkflow, error) {
		return b.client.WorkflowStatus(ctx, branch)
	})

	entries = make([]UnpublishedEntry, 0, len(keyed))
	for i, branch := range keyed {
		if results[i].Err != nil {
			observability.WarnContext(ctx, "skipping workflow branch without readable metadata",
				logfields.Branch(branch),
				logfields.Error(results[i].Err))
			continue
		}
		key, _ := contentkey.FromBranch(b.branchPrefix(), branch)
		entries = append(entries, b.entryFromWorkflow(key, results[i].Value))
	}
	observability.DebugContext(ctx, "listed unpublished entries", logfields.Count(len(entries)))
	return entries, nil
}

func (b *Backend) entryFromWorkflow(key contentkey.Key, wf *vcs.BranchWorkflow) UnpublishedEntry {
	descriptors := make([]vcs.MediaFileDescriptor, 0, len(wf.MediaFiles))
	for _, p := range wf.MediaFiles {
		descriptors = append(descriptors, vcs.MediaFileDescriptor{Path: p})
	}
	return UnpublishedEntry{
		Key:         key,
		Branch:      wf.Branch,
		Status:      wf.Status,
		Description: wf.Description,
		DataFiles:   wf.DataFiles,
		MediaFiles:  descriptors,
		UpdatedAt:   wf.UpdatedAt,
	}
}

// GetUnpublishedEntry resolves one workflow entry, including media
// descriptors with display URLs resolved in parallel under the fetch
// ceiling. Descriptor resolution failures fall back to the public-folder
// URL; a missing branch propagates as not-found.
func (b *Backend) GetUnpublishedEntry(ctx context.Context, req UnpublishedEntryRequest) (entry *UnpublishedEntry, err error) {
	ctx = observability.WithOperation(ctx, "getUnpublishedEntry")
	start := time.Now()
	defer func() { b.observe(ctx, "getUnpublishedEntry", start, err) }()

	key, err := b.resolveKey(req)
	if err != nil {
		return nil, err
	}
	ctx = observability.WithEntryKey(ctx, key.String())
	branch := key.Branch(b.branchPrefix())

	wf, err := b.client.WorkflowStatus(ctx, branch)
	if err != nil {
		return nil, err
	}

	resolved := b.entryFromWorkflow(key, wf)

	results := runOrdered(ctx, b.fetchSem, wf.MediaFiles, func(ctx context.Context, p string) (*vcs.FileMetadata, error) {
		return b.client.FileMetadata(ctx, p, vcs.ReadOptions{Branch: branch})
	})
	for i, p := range wf.MediaFiles {
		d := &resolved.MediaFiles[i]
		if results[i].Err != nil {
			observability.WarnContext(ctx, "media descriptor resolution failed, using fallback",
				logfields.Path(p),
				logfields.Error(results[i].Err))
			d.URL = b.fallbackURL(path.Base(p))
			continue
		}
		meta := results[i].Value
		d.ID = meta.ID
		d.Size = meta.Size
		d.URL = meta.DownloadURL
		if d.URL == "" {
			d.URL = b.fallbackURL(path.Base(p))
		}
	}
	return &resolved, nil
}

// UpdateWorkflowStatus moves an entry to a new editorial status. Guarded by
// the workflow lock.
func (b *Backend) UpdateWorkflowStatus(ctx context.Context, req UnpublishedEntryRequest, status string) (err error) {
	ctx = observability.WithOperation(ctx, opUpdateWorkflowStatus)
	start := time.Now()
	defer func() { b.observe(ctx, opUpdateWorkflowStatus, start, err) }()

	if status == "" {
		return ferrors.ValidationError("workflow status must not be empty").Build()
	}
	key, err := b.resolveKey(req)
	if err != nil {
		return err
	}
	ctx = observability.WithEntryKey(ctx, key.String())

	release, err := b.guard(ctx, opUpdateWorkflowStatus)
	if err != nil {
		return err
	}
	defer release()

	branch := key.Branch(b.branchPrefix())
	wf, err := b.client.WorkflowStatus(ctx, branch)
	if err != nil {
		return err
	}

	from := wf.Status
	wf.Status = status
	if err := b.client.SetWorkflowStatus(ctx, branch, *wf); err != nil {
		return err
	}

	b.recordTransition(ctx, key, from, status)
	return nil
}

// DeleteUnpublishedEntry discards an entry's workflow branch. Guarded by the
// workflow lock.
func (b *Backend) DeleteUnpublishedEntry(ctx context.Context, req UnpublishedEntryRequest) (err error) {
	ctx = observability.WithOperation(ctx, opDeleteUnpublishedEntry)
	start := time.Now()
	defer func() { b.observe(ctx, opDeleteUnpublishedEntry, start, err) }()

	key, err := b.resolveKey(req)
	if err != nil {
		return err
	}
	ctx = observability.WithEntryKey(ctx, key.String())

	release, err := b.guard(ctx, opDeleteUnpublishedEntry)
	if err != nil {
		return err
	}
	defer release()

	branch := key.Branch(b.branchPrefix())
	from := b.statusOf(ctx, branch)

	if err := b.client.DeleteBranch(ctx, branch); err != nil {
		return err
	}

	b.recordTransition(ctx, key, from, "deleted")
	return nil
}

// PublishUnpublishedEntry merges an entry's workflow branch into the
// published branch and removes the branch. Guarded by the workflow lock.
func (b *Backend) PublishUnpublishedEntry(ctx context.Context, req UnpublishedEntryRequest) (err error) {
	ctx = observability.WithOperation(ctx, opPublishUnpublishedEntry)
	start := time.Now()
	defer func() { b.observe(ctx, opPublishUnpublishedEntry, start, err) }()

	key, err := b.resolveKey(req)
	if err != nil {
		return err
	}
	ctx = observability.WithEntryKey(ctx, key.String())

	release, err := b.guard(ctx, opPublishUnpublishedEntry)
	if err != nil {
		return err
	}
	defer release()

	branch := key.Branch(b.branchPrefix())
	from := b.statusOf(ctx, branch)

	if err := b.client.MergeBranch(ctx, branch, "Publish "+key.String()); err != nil {
		return err
	}

	// The content is live; a leftover branch is cleanup, not failure.
	if derr := b.client.DeleteBranch(ctx, branch); derr != nil {
		observability.WarnContext(ctx, "could not delete merged workflow branch",
			logfields.Branch(branch),
			logfields.Error(derr))
	}

	b.recordTransition(ctx, key, from, "published")
	return nil
}

// statusOf reads the current workflow status for transition records,
// tolerating unreadable metadata.
func (b *Backend) statusOf(ctx context.Context, branch string) string {
	wf, err := b.client.WorkflowStatus(ctx, branch)
	if err != nil {
		observability.DebugContext(ctx, "could not read workflow status",
			logfields.Branch(branch),
			logfields.Error(err))
		return ""
	}
	return wf.Status
}

// recordTransition records a completed transition in metrics, the audit log
// and the event publisher. The remote mutation already happened, so side
// effect failures are logged, never returned.
func (b *Backend) recordTransition(ctx context.Context, key contentkey.Key, from, to string) {
	b.recorder.IncWorkflowTransition(from, to)

	actor := b.actorLogin()
	if b.audit != nil {
		if err := b.audit.Append(ctx, key.String(), from, to, actor); err != nil {
			observability.WarnContext(ctx, "audit append failed", logfields.Error(err))
		}
	}
	if b.publisher != nil {
		evt := events.WorkflowTransition{
			Key:        key.String(),
			Branch:     key.Branch(b.branchPrefix()),
			From:       from,
			To:         to,
			Actor:      actor,
			OccurredAt: time.Now().UTC(),
		}
		if err := b.publisher.PublishTransition(ctx, evt); err != nil {
			observability.WarnContext(ctx, "transition publish failed", logfields.Error(err))
		}
	}

	observability.InfoContext(ctx, "workflow transition", logfields.Status(to))
}
