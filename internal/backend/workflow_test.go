package backend

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/cmsbridge/internal/events"
	"git.home.luguber.info/inful/cmsbridge/internal/eventstore"
	ferrors "git.home.luguber.info/inful/cmsbridge/internal/foundation/errors"
	"git.home.luguber.info/inful/cmsbridge/internal/vcs"
)

// fakeAudit records appended transitions.
type fakeAudit struct {
	mu      sync.Mutex
	records []eventstore.Transition
}

func (f *fakeAudit) Append(_ context.Context, key, from, to, actor string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, eventstore.Transition{Key: key, FromStatus: from, ToStatus: to, Actor: actor})
	return nil
}

func (f *fakeAudit) ByKey(context.Context, string) ([]eventstore.Transition, error) { return nil, nil }
func (f *fakeAudit) Range(context.Context, time.Time, time.Time) ([]eventstore.Transition, error) {
	return nil, nil
}
func (f *fakeAudit) Close() error { return nil }

// fakePublisher records published transitions.
type fakePublisher struct {
	mu     sync.Mutex
	events []events.WorkflowTransition
}

func (f *fakePublisher) PublishTransition(_ context.Context, t events.WorkflowTransition) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, t)
	return nil
}

func (f *fakePublisher) Close() error { return nil }

func draftWorkflow(branch string) *vcs.BranchWorkflow {
	return &vcs.BranchWorkflow{
		Branch:     branch,
		Status:     vcs.StatusDraft,
		Collection: "posts",
		Slug:       "hello",
		DataFiles:  []string{"content/posts/hello.md"},
	}
}

func TestWorkflowLockTimeoutNamesOperation(t *testing.T) {
	client := &fakeClient{}
	b := newTestBackend(client)
	b.lock = newWorkflowLock(50 * time.Millisecond)

	release, err := b.lock.acquire(context.Background(), "test-holder")
	require.NoError(t, err)
	defer release()

	err = b.UpdateWorkflowStatus(context.Background(), UnpublishedEntryRequest{ID: "posts/hello"}, vcs.StatusPendingReview)
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryLock))

	classified, ok := ferrors.AsClassified(err)
	require.True(t, ok)
	op, _ := classified.Context().GetString("operation")
	assert.Equal(t, opUpdateWorkflowStatus, op)
}

func TestWorkflowLockCanceledContext(t *testing.T) {
	b := newTestBackend(&fakeClient{})

	release, err := b.lock.acquire(context.Background(), "test-holder")
	require.NoError(t, err)
	defer release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = b.DeleteUnpublishedEntry(ctx, UnpublishedEntryRequest{ID: "posts/hello"})
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryLock))
}

func TestWorkflowMutationsAreSerialized(t *testing.T) {
	var inFlight, peak atomic.Int32

	client := &fakeClient{
		workflowStatus: func(_ context.Context, branch string) (*vcs.BranchWorkflow, error) {
			return draftWorkflow(branch), nil
		},
		setWorkflowStatus: func(context.Context, string, vcs.BranchWorkflow) error {
			n := inFlight.Add(1)
			for {
				old := peak.Load()
				if n <= old || peak.CompareAndSwap(old, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			inFlight.Add(-1)
			return nil
		},
	}
	b := newTestBackend(client)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := b.UpdateWorkflowStatus(context.Background(), UnpublishedEntryRequest{ID: "posts/hello"}, vcs.StatusPendingReview)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), peak.Load(), "guarded mutations must not overlap")
}

func TestUpdateWorkflowStatusRecordsTransition(t *testing.T) {
	var set vcs.BranchWorkflow
	client := &fakeClient{
		workflowStatus: func(_ context.Context, branch string) (*vcs.BranchWorkflow, error) {
			return draftWorkflow(branch), nil
		},
		setWorkflowStatus: func(_ context.Context, _ string, wf vcs.BranchWorkflow) error {
			set = wf
			return nil
		},
	}
	audit := &fakeAudit{}
	pub := &fakePublisher{}
	b := newTestBackend(client, WithAuditStore(audit), WithPublisher(pub))

	err := b.UpdateWorkflowStatus(context.Background(),
		UnpublishedEntryRequest{Collection: "posts", Slug: "hello"},
		vcs.StatusPendingPublish)
	require.NoError(t, err)

	assert.Equal(t, vcs.StatusPendingPublish, set.Status)
	assert.Equal(t, "posts", set.Collection)

	require.Len(t, audit.records, 1)
	assert.Equal(t, "posts/hello", audit.records[0].Key)
	assert.Equal(t, vcs.StatusDraft, audit.records[0].FromStatus)
	assert.Equal(t, vcs.StatusPendingPublish, audit.records[0].ToStatus)

	require.Len(t, pub.events, 1)
	assert.Equal(t, "cms/posts/hello", pub.events[0].Branch)
	assert.Equal(t, vcs.StatusPendingPublish, pub.events[0].To)
}

func TestUpdateWorkflowStatusRejectsEmptyStatus(t *testing.T) {
	b := newTestBackend(&fakeClient{})

	err := b.UpdateWorkflowStatus(context.Background(), UnpublishedEntryRequest{ID: "posts/hello"}, "")
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryValidation))
}

func TestDeleteUnpublishedEntry(t *testing.T) {
	var deleted string
	client := &fakeClient{
		workflowStatus: func(_ context.Context, branch string) (*vcs.BranchWorkflow, error) {
			return draftWorkflow(branch), nil
		},
		deleteBranch: func(_ context.Context, branch string) error {
			deleted = branch
			return nil
		},
	}
	audit := &fakeAudit{}
	b := newTestBackend(client, WithAuditStore(audit))

	err := b.DeleteUnpublishedEntry(context.Background(), UnpublishedEntryRequest{ID: "posts/hello"})
	require.NoError(t, err)
	assert.Equal(t, "cms/posts/hello", deleted)

	require.Len(t, audit.records, 1)
	assert.Equal(t, "deleted", audit.records[0].ToStatus)
	assert.Equal(t, vcs.StatusDraft, audit.records[0].FromStatus)
}

func TestPublishUnpublishedEntry(t *testing.T) {
	var merged, deleted string
	client := &fakeClient{
		workflowStatus: func(_ context.Context, branch string) (*vcs.BranchWorkflow, error) {
			wf := draftWorkflow(branch)
			wf.Status = vcs.StatusPendingPublish
			return wf, nil
		},
		mergeBranch: func(_ context.Context, branch, message string) error {
			merged = branch
			assert.Contains(t, message, "posts/hello")
			return nil
		},
		deleteBranch: func(_ context.Context, branch string) error {
			deleted = branch
			return nil
		},
	}
	audit := &fakeAudit{}
	b := newTestBackend(client, WithAuditStore(audit))

	err := b.PublishUnpublishedEntry(context.Background(), UnpublishedEntryRequest{ID: "posts/hello"})
	require.NoError(t, err)
	assert.Equal(t, "cms/posts/hello", merged)
	assert.Equal(t, "cms/posts/hello", deleted)

	require.Len(t, audit.records, 1)
	assert.Equal(t, "published", audit.records[0].ToStatus)
	assert.Equal(t, vcs.StatusPendingPublish, audit.records[0].FromStatus)
}

func TestPublishToleratesBranchCleanupFailure(t *testing.T) {
	client := &fakeClient{
		workflowStatus: func(_ context.Context, branch string) (*vcs.BranchWorkflow, error) {
			return draftWorkflow(branch), nil
		},
		mergeBranch: func(context.Context, string, string) error { return nil },
		deleteBranch: func(context.Context, string) error {
			return ferrors.VCSError("remote refused").Build()
		},
	}
	b := newTestBackend(client)

	err := b.PublishUnpublishedEntry(context.Background(), UnpublishedEntryRequest{ID: "posts/hello"})
	assert.NoError(t, err, "cleanup failure after merge must not fail the publish")
}

func TestGetUnpublishedEntryRequiresIdentity(t *testing.T) {
	// no hooks wired: any remote call would fail the test via notWired
	b := newTestBackend(&fakeClient{})

	_, err := b.GetUnpublishedEntry(context.Background(), UnpublishedEntryRequest{})
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryValidation))
}

func TestGetUnpublishedEntryResolvesMedia(t *testing.T) {
	client := &fakeClient{
		workflowStatus: func(_ context.Context, branch string) (*vcs.BranchWorkflow, error) {
			wf := draftWorkflow(branch)
			wf.MediaFiles = []string{"static/media/a.png", "static/media/b.png"}
			return wf, nil
		},
		fileMetadata: func(_ context.Context, path string, opts vcs.ReadOptions) (*vcs.FileMetadata, error) {
			if path == "static/media/a.png" {
				return &vcs.FileMetadata{ID: "sha-a", Path: path, Size: 3, DownloadURL: "https://git/raw/a.png"}, nil
			}
			return nil, ferrors.NotFoundError("missing").Build()
		},
	}
	b := newTestBackend(client)

	entry, err := b.GetUnpublishedEntry(context.Background(), UnpublishedEntryRequest{ID: "posts/hello"})
	require.NoError(t, err)
	require.Len(t, entry.MediaFiles, 2)

	assert.Equal(t, "https://git/raw/a.png", entry.MediaFiles[0].URL)
	assert.Equal(t, "sha-a", entry.MediaFiles[0].ID)
	// resolution failure falls back to the public-folder URL
	assert.Equal(t, "/media/b.png", entry.MediaFiles[1].URL)
}

func TestListUnpublishedEntriesSkipsUndecodableBranches(t *testing.T) {
	client := &fakeClient{
		listWorkflowBranches: func(context.Context, string) ([]string, error) {
			return []string{"cms/posts/hello", "cms/orphan", "feature/unrelated"}, nil
		},
		workflowStatus: func(_ context.Context, branch string) (*vcs.BranchWorkflow, error) {
			return draftWorkflow(branch), nil
		},
	}
	b := newTestBackend(client)

	entries, err := b.ListUnpublishedEntries(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "posts/hello", entries[0].Key.String())
	assert.Equal(t, vcs.StatusDraft, entries[0].Status)
}

func TestListUnpublishedEntriesSkipsUnreadableMetadata(t *testing.T) {
	client := &fakeClient{
		listWorkflowBranches: func(context.Context, string) ([]string, error) {
			return []string{"cms/posts/good", "cms/posts/broken"}, nil
		},
		workflowStatus: func(_ context.Context, branch string) (*vcs.BranchWorkflow, error) {
			if branch == "cms/posts/broken" {
				return nil, ferrors.VCSError("corrupt metadata").Build()
			}
			return draftWorkflow(branch), nil
		},
	}
	b := newTestBackend(client)

	entries, err := b.ListUnpublishedEntries(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "posts/good", entries[0].Key.String())
}
