package backend

import (
	"context"
	"time"

	"git.home.luguber.info/inful/cmsbridge/internal/config"
	ferrors "git.home.luguber.info/inful/cmsbridge/internal/foundation/errors"
	"git.home.luguber.info/inful/cmsbridge/internal/vcs"
)

// fakeClient implements vcs.Client with per-method hooks. Unset hooks fail
// the call, so each test wires only what it exercises.
type fakeClient struct {
	currentUser          func(ctx context.Context) (*vcs.User, error)
	readFile             func(ctx context.Context, path string, opts vcs.ReadOptions) ([]byte, error)
	fileMetadata         func(ctx context.Context, path string, opts vcs.ReadOptions) (*vcs.FileMetadata, error)
	listFiles            func(ctx context.Context, folder string, opts vcs.ListOptions) ([]vcs.FileEntry, error)
	listWorkflowBranches func(ctx context.Context, prefix string) ([]string, error)
	persistFiles         func(ctx context.Context, change vcs.Changeset) error
	deleteFiles          func(ctx context.Context, paths []string, message, branch string) error
	workflowStatus       func(ctx context.Context, branch string) (*vcs.BranchWorkflow, error)
	setWorkflowStatus    func(ctx context.Context, branch string, wf vcs.BranchWorkflow) error
	deleteBranch         func(ctx context.Context, branch string) error
	mergeBranch          func(ctx context.Context, branch, message string) error
	branchStatuses       func(ctx context.Context, branch string) ([]vcs.DeployStatus, error)
}

func notWired(method string) error {
	return ferrors.InternalError("fake client method not wired").
		WithContext("method", method).
		Build()
}

func (f *fakeClient) CurrentUser(ctx context.Context) (*vcs.User, error) {
	if f.currentUser == nil {
		return nil, notWired("CurrentUser")
	}
	return f.currentUser(ctx)
}

func (f *fakeClient) ReadFile(ctx context.Context, path string, opts vcs.ReadOptions) ([]byte, error) {
	if f.readFile == nil {
		return nil, notWired("ReadFile")
	}
	return f.readFile(ctx, path, opts)
}

func (f *fakeClient) FileMetadata(ctx context.Context, path string, opts vcs.ReadOptions) (*vcs.FileMetadata, error) {
	if f.fileMetadata == nil {
		return nil, notWired("FileMetadata")
	}
	return f.fileMetadata(ctx, path, opts)
}

func (f *fakeClient) ListFiles(ctx context.Context, folder string, opts vcs.ListOptions) ([]vcs.FileEntry, error) {
	if f.listFiles == nil {
		return nil, notWired("ListFiles")
	}
	return f.listFiles(ctx, folder, opts)
}

func (f *fakeClient) ListWorkflowBranches(ctx context.Context, prefix string) ([]string, error) {
	if f.listWorkflowBranches == nil {
		return nil, notWired("ListWorkflowBranches")
	}
	return f.listWorkflowBranches(ctx, prefix)
}

func (f *fakeClient) PersistFiles(ctx context.Context, change vcs.Changeset) error {
	if f.persistFiles == nil {
		return notWired("PersistFiles")
	}
	return f.persistFiles(ctx, change)
}

func (f *fakeClient) DeleteFiles(ctx context.Context, paths []string, message, branch string) error {
	if f.deleteFiles == nil {
		return notWired("DeleteFiles")
	}
	return f.deleteFiles(ctx, paths, message, branch)
}

func (f *fakeClient) WorkflowStatus(ctx context.Context, branch string) (*vcs.BranchWorkflow, error) {
	if f.workflowStatus == nil {
		return nil, notWired("WorkflowStatus")
	}
	return f.workflowStatus(ctx, branch)
}

func (f *fakeClient) SetWorkflowStatus(ctx context.Context, branch string, wf vcs.BranchWorkflow) error {
	if f.setWorkflowStatus == nil {
		return notWired("SetWorkflowStatus")
	}
	return f.setWorkflowStatus(ctx, branch, wf)
}

func (f *fakeClient) DeleteBranch(ctx context.Context, branch string) error {
	if f.deleteBranch == nil {
		return notWired("DeleteBranch")
	}
	return f.deleteBranch(ctx, branch)
}

func (f *fakeClient) MergeBranch(ctx context.Context, branch, message string) error {
	if f.mergeBranch == nil {
		return notWired("MergeBranch")
	}
	return f.mergeBranch(ctx, branch, message)
}

func (f *fakeClient) BranchStatuses(ctx context.Context, branch string) ([]vcs.DeployStatus, error) {
	if f.branchStatuses == nil {
		return nil, notWired("BranchStatuses")
	}
	return f.branchStatuses(ctx, branch)
}

func testConfig() *config.Config {
	return &config.Config{
		Backend: config.BackendConfig{
			Kind:   config.ClientForgejo,
			Branch: "main",
			Token:  "tok",
		},
		Content: config.ContentConfig{
			MediaFolder:  "static/media",
			PublicFolder: "/media",
		},
		Workflow: config.WorkflowConfig{
			BranchPrefix:     "cms/",
			LockTimeout:      time.Second,
			FetchConcurrency: 4,
		},
	}
}

func newTestBackend(client vcs.Client, opts ...Option) *Backend {
	return New(testConfig(), client, opts...)
}
