// Package vcs defines the capability interface the adapter consumes to talk
// to a git-hosting remote, plus concrete clients: a Forgejo/Gitea REST
// implementation and a read-only local clone implementation.
package vcs

import "context"

// Client is the narrow capability interface over a version-control remote.
// The editorial core never depends on a concrete remote-system client type.
type Client interface {
	// CurrentUser returns the profile behind the configured credentials.
	CurrentUser(ctx context.Context) (*User, error)

	// ReadFile reads one file's raw content.
	ReadFile(ctx context.Context, path string, opts ReadOptions) ([]byte, error)

	// FileMetadata reads a file's identity and size without its content.
	FileMetadata(ctx context.Context, path string, opts ReadOptions) (*FileMetadata, error)

	// ListFiles lists files under a folder.
	ListFiles(ctx context.Context, folder string, opts ListOptions) ([]FileEntry, error)

	// ListWorkflowBranches returns all branch names carrying the prefix.
	ListWorkflowBranches(ctx context.Context, prefix string) ([]string, error)

	// PersistFiles applies a changeset as a single commit.
	PersistFiles(ctx context.Context, change Changeset) error

	// DeleteFiles removes files in one commit on the given branch.
	DeleteFiles(ctx context.Context, paths []string, message, branch string) error

	// WorkflowStatus reads the editorial metadata of a workflow branch.
	WorkflowStatus(ctx context.Context, branch string) (*BranchWorkflow, error)

	// SetWorkflowStatus rewrites the editorial metadata of a workflow branch.
	SetWorkflowStatus(ctx context.Context, branch string, wf BranchWorkflow) error

	// DeleteBranch removes a workflow branch.
	DeleteBranch(ctx context.Context, branch string) error

	// MergeBranch merges a workflow branch into the default branch.
	MergeBranch(ctx context.Context, branch, message string) error

	// BranchStatuses returns the CI status records for a branch head.
	BranchStatuses(ctx context.Context, branch string) ([]DeployStatus, error)
}
