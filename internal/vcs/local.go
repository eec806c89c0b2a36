package vcs

import (
	"context"
	"errors"
	"strings"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/cmsbridge/internal/config"
	ferrors "git.home.luguber.info/inful/cmsbridge/internal/foundation/errors"
)

// LocalClient is a read-only Client over an on-disk clone, for development
// and environments without API access to the remote. Workflow mutations are
// not supported; they require the REST client.
type LocalClient struct {
	repo          *gogit.Repository
	defaultBranch string
}

// NewLocalClient opens the repository at the configured path.
func NewLocalClient(cfg config.BackendConfig) (*LocalClient, error) {
	repo, err := gogit.PlainOpen(cfg.RepoPath)
	if err != nil {
		return nil, ferrors.VCSError("could not open local repository").
			WithRetry(ferrors.RetryNever).
			WithCause(err).
			WithContext("path", cfg.RepoPath).
			Build()
	}
	return &LocalClient{repo: repo, defaultBranch: cfg.Branch}, nil
}

// CurrentUser reads the committer identity from the repository configuration.
func (c *LocalClient) CurrentUser(_ context.Context) (*User, error) {
	cfg, err := c.repo.Config()
	if err != nil || cfg.User.Name == "" {
		return &User{Login: "local", Name: "Local User"}, nil
	}
	return &User{Login: cfg.User.Name, Name: cfg.User.Name, Email: cfg.User.Email}, nil
}

// branchTree resolves a branch name to its head commit tree.
func (c *LocalClient) branchTree(branch string) (*object.Tree, error) {
	if branch == "" {
		branch = c.defaultBranch
	}
	ref, err := c.repo.Reference(plumbing.NewBranchReferenceName(branch), true)
	if err != nil {
		return nil, ferrors.NotFoundError("branch not found").
			WithCause(err).
			WithContext("branch", branch).
			Build()
	}
	commit, err := c.repo.CommitObject(ref.Hash())
	if err != nil {
		return nil, ferrors.VCSError("could not read branch head").
			WithRetry(ferrors.RetryNever).
			WithCause(err).
			WithContext("branch", branch).
			Build()
	}
	tree, err := commit.Tree()
	if err != nil {
		return nil, ferrors.VCSError("could not read commit tree").
			WithRetry(ferrors.RetryNever).
			WithCause(err).
			Build()
	}
	return tree, nil
}

// ReadFile reads one file's raw content from a branch head.
func (c *LocalClient) ReadFile(_ context.Context, path string, opts ReadOptions) ([]byte, error) {
	tree, err := c.branchTree(opts.Branch)
	if err != nil {
		return nil, err
	}
	file, err := tree.File(path)
	if err != nil {
		if errors.Is(err, object.ErrFileNotFound) {
			return nil, ferrors.NotFoundError("file not found").
				WithContext("path", path).
				Build()
		}
		return nil, ferrors.VCSError("could not read file").
			WithRetry(ferrors.RetryNever).
			WithCause(err).
			WithContext("path", path).
			Build()
	}
	content, err := file.Contents()
	if err != nil {
		return nil, ferrors.VCSError("could not read file contents").
			WithRetry(ferrors.RetryNever).
			WithCause(err).
			WithContext("path", path).
			Build()
	}
	return []byte(content), nil
}

// FileMetadata reads a file's blob identity and size.
func (c *LocalClient) FileMetadata(_ context.Context, path string, opts ReadOptions) (*FileMetadata, error) {
	tree, err := c.branchTree(opts.Branch)
	if err != nil {
		return nil, err
	}
	file, err := tree.File(path)
	if err != nil {
		if errors.Is(err, object.ErrFileNotFound) {
			return nil, ferrors.NotFoundError("file not found").
				WithContext("path", path).
				Build()
		}
		return nil, ferrors.VCSError("could not stat file").
			WithRetry(ferrors.RetryNever).
			WithCause(err).
			WithContext("path", path).
			Build()
	}
	return &FileMetadata{ID: file.Hash.String(), Path: path, Size: file.Size}, nil
}

// ListFiles walks the branch tree and returns blobs under the folder.
func (c *LocalClient) ListFiles(_ context.Context, folder string, opts ListOptions) ([]FileEntry, error) {
	tree, err := c.branchTree(opts.Branch)
	if err != nil {
		return nil, err
	}

	folder = strings.Trim(folder, "/")
	prefix := folder
	if prefix != "" {
		prefix += "/"
	}

	var entries []FileEntry
	err = tree.Files().ForEach(func(f *object.File) error {
		if prefix != "" && !strings.HasPrefix(f.Name, prefix) {
			return nil
		}
		if !opts.Recursive && prefix != "" {
			rest := strings.TrimPrefix(f.Name, prefix)
			if strings.Contains(rest, "/") {
				return nil
			}
		}
		entries = append(entries, FileEntry{ID: f.Hash.String(), Path: f.Name, Size: f.Size})
		return nil
	})
	if err != nil {
		return nil, ferrors.VCSError("could not walk tree").
			WithRetry(ferrors.RetryNever).
			WithCause(err).
			Build()
	}
	return entries, nil
}

// ListWorkflowBranches enumerates local branch refs carrying the prefix.
func (c *LocalClient) ListWorkflowBranches(_ context.Context, prefix string) ([]string, error) {
	iter, err := c.repo.Branches()
	if err != nil {
		return nil, ferrors.VCSError("could not list branches").
			WithRetry(ferrors.RetryNever).
			WithCause(err).
			Build()
	}
	defer iter.Close()

	var branches []string
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		name := ref.Name().Short()
		if strings.HasPrefix(name, prefix) {
			branches = append(branches, name)
		}
		return nil
	})
	if err != nil {
		return nil, ferrors.VCSError("could not iterate branches").
			WithRetry(ferrors.RetryNever).
			WithCause(err).
			Build()
	}
	return branches, nil
}

// WorkflowStatus reads the editorial metadata document from a local branch.
func (c *LocalClient) WorkflowStatus(ctx context.Context, branch string) (*BranchWorkflow, error) {
	data, err := c.ReadFile(ctx, WorkflowMetaFile, ReadOptions{Branch: branch})
	if err != nil {
		return nil, err
	}
	var wf BranchWorkflow
	if err := yaml.Unmarshal(data, &wf); err != nil {
		return nil, ferrors.VCSError("failed to parse workflow metadata").
			WithRetry(ferrors.RetryNever).
			WithCause(err).
			WithContext("branch", branch).
			Build()
	}
	wf.Branch = branch
	return &wf, nil
}

// The local client is read-only; mutations need the REST client.

func (c *LocalClient) PersistFiles(context.Context, Changeset) error { return ErrUnsupported }

func (c *LocalClient) DeleteFiles(context.Context, []string, string, string) error {
	return ErrUnsupported
}

func (c *LocalClient) SetWorkflowStatus(context.Context, string, BranchWorkflow) error {
	return ErrUnsupported
}

func (c *LocalClient) DeleteBranch(context.Context, string) error { return ErrUnsupported }

func (c *LocalClient) MergeBranch(context.Context, string, string) error { return ErrUnsupported }

// BranchStatuses reports no CI statuses for local clones.
func (c *LocalClient) BranchStatuses(context.Context, string) ([]DeployStatus, error) {
	return nil, nil
}
