package vcs

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/cmsbridge/internal/config"
	ferrors "git.home.luguber.info/inful/cmsbridge/internal/foundation/errors"
	"git.home.luguber.info/inful/cmsbridge/internal/retry"
)

// WorkflowMetaFile is the path, on each workflow branch, of the editorial
// metadata document the adapter maintains alongside the draft's content.
const WorkflowMetaFile = ".cmsbridge/workflow.yml"

// ForgejoClient implements Client against the Forgejo/Gitea REST API.
type ForgejoClient struct {
	*BaseClient
	owner         string
	repo          string
	defaultBranch string
}

// NewForgejoClient creates a Forgejo/Gitea client from backend configuration.
func NewForgejoClient(cfg config.BackendConfig) (*ForgejoClient, error) {
	if cfg.Kind != config.ClientForgejo {
		return nil, ferrors.ConfigError("invalid backend kind for Forgejo client").
			WithContext("kind", string(cfg.Kind)).
			Build()
	}
	if cfg.Token == "" {
		return nil, ferrors.AuthError("Forgejo client requires token authentication").Build()
	}

	base := NewBaseClient(&http.Client{Timeout: 30 * time.Second}, cfg.APIURL, cfg.Token, retry.NewPolicy(cfg.Retry))
	// Forgejo uses "token " auth prefix instead of "Bearer "
	base.SetAuthHeaderPrefix("token ")

	return &ForgejoClient{
		BaseClient:    base,
		owner:         cfg.Owner,
		repo:          cfg.Repo,
		defaultBranch: cfg.Branch,
	}, nil
}

func (c *ForgejoClient) repoPath() string {
	return fmt.Sprintf("/repos/%s/%s", c.owner, c.repo)
}

func (c *ForgejoClient) ref(branch string) string {
	if branch == "" {
		return c.defaultBranch
	}
	return branch
}

// forgejoUser mirrors the Forgejo user schema.
type forgejoUser struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	FullName  string `json:"full_name"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatar_url"`
}

// CurrentUser returns the profile behind the API token.
func (c *ForgejoClient) CurrentUser(ctx context.Context) (*User, error) {
	req, err := c.NewRequest(ctx, http.MethodGet, "/user", nil)
	if err != nil {
		return nil, err
	}

	var u forgejoUser
	if err := c.DoRequest(req, &u); err != nil {
		return nil, err
	}
	return &User{ID: u.ID, Login: u.Login, Name: u.FullName, Email: u.Email, AvatarURL: u.AvatarURL}, nil
}

// forgejoContents mirrors the contents-API response for a single file.
type forgejoContents struct {
	Path        string `json:"path"`
	SHA         string `json:"sha"`
	Size        int64  `json:"size"`
	DownloadURL string `json:"download_url"`
}

func (c *ForgejoClient) contents(ctx context.Context, path, branch string) (*forgejoContents, error) {
	endpoint := fmt.Sprintf("%s/contents/%s?ref=%s", c.repoPath(), escapePath(path), url.QueryEscape(c.ref(branch)))
	req, err := c.NewRequest(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	var fc forgejoContents
	if err := c.DoRequest(req, &fc); err != nil {
		return nil, err
	}
	return &fc, nil
}

// ReadFile reads one file's content via the raw endpoint, which serves the
// bytes directly instead of the contents API's base64 round trip.
func (c *ForgejoClient) ReadFile(ctx context.Context, path string, opts ReadOptions) ([]byte, error) {
	endpoint := fmt.Sprintf("%s/raw/%s?ref=%s", c.repoPath(), escapePath(path), url.QueryEscape(c.ref(opts.Branch)))
	req, err := c.NewRequest(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	return c.DoRequestRaw(req)
}

// FileMetadata reads a file's identity and size without decoding content.
func (c *ForgejoClient) FileMetadata(ctx context.Context, path string, opts ReadOptions) (*FileMetadata, error) {
	fc, err := c.contents(ctx, path, opts.Branch)
	if err != nil {
		return nil, err
	}
	return &FileMetadata{ID: fc.SHA, Path: fc.Path, Size: fc.Size, DownloadURL: fc.DownloadURL}, nil
}

// forgejoTree mirrors the git/trees response.
type forgejoTree struct {
	SHA       string `json:"sha"`
	Truncated bool   `json:"truncated"`
	Page      int    `json:"page"`
	Total     int64  `json:"total_count"`
	Entries   []struct {
		Path string `json:"path"`
		Type string `json:"type"` // blob|tree
		SHA  string `json:"sha"`
		Size int64  `json:"size"`
	} `json:"tree"`
}

// ListFiles lists files under a folder using the recursive tree API,
// which resolves a whole listing in one round trip per page.
func (c *ForgejoClient) ListFiles(ctx context.Context, folder string, opts ListOptions) ([]FileEntry, error) {
	folder = strings.Trim(folder, "/")
	prefix := folder
	if prefix != "" {
		prefix += "/"
	}

	var entries []FileEntry
	page := 1
	for {
		endpoint := fmt.Sprintf("%s/git/trees/%s?recursive=true&page=%d", c.repoPath(), url.PathEscape(c.ref(opts.Branch)), page)
		req, err := c.NewRequest(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}

		var tree forgejoTree
		if err := c.DoRequest(req, &tree); err != nil {
			return nil, err
		}

		for _, e := range tree.Entries {
			if e.Type != "blob" {
				continue
			}
			if prefix != "" && !strings.HasPrefix(e.Path, prefix) {
				continue
			}
			if !opts.Recursive && prefix != "" {
				rest := strings.TrimPrefix(e.Path, prefix)
				if strings.Contains(rest, "/") {
					continue
				}
			}
			entries = append(entries, FileEntry{ID: e.SHA, Path: e.Path, Size: e.Size})
		}

		if !tree.Truncated {
			break
		}
		page++
	}

	return entries, nil
}

// forgejoBranch mirrors the branch listing schema.
type forgejoBranch struct {
	Name string `json:"name"`
}

// ListWorkflowBranches returns all branches carrying the workflow prefix.
func (c *ForgejoClient) ListWorkflowBranches(ctx context.Context, prefix string) ([]string, error) {
	var branches []string
	page := 1
	limit := 50

	for {
		endpoint := fmt.Sprintf("%s/branches?page=%d&limit=%d", c.repoPath(), page, limit)
		req, err := c.NewRequest(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}

		var pageBranches []forgejoBranch
		if err := c.DoRequest(req, &pageBranches); err != nil {
			return nil, err
		}
		if len(pageBranches) == 0 {
			break
		}

		for _, b := range pageBranches {
			if strings.HasPrefix(b.Name, prefix) {
				branches = append(branches, b.Name)
			}
		}

		if len(pageBranches) < limit {
			break
		}
		page++
	}

	return branches, nil
}

// forgejoChangeFile is one operation inside the batch contents API.
type forgejoChangeFile struct {
	Operation string `json:"operation"` // create|update|delete
	Path      string `json:"path"`
	Content   string `json:"content,omitempty"` // base64
	SHA       string `json:"sha,omitempty"`
}

// forgejoChangeRequest is the batch contents API body.
type forgejoChangeRequest struct {
	Branch    string              `json:"branch,omitempty"`
	NewBranch string              `json:"new_branch,omitempty"`
	Message   string              `json:"message"`
	Files     []forgejoChangeFile `json:"files"`
}

// PersistFiles applies a changeset as one commit via the batch contents API.
// The remote requires the current blob SHA for updates and deletes, so each
// file's existence is probed first on the target branch.
func (c *ForgejoClient) PersistFiles(ctx context.Context, change Changeset) error {
	if len(change.Files) == 0 {
		return ferrors.ValidationError("changeset must contain at least one file").Build()
	}

	// SHA probes run against the branch the commit will be based on.
	probeBranch := change.Branch
	files := make([]forgejoChangeFile, 0, len(change.Files))
	for _, f := range change.Files {
		meta, err := c.FileMetadata(ctx, f.Path, ReadOptions{Branch: probeBranch})
		switch {
		case err == nil && f.Delete:
			files = append(files, forgejoChangeFile{Operation: "delete", Path: f.Path, SHA: meta.ID})
		case err == nil:
			files = append(files, forgejoChangeFile{
				Operation: "update",
				Path:      f.Path,
				SHA:       meta.ID,
				Content:   base64.StdEncoding.EncodeToString(f.Content),
			})
		case ferrors.HasCategory(err, ferrors.CategoryNotFound) && !f.Delete:
			files = append(files, forgejoChangeFile{
				Operation: "create",
				Path:      f.Path,
				Content:   base64.StdEncoding.EncodeToString(f.Content),
			})
		case ferrors.HasCategory(err, ferrors.CategoryNotFound) && f.Delete:
			return ferrors.NotFoundError("cannot delete missing file").
				WithContext("path", f.Path).
				Build()
		default:
			return err
		}
	}

	body := forgejoChangeRequest{
		Branch:    c.ref(change.Branch),
		NewBranch: change.NewBranch,
		Message:   change.Message,
		Files:     files,
	}

	req, err := c.NewRequest(ctx, http.MethodPost, c.repoPath()+"/contents", body)
	if err != nil {
		return err
	}
	return c.DoRequest(req, nil)
}

// DeleteFiles removes files in one commit.
func (c *ForgejoClient) DeleteFiles(ctx context.Context, paths []string, message, branch string) error {
	if len(paths) == 0 {
		return ferrors.ValidationError("no paths to delete").Build()
	}

	change := Changeset{Branch: branch, Message: message}
	for _, p := range paths {
		change.Files = append(change.Files, ChangeFile{Path: p, Delete: true})
	}
	return c.PersistFiles(ctx, change)
}

// WorkflowStatus reads the editorial metadata document from a workflow branch.
func (c *ForgejoClient) WorkflowStatus(ctx context.Context, branch string) (*BranchWorkflow, error) {
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

// SetWorkflowStatus rewrites the editorial metadata document on the branch.
func (c *ForgejoClient) SetWorkflowStatus(ctx context.Context, branch string, wf BranchWorkflow) error {
	wf.UpdatedAt = time.Now().UTC()
	data, err := yaml.Marshal(&wf)
	if err != nil {
		return ferrors.VCSError("failed to serialize workflow metadata").
			WithRetry(ferrors.RetryNever).
			WithCause(err).
			Build()
	}

	return c.PersistFiles(ctx, Changeset{
		Branch:  branch,
		Message: fmt.Sprintf("Set workflow status to %s", wf.Status),
		Files:   []ChangeFile{{Path: WorkflowMetaFile, Content: data}},
	})
}

// DeleteBranch removes a workflow branch.
func (c *ForgejoClient) DeleteBranch(ctx context.Context, branch string) error {
	endpoint := fmt.Sprintf("%s/branches/%s", c.repoPath(), url.PathEscape(branch))
	req, err := c.NewRequest(ctx, http.MethodDelete, endpoint, nil)
	if err != nil {
		return err
	}
	return c.DoRequest(req, nil)
}

// forgejoPull mirrors the subset of the pull-request schema we need.
type forgejoPull struct {
	Number int64 `json:"number"`
	Head   struct {
		Ref string `json:"ref"`
	} `json:"head"`
}

// createPull opens a pull request from a workflow branch onto the default
// branch.
func (c *ForgejoClient) createPull(ctx context.Context, branch, title string) (*forgejoPull, error) {
	body := map[string]string{
		"title": title,
		"head":  branch,
		"base":  c.defaultBranch,
	}
	req, err := c.NewRequest(ctx, http.MethodPost, c.repoPath()+"/pulls", body)
	if err != nil {
		return nil, err
	}

	var pull forgejoPull
	if err := c.DoRequest(req, &pull); err != nil {
		return nil, err
	}
	return &pull, nil
}

// findOpenPull looks up the open pull request whose head is the given branch.
func (c *ForgejoClient) findOpenPull(ctx context.Context, branch string) (*forgejoPull, error) {
	page := 1
	limit := 50
	for {
		endpoint := fmt.Sprintf("%s/pulls?state=open&page=%d&limit=%d", c.repoPath(), page, limit)
		req, err := c.NewRequest(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}

		var pulls []forgejoPull
		if err := c.DoRequest(req, &pulls); err != nil {
			return nil, err
		}
		for i := range pulls {
			if pulls[i].Head.Ref == branch {
				return &pulls[i], nil
			}
		}
		if len(pulls) < limit {
			return nil, ferrors.NotFoundError("no open pull request for branch").
				WithContext("branch", branch).
				Build()
		}
		page++
	}
}

// MergeBranch publishes a workflow branch by opening a pull request against
// the default branch and merging it immediately. When the remote reports a
// pull request already exists for the branch (a prior publish got as far as
// creating one), that request is reused instead of failing.
func (c *ForgejoClient) MergeBranch(ctx context.Context, branch, message string) error {
	pull, err := c.createPull(ctx, branch, message)
	if ferrors.HasCategory(err, ferrors.CategoryAlreadyExists) {
		pull, err = c.findOpenPull(ctx, branch)
	}
	if err != nil {
		return err
	}

	mergeBody := map[string]string{
		"Do":              "squash",
		"MergeTitleField": message,
	}
	endpoint := fmt.Sprintf("%s/pulls/%s/merge", c.repoPath(), strconv.FormatInt(pull.Number, 10))
	req, err := c.NewRequest(ctx, http.MethodPost, endpoint, mergeBody)
	if err != nil {
		return err
	}
	return c.DoRequest(req, nil)
}

// forgejoStatus mirrors the commit status schema.
type forgejoStatus struct {
	Context   string `json:"context"`
	Status    string `json:"status"`
	TargetURL string `json:"target_url"`
}

// BranchStatuses returns the CI status records attached to a branch head.
func (c *ForgejoClient) BranchStatuses(ctx context.Context, branch string) ([]DeployStatus, error) {
	endpoint := fmt.Sprintf("%s/commits/%s/statuses", c.repoPath(), url.PathEscape(c.ref(branch)))
	req, err := c.NewRequest(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	var statuses []forgejoStatus
	if err := c.DoRequest(req, &statuses); err != nil {
		return nil, err
	}

	out := make([]DeployStatus, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, DeployStatus{Context: s.Context, State: s.State(), TargetURL: s.TargetURL})
	}
	return out, nil
}

// State normalizes the remote's status value.
func (s forgejoStatus) State() string {
	return strings.ToLower(s.Status)
}

// escapePath escapes a repository path for use inside a contents endpoint,
// keeping the path separators intact.
func escapePath(p string) string {
	segments := strings.Split(strings.Trim(p, "/"), "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.Join(segments, "/")
}
