package vcs

import "time"

// User identifies the authenticated account behind the API token.
type User struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatar_url"`
}

// FileEntry is the identity+path pair returned by folder listings.
type FileEntry struct {
	ID   string // git blob id
	Path string
	Size int64
}

// FileMetadata describes a file without its content.
type FileMetadata struct {
	ID          string
	Path        string
	Size        int64
	DownloadURL string // direct URL known to the remote, if any
}

// MediaFileDescriptor is the remote identity of an asset, resolved lazily
// into a usable display URL or raw bytes only when needed.
type MediaFileDescriptor struct {
	ID   string
	Path string
	Size int64
	URL  string // already-known remote URL, used as fallback
}

// ReadOptions qualifies single-file reads.
type ReadOptions struct {
	Branch string // empty means the default branch
}

// ListOptions qualifies folder listings.
type ListOptions struct {
	Branch    string
	Recursive bool
}

// ChangeFile is one file inside a changeset. Content is ignored when Delete
// is set.
type ChangeFile struct {
	Path    string
	Content []byte
	Delete  bool
}

// Changeset is a batch of file writes applied as one commit.
type Changeset struct {
	Branch    string // target branch; empty means the default branch
	NewBranch string // when set, the commit creates this branch off Branch
	Message   string
	Files     []ChangeFile
}

// BranchWorkflow is the editorial metadata stored with a workflow branch.
type BranchWorkflow struct {
	Branch      string    `yaml:"-"`
	Status      string    `yaml:"status"`
	Collection  string    `yaml:"collection"`
	Slug        string    `yaml:"slug"`
	Description string    `yaml:"description,omitempty"`
	DataFiles   []string  `yaml:"data_files"`
	MediaFiles  []string  `yaml:"media_files,omitempty"`
	UpdatedAt   time.Time `yaml:"updated_at"`
}

// Workflow status values. The set is open: the remote may carry others.
const (
	StatusDraft          = "draft"
	StatusPendingReview  = "pending_review"
	StatusPendingPublish = "pending_publish"
)

// DeployStatus is one CI status record attached to a branch head.
type DeployStatus struct {
	Context   string `json:"context"`
	State     string `json:"status"` // success|pending|failure passthrough
	TargetURL string `json:"target_url"`
}
