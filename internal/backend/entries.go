package backend

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/cmsbridge/internal/contentkey"
	ferrors "git.home.luguber.info/inful/cmsbridge/internal/foundation/errors"
	"git.home.luguber.info/inful/cmsbridge/internal/logfields"
	"git.home.luguber.info/inful/cmsbridge/internal/observability"
	"git.home.luguber.info/inful/cmsbridge/internal/vcs"
)

// Entry is one content document read from the published branch.
type Entry struct {
	ID   string
	Path string
	Data []byte
}

// EntryPayload is the content being persisted, plus any media assets that
// must land in the same commit.
type EntryPayload struct {
	Collection string
	Slug       string
	Path       string
	Data       []byte
	Assets     []AssetPayload
}

// AssetPayload is one media file persisted together with an entry.
type AssetPayload struct {
	Path string
	Data []byte
}

// PersistOptions qualifies PersistEntry and PersistMedia.
type PersistOptions struct {
	// Unpublished writes to the entry's workflow branch (creating it when
	// needed) instead of the published branch.
	Unpublished bool

	// Status is the workflow status for unpublished writes. Defaults to
	// draft for new entries; existing entries keep their status.
	Status string

	CommitMessage string
}

// ListEntriesInFolder returns the identity+path pairs of entries under a
// folder carrying the extension. Raw contents are not loaded.
func (b *Backend) ListEntriesInFolder(ctx context.Context, folder, extension string) (entries []vcs.FileEntry, err error) {
	ctx = observability.WithOperation(ctx, "listEntriesInFolder")
	start := time.Now()
	defer func() { b.observe(ctx, "listEntriesInFolder", start, err) }()

	all, err := b.client.ListFiles(ctx, folder, vcs.ListOptions{})
	if err != nil {
		return nil, err
	}

	if extension != "" && !strings.HasPrefix(extension, ".") {
		extension = "." + extension
	}

	entries = make([]vcs.FileEntry, 0, len(all))
	for _, e := range all {
		if extension == "" || strings.HasSuffix(e.Path, extension) {
			entries = append(entries, e)
		}
	}
	observability.DebugContext(ctx, "listed entries",
		logfields.Folder(folder),
		logfields.Count(len(entries)))
	return entries, nil
}

// GetEntry reads one entry from the published branch. Every call is a fresh
// read; nothing is cached.
func (b *Backend) GetEntry(ctx context.Context, path string) (*Entry, error) {
	data, err := b.client.ReadFile(ctx, path, vcs.ReadOptions{})
	if err != nil {
		return nil, err
	}
	return &Entry{Path: path, Data: data}, nil
}

// PersistEntry writes an entry and its assets as one commit, and returns the
// persisted assets with content-hash IDs, computed concurrently with the
// remote write. Unpublished writes target the entry's workflow branch and
// refresh the editorial metadata document in the same changeset.
func (b *Backend) PersistEntry(ctx context.Context, entry EntryPayload, opts PersistOptions) (assets []MediaAsset, err error) {
	ctx = observability.WithOperation(ctx, "persistEntry")
	start := time.Now()
	defer func() { b.observe(ctx, "persistEntry", start, err) }()

	if entry.Path == "" {
		return nil, ferrors.ValidationError("entry path must not be empty").Build()
	}

	hashed := make(chan []MediaAsset, 1)
	go func() {
		out := make([]MediaAsset, len(entry.Assets))
		for i, a := range entry.Assets {
			sum := sha256.Sum256(a.Data)
			name := path.Base(a.Path)
			out[i] = MediaAsset{
				ID:         hex.EncodeToString(sum[:]),
				Name:       name,
				Path:       a.Path,
				Size:       int64(len(a.Data)),
				DisplayURL: b.fallbackURL(name),
			}
		}
		hashed <- out
	}()

	message := opts.CommitMessage
	if message == "" {
		message = fmt.Sprintf("Update %s", entry.Path)
	}

	files := make([]vcs.ChangeFile, 0, len(entry.Assets)+2)
	files = append(files, vcs.ChangeFile{Path: entry.Path, Content: entry.Data})
	for _, a := range entry.Assets {
		files = append(files, vcs.ChangeFile{Path: a.Path, Content: a.Data})
	}

	if !opts.Unpublished {
		err = b.client.PersistFiles(ctx, vcs.Changeset{Message: message, Files: files})
		assets = <-hashed
		if err != nil {
			return nil, err
		}
		return assets, nil
	}

	key, err := contentkey.FromCollectionSlug(entry.Collection, entry.Slug)
	if err != nil {
		return nil, err
	}
	ctx = observability.WithEntryKey(ctx, key.String())
	branch := key.Branch(b.branchPrefix())

	change := vcs.Changeset{Branch: branch, Message: message}
	wf := vcs.BranchWorkflow{
		Status:     opts.Status,
		Collection: entry.Collection,
		Slug:       entry.Slug,
	}

	existing, err := b.client.WorkflowStatus(ctx, branch)
	switch {
	case err == nil:
		wf = *existing
		if opts.Status != "" {
			wf.Status = opts.Status
		}
	case ferrors.HasCategory(err, ferrors.CategoryNotFound):
		// first write: branch the workflow off the published branch
		change = vcs.Changeset{NewBranch: branch, Message: message}
		if wf.Status == "" {
			wf.Status = vcs.StatusDraft
		}
	default:
		return nil, err
	}

	if wf.Description == "" {
		wf.Description = EntryTitle(entry.Data)
	}
	wf.DataFiles = appendUnique(wf.DataFiles, entry.Path)
	for _, a := range entry.Assets {
		wf.MediaFiles = appendUnique(wf.MediaFiles, a.Path)
	}

	meta, err := yaml.Marshal(&wf)
	if err != nil {
		return nil, ferrors.InternalError("failed to serialize workflow metadata").
			WithCause(err).
			Build()
	}
	change.Files = append(files, vcs.ChangeFile{Path: vcs.WorkflowMetaFile, Content: meta})

	err = b.client.PersistFiles(ctx, change)
	assets = <-hashed
	if err != nil {
		return nil, err
	}

	observability.InfoContext(ctx, "persisted unpublished entry",
		logfields.Branch(branch),
		logfields.Status(wf.Status))
	return assets, nil
}

// DeleteFiles removes files from the published branch in one commit.
func (b *Backend) DeleteFiles(ctx context.Context, paths []string, message string) (err error) {
	ctx = observability.WithOperation(ctx, "deleteFiles")
	start := time.Now()
	defer func() { b.observe(ctx, "deleteFiles", start, err) }()

	if message == "" {
		message = fmt.Sprintf("Delete %d files", len(paths))
	}
	return b.client.DeleteFiles(ctx, paths, message, "")
}

func appendUnique(list []string, s string) []string {
	for _, existing := range list {
		if existing == s {
			return list
		}
	}
	return append(list, s)
}
