package backend

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path"
	"time"

	"github.com/google/uuid"

	ferrors "git.home.luguber.info/inful/cmsbridge/internal/foundation/errors"
	"git.home.luguber.info/inful/cmsbridge/internal/logfields"
	"git.home.luguber.info/inful/cmsbridge/internal/observability"
	"git.home.luguber.info/inful/cmsbridge/internal/vcs"
)

// MediaAsset is one media file handed to the caller. Data is only populated
// by raw loads; listings carry metadata and a display URL.
type MediaAsset struct {
	ID         string
	Name       string
	Path       string
	Size       int64
	DisplayURL string
	Data       []byte
}

// fallbackURL is the public-folder URL used when the remote cannot provide
// a direct download URL for an asset.
func (b *Backend) fallbackURL(name string) string {
	return path.Join(b.cfg.Content.PublicFolder, name)
}

// ListMedia lists the media folder and resolves display URLs in parallel,
// bounded by the fetch semaphore. Results keep the listing order. An asset
// whose URL cannot be resolved falls back to its public-folder URL; an empty
// folder is an empty slice, not an error.
func (b *Backend) ListMedia(ctx context.Context) (assets []MediaAsset, err error) {
	ctx = observability.WithOperation(ctx, "listMedia")
	start := time.Now()
	defer func() { b.observe(ctx, "listMedia", start, err) }()

	entries, err := b.client.ListFiles(ctx, b.cfg.Content.MediaFolder, vcs.ListOptions{})
	if err != nil {
		if ferrors.HasCategory(err, ferrors.CategoryNotFound) {
			return []MediaAsset{}, nil
		}
		return nil, err
	}
	if len(entries) == 0 {
		return []MediaAsset{}, nil
	}

	results := runOrdered(ctx, b.fetchSem, entries, func(ctx context.Context, e vcs.FileEntry) (string, error) {
		meta, err := b.client.FileMetadata(ctx, e.Path, vcs.ReadOptions{})
		if err != nil {
			return "", err
		}
		return meta.DownloadURL, nil
	})

	assets = make([]MediaAsset, len(entries))
	for i, e := range entries {
		name := path.Base(e.Path)
		url := b.fallbackURL(name)
		switch {
		case results[i].Err != nil:
			observability.WarnContext(ctx, "display URL resolution failed, using fallback",
				logfields.Path(e.Path),
				logfields.Error(results[i].Err))
		case results[i].Value != "":
			url = results[i].Value
		}
		assets[i] = MediaAsset{ID: e.ID, Name: name, Path: e.Path, Size: e.Size, DisplayURL: url}
	}
	observability.DebugContext(ctx, "listed media", logfields.Count(len(assets)))
	return assets, nil
}

// PersistMedia writes one media file to the published branch. The asset ID is
// the SHA-256 of the bytes, hashed concurrently with the remote write.
func (b *Backend) PersistMedia(ctx context.Context, name string, data []byte, opts PersistOptions) (asset *MediaAsset, err error) {
	ctx = observability.WithOperation(ctx, "persistMedia")
	start := time.Now()
	defer func() { b.observe(ctx, "persistMedia", start, err) }()

	if name == "" {
		return nil, ferrors.ValidationError("media file name must not be empty").Build()
	}

	hashed := make(chan string, 1)
	go func() {
		sum := sha256.Sum256(data)
		hashed <- hex.EncodeToString(sum[:])
	}()

	filePath := path.Join(b.cfg.Content.MediaFolder, name)
	message := opts.CommitMessage
	if message == "" {
		message = fmt.Sprintf("Upload %s", name)
	}

	err = b.client.PersistFiles(ctx, vcs.Changeset{
		Message: message,
		Files:   []vcs.ChangeFile{{Path: filePath, Content: data}},
	})
	id := <-hashed
	if err != nil {
		return nil, err
	}

	return &MediaAsset{
		ID:         id,
		Name:       name,
		Path:       filePath,
		Size:       int64(len(data)),
		DisplayURL: b.fallbackURL(name),
	}, nil
}

// LoadUnpublishedEntryMediaFiles loads raw media bytes from a workflow
// branch, in parallel under the same fetch ceiling as listings. Any failed
// load fails the batch. Each asset gets a minted handle ID since workflow
// media has no published identity yet.
func (b *Backend) LoadUnpublishedEntryMediaFiles(ctx context.Context, branch string, paths []string) (assets []MediaAsset, err error) {
	ctx = observability.WithOperation(ctx, "loadUnpublishedEntryMediaFiles")
	start := time.Now()
	defer func() { b.observe(ctx, "loadUnpublishedEntryMediaFiles", start, err) }()

	results := runOrdered(ctx, b.fetchSem, paths, func(ctx context.Context, p string) ([]byte, error) {
		return b.client.ReadFile(ctx, p, vcs.ReadOptions{Branch: branch})
	})

	assets = make([]MediaAsset, len(paths))
	for i, p := range paths {
		if results[i].Err != nil {
			return nil, ferrors.WrapError(results[i].Err, ferrors.CategoryMedia, "failed to load media file").
				WithContext("path", p).
				WithContext("branch", branch).
				Build()
		}
		name := path.Base(p)
		assets[i] = MediaAsset{
			ID:         uuid.NewString(),
			Name:       name,
			Path:       p,
			Size:       int64(len(results[i].Value)),
			DisplayURL: b.fallbackURL(name),
			Data:       results[i].Value,
		}
	}
	return assets, nil
}
