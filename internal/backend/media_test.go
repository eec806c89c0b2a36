package backend

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/cmsbridge/internal/foundation/errors"
	"git.home.luguber.info/inful/cmsbridge/internal/vcs"
)

func TestListMediaEmptyFolder(t *testing.T) {
	client := &fakeClient{
		listFiles: func(context.Context, string, vcs.ListOptions) ([]vcs.FileEntry, error) {
			return nil, nil
		},
	}
	b := newTestBackend(client)

	assets, err := b.ListMedia(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, assets)
	assert.Empty(t, assets)
}

func TestListMediaMissingFolder(t *testing.T) {
	client := &fakeClient{
		listFiles: func(context.Context, string, vcs.ListOptions) ([]vcs.FileEntry, error) {
			return nil, ferrors.NotFoundError("no such folder").Build()
		},
	}
	b := newTestBackend(client)

	assets, err := b.ListMedia(context.Background())
	require.NoError(t, err)
	assert.Empty(t, assets)
}

func TestListMediaResolvesDisplayURLsInOrder(t *testing.T) {
	entries := []vcs.FileEntry{
		{ID: "sha-a", Path: "static/media/a.png", Size: 1},
		{ID: "sha-b", Path: "static/media/b.png", Size: 2},
		{ID: "sha-c", Path: "static/media/c.png", Size: 3},
	}
	client := &fakeClient{
		listFiles: func(context.Context, string, vcs.ListOptions) ([]vcs.FileEntry, error) {
			return entries, nil
		},
		fileMetadata: func(_ context.Context, path string, _ vcs.ReadOptions) (*vcs.FileMetadata, error) {
			switch path {
			case "static/media/a.png":
				return &vcs.FileMetadata{Path: path, DownloadURL: "https://git/raw/a.png"}, nil
			case "static/media/b.png":
				return nil, ferrors.NetworkError("flaky remote").Build()
			default:
				return &vcs.FileMetadata{Path: path}, nil // no URL known
			}
		},
	}
	b := newTestBackend(client)

	assets, err := b.ListMedia(context.Background())
	require.NoError(t, err)
	require.Len(t, assets, 3)

	assert.Equal(t, "a.png", assets[0].Name)
	assert.Equal(t, "https://git/raw/a.png", assets[0].DisplayURL)
	// resolution failure and empty URL both fall back
	assert.Equal(t, "/media/b.png", assets[1].DisplayURL)
	assert.Equal(t, "/media/c.png", assets[2].DisplayURL)
	assert.Equal(t, "sha-c", assets[2].ID)
}

func TestPersistMediaHashesContent(t *testing.T) {
	var change vcs.Changeset
	client := &fakeClient{
		persistFiles: func(_ context.Context, c vcs.Changeset) error {
			change = c
			return nil
		},
	}
	b := newTestBackend(client)

	data := []byte("image bytes")
	asset, err := b.PersistMedia(context.Background(), "pic.png", data, PersistOptions{})
	require.NoError(t, err)

	sum := sha256.Sum256(data)
	assert.Equal(t, hex.EncodeToString(sum[:]), asset.ID)
	assert.Equal(t, "static/media/pic.png", asset.Path)
	assert.Equal(t, int64(len(data)), asset.Size)

	require.Len(t, change.Files, 1)
	assert.Equal(t, "static/media/pic.png", change.Files[0].Path)
	assert.Equal(t, data, change.Files[0].Content)
}

func TestPersistMediaRejectsEmptyName(t *testing.T) {
	b := newTestBackend(&fakeClient{})

	_, err := b.PersistMedia(context.Background(), "", []byte("x"), PersistOptions{})
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryValidation))
}

func TestLoadUnpublishedEntryMediaFiles(t *testing.T) {
	client := &fakeClient{
		readFile: func(_ context.Context, path string, opts vcs.ReadOptions) ([]byte, error) {
			assert.Equal(t, "cms/posts/hello", opts.Branch)
			return []byte("data-" + path), nil
		},
	}
	b := newTestBackend(client)

	paths := []string{"static/media/a.png", "static/media/b.png"}
	assets, err := b.LoadUnpublishedEntryMediaFiles(context.Background(), "cms/posts/hello", paths)
	require.NoError(t, err)
	require.Len(t, assets, 2)

	assert.Equal(t, []byte("data-static/media/a.png"), assets[0].Data)
	assert.Equal(t, "a.png", assets[0].Name)
	assert.NotEmpty(t, assets[0].ID)
	assert.NotEqual(t, assets[0].ID, assets[1].ID, "handles must be unique")
}

func TestLoadUnpublishedEntryMediaFilesFailsBatch(t *testing.T) {
	client := &fakeClient{
		readFile: func(_ context.Context, path string, _ vcs.ReadOptions) ([]byte, error) {
			if path == "static/media/b.png" {
				return nil, ferrors.NotFoundError("gone").Build()
			}
			return []byte("ok"), nil
		},
	}
	b := newTestBackend(client)

	_, err := b.LoadUnpublishedEntryMediaFiles(context.Background(), "cms/posts/hello",
		[]string{"static/media/a.png", "static/media/b.png"})
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryMedia))
}
