package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/cmsbridge/internal/backend"
)

// MediaCmd groups media-library operations.
type MediaCmd struct {
	List   MediaListCmd   `cmd:"" help:"List the media library"`
	Upload MediaUploadCmd `cmd:"" help:"Upload a local file to the media library"`
}

// MediaListCmd lists the media folder with resolved display URLs.
type MediaListCmd struct{}

func (m *MediaListCmd) Run(_ *Global, root *CLI) error {
	b, cleanup, err := setup(root)
	if err != nil {
		return err
	}
	defer cleanup()

	assets, err := b.ListMedia(context.Background())
	if err != nil {
		return err
	}

	for _, a := range assets {
		fmt.Printf("%s\t%d\t%s\n", a.Name, a.Size, a.DisplayURL)
	}
	return nil
}

// MediaUploadCmd persists a local file into the media folder.
type MediaUploadCmd struct {
	File    string `arg:"" type:"existingfile" help:"Local file to upload"`
	Name    string `short:"n" help:"Target file name (defaults to the local name)"`
	Message string `short:"m" help:"Commit message"`
}

func (m *MediaUploadCmd) Run(_ *Global, root *CLI) error {
	b, cleanup, err := setup(root)
	if err != nil {
		return err
	}
	defer cleanup()

	data, err := os.ReadFile(m.File)
	if err != nil {
		return err
	}

	name := m.Name
	if name == "" {
		name = filepath.Base(m.File)
	}

	asset, err := b.PersistMedia(context.Background(), name, data, backend.PersistOptions{CommitMessage: m.Message})
	if err != nil {
		return err
	}

	fmt.Printf("%s\t%s\t%s\n", asset.ID, asset.Path, asset.DisplayURL)
	return nil
}
