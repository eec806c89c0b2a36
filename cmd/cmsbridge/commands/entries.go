package commands

import (
	"context"
	"fmt"
	"os"

	"git.home.luguber.info/inful/cmsbridge/internal/backend"
)

// EntriesCmd groups published-entry operations.
type EntriesCmd struct {
	List EntriesListCmd `cmd:"" help:"List entries in a folder"`
	Show EntriesShowCmd `cmd:"" help:"Print one entry"`
}

// EntriesListCmd lists entries under a content folder.
type EntriesListCmd struct {
	Folder    string `arg:"" help:"Folder to list, e.g. content/posts"`
	Extension string `short:"e" default:".md" help:"Entry file extension"`
}

func (e *EntriesListCmd) Run(_ *Global, root *CLI) error {
	b, cleanup, err := setup(root)
	if err != nil {
		return err
	}
	defer cleanup()

	entries, err := b.ListEntriesInFolder(context.Background(), e.Folder, e.Extension)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		fmt.Printf("%s\t%s\n", entry.ID, entry.Path)
	}
	return nil
}

// EntriesShowCmd prints one entry to stdout.
type EntriesShowCmd struct {
	Path      string `arg:"" help:"Entry path, e.g. content/posts/hello.md"`
	TitleOnly bool   `help:"Print only the derived title"`
}

func (e *EntriesShowCmd) Run(_ *Global, root *CLI) error {
	b, cleanup, err := setup(root)
	if err != nil {
		return err
	}
	defer cleanup()

	entry, err := b.GetEntry(context.Background(), e.Path)
	if err != nil {
		return err
	}

	if e.TitleOnly {
		fmt.Println(backend.EntryTitle(entry.Data))
		return nil
	}
	_, err = os.Stdout.Write(entry.Data)
	return err
}
