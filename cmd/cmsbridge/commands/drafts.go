package commands

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/cmsbridge/internal/backend"
	"git.home.luguber.info/inful/cmsbridge/internal/contentkey"
)

// DraftsCmd groups editorial-workflow operations on unpublished entries.
type DraftsCmd struct {
	Create  DraftsCreateCmd  `cmd:"" help:"Start a new unpublished entry from a local file"`
	List    DraftsListCmd    `cmd:"" help:"List unpublished entries"`
	Show    DraftsShowCmd    `cmd:"" help:"Show one unpublished entry"`
	Status  DraftsStatusCmd  `cmd:"" help:"Move an unpublished entry to a new workflow status"`
	Publish DraftsPublishCmd `cmd:"" help:"Merge an unpublished entry into the published branch"`
	Delete  DraftsDeleteCmd  `cmd:"" help:"Discard an unpublished entry"`
}

// DraftsCreateCmd persists a local document as a new draft. The slug is
// derived from the document title unless overridden.
type DraftsCreateCmd struct {
	Collection string `arg:"" help:"Collection the entry belongs to, e.g. posts"`
	File       string `arg:"" type:"existingfile" help:"Local document to persist"`
	Slug       string `help:"Slug override (defaults to the slugified title)"`
	Folder     string `default:"content" help:"Repository folder content collections live under"`
	Status     string `help:"Initial workflow status (defaults to draft)"`
	Message    string `short:"m" help:"Commit message"`
}

func (d *DraftsCreateCmd) Run(_ *Global, root *CLI) error {
	b, cleanup, err := setup(root)
	if err != nil {
		return err
	}
	defer cleanup()

	data, err := os.ReadFile(d.File)
	if err != nil {
		return err
	}

	entry := draftPayload(d.Folder, d.Collection, d.Slug, d.File, data)
	_, err = b.PersistEntry(context.Background(), entry, backend.PersistOptions{
		Unpublished:   true,
		Status:        d.Status,
		CommitMessage: d.Message,
	})
	if err != nil {
		return err
	}

	fmt.Printf("%s/%s\t%s\n", entry.Collection, entry.Slug, entry.Path)
	return nil
}

// draftPayload builds the entry payload for a new draft: the slug comes from
// the document title unless overridden, the repository path from folder,
// collection, slug and the source file's extension.
func draftPayload(folder, collection, slugOverride, file string, data []byte) backend.EntryPayload {
	slug := slugOverride
	if slug == "" {
		title := backend.EntryTitle(data)
		if title == "" {
			title = strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
		}
		slug = contentkey.Slugify(title)
	}

	ext := filepath.Ext(file)
	if ext == "" {
		ext = ".md"
	}

	return backend.EntryPayload{
		Collection: collection,
		Slug:       slug,
		Path:       path.Join(folder, collection, slug+ext),
		Data:       data,
	}
}

// DraftsListCmd lists the editorial workflow.
type DraftsListCmd struct{}

func (d *DraftsListCmd) Run(_ *Global, root *CLI) error {
	b, cleanup, err := setup(root)
	if err != nil {
		return err
	}
	defer cleanup()

	entries, err := b.ListUnpublishedEntries(context.Background())
	if err != nil {
		return err
	}

	for _, e := range entries {
		desc := e.Description
		if desc == "" {
			desc = "-"
		}
		fmt.Printf("%s\t%s\t%s\n", e.Key, e.Status, desc)
	}
	return nil
}

// DraftsShowCmd shows one unpublished entry with its files.
type DraftsShowCmd struct {
	ID    string `arg:"" help:"Content key, e.g. posts/hello"`
	Media bool   `help:"Also load raw media bytes and report their sizes"`
}

func (d *DraftsShowCmd) Run(_ *Global, root *CLI) error {
	b, cleanup, err := setup(root)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := context.Background()
	entry, err := b.GetUnpublishedEntry(ctx, backend.UnpublishedEntryRequest{ID: d.ID})
	if err != nil {
		return err
	}

	fmt.Printf("key:     %s\n", entry.Key)
	fmt.Printf("branch:  %s\n", entry.Branch)
	fmt.Printf("status:  %s\n", entry.Status)
	if entry.Description != "" {
		fmt.Printf("title:   %s\n", entry.Description)
	}
	if !entry.UpdatedAt.IsZero() {
		fmt.Printf("updated: %s\n", entry.UpdatedAt.Format("2006-01-02 15:04:05"))
	}
	for _, f := range entry.DataFiles {
		fmt.Printf("data:    %s\n", f)
	}
	for _, m := range entry.MediaFiles {
		fmt.Printf("media:   %s\t%s\n", m.Path, m.URL)
	}

	if d.Media && len(entry.MediaFiles) > 0 {
		paths := make([]string, len(entry.MediaFiles))
		for i, m := range entry.MediaFiles {
			paths[i] = m.Path
		}
		assets, err := b.LoadUnpublishedEntryMediaFiles(ctx, entry.Branch, paths)
		if err != nil {
			return err
		}
		for _, a := range assets {
			fmt.Printf("loaded:  %s\t%d bytes\n", a.Name, a.Size)
		}
	}
	return nil
}

// DraftsStatusCmd moves an entry between workflow statuses.
type DraftsStatusCmd struct {
	ID     string `arg:"" help:"Content key, e.g. posts/hello"`
	Status string `arg:"" help:"New status (draft, pending_review, pending_publish)"`
}

func (d *DraftsStatusCmd) Run(_ *Global, root *CLI) error {
	b, cleanup, err := setup(root)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := b.UpdateWorkflowStatus(context.Background(), backend.UnpublishedEntryRequest{ID: d.ID}, d.Status); err != nil {
		return err
	}
	fmt.Printf("%s -> %s\n", d.ID, d.Status)
	return nil
}

// DraftsPublishCmd merges an entry into the published branch.
type DraftsPublishCmd struct {
	ID string `arg:"" help:"Content key, e.g. posts/hello"`
}

func (d *DraftsPublishCmd) Run(_ *Global, root *CLI) error {
	b, cleanup, err := setup(root)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := b.PublishUnpublishedEntry(context.Background(), backend.UnpublishedEntryRequest{ID: d.ID}); err != nil {
		return err
	}
	fmt.Printf("published %s\n", d.ID)
	return nil
}

// DraftsDeleteCmd discards an entry's workflow branch.
type DraftsDeleteCmd struct {
	ID string `arg:"" help:"Content key, e.g. posts/hello"`
}

func (d *DraftsDeleteCmd) Run(_ *Global, root *CLI) error {
	b, cleanup, err := setup(root)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := b.DeleteUnpublishedEntry(context.Background(), backend.UnpublishedEntryRequest{ID: d.ID}); err != nil {
		return err
	}
	fmt.Printf("deleted %s\n", d.ID)
	return nil
}
