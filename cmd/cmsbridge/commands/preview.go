package commands

import (
	"context"
	"fmt"

	"git.home.luguber.info/inful/cmsbridge/internal/contentkey"
)

// PreviewCmd looks up the deploy preview for an unpublished entry.
type PreviewCmd struct {
	ID string `arg:"" help:"Content key, e.g. posts/hello"`
}

func (p *PreviewCmd) Run(_ *Global, root *CLI) error {
	b, cleanup, err := setup(root)
	if err != nil {
		return err
	}
	defer cleanup()

	collection, slug := contentkey.Key(p.ID).CollectionSlug()
	preview, err := b.GetDeployPreview(context.Background(), collection, slug)
	if err != nil {
		return err
	}
	if preview == nil {
		fmt.Println("no deploy preview available")
		return nil
	}
	fmt.Printf("%s\t%s\n", preview.Status, preview.URL)
	return nil
}
