package backend

import (
	"context"
	"strings"

	"git.home.luguber.info/inful/cmsbridge/internal/contentkey"
	"git.home.luguber.info/inful/cmsbridge/internal/logfields"
	"git.home.luguber.info/inful/cmsbridge/internal/observability"
	"git.home.luguber.info/inful/cmsbridge/internal/vcs"
)

// DeployPreview points at a rendered preview of an unpublished entry.
type DeployPreview struct {
	URL    string
	Status string
}

// previewKeywords are matched against CI status contexts when no exact
// preview context is configured.
var previewKeywords = []string{"deploy-preview", "deploy/netlify", "netlify", "preview"}

// GetDeployPreview finds a CI-provided preview for an entry's workflow
// branch. Previews are a convenience: every failure path degrades to
// (nil, nil) rather than surfacing an error.
func (b *Backend) GetDeployPreview(ctx context.Context, collection, slug string) (*DeployPreview, error) {
	ctx = observability.WithOperation(ctx, "getDeployPreview")

	key, err := contentkey.FromCollectionSlug(collection, slug)
	if err != nil {
		return nil, nil
	}
	ctx = observability.WithEntryKey(ctx, key.String())
	branch := key.Branch(b.branchPrefix())

	statuses, err := b.client.BranchStatuses(ctx, branch)
	if err != nil {
		observability.DebugContext(ctx, "deploy preview lookup failed",
			logfields.Branch(branch),
			logfields.Error(err))
		return nil, nil
	}

	if s := b.matchPreviewStatus(statuses); s != nil {
		return &DeployPreview{URL: s.TargetURL, Status: s.State}, nil
	}
	observability.DebugContext(ctx, "no deploy preview for entry",
		logfields.Collection(collection),
		logfields.Slug(slug))
	return nil, nil
}

func (b *Backend) matchPreviewStatus(statuses []vcs.DeployStatus) *vcs.DeployStatus {
	if want := b.cfg.Content.PreviewContext; want != "" {
		for i := range statuses {
			if statuses[i].Context == want && statuses[i].TargetURL != "" {
				return &statuses[i]
			}
		}
		return nil
	}

	for _, keyword := range previewKeywords {
		for i := range statuses {
			if strings.Contains(statuses[i].Context, keyword) && statuses[i].TargetURL != "" {
				return &statuses[i]
			}
		}
	}
	return nil
}
