package contentkey

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/cmsbridge/internal/foundation/errors"
)

func TestRoundTrip(t *testing.T) {
	cases := []struct {
		collection string
		slug       string
		branch     string
	}{
		{"posts", "hello-world", "cms/posts/hello-world"},
		{"pages", "about", "cms/pages/about"},
		{"posts", "2026/08/nested-slug", "cms/posts/2026/08/nested-slug"},
		{"faq", "why-git", "cms/faq/why-git"},
	}

	for _, c := range cases {
		t.Run(c.branch, func(t *testing.T) {
			key, err := FromCollectionSlug(c.collection, c.slug)
			require.NoError(t, err)
			assert.Equal(t, c.branch, key.Branch(DefaultBranchPrefix))

			recovered, err := FromBranch(DefaultBranchPrefix, c.branch)
			require.NoError(t, err)
			assert.Equal(t, key, recovered)

			col, slug := recovered.CollectionSlug()
			assert.Equal(t, c.collection, col)
			assert.Equal(t, c.slug, slug)
		})
	}
}

func TestFromCollectionSlugValidation(t *testing.T) {
	cases := []struct {
		name       string
		collection string
		slug       string
	}{
		{"empty collection", "", "slug"},
		{"empty slug", "posts", ""},
		{"slash in collection", "po/sts", "slug"},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := FromCollectionSlug(c.collection, c.slug)
			require.Error(t, err)
			assert.True(t, ferrors.HasCategory(err, ferrors.CategoryValidation))
		})
	}
}

func TestFromBranchValidation(t *testing.T) {
	cases := []struct {
		name   string
		branch string
	}{
		{"wrong prefix", "feature/posts/hello"},
		{"no slug segment", "cms/posts"},
		{"empty remainder", "cms/"},
		{"empty slug after separator", "cms/posts/"},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := FromBranch(DefaultBranchPrefix, c.branch)
			require.Error(t, err)
		})
	}
}

func TestCustomPrefix(t *testing.T) {
	key, err := FromCollectionSlug("posts", "hi")
	require.NoError(t, err)
	assert.Equal(t, "drafts/posts/hi", key.Branch("drafts/"))

	recovered, err := FromBranch("drafts/", "drafts/posts/hi")
	require.NoError(t, err)
	assert.Equal(t, key, recovered)
}

func TestEmptyPrefixFallsBackToDefault(t *testing.T) {
	key, err := FromCollectionSlug("posts", "hi")
	require.NoError(t, err)
	assert.Equal(t, "cms/posts/hi", key.Branch(""))
}

func TestSlugify(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Hello World", "hello-world"},
		{"Héllo Wörld", "hello-world"},
		{"  spaced   out  ", "spaced-out"},
		{"Already-slugged", "already-slugged"},
		{"CAPS and 123", "caps-and-123"},
		{"trailing!!!", "trailing"},
		{"___", ""},
	}

	for _, c := range cases {
		t.Run(c.in, func(t *testing.T) {
			assert.Equal(t, c.want, Slugify(c.in))
		})
	}
}
