// Package contentkey maps the logical identity of a draft entry, a
// (collection, slug) pair, onto the git branch that backs it, and back.
//
// The mapping is a bijection: branch names are persisted in the remote and
// entry identities must be re-derivable from a branch alone when enumerating
// workflow branches. Collections may not contain the separator; slugs may
// (nested slugs survive the round trip because the collection is always the
// first segment).
package contentkey

import (
	"strings"

	ferrors "git.home.luguber.info/inful/cmsbridge/internal/foundation/errors"
)

// DefaultBranchPrefix is the branch namespace for unpublished entries.
const DefaultBranchPrefix = "cms/"

// separator joins collection and slug inside a key and a branch name.
const separator = "/"

// Key is the stable logical identifier of an unpublished entry.
type Key string

// FromCollectionSlug derives the content key for a (collection, slug) pair.
// Empty parts and separators inside the collection are caller errors.
func FromCollectionSlug(collection, slug string) (Key, error) {
	if collection == "" {
		return "", ferrors.ValidationError("collection must not be empty").Build()
	}
	if slug == "" {
		return "", ferrors.ValidationError("slug must not be empty").Build()
	}
	if strings.Contains(collection, separator) {
		return "", ferrors.ValidationError("collection must not contain a slash").
			WithContext("collection", collection).
			Build()
	}
	return Key(collection + separator + slug), nil
}

// FromBranch recovers the content key from a workflow branch name.
// The branch must carry the given prefix and a collection/slug remainder.
func FromBranch(prefix, branch string) (Key, error) {
	if prefix == "" {
		prefix = DefaultBranchPrefix
	}
	rest, ok := strings.CutPrefix(branch, prefix)
	if !ok {
		return "", ferrors.ValidationError("branch is not a workflow branch").
			WithContext("branch", branch).
			WithContext("prefix", prefix).
			Build()
	}
	collection, slug, found := strings.Cut(rest, separator)
	if !found || collection == "" || slug == "" {
		return "", ferrors.ValidationError("branch does not encode a collection and slug").
			WithContext("branch", branch).
			Build()
	}
	return Key(rest), nil
}

// Branch returns the branch name that backs this key under the given prefix.
func (k Key) Branch(prefix string) string {
	if prefix == "" {
		prefix = DefaultBranchPrefix
	}
	return prefix + string(k)
}

// CollectionSlug splits the key back into its parts. The collection is the
// first segment; everything after the first separator is the slug.
func (k Key) CollectionSlug() (collection, slug string) {
	collection, slug, _ = strings.Cut(string(k), separator)
	return collection, slug
}

// String implements fmt.Stringer.
func (k Key) String() string { return string(k) }
