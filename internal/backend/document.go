package backend

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"gopkg.in/yaml.v3"
)

// splitFrontmatter separates `---` delimited YAML frontmatter from the
// Markdown body. Documents without a leading delimiter are all body.
func splitFrontmatter(content []byte) (frontmatter, body []byte, had bool) {
	open := []byte("---\n")
	if !bytes.HasPrefix(content, open) {
		return nil, content, false
	}

	rest := content[len(open):]
	closeSeq := []byte("\n---\n")
	if bytes.HasPrefix(rest, []byte("---\n")) {
		return []byte{}, rest[len(open):], true
	}
	idx := bytes.Index(rest, closeSeq)
	if idx < 0 {
		return nil, content, false
	}
	return rest[:idx+1], rest[idx+len(closeSeq):], true
}

// EntryTitle derives a human-readable title for an entry: the frontmatter
// `title` field when present, else the first heading of the body, else "".
func EntryTitle(data []byte) string {
	frontmatter, body, had := splitFrontmatter(data)
	if had && len(frontmatter) > 0 {
		var fields map[string]any
		if err := yaml.Unmarshal(frontmatter, &fields); err == nil {
			if title, ok := fields["title"].(string); ok && title != "" {
				return title
			}
		}
	}
	return firstHeading(body)
}

// firstHeading parses the Markdown body and returns the text of the first
// heading, at any level.
func firstHeading(body []byte) string {
	md := goldmark.New()
	root := md.Parser().Parse(text.NewReader(body))

	var title string
	_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering || title != "" {
			return gmast.WalkContinue, nil
		}
		heading, ok := n.(*gmast.Heading)
		if !ok {
			return gmast.WalkContinue, nil
		}

		var sb strings.Builder
		for c := heading.FirstChild(); c != nil; c = c.NextSibling() {
			if t, ok := c.(*gmast.Text); ok {
				sb.Write(t.Segment.Value(body))
			}
		}
		title = strings.TrimSpace(sb.String())
		return gmast.WalkStop, nil
	})
	return title
}
