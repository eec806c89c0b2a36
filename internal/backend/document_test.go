package backend

import "testing"

func TestEntryTitle(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{
			name: "frontmatter title",
			data: "---\ntitle: Hello World\ndate: 2026-01-01\n---\n# Ignored Heading\n",
			want: "Hello World",
		},
		{
			name: "heading fallback",
			data: "---\ndate: 2026-01-01\n---\n# From Heading\n\nBody text.\n",
			want: "From Heading",
		},
		{
			name: "no frontmatter",
			data: "## Second Level\n\nText.\n",
			want: "Second Level",
		},
		{
			name: "empty frontmatter block",
			data: "---\n---\n# After Empty\n",
			want: "After Empty",
		},
		{
			name: "no title at all",
			data: "Just a paragraph.\n",
			want: "",
		},
		{
			name: "unterminated frontmatter treated as body",
			data: "---\ntitle: Broken\n",
			want: "",
		},
		{
			name: "empty document",
			data: "",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EntryTitle([]byte(tt.data)); got != tt.want {
				t.Errorf("EntryTitle() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSplitFrontmatter(t *testing.T) {
	fm, body, had := splitFrontmatter([]byte("---\ntitle: X\n---\nbody\n"))
	if !had {
		t.Fatal("expected frontmatter")
	}
	if string(fm) != "title: X\n" {
		t.Errorf("frontmatter = %q", fm)
	}
	if string(body) != "body\n" {
		t.Errorf("body = %q", body)
	}

	_, body, had = splitFrontmatter([]byte("no delimiters\n"))
	if had {
		t.Fatal("expected no frontmatter")
	}
	if string(body) != "no delimiters\n" {
		t.Errorf("body = %q", body)
	}
}
