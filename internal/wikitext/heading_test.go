package wikitext

import "testing"

func TestNormalizeHeadings(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "heading glued to preceding text gets its own line",
			input: "text==History==more",
			want:  "text\n==History==more",
		},
		{
			name:  "heading already at line start is unchanged",
			input: "==A==\nbody\n===B===\nmore",
			want:  "==A==\nbody\n===B===\nmore",
		},
		{
			name:  "heading at start of text is unchanged",
			input: "== Career ==",
			want:  "== Career ==",
		},
		{
			name:  "single equals signs are not headings",
			input: "a = b = c",
			want:  "a = b = c",
		},
		{
			name:  "unclosed marker is not a heading",
			input: "x == y",
			want:  "x == y",
		},
		{
			name:  "empty input",
			input: "",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := NormalizeHeadings(tt.input)
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestNormalizeHeadingsIdempotent(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"text==History==more",
		"a==B==c==D==e",
		"intro\n==A==\n===B===text",
		"=======Seven=======",
	}

	for _, input := range inputs {
		once := NormalizeHeadings(input)
		twice := NormalizeHeadings(once)
		if once != twice {
			t.Errorf("normalizing %q twice: expected %q, got %q", input, once, twice)
		}
	}
}

func TestRewriteHeadings(t *testing.T) {
	t.Parallel()

	t.Run("replaces markers with the bare title", func(t *testing.T) {
		t.Parallel()

		got := RewriteHeadings("==History==\nFormed in 1990.\n=== Early years ===\nSmall clubs.")
		want := "History\n\nFormed in 1990.\nEarly years\n\nSmall clubs."
		if got != want {
			t.Errorf("expected %q, got %q", want, got)
		}
	})

	t.Run("leaves mid-line markers alone", func(t *testing.T) {
		t.Parallel()

		got := RewriteHeadings("a ==B== c")
		if got != "a ==B== c" {
			t.Errorf("expected input unchanged, got %q", got)
		}
	})

	t.Run("rejects closing marker shorter than opening marker", func(t *testing.T) {
		t.Parallel()

		got := RewriteHeadings("===B==")
		if got != "===B==" {
			t.Errorf("expected input unchanged, got %q", got)
		}
	})
}
