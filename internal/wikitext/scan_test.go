package wikitext

import (
	"reflect"
	"testing"
)

func TestSkipBalanced(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		text       string
		start      int
		wantEnd    int
		wantClosed bool
	}{
		{name: "flat", text: "{{a}}rest", start: 0, wantEnd: 5, wantClosed: true},
		{name: "nested", text: "x{{a{{b}}c}}y", start: 1, wantEnd: 12, wantClosed: true},
		{name: "unterminated", text: "{{a{{b}}", start: 0, wantEnd: 8, wantClosed: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			end, closed := skipBalanced(tt.text, tt.start, templateOpen, templateClose)
			if end != tt.wantEnd || closed != tt.wantClosed {
				t.Errorf("expected (%d, %v), got (%d, %v)", tt.wantEnd, tt.wantClosed, end, closed)
			}
		})
	}
}

func TestSplitTopLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "templates and links stay whole",
			text: "a|b={{x|y}}|c=[[d|e]]|",
			want: []string{"a", "b={{x|y}}", "c=[[d|e]]", ""},
		},
		{
			name: "unterminated link is plain text",
			text: "a=see [[x|b=1|c=2",
			want: []string{"a=see [[x", "b=1", "c=2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := splitTopLevel(tt.text, '|')
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}
