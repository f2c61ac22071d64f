package wikitext

import (
	"reflect"
	"testing"
)

func TestExtractInfobox(t *testing.T) {
	t.Parallel()

	t.Run("flat infobox", func(t *testing.T) {
		t.Parallel()

		record, ok := ExtractInfobox("{{Infobox band|name=Foo|genre=Rock|origin=USA}}")
		if !ok {
			t.Fatal("expected infobox to be found")
		}
		if record.Name != "Infobox band" {
			t.Errorf("expected name %q, got %q", "Infobox band", record.Name)
		}
		want := map[string]string{"name": "Foo", "genre": "Rock", "origin": "USA"}
		if !reflect.DeepEqual(record.Fields, want) {
			t.Errorf("expected %v, got %v", want, record.Fields)
		}
	})

	t.Run("nested templates and piped links stay with their value", func(t *testing.T) {
		t.Parallel()

		text := "Lead text.\n{{Infobox musical artist\n| name = Foo\n| Genre = {{hlist|Rock|Pop}}\n" +
			"| origin = [[Sydney|Sydney, Australia]]\n| website = {{URL|example.com}}\n}}\nBody."

		record, ok := ExtractInfobox(text)
		if !ok {
			t.Fatal("expected infobox to be found")
		}
		tests := map[string]string{
			"name":    "Foo",
			"genre":   "Rock, Pop",
			"origin":  "Sydney, Australia",
			"website": "example.com",
		}
		for key, want := range tests {
			if got, _ := record.Get(key); got != want {
				t.Errorf("field %q: expected %q, got %q", key, want, got)
			}
		}
	})

	t.Run("unterminated link does not swallow later fields", func(t *testing.T) {
		t.Parallel()

		record, ok := ExtractInfobox("{{Infobox band|caption=see [[x|name=Foo|genre=Rock|origin=USA}}")
		if !ok {
			t.Fatal("expected infobox to be found")
		}
		tests := map[string]string{
			"name":   "Foo",
			"genre":  "Rock",
			"origin": "USA",
		}
		for key, want := range tests {
			if got, _ := record.Get(key); got != want {
				t.Errorf("field %q: expected %q, got %q", key, want, got)
			}
		}
		if _, ok := record.Get("caption"); !ok {
			t.Error("expected caption field to be kept")
		}
	})

	t.Run("first occurrence of a duplicate key wins", func(t *testing.T) {
		t.Parallel()

		record, ok := ExtractInfobox("{{Infobox venue|capacity=1,000|capacity=2,000}}")
		if !ok {
			t.Fatal("expected infobox to be found")
		}
		if got, _ := record.Get("capacity"); got != "1,000" {
			t.Errorf("expected %q, got %q", "1,000", got)
		}
	})

	t.Run("parameters without a value separator are ignored", func(t *testing.T) {
		t.Parallel()

		record, ok := ExtractInfobox("{{Infobox settlement|positional|population=100}}")
		if !ok {
			t.Fatal("expected infobox to be found")
		}
		if len(record.Fields) != 1 {
			t.Errorf("expected 1 field, got %d: %v", len(record.Fields), record.Fields)
		}
	})

	t.Run("no infobox", func(t *testing.T) {
		t.Parallel()

		if _, ok := ExtractInfobox("{{Short description|A band}} text"); ok {
			t.Error("expected no infobox")
		}
	})

	t.Run("unterminated infobox", func(t *testing.T) {
		t.Parallel()

		if _, ok := ExtractInfobox("{{Infobox band|name=Foo|genre={{hlist|Rock}}"); ok {
			t.Error("expected unterminated infobox to be rejected")
		}
	})
}

func TestInfoboxBlock(t *testing.T) {
	t.Parallel()

	block, ok := InfoboxBlock("a {{Infobox x|k={{y|z}}}} b")
	if !ok {
		t.Fatal("expected block to be found")
	}
	if block != "{{Infobox x|k={{y|z}}}}" {
		t.Errorf("expected %q, got %q", "{{Infobox x|k={{y|z}}}}", block)
	}
}
