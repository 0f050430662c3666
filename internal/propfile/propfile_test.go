package propfile

import (
	"strings"
	"testing"
)

func TestLoadSkipsBlankAndComments(t *testing.T) {
	input := "" +
		"# this is a comment\n" +
		"\n" +
		"TOTAL_SERVERS\t16\n" +
		"  # indented comments are NOT recognized, only leading '#'\n" +
		"POINTS_PER_SERVER\t100\n"

	got := Load(strings.NewReader(input))
	want := map[string]string{
		"TOTAL_SERVERS":     "16",
		"POINTS_PER_SERVER": "100",
	}
	if len(got) != len(want) {
		t.Fatalf("Load() = %v, want %v", got, want)
	}
	for k, v := range want {
		if got[k] != v {
			t.Fatalf("Load()[%q] = %q, want %q", k, got[k], v)
		}
	}
}

func TestLoadSkipsMalformedLines(t *testing.T) {
	input := "TOTAL_SERVERS\t16\nNOSEPARATORHERE\nPOINTS_PER_SERVER\t100\n"
	got := Load(strings.NewReader(input))
	if len(got) != 2 {
		t.Fatalf("Load() = %v, want 2 entries (malformed line skipped)", got)
	}
	if _, ok := got["NOSEPARATORHERE"]; ok {
		t.Fatalf("malformed line without separator should not appear in result")
	}
}

func TestLoadCustomSeparator(t *testing.T) {
	input := "KEY=VALUE\nOTHER=thing\n"
	got := Load(strings.NewReader(input), WithSeparator("="))
	if got["KEY"] != "VALUE" || got["OTHER"] != "thing" {
		t.Fatalf("Load() with custom separator = %v", got)
	}
}

func TestLoadEmptyInput(t *testing.T) {
	got := Load(strings.NewReader(""))
	if len(got) != 0 {
		t.Fatalf("Load(empty) = %v, want empty map", got)
	}
}

func TestLoadValueMayContainSeparator(t *testing.T) {
	// Only the first separator occurrence splits key from value; the value
	// itself may legitimately contain more tabs (e.g. pasted data).
	got := Load(strings.NewReader("KEY\tvalue\twith\ttabs\n"))
	if got["KEY"] != "value\twith\ttabs" {
		t.Fatalf("Load() = %q, want value to retain embedded separators", got["KEY"])
	}
}
