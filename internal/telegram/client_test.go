package telegram

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSplitByBytes(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		max   int
		parts int
	}{
		{"short", "hello", 10, 1},
		{"exact", "abcd", 4, 1},
		{"ascii split", strings.Repeat("a", 10), 4, 3},
		{"multibyte kept whole", strings.Repeat("é", 5), 4, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := splitByBytes(tt.text, tt.max)
			if len(got) != tt.parts {
				t.Fatalf("got %d parts: %q", len(got), got)
			}
			if strings.Join(got, "") != tt.text {
				t.Fatal("parts do not rejoin to the input")
			}
			for _, p := range got {
				if len(p) > tt.max || !utf8.ValidString(p) {
					t.Fatalf("bad part %q", p)
				}
			}
		})
	}
}

func TestTruncateByBytes(t *testing.T) {
	if got := truncateByBytes("ééé", 5); got != "éé" {
		t.Fatalf("got %q", got)
	}
	if got := truncateByBytes("short", 1024); got != "short" {
		t.Fatalf("got %q", got)
	}
}
