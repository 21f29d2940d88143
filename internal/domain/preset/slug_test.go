package preset

import (
	"testing"
	"unicode/utf8"
)

func TestSlugify(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"simple", "Code Helper", "code-helper"},
		{"collapses whitespace", "  Code \t  Helper  ", "code-helper"},
		{"lowercases", "SHOUTY BOT", "shouty-bot"},
		{"truncates and trims", "a very long chatbot preset name", "a-very-long-chatbot"},
		{"single word", "Translator", "translator"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := slugify(tc.in); got != tc.want {
				t.Errorf("slugify(%q) = %q; want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestSlugify_Deterministic(t *testing.T) {
	a := slugify("My Assistant Preset Name")
	b := slugify("My Assistant Preset Name")
	if a != b {
		t.Errorf("slugify is not deterministic: %q vs %q", a, b)
	}
	if len(a) > maxSlugLen {
		t.Errorf("slug %q exceeds bound %d", a, maxSlugLen)
	}
}

// Truncation counts runes: a multi-byte name must never be cut mid-rune into
// an invalid-UTF-8 id.
func TestSlugify_MultiByteNames(t *testing.T) {
	got := slugify("日本語の長い名前のアシスタントプリセットです")

	if !utf8.ValidString(got) {
		t.Fatalf("slug %q is not valid UTF-8", got)
	}
	if n := utf8.RuneCountInString(got); n > maxSlugLen {
		t.Fatalf("slug %q is %d runes; bound is %d", got, n, maxSlugLen)
	}
	if got != "日本語の長い名前のアシスタントプリセット" {
		t.Errorf("slugify = %q; want first %d runes kept", got, maxSlugLen)
	}
}

func TestUniqueID_SuffixesOnCollision(t *testing.T) {
	taken := map[string]bool{"helper": true, "helper-2": true}

	if got := uniqueID("helper", taken); got != "helper-3" {
		t.Errorf("uniqueID = %q; want helper-3", got)
	}
	if got := uniqueID("fresh", taken); got != "fresh" {
		t.Errorf("uniqueID = %q; want fresh (no collision)", got)
	}
}

// A suffixed candidate must still fit the id bound: the base is shortened to
// make room rather than letting the suffix overflow it.
func TestUniqueID_SuffixKeepsBound(t *testing.T) {
	full := slugify("a very long chatbot preset name") // 19 runes, one under the bound
	taken := map[string]bool{full: true}

	got := uniqueID(full, taken)
	if got == full {
		t.Fatalf("uniqueID returned the taken slug %q", got)
	}
	if n := utf8.RuneCountInString(got); n > maxSlugLen {
		t.Errorf("suffixed id %q is %d runes; bound is %d", got, n, maxSlugLen)
	}
	if got != "a-very-long-chatbo-2" {
		t.Errorf("uniqueID = %q; want a-very-long-chatbo-2", got)
	}
}
