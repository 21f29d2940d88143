package preset

import (
	"strconv"
	"strings"
)

// maxSlugLen bounds derived ids so they stay short enough for URLs.
const maxSlugLen = 20

// slugify derives the base id for a preset name: lower-cased, whitespace runs
// collapsed to single hyphens, truncated to maxSlugLen runes. Truncation counts
// runes, never bytes, so non-ASCII names cannot yield invalid UTF-8 ids.
// Deterministic and idempotent — the same name always yields the same slug.
func slugify(name string) string {
	fields := strings.Fields(strings.ToLower(name))
	slug := truncateRunes(strings.Join(fields, "-"), maxSlugLen)
	return strings.Trim(slug, "-")
}

// uniqueID resolves slug collisions deterministically: the bare slug if free,
// otherwise the first free slug-2, slug-3, … suffix, with the base shortened
// so the suffixed id still fits maxSlugLen. Truncation makes silent collisions
// between differently named presets possible, so candidates are checked
// against every existing id, not just exact name matches.
func uniqueID(slug string, taken map[string]bool) string {
	if !taken[slug] {
		return slug
	}
	for n := 2; ; n++ {
		suffix := "-" + strconv.Itoa(n)
		base := truncateRunes(slug, maxSlugLen-len(suffix))
		candidate := strings.Trim(base, "-") + suffix
		if !taken[candidate] {
			return candidate
		}
	}
}

func truncateRunes(s string, limit int) string {
	if r := []rune(s); len(r) > limit {
		return string(r[:limit])
	}
	return s
}
