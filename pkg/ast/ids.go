package ast

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// FallbackID is used when a label contains no letters or digits.
const FallbackID = "field"

var nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)

// AsInternalID converts a human-readable label into a slug: diacritics are
// folded, the text is lower-cased, runs of anything but a-z and 0-9 become a
// single underscore and surrounding underscores are trimmed.
func AsInternalID(label string) string {
	folded, _, err := transform.String(foldDiacritics(), label)
	if err != nil {
		folded = label
	}
	slug := nonAlphanumeric.ReplaceAllString(strings.ToLower(folded), "_")
	slug = strings.Trim(slug, "_")
	if slug == "" {
		return FallbackID
	}
	return slug
}

// UniqueID returns base, or base with the smallest numeric suffix starting at
// _2 that is not present in taken.
func UniqueID(base string, taken map[string]struct{}) string {
	if _, exists := taken[base]; !exists {
		return base
	}
	for n := 2; ; n++ {
		candidate := base + "_" + strconv.Itoa(n)
		if _, exists := taken[candidate]; !exists {
			return candidate
		}
	}
}

func foldDiacritics() transform.Transformer {
	return transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
}
