package adapter

import (
	"path"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/roach88/cartridge/internal/entity"
)

var lower = cases.Lower(language.Und)

// Slug derives a file-name-safe stem from a title: accents are folded,
// letters lowercased, spaces and underscores become dashes, anything else
// outside [a-z0-9-] is dropped.
//
//	Slug("Week 1: Intro_Notes") == "week-1-intro-notes"
func Slug(title string) string {
	fold := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(fold, title)
	if err != nil {
		folded = title
	}
	folded = lower.String(folded)

	var b strings.Builder
	dash := false
	for _, r := range folded {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case r == ' ' || r == '_' || r == '-' || r == ':' || r == '/' || r == '.':
			if !dash && b.Len() > 0 {
				b.WriteByte('-')
				dash = true
			}
		}
	}
	s := strings.TrimSuffix(b.String(), "-")
	if s == "" {
		return "untitled"
	}
	return s
}

// ValidateFilename rejects names that would escape web_resources/ or are
// not a single path element.
func ValidateFilename(name string) error {
	switch {
	case strings.TrimSpace(name) == "":
		return entity.NewValidation(entity.KindFile, "filename must not be empty")
	case name == "." || name == "..":
		return entity.NewValidation(entity.KindFile, "filename %q is not allowed", name)
	case strings.ContainsAny(name, "/\\\x00"):
		return entity.NewValidation(entity.KindFile, "filename %q must not contain path separators", name)
	case !norm.NFC.IsNormalString(name):
		return entity.NewValidation(entity.KindFile, "filename %q must be NFC normalized", name)
	}
	return nil
}

// NormalizeFilename returns the NFC form of a user supplied filename.
func NormalizeFilename(name string) string {
	return norm.NFC.String(name)
}

// DeriveFilename returns the first "<stem>-<n><ext>" (n = 1, 2, ...) for
// which taken is false.
//
//	DeriveFilename("notes.txt", taken) // "notes-1.txt"
func DeriveFilename(name string, taken func(string) bool) string {
	ext := path.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	if stem == "" {
		stem, ext = name, ""
	}
	for n := 1; ; n++ {
		candidate := stem + "-" + strconv.Itoa(n) + ext
		if !taken(candidate) {
			return candidate
		}
	}
}
