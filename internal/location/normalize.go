// Package location matches free-text wilaya and commune names, as typed by
// customers or found in spreadsheets, against the reference tables.
package location

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var arabicFolding = strings.NewReplacer(
	"أ", "ا",
	"إ", "ا",
	"آ", "ا",
	"ى", "ي",
	"ة", "ه",
	"ـ", "",
)

// Normalize folds case and diacritics, turns punctuation into single spaces
// and drops a leading numeric code ("16 - Alger" -> "alger").
func Normalize(name string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, name)
	if err != nil {
		folded = name
	}
	folded = arabicFolding.Replace(strings.ToLower(folded))

	fields := strings.FieldsFunc(folded, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	if len(fields) > 1 && isNumber(fields[0]) {
		fields = fields[1:]
	}

	return strings.Join(fields, " ")
}

// Compact is Normalize without spaces, so "tizi ouzou" and "tiziouzou" meet.
func Compact(name string) string {
	return strings.ReplaceAll(Normalize(name), " ", "")
}

// LeadingCode returns the numeric code that prefixes input ("16", "16 - Alger").
func LeadingCode(input string) (int, bool) {
	s := strings.TrimSpace(input)
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 || end > 3 {
		return 0, false
	}

	code, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return code, true
}

func isNumber(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return s != ""
}
