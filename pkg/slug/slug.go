// Package slug builds URL-safe identifiers from catalog names.
package slug

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// Letters that do not decompose into a base letter plus a combining mark.
var letters = strings.NewReplacer(
	"đ", "d",
	"ı", "i",
	"ł", "l",
	"ø", "o",
	"ß", "ss",
	"æ", "ae",
	"œ", "oe",
)

// Generate lowercases name, strips diacritics and joins the remaining
// alphanumeric runs with single dashes.
//
//	Generate("Điện thoại Pro 15") == "dien-thoai-pro-15"
//	Generate("Çocuk Ürünleri")     == "cocuk-urunleri"
func Generate(name string) string {
	s := letters.Replace(strings.ToLower(strings.TrimSpace(name)))

	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if folded, _, err := transform.String(t, s); err == nil {
		s = folded
	}

	return strings.Trim(nonAlnum.ReplaceAllString(s, "-"), "-")
}
