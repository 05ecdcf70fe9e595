// Package textutil turns feed markup into short plain text.
package textutil

import (
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

// PlainText strips markup from an HTML fragment and collapses whitespace.
// Input that does not parse is returned with whitespace collapsed.
func PlainText(fragment string) string {
	if !strings.ContainsAny(fragment, "<&") {
		return Squash(fragment)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return Squash(fragment)
	}
	doc.Find("script, style, noscript").Remove()
	doc.Find("p, br, div, li, h1, h2, h3, h4, h5, h6, tr, blockquote").AfterHtml(" ")

	return Squash(doc.Find("body").Text())
}

// Squash collapses runs of whitespace into single spaces and trims the ends.
func Squash(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Truncate cuts s to at most n runes.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}

// Prefix returns the first n bytes of s, backing off to a rune boundary.
// Dates like "2024-05-01T10:00:00Z" are cut this way.
func Prefix(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
