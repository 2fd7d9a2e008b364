package score

import (
	"strings"
	"unicode/utf8"
)

// maxSuffixLen is the longest trailing label kept by NormalizeHost. Longer
// trailing labels are treated as non-discriminative suffixes.
const maxSuffixLen = 4

// NormalizeHost canonicalizes a host for comparison. A leading "www" label
// (matched exactly, so "WWW" is kept) is dropped, as is a trailing label longer than four characters. Empty labels
// (from doubled or trailing dots) are ignored.
//
//	NormalizeHost("www.example.com") == "example.com"
//	NormalizeHost("example.museum")  == "example"
func NormalizeHost(host string) string {
	labels := strings.FieldsFunc(host, func(r rune) bool { return r == '.' })
	if len(labels) > 0 && labels[0] == "www" {
		labels = labels[1:]
	}
	if n := len(labels); n > 0 && utf8.RuneCountInString(labels[n-1]) > maxSuffixLen {
		labels = labels[:n-1]
	}
	return strings.Join(labels, ".")
}
