// Package sanitize cleans FASTA header text before it is echoed to users or
// MCP clients. Headers come from arbitrary files, so control characters,
// XML/HTML tags, markdown heading markers and code fences are removed to
// keep a crafted header from being read as instructions downstream.
package sanitize

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// MaxHeaderLength is the maximum header length in runes, excluding the
// truncation marker.
const MaxHeaderLength = 200

var (
	// reXMLTag matches XML/HTML tags including those with attributes and self-closing tags.
	// It also matches XML processing instructions like <?xml ...?>.
	reXMLTag = regexp.MustCompile(`<[/?!]?[a-zA-Z][a-zA-Z0-9]*(?:\s+[^>]*)?/?>|<\?[^?]*\?>`)

	// reLeadingHashes matches markdown heading markers at the start.
	reLeadingHashes = regexp.MustCompile(`^#+\s*`)

	// reBackticks matches any backtick run that could open a code span or fence.
	reBackticks = regexp.MustCompile("`+")

	reWhitespace = regexp.MustCompile(`\s+`)
)

// Header returns a single-line, length-bounded version of a FASTA header.
//
// The pipeline runs in this order:
//  1. Replace control characters (including tab and newline) with spaces
//  2. Strip XML/HTML tags
//  3. Drop leading markdown heading markers
//  4. Remove backticks
//  5. Collapse whitespace runs and trim
//  6. Truncate to MaxHeaderLength runes
func Header(input string) string {
	if input == "" {
		return ""
	}

	s := replaceControlChars(input)
	s = reXMLTag.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)
	s = reLeadingHashes.ReplaceAllString(s, "")
	s = reBackticks.ReplaceAllString(s, "")
	s = strings.TrimSpace(reWhitespace.ReplaceAllString(s, " "))

	if utf8.RuneCountInString(s) > MaxHeaderLength {
		s = string([]rune(s)[:MaxHeaderLength]) + "..."
	}
	return s
}

// replaceControlChars turns ASCII control characters and DEL into spaces
// and drops invalid UTF-8.
func replaceControlChars(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r == utf8.RuneError:
			continue
		case r < 0x20 || r == 0x7f:
			b.WriteByte(' ')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
