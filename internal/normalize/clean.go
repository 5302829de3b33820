// Package normalize cleans raw extracted brochure text and merges text
// coming from different extraction sources.
package normalize

import (
	"regexp"
	"strings"
)

var (
	hyphenBreakRE  = regexp.MustCompile(`([\p{L}\p{N}_])-\n([\p{L}\p{N}_])`)
	multiSpaceRE   = regexp.MustCompile(`[ \t\x{00A0}]+`)
	multiNewlineRE = regexp.MustCompile(`\n{3,}`)
	whitespaceRE   = regexp.MustCompile(`\s+`)
	boilerplateRE  = regexp.MustCompile(`(?i)(confidential|watermark|all rights reserved)`)
)

var lineEndings = strings.NewReplacer("\r\n", "\n", "\r", "\n")

// Clean normalizes raw engine output. The result contains only tab, newline,
// printable ASCII and runes from U+00A0 upward, with no line-end hyphenation,
// no runs of horizontal whitespace and no more than one blank line in a row.
// Clean(Clean(s)) == Clean(s).
func Clean(raw string) string {
	if raw == "" {
		return ""
	}
	t := lineEndings.Replace(strings.ToValidUTF8(raw, ""))
	t = strings.Map(keepRune, t)
	t = joinHyphenated(t)
	t = multiSpaceRE.ReplaceAllString(t, " ")
	t = multiNewlineRE.ReplaceAllString(t, "\n\n")
	return strings.TrimSpace(t)
}

func keepRune(r rune) rune {
	switch {
	case r == '\t' || r == '\n':
		return r
	case r >= 0x20 && r <= 0x7E:
		return r
	case r >= 0xA0:
		return r
	}
	return -1
}

// joinHyphenated repeats the substitution because adjacent breaks
// ("a-\nb-\nc") share a character and cannot all match in one pass.
func joinHyphenated(t string) string {
	for {
		next := hyphenBreakRE.ReplaceAllString(t, "$1$2")
		if next == t {
			return t
		}
		t = next
	}
}

// StripBoilerplate reduces text to printable ASCII on a single line and
// removes watermark tokens.
func StripBoilerplate(raw string) string {
	if raw == "" {
		return ""
	}
	t := strings.Map(asciiOnly, raw)
	t = strings.TrimSpace(whitespaceRE.ReplaceAllString(t, " "))
	t = boilerplateRE.ReplaceAllString(t, " ")
	return strings.TrimSpace(whitespaceRE.ReplaceAllString(t, " "))
}

func asciiOnly(r rune) rune {
	if r == '\t' || r == '\n' || r == '\r' || (r >= 0x20 && r <= 0x7E) {
		return r
	}
	return ' '
}

// DedupeLines drops blank lines and repeated lines, comparing trimmed
// content and keeping the first occurrence.
func DedupeLines(text string) string {
	if text == "" {
		return ""
	}
	seen := make(map[string]struct{})
	var out []string
	for _, line := range strings.Split(text, "\n") {
		s := strings.TrimSpace(line)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return strings.Join(out, "\n")
}

// ForModel prepares a text source for a model prompt.
func ForModel(raw string) string {
	return DedupeLines(StripBoilerplate(raw))
}
