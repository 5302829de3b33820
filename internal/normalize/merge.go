package normalize

import (
	"sort"
	"strings"
	"unicode"
)

// MergeOCR combines the output of two OCR engines. The longer cleaned text
// is the base and the shorter one supplements it; the result is the sorted
// set of non-blank trimmed lines.
func MergeOCR(a, b string) string {
	a, b = Clean(a), Clean(b)
	base, extra := a, b
	if len(b) > len(a) {
		base, extra = b, a
	}

	lines := make(map[string]struct{})
	addLines(lines, base)
	addLines(lines, extra)
	return joinSorted(lines)
}

// MergeConflicts merges model-ready PDF text with OCR text. Every OCR line
// survives. A PDF line is dropped only when an OCR line containing a digit
// has exactly the same text.
func MergeConflicts(pdfText, ocrText string) string {
	ocrLines := make(map[string]struct{})
	numeric := make(map[string]struct{})
	for _, l := range strings.Split(ocrText, "\n") {
		ocrLines[l] = struct{}{}
		if strings.IndexFunc(l, unicode.IsDigit) >= 0 {
			numeric[l] = struct{}{}
		}
	}

	merged := make(map[string]struct{}, len(ocrLines))
	for _, l := range strings.Split(pdfText, "\n") {
		if _, ok := numeric[l]; ok {
			continue
		}
		merged[l] = struct{}{}
	}
	for l := range ocrLines {
		merged[l] = struct{}{}
	}
	delete(merged, "")
	return joinSorted(merged)
}

func addLines(set map[string]struct{}, text string) {
	for _, l := range strings.Split(text, "\n") {
		if s := strings.TrimSpace(l); s != "" {
			set[s] = struct{}{}
		}
	}
}

func joinSorted(set map[string]struct{}) string {
	out := make([]string, 0, len(set))
	for l := range set {
		out = append(out, l)
	}
	sort.Strings(out)
	return strings.Join(out, "\n")
}
