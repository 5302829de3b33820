// Package heuristics extracts listing fields from normalized text with
// regular expressions and keyword lists. Every function is pure and total:
// missing data comes back as nil or an empty slice, never as an error.
package heuristics

import (
	"regexp"
	"strings"

	"github.com/Leadrat/pdfscan-pankaj-joshi/internal/domain"
)

var (
	phoneRE   = regexp.MustCompile(`\b(?:\+?\d{1,3}[- ]?)?(?:\d{10}|\d{3}[- ]\d{3}[- ]\d{4})\b`)
	emailRE   = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)
	websiteRE = regexp.MustCompile(`\b(?:https?://)?(?:www\.)?[A-Za-z0-9.-]+\.[A-Za-z]{2,}(?:/[A-Za-z0-9._%/#-]*)?\b`)
	reraRE    = regexp.MustCompile(`(?i)\b(?:RERA|HRERA|MHADA)[- ]?[:#]?[ ]?([A-Za-z0-9-]+)\b`)
)

// AmenityKeywords are matched as substrings of the lowercased text.
var AmenityKeywords = []string{
	"gym", "swimming pool", "clubhouse", "security", "parking", "garden",
	"playground", "spa", "theatre", "wifi", "power backup", "lift", "elevator",
}

var (
	projectKeywords   = []string{"project", "residency", "heights", "apartments", "residence"}
	developerKeywords = []string{"builder", "developers", "developer", "constructions", "infra"}
	locationKeywords  = []string{"sector", "gurgaon", "mumbai", "pune", "bangalore", "delhi", "noida"}
	highlightPhrases  = []string{"near metro", "24x7 security", "spacious", "park facing", "clubhouse"}
)

// ExtractBrochure builds the quick heuristic record for a cleaned brochure.
func ExtractBrochure(text string) domain.BrochureFields {
	low := strings.ToLower(text)

	return domain.BrochureFields{
		ProjectName: firstLineContaining(low, projectKeywords),
		Developer:   firstLineContaining(low, developerKeywords),
		Location:    firstLineContaining(low, locationKeywords),
		RERANumber:  RERANumber(text),
		Amenities:   Amenities(text),
		Highlights:  presentPhrases(low, highlightPhrases),
		Contact: domain.Contact{
			Phone:   firstMatch(phoneRE, text),
			Email:   firstMatch(emailRE, text),
			Website: firstWebsite(text),
		},
	}
}

// Amenities returns the title-cased amenity keywords present in text. The
// result follows AmenityKeywords order, not the order the amenities appear
// in text, and lists each keyword once.
func Amenities(text string) []string {
	return presentPhrases(strings.ToLower(text), AmenityKeywords)
}

// RERANumber returns the token following the first RERA/HRERA/MHADA prefix.
func RERANumber(text string) *string {
	m := reraRE.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	return &m[1]
}

func presentPhrases(low string, phrases []string) []string {
	out := []string{}
	for _, p := range phrases {
		if strings.Contains(low, p) {
			out = append(out, TitleCase(p))
		}
	}
	return out
}

// firstLineContaining expects already lowercased text.
func firstLineContaining(low string, keys []string) *string {
	for _, line := range strings.Split(low, "\n") {
		for _, k := range keys {
			if strings.Contains(line, k) {
				s := TitleCase(strings.TrimSpace(line))
				if s == "" {
					return nil
				}
				return &s
			}
		}
	}
	return nil
}

func firstMatch(re *regexp.Regexp, text string) *string {
	m := re.FindString(text)
	if m == "" {
		return nil
	}
	return &m
}

// firstWebsite skips domains that are the tail of an email address.
func firstWebsite(text string) *string {
	for _, loc := range websiteRE.FindAllStringIndex(text, -1) {
		if loc[0] > 0 && text[loc[0]-1] == '@' {
			continue
		}
		s := text[loc[0]:loc[1]]
		return &s
	}
	return nil
}
