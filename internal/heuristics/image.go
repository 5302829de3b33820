package heuristics

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/Leadrat/pdfscan-pankaj-joshi/internal/domain"
)

var (
	towerRE = regexp.MustCompile(`(?i)tower\s*([A-Za-z0-9-]+)`)
	bhkRE   = regexp.MustCompile(`(?i)(\d)\s*BHK`)
	areaRE  = regexp.MustCompile(`(?i)(\d{3,5})\s*(sq\.?\s*ft|sqft)`)
	priceRE = regexp.MustCompile(`(?i)₹?\s*([0-9]+(?:,[0-9]{2,3})*(?:\.[0-9]+)?)\s*(lac|lakh|cr|crore|rs|inr)?`)
)

// categoryBuckets are checked in order; the first bucket with a hit wins.
var categoryBuckets = []struct {
	category domain.ImageCategory
	keywords []string
}{
	{domain.CategoryFloorPlan, []string{"bhk", "sq.ft", "sqft", "floor plan", "carpet area", "built-up"}},
	{domain.CategoryAmenities, []string{"gym", "club", "amenities", "pool", "play area", "garden"}},
	{domain.CategoryLocationMap, []string{"map", "road", "location", "avenue"}},
}

var imageAmenityREs = func() []struct {
	name string
	re   *regexp.Regexp
} {
	words := []string{"gym", "club", "pool", "garden", "play", "security"}
	out := make([]struct {
		name string
		re   *regexp.Regexp
	}, len(words))
	for i, w := range words {
		out[i].name = w
		out[i].re = regexp.MustCompile(`(?i)\b` + w + `\b`)
	}
	return out
}()

// Categorize classifies OCR text from a single brochure image.
func Categorize(text string) domain.ImageCategory {
	low := strings.ToLower(text)
	for _, b := range categoryBuckets {
		for _, k := range b.keywords {
			if strings.Contains(low, k) {
				return b.category
			}
		}
	}
	return domain.CategoryGeneral
}

// ExtractImageFields pulls tower, BHK, area, a raw price token and amenity
// words out of OCR text. The price is kept as written, trimmed.
func ExtractImageFields(text string) domain.ImageFields {
	var f domain.ImageFields

	if m := towerRE.FindStringSubmatch(text); m != nil {
		f.Tower = m[1]
	}
	if m := bhkRE.FindStringSubmatch(text); m != nil {
		f.BHK, _ = strconv.Atoi(m[1])
	}
	if m := areaRE.FindStringSubmatch(text); m != nil {
		f.AreaSqft, _ = strconv.Atoi(m[1])
	}
	if m := priceRE.FindString(text); strings.TrimSpace(m) != "" {
		f.PriceRaw = strings.TrimSpace(m)
	}

	for _, a := range imageAmenityREs {
		if a.re.MatchString(text) {
			f.Amenities = append(f.Amenities, a.name)
		}
	}
	sort.Strings(f.Amenities)
	return f
}

// BuildOCRResult assembles the per-image result from merged OCR text.
func BuildOCRResult(image, mergedText string) domain.OCRResult {
	fields := ExtractImageFields(mergedText)
	return domain.OCRResult{
		Image:    image,
		Category: Categorize(mergedText),
		Details:  &fields,
		RawText:  mergedText,
	}
}

// FloorPlanHints returns "<n> BHK" and "<n> sq.ft" strings for the first
// BHK and area mentions in text, or empty strings.
func FloorPlanHints(text string) (bhk, area string) {
	if m := bhkRE.FindStringSubmatch(text); m != nil {
		bhk = m[1] + " BHK"
	}
	if m := areaRE.FindStringSubmatch(text); m != nil {
		area = m[1] + " sq.ft"
	}
	return bhk, area
}
