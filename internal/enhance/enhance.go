// Package enhance completes a model-produced record with heuristic signals
// from the merged brochure text.
package enhance

import (
	"strings"

	"github.com/Leadrat/pdfscan-pankaj-joshi/internal/domain"
	"github.com/Leadrat/pdfscan-pankaj-joshi/internal/heuristics"
)

// Enhance fills gaps in r in place. It never overwrites a non-empty value.
//
// With no floor plans, a single entry is synthesized when the text mentions
// a BHK count or an area. Existing entries get an empty bhk_type, carpet_area
// or image_reference filled. An empty RERA number and an empty amenity list
// are taken from the brochure heuristics.
func Enhance(mergedText string, meta domain.ImageMetadata, r *domain.StructuredRecord) {
	r.EnsureShape()

	bhk, area := heuristics.FloorPlanHints(mergedText)
	if len(r.FloorPlans) == 0 {
		if bhk != "" || area != "" {
			r.FloorPlans = append(r.FloorPlans, domain.FloorPlan{
				BHKType:        bhk,
				CarpetArea:     area,
				ImageReference: BestImageRef(meta),
			})
		}
	} else {
		for i := range r.FloorPlans {
			fp := &r.FloorPlans[i]
			if fp.BHKType == "" {
				fp.BHKType = bhk
			}
			if fp.CarpetArea == "" {
				fp.CarpetArea = area
			}
			if fp.ImageReference == "" {
				fp.ImageReference = BestImageRef(meta)
			}
		}
	}

	if r.ProjectOverview.RERANumber == "" {
		if rera := heuristics.RERANumber(mergedText); rera != nil {
			r.ProjectOverview.RERANumber = *rera
		}
	}
	if len(r.Amenities) == 0 {
		r.Amenities = heuristics.Amenities(mergedText)
	}
}

// BestImageRef picks the first image, in key order, whose category or label
// mentions both "floor" and "plan". Without one it falls back to the first
// key, and to "" for empty metadata.
func BestImageRef(meta domain.ImageMetadata) string {
	keys := meta.SortedKeys()
	for _, k := range keys {
		label := strings.ToLower(meta[k].Describe())
		if strings.Contains(label, "floor") && strings.Contains(label, "plan") {
			return k
		}
	}
	if len(keys) > 0 {
		return keys[0]
	}
	return ""
}
