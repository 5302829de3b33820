package structure

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/Leadrat/pdfscan-pankaj-joshi/internal/domain"
)

// Decode converts a validated model document into a StructuredRecord.
// Models return numbers for counts and null for unknowns; both are coerced
// to the string-only schema rather than rejected.
func Decode(doc map[string]any) domain.StructuredRecord {
	var r domain.StructuredRecord

	if po, ok := doc["project_overview"].(map[string]any); ok {
		r.ProjectOverview = domain.ProjectOverview{
			ProjectName:    str(po["project_name"]),
			DeveloperName:  str(po["developer_name"]),
			Location:       str(po["location"]),
			Description:    str(po["description"]),
			LaunchDate:     str(po["launch_date"]),
			PossessionDate: str(po["possession_date"]),
			RERANumber:     str(po["rera_number"]),
			TotalTowers:    str(po["total_towers"]),
			TotalUnits:     str(po["total_units"]),
			ProjectType:    str(po["project_type"]),
		}
	}

	r.Amenities = strs(doc["amenities"])

	if c, ok := doc["connectivity"].(map[string]any); ok {
		r.Connectivity = domain.Connectivity{
			NearbySchools:       strs(c["nearby_schools"]),
			NearbyHospitals:     strs(c["nearby_hospitals"]),
			NearbyMalls:         strs(c["nearby_malls"]),
			TransportFacilities: strs(c["transport_facilities"]),
		}
	}

	if fps, ok := doc["floor_plans"].([]any); ok {
		for _, v := range fps {
			fp, ok := v.(map[string]any)
			if !ok {
				continue
			}
			r.FloorPlans = append(r.FloorPlans, domain.FloorPlan{
				TowerName:      str(fp["tower_name"]),
				BHKType:        str(fp["bhk_type"]),
				CarpetArea:     str(fp["carpet_area"]),
				SuperArea:      str(fp["super_area"]),
				PriceRange:     str(fp["price_range"]),
				ImageReference: str(fp["image_reference"]),
			})
		}
	}

	if faqs, ok := doc["faqs"].([]any); ok {
		for _, v := range faqs {
			f, ok := v.(map[string]any)
			if !ok {
				continue
			}
			q, a := str(f["question"]), str(f["answer"])
			if q == "" && a == "" {
				continue
			}
			r.FAQs = append(r.FAQs, domain.FAQ{Question: q, Answer: a})
		}
	}

	r.EnsureShape()
	return r
}

func str(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

func strs(v any) []string {
	out := []string{}
	switch t := v.(type) {
	case []any:
		for _, item := range t {
			if s := str(item); s != "" {
				out = append(out, s)
			}
		}
	case string:
		if s := strings.TrimSpace(t); s != "" {
			out = append(out, s)
		}
	}
	return out
}
