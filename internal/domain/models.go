package domain

import (
	"encoding/json"
	"sort"
	"time"
)

// FallbackAnswer is returned whenever an answer cannot be grounded in the record.
const FallbackAnswer = "No idea based on brochure."

// ProjectOverview holds the headline facts of a project. All values are strings.
type ProjectOverview struct {
	ProjectName    string `json:"project_name"`
	DeveloperName  string `json:"developer_name"`
	Location       string `json:"location"`
	Description    string `json:"description"`
	LaunchDate     string `json:"launch_date"`
	PossessionDate string `json:"possession_date"`
	RERANumber     string `json:"rera_number"`
	TotalTowers    string `json:"total_towers"`
	TotalUnits     string `json:"total_units"`
	ProjectType    string `json:"project_type"`
}

// Connectivity lists nearby facilities
type Connectivity struct {
	NearbySchools       []string `json:"nearby_schools"`
	NearbyHospitals     []string `json:"nearby_hospitals"`
	NearbyMalls         []string `json:"nearby_malls"`
	TransportFacilities []string `json:"transport_facilities"`
}

// FloorPlan is a single unit configuration
type FloorPlan struct {
	TowerName      string `json:"tower_name"`
	BHKType        string `json:"bhk_type"`
	CarpetArea     string `json:"carpet_area"`
	SuperArea      string `json:"super_area"`
	PriceRange     string `json:"price_range"`
	ImageReference string `json:"image_reference"`
}

// FAQ is a question/answer pair printed in the brochure
type FAQ struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// StructuredRecord is the canonical project listing.
// Missing data is an empty string or empty slice, never null.
type StructuredRecord struct {
	ProjectOverview ProjectOverview `json:"project_overview"`
	Amenities       []string        `json:"amenities"`
	Connectivity    Connectivity    `json:"connectivity"`
	FloorPlans      []FloorPlan     `json:"floor_plans"`
	FAQs            []FAQ           `json:"faqs"`
}

// RequiredTopLevelKeys are the keys every structured document must carry.
var RequiredTopLevelKeys = []string{"project_overview", "amenities", "connectivity", "floor_plans", "faqs"}

// Skeleton returns the record with every key present and every value empty.
func Skeleton() StructuredRecord {
	var r StructuredRecord
	r.EnsureShape()
	return r
}

// EnsureShape replaces nil slices with empty ones.
func (r *StructuredRecord) EnsureShape() {
	if r.Amenities == nil {
		r.Amenities = []string{}
	}
	if r.FloorPlans == nil {
		r.FloorPlans = []FloorPlan{}
	}
	if r.FAQs == nil {
		r.FAQs = []FAQ{}
	}
	c := &r.Connectivity
	if c.NearbySchools == nil {
		c.NearbySchools = []string{}
	}
	if c.NearbyHospitals == nil {
		c.NearbyHospitals = []string{}
	}
	if c.NearbyMalls == nil {
		c.NearbyMalls = []string{}
	}
	if c.TransportFacilities == nil {
		c.TransportFacilities = []string{}
	}
}

// ImageCategory classifies an OCR'd brochure image
type ImageCategory string

const (
	CategoryFloorPlan   ImageCategory = "Floor Plan"
	CategoryAmenities   ImageCategory = "Amenities"
	CategoryLocationMap ImageCategory = "Location Map"
	CategoryGeneral     ImageCategory = "General"
)

// ImageFields are the heuristic fields pulled from one image's text.
// Absent fields are omitted from JSON.
type ImageFields struct {
	Tower     string   `json:"tower,omitempty"`
	BHK       int      `json:"bhk,omitempty"`
	AreaSqft  int      `json:"area_sqft,omitempty"`
	PriceRaw  string   `json:"price_raw,omitempty"`
	Amenities []string `json:"amenities,omitempty"`
}

// OCRResult is the per-image outcome of an OCR batch
type OCRResult struct {
	Image    string        `json:"image"`
	Category ImageCategory `json:"category,omitempty"`
	Details  *ImageFields  `json:"details,omitempty"`
	RawText  string        `json:"raw_text,omitempty"`
	Error    string        `json:"error,omitempty"`
}

// GroundedAnswer is never empty: either a model answer or FallbackAnswer.
type GroundedAnswer struct {
	Answer string `json:"answer"`
}

// IsFallback reports whether the answer is the fixed fallback sentence.
func (a GroundedAnswer) IsFallback() bool {
	return a.Answer == FallbackAnswer
}

// Contact holds brochure contact details; nil means not found.
type Contact struct {
	Phone   *string `json:"phone"`
	Email   *string `json:"email"`
	Website *string `json:"website"`
	Address *string `json:"address"`
}

// BrochureFields is the quick heuristic record extracted from cleaned brochure text.
type BrochureFields struct {
	ProjectName *string  `json:"project_name"`
	Developer   *string  `json:"developer"`
	Location    *string  `json:"location"`
	RERANumber  *string  `json:"rera_number"`
	Amenities   []string `json:"amenities"`
	Highlights  []string `json:"highlights"`
	Contact     Contact  `json:"contact"`
}

// ImageMeta describes a brochure image passed alongside the text.
type ImageMeta struct {
	Category string `json:"category,omitempty"`
	Label    string `json:"label,omitempty"`
	Path     string `json:"path,omitempty"`
}

// UnmarshalJSON accepts either an object or a bare string, which becomes the label.
func (m *ImageMeta) UnmarshalJSON(data []byte) error {
	var label string
	if err := json.Unmarshal(data, &label); err == nil {
		*m = ImageMeta{Label: label}
		return nil
	}
	type plain ImageMeta
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*m = ImageMeta(p)
	return nil
}

// Describe returns the category, or the label when no category is set.
func (m ImageMeta) Describe() string {
	if m.Category != "" {
		return m.Category
	}
	return m.Label
}

// ImageMetadata maps an image key (usually its file name) to its description.
type ImageMetadata map[string]ImageMeta

// SortedKeys returns the metadata keys in lexical order.
func (md ImageMetadata) SortedKeys() []string {
	keys := make([]string, 0, len(md))
	for k := range md {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// StructureMeta records how a structuring attempt went.
type StructureMeta struct {
	Model      string         `json:"model,omitempty"`
	DurationMS int64          `json:"duration_ms"`
	Attempts   int            `json:"attempts"`
	Fallback   bool           `json:"fallback,omitempty"`
	Repaired   bool           `json:"repaired,omitempty"`
	Retry      bool           `json:"retry,omitempty"`
	Error      string         `json:"error,omitempty"`
	Second     *StructureMeta `json:"second,omitempty"`
}

// ExtractedDocument is a stored brochure text extraction.
type ExtractedDocument struct {
	ID        string         `json:"id"`
	Filename  string         `json:"filename"`
	Engine    string         `json:"engine"`
	Text      string         `json:"text"`
	Fields    BrochureFields `json:"fields"`
	CreatedAt time.Time      `json:"created_at"`
}

// StoredRecord is a persisted structuring outcome.
type StoredRecord struct {
	ID          string           `json:"id"`
	ProjectName string           `json:"project_name"`
	Record      StructuredRecord `json:"record"`
	Meta        StructureMeta    `json:"meta"`
	CreatedAt   time.Time        `json:"created_at"`
}
