package structure

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Leadrat/pdfscan-pankaj-joshi/internal/domain"
	"github.com/Leadrat/pdfscan-pankaj-joshi/internal/llm"
)

type fakeGenerator struct {
	available bool
	replies   []string
	errs      []error
	prompts   []string
}

func (f *fakeGenerator) Available() bool { return f.available }

func (f *fakeGenerator) GenerateText(ctx context.Context, prompt string) (string, error) {
	i := len(f.prompts)
	f.prompts = append(f.prompts, prompt)
	var text string
	var err error
	if i < len(f.replies) {
		text = f.replies[i]
	}
	if i < len(f.errs) {
		err = f.errs[i]
	}
	return text, err
}

func noSleep(ctx context.Context, d time.Duration) error { return nil }

func newTestStructurer(gen domain.Generator) *Structurer {
	return NewStructurer(gen, "test-model", time.Second,
		WithRetryPolicy(llm.RetryPolicy{Backoffs: llm.DefaultBackoffs, Sleep: noSleep}))
}

const validReply = `{
  "project_overview": {"project_name": "Sky Heights", "total_towers": 4, "launch_date": null},
  "amenities": ["Gym", "", "Pool"],
  "connectivity": {"nearby_schools": ["DPS"]},
  "floor_plans": [{"tower_name": "A", "bhk_type": "", "carpet_area": ""}],
  "faqs": [{"question": "Is parking available?", "answer": "Yes"}, {"question": "", "answer": ""}]
}`

func TestNormalizeInputs(t *testing.T) {
	in := NormalizeInputs("Sky Heights\nCONFIDENTIAL\nSky Heights", "Price 1.2 Cr", nil, "  Sky Heights ")

	assert.Equal(t, "Sky Heights Sky Heights", in.PDFText)
	assert.Equal(t, "Price 1.2 Cr", in.OCRText)
	assert.Equal(t, "Price 1.2 Cr\nSky Heights Sky Heights", in.MergedText)
	assert.Equal(t, "Sky Heights", in.ProjectName)
	assert.NotNil(t, in.ImageMetadata)
}

func TestBuildPrompt(t *testing.T) {
	in := Inputs{
		PDFText:       "3 BHK <premium> & more",
		OCRText:       "Tower B",
		ImageMetadata: domain.ImageMetadata{"p.png": {Category: "Floor Plan"}},
		ProjectName:   "Sky Heights",
	}
	prompt, err := BuildPrompt(in)
	require.NoError(t, err)
	assert.Contains(t, prompt, "<premium> & more")

	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(prompt), &payload))
	assert.Equal(t, instruction, payload["instruction"])

	input := payload["input"].(map[string]any)
	assert.Equal(t, "Tower B", input["ocr_text"])
	assert.Equal(t, "Sky Heights", input["project_name"])
	assert.Contains(t, input["image_metadata"], "p.png")

	schema := payload["schema"].(map[string]any)
	for _, k := range domain.RequiredTopLevelKeys {
		assert.Contains(t, schema, k)
	}
	assert.Len(t, schema["floor_plans"], 1)
	assert.Len(t, schema["faqs"], 1)
}

func TestCombinedSize(t *testing.T) {
	meta := domain.ImageMetadata{"a": {Label: "b"}}
	assert.Equal(t, 3+2+len(`{"a":{"label":"b"}}`)+1, CombinedSize("abc", "de", meta, "x"))
	assert.Equal(t, len("null"), CombinedSize("", "", nil, ""))
}

func TestStructure_FallbackWithoutModel(t *testing.T) {
	for _, gen := range []domain.Generator{nil, &fakeGenerator{available: false}} {
		doc, meta := newTestStructurer(gen).Structure(context.Background(), "prompt")

		assert.True(t, meta.Fallback)
		assert.False(t, meta.Repaired)
		assert.Zero(t, meta.Attempts)
		require.NoError(t, Validate(doc))
		assert.Equal(t, domain.Skeleton(), Decode(doc))
	}
}

func TestStructure_RepairsFencedReply(t *testing.T) {
	gen := &fakeGenerator{available: true, replies: []string{"```json\n" + validReply + "\n```"}}
	doc, meta := newTestStructurer(gen).Structure(context.Background(), "prompt")

	assert.False(t, meta.Repaired)
	assert.Equal(t, 1, meta.Attempts)
	assert.Equal(t, "test-model", meta.Model)
	require.NoError(t, Validate(doc))
}

func TestStructure_UnparseableReplyBecomesSkeleton(t *testing.T) {
	tests := []struct {
		name  string
		reply string
	}{
		{"prose", "Sorry, I cannot read this brochure."},
		{"empty object", "{}"},
		{"array", "[1,2]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &fakeGenerator{available: true, replies: []string{tt.reply}}
			doc, meta := newTestStructurer(gen).Structure(context.Background(), "prompt")

			assert.True(t, meta.Repaired)
			require.NoError(t, Validate(doc))
		})
	}
}

func TestStructure_RetriesTransportErrors(t *testing.T) {
	boom := domain.TransportError("send", errors.New("reset"))

	gen := &fakeGenerator{available: true, replies: []string{"", "", validReply}, errs: []error{boom, boom, nil}}
	_, meta := newTestStructurer(gen).Structure(context.Background(), "prompt")
	assert.Equal(t, 3, meta.Attempts)
	assert.Empty(t, meta.Error)
	assert.False(t, meta.Repaired)

	gen = &fakeGenerator{available: true, errs: []error{boom, boom, boom, boom}}
	doc, meta := newTestStructurer(gen).Structure(context.Background(), "prompt")
	assert.Equal(t, 3, meta.Attempts)
	assert.Len(t, gen.prompts, 3)
	assert.Contains(t, meta.Error, "reset")
	assert.True(t, meta.Repaired)
	require.NoError(t, Validate(doc))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr bool
	}{
		{"valid", validReply, false},
		{"missing faqs", `{"project_overview":{},"amenities":[],"connectivity":{},"floor_plans":[]}`, true},
		{"amenities as string", `{"project_overview":{},"amenities":"Gym","connectivity":{},"floor_plans":[],"faqs":[]}`, false},
		{"null values", `{"project_overview":null,"amenities":null,"connectivity":null,"floor_plans":null,"faqs":null}`, false},
		{"extra keys allowed", `{"project_overview":{},"amenities":[],"connectivity":{},"floor_plans":[],"faqs":[],"notes":"x"}`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var doc map[string]any
			require.NoError(t, json.Unmarshal([]byte(tt.doc), &doc))
			err := Validate(doc)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, domain.IsType(err, domain.ErrorTypeValidation))
			} else {
				assert.NoError(t, err)
			}
		})
	}
	assert.Error(t, Validate(nil))
}

func TestDecode_Lenient(t *testing.T) {
	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(validReply), &doc))

	r := Decode(doc)
	assert.Equal(t, "Sky Heights", r.ProjectOverview.ProjectName)
	assert.Equal(t, "4", r.ProjectOverview.TotalTowers)
	assert.Equal(t, "", r.ProjectOverview.LaunchDate)
	assert.Equal(t, []string{"Gym", "Pool"}, r.Amenities)
	assert.Equal(t, []string{"DPS"}, r.Connectivity.NearbySchools)
	assert.Equal(t, []string{}, r.Connectivity.NearbyMalls)
	require.Len(t, r.FloorPlans, 1)
	assert.Equal(t, "A", r.FloorPlans[0].TowerName)
	require.Len(t, r.FAQs, 1)
	assert.Equal(t, "Yes", r.FAQs[0].Answer)
}

func TestOrchestrator_SucceedsFirstPass(t *testing.T) {
	gen := &fakeGenerator{available: true, replies: []string{validReply}}
	o := NewOrchestrator(newTestStructurer(gen), nil)

	in := NormalizeInputs("Sky Heights 3 BHK 1450 sqft", "", nil, "Sky Heights")
	out := o.Run(context.Background(), in)

	require.True(t, out.OK)
	assert.Empty(t, out.Reason)
	assert.Equal(t, []State{StateBuilt, StateCalled, StateParsed, StateValidated, StateSucceeded}, out.Trace)
	assert.False(t, out.Meta.Retry)
	assert.Nil(t, out.Meta.Second)
	require.Len(t, out.Record.FloorPlans, 1)
	assert.Equal(t, "3 BHK", out.Record.FloorPlans[0].BHKType)
	assert.Equal(t, "1450 sq.ft", out.Record.FloorPlans[0].CarpetArea)
}

func TestOrchestrator_RetriesOnceThenSucceeds(t *testing.T) {
	gen := &fakeGenerator{available: true, replies: []string{`{"project_overview":{}}`, validReply}}
	o := NewOrchestrator(newTestStructurer(gen), nil)

	out := o.Run(context.Background(), NormalizeInputs("pdf", "ocr", nil, ""))

	require.True(t, out.OK)
	assert.True(t, out.Meta.Retry)
	require.NotNil(t, out.Meta.Second)
	assert.Len(t, gen.prompts, 2)
	assert.Equal(t, []State{
		StateBuilt, StateCalled, StateParsed, StateRetried,
		StateBuilt, StateCalled, StateParsed, StateValidated, StateSucceeded,
	}, out.Trace)
}

func TestOrchestrator_CoercesLooseTopLevelValues(t *testing.T) {
	reply := `{"project_overview":{"project_name":"Sky"},"amenities":null,"connectivity":{},"floor_plans":[],"faqs":[]}`
	gen := &fakeGenerator{available: true, replies: []string{reply}}
	o := NewOrchestrator(newTestStructurer(gen), nil)

	out := o.Run(context.Background(), NormalizeInputs("pdf", "ocr", nil, ""))

	require.True(t, out.OK)
	assert.Len(t, gen.prompts, 1)
	assert.Equal(t, []State{StateBuilt, StateCalled, StateParsed, StateValidated, StateSucceeded}, out.Trace)
	assert.Equal(t, "Sky", out.Record.ProjectOverview.ProjectName)
	assert.NotNil(t, out.Record.Amenities)
	assert.Empty(t, out.Record.Amenities)
	assert.NotNil(t, out.Record.Connectivity.NearbySchools)
	assert.NotNil(t, out.Record.FAQs)

	gen = &fakeGenerator{available: true, replies: []string{`{"project_overview":{},"amenities":"Gym","connectivity":{},"floor_plans":[],"faqs":[]}`}}
	out = NewOrchestrator(newTestStructurer(gen), nil).Run(context.Background(), NormalizeInputs("pdf", "ocr", nil, ""))
	require.True(t, out.OK)
	assert.Equal(t, []string{"Gym"}, out.Record.Amenities)
}

func TestOrchestrator_FailsAfterOneRetry(t *testing.T) {
	bad := `{"amenities": []}`
	gen := &fakeGenerator{available: true, replies: []string{bad, bad, bad}}
	o := NewOrchestrator(newTestStructurer(gen), nil)

	out := o.Run(context.Background(), NormalizeInputs("pdf", "ocr", nil, ""))

	assert.False(t, out.OK)
	assert.Equal(t, FailureReason, out.Reason)
	assert.Len(t, gen.prompts, 2)
	assert.Equal(t, StateFailed, out.Trace[len(out.Trace)-1])
	assert.Equal(t, domain.Skeleton(), out.Record)
}

func TestOrchestrator_EmptyInputWithoutModel(t *testing.T) {
	o := NewOrchestrator(newTestStructurer(nil), nil)

	in := NormalizeInputs("   \n\t ", "", nil, "")
	assert.Empty(t, in.MergedText)

	out := o.Run(context.Background(), in)
	require.True(t, out.OK)
	assert.True(t, out.Meta.Fallback)
	assert.Equal(t, domain.Skeleton(), out.Record)

	data, err := json.Marshal(out.Record)
	require.NoError(t, err)
	var generic map[string]any
	require.NoError(t, json.Unmarshal(data, &generic))
	conn := generic["connectivity"].(map[string]any)
	assert.Len(t, conn, 4)
}
