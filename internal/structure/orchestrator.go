package structure

import (
	"context"

	"github.com/Leadrat/pdfscan-pankaj-joshi/internal/domain"
	"github.com/Leadrat/pdfscan-pankaj-joshi/internal/enhance"
	"github.com/Leadrat/pdfscan-pankaj-joshi/internal/observability"
)

// State is a step of the structuring flow.
type State string

const (
	StateBuilt     State = "built"
	StateCalled    State = "called"
	StateParsed    State = "parsed"
	StateValidated State = "validated"
	StateRetried   State = "retried"
	StateFailed    State = "failed"
	StateSucceeded State = "succeeded"
)

// FailureReason is reported when both passes produce an invalid document.
const FailureReason = "Failed to structure data"

// maxPasses is the first pass plus exactly one retry.
const maxPasses = 2

// Outcome is the result of a full structuring run.
type Outcome struct {
	Record domain.StructuredRecord
	OK     bool
	Reason string
	Meta   domain.StructureMeta
	Trace  []State
}

// EnhanceFunc completes a decoded record in place.
type EnhanceFunc func(mergedText string, meta domain.ImageMetadata, r *domain.StructuredRecord)

// Orchestrator drives Built → Called → Parsed → Validated and allows a
// single trip back to Built when validation fails.
type Orchestrator struct {
	structurer *Structurer
	enhance    EnhanceFunc
	logger     *observability.Logger
}

// NewOrchestrator creates an Orchestrator using enhance.Enhance.
func NewOrchestrator(s *Structurer, logger *observability.Logger) *Orchestrator {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &Orchestrator{structurer: s, enhance: enhance.Enhance, logger: logger}
}

// Run structures the normalized inputs. It never returns an error: a run
// that stays invalid after the retry ends with OK false and a reason.
func (o *Orchestrator) Run(ctx context.Context, in Inputs) Outcome {
	var (
		out    Outcome
		state  = StateBuilt
		passes = 0
		prompt string
		doc    map[string]any
		valErr error
	)

	for {
		out.Trace = append(out.Trace, state)

		switch state {
		case StateBuilt:
			passes++
			p, err := BuildPrompt(in)
			if err != nil {
				valErr = err
				state = StateFailed
				continue
			}
			prompt = p
			state = StateCalled

		case StateCalled:
			var meta domain.StructureMeta
			doc, meta = o.structurer.Structure(ctx, prompt)
			if passes == 1 {
				out.Meta = meta
			} else {
				second := meta
				out.Meta.Second = &second
			}
			state = StateParsed

		case StateParsed:
			valErr = Validate(doc)
			switch {
			case valErr == nil:
				state = StateValidated
			case passes < maxPasses:
				state = StateRetried
			default:
				state = StateFailed
			}

		case StateValidated:
			rec := Decode(doc)
			o.enhance(in.MergedText, in.ImageMetadata, &rec)
			out.Record = rec
			out.OK = true
			state = StateSucceeded

		case StateRetried:
			o.logger.Warn().Err(valErr).Msg("structure.retry")
			out.Meta.Retry = true
			state = StateBuilt

		case StateSucceeded:
			return out

		case StateFailed:
			o.logger.Error().Err(valErr).Int("passes", passes).Msg("structure.failed")
			out.Record = domain.Skeleton()
			out.OK = false
			out.Reason = FailureReason
			return out
		}
	}
}
