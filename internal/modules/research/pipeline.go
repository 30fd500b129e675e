package research

import (
	"context"
	"log"
	"strings"
	"time"

	"dulich/internal/ai"
)

// DefaultTimeout is the per-request budget for the provider call.
const DefaultTimeout = 120 * time.Second

// State is a step of the per-request state machine.
type State int

const (
	StateFetching State = iota + 1
	StateExtracting
	StateNormalizing
	StateDone
)

func (s State) String() string {
	switch s {
	case StateFetching:
		return "fetching"
	case StateExtracting:
		return "extracting"
	case StateNormalizing:
		return "normalizing"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}

// Request is one pipeline invocation. SearchTerm is captured once here and
// threaded to every later step, including the fallback.
type Request struct {
	Mode       Mode
	SearchTerm string
	Image      *ai.Media
}

// Outcome is the result of Produce. Record is set for every mode except a
// successful history-only call, which sets History instead.
type Outcome struct {
	Mode     Mode
	Record   *LocationRecord
	History  string
	Fallback bool
	Reason   Reason
	Failure  *ai.Failure
	Provider string
	Trace    []State
	Cached   bool
	Elapsed  time.Duration
}

// Pipeline sequences fetch, extract and normalize for one provider. It holds
// no mutable state and is safe for concurrent use.
type Pipeline struct {
	gen     ai.Generator
	timeout time.Duration
}

// NewPipeline creates a Pipeline over gen. A non-positive timeout uses
// DefaultTimeout.
func NewPipeline(gen ai.Generator, timeout time.Duration) *Pipeline {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Pipeline{gen: gen, timeout: timeout}
}

func (p *Pipeline) prompt(mode Mode, term string) string {
	if mode == ModeImageAnalysis {
		return ImagePrompt(p.gen.Name())
	}
	return BuildPrompt(mode, term)
}

// Provider names the underlying generator.
func (p *Pipeline) Provider() string { return p.gen.Name() }

// Produce runs the pipeline. The only errors returned are validation errors
// (ErrEmptySearchTerm, ErrMissingImage, ErrUnknownMode); provider and parse
// failures come back as fallback records.
func (p *Pipeline) Produce(ctx context.Context, req Request) (Outcome, error) {
	term := strings.TrimSpace(req.SearchTerm)
	if err := validate(req.Mode, term, req.Image); err != nil {
		return Outcome{}, err
	}

	start := time.Now()
	out := Outcome{Mode: req.Mode, Provider: p.gen.Name()}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	out.Trace = append(out.Trace, StateFetching)
	res := ai.Fetch(ctx, p.gen, p.prompt(req.Mode, term), req.Image)
	if res.OK() && ctx.Err() != nil {
		// The provider answered after cancellation; the answer is discarded.
		res = ai.Result{Failure: ai.Classify(&ai.TransportError{Provider: p.gen.Name(), Err: ctx.Err()})}
	}
	if !res.OK() {
		log.Printf("research: %s fetch failed (%s): %v", req.Mode, res.Failure.Kind, res.Failure)
		p.fail(&out, term, req.Mode, res.Failure)
		out.Elapsed = time.Since(start)
		return out, nil
	}

	if req.Mode == ModeHistoryOnly {
		out.History = strings.TrimSpace(res.Raw)
		out.Trace = append(out.Trace, StateDone)
		out.Elapsed = time.Since(start)
		return out, nil
	}

	out.Trace = append(out.Trace, StateExtracting)
	parsed, ok := extractRecord(res.Raw)
	if !ok {
		log.Printf("research: no JSON recognized in %s output (%d bytes)", p.gen.Name(), len(res.Raw))
		rec := Synthesize(term, ReasonUnparseable, res.Raw)
		finalize(&rec, req.Mode)
		out.Record = &rec
		out.Fallback = true
		out.Reason = ReasonUnparseable
		out.Trace = append(out.Trace, StateDone)
		out.Elapsed = time.Since(start)
		return out, nil
	}

	out.Trace = append(out.Trace, StateNormalizing)
	rec := Normalize(parsed, DefaultRecord(term, req.Mode))
	finalize(&rec, req.Mode)
	out.Record = &rec
	out.Trace = append(out.Trace, StateDone)
	out.Elapsed = time.Since(start)
	return out, nil
}

// fail converts a provider failure into a fallback record. A missing vision
// model is a recoverable case with its own placeholder.
func (p *Pipeline) fail(out *Outcome, term string, mode Mode, f *ai.Failure) {
	reason := ReasonProviderUnreachable
	if mode == ModeImageAnalysis && f.Kind == ai.FailureModelUnavailable {
		reason = ReasonVisionUnavailable
	}
	rec := Synthesize(term, reason, f.Error())
	finalize(&rec, mode)

	out.Record = &rec
	out.Fallback = true
	out.Reason = reason
	out.Failure = f
	if mode == ModeHistoryOnly {
		out.History = rec.History
	}
	out.Trace = append(out.Trace, StateDone)
}

func validate(mode Mode, term string, image *ai.Media) error {
	switch mode {
	case ModeFullResearch, ModeHistoryOnly:
		if term == "" {
			return ErrEmptySearchTerm
		}
	case ModeImageAnalysis:
		if image == nil || strings.TrimSpace(image.Data) == "" {
			return ErrMissingImage
		}
	default:
		return ErrUnknownMode
	}
	return nil
}

// finalize applies per-mode touches after normalization or synthesis.
func finalize(rec *LocationRecord, mode Mode) {
	if mode == ModeFullResearch && rec.Image == "" && rec.ImageSuggestion != "" {
		rec.Image = DefaultImageURL
	}
	if strings.TrimSpace(rec.Name) == "" {
		rec.Name = ImageLandmarkName
	}
}
