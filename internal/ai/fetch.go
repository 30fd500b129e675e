package ai

import (
	"context"
	"errors"
)

// FailureKind tags why a provider call produced no usable text.
type FailureKind int

const (
	FailureTransport FailureKind = iota + 1
	FailureStatus
	FailureModelUnavailable
	FailureMalformed
)

func (k FailureKind) String() string {
	switch k {
	case FailureTransport:
		return "transport"
	case FailureStatus:
		return "status"
	case FailureModelUnavailable:
		return "model_unavailable"
	case FailureMalformed:
		return "malformed"
	default:
		return "unknown"
	}
}

// Failure is the error side of Result.
type Failure struct {
	Kind   FailureKind
	Status int
	Err    error
}

func (f *Failure) Error() string {
	if f.Err == nil {
		return f.Kind.String()
	}
	return f.Err.Error()
}

func (f *Failure) Unwrap() error { return f.Err }

// Result is either the raw generated text or a tagged Failure, never both.
type Result struct {
	Raw     string
	Failure *Failure
}

// OK reports whether the call produced text.
func (r Result) OK() bool { return r.Failure == nil }

// Fetch issues one generation request and folds every error into a Failure.
// It never returns a Go error; callers branch on Result.OK.
func Fetch(ctx context.Context, gen Generator, prompt string, media *Media) Result {
	if err := ctx.Err(); err != nil {
		return Result{Failure: &Failure{Kind: FailureTransport, Err: &TransportError{Provider: gen.Name(), Err: err}}}
	}
	raw, err := gen.Generate(ctx, prompt, media)
	if err != nil {
		return Result{Failure: Classify(err)}
	}
	return Result{Raw: raw}
}

// Classify maps a provider error onto a Failure. Unknown errors count as
// transport failures so the caller still falls back.
func Classify(err error) *Failure {
	var (
		statusErr    *StatusError
		malformedErr *MalformedResponseError
	)
	switch {
	case errors.As(err, &statusErr):
		kind := FailureStatus
		if errors.Is(statusErr, ErrModelUnavailable) {
			kind = FailureModelUnavailable
		}
		return &Failure{Kind: kind, Status: statusErr.Code, Err: err}
	case errors.As(err, &malformedErr):
		return &Failure{Kind: FailureMalformed, Err: err}
	default:
		return &Failure{Kind: FailureTransport, Err: err}
	}
}
