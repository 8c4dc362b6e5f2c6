package tools

import "fmt"

// FailureKind classifies why a tool could not produce its normal output.
type FailureKind string

const (
	FailureNotFound         FailureKind = "not_found"
	FailureTransport        FailureKind = "transport"
	FailureDecode           FailureKind = "decode"
	FailureInvalidArguments FailureKind = "invalid_arguments"
	FailureUnknownTool      FailureKind = "unknown_tool"
)

// Failure describes a tool failure. Detail is the underlying cause, kept
// separately from the user-facing text.
type Failure struct {
	Kind   FailureKind
	Detail string
}

// Result is the outcome of a tool execution.
// Text is always set and is what gets fed back to the model; Failure is nil
// on success.
type Result struct {
	Text    string
	Failure *Failure
}

// Success wraps a normal tool answer.
func Success(text string) Result {
	return Result{Text: text}
}

// Fail builds a failed result with the given model-facing text.
func Fail(kind FailureKind, detail, text string) Result {
	return Result{Text: text, Failure: &Failure{Kind: kind, Detail: detail}}
}

// OK reports whether the tool succeeded.
func (r Result) OK() bool {
	return r.Failure == nil
}

// Is reports whether r failed with the given kind.
func (r Result) Is(kind FailureKind) bool {
	return r.Failure != nil && r.Failure.Kind == kind
}

func (r Result) String() string {
	return r.Text
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s: %s", f.Kind, f.Detail)
}
