// Package api defines the shared response envelope used by handlers that
// render outside Huma's operation pipeline (404/405 fallbacks, panics).
package api

// Envelope wraps every non-problem response in a predictable shape:
// data carries the payload (nil on errors), meta carries correlation
// metadata, and error is populated only on failures.
type Envelope[T any] struct {
	Data  *T         `json:"data"`
	Meta  Meta       `json:"meta"`
	Error *ErrorBody `json:"error"`
}

// Meta holds cross-cutting response metadata.
type Meta struct {
	TraceID *string `json:"traceId,omitempty"`
}

// ErrorBody describes a failure in a structured, client-parseable form.
type ErrorBody struct {
	Code    string       `json:"code"`
	Message string       `json:"message"`
	Details []FieldIssue `json:"details,omitempty"`
	TraceID *string      `json:"traceId,omitempty"`
}

// FieldIssue attaches an issue to a specific field or location.
type FieldIssue struct {
	Field string `json:"field,omitempty"`
	Issue string `json:"issue"`
}

// NewSuccessEnvelope wraps data in a success envelope. The payload is
// copied so later mutation of the input cannot leak into the response.
func NewSuccessEnvelope[T any](traceID *string, data T) Envelope[T] {
	d := data
	return Envelope[T]{
		Data: &d,
		Meta: Meta{TraceID: traceID},
	}
}

// NewErrorEnvelope builds an error envelope with no data. Details are
// cloned for the same reason.
func NewErrorEnvelope[T any](traceID *string, code, msg string, details []FieldIssue) Envelope[T] {
	var cloned []FieldIssue
	if len(details) > 0 {
		cloned = make([]FieldIssue, len(details))
		copy(cloned, details)
	}
	return Envelope[T]{
		Meta: Meta{TraceID: traceID},
		Error: &ErrorBody{
			Code:    code,
			Message: msg,
			Details: cloned,
			TraceID: traceID,
		},
	}
}
