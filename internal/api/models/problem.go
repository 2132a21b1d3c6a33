package models

import (
	"encoding/json"
	"net/http"
)

// ProblemBaseURI prefixes every problem type.
const ProblemBaseURI = "https://hydroviewer.dev/problems/"

// Problem is an RFC7807 error document, written as application/problem+json.
type Problem struct {
	Type     string       `json:"type"`
	Title    string       `json:"title"`
	Status   int          `json:"status"`
	Detail   string       `json:"detail,omitempty"`
	Instance string       `json:"instance,omitempty"`
	TraceID  string       `json:"traceId"`
	Errors   []FieldError `json:"errors,omitempty"`
}

// FieldError represents a validation error on a specific field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Problem types.
const (
	ProblemTypeValidation      = ProblemBaseURI + "validation-error"
	ProblemTypeNotFound        = ProblemBaseURI + "not-found"
	ProblemTypeConflict        = ProblemBaseURI + "conflict"
	ProblemTypeUnsupportedType = ProblemBaseURI + "unsupported-media-type"
	ProblemTypeTooManyRequests = ProblemBaseURI + "too-many-requests"
	ProblemTypeInternal        = ProblemBaseURI + "internal-error"
	ProblemTypeUnavailable     = ProblemBaseURI + "service-unavailable"
)

var problemTitles = map[string]string{
	ProblemTypeValidation:      "Validation error",
	ProblemTypeNotFound:        "Not found",
	ProblemTypeConflict:        "Conflict",
	ProblemTypeUnsupportedType: "Unsupported media type",
	ProblemTypeTooManyRequests: "Too many requests",
	ProblemTypeInternal:        "Internal server error",
	ProblemTypeUnavailable:     "Service unavailable",
}

// NewProblem creates a Problem. An empty title is filled from the known types.
func NewProblem(problemType, title string, status int, traceID string) *Problem {
	if title == "" {
		title = problemTitles[problemType]
	}
	return &Problem{
		Type:    problemType,
		Title:   title,
		Status:  status,
		TraceID: traceID,
	}
}

// WithDetail adds a detail message to the Problem.
func (p *Problem) WithDetail(detail string) *Problem {
	p.Detail = detail
	return p
}

// WithInstance adds the request instance URI to the Problem.
func (p *Problem) WithInstance(instance string) *Problem {
	p.Instance = instance
	return p
}

// WithErrors adds field errors to the Problem.
func (p *Problem) WithErrors(errors []FieldError) *Problem {
	p.Errors = errors
	return p
}

// Write writes the Problem as JSON to the ResponseWriter.
func (p *Problem) Write(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/problem+json")
	if p.TraceID != "" {
		w.Header().Set("X-Request-Id", p.TraceID)
	}
	w.WriteHeader(p.Status)
	_ = json.NewEncoder(w).Encode(p)
}

// NewBadRequest creates a 400 problem.
func NewBadRequest(traceID, detail string, errors []FieldError) *Problem {
	return NewProblem(ProblemTypeValidation, "", http.StatusBadRequest, traceID).
		WithDetail(detail).
		WithErrors(errors)
}

// NewNotFound creates a 404 problem.
func NewNotFound(traceID, detail string) *Problem {
	return NewProblem(ProblemTypeNotFound, "", http.StatusNotFound, traceID).WithDetail(detail)
}

// NewConflict creates a 409 problem.
func NewConflict(traceID, detail string) *Problem {
	return NewProblem(ProblemTypeConflict, "", http.StatusConflict, traceID).WithDetail(detail)
}

// NewUnsupportedMediaType creates a 415 problem.
func NewUnsupportedMediaType(traceID, detail string) *Problem {
	return NewProblem(ProblemTypeUnsupportedType, "", http.StatusUnsupportedMediaType, traceID).WithDetail(detail)
}

// NewTooManyRequests creates a 429 problem.
func NewTooManyRequests(traceID, detail string) *Problem {
	return NewProblem(ProblemTypeTooManyRequests, "", http.StatusTooManyRequests, traceID).WithDetail(detail)
}

// NewInternalError creates a 500 problem.
func NewInternalError(traceID, detail string) *Problem {
	return NewProblem(ProblemTypeInternal, "", http.StatusInternalServerError, traceID).WithDetail(detail)
}

// NewServiceUnavailable creates a 503 problem.
func NewServiceUnavailable(traceID, detail string) *Problem {
	return NewProblem(ProblemTypeUnavailable, "", http.StatusServiceUnavailable, traceID).WithDetail(detail)
}
