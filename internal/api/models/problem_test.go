package models_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hydroviewer/hydroviewer/internal/api/models"
)

func TestNewProblem_FillsKnownTitle(t *testing.T) {
	p := models.NewProblem(models.ProblemTypeNotFound, "", http.StatusNotFound, "req_1")
	assert.Equal(t, "Not found", p.Title)

	p = models.NewProblem(models.ProblemTypeNotFound, "Session expired", http.StatusNotFound, "req_1")
	assert.Equal(t, "Session expired", p.Title)
}

func TestProblemConstructors(t *testing.T) {
	tests := []struct {
		name    string
		problem *models.Problem
		status  int
		typ     string
	}{
		{"bad request", models.NewBadRequest("req_1", "bad", nil), http.StatusBadRequest, models.ProblemTypeValidation},
		{"not found", models.NewNotFound("req_1", "gone"), http.StatusNotFound, models.ProblemTypeNotFound},
		{"conflict", models.NewConflict("req_1", "busy"), http.StatusConflict, models.ProblemTypeConflict},
		{"media type", models.NewUnsupportedMediaType("req_1", "json"), http.StatusUnsupportedMediaType, models.ProblemTypeUnsupportedType},
		{"rate limit", models.NewTooManyRequests("req_1", "slow"), http.StatusTooManyRequests, models.ProblemTypeTooManyRequests},
		{"internal", models.NewInternalError("req_1", "oops"), http.StatusInternalServerError, models.ProblemTypeInternal},
		{"unavailable", models.NewServiceUnavailable("req_1", "down"), http.StatusServiceUnavailable, models.ProblemTypeUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, tt.problem.Status)
			assert.Equal(t, tt.typ, tt.problem.Type)
			assert.NotEmpty(t, tt.problem.Title)
			assert.NotEmpty(t, tt.problem.Detail)
		})
	}
}

func TestProblem_Write(t *testing.T) {
	p := models.NewBadRequest("req_abc", "stationId is required", []models.FieldError{
		{Field: "stationId", Message: "required", Code: "REQUIRED"},
	}).WithInstance("/v1/sessions/ses_1/selection")

	rec := httptest.NewRecorder()
	p.Write(rec)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "req_abc", rec.Header().Get("X-Request-Id"))

	var decoded models.Problem
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	assert.Equal(t, "/v1/sessions/ses_1/selection", decoded.Instance)
	require.Len(t, decoded.Errors, 1)
	assert.Equal(t, "stationId", decoded.Errors[0].Field)
}

func TestProblem_WriteWithoutTraceID(t *testing.T) {
	rec := httptest.NewRecorder()
	models.NewNotFound("", "gone").Write(rec)
	assert.Empty(t, rec.Header().Get("X-Request-Id"))
}
