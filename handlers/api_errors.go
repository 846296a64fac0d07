package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/camden-git/dancereg/logging"
	"github.com/camden-git/dancereg/services"
	"github.com/camden-git/dancereg/validation"
	goerrors "github.com/goliatone/go-errors"
	"go.uber.org/zap"
)

// APIErrorDetail represents a single error in the standardized error response.
type APIErrorDetail struct {
	Code   string `json:"code"`
	Status string `json:"status"`
	Detail string `json:"detail"`
}

// APIErrorResponse represents the standardized error response body. Fields carries the
// per-attribute messages of a failed validation.
type APIErrorResponse struct {
	Errors []APIErrorDetail    `json:"errors"`
	Fields map[string][]string `json:"fields,omitempty"`
}

const (
	codeValidationFailed = "VALIDATION_FAILED"
	codeBadRequest       = "BAD_REQUEST"
	codeInternal         = "INTERNAL_ERROR"
)

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			logging.Named("handlers").Warn("failed to encode JSON response", zap.Error(err))
		}
	}
}

// WriteAPIError writes a standardized error response with the given HTTP status, code, and detail.
func WriteAPIError(w http.ResponseWriter, httpStatus int, code string, detail string) {
	writeAPIError(w, httpStatus, code, detail, nil)
}

func writeAPIError(w http.ResponseWriter, httpStatus int, code, detail string, fields map[string][]string) {
	writeJSON(w, httpStatus, APIErrorResponse{
		Errors: []APIErrorDetail{
			{
				Code:   code,
				Status: strconv.Itoa(httpStatus),
				Detail: detail,
			},
		},
		Fields: fields,
	})
}

// WriteError maps a service error to its HTTP response. Validation failures answer 422
// with the field messages, missing records 404, conflicts and vetoed deletes 409.
// Anything unclassified is logged and answered with 500.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	if fields, ok := validation.FieldsOf(err); ok {
		writeAPIError(w, http.StatusUnprocessableEntity, codeValidationFailed, "validation failed", fields)
		return
	}

	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		logging.LogError(r.Context(), "unhandled error", err)
		WriteAPIError(w, http.StatusInternalServerError, codeInternal, "internal server error")
		return
	}

	switch {
	case rich.Category == goerrors.CategoryNotFound:
		WriteAPIError(w, http.StatusNotFound, textCode(rich, services.TextCodeNotFound), rich.Message)
	case rich.TextCode == services.TextCodeConflict:
		WriteAPIError(w, http.StatusConflict, rich.TextCode, rich.Message)
	case rich.TextCode == services.TextCodeDeleteAborted:
		WriteAPIError(w, http.StatusConflict, rich.TextCode, rich.Message)
	case rich.Category == goerrors.CategoryValidation:
		WriteAPIError(w, http.StatusBadRequest, textCode(rich, codeBadRequest), rich.Message)
	default:
		logging.LogError(r.Context(), "request failed", err)
		WriteAPIError(w, http.StatusInternalServerError, codeInternal, "internal server error")
	}
}

func textCode(e *goerrors.Error, fallback string) string {
	if e.TextCode != "" {
		return e.TextCode
	}
	return fallback
}
