package core

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"skywise/internal/types"
)

// maxRequestBodySize caps request bodies at 1 MB.
const maxRequestBodySize = 1 << 20

// APIErrorResponse is the envelope every error response uses.
type APIErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail is the client-visible part of an error.
type ErrorDetail struct {
	Code      string         `json:"code"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	RequestID string         `json:"request_id"`
}

func envelope(r *http.Request, code types.ErrorCode, message string, details map[string]any) APIErrorResponse {
	return APIErrorResponse{Error: ErrorDetail{
		Code:      string(code),
		Message:   message,
		Details:   details,
		RequestID: types.GetRequestID(r.Context()),
	}}
}

// JSON writes data with the given status. A value that cannot be marshalled
// produces a 500 envelope instead.
func JSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	w.Header().Set("Content-Type", "application/json")

	body, err := json.Marshal(data)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(envelope(r, types.ErrCodeInternalUnexpected, "failed to marshal response", nil))
		return
	}

	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// Error writes err as an APIErrorResponse. A *types.AppError anywhere in the
// chain supplies the status, code, message and details; any other error
// becomes a generic 500. Wrapped causes are never exposed.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *types.AppError
	if !errors.As(err, &appErr) {
		JSON(w, r, http.StatusInternalServerError, envelope(r, types.ErrCodeInternalUnexpected, recoveryMessage, nil))
		return
	}
	JSON(w, r, appErr.HTTPStatus(), envelope(r, appErr.Code, appErr.Message, appErr.Details))
}

// DecodeOption adjusts the json.Decoder DecodeJSON uses.
type DecodeOption func(*json.Decoder)

// WithUseNumber keeps numbers inside interface{} values as json.Number so
// the caller sees the literal the client sent.
func WithUseNumber() DecodeOption {
	return func(d *json.Decoder) { d.UseNumber() }
}

// DecodeJSON reads exactly one JSON value from the request body into dst.
// Unknown fields are rejected. Every failure, including an empty body or
// trailing data, is a validation_invalid_json AppError.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any, opts ...DecodeOption) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	for _, opt := range opts {
		opt(dec)
	}

	if err := dec.Decode(dst); err != nil {
		return mapDecodeError(err)
	}
	if dec.More() {
		return invalidJSON("request body must contain a single JSON object", nil)
	}
	return nil
}

func invalidJSON(message string, cause error) *types.AppError {
	return types.NewAppError(types.ErrCodeValidationInvalidJSON, message, cause)
}

const unknownFieldPrefix = "json: unknown field "

func mapDecodeError(err error) *types.AppError {
	var (
		maxBytesErr *http.MaxBytesError
		syntaxErr   *json.SyntaxError
		typeErr     *json.UnmarshalTypeError
	)

	switch {
	case errors.As(err, &maxBytesErr):
		return invalidJSON("request body must not exceed 1MB", err)
	case errors.As(err, &syntaxErr), errors.Is(err, io.ErrUnexpectedEOF):
		return invalidJSON("malformed JSON in request body", err)
	case errors.As(err, &typeErr):
		return types.NewAppErrorWithDetails(types.ErrCodeValidationInvalidJSON, "invalid value for field", err,
			map[string]any{"field": typeErr.Field, "expected": typeErr.Type.String()})
	case strings.HasPrefix(err.Error(), unknownFieldPrefix):
		return invalidJSON("unknown field in request body: "+strings.TrimPrefix(err.Error(), unknownFieldPrefix), err)
	case errors.Is(err, io.EOF):
		return invalidJSON("request body must not be empty", err)
	default:
		return invalidJSON("invalid JSON in request body", err)
	}
}
