package httpx

import (
	"encoding/json"
	"net/http"
)

// Error codes shared by every handler.
const (
	CodeBadRequest  = "BAD_REQUEST"
	CodeValidation  = "VALIDATION_ERROR"
	CodeInvalidID   = "INVALID_ID"
	CodeNotFound    = "NOT_FOUND"
	CodeTooLarge    = "FILE_TOO_LARGE"
	CodeUnsupported = "UNSUPPORTED_TYPE"
	CodeTooMany     = "TOO_MANY_FILES"
	CodeWriteFailed = "WRITE_FAILED"
	CodeRateLimited = "RATE_LIMIT_EXCEEDED"
	CodeInternal    = "INTERNAL_ERROR"
)

type SuccessResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Count   *int        `json:"count,omitempty"`
	Meta    interface{} `json:"meta,omitempty"`
}

type ErrorResponse struct {
	Success bool          `json:"success"`
	Error   string        `json:"error"`
	Code    string        `json:"code"`
	Details []ErrorDetail `json:"details,omitempty"`
	Meta    interface{}   `json:"meta,omitempty"`
}

type ErrorDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func buildMeta(r *http.Request) interface{} {
	if r == nil {
		return nil
	}
	requestID := RequestIDFrom(r)
	if requestID == "" {
		return nil
	}
	return map[string]interface{}{"request_id": requestID}
}

func writeJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func JSONSuccess(w http.ResponseWriter, r *http.Request, data interface{}) {
	writeJSON(w, http.StatusOK, SuccessResponse{
		Success: true,
		Data:    data,
		Meta:    buildMeta(r),
	})
}

func JSONList(w http.ResponseWriter, r *http.Request, data interface{}, count int) {
	writeJSON(w, http.StatusOK, SuccessResponse{
		Success: true,
		Data:    data,
		Count:   &count,
		Meta:    buildMeta(r),
	})
}

func JSONMessage(w http.ResponseWriter, r *http.Request, statusCode int, message string, data interface{}) {
	writeJSON(w, statusCode, SuccessResponse{
		Success: true,
		Message: message,
		Data:    data,
		Meta:    buildMeta(r),
	})
}

func JSONError(w http.ResponseWriter, r *http.Request, statusCode int, code string, message string, details []ErrorDetail) {
	writeJSON(w, statusCode, ErrorResponse{
		Success: false,
		Error:   message,
		Code:    code,
		Details: details,
		Meta:    buildMeta(r),
	})
}
