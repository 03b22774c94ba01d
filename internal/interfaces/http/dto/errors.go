package dto

import (
	"net/http"
	"strings"
)

// Error codes written by the HTTP layer itself. Domain errors keep their own code.
const (
	ErrCodeInternal   = "INTERNAL_ERROR"
	ErrCodeValidation = "VALIDATION_ERROR"
	ErrCodeBadRequest = "BAD_REQUEST"
	ErrCodeNotFound   = "NOT_FOUND"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:   http.StatusInternalServerError,
	ErrCodeValidation: http.StatusBadRequest,
	ErrCodeBadRequest: http.StatusBadRequest,

	// Resource errors
	"NOT_FOUND":            http.StatusNotFound,
	"ALREADY_EXISTS":       http.StatusConflict,
	"IN_USE":               http.StatusConflict,
	"CONCURRENCY_CONFLICT": http.StatusConflict,

	// Business rule errors -> 422 Unprocessable Entity
	"INVALID_STATE":      http.StatusUnprocessableEntity,
	"INSUFFICIENT_STOCK": http.StatusUnprocessableEntity,
	"CATEGORY_CYCLE":     http.StatusUnprocessableEntity,
	"HAS_CHILDREN":       http.StatusUnprocessableEntity,
	"MAX_DEPTH_EXCEEDED": http.StatusUnprocessableEntity,
	"ALREADY_PAID":       http.StatusUnprocessableEntity,
	"ALREADY_POSTED":     http.StatusUnprocessableEntity,
	"NOT_PAID":           http.StatusUnprocessableEntity,
	"NOT_POSTED":         http.StatusUnprocessableEntity,
	"RECEIPT_NOT_BOOKED": http.StatusUnprocessableEntity,
	"PRODUCT_INACTIVE":   http.StatusUnprocessableEntity,
	"TTN_REQUIRED":       http.StatusUnprocessableEntity,

	// Input errors -> 400 Bad Request
	"INVALID_INPUT":     http.StatusBadRequest,
	"NO_ITEMS":          http.StatusBadRequest,
	"DUPLICATE_PRODUCT": http.StatusBadRequest,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Unmapped INVALID_* codes are domain validation failures and map to 400;
// anything else unknown is a 500.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	if strings.HasPrefix(code, "INVALID_") {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
