package web

// error_messages.go maps technical errors to user-facing messages with codes
// support staff can look up.
//
//	PLT001 - Unknown platform            400
//	PRD001 - Product not found           404
//	PRD002 - Product lookup unavailable  400
//	EXP001 - Export system busy          503
//	EXP002 - Too many products           413
//	REQ001 - Invalid request             400
//	REQ002 - Request cancelled           499
//	RATE001 - Rate limited               429
//	DB004  - Database unreachable        503
//	DB006  - Operation timed out         504
//	ERR000 - Unknown error               500
//
// Sentinel errors are matched with errors.Is first. Errors without a sentinel
// fall through to case-insensitive substring patterns; the first match wins.

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/JonMunkholm/listingbridge/internal/platform"
	"github.com/JonMunkholm/listingbridge/internal/product"
)

var (
	// ErrBadRequest marks malformed or incomplete request bodies.
	ErrBadRequest = errors.New("invalid request")

	// ErrTooManyProducts is returned when an export exceeds the per-request cap.
	ErrTooManyProducts = errors.New("too many products in one export")

	// ErrNoProductStore is returned for SKU lookups when no database is configured.
	ErrNoProductStore = errors.New("product lookup by sku is not configured")

	errRateLimited = errors.New("rate limit exceeded")
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened
	Action  string // What to do about it
	Code    string // Support reference
	Status  int    // HTTP status
}

type sentinelMessage struct {
	err error
	msg UserMessage
}

var sentinelMessages = []sentinelMessage{
	{platform.ErrUnknownPlatform, UserMessage{
		Message: "This marketplace is not supported",
		Action:  "Use one of the platforms listed at /api/platforms",
		Code:    "PLT001",
		Status:  http.StatusBadRequest,
	}},
	{product.ErrNotFound, UserMessage{
		Message: "Product not found",
		Action:  "Check the SKU exists in the product master",
		Code:    "PRD001",
		Status:  http.StatusNotFound,
	}},
	{ErrNoProductStore, UserMessage{
		Message: "Product lookup by SKU is unavailable",
		Action:  "Send the full product record in the request instead",
		Code:    "PRD002",
		Status:  http.StatusBadRequest,
	}},
	{ErrTooManyExports, UserMessage{
		Message: "Too many exports are running",
		Action:  "Please wait a moment and try again",
		Code:    "EXP001",
		Status:  http.StatusServiceUnavailable,
	}},
	{ErrTooManyProducts, UserMessage{
		Message: "Too many products in one export",
		Action:  "Split the export into smaller batches",
		Code:    "EXP002",
		Status:  http.StatusRequestEntityTooLarge,
	}},
	{ErrBadRequest, UserMessage{
		Message: "The request is invalid",
		Action:  "Check the request body and parameters",
		Code:    "REQ001",
		Status:  http.StatusBadRequest,
	}},
	{errRateLimited, UserMessage{
		Message: "Too many requests",
		Action:  "Please wait a moment before trying again",
		Code:    "RATE001",
		Status:  http.StatusTooManyRequests,
	}},
	{context.Canceled, UserMessage{
		Message: "Request was cancelled",
		Action:  "Please try again",
		Code:    "REQ002",
		Status:  499,
	}},
	{context.DeadlineExceeded, UserMessage{
		Message: "Operation timed out",
		Action:  "Try a smaller export or try again later",
		Code:    "DB006",
		Status:  http.StatusGatewayTimeout,
	}},
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	{"connection refused", UserMessage{
		Message: "Unable to reach the product database",
		Action:  "Please try again in a few moments",
		Code:    "DB004",
		Status:  http.StatusServiceUnavailable,
	}},
	{"connection reset", UserMessage{
		Message: "Unable to reach the product database",
		Action:  "Please try again",
		Code:    "DB004",
		Status:  http.StatusServiceUnavailable,
	}},
	{"timeout", UserMessage{
		Message: "Operation timed out",
		Action:  "Try a smaller export or try again later",
		Code:    "DB006",
		Status:  http.StatusGatewayTimeout,
	}},
}

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
	Status:  http.StatusInternalServerError,
}

// MapError converts a technical error to a user-friendly message.
// Returns a zero UserMessage for a nil error.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, s := range sentinelMessages {
		if errors.Is(err, s.err) {
			return s.msg
		}
	}

	lower := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(lower, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// IsUserFacing reports whether err maps to a specific message rather than
// the ERR000 fallback.
func IsUserFacing(err error) bool {
	return err != nil && MapError(err).Code != defaultMessage.Code
}
