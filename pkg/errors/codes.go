package errors

import (
	"net/http"
	"strings"
)

// ErrorCode is a string representation of a specific error condition.
// Codes carry a module prefix (COMMON, SRC, TRK, SUB) so that logs and
// metrics can be grouped by subsystem.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common error codes.
const (
	ErrCodeInternal           ErrorCode = "COMMON_001"
	ErrCodeBadRequest         ErrorCode = "COMMON_002"
	ErrCodeNotFound           ErrorCode = "COMMON_003"
	ErrCodeConflict           ErrorCode = "COMMON_004"
	ErrCodeServiceUnavailable ErrorCode = "COMMON_005"
	ErrCodeTimeout            ErrorCode = "COMMON_006"
	ErrCodeValidation         ErrorCode = "COMMON_007"
	ErrCodeSerialization      ErrorCode = "COMMON_008"
	ErrCodeDatabaseError      ErrorCode = "COMMON_009"
	ErrCodeCacheError         ErrorCode = "COMMON_010"
	ErrCodeUnknown            ErrorCode = "COMMON_999"

	// CodeOK is the sentinel returned by GetCode for a nil error.
	CodeOK ErrorCode = "OK"
)

// Data-source (search provider) error codes.
const (
	ErrCodeSourceUnavailable  ErrorCode = "SRC_001"
	ErrCodeSourceRateLimited  ErrorCode = "SRC_002"
	ErrCodeSourceAuthFailed   ErrorCode = "SRC_003"
	ErrCodeSourceParseError   ErrorCode = "SRC_004"
	ErrCodeSearchUnavailable  ErrorCode = "SRC_005"
	ErrCodeSourceUndetectable ErrorCode = "SRC_006"
)

// Tracking error codes.
const (
	ErrCodeAssetNotFound         ErrorCode = "TRK_001"
	ErrCodeAlreadyTracked        ErrorCode = "TRK_002"
	ErrCodeNotTracked            ErrorCode = "TRK_003"
	ErrCodeTrackingLimitExceeded ErrorCode = "TRK_004"
	ErrCodeSnapshotPersistFailed ErrorCode = "TRK_005"
)

// Subscription error codes.
const (
	ErrCodeSubscriptionRequired  ErrorCode = "SUB_001"
	ErrCodeDuplicateSubscription ErrorCode = "SUB_002"
	ErrCodeSubscriptionNotFound  ErrorCode = "SUB_003"
	ErrCodeUnknownTier           ErrorCode = "SUB_004"
)

// ErrorCodeHTTPStatus maps ErrorCodes to HTTP status codes.
var ErrorCodeHTTPStatus = map[ErrorCode]int{
	ErrCodeInternal:           http.StatusInternalServerError,
	ErrCodeBadRequest:         http.StatusBadRequest,
	ErrCodeNotFound:           http.StatusNotFound,
	ErrCodeConflict:           http.StatusConflict,
	ErrCodeServiceUnavailable: http.StatusServiceUnavailable,
	ErrCodeTimeout:            http.StatusGatewayTimeout,
	ErrCodeValidation:         http.StatusUnprocessableEntity,
	ErrCodeSerialization:      http.StatusInternalServerError,
	ErrCodeDatabaseError:      http.StatusInternalServerError,
	ErrCodeCacheError:         http.StatusInternalServerError,

	ErrCodeSourceUnavailable:  http.StatusServiceUnavailable,
	ErrCodeSourceRateLimited:  http.StatusTooManyRequests,
	ErrCodeSourceAuthFailed:   http.StatusBadGateway,
	ErrCodeSourceParseError:   http.StatusBadGateway,
	ErrCodeSearchUnavailable:  http.StatusServiceUnavailable,
	ErrCodeSourceUndetectable: http.StatusBadRequest,

	ErrCodeAssetNotFound:         http.StatusNotFound,
	ErrCodeAlreadyTracked:        http.StatusConflict,
	ErrCodeNotTracked:            http.StatusNotFound,
	ErrCodeTrackingLimitExceeded: http.StatusForbidden,
	ErrCodeSnapshotPersistFailed: http.StatusInternalServerError,

	ErrCodeSubscriptionRequired:  http.StatusForbidden,
	ErrCodeDuplicateSubscription: http.StatusConflict,
	ErrCodeSubscriptionNotFound:  http.StatusNotFound,
	ErrCodeUnknownTier:           http.StatusBadRequest,
}

// ErrorCodeMessage maps ErrorCodes to default messages.
var ErrorCodeMessage = map[ErrorCode]string{
	ErrCodeInternal:           "internal server error",
	ErrCodeBadRequest:         "bad request",
	ErrCodeNotFound:           "resource not found",
	ErrCodeConflict:           "resource conflict",
	ErrCodeServiceUnavailable: "service unavailable",
	ErrCodeTimeout:            "request timeout",
	ErrCodeValidation:         "validation failed",
	ErrCodeSerialization:      "serialization failed",
	ErrCodeDatabaseError:      "database error",
	ErrCodeCacheError:         "cache error",

	ErrCodeSourceUnavailable:  "data source unavailable",
	ErrCodeSourceRateLimited:  "data source rate limited",
	ErrCodeSourceAuthFailed:   "data source authentication failed",
	ErrCodeSourceParseError:   "failed to parse data source response",
	ErrCodeSearchUnavailable:  "search unavailable: all data sources failed",
	ErrCodeSourceUndetectable: "unable to detect data source for asset id",

	ErrCodeAssetNotFound:         "asset not found",
	ErrCodeAlreadyTracked:        "asset already tracked",
	ErrCodeNotTracked:            "asset not tracked",
	ErrCodeTrackingLimitExceeded: "tracked asset limit exceeded for subscription tier",
	ErrCodeSnapshotPersistFailed: "failed to persist lifecycle snapshot",

	ErrCodeSubscriptionRequired:  "an active monitoring subscription is required",
	ErrCodeDuplicateSubscription: "an active subscription with this configuration already exists",
	ErrCodeSubscriptionNotFound:  "subscription not found",
	ErrCodeUnknownTier:           "unknown subscription tier",
}

// HTTPStatusForCode returns the HTTP status code for an ErrorCode.
func HTTPStatusForCode(code ErrorCode) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DefaultMessageForCode returns the default message for an ErrorCode.
func DefaultMessageForCode(code ErrorCode) string {
	if msg, ok := ErrorCodeMessage[code]; ok {
		return msg
	}
	return "unknown error"
}

// IsClientError returns true if the ErrorCode corresponds to a 4xx HTTP status.
func IsClientError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 400 && status < 500
}

// IsServerError returns true if the ErrorCode corresponds to a 5xx HTTP status.
func IsServerError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 500 && status < 600
}

// ModuleForCode returns the module prefix of an ErrorCode.
func ModuleForCode(code ErrorCode) string {
	parts := strings.Split(string(code), "_")
	if len(parts) > 0 && parts[0] != "" {
		return parts[0]
	}
	return "UNKNOWN"
}
