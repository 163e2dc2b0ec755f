package errors

// ErrorCode identifies a class of failure.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Input errors (100-199)
	ErrCodeInvalidTicker        ErrorCode = 100
	ErrCodeNoData               ErrorCode = 101
	ErrCodeInsufficientData     ErrorCode = 102
	ErrCodeInvalidRequest       ErrorCode = 103
	ErrCodeMalformedData        ErrorCode = 104
	ErrCodeInvalidConfiguration ErrorCode = 105

	// Collaborator errors (200-299)
	ErrCodeFetchFailed  ErrorCode = 200
	ErrCodeCacheFailed  ErrorCode = 201
	ErrCodeRecordFailed ErrorCode = 202
)

// Reason returns the short machine-readable reason reported to callers.
func (c ErrorCode) Reason() string {
	switch c {
	case ErrCodeInvalidTicker:
		return "invalid_ticker"
	case ErrCodeNoData:
		return "no_data"
	case ErrCodeInsufficientData:
		return "insufficient_data"
	case ErrCodeInvalidRequest:
		return "invalid_request"
	case ErrCodeMalformedData:
		return "malformed_data"
	case ErrCodeInvalidConfiguration:
		return "invalid_configuration"
	case ErrCodeFetchFailed:
		return "fetch_failed"
	case ErrCodeCacheFailed:
		return "cache_failed"
	case ErrCodeRecordFailed:
		return "record_failed"
	default:
		return "unknown"
	}
}
