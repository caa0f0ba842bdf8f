package ports

import "errors"

// Standard application-level errors.
// Adapters should wrap underlying infrastructure errors with these standard errors.
var (
	// General Errors
	ErrUnknown            = errors.New("unknown error occurred")
	ErrInvalidRequest     = errors.New("invalid request parameters or format")
	ErrNotFound           = errors.New("resource not found")
	ErrTimeout            = errors.New("operation timed out")
	ErrContextCanceled    = errors.New("operation canceled via context")
	ErrConfigurationError = errors.New("invalid or missing configuration")

	// Feed Errors
	ErrFeedUnavailable = errors.New("kline feed is unavailable")
	ErrFeedMalformed   = errors.New("kline feed is not a JSON array of records")
	ErrInvalidRecord   = errors.New("invalid kline record")

	// Indicator Errors
	ErrInvalidWindow = errors.New("moving average window must be a positive integer")

	// Rendering Errors
	ErrNoData            = errors.New("no chart data")
	ErrDisposed          = errors.New("chart instance already disposed")
	ErrUnsupportedEngine = errors.New("unsupported chart engine")

	// Exchange Specific Errors
	ErrExchangeUnavailable  = errors.New("exchange API is unavailable")
	ErrConnectionFailed     = errors.New("failed to connect to the exchange")
	ErrRateLimited          = errors.New("API rate limit exceeded")
	ErrAuthenticationFailed = errors.New("API authentication failed")

	// Database Specific Errors
	ErrDBConnection = errors.New("database connection error")
	ErrQueryFailed  = errors.New("database query failed")
	ErrUpdateFailed = errors.New("database update failed")
)
