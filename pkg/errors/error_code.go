package errors

// ErrorCode identifies the layer and kind of a failure.
type ErrorCode int

const (
	// ErrCodeUnknown is reported for errors that carry no code.
	ErrCodeUnknown ErrorCode = 1

	// Bad input (100-199)
	ErrCodeInvalidParameter     ErrorCode = 100
	ErrCodeInvalidConfiguration ErrorCode = 101
	ErrCodeMissingParameter     ErrorCode = 109

	// Missing data (200-299)
	ErrCodeDataNotFound          ErrorCode = 200
	ErrCodeDataSourceUnavailable ErrorCode = 201
	ErrCodeQueryFailed           ErrorCode = 202
	ErrCodeNoDataFound           ErrorCode = 204

	// Engine wiring (600-699)
	ErrCodeBacktestInitFailed   ErrorCode = 601
	ErrCodeBacktestNoDatasource ErrorCode = 608
	ErrCodeVersionMismatch      ErrorCode = 609

	// Market data (700-799)
	ErrCodeMarketDataFetchFailed ErrorCode = 700
	ErrCodeMarketDataWriteFailed ErrorCode = 701
	ErrCodeInvalidTimespan       ErrorCode = 703
	ErrCodeInvalidProvider       ErrorCode = 704

	// Fetch cache (800-899)
	ErrCodeCacheFailed ErrorCode = 800
)
