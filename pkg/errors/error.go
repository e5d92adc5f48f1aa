// Package errors defines the coded errors returned across the analysis pipeline.
//
// Every *Error carries an ErrorCode grouped by hundreds: 1xx bad input, 2xx missing
// data, 6xx engine wiring, 7xx market data and 8xx fetch cache. The HTTP API maps
// codes to statuses, so callers should pick the code of the layer that failed.
//
// Two failures have dedicated helpers because callers branch on them. An analysis
// with fewer than two aligned prices returns *InsufficientDataError. A price source
// that cannot deliver a series returns an upstream fetch error (code 700):
//
//	series, err := source.FetchSeries(ctx, req)
//	if err != nil {
//		return errors.NewUpstreamFetchError(req.Symbol, err)
//	}
package errors

import (
	"errors"
	"fmt"
)

// Error is a failure tagged with an ErrorCode and an optional cause.
type Error struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// New returns an *Error without a cause.
func New(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf is New with a formatted message.
func Newf(code ErrorCode, format string, args ...any) *Error {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap tags cause with code and message.
func Wrap(code ErrorCode, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// Wrapf is Wrap with a formatted message.
func Wrapf(code ErrorCode, cause error, format string, args ...any) *Error {
	return Wrap(code, fmt.Sprintf(format, args...), cause)
}

// Error renders "[code] message: cause".
func (e *Error) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("[%d] %s", e.Code, e.Message)
	}

	return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Cause)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// GetCode returns the code of the first *Error in the chain of err,
// or ErrCodeUnknown when the chain holds none.
func GetCode(err error) ErrorCode {
	var coded *Error
	if !errors.As(err, &coded) {
		return ErrCodeUnknown
	}

	return coded.Code
}

// HasCode reports whether GetCode(err) is code.
func HasCode(err error, code ErrorCode) bool {
	return GetCode(err) == code
}

// InsufficientDataError reports a series too short to analyze.
type InsufficientDataError struct {
	Required int
	Actual   int
	// Symbol is empty when the shortage concerns the aligned pair.
	Symbol  string
	Message string
}

// NewInsufficientDataErrorf builds an InsufficientDataError with a formatted message.
func NewInsufficientDataErrorf(required, actual int, symbol, format string, args ...any) *InsufficientDataError {
	return &InsufficientDataError{
		Required: required,
		Actual:   actual,
		Symbol:   symbol,
		Message:  fmt.Sprintf(format, args...),
	}
}

func (e *InsufficientDataError) Error() string {
	return e.Message
}

// IsInsufficientDataError reports whether the chain of err holds an *InsufficientDataError.
func IsInsufficientDataError(err error) bool {
	var insufficient *InsufficientDataError

	return errors.As(err, &insufficient)
}

// NewUpstreamFetchError wraps a failure of the price source serving symbol.
func NewUpstreamFetchError(symbol string, cause error) *Error {
	return Wrapf(ErrCodeMarketDataFetchFailed, cause, "failed to fetch prices for %s", symbol)
}

// IsUpstreamFetchError reports whether err came from a price source.
func IsUpstreamFetchError(err error) bool {
	return HasCode(err, ErrCodeMarketDataFetchFailed)
}
