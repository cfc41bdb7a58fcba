// Package apperrors defines the application error type used across the
// service. Errors form a hierarchy: a base error created with New can derive
// more specific errors via New, and errors.Is reports true for any ancestor.
// Each error carries an HTTP status code surfaced at the API boundary.
package apperrors

type Error interface {
	Error() string
	ErrorAll() string
	New(msg string) Error
	MsgErr(msg string, err ...error) Error
	Msg(msg string) Error
	Err(err ...error) Error
	Unwrap() []error
	Is(target error) bool
	SetExpandError(expand bool) Error
	SetStatusCode(code int) Error
	StatusCode() int
}
