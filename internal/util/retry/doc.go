// Package retry provides exponential backoff retry logic for transient failures.
//
// [WithExponentialBackoff] retries an operation with configurable max attempts,
// initial delay and maximum delay. Errors marked with [Fatal] stop immediately;
// errors marked with [After] replace the computed delay with a server hint.
// The Azure client uses it for throttled management and data-plane calls.
package retry
