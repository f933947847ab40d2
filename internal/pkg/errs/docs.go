// Package errs holds the error types shared by the fulfillment domain and its
// adapters.
//
// Every type pairs a sentinel (ErrValueIsRequired, ErrObjectNotFound, ...) with a
// struct carrying the offending parameter, so callers can branch with errors.Is
// while logs still see the detail.
package errs
