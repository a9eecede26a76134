package query

import (
	"fmt"
	"strings"
)

// ParseError means the query source could not be read or is not valid
// structured data. It is fatal before any export begins.
type ParseError struct {
	Source string // path or "<inline>"
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("cannot parse query from %s: %v", e.Source, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ValidationError means the query is well-formed but violates the query
// schema: an unknown or non-queryable module, an unsupported operator, or
// an unsupported field. The message enumerates the allowed set so the
// caller can self-correct.
type ValidationError struct {
	Module  string
	Subject string   // the offending module, operator, or field
	Allowed []string // the valid alternatives
	Reason  string
}

func (e *ValidationError) Error() string {
	msg := e.Reason
	if e.Subject != "" {
		msg = fmt.Sprintf("%s: %q", msg, e.Subject)
	}
	if e.Module != "" {
		msg = fmt.Sprintf("module %s: %s", e.Module, msg)
	}
	if len(e.Allowed) > 0 {
		msg = fmt.Sprintf("%s (allowed: %s)", msg, strings.Join(e.Allowed, ", "))
	}
	return msg
}

// QueryTooComplexError means the query exceeds a structural limit:
// filter nesting deeper than the configured maximum, or an array operand
// with too many elements. Both checks fail closed.
type QueryTooComplexError struct {
	Limit  string // "depth" or "array"
	Max    int
	Actual int
}

func (e *QueryTooComplexError) Error() string {
	switch e.Limit {
	case "depth":
		return fmt.Sprintf("query nesting depth %d exceeds maximum %d", e.Actual, e.Max)
	case "array":
		return fmt.Sprintf("array operand with %d elements exceeds maximum %d", e.Actual, e.Max)
	}
	return fmt.Sprintf("query exceeds %s limit (%d > %d)", e.Limit, e.Actual, e.Max)
}
