// Package errors re-exports github.com/cockroachdb/errors for clap-rci,
// giving every package in this module one consistent error-construction
// surface (stack traces, wrapping, hints) without each file importing
// the third-party package under its own name.
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

// Construction and wrapping.
var (
	New   = crdb.New
	Newf  = crdb.Newf
	Wrap  = crdb.Wrap
	Wrapf = crdb.Wrapf
)

// User-facing context.
var (
	WithHint   = crdb.WithHint
	WithDetail = crdb.WithDetail
)

// Inspection.
var (
	Is     = crdb.Is
	As     = crdb.As
	Unwrap = crdb.Unwrap
)
