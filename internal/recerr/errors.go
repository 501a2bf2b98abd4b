// Recserve - Blended Offline/Online Recommendation Serving
// Copyright 2026 Recserve Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/recserve/recserve

// Package recerr defines the sentinel errors shared across the serving
// pipeline. Handlers map these to HTTP status codes; the candidate
// generators use them to decide what is absorbed and what propagates.
//
// "Not found" conditions (unknown user, item without similarity edges) are
// deliberately NOT errors anywhere in this codebase: they are expected
// states expressed as empty results.
package recerr

import "errors"

var (
	// ErrInvalidArgument indicates a non-positive identifier or malformed
	// count. Propagates to the caller; the request is rejected outright.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrConfiguration indicates a mandatory artifact is missing or empty at
	// startup. Fatal; the process must not serve traffic.
	ErrConfiguration = errors.New("configuration error")

	// ErrDependencyUnavailable indicates a timeout or failure from a remote
	// dependency. Absorbed during candidate assembly as an empty
	// contribution, never surfaced to API callers.
	ErrDependencyUnavailable = errors.New("dependency unavailable")
)
