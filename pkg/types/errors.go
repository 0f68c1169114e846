// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "errors"

// Error kinds shared by every stage. Stages wrap these with %w so callers
// can test with errors.Is while keeping the detailed message.
var (
	// ErrExtraction reports an unreadable or corrupt source document.
	ErrExtraction = errors.New("extraction failed")

	// ErrMalformedModelOutput reports an LLM response that does not parse
	// into the expected structure.
	ErrMalformedModelOutput = errors.New("malformed model output")

	// ErrNotLoaded reports a generation request made before any paper was loaded.
	ErrNotLoaded = errors.New("no paper loaded")

	// ErrConfiguration reports invalid or missing backend configuration.
	ErrConfiguration = errors.New("invalid configuration")

	// ErrBusy reports a generation request made while another one is running
	// on the same engine.
	ErrBusy = errors.New("generation already in progress")
)
