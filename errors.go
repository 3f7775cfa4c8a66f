package bookpress

import "errors"

// Sentinel errors for library operations.
var (
	ErrNilSource     = errors.New("book source cannot be nil")
	ErrEmptyOutput   = errors.New("output path cannot be empty")
	ErrImageEmbed    = errors.New("image embedding failed")
	ErrDocumentWrite = errors.New("document write failed")
	ErrCoverDocument = errors.New("cover document generation failed")
	ErrBackDocument  = errors.New("back document generation failed")

	// Geometry validation errors.
	ErrInvalidTrimSize = errors.New("invalid trim size")
	ErrInvalidBleed    = errors.New("invalid bleed")
)
