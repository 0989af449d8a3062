package analyzer

import "errors"

var (
	// ErrInvalidSignature is returned when the file does not start with
	// the HE3 marker. Nothing else runs after this.
	ErrInvalidSignature = errors.New("invalid file signature")

	// ErrEmptyInput is returned for a zero-length buffer.
	ErrEmptyInput = errors.New("empty input")

	// ErrMalformedRegions is returned when an overlapping or unsorted
	// null-region list reaches the block segmenter. It signals an
	// upstream contract violation, not bad file data.
	ErrMalformedRegions = errors.New("malformed null-region input")
)
