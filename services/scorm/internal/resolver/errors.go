package resolver

import "errors"

var (
	// ErrExtractionFailed means the archive could not be unpacked. Fatal;
	// partial output is discarded before returning.
	ErrExtractionFailed = errors.New("extraction failed")

	// ErrInvalidPackage means the extraction directory or manifest is
	// missing. Fatal for validation, 404-equivalent for callers.
	ErrInvalidPackage = errors.New("invalid package")

	// ErrManifestParse means imsmanifest.xml exists but is malformed.
	// Non-fatal: launch falls through to the entry-point fallbacks.
	ErrManifestParse = errors.New("manifest parse failed")

	// ErrManifestNotFound means no manifest exists at any candidate path.
	ErrManifestNotFound = errors.New("manifest not found")
)
