// Package astroimage models a single astronomical data image: a float64
// pixel grid, an ordered case-folded keyword header, free-form metadata,
// and a world coordinate system adapter kept in sync with the header.
//
// # Coordinate System
//
// Pixel coordinates are 0-based: (0,0) is the first pixel of the first
// row, x runs along a row, y across rows. Sky coordinates are right
// ascension and declination in decimal degrees. All conversions between
// the two delegate to the WCS adapter; the adapter is rebuilt by every
// keyword-mutating entry point, so coordinate queries never observe a
// stale mapping.
//
// # Ownership
//
// Update operations copy incoming pixel arrays; an image never aliases a
// caller-owned buffer unless the caller explicitly requests sharing via
// Data. A failed load or update leaves the entity in its prior valid
// state.
//
// # Thread Safety
//
// Image is NOT safe for concurrent use. All operations are synchronous
// and CPU-bound; callers must serialize mutation externally. Callbacks
// run synchronously and re-entrantly on the triggering goroutine.
package astroimage
