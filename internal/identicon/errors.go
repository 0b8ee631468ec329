package identicon

import "errors"

// Every message carries the "identicon:" prefix. Callers match with errors.Is;
// wrapping for context happens at the outer boundary.
var (
	// ErrHashFailure is returned when the digest could not be computed.
	// The previous pattern stays valid; nothing is redrawn.
	ErrHashFailure = errors.New("identicon: hash failure")

	// ErrEmptySequence is returned by Rotate for a zero-length sequence.
	ErrEmptySequence = errors.New("identicon: empty bit sequence")

	// ErrMalformedBits is returned when fewer than 15 usable symbols are
	// available, or a symbol is not '0' or '1'. Short input is never padded.
	ErrMalformedBits = errors.New("identicon: malformed bit sequence")

	// ErrCellOutOfRange is returned for a manual edit outside the 5x3 half.
	ErrCellOutOfRange = errors.New("identicon: cell out of range")

	// ErrUnknownDigest is returned for a digest name that is not registered.
	ErrUnknownDigest = errors.New("identicon: unknown digest")
)
