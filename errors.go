package termgfx

import "errors"

var (
	// ErrInvalidImageBuffer is returned when a pixel buffer does not match its dimensions.
	ErrInvalidImageBuffer = errors.New("invalid image buffer")
	// ErrInvalidPlacement is returned for negative cell coordinates or spans.
	ErrInvalidPlacement = errors.New("invalid image placement")
	// ErrPlaceholderRange is returned when a placeholder grid needs a row or column
	// diacritic past the end of the table.
	ErrPlaceholderRange = errors.New("placeholder index out of range")
	// ErrUnknownBackend is returned when a backend name cannot be parsed.
	ErrUnknownBackend = errors.New("unknown graphics backend")
)
