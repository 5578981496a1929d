package termgfx

import (
	"fmt"
	"strings"
)

// GraphicsBackend is the output channel used to draw images.
type GraphicsBackend int

const (
	// Framebuffer writes raw pixels to the Linux framebuffer device
	Framebuffer GraphicsBackend = iota + 1
	// Kitty uses the Kitty graphics protocol
	Kitty
	// Sixel uses DEC Sixel bitmaps
	Sixel
	// Blocks approximates the image with Unicode shade characters
	Blocks
)

// String returns the short name of the backend
func (b GraphicsBackend) String() string {
	switch b {
	case Framebuffer:
		return "Framebuffer"
	case Kitty:
		return "Kitty"
	case Sixel:
		return "Sixel"
	case Blocks:
		return "Blocks"
	default:
		return "unknown"
	}
}

// Name returns the human readable name of the backend
func (b GraphicsBackend) Name() string {
	switch b {
	case Framebuffer:
		return "Linux Framebuffer"
	case Kitty:
		return "Kitty Graphics"
	case Sixel:
		return "Sixel"
	case Blocks:
		return "Unicode Blocks"
	default:
		return "Unknown"
	}
}

// Valid reports whether b is one of the known backends
func (b GraphicsBackend) Valid() bool {
	return b >= Framebuffer && b <= Blocks
}

// ParseBackend converts a backend name to a GraphicsBackend.
// An empty name or "auto" runs detection.
func ParseBackend(name string) (GraphicsBackend, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "auto":
		return DetectBackend(), nil
	case "framebuffer", "fb":
		return Framebuffer, nil
	case "kitty":
		return Kitty, nil
	case "sixel":
		return Sixel, nil
	case "blocks", "block", "unicode":
		return Blocks, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownBackend, name)
	}
}
