package termgfx

import (
	"os"
	"strings"

	"github.com/apex/log"
)

// BackendEnv overrides backend detection when set to a backend name.
const BackendEnv = "TERMGFX_BACKEND"

// framebufferDevice is the device checked by detection and written by the framebuffer backend.
var framebufferDevice = "/dev/fb0"

// DetectBackend picks the best graphics backend for the current process.
// Only the environment and the filesystem are consulted, no terminal queries are sent.
func DetectBackend() GraphicsBackend {
	switch {
	case framebufferSupported():
		return Framebuffer
	case KittySupported():
		return Kitty
	case SixelSupported():
		return Sixel
	default:
		return Blocks
	}
}

// DetectBackendWithOverride honours TERMGFX_BACKEND before falling back to DetectBackend.
func DetectBackendWithOverride() GraphicsBackend {
	if name := os.Getenv(BackendEnv); name != "" {
		backend, err := ParseBackend(name)
		if err == nil {
			log.WithField("backend", backend.Name()).Debug("backend forced by environment")
			return backend
		}
		log.WithError(err).Debugf("ignoring %s", BackendEnv)
	}
	return DetectBackend()
}

// framebufferSupported reports whether we are on a bare console with a framebuffer.
func framebufferSupported() bool {
	if _, err := os.Stat(framebufferDevice); err != nil {
		return false
	}
	if _, ok := os.LookupEnv("DISPLAY"); ok {
		return false
	}
	if _, ok := os.LookupEnv("WAYLAND_DISPLAY"); ok {
		return false
	}
	return true
}

// KittySupported checks the environment for a Kitty graphics capable terminal
func KittySupported() bool {
	switch {
	case isSet("KITTY_WINDOW_ID"):
		return true
	case strings.Contains(os.Getenv("TERM"), "kitty"):
		return true
	default:
		return false
	}
}

// SixelSupported checks the environment for a Sixel capable terminal
func SixelSupported() bool {
	termEnv := os.Getenv("TERM")
	switch {
	case strings.Contains(termEnv, "mlterm"):
		return true
	case strings.Contains(termEnv, "xterm"):
		return true
	case strings.Contains(os.Getenv("TERM_PROGRAM"), "iTerm"):
		return true
	default:
		return false
	}
}

func isSet(key string) bool {
	_, ok := os.LookupEnv(key)
	return ok
}
