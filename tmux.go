package termgfx

import (
	"bytes"
	"os"
	"os/exec"
	"sync"

	"github.com/apex/log"
)

var (
	tmuxPassthroughEnabled bool
	tmuxPassthroughOnce    sync.Once
)

var (
	forceTmux      bool
	forceTmuxMutex sync.RWMutex
)

const (
	tmuxPassthroughStart = "\x1bPtmux;"
	tmuxPassthroughEnd   = "\x1b\\"
)

// ForceTmux treats the process as running inside tmux even when TMUX is not
// set, e.g. under ssh from a tmux pane. It must be called before a renderer
// is created.
func ForceTmux(force bool) {
	forceTmuxMutex.Lock()
	defer forceTmuxMutex.Unlock()
	forceTmux = force

	if force {
		EnableTmuxPassthrough()
	}
}

// IsTmuxForced returns whether tmux mode is being forced
func IsTmuxForced() bool {
	forceTmuxMutex.RLock()
	defer forceTmuxMutex.RUnlock()
	return forceTmux
}

// InTmux checks if running inside tmux or if tmux mode is forced
func InTmux() bool {
	if IsTmuxForced() {
		return true
	}
	return os.Getenv("TMUX") != "" || os.Getenv("TERM_PROGRAM") == "tmux"
}

// tmuxAllowPassthrough runs the tmux command; replaced in tests.
var tmuxAllowPassthrough = func() error {
	// -p sets the option for the current pane only
	return exec.Command("tmux", "set", "-p", "allow-passthrough", "on").Run()
}

// EnableTmuxPassthrough turns on allow-passthrough for the current pane once
// per process. tmux 3.3+ silently drops DCS passthrough without it.
// Failure is not fatal, older tmux passes DCS through unconditionally.
func EnableTmuxPassthrough() {
	tmuxPassthroughOnce.Do(func() {
		if err := tmuxAllowPassthrough(); err != nil {
			log.WithError(err).Debug("tmux allow-passthrough not set")
			return
		}
		tmuxPassthroughEnabled = true
	})
}

// IsTmuxPassthroughEnabled reports whether allow-passthrough was set successfully
func IsTmuxPassthroughEnabled() bool {
	return tmuxPassthroughEnabled
}

// EscapeTmux doubles every ESC byte in seq.
func EscapeTmux(seq []byte) []byte {
	return appendEscapedTmux(make([]byte, 0, len(seq)+bytes.Count(seq, []byte{0x1b})), seq)
}

// UnescapeTmux collapses doubled ESC bytes produced by EscapeTmux.
func UnescapeTmux(seq []byte) []byte {
	return bytes.ReplaceAll(seq, []byte("\x1b\x1b"), []byte("\x1b"))
}

// AppendTmuxPassthrough appends seq to dst wrapped in a tmux DCS passthrough:
//
//	ESC P tmux; <seq with every ESC doubled> ESC \
func AppendTmuxPassthrough(dst, seq []byte) []byte {
	dst = append(dst, tmuxPassthroughStart...)
	dst = appendEscapedTmux(dst, seq)
	return append(dst, tmuxPassthroughEnd...)
}

// UnwrapTmuxPassthrough strips one passthrough wrapper and unescapes the payload.
// ok is false if wrapped is not a passthrough sequence.
func UnwrapTmuxPassthrough(wrapped []byte) (seq []byte, ok bool) {
	if !bytes.HasPrefix(wrapped, []byte(tmuxPassthroughStart)) || !bytes.HasSuffix(wrapped, []byte(tmuxPassthroughEnd)) {
		return nil, false
	}
	body := wrapped[len(tmuxPassthroughStart) : len(wrapped)-len(tmuxPassthroughEnd)]
	return UnescapeTmux(body), true
}

func appendEscapedTmux(dst, seq []byte) []byte {
	for _, b := range seq {
		if b == 0x1b {
			dst = append(dst, 0x1b)
		}
		dst = append(dst, b)
	}
	return dst
}
