package termgfx

import (
	"bytes"
	"encoding/base64"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

var detectEnvVars = []string{
	"TERM", "TERM_PROGRAM", "KITTY_WINDOW_ID", "DISPLAY", "WAYLAND_DISPLAY",
	"TMUX", "COLORTERM", BackendEnv,
}

// clearEnv unsets keys for the duration of the test.
func clearEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, key := range keys {
		if val, ok := os.LookupEnv(key); ok {
			t.Cleanup(func() { os.Setenv(key, val) })
		} else {
			t.Cleanup(func() { os.Unsetenv(key) })
		}
		os.Unsetenv(key)
	}
}

// withFramebuffer points detection at a device that exists or not.
func withFramebuffer(t *testing.T, exists bool) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fb0")
	if exists {
		require.NoError(t, os.WriteFile(path, nil, 0o600))
	}
	orig := framebufferDevice
	framebufferDevice = path
	t.Cleanup(func() { framebufferDevice = orig })
	return path
}

// stubTmux replaces the tmux display-message and allow-passthrough calls.
func stubTmux(t *testing.T, out string, err error) {
	t.Helper()
	stubAllowPassthrough(t, nil)
	orig := tmuxDisplayMessage
	tmuxDisplayMessage = func(string) ([]byte, error) { return []byte(out), err }
	t.Cleanup(func() { tmuxDisplayMessage = orig })
}

// stubAllowPassthrough replaces the tmux call and re-arms the once guard.
func stubAllowPassthrough(t *testing.T, err error) *int {
	t.Helper()
	calls := 0
	orig := tmuxAllowPassthrough
	tmuxAllowPassthrough = func() error {
		calls++
		return err
	}
	tmuxPassthroughOnce = sync.Once{}
	tmuxPassthroughEnabled = false
	t.Cleanup(func() {
		tmuxAllowPassthrough = orig
		tmuxPassthroughOnce = sync.Once{}
		tmuxPassthroughEnabled = false
	})
	return &calls
}

func solidRGB(width, height int, r, g, b byte) []byte {
	data := make([]byte, 0, width*height*3)
	for range width * height {
		data = append(data, r, g, b)
	}
	return data
}

func solidRGBA(width, height int, r, g, b, a byte) []byte {
	data := make([]byte, 0, width*height*4)
	for range width * height {
		data = append(data, r, g, b, a)
	}
	return data
}

type kittyChunk struct {
	control string // everything before ';'
	payload string
}

// parseKittyChunks extracts every ESC _G ... ESC \ command from out.
func parseKittyChunks(t *testing.T, out []byte) []kittyChunk {
	t.Helper()
	var chunks []kittyChunk
	s := string(out)
	for {
		start := strings.Index(s, "\x1b_G")
		if start < 0 {
			return chunks
		}
		s = s[start+3:]
		end := strings.Index(s, "\x1b\\")
		require.GreaterOrEqual(t, end, 0, "unterminated kitty command")
		control, payload, _ := strings.Cut(s[:end], ";")
		chunks = append(chunks, kittyChunk{control: control, payload: payload})
		s = s[end+2:]
	}
}

// splitPassthroughs splits out into its tmux passthrough sequences and
// returns the unwrapped payloads plus whatever trails the last one.
func splitPassthroughs(t *testing.T, out []byte) (payloads [][]byte, rest []byte) {
	t.Helper()
	for bytes.HasPrefix(out, []byte(tmuxPassthroughStart)) {
		i := len(tmuxPassthroughStart)
		var body []byte
		for {
			require.Less(t, i+1, len(out), "unterminated passthrough")
			if out[i] == 0x1b && out[i+1] == 0x1b {
				body = append(body, 0x1b)
				i += 2
				continue
			}
			if out[i] == 0x1b && out[i+1] == '\\' {
				i += 2
				break
			}
			body = append(body, out[i])
			i++
		}
		payloads = append(payloads, body)
		out = out[i:]
	}
	return payloads, out
}

func decodePayload(t *testing.T, chunks []kittyChunk) []byte {
	t.Helper()
	var b64 strings.Builder
	for _, c := range chunks {
		b64.WriteString(c.payload)
	}
	data, err := base64.StdEncoding.DecodeString(b64.String())
	require.NoError(t, err)
	return data
}

var errWrite = errors.New("write failed")

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errWrite }
