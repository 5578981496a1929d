package termgfx

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFramebufferWritesRawPixels(t *testing.T) {
	device := filepath.Join(t.TempDir(), "fb0")
	require.NoError(t, os.WriteFile(device, nil, 0o600))

	r := NewImageRenderer(Framebuffer, false)
	r.SetFramebufferDevice(device)
	var buf bytes.Buffer

	data := solidRGB(3, 2, 10, 20, 30)
	// placement is ignored by the framebuffer
	require.NoError(t, r.RenderImage(&buf, data, 3, 2, Placement{Col: 9, Row: 9}))

	got, err := os.ReadFile(device)
	require.NoError(t, err)
	assert.Equal(t, data, got)
	assert.Zero(t, buf.Len(), "nothing goes to the terminal")
}

func TestFramebufferRGBAUnflattened(t *testing.T) {
	device := filepath.Join(t.TempDir(), "fb0")
	require.NoError(t, os.WriteFile(device, nil, 0o600))

	r := NewImageRenderer(Framebuffer, false)
	r.SetFramebufferDevice(device)

	data := solidRGBA(2, 2, 1, 2, 3, 4)
	require.NoError(t, r.RenderImageRGBA(&bytes.Buffer{}, data, 2, 2, At(0, 0)))

	got, err := os.ReadFile(device)
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestFramebufferMissingDevice(t *testing.T) {
	r := NewImageRenderer(Framebuffer, false)
	r.SetFramebufferDevice(filepath.Join(t.TempDir(), "missing", "fb0"))

	err := r.RenderImage(&bytes.Buffer{}, solidRGB(1, 1, 0, 0, 0), 1, 1, At(0, 0))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
