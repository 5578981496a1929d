package termgfx

import (
	"fmt"
	"os"
)

// writeFramebuffer dumps raw pixel bytes to the framebuffer device.
// The device has no notion of cells, so placement is not applied and the
// buffer is written from the top-left corner of the screen.
func writeFramebuffer(device string, data []byte) error {
	f, err := os.OpenFile(device, os.O_WRONLY|os.O_SYNC, 0)
	if err != nil {
		return fmt.Errorf("failed to open framebuffer %s: %w", device, err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("failed to write framebuffer %s: %w", device, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close framebuffer %s: %w", device, err)
	}
	return nil
}
