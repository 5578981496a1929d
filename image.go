package termgfx

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"math"

	xdraw "golang.org/x/image/draw"
)

// PixelFormat describes the layout of a raw pixel buffer.
type PixelFormat int

const (
	// RGB is 3 bytes per pixel, row-major, no padding
	RGB PixelFormat = iota
	// RGBA is 4 bytes per pixel with straight (non-premultiplied) alpha
	RGBA
)

// Channels returns the number of bytes per pixel
func (f PixelFormat) Channels() int {
	if f == RGBA {
		return 4
	}
	return 3
}

func (f PixelFormat) String() string {
	if f == RGBA {
		return "RGBA"
	}
	return "RGB"
}

// pngEncoder favours speed, images are re-sent every animation frame.
var pngEncoder = png.Encoder{CompressionLevel: png.BestSpeed}

// ValidateBuffer checks that data holds exactly width*height pixels of format.
func ValidateBuffer(data []byte, width, height int, format PixelFormat) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: dimensions %dx%d", ErrInvalidImageBuffer, width, height)
	}
	if width > math.MaxInt/height/format.Channels() {
		return fmt.Errorf("%w: dimensions %dx%d overflow", ErrInvalidImageBuffer, width, height)
	}
	if want := width * height * format.Channels(); len(data) != want {
		return fmt.Errorf("%w: %s %dx%d needs %d bytes, got %d", ErrInvalidImageBuffer, format, width, height, want, len(data))
	}
	return nil
}

// EncodePNG writes a lossless PNG of the pixel buffer into dst.
// dst is reset first so it can be reused between frames.
func EncodePNG(dst *bytes.Buffer, data []byte, width, height int, format PixelFormat) error {
	if err := ValidateBuffer(data, width, height, format); err != nil {
		return err
	}
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	if format == RGBA {
		copy(img.Pix, data)
	} else {
		for s, d := 0, 0; s < len(data); s, d = s+3, d+4 {
			img.Pix[d] = data[s]
			img.Pix[d+1] = data[s+1]
			img.Pix[d+2] = data[s+2]
			img.Pix[d+3] = 0xff
		}
	}
	dst.Reset()
	if err := pngEncoder.Encode(dst, img); err != nil {
		return fmt.Errorf("failed to encode png: %w", err)
	}
	return nil
}

// FlattenRGBA drops the alpha channel of src into dst[:0] and returns it.
func FlattenRGBA(dst, src []byte) []byte {
	n := len(src) / 4 * 3
	if cap(dst) < n {
		dst = make([]byte, 0, n)
	}
	dst = dst[:0]
	for i := 0; i+3 < len(src); i += 4 {
		dst = append(dst, src[i], src[i+1], src[i+2])
	}
	return dst
}

// ImageToRGBA converts any image to a straight-alpha RGBA pixel buffer.
func ImageToRGBA(img image.Image) (data []byte, width, height int) {
	b := img.Bounds()
	if n, ok := img.(*image.NRGBA); ok && n.Stride == b.Dx()*4 && n.Rect.Min == (image.Point{}) {
		return n.Pix, b.Dx(), b.Dy()
	}
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	xdraw.Draw(dst, dst.Bounds(), img, b.Min, xdraw.Src)
	return dst.Pix, b.Dx(), b.Dy()
}

// ScaleImage resizes img to exactly width x height pixels.
func ScaleImage(img image.Image, width, height int) image.Image {
	if width <= 0 || height <= 0 {
		return img
	}
	b := img.Bounds()
	if b.Dx() == width && b.Dy() == height {
		return img
	}
	dst := image.NewNRGBA(image.Rect(0, 0, width, height))
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, xdraw.Over, nil)
	return dst
}

// FitSize returns the largest size with the aspect ratio of srcW x srcH
// that fits inside maxW x maxH. Zero limits are ignored.
func FitSize(srcW, srcH, maxW, maxH int) (int, int) {
	if srcW <= 0 || srcH <= 0 {
		return 0, 0
	}
	ratio := 1.0
	switch {
	case maxW > 0 && maxH > 0:
		ratio = min(float64(maxW)/float64(srcW), float64(maxH)/float64(srcH))
	case maxW > 0:
		ratio = float64(maxW) / float64(srcW)
	case maxH > 0:
		ratio = float64(maxH) / float64(srcH)
	}
	return max(int(float64(srcW)*ratio), 1), max(int(float64(srcH)*ratio), 1)
}
