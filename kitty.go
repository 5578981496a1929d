package termgfx

import (
	"fmt"
	"io"
	"strconv"
)

// KittyImageID is the single image slot used for every transmission.
// Re-transmitting replaces the previous frame in place.
const KittyImageID = 1

// Approximate cell size used to derive a cell span from pixel dimensions.
const (
	estimateCellWidth  = 10
	estimateCellHeight = 20
)

type kittyMode int

const (
	kittyDirect kittyMode = iota
	kittyPlaceholder
	kittyLegacyPassthrough
)

func (r *ImageRenderer) kittyMode() kittyMode {
	switch {
	case !r.inTmux:
		return kittyDirect
	case r.placeholders:
		return kittyPlaceholder
	default:
		return kittyLegacyPassthrough
	}
}

// renderKitty PNG-encodes the pixels and transmits them with a=T.
// All output is assembled in the renderer's escape buffer and written once.
func (r *ImageRenderer) renderKitty(w io.Writer, data []byte, width, height int, format PixelFormat, p Placement) error {
	cols, rows := p.cells(width, height, estimateCellWidth, estimateCellHeight)
	mode := r.kittyMode()

	if mode == kittyPlaceholder {
		if err := checkPlaceholderGrid(cols, rows); err != nil {
			return err
		}
	}

	if err := EncodePNG(&r.png, data, width, height, format); err != nil {
		return err
	}
	r.b64 = appendBase64(r.b64, r.png.Bytes())

	out := r.esc[:0]
	switch mode {
	case kittyDirect:
		r.params = fmt.Appendf(r.params[:0], "a=T,f=100,t=d,i=%d,c=%d,r=%d,C=1,q=2", KittyImageID, cols, rows)
		out = appendCursorPosition(out, p.Row, p.Col)
		out = r.appendKittyChunks(out)
	case kittyPlaceholder:
		r.params = fmt.Appendf(r.params[:0], "a=T,f=100,t=d,i=%d,c=%d,r=%d,U=1,q=2", KittyImageID, cols, rows)
		out = r.appendKittyChunks(out)
		out = appendPlaceholderGrid(out, KittyImageID, p.Col, p.Row, cols, rows)
	case kittyLegacyPassthrough:
		// Coordinates inside a passthrough reach the outer terminal untouched,
		// so they have to be shifted by the pane origin.
		row, col := p.Row, p.Col
		if r.pane != nil {
			row += r.pane.Top
			col += r.pane.Left
		}
		r.seq = append(r.seq[:0], "\x1b7"...)
		r.seq = appendCursorPosition(r.seq, row, col)
		out = AppendTmuxPassthrough(out, r.seq)
		r.params = fmt.Appendf(r.params[:0], "a=T,f=100,t=d,i=%d,c=%d,r=%d,C=1,q=2", KittyImageID, cols, rows)
		out = r.appendKittyChunks(out)
		out = AppendTmuxPassthrough(out, []byte("\x1b8"))
	}
	r.esc = out

	if _, err := w.Write(out); err != nil {
		return fmt.Errorf("failed to write kitty image: %w", err)
	}
	r.animationImageID = KittyImageID
	r.hasAnimationImage = true
	r.animationInitialized = true
	return nil
}

// appendKittyChunks splits the base64 payload into KITTY_CHUNK_SIZE pieces.
// Control data rides on the first chunk only; every chunk carries m=0|1.
// Inside tmux each chunk gets its own passthrough wrapper.
func (r *ImageRenderer) appendKittyChunks(dst []byte) []byte {
	_ = forEachChunk(r.b64, KITTY_CHUNK_SIZE, func(i int, chunk []byte, more int) error {
		seq := append(r.seq[:0], "\x1b_G"...)
		if i == 0 {
			seq = append(seq, r.params...)
			seq = append(seq, ',')
		}
		seq = append(seq, "m="...)
		seq = strconv.AppendInt(seq, int64(more), 10)
		seq = append(seq, ';')
		seq = append(seq, chunk...)
		seq = append(seq, "\x1b\\"...)
		r.seq = seq

		if r.inTmux {
			dst = AppendTmuxPassthrough(dst, seq)
		} else {
			dst = append(dst, seq...)
		}
		return nil
	})
	return dst
}

// appendKittyDelete appends the delete command for the image slot and its placements.
func (r *ImageRenderer) appendKittyDelete(dst []byte) []byte {
	r.seq = fmt.Appendf(r.seq[:0], "\x1b_Ga=d,d=I,i=%d,q=2\x1b\\", KittyImageID)
	if r.inTmux {
		return AppendTmuxPassthrough(dst, r.seq)
	}
	return append(dst, r.seq...)
}

// appendCursorPosition appends CUP for the 0-indexed row and col.
func appendCursorPosition(dst []byte, row, col int) []byte {
	dst = append(dst, "\x1b["...)
	dst = strconv.AppendInt(dst, int64(row+1), 10)
	dst = append(dst, ';')
	dst = strconv.AppendInt(dst, int64(col+1), 10)
	return append(dst, 'H')
}
