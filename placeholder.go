package termgfx

import (
	"fmt"
	"strconv"
	"unicode/utf8"

	"github.com/charmbracelet/x/ansi/kitty"
)

// MaxPlaceholderIndex bounds the row and column diacritic indices.
// A grid may span at most this many rows and columns.
const MaxPlaceholderIndex = 256

func checkPlaceholderGrid(cols, rows int) error {
	if cols > MaxPlaceholderIndex || rows > MaxPlaceholderIndex {
		return fmt.Errorf("%w: %dx%d cells exceeds %d", ErrPlaceholderRange, cols, rows, MaxPlaceholderIndex)
	}
	return nil
}

// PlaceholderCell returns the text of the placeholder cell at row, col of an
// image grid: U+10EEEE followed by the row and column diacritics.
func PlaceholderCell(row, col int) (string, error) {
	if row < 0 || col < 0 || row >= MaxPlaceholderIndex || col >= MaxPlaceholderIndex {
		return "", fmt.Errorf("%w: row %d col %d", ErrPlaceholderRange, row, col)
	}
	return string([]rune{kitty.Placeholder, kitty.Diacritic(row), kitty.Diacritic(col)}), nil
}

// appendImageIDColor sets the foreground colour that carries the image id.
func appendImageIDColor(dst []byte, id uint32) []byte {
	if id < 256 {
		dst = append(dst, "\x1b[38;5;"...)
		dst = strconv.AppendUint(dst, uint64(id), 10)
		return append(dst, 'm')
	}
	dst = append(dst, "\x1b[38;2;"...)
	dst = strconv.AppendUint(dst, uint64(id>>16&0xff), 10)
	dst = append(dst, ';')
	dst = strconv.AppendUint(dst, uint64(id>>8&0xff), 10)
	dst = append(dst, ';')
	dst = strconv.AppendUint(dst, uint64(id&0xff), 10)
	return append(dst, 'm')
}

// appendPlaceholderGrid draws the virtual placement: rows x cols placeholder
// cells, each tagged with its row and column diacritic, coloured with the id.
// The grid size must already be checked with checkPlaceholderGrid.
func appendPlaceholderGrid(dst []byte, id uint32, col, row, cols, rows int) []byte {
	dst = appendCursorPosition(dst, row, col)
	dst = appendImageIDColor(dst, id)
	for y := range rows {
		if y > 0 {
			dst = appendCursorPosition(dst, row+y, col)
		}
		rowMark := kitty.Diacritic(y)
		for x := range cols {
			dst = utf8.AppendRune(dst, kitty.Placeholder)
			dst = utf8.AppendRune(dst, rowMark)
			dst = utf8.AppendRune(dst, kitty.Diacritic(x))
		}
	}
	return append(dst, "\x1b[39m"...)
}
