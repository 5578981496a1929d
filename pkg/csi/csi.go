/*
Package csi sends CSI window-ops queries to the controlling terminal and parses the replies.
*/
package csi

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/blacktop/go-termgfx"
	"golang.org/x/term"
)

// QueryTimeout is the default timeout for CSI queries
const QueryTimeout = 100 * time.Millisecond

// ErrTimeout is returned when the terminal does not answer in time.
var ErrTimeout = errors.New("csi query timed out")

const (
	queryCellSize     = "\x1b[16t" // reply: CSI 6 ; height ; width t
	queryTextAreaSize = "\x1b[14t" // reply: CSI 4 ; height ; width t
)

type reply struct {
	data []byte
	err  error
}

// Session sends queries to a terminal and matches the replies. A single
// goroutine reads from the terminal for the session's lifetime, and bytes
// not consumed by one query stay buffered for the next, so a reply that
// arrives after its query timed out cannot swallow a later answer.
type Session struct {
	w       io.Writer
	inTmux  bool
	replies chan reply
	stop    chan struct{}
	pending []byte
	err     error
}

// NewSession starts reading replies from rw. Close the session before closing rw.
func NewSession(rw io.ReadWriter, inTmux bool) *Session {
	s := &Session{
		w:       rw,
		inTmux:  inTmux,
		replies: make(chan reply, 8),
		stop:    make(chan struct{}),
	}
	go s.read(rw)
	return s
}

func (s *Session) read(r io.Reader) {
	for {
		buf := make([]byte, 64)
		n, err := r.Read(buf)
		select {
		case s.replies <- reply{buf[:n], err}:
		case <-s.stop:
			return
		}
		if err != nil {
			return
		}
	}
}

// Close stops delivering replies. The reader goroutine exits once its
// pending Read returns, which closing the terminal forces.
func (s *Session) Close() {
	select {
	case <-s.stop:
	default:
		close(s.stop)
	}
}

func (s *Session) send(query string) error {
	seq := []byte(query)
	if s.inTmux {
		seq = termgfx.AppendTmuxPassthrough(nil, seq)
	}
	if _, err := s.w.Write(seq); err != nil {
		return fmt.Errorf("failed to write query: %w", err)
	}
	return nil
}

// receive appends the next reply to pending. It returns false on timeout or
// once the terminal has failed.
func (s *Session) receive(timer *time.Timer) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	select {
	case r := <-s.replies:
		s.pending = append(s.pending, r.data...)
		if r.err != nil {
			s.err = fmt.Errorf("failed to read reply: %w", r.err)
			if len(r.data) == 0 {
				return false, s.err
			}
		}
		return true, nil
	case <-timer.C:
		return false, ErrTimeout
	}
}

// Query sends query and returns whatever the terminal answers first,
// including bytes left over from earlier queries.
func (s *Session) Query(query string, timeout time.Duration) ([]byte, error) {
	if err := s.send(query); err != nil {
		return nil, err
	}
	if len(s.pending) == 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		if ok, err := s.receive(timer); !ok {
			return nil, err
		}
	}
	resp := s.pending
	s.pending = nil
	return resp, nil
}

// windowOp sends query and waits for a "CSI op ; h ; w t" reply, skipping
// any other bytes in between.
func (s *Session) windowOp(query, op string, timeout time.Duration) (width, height int, ok bool) {
	if err := s.send(query); err != nil {
		return 0, 0, false
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	for {
		if w, h, end, found := findWindowOp(s.pending, op); found {
			s.pending = s.pending[end:]
			return w, h, true
		}
		if more, _ := s.receive(timer); !more {
			return 0, 0, false
		}
	}
}

// CellSize asks for the character cell size in pixels (CSI 16t).
func (s *Session) CellSize(timeout time.Duration) (width, height int, ok bool) {
	return s.windowOp(queryCellSize, "6", timeout)
}

// TextAreaSize asks for the text area size in pixels (CSI 14t).
func (s *Session) TextAreaSize(timeout time.Duration) (width, height int, ok bool) {
	return s.windowOp(queryTextAreaSize, "4", timeout)
}

// Query writes query to rw, wrapped for tmux passthrough when inTmux is set,
// and returns the first read of the reply.
func Query(rw io.ReadWriter, query string, inTmux bool, timeout time.Duration) ([]byte, error) {
	s := NewSession(rw, inTmux)
	defer s.Close()
	return s.Query(query, timeout)
}

// ParseCellSizeResponse parses a CSI 16t reply into cell width and height in pixels.
func ParseCellSizeResponse(resp []byte) (width, height int, ok bool) {
	return parseWindowOp(resp, "6")
}

// ParseTextAreaSizeResponse parses a CSI 14t reply into text area width and height in pixels.
func ParseTextAreaSizeResponse(resp []byte) (width, height int, ok bool) {
	return parseWindowOp(resp, "4")
}

func parseWindowOp(resp []byte, op string) (width, height int, ok bool) {
	width, height, _, ok = findWindowOp(resp, op)
	return width, height, ok
}

// findWindowOp parses "ESC [ <op> ; <height> ; <width> t" anywhere in resp.
// end is the offset just past the reply.
func findWindowOp(resp []byte, op string) (width, height, end int, ok bool) {
	prefix := []byte("\x1b[" + op + ";")
	i := bytes.Index(resp, prefix)
	if i < 0 {
		return 0, 0, 0, false
	}
	start := i + len(prefix)
	body := resp[start:]
	n := bytes.IndexByte(body, 't')
	if n < 0 {
		return 0, 0, 0, false
	}
	parts := bytes.Split(body[:n], []byte(";"))
	if len(parts) != 2 {
		return 0, 0, 0, false
	}
	height, err := strconv.Atoi(string(parts[0]))
	if err != nil || height <= 0 {
		return 0, 0, 0, false
	}
	width, err = strconv.Atoi(string(parts[1]))
	if err != nil || width <= 0 {
		return 0, 0, 0, false
	}
	return width, height, start + n + 1, true
}

// QueryCellSize asks for the character cell size in pixels (CSI 16t).
func QueryCellSize(rw io.ReadWriter, inTmux bool, timeout time.Duration) (width, height int, ok bool) {
	s := NewSession(rw, inTmux)
	defer s.Close()
	return s.CellSize(timeout)
}

// QueryTextAreaSize asks for the text area size in pixels (CSI 14t).
func QueryTextAreaSize(rw io.ReadWriter, inTmux bool, timeout time.Duration) (width, height int, ok bool) {
	s := NewSession(rw, inTmux)
	defer s.Close()
	return s.TextAreaSize(timeout)
}

// TTY is the controlling terminal in raw mode.
type TTY struct {
	*os.File
	state *term.State
}

// OpenTTY opens /dev/tty and switches it to raw mode so replies are not echoed.
func OpenTTY() (*TTY, error) {
	f, err := os.OpenFile("/dev/tty", os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to open tty: %w", err)
	}
	state, err := term.MakeRaw(int(f.Fd()))
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to set raw mode: %w", err)
	}
	return &TTY{File: f, state: state}, nil
}

// Close restores the terminal mode and closes the tty.
func (t *TTY) Close() error {
	restoreErr := term.Restore(int(t.Fd()), t.state)
	closeErr := t.File.Close()
	if restoreErr != nil {
		return restoreErr
	}
	return closeErr
}

// CellSize queries the controlling terminal for its cell size in pixels.
// CSI 16t is tried first, then CSI 14t divided by the window size.
func CellSize(inTmux bool) (width, height int, ok bool) {
	if !QuerySupported() {
		return 0, 0, false
	}
	tty, err := OpenTTY()
	if err != nil {
		return 0, 0, false
	}
	defer tty.Close()

	// one session for both queries: a late 16t reply must not eat the 14t one
	s := NewSession(tty, inTmux)
	defer s.Close()

	if w, h, ok := s.CellSize(QueryTimeout); ok {
		return w, h, true
	}
	pw, ph, ok := s.TextAreaSize(QueryTimeout)
	if !ok {
		return 0, 0, false
	}
	cols, rows, err := term.GetSize(int(tty.Fd()))
	if err != nil {
		return 0, 0, false
	}
	return FontSize(pw, ph, cols, rows)
}

// FontSize derives the cell size from the text area in pixels and cells.
// Results outside 4..50 pixels are treated as bogus.
func FontSize(pixelWidth, pixelHeight, cols, rows int) (width, height int, ok bool) {
	if pixelWidth <= 0 || pixelHeight <= 0 || cols <= 0 || rows <= 0 {
		return 0, 0, false
	}
	width = pixelWidth / cols
	height = pixelHeight / rows
	if width < 4 || width > 50 || height < 4 || height > 50 {
		return 0, 0, false
	}
	return width, height, true
}

// QuerySupported checks if a terminal likely answers CSI queries
func QuerySupported() bool {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return false
	}
	switch os.Getenv("TERM_PROGRAM") {
	case "Apple_Terminal", "vscode":
		return false
	}
	return os.Getenv("TERM") != "dumb"
}
