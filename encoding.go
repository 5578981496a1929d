package termgfx

import "encoding/base64"

// KITTY_CHUNK_SIZE is the maximum number of base64 bytes in one Kitty graphics command.
const KITTY_CHUNK_SIZE = 4096

// appendBase64 appends the standard base64 encoding of src to dst[:0],
// growing dst only when it is too small.
func appendBase64(dst, src []byte) []byte {
	n := base64.StdEncoding.EncodedLen(len(src))
	if cap(dst) < n {
		dst = make([]byte, n)
	}
	dst = dst[:n]
	base64.StdEncoding.Encode(dst, src)
	return dst
}

// ChunkCount returns how many chunks of size bytes are needed for n bytes.
func ChunkCount(n, size int) int {
	if n <= 0 || size <= 0 {
		return 0
	}
	return (n + size - 1) / size
}

// forEachChunk calls fn for every size-byte chunk of data. more is 1 for
// every chunk except the last. Iteration stops at the first error.
func forEachChunk(data []byte, size int, fn func(i int, chunk []byte, more int) error) error {
	for i, start := 0, 0; start < len(data); i, start = i+1, start+size {
		end := min(start+size, len(data))
		more := 1
		if end == len(data) {
			more = 0
		}
		if err := fn(i, data[start:end], more); err != nil {
			return err
		}
	}
	return nil
}
