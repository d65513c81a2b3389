package process

import (
	"bufio"
	"errors"
	"io"
)

const (
	lineBuffer  = 16
	maxLineSize = 1024 * 1024
)

// scanLines calls emit for every line of r without its "\n" or "\r\n". A line
// longer than maxLineSize is cut to that size, the rest of it is discarded and
// truncated (when non-nil) gets the number of bytes dropped. Scanning stops
// when emit returns false. The returned error is nil at EOF.
func scanLines(r io.Reader, emit func(string) bool, truncated func(dropped int)) error {
	br := bufio.NewReaderSize(r, 64*1024)
	var (
		line    []byte
		dropped int
	)
	for {
		chunk, err := br.ReadSlice('\n')
		eol := err == nil
		if eol {
			chunk = chunk[:len(chunk)-1]
		}
		if room := maxLineSize - len(line); len(chunk) > room {
			dropped += len(chunk) - room
			chunk = chunk[:room]
		}
		line = append(line, chunk...)
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}

		if eol || len(line) > 0 {
			if dropped > 0 {
				if truncated != nil {
					truncated(dropped)
				}
			} else if n := len(line); n > 0 && line[n-1] == '\r' {
				line = line[:n-1]
			}
			if !emit(string(line)) {
				return nil
			}
		}
		line, dropped = line[:0], 0

		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
	}
}
