package sessionfile

import (
	"bufio"
	"io"
)

const (
	initialScanBufSize = 64 * 1024        // 64KB
	maxLineSize        = 64 * 1024 * 1024 // 64MB
)

// lineReader reads a file line by line without ever holding the
// whole file in memory, matching spec §4.4's "peak heap ≲ 50 MB on a
// 10,000-line file" bound. Lines exceeding maxLineSize are truncated
// rather than aborting the whole file.
type lineReader struct {
	r      *bufio.Reader
	maxLen int
	buf    []byte
}

func newLineReader(r io.Reader) *lineReader {
	return &lineReader{
		r:      bufio.NewReaderSize(r, initialScanBufSize),
		maxLen: maxLineSize,
		buf:    make([]byte, 0, initialScanBufSize),
	}
}

// next returns the next raw line (without trailing newline) and true,
// or ("", false) at EOF. It never returns an oversized line; those
// are silently truncated to maxLen bytes so the caller still sees
// something rather than losing the line entirely.
func (lr *lineReader) next() (string, bool) {
	line, ok := lr.readLine()
	return line, ok
}

func (lr *lineReader) readLine() (string, bool) {
	lr.buf = lr.buf[:0]
	truncated := false

	for {
		chunk, isPrefix, err := lr.r.ReadLine()
		if err != nil {
			if len(lr.buf) > 0 {
				break
			}
			return "", false
		}

		if !truncated {
			if len(lr.buf)+len(chunk) > lr.maxLen {
				truncated = true
			} else {
				lr.buf = append(lr.buf, chunk...)
			}
		}

		if !isPrefix {
			break
		}
	}

	return string(lr.buf), true
}
