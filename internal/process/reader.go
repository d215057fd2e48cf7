package process

import (
	"bytes"
	"errors"
	"io"
	"os"
	"strings"
	"time"
)

// lineScanner yields complete lines from a pipe without ever blocking
// longer than the wait passed to next. It relies on read deadlines, which
// os.Pipe files support on every platform this package targets.
type lineScanner struct {
	f       *os.File
	pending []byte
	buf     []byte
	eof     bool
}

func newLineScanner(f *os.File) *lineScanner {
	return &lineScanner{f: f, buf: make([]byte, 4096)}
}

// next returns the next complete line with its trailing newline stripped.
// ok is false when no full line became available within wait. Once the
// write side is closed, next flushes a trailing partial line if any and
// then reports io.EOF.
func (s *lineScanner) next(wait time.Duration) (line string, ok bool, err error) {
	for {
		if i := bytes.IndexByte(s.pending, '\n'); i >= 0 {
			line = strings.TrimSuffix(string(s.pending[:i]), "\r")
			s.pending = s.pending[i+1:]
			return line, true, nil
		}
		if s.eof {
			if len(s.pending) > 0 {
				line = string(s.pending)
				s.pending = nil
				return line, true, nil
			}
			return "", false, io.EOF
		}
		if err := s.f.SetReadDeadline(time.Now().Add(wait)); err != nil {
			return "", false, err
		}
		n, err := s.f.Read(s.buf)
		if n > 0 {
			s.pending = append(s.pending, s.buf[:n]...)
		}
		if err != nil {
			switch {
			case errors.Is(err, os.ErrDeadlineExceeded):
				if bytes.IndexByte(s.pending, '\n') >= 0 {
					continue
				}
				return "", false, nil
			case errors.Is(err, io.EOF):
				s.eof = true
			default:
				return "", false, err
			}
		}
	}
}
