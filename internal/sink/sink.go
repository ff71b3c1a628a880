// Package sink captures a supervised command's combined output in a
// temporary file so the status renderer can preview it while the command
// runs and the supervisor can dump it whole when the command fails.
package sink

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sync"
)

// tailChunkSize is how many bytes LastLine reads from the end of the
// sink. A preview only needs the final line; commands that emit longer
// single lines get a mid-line suffix, which truncation hides anyway.
const tailChunkSize = 8 * 1024

// Sink is an append-only capture file. The supervised command is the
// only writer while it runs; LastLine and Contents read through an
// independent handle and never block on the writer.
type Sink struct {
	path string

	mu        sync.Mutex
	appendF   *os.File
	readF     *os.File
	destroyed bool
}

// New creates an empty sink backed by a fresh temp file.
func New() (*Sink, error) {
	f, err := os.CreateTemp("", "taskrun-*.log")
	if err != nil {
		return nil, fmt.Errorf("create sink: %w", err)
	}
	r, err := os.Open(f.Name())
	if err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return nil, fmt.Errorf("open sink for reading: %w", err)
	}
	return &Sink{path: f.Name(), appendF: f, readF: r}, nil
}

// Path returns the sink's backing file path.
func (s *Sink) Path() string {
	return s.path
}

// Writer returns the append handle for redirecting command output.
func (s *Sink) Writer() io.Writer {
	return s.appendF
}

// AppendFrom drains r into the sink until EOF.
func (s *Sink) AppendFrom(r io.Reader) error {
	if _, err := io.Copy(s.appendF, r); err != nil {
		return fmt.Errorf("append to sink: %w", err)
	}
	return nil
}

// LastLine returns the last newline-delimited line durable in the sink
// at call time, or "" when the sink has no content yet. A trailing
// partial line counts: a preview that waits for the newline would stall
// on commands that report progress without one.
func (s *Sink) LastLine() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed {
		return ""
	}

	size, err := s.readF.Seek(0, io.SeekEnd)
	if err != nil || size == 0 {
		return ""
	}

	off := size - tailChunkSize
	if off < 0 {
		off = 0
	}
	buf := make([]byte, size-off)
	if _, err := s.readF.ReadAt(buf, off); err != nil && err != io.EOF {
		return ""
	}

	buf = bytes.TrimRight(buf, "\r\n")
	if i := bytes.LastIndexByte(buf, '\n'); i >= 0 {
		buf = buf[i+1:]
	}
	return string(bytes.TrimRight(buf, "\r"))
}

// Contents returns everything captured so far, for failure reporting.
func (s *Sink) Contents() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed {
		return "", fmt.Errorf("sink already destroyed")
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return "", fmt.Errorf("read sink contents: %w", err)
	}
	return string(data), nil
}

// Destroy closes both handles and removes the backing file. Safe to call
// more than once.
func (s *Sink) Destroy() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed {
		return nil
	}
	s.destroyed = true
	_ = s.appendF.Close()
	_ = s.readF.Close()
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove sink: %w", err)
	}
	return nil
}
