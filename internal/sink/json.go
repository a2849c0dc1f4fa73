package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"newsharvest/internal/models"
)

var errClosed = errors.New("sink is closed")

// arrayWriter streams records as one JSON array. The array is only valid after close.
type arrayWriter struct {
	mu     sync.Mutex
	w      io.Writer
	count  int
	closed bool
}

func (a *arrayWriter) write(rec models.ArticleRecord) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return errClosed
	}
	b, err := marshal(rec)
	if err != nil {
		return err
	}
	sep := ",\n"
	if a.count == 0 {
		sep = "[\n"
	}
	if _, err := io.WriteString(a.w, sep); err != nil {
		return err
	}
	if _, err := a.w.Write(b); err != nil {
		return err
	}
	a.count++
	return nil
}

func (a *arrayWriter) close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return errClosed
	}
	a.closed = true
	tail := "\n]\n"
	if a.count == 0 {
		tail = "[]\n"
	}
	_, err := io.WriteString(a.w, tail)
	return err
}

// marshal encodes without HTML escaping and without the trailing newline.
func marshal(rec models.ArticleRecord) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(rec); err != nil {
		return nil, fmt.Errorf("encode record %s: %w", rec.URL, err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// JSONFile writes all records of one site into <dir>/<site>.json as a JSON array.
type JSONFile struct {
	path string
	f    *os.File
	arr  *arrayWriter
}

func NewJSONFile(dir, site string) (*JSONFile, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(dir, site+".json")
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create output file: %w", err)
	}
	return &JSONFile{path: path, f: f, arr: &arrayWriter{w: f}}, nil
}

func (s *JSONFile) Path() string {
	return s.path
}

func (s *JSONFile) Write(_ context.Context, rec models.ArticleRecord) error {
	return s.arr.write(rec)
}

func (s *JSONFile) Close() error {
	if err := s.arr.close(); err != nil {
		if errors.Is(err, errClosed) {
			return err
		}
		_ = s.f.Close()
		return err
	}
	return s.f.Close()
}

// JSONLines writes one JSON object per line, e.g. to stdout.
type JSONLines struct {
	mu     sync.Mutex
	w      io.Writer
	closed bool
}

func NewJSONLines(w io.Writer) *JSONLines {
	return &JSONLines{w: w}
}

func (s *JSONLines) Write(_ context.Context, rec models.ArticleRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errClosed
	}
	b, err := marshal(rec)
	if err != nil {
		return err
	}
	_, err = s.w.Write(append(b, '\n'))
	return err
}

// Close marks the sink closed. The underlying writer is left open.
func (s *JSONLines) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
