package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"eventscope/internal/model"
)

// JsonlStorage appends event records to a JSONL file.
type JsonlStorage struct {
	path string
	mu   sync.Mutex
}

func NewJsonlStorage(path string) *JsonlStorage {
	return &JsonlStorage{path: path}
}

// PutEventBatch appends a batch of event records as JSON lines.
func (s *JsonlStorage) PutEventBatch(_ context.Context, records []model.EventRecord) error {
	if len(records) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	w, err := NewJSONLWriter(s.path, true)
	if err != nil {
		return err
	}
	for _, record := range records {
		if err := w.Write(record); err != nil {
			w.Close()
			return fmt.Errorf("write event record: %w", err)
		}
	}
	return w.Close()
}

// JSONLWriter writes one JSON value per line.
type JSONLWriter struct {
	file   *os.File
	writer *bufio.Writer
}

// NewJSONLWriter opens path for writing, creating parent directories. The
// file is truncated unless appendMode is set.
func NewJSONLWriter(path string, appendMode bool) (*JSONLWriter, error) {
	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create dir: %w", err)
		}
	}

	flags := os.O_CREATE | os.O_WRONLY
	if appendMode {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}

	file, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}

	return &JSONLWriter{
		file:   file,
		writer: bufio.NewWriter(file),
	}, nil
}

func (w *JSONLWriter) Write(value interface{}) error {
	line, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	if _, err := w.writer.Write(line); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	if err := w.writer.WriteByte('\n'); err != nil {
		return fmt.Errorf("write newline: %w", err)
	}
	return nil
}

func (w *JSONLWriter) Close() error {
	if w == nil {
		return nil
	}
	if err := w.writer.Flush(); err != nil {
		w.file.Close()
		return err
	}
	return w.file.Close()
}
