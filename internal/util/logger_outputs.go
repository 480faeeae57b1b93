package util

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/bytedance/sonic"
)

// WriterOutput writes entries to an io.Writer, one per line
type WriterOutput struct {
	mu     sync.Mutex
	w      io.Writer
	closer io.Closer
	format LogFormat
}

// NewConsoleOutput writes to w, which is never closed
func NewConsoleOutput(w io.Writer, format LogFormat) *WriterOutput {
	return &WriterOutput{w: w, format: format}
}

// NewFileOutput appends to the file at path, creating it if needed
func NewFileOutput(path string, format LogFormat) (*WriterOutput, error) {
	if err := EnsureDir(parentDir(path)); err != nil {
		return nil, err
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, err
	}
	return &WriterOutput{w: file, closer: file, format: format}, nil
}

func (o *WriterOutput) Write(entry LogEntry) error {
	var line string
	if o.format == FormatJSON {
		data, err := sonic.MarshalString(entry)
		if err != nil {
			return err
		}
		line = data
	} else {
		line = formatText(entry)
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	_, err := fmt.Fprintln(o.w, line)
	return err
}

func (o *WriterOutput) Close() error {
	if o.closer == nil {
		return nil
	}
	return o.closer.Close()
}
