// Package scanner resolves event file arguments into JSONL files
package scanner

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/penwyp/go-feed-deck/internal/util"
)

// FileScanner finds JSONL files below a directory
type FileScanner struct {
	baseDir string
	suffix  string
}

// NewFileScanner creates a new FileScanner instance
func NewFileScanner(baseDir string) *FileScanner {
	return &FileScanner{
		baseDir: baseDir,
		suffix:  ".jsonl",
	}
}

// Scan walks the directory and returns every .jsonl file in lexical order.
// Unreadable entries are skipped.
func (s *FileScanner) Scan() ([]string, error) {
	start := time.Now()
	var files []string
	dirCount, totalCount := 0, 0

	err := filepath.WalkDir(s.baseDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			util.LogDebugf("scanner: skip %s - %v", path, err)
			return nil
		}
		if d.IsDir() {
			dirCount++
			return nil
		}
		totalCount++
		if strings.HasSuffix(strings.ToLower(path), s.suffix) {
			files = append(files, path)
		}
		return nil
	})

	util.LogDebugf("scanner: %s scanned in %v, %d directories, %d files, %d JSONL files",
		s.baseDir, time.Since(start), dirCount, totalCount, len(files))
	return files, err
}

// Expand replaces every directory in paths with the JSONL files below it,
// keeping argument order. Plain files are kept even without the suffix.
func Expand(paths []string) ([]string, error) {
	var out []string
	for _, p := range paths {
		path := util.ExpandPath(p)
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", p, err)
		}
		if !info.IsDir() {
			out = append(out, path)
			continue
		}
		files, err := NewFileScanner(path).Scan()
		if err != nil {
			return nil, err
		}
		if len(files) == 0 {
			util.LogWarnf("scanner: no JSONL files in %s", path)
		}
		out = append(out, files...)
	}
	return out, nil
}
