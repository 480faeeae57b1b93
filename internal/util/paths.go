package util

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"
)

// ExpandPath resolves a leading ~/ and makes path absolute. On failure the
// input is returned unchanged.
func ExpandPath(path string) string {
	if path == "" {
		return path
	}
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, strings.TrimPrefix(path[1:], "/"))
		}
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return abs
}

// EnsureDir creates dir and its parents
func EnsureDir(dir string) error {
	if dir == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0755)
}

func parentDir(path string) string {
	return filepath.Dir(path)
}

// FileIdentity is the part of a file's metadata used to notice rotation
// and truncation of a tailed file
type FileIdentity struct {
	Size    int64
	ModTime int64
	Inode   uint64
}

// SameFile reports whether other refers to the same underlying file
func (f FileIdentity) SameFile(other FileIdentity) bool {
	return f.Inode == other.Inode
}

// StatIdentity reads the identity of the file at path
func StatIdentity(path string) (FileIdentity, error) {
	stat, err := os.Stat(path)
	if err != nil {
		return FileIdentity{}, err
	}
	sys, ok := stat.Sys().(*syscall.Stat_t)
	if !ok {
		return FileIdentity{}, fmt.Errorf("no inode information for %s", path)
	}
	return FileIdentity{
		Size:    stat.Size(),
		ModTime: stat.ModTime().Unix(),
		Inode:   uint64(sys.Ino),
	}, nil
}
