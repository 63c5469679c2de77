package stagedb

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/sys/unix"
)

// FileStorage is a cellStorage backend that appends cell bytes to a regular
// file instead of keeping them in RAM, flocking it for the process's
// lifetime so two tables never share one file concurrently. Opening an
// existing file sets total to the file's size; no row count or per-column
// analysis is recovered from its contents.
type FileStorage struct {
	f     *os.File
	total int
	path  string
}

// OpenFileStorage opens (creating if necessary) the file at path and locks
// it exclusively for the lifetime of the returned FileStorage.
func OpenFileStorage(path string) (*FileStorage, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("stagedb: open %s: %w", path, err)
	}
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		f.Close()
		return nil, fmt.Errorf("stagedb: flock %s: %w", path, err)
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stagedb: stat %s: %w", path, err)
	}
	return &FileStorage{f: f, total: int(fi.Size()), path: path}, nil
}

func (fs *FileStorage) Write(p []byte) (int, error) {
	n, err := fs.f.Write(p)
	fs.total += n
	if err != nil {
		return n, fmt.Errorf("stagedb: write %s: %w", fs.path, err)
	}
	return n, nil
}

func (fs *FileStorage) NBytes() int { return fs.total }

func (fs *FileStorage) ReadAt(off int, dst []byte) int {
	if off < 0 || off >= fs.total {
		return 0
	}
	n, err := fs.f.ReadAt(dst, int64(off))
	if err != nil && err != io.EOF {
		return 0
	}
	return n
}

// Trim physically removes the first n bytes by rewriting the file from the
// remaining offset; it is O(NBytes) and does not check for row
// boundaries.
func (fs *FileStorage) Trim(n int) {
	if n <= 0 {
		return
	}
	if n >= fs.total {
		fs.f.Truncate(0)
		fs.f.Seek(0, io.SeekStart)
		fs.total = 0
		return
	}
	remaining := fs.total - n
	buf := make([]byte, remaining)
	fs.f.ReadAt(buf, int64(n))
	fs.f.Truncate(0)
	fs.f.Seek(0, io.SeekStart)
	fs.f.Write(buf)
	fs.total = remaining
}

// Reset truncates the backing file to zero length.
func (fs *FileStorage) Reset() {
	fs.f.Truncate(0)
	fs.f.Seek(0, io.SeekStart)
	fs.total = 0
}

// Close releases the file lock and closes the underlying descriptor. The
// table that owns this storage must not be used afterwards.
func (fs *FileStorage) Close() error {
	unix.Flock(int(fs.f.Fd()), unix.LOCK_UN)
	return fs.f.Close()
}
