package fetch

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/warpdl/warpreel/pkg/logger"
)

// Store is the single fixed-name media file on disk.
type Store struct {
	fs   afero.Fs
	dir  string
	name string
	log  logger.Logger
}

// NewStore keeps the file name in dir on fs. A nil fs is the OS file system.
func NewStore(fs afero.Fs, dir, name string, l logger.Logger) *Store {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Store{
		fs:   fs,
		dir:  dir,
		name: name,
		log:  logger.OrNop(l),
	}
}

// Fs returns the file system the store lives on.
func (s *Store) Fs() afero.Fs {
	return s.fs
}

// Path returns the full path of the local file.
func (s *Store) Path() string {
	return filepath.Join(s.dir, s.name)
}

// Exists reports whether the file is a regular file that can be opened for
// reading.
func (s *Store) Exists() bool {
	fi, err := s.fs.Stat(s.Path())
	if err != nil || !fi.Mode().IsRegular() {
		return false
	}
	f, err := s.fs.Open(s.Path())
	if err != nil {
		return false
	}
	f.Close()
	return true
}

// Open opens the local file for reading.
func (s *Store) Open() (afero.File, error) {
	return s.fs.Open(s.Path())
}

// Stat returns the local file info.
func (s *Store) Stat() (os.FileInfo, error) {
	return s.fs.Stat(s.Path())
}

// Replace removes the previous file and writes data in its place. A crash
// between the two steps leaves no file behind. Only a failed write is
// returned; directory and removal failures are logged.
func (s *Store) Replace(data []byte) error {
	path := s.Path()
	if err := s.fs.MkdirAll(s.dir, 0755); err != nil {
		s.log.Warning("store: create %s: %v", s.dir, err)
	}
	if err := s.fs.Remove(path); err != nil && !os.IsNotExist(err) {
		s.log.Warning("store: remove %s: %v", path, err)
	}
	if err := afero.WriteFile(s.fs, path, data, 0644); err != nil {
		s.log.Error("store: write %s: %v", path, err)
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
