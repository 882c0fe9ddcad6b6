// Package filesys provides the filesystem setup helper shared by the
// catalog and segment log: ensuring their data directories exist before
// the data/sidecar files inside them are opened.
package filesys

import (
	"errors"
	"os"
)

var ErrIsNotDir = errors.New("path isn't a directory")

// CreateDir creates a directory at dirPath with the given permission, then
// sets the directory's mode to 0755 regardless of that permission.
//
// If the path already exists:
//   - If force is true, it proceeds without error, or returns ErrIsNotDir
//     when the existing path is a file, not a directory.
//   - If force is false, it returns the stat error, which is nil, so it
//     returns nil without checking whether the path is a directory.
func CreateDir(dirPath string, permission os.FileMode, force bool) error {
	stat, err := os.Stat(dirPath)
	if !force && !os.IsNotExist(err) {
		return err
	}

	if stat != nil && !stat.IsDir() {
		return ErrIsNotDir
	}

	if err := os.MkdirAll(dirPath, permission); err != nil {
		return err
	}

	return os.Chmod(dirPath, 0755)
}
