// Package fsutil provides file and folder helpers shared by pipeline stages.
package fsutil

import (
	"io"
	"os"

	"pdfpages/common"
)

// FileExists returns true if the path exists and is a regular file.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular()
}

// DirExists returns true if the path exists and is a directory.
func DirExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}

// EnsureDir makes sure folder exists, creating it with all parents when
// create is set. Absent folder which could not be created is reported as
// missing destination.
func EnsureDir(path string, create bool) error {
	if DirExists(path) {
		return nil
	}
	if !create {
		return common.NewError(common.ErrorKindDestinationMissing, "folder %q does not exist", path)
	}
	if err := os.MkdirAll(path, 0755); err != nil {
		return common.WrapError(common.ErrorKindDestinationMissing, err, "unable to create folder %q", path)
	}
	return nil
}

// ResetDir removes folder with all its content and creates it again empty.
func ResetDir(path string) error {
	if err := os.RemoveAll(path); err != nil {
		return err
	}
	return os.MkdirAll(path, 0755)
}

// CopyFile copies regular file content, destination is truncated.
func CopyFile(src, dst string) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer func() {
		if e := out.Close(); e != nil && err == nil {
			err = e
		}
	}()

	if _, err = io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}
