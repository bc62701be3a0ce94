package installer

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// Non-essential files left out of installed copies.
var excludedNames = map[string]bool{
	"README.md":     true,
	"metadata.json": true,
}

// Version-control directories left out of installed copies.
var excludedDirs = map[string]bool{
	".git": true,
	".svn": true,
	".hg":  true,
}

func excluded(name string, isDir bool) bool {
	if strings.HasPrefix(name, "_") {
		return true
	}
	if isDir {
		return excludedDirs[name]
	}
	return excludedNames[name]
}

// clearAndCopy replaces dst with a fresh copy of the src tree. Clearing a
// previous install is best-effort: a failure to remove stale content does
// not abort the copy. Symbolic links in the source are dereferenced.
func clearAndCopy(src, dst string) error {
	_ = os.RemoveAll(dst)

	if err := os.MkdirAll(dst, 0o755); err != nil {
		return errors.Wrap(err, "failed to create destination directory")
	}
	return copyTree(src, dst)
}

func copyTree(src, dst string) error {
	entries, err := os.ReadDir(src)
	if err != nil {
		return errors.Wrapf(err, "failed to read source directory %s", src)
	}

	for _, entry := range entries {
		srcPath := filepath.Join(src, entry.Name())

		// Stat (not Lstat) so links are followed and their content copied.
		info, err := os.Stat(srcPath)
		if err != nil {
			return errors.Wrapf(err, "failed to stat %s", srcPath)
		}

		if excluded(entry.Name(), info.IsDir()) {
			continue
		}

		dstPath := filepath.Join(dst, entry.Name())
		if info.IsDir() {
			if err := os.MkdirAll(dstPath, 0o755); err != nil {
				return errors.Wrapf(err, "failed to create directory %s", dstPath)
			}
			if err := copyTree(srcPath, dstPath); err != nil {
				return err
			}
			continue
		}

		if err := copyFile(srcPath, dstPath, info.Mode()); err != nil {
			return errors.Wrapf(err, "failed to copy %s", srcPath)
		}
	}
	return nil
}

func copyFile(src, dst string, mode os.FileMode) error {
	srcFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer srcFile.Close()

	dstFile, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode.Perm())
	if err != nil {
		return err
	}
	defer dstFile.Close()

	_, err = io.Copy(dstFile, srcFile)
	return err
}
