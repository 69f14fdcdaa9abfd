// Package filex resolves local paths for files the CLI writes.
package filex

import (
	"fmt"
	"os"
	"path/filepath"
)

// EnsureSubDir creates dirName under the working directory (unless it is
// absolute) and returns its full path.
func EnsureSubDir(dirName string) (string, error) {
	dir := dirName
	if !filepath.IsAbs(dir) {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("getwd: %w", err)
		}
		dir = filepath.Join(cwd, dirName)
	}

	if err := os.MkdirAll(dir, 0o770); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", dir, err)
	}

	return dir, nil
}

// TargetPath returns where a download named name should be written: path
// itself when given, otherwise dirName/name with dirName created on demand.
func TargetPath(path, dirName, name string) (string, error) {
	if path != "" {
		return path, nil
	}

	dir, err := EnsureSubDir(dirName)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, filepath.Base(name)), nil
}
