package spdxer

import (
	"path/filepath"
	"strings"
)

// NormalizePath converts a path to forward slashes and cleans it, so paths
// compare equal across operating systems. Empty paths remain empty.
func NormalizePath(path string) string {
	if path == "" {
		return ""
	}
	cleaned := filepath.Clean(path)
	return strings.ReplaceAll(cleaned, "\\", "/")
}

// JoinPaths joins path elements and normalizes the result.
func JoinPaths(elem ...string) string {
	return NormalizePath(filepath.Join(elem...))
}

// AbsPath returns the normalized absolute form of a path, or the original
// path if it cannot be resolved.
func AbsPath(path string) string {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return NormalizePath(absPath)
}
