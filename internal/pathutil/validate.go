// Package pathutil confines file paths supplied by tool clients to a set of
// allowed directories.
package pathutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrPathRejected wraps every validation failure.
var ErrPathRejected = errors.New("path rejected")

// RedactPath reduces a full path to .../<parent>/<basename> for safe error messages.
// For example, "/data/genomes/sars_cov_2.fasta" becomes ".../genomes/sars_cov_2.fasta".
func RedactPath(path string) string {
	if path == "" {
		return ""
	}
	cleaned := filepath.Clean(path)
	dir := filepath.Dir(cleaned)
	base := filepath.Base(cleaned)
	parent := filepath.Base(dir)
	if parent == "." || parent == string(filepath.Separator) {
		return base
	}
	return ".../" + parent + "/" + base
}

// AllowedInputDirs returns the configured directories, or workDir alone when
// none are configured. Empty entries are skipped.
func AllowedInputDirs(configured []string, workDir string) []string {
	dirs := make([]string, 0, len(configured))
	for _, d := range configured {
		if strings.TrimSpace(d) != "" {
			dirs = append(dirs, d)
		}
	}
	if len(dirs) == 0 && workDir != "" {
		dirs = append(dirs, workDir)
	}
	return dirs
}

// ValidatePath checks that path lies within one of allowedDirs after
// cleaning and symlink resolution. The file itself need not exist.
func ValidatePath(path string, allowedDirs []string) error {
	if path == "" {
		return fmt.Errorf("%w: path is empty", ErrPathRejected)
	}
	if len(allowedDirs) == 0 {
		return fmt.Errorf("%w: no allowed directories configured", ErrPathRejected)
	}
	if strings.ContainsRune(path, '\x00') {
		return fmt.Errorf("%w: path contains null byte", ErrPathRejected)
	}

	absPath, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("%w: cannot resolve absolute path: %v", ErrPathRejected, err)
	}

	// A directory inside the allowed tree may be a symlink pointing outside.
	resolvedDir, err := resolveExistingParent(filepath.Dir(absPath))
	if err != nil {
		return fmt.Errorf("%w: cannot resolve parent directory: %v", ErrPathRejected, err)
	}
	resolvedPath := filepath.Join(resolvedDir, filepath.Base(absPath))

	for _, allowed := range allowedDirs {
		allowedAbs, err := filepath.Abs(filepath.Clean(allowed))
		if err != nil {
			continue
		}
		allowedResolved, err := resolveExistingParent(allowedAbs)
		if err != nil {
			continue
		}
		if isSubpath(resolvedPath, allowedResolved) {
			return nil
		}
	}

	return fmt.Errorf("%w: %q is outside allowed directories", ErrPathRejected, RedactPath(absPath))
}

// ValidateInputFile is ValidatePath plus a check that the target is an
// existing regular file.
func ValidateInputFile(path string, allowedDirs []string) error {
	if err := ValidatePath(path, allowedDirs); err != nil {
		return err
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrPathRejected, RedactPath(path), errors.Unwrap(err))
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%w: %s is not a regular file", ErrPathRejected, RedactPath(path))
	}
	return nil
}

// resolveExistingParent resolves symlinks on the deepest existing ancestor of
// dir and re-appends the missing tail.
func resolveExistingParent(dir string) (string, error) {
	resolved, err := filepath.EvalSymlinks(dir)
	if err == nil {
		return resolved, nil
	}

	parent := filepath.Dir(dir)
	if parent == dir {
		return "", fmt.Errorf("cannot resolve path: %s", RedactPath(dir))
	}

	resolvedParent, err := resolveExistingParent(parent)
	if err != nil {
		return "", err
	}
	return filepath.Join(resolvedParent, filepath.Base(dir)), nil
}

// isSubpath reports whether path equals base or lies beneath it.
func isSubpath(path, base string) bool {
	if path == base {
		return true
	}
	// "/tmp/foo" must not match "/tmp/foobar".
	return strings.HasPrefix(path, base+string(os.PathSeparator))
}
