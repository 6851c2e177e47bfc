// Package pathguard validates human-entered folder names and caller-supplied
// relative storage paths before they are allowed anywhere near the disk.
//
// Every string that ends up as part of a filesystem path must pass through
// ResolveRelativePath and then Guard.ResolveAbsolutePath. Skipping either
// check reopens path traversal outside the storage root.
package pathguard

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// MaxFolderNameLen is the maximum folder name length, in characters.
const MaxFolderNameLen = 60

// ForbiddenNameChars lists the characters a folder name may not contain.
const ForbiddenNameChars = `\/:*?"<>|`

var (
	// ErrInvalidName indicates a folder name failed sanitization.
	ErrInvalidName = errors.New("invalid folder name")

	// ErrInvalidPath indicates a relative path is empty, contains a ".."
	// segment, or resolves outside the storage root.
	ErrInvalidPath = errors.New("invalid path")
)

// SanitizeFolderName trims whitespace and checks length and character rules.
func SanitizeFolderName(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", fmt.Errorf("%w: Folder name is required", ErrInvalidName)
	}
	if utf8.RuneCountInString(name) > MaxFolderNameLen {
		return "", fmt.Errorf("%w: Folder name too long (max %d)", ErrInvalidName, MaxFolderNameLen)
	}
	if strings.ContainsAny(name, ForbiddenNameChars) {
		return "", fmt.Errorf(`%w: Folder name cannot include \ / : * ? " < > |`, ErrInvalidName)
	}
	return name, nil
}

// ResolveRelativePath normalizes separators to "/" and rejects empty paths and
// any path with a ".." segment.
func ResolveRelativePath(raw string) (string, error) {
	p := strings.TrimSpace(strings.ReplaceAll(raw, `\`, "/"))
	if p == "" {
		return "", fmt.Errorf("%w: path is required", ErrInvalidPath)
	}
	for _, seg := range strings.Split(p, "/") {
		if seg == ".." {
			return "", fmt.Errorf("%w: %q", ErrInvalidPath, raw)
		}
	}
	return p, nil
}

// SafeDiskName replaces path separators in an uploaded file name so it can be
// used as a single path element.
func SafeDiskName(original string) string {
	return strings.NewReplacer(`\`, "_", "/", "_").Replace(original)
}

// SplitName splits a file name into stem and extension. A name that starts
// with a dot and has no other dot (".env") has no extension.
func SplitName(name string) (stem, ext string) {
	ext = filepath.Ext(name)
	if ext == name {
		return name, ""
	}
	return strings.TrimSuffix(name, ext), ext
}

// Guard resolves relative paths against a fixed storage root.
type Guard struct {
	root string
}

// New creates a Guard rooted at root. The root is made absolute and cleaned.
func New(root string) (*Guard, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve storage root %q: %w", root, err)
	}
	return &Guard{root: filepath.Clean(abs)}, nil
}

// Root returns the absolute storage root.
func (g *Guard) Root() string {
	return g.root
}

// ResolveAbsolutePath validates rel and joins it to the storage root.
//
// The joined path must be lexically inside the root. When the target or its
// parent directory already exists, the symlink-resolved location must also
// stay inside the symlink-resolved root, so a planted link cannot redirect a
// write or delete.
func (g *Guard) ResolveAbsolutePath(rel string) (string, error) {
	clean, err := ResolveRelativePath(rel)
	if err != nil {
		return "", err
	}

	full := filepath.Join(g.root, filepath.FromSlash(clean))
	if !within(g.root, full) || full == g.root {
		return "", fmt.Errorf("%w: %q escapes storage root", ErrInvalidPath, rel)
	}

	realRoot, err := filepath.EvalSymlinks(g.root)
	if err != nil {
		// Root not created yet: nothing on disk can redirect us.
		return full, nil
	}

	probe := full
	if _, err := os.Lstat(probe); err != nil {
		probe = filepath.Dir(full)
	}
	if real, err := filepath.EvalSymlinks(probe); err == nil && !within(realRoot, real) {
		return "", fmt.Errorf("%w: %q resolves outside storage root", ErrInvalidPath, rel)
	}

	return full, nil
}

// within reports whether target is base or lies below it.
func within(base, target string) bool {
	rel, err := filepath.Rel(base, target)
	if err != nil {
		return false
	}
	return rel == "." || filepath.IsLocal(rel)
}
