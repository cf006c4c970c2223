// Package pathcomplete lists filesystem entries that complete a partially
// typed path below a completion root.
package pathcomplete

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrOutsideRoot is returned for prefixes that leave the completion root.
var ErrOutsideRoot = errors.New("path outside completion root")

// Complete returns up to limit paths below root starting with prefix.  The
// prefix is relative to root and its directory part is kept as typed;
// directories end with the path separator.  Absolute and home-relative
// prefixes, and prefixes resolving outside root (also through symlinks),
// are refused with ErrOutsideRoot.  Hidden entries are listed only when the
// typed name starts with a dot.  A limit of zero or less returns every match.
func Complete(root, prefix string, limit int) ([]string, error) {
	typedDir, base := split(prefix)

	dir, err := resolve(root, typedDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, err
	}

	matches := make([]string, 0)
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, base) {
			continue
		}
		if strings.HasPrefix(name, ".") && !strings.HasPrefix(base, ".") {
			continue
		}
		path := typedDir + name
		if isDir(dir, entry) {
			path += string(filepath.Separator)
		}
		matches = append(matches, path)
	}
	sort.Strings(matches)
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

// resolve returns the directory typedDir names below root.
func resolve(root, typedDir string) (string, error) {
	if filepath.IsAbs(typedDir) || filepath.VolumeName(typedDir) != "" || strings.HasPrefix(typedDir, "~") {
		return "", fmt.Errorf("%w: %s", ErrOutsideRoot, typedDir)
	}
	dir := filepath.Join(root, typedDir)
	if !within(filepath.Clean(root), dir) {
		return "", fmt.Errorf("%w: %s", ErrOutsideRoot, typedDir)
	}

	realRoot, err := filepath.EvalSymlinks(root)
	if err != nil {
		return "", err
	}
	realDir, err := filepath.EvalSymlinks(dir)
	if err != nil {
		return "", err
	}
	if !within(realRoot, realDir) {
		return "", fmt.Errorf("%w: %s", ErrOutsideRoot, typedDir)
	}
	return dir, nil
}

func within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// split cuts prefix after its last separator.
func split(prefix string) (dir, base string) {
	idx := strings.LastIndex(prefix, string(filepath.Separator))
	if idx < 0 {
		return "", prefix
	}
	return prefix[:idx+1], prefix[idx+1:]
}

// isDir follows symlinks so that linked directories complete as directories.
func isDir(dir string, entry os.DirEntry) bool {
	if entry.IsDir() {
		return true
	}
	if entry.Type()&os.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(filepath.Join(dir, entry.Name()))
	return err == nil && info.IsDir()
}
