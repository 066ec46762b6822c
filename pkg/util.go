package blockdupes

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
)

// ParseSignedSize parses a size filter such as "1", "10K", "+4MiB" or "-1MB".
// Unit suffixes follow go-humanize: "K"/"KB" are powers of 1000, "KiB" powers of 1024.
func ParseSignedSize(sizeStr string) (int64, error) {
	s := strings.TrimSpace(sizeStr)
	if s == "" {
		return 0, fmt.Errorf("empty size string")
	}

	negative := false
	switch s[0] {
	case '-':
		negative = true
		s = s[1:]
	case '+':
		s = s[1:]
	}

	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q: %w", sizeStr, err)
	}
	if n > math.MaxInt64 {
		return 0, fmt.Errorf("size too large: %s", sizeStr)
	}

	if negative {
		return -int64(n), nil
	}
	return int64(n), nil
}

// ParseBlockSize parses a positive block size such as "8", "4KiB" or "1M"
func ParseBlockSize(sizeStr string) (int, error) {
	n, err := humanize.ParseBytes(strings.TrimSpace(sizeStr))
	if err != nil {
		return 0, fmt.Errorf("invalid block size %q: %w", sizeStr, err)
	}
	if n == 0 {
		return 0, fmt.Errorf("%w: %s", ErrInvalidBlockSize, sizeStr)
	}
	if n > math.MaxInt32 {
		return 0, fmt.Errorf("block size too large: %s", sizeStr)
	}
	return int(n), nil
}

// FormatSize renders a byte count for log output
func FormatSize(n int64) string {
	if n < 0 {
		return "-" + humanize.IBytes(uint64(-n))
	}
	return humanize.IBytes(uint64(n))
}

// canonicalPath returns an absolute path with every symlink resolved.
// Paths that cannot be resolved (e.g. missing) fall back to the cleaned absolute form.
func canonicalPath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return filepath.Clean(abs), err
	}
	return resolved, nil
}

// isPathUnder checks if childPath is under parentPath
func isPathUnder(childPath, parentPath string) bool {
	childPath = filepath.Clean(childPath)
	parentPath = filepath.Clean(parentPath)

	if childPath == parentPath {
		return false
	}

	parentWithSep := parentPath
	if !strings.HasSuffix(parentWithSep, string(filepath.Separator)) {
		parentWithSep += string(filepath.Separator)
	}
	return strings.HasPrefix(childPath, parentWithSep)
}

// pathDepth returns how many directory levels path lies below root:
// a direct child of root is 0, a grandchild 1. Returns -1 for root itself
// or for paths outside root.
func pathDepth(root, path string) int {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return -1
	}
	return strings.Count(rel, string(filepath.Separator))
}
