package tools

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"eigend/internal/common/fsutil"
)

const maxReadBytes = 1_000_000

var forbiddenPaths = []string{
	"/etc/passwd",
	"/etc/shadow",
	"/etc/sudoers",
	".ssh/",
	".gnupg/",
	".aws/credentials",
	".env",
}

func filesystem(callID string, a args) Result {
	op, ok := a.str("operation")
	if !ok {
		return missing(callID, "operation")
	}
	raw, ok := a.str("path")
	if !ok {
		return missing(callID, "path")
	}
	path, err := fsutil.ExpandHome(raw)
	if err != nil {
		return failure(callID, "Invalid path: %v", err)
	}
	lower := strings.ToLower(path)
	for _, f := range forbiddenPaths {
		if strings.Contains(lower, f) {
			return failure(callID, "Access denied: cannot access sensitive path '%s'", path)
		}
	}

	switch op {
	case "read":
		return readFile(callID, path)
	case "write":
		content, _ := a.str("content")
		return writeFile(callID, path, content)
	case "list":
		return listDir(callID, path)
	default:
		return failure(callID, "Unknown operation: %s. Use 'read', 'write', or 'list'", op)
	}
}

func readFile(callID, path string) Result {
	fi, err := os.Stat(path)
	if os.IsNotExist(err) {
		return failure(callID, "File not found: %s", path)
	}
	if err != nil {
		return failure(callID, "Cannot read file metadata: %v", err)
	}
	if !fi.Mode().IsRegular() {
		return failure(callID, "Not a file: %s", path)
	}
	if fi.Size() > maxReadBytes {
		return failure(callID, "File too large (>1MB). Consider reading a smaller file.")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return failure(callID, "Failed to read file: %v", err)
	}
	return success(callID, string(b))
}

func writeFile(callID, path, content string) Result {
	if err := fsutil.EnsureDir(filepath.Dir(path)); err != nil {
		return failure(callID, "Failed to create directory: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return failure(callID, "Failed to write file: %v", err)
	}
	return success(callID, fmt.Sprintf("Successfully wrote %d bytes to %s", len(content), path))
}

func listDir(callID, path string) Result {
	fi, err := os.Stat(path)
	if os.IsNotExist(err) {
		return failure(callID, "Directory not found: %s", path)
	}
	if err != nil {
		return failure(callID, "Failed to read directory: %v", err)
	}
	if !fi.IsDir() {
		return failure(callID, "Not a directory: %s", path)
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		return failure(callID, "Failed to read directory: %v", err)
	}
	// Directories first, then case-insensitive by name.
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].IsDir() != entries[j].IsDir() {
			return entries[i].IsDir()
		}
		return strings.ToLower(entries[i].Name()) < strings.ToLower(entries[j].Name())
	})

	var b strings.Builder
	fmt.Fprintf(&b, "Contents of %s:\n\n", path)
	for _, e := range entries {
		if e.IsDir() {
			fmt.Fprintf(&b, "📁 %s/\n", e.Name())
			continue
		}
		var size int64
		if info, err := e.Info(); err == nil {
			size = info.Size()
		}
		fmt.Fprintf(&b, "📄 %s (%s)\n", e.Name(), formatSize(size))
	}
	return success(callID, b.String())
}

func formatSize(n int64) string {
	const (
		kb = 1024
		mb = kb * 1024
		gb = mb * 1024
	)
	switch {
	case n >= gb:
		return fmt.Sprintf("%.1f GB", float64(n)/gb)
	case n >= mb:
		return fmt.Sprintf("%.1f MB", float64(n)/mb)
	case n >= kb:
		return fmt.Sprintf("%.1f KB", float64(n)/kb)
	default:
		return fmt.Sprintf("%d B", n)
	}
}
