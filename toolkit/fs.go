package toolkit

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/agora-dev/symposium/tool"
	json "github.com/goccy/go-json"
)

// maxReadSize caps file reads so a single tool call can't blow up the
// conversation context.
const maxReadSize = 10 << 20 // 10 MB

// FS provides file tools confined to a root directory. Paths are resolved
// relative to the root and may never escape it, symlinks included.
type FS struct {
	root string
}

// NewFS creates an FS rooted at dir. The directory must exist.
func NewFS(dir string) (*FS, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("toolkit: resolve root: %w", err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("toolkit: root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("toolkit: root %s is not a directory", abs)
	}

	return &FS{root: abs}, nil
}

// Root returns the absolute jail directory.
func (f *FS) Root() string { return f.root }

// Tools returns the filesystem tool definitions for this root.
func (f *FS) Tools() []tool.Definition {
	return []tool.Definition{
		tool.Must(f.ReadFile,
			tool.Name("read_file"),
			tool.Description("Read the contents of a file. The path is relative to the workspace root. Returns the full file content as text."),
			tool.Parameters("path"),
		),
		tool.Must(f.WriteFile,
			tool.Name("write_file"),
			tool.Description("Write content to a file, creating parent directories as needed. The path is relative to the workspace root. Overwrites existing files."),
			tool.Parameters("path", "content"),
		),
		tool.Must(f.ListDir,
			tool.Name("list_dir"),
			tool.Description("List entries in a directory (non-recursive). Returns JSON with name, type, and size for each entry."),
			tool.Parameters("path"),
		),
	}
}

// resolve maps a tool-supplied path into the jail. The returned path is
// always inside the root.
func (f *FS) resolve(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("path is required")
	}

	// Relative paths that climb out of the root are rejected outright,
	// clamping them would silently change what the tool call meant.
	if !filepath.IsAbs(path) {
		cleaned := filepath.Clean(path)
		if cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) {
			return "", fmt.Errorf("path %q escapes the workspace root", path)
		}
	}

	joined := filepath.Join(f.root, filepath.Clean("/"+path))

	rel, err := filepath.Rel(f.root, joined)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q escapes the workspace root", path)
	}

	// A symlink inside the root may still point outside it.
	real, err := filepath.EvalSymlinks(joined)
	if err != nil {
		if os.IsNotExist(err) {
			return joined, nil
		}
		return "", fmt.Errorf("resolve %q: %w", path, err)
	}

	realRoot, err := filepath.EvalSymlinks(f.root)
	if err != nil {
		return "", fmt.Errorf("resolve root: %w", err)
	}

	rel, err = filepath.Rel(realRoot, real)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q escapes the workspace root", path)
	}

	return joined, nil
}

// ReadFile returns the contents of the file at path.
func (f *FS) ReadFile(path string) (string, error) {
	abs, err := f.resolve(path)
	if err != nil {
		return "", fmt.Errorf("read_file: %w", err)
	}

	file, err := os.Open(abs)
	if err != nil {
		return "", fmt.Errorf("read_file: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, int64(maxReadSize)+1))
	if err != nil {
		return "", fmt.Errorf("read_file: %w", err)
	}
	if len(data) > maxReadSize {
		return "", fmt.Errorf("read_file: file exceeds maximum read size of 10 MB")
	}

	return string(data), nil
}

// WriteFile writes content to the file at path, creating parent directories
// as needed. Existing permission bits are preserved.
func (f *FS) WriteFile(path, content string) (string, error) {
	abs, err := f.resolve(path)
	if err != nil {
		return "", fmt.Errorf("write_file: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(abs), 0o750); err != nil {
		return "", fmt.Errorf("write_file: create dirs: %w", err)
	}

	if err := os.WriteFile(abs, []byte(content), fileMode(abs)); err != nil {
		return "", fmt.Errorf("write_file: %w", err)
	}

	return "ok", nil
}

type dirEntry struct {
	Name string `json:"name"`
	Type string `json:"type"`
	Size int64  `json:"size"`
}

// ListDir returns the entries of the directory at path as JSON.
func (f *FS) ListDir(path string) (string, error) {
	abs, err := f.resolve(path)
	if err != nil {
		return "", fmt.Errorf("list_dir: %w", err)
	}

	entries, err := os.ReadDir(abs)
	if err != nil {
		return "", fmt.Errorf("list_dir: %w", err)
	}

	result := make([]dirEntry, 0, len(entries))
	for _, e := range entries {
		info, infoErr := e.Info()
		if infoErr != nil {
			continue
		}

		typ := "file"
		if e.IsDir() {
			typ = "dir"
		}

		result = append(result, dirEntry{Name: e.Name(), Type: typ, Size: info.Size()})
	}

	data, err := json.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("list_dir: marshal: %w", err)
	}

	return string(data), nil
}

// fileMode returns the existing file's permission bits, or 0o600 for new
// files.
func fileMode(path string) fs.FileMode {
	info, err := os.Stat(path)
	if err != nil {
		return 0o600
	}
	return info.Mode().Perm()
}
