package toolkit

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/agora-dev/symposium/tool"
)

// validNoteName matches names made of alphanumerics, hyphens, and
// underscores only, which keeps notes from wandering out of the store.
var validNoteName = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// Memory stores notes as markdown files in a directory so agents can keep
// facts around between runs.
type Memory struct {
	dir string
}

// NewMemory creates a Memory persisting notes under dir. The directory is
// created on the first save.
func NewMemory(dir string) *Memory {
	return &Memory{dir: dir}
}

// Tools returns the note tool definitions.
func (m *Memory) Tools() []tool.Definition {
	return []tool.Definition{
		tool.Must(m.SaveNote,
			tool.Name("save_note"),
			tool.Description("Create or overwrite a persistent note. Use descriptive names like 'user-preferences' or 'decisions'. Names may only contain alphanumerics, hyphens, and underscores."),
			tool.Parameters("name", "content"),
		),
		tool.Must(m.ReadNote,
			tool.Name("read_note"),
			tool.Description("Read a previously saved note by name."),
			tool.Parameters("name"),
		),
		tool.Must(m.ListNotes,
			tool.Name("list_notes"),
			tool.Description("List all saved notes with a first-line preview of each."),
		),
	}
}

// SaveNote writes content to the note called name, overwriting any previous
// version.
func (m *Memory) SaveNote(name, content string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("save_note: name is required")
	}
	if !validNoteName.MatchString(name) {
		return "", fmt.Errorf("save_note: invalid name %q: only alphanumerics, hyphens, and underscores are allowed", name)
	}

	if err := os.MkdirAll(m.dir, 0o750); err != nil {
		return "", fmt.Errorf("save_note: create directory: %w", err)
	}

	path := filepath.Join(m.dir, name+".md")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		return "", fmt.Errorf("save_note: %w", err)
	}

	return fmt.Sprintf("Note %q saved.", name), nil
}

// ReadNote returns the content of the note called name.
func (m *Memory) ReadNote(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("read_note: name is required")
	}
	if !validNoteName.MatchString(name) {
		return "", fmt.Errorf("read_note: invalid name %q: only alphanumerics, hyphens, and underscores are allowed", name)
	}

	data, err := os.ReadFile(filepath.Join(m.dir, name+".md"))
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("read_note: note %q not found", name)
		}
		return "", fmt.Errorf("read_note: %w", err)
	}

	return string(data), nil
}

// ListNotes lists every stored note with a one-line preview.
func (m *Memory) ListNotes() (string, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return "No notes found.", nil
		}
		return "", fmt.Errorf("list_notes: %w", err)
	}

	var lines []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".md") {
			continue
		}

		name := strings.TrimSuffix(e.Name(), ".md")
		lines = append(lines, fmt.Sprintf("- %s: %s", name, notePreview(filepath.Join(m.dir, e.Name()))))
	}

	if len(lines) == 0 {
		return "No notes found.", nil
	}

	return strings.Join(lines, "\n"), nil
}

// notePreview returns the first non-empty line of a note, truncated to 80
// characters.
func notePreview(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return "(unable to read)"
	}

	for _, line := range strings.Split(string(data), "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if len(trimmed) > 80 {
			return trimmed[:80] + "..."
		}
		return trimmed
	}

	return "(empty)"
}
