package fs

import (
	"fmt"
	"os"
	"strings"
	"sync"
)

// FileEditor is a text file with a caret. Every insertion is written through to disk.
type FileEditor struct {
	path    string
	mu      sync.Mutex
	content string
	caret   int
}

// OpenEditor loads path and puts the caret at the start of the 1-based line. A line of 0 or
// past the end puts it at the end of the file.
func OpenEditor(path string, line int) (*FileEditor, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s for editing: %w", path, err)
	}
	e := &FileEditor{path: path, content: strings.ReplaceAll(string(b), "\r\n", "\n")}
	e.caret = lineStart(e.content, line)
	if e.caret == len(e.content) && e.content != "" && !strings.HasSuffix(e.content, "\n") {
		e.content += "\n"
		e.caret = len(e.content)
	}
	return e, nil
}

func (e *FileEditor) Path() string {
	return e.path
}

func (e *FileEditor) CaretOffset() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.caret
}

// LineIndent is the leading whitespace of the line holding offset.
func (e *FileEditor) LineIndent(offset int) string {
	e.mu.Lock()
	defer e.mu.Unlock()
	offset = clamp(offset, len(e.content))
	start := strings.LastIndex(e.content[:offset], "\n") + 1
	line := e.content[start:]
	if end := strings.IndexByte(line, '\n'); end >= 0 {
		line = line[:end]
	}
	return line[:len(line)-len(strings.TrimLeft(line, " \t"))]
}

// Insert puts text at offset and saves the file.
func (e *FileEditor) Insert(offset int, text string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	offset = clamp(offset, len(e.content))
	updated := e.content[:offset] + text + e.content[offset:]
	if err := os.WriteFile(e.path, []byte(updated), 0o644); err != nil {
		return fmt.Errorf("failed to save %s: %w", e.path, err)
	}
	e.content = updated
	if e.caret > offset {
		e.caret += len(text)
	}
	return nil
}

func (e *FileEditor) MoveCaret(offset int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.caret = clamp(offset, len(e.content))
}

func (e *FileEditor) Content() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.content
}

// LineAt returns the 1-based line of the file, or "" when out of range.
func (e *FileEditor) LineAt(line int) string {
	e.mu.Lock()
	defer e.mu.Unlock()
	lines := strings.Split(e.content, "\n")
	if line < 1 || line > len(lines) {
		return ""
	}
	return lines[line-1]
}

func lineStart(content string, line int) int {
	if line <= 0 {
		return len(content)
	}
	offset := 0
	for i := 1; i < line; i++ {
		next := strings.IndexByte(content[offset:], '\n')
		if next < 0 {
			return len(content)
		}
		offset += next + 1
	}
	return offset
}

func clamp(offset, limit int) int {
	if offset < 0 {
		return 0
	}
	if offset > limit {
		return limit
	}
	return offset
}
