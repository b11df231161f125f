// Package scripts holds the bridge programs that drive a real browser on behalf of the
// recorder, and the page-side picker they inject.
package scripts

import (
	"bytes"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/pwrecorder/pwrecorder/pkg/models"
)

//go:embed picker.js bridge.js.tmpl bridge.py.tmpl
var assets embed.FS

const (
	Outline       = "2px solid #ff0055"
	OutlineOffset = "2px"
)

type data struct {
	Prefix        string
	Binding       string
	Outline       string
	OutlineOffset string
	Picker        string
}

// Picker returns the page-side picker: an arrow function that outlines hovered elements and
// reports the locator of the first clicked one through the pick binding.
func Picker() string {
	b, err := assets.ReadFile("picker.js")
	if err != nil {
		// embedded at build time, cannot be missing
		panic(err)
	}
	return strings.TrimSpace(string(b))
}

// Render returns the bridge program for lang.
func Render(lang models.Language) ([]byte, error) {
	name, err := templateName(lang)
	if err != nil {
		return nil, err
	}
	tmpl, err := template.ParseFS(assets, name)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", name, err)
	}
	var buf bytes.Buffer
	err = tmpl.Execute(&buf, data{
		Prefix:        models.ProtocolPrefix,
		Binding:       models.PickBinding,
		Outline:       Outline,
		OutlineOffset: OutlineOffset,
		Picker:        Picker(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to render %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

// FileName is the on-disk name of the bridge program for lang.
func FileName(lang models.Language) string {
	if lang == models.Python {
		return "bridge.py"
	}
	return "bridge.js"
}

// Write renders the bridge program for lang into dir, replacing any previous copy, and returns
// its path. A blank dir means <tmp>/playwright-recorder.
func Write(dir string, lang models.Language) (string, error) {
	if strings.TrimSpace(dir) == "" {
		dir = filepath.Join(os.TempDir(), models.ScratchDirName)
	}
	content, err := Render(lang)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create script directory: %w", err)
	}
	path := filepath.Join(dir, FileName(lang))
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return "", fmt.Errorf("failed to write bridge script: %w", err)
	}
	return path, nil
}

func templateName(lang models.Language) (string, error) {
	switch lang {
	case models.JavaScript:
		return "bridge.js.tmpl", nil
	case models.Python:
		return "bridge.py.tmpl", nil
	default:
		return "", fmt.Errorf("no bridge script for language %q: %w", lang, models.ErrInvalidArgument)
	}
}
