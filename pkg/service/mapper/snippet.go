package mapper

import (
	"fmt"
	"strings"

	"github.com/pwrecorder/pwrecorder/pkg/models"
)

const (
	jsImport = "import { test, expect } from '@playwright/test';"
	pyImport = "from playwright.sync_api import expect"

	jsStepIndent = "  "
	pyStepIndent = "    "
)

// Snippet left-trims every step, prefixes it with indent and joins the result with newlines.
func Snippet(steps []models.Step, indent string) string {
	lines := make([]string, 0, len(steps))
	for _, s := range steps {
		lines = append(lines, indent+strings.TrimLeft(s.Text, " \t"))
	}
	return strings.Join(lines, "\n")
}

// DefaultFile is the skeleton of a new test file holding steps.
func DefaultFile(lang models.Language, steps []models.Step) string {
	return testBlock(lang, steps, true)
}

// NewFileContent is DefaultFile with a placeholder step when nothing was recorded yet.
func NewFileContent(lang models.Language, steps []models.Step) string {
	if len(steps) == 0 {
		placeholder := "// TODO: record actions"
		if lang == models.Python {
			placeholder = "# TODO: record actions"
		}
		steps = models.NewSteps(placeholder)
	}
	return DefaultFile(lang, steps)
}

// FileExtension is the extension of test files for lang. JavaScript projects that use
// TypeScript get ".ts".
func FileExtension(lang models.Language, isTypeScript bool) string {
	if lang == models.Python {
		return ".py"
	}
	if isTypeScript {
		return ".ts"
	}
	return ".js"
}

// ScratchExtension is the extension of the generator's output file.
func ScratchExtension(lang models.Language) string {
	if lang == models.Python {
		return ".py"
	}
	return ".js"
}

// DetectIndent returns the run of spaces and tabs that starts line.
func DetectIndent(line string) string {
	return line[:len(line)-len(strings.TrimLeft(line, " \t"))]
}

func testBlock(lang models.Language, steps []models.Step, withImport bool) string {
	var b strings.Builder
	switch lang {
	case models.Python:
		if withImport {
			b.WriteString(pyImport + "\n\n")
		}
		fmt.Fprintf(&b, "def test_recorded(page):\n%s\n", Snippet(steps, pyStepIndent))
	default:
		if withImport {
			b.WriteString(jsImport + "\n\n")
		}
		fmt.Fprintf(&b, "test('recorded', async ({ page }) => {\n%s\n});\n", Snippet(steps, jsStepIndent))
	}
	return b.String()
}
