package mapper

import (
	"regexp"
	"strings"

	"github.com/pwrecorder/pwrecorder/pkg/models"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// NormalizeStep trims s and collapses inner whitespace runs, the form steps are compared in.
func NormalizeStep(s string) string {
	return whitespaceRun.ReplaceAllString(strings.TrimSpace(s), " ")
}

// Merge folds steps into content. Steps whose normalised form is blank or already present among
// the steps of content are dropped; when none are left it returns ("", false) and the caller
// must not write anything.
func Merge(lang models.Language, content string, steps []models.Step) (string, bool) {
	if len(steps) == 0 {
		return "", false
	}
	existing := make(map[string]struct{})
	for _, s := range Extract(lang, content) {
		existing[NormalizeStep(s.Text)] = struct{}{}
	}
	fresh := make([]models.Step, 0, len(steps))
	for _, s := range steps {
		n := NormalizeStep(s.Text)
		if n == "" {
			continue
		}
		if _, ok := existing[n]; ok {
			continue
		}
		fresh = append(fresh, s)
	}
	if len(fresh) == 0 {
		return "", false
	}

	if strings.TrimSpace(content) == "" {
		return DefaultFile(lang, fresh), true
	}
	switch lang {
	case models.Python:
		return mergePython(content, fresh), true
	default:
		return mergeJS(content, fresh), true
	}
}

func mergeJS(content string, steps []models.Step) string {
	lines := splitLines(content)
	closing := -1
	for i := len(lines) - 1; i >= 0; i-- {
		if strings.TrimSpace(lines[i]) == "});" {
			closing = i
			break
		}
	}
	if closing < 0 {
		withImport := !strings.Contains(content, "@playwright/test")
		return appendBlock(content, testBlock(models.JavaScript, steps, withImport))
	}
	indent := DetectIndent(lines[closing]) + jsStepIndent
	return strings.Join(insertAt(lines, closing, splitLines(Snippet(steps, indent))), "\n")
}

func mergePython(content string, steps []models.Step) string {
	lines := splitLines(content)
	def := -1
	for i, line := range lines {
		if strings.HasPrefix(strings.TrimLeft(line, " \t"), "def test") {
			def = i
			break
		}
	}
	if def < 0 {
		withImport := !strings.Contains(content, "from playwright.sync_api")
		return appendBlock(content, testBlock(models.Python, steps, withImport))
	}
	defIndent := DetectIndent(lines[def])
	indent := pythonBodyIndent(lines, def, defIndent)
	at := pythonBlockEnd(lines, def, defIndent)
	return strings.Join(insertAt(lines, at, splitLines(Snippet(steps, indent))), "\n")
}

// pythonBodyIndent is the indent of the first non-blank line after the declaration when it is
// deeper than the declaration, otherwise one level below it.
func pythonBodyIndent(lines []string, def int, defIndent string) string {
	for _, line := range lines[def+1:] {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if indent := DetectIndent(line); len(indent) > len(defIndent) {
			return indent
		}
		break
	}
	return defIndent + pyStepIndent
}

// pythonBlockEnd is the index of the next declaration at or above the indent of the test
// function, or len(lines) when the function runs to the end of the file.
func pythonBlockEnd(lines []string, def int, defIndent string) int {
	for i := def + 1; i < len(lines); i++ {
		line := lines[i]
		if strings.TrimSpace(line) == "" {
			continue
		}
		if len(DetectIndent(line)) <= len(defIndent) && strings.HasPrefix(strings.TrimLeft(line, " \t"), "def ") {
			return i
		}
	}
	return len(lines)
}

func appendBlock(content, block string) string {
	return strings.TrimRight(content, " \t\r\n") + "\n\n" + strings.TrimRight(block, " \t\r\n") + "\n"
}

func insertAt(lines []string, at int, insert []string) []string {
	out := make([]string, 0, len(lines)+len(insert))
	out = append(out, lines[:at]...)
	out = append(out, insert...)
	return append(out, lines[at:]...)
}
