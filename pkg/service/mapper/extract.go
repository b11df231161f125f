// Package mapper turns generator output into steps and folds steps back into test files.
// Both directions are line heuristics, not parsers.
package mapper

import (
	"strings"

	"github.com/pwrecorder/pwrecorder/pkg/models"
)

// Extract keeps the interaction lines of raw generator output. For JavaScript these start with
// "await " or "page.", for Python with "page.". Kept lines are right-trimmed, in source order,
// duplicates included.
func Extract(lang models.Language, raw string) []models.Step {
	steps := []models.Step{}
	for _, line := range splitLines(raw) {
		if isStepLine(lang, line) {
			steps = append(steps, models.Step{Text: strings.TrimRight(line, " \t\r\n")})
		}
	}
	return steps
}

func isStepLine(lang models.Language, line string) bool {
	trimmed := strings.TrimLeft(line, " \t")
	switch lang {
	case models.JavaScript:
		return strings.HasPrefix(trimmed, "await ") || strings.HasPrefix(trimmed, "page.")
	case models.Python:
		return strings.HasPrefix(trimmed, "page.")
	default:
		return false
	}
}

// splitLines splits on LF after normalising CRLF and lone CR.
func splitLines(s string) []string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return strings.Split(s, "\n")
}
