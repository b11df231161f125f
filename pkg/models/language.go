package models

import (
	"fmt"
	"strings"
)

// Language is the target language of a recording or bridge session.
type Language string

const (
	JavaScript Language = "javascript"
	Python     Language = "python"
)

// LanguageAuto lets project detection choose the language.
const LanguageAuto Language = "auto"

func (l Language) String() string {
	return string(l)
}

// ParseLanguage accepts the long names and the usual short forms.
func ParseLanguage(s string) (Language, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return LanguageAuto, nil
	case "javascript", "js", "typescript", "ts", "node":
		return JavaScript, nil
	case "python", "py":
		return Python, nil
	default:
		return "", fmt.Errorf("unsupported language %q, expected one of auto, javascript, python", s)
	}
}

// Availability is the outcome of probing a project for a usable Playwright install.
type Availability struct {
	Available bool   `json:"available" yaml:"available"`
	Message   string `json:"message" yaml:"message"`
}
