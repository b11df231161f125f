package locator

import "regexp"

var (
	testIDPatterns = []*regexp.Regexp{
		regexp.MustCompile(`page\.getByTestId\(\s*(?:'([^']+)'|"([^"]+)")`),
		regexp.MustCompile(`page\.get_by_test_id\(\s*(?:'([^']+)'|"([^"]+)")`),
	}
	selectorPattern = regexp.MustCompile(`page\.locator\(\s*(?:'([^']+)'|"([^"]+)")`)
)

// ExtractFromLine finds the locator used on one line of JavaScript or Python test source.
// Test ids win over raw selectors. ok is false when the line holds neither.
func ExtractFromLine(line string) (locator string, ok bool) {
	for _, re := range testIDPatterns {
		if v, found := quoted(re, line); found {
			return "data-testid=" + v, true
		}
	}
	return quoted(selectorPattern, line)
}

func quoted(re *regexp.Regexp, line string) (string, bool) {
	m := re.FindStringSubmatch(line)
	if m == nil {
		return "", false
	}
	if m[1] != "" {
		return m[1], true
	}
	return m[2], true
}
