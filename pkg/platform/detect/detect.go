// Package detect inspects a project directory to find out which Playwright flavours it uses
// and where their tools live.
package detect

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/pwrecorder/pwrecorder/pkg/models"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

// Targets is what a project supports and which language a session should use.
type Targets struct {
	HasJavaScript bool            `json:"hasJavaScript" yaml:"hasJavaScript"`
	HasPython     bool            `json:"hasPython" yaml:"hasPython"`
	Preferred     models.Language `json:"preferred" yaml:"preferred"`
}

var jsPackages = []string{"@playwright/test", "playwright"}

type Detector struct {
	logger *zap.Logger
}

func New(logger *zap.Logger) *Detector {
	return &Detector{logger: logger}
}

// Detect reports the Playwright flavours found under root. A preferred language other than
// auto wins; with auto the single detected language is chosen, JavaScript otherwise.
func (d *Detector) Detect(root string, preferred models.Language) Targets {
	t := Targets{
		HasJavaScript: d.HasPlaywrightJS(root),
		HasPython:     d.HasPlaywrightPython(root),
	}
	switch preferred {
	case models.JavaScript, models.Python:
		t.Preferred = preferred
	default:
		if t.HasPython && !t.HasJavaScript {
			t.Preferred = models.Python
		} else {
			t.Preferred = models.JavaScript
		}
	}
	d.logger.Debug("detected playwright targets",
		zap.String("root", root),
		zap.Bool("javascript", t.HasJavaScript),
		zap.Bool("python", t.HasPython),
		zap.String("preferred", t.Preferred.String()))
	return t
}

// HasPlaywrightJS is true when a Playwright package is installed under node_modules or declared
// in package.json.
func (d *Detector) HasPlaywrightJS(root string) bool {
	if HasInstalledJSPackage(root) {
		return true
	}
	b, err := os.ReadFile(filepath.Join(root, "package.json"))
	if err != nil {
		return false
	}
	if !gjson.ValidBytes(b) {
		d.logger.Debug("package.json is not valid JSON, falling back to a text search")
		return strings.Contains(string(b), `"@playwright/test"`) || strings.Contains(string(b), `"playwright"`)
	}
	doc := gjson.ParseBytes(b)
	for _, section := range []string{"dependencies", "devDependencies"} {
		found := false
		doc.Get(section).ForEach(func(key, _ gjson.Result) bool {
			for _, name := range jsPackages {
				if key.String() == name {
					found = true
					return false
				}
			}
			return true
		})
		if found {
			return true
		}
	}
	return false
}

// HasInstalledJSPackage is true when node_modules holds @playwright/test or playwright.
func HasInstalledJSPackage(root string) bool {
	for _, name := range jsPackages {
		if exists(filepath.Join(root, "node_modules", filepath.FromSlash(name))) {
			return true
		}
	}
	return false
}

// HasPlaywrightPython is true when requirements.txt or pyproject.toml mention playwright.
func (d *Detector) HasPlaywrightPython(root string) bool {
	if b, err := os.ReadFile(filepath.Join(root, "requirements.txt")); err == nil && strings.Contains(string(b), "playwright") {
		return true
	}
	b, err := os.ReadFile(filepath.Join(root, "pyproject.toml"))
	if err != nil {
		return false
	}
	found, err := pyprojectDeclaresPlaywright(b)
	if err != nil {
		d.logger.Debug("failed to parse pyproject.toml, falling back to a text search", zap.Error(err))
		return strings.Contains(string(b), "playwright")
	}
	return found
}

type pyproject struct {
	Project struct {
		Dependencies         []string            `toml:"dependencies"`
		OptionalDependencies map[string][]string `toml:"optional-dependencies"`
	} `toml:"project"`
	Tool struct {
		Poetry struct {
			Dependencies    map[string]any `toml:"dependencies"`
			DevDependencies map[string]any `toml:"dev-dependencies"`
			Group           map[string]struct {
				Dependencies map[string]any `toml:"dependencies"`
			} `toml:"group"`
		} `toml:"poetry"`
	} `toml:"tool"`
}

func pyprojectDeclaresPlaywright(b []byte) (bool, error) {
	var p pyproject
	if err := toml.Unmarshal(b, &p); err != nil {
		return false, err
	}
	for _, req := range p.Project.Dependencies {
		if requirementIsPlaywright(req) {
			return true, nil
		}
	}
	for _, reqs := range p.Project.OptionalDependencies {
		for _, req := range reqs {
			if requirementIsPlaywright(req) {
				return true, nil
			}
		}
	}
	tables := []map[string]any{p.Tool.Poetry.Dependencies, p.Tool.Poetry.DevDependencies}
	for _, g := range p.Tool.Poetry.Group {
		tables = append(tables, g.Dependencies)
	}
	for _, table := range tables {
		for name := range table {
			if strings.Contains(strings.ToLower(name), "playwright") {
				return true, nil
			}
		}
	}
	return false, nil
}

// requirementIsPlaywright matches PEP 508 strings such as "playwright>=1.40" or
// "pytest-playwright; python_version > '3.8'".
func requirementIsPlaywright(req string) bool {
	name := strings.ToLower(strings.TrimSpace(req))
	if i := strings.IndexAny(name, "<>=!~;[ "); i >= 0 {
		name = name[:i]
	}
	return strings.Contains(name, "playwright")
}

// IsTypeScript is true for projects with a tsconfig.json or a playwright.config.ts.
func IsTypeScript(root string) bool {
	return exists(filepath.Join(root, "tsconfig.json")) || exists(filepath.Join(root, "playwright.config.ts"))
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
