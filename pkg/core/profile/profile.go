// Package profile bundles everything that differs between the JavaScript and Python flavours
// of Playwright, so the rest of the recorder picks a language once and never branches on it.
package profile

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pwrecorder/pwrecorder/pkg/core/scripts"
	"github.com/pwrecorder/pwrecorder/pkg/models"
	"github.com/pwrecorder/pwrecorder/pkg/platform/detect"
	"github.com/pwrecorder/pwrecorder/pkg/service/mapper"
	"github.com/pwrecorder/pwrecorder/utils"
)

type Profile struct {
	Language models.Language
	// Root is the project directory every command runs in.
	Root       string
	TypeScript bool

	node   detect.NodeTools
	python string
}

// New returns the profile of lang for the project at root. lang must be resolved already;
// auto is rejected.
func New(lang models.Language, root string) (*Profile, error) {
	if lang != models.JavaScript && lang != models.Python {
		return nil, fmt.Errorf("no language profile for %q: %w", lang, models.ErrInvalidArgument)
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve project root: %w", err)
	}
	p := &Profile{
		Language: lang,
		Root:     abs,
		node:     detect.NodeTools{Root: abs},
	}
	switch lang {
	case models.JavaScript:
		p.TypeScript = detect.IsTypeScript(abs)
	case models.Python:
		p.python = detect.PythonExecutable(abs)
	}
	return p, nil
}

// playwright is the command prefix that runs the Playwright CLI.
func (p *Profile) playwright() []string {
	if p.Language == models.Python {
		return []string{p.python, "-m", "playwright"}
	}
	if bin := p.node.PlaywrightBin(); bin != "" {
		return []string{bin}
	}
	return []string{p.node.Npx(), "playwright"}
}

// CodegenCommand starts the code generator writing to scratch. url is opened when non-blank.
func (p *Profile) CodegenCommand(scratch, url string) []string {
	cmd := append(p.playwright(), "codegen")
	if p.Language == models.JavaScript {
		cmd = append(cmd, "--target=javascript")
	}
	cmd = append(cmd, "--output", scratch)
	if !utils.IsBlank(url) {
		cmd = append(cmd, url)
	}
	return cmd
}

func (p *Profile) BridgeCommand(script string) []string {
	if p.Language == models.Python {
		return []string{p.python, script}
	}
	return []string{p.node.Node(), script}
}

// BridgeEnv is the extra environment of the bridge process. The script lives outside the
// project, so Node is pointed at the project's node_modules to resolve playwright.
func (p *Profile) BridgeEnv() []string {
	if p.Language != models.JavaScript {
		return nil
	}
	modules := filepath.Join(p.Root, "node_modules")
	if existing := os.Getenv("NODE_PATH"); existing != "" {
		modules += string(os.PathListSeparator) + existing
	}
	return []string{"NODE_PATH=" + modules}
}

func (p *Profile) ShowTraceCommand(trace string) []string {
	return append(p.playwright(), "show-trace", trace)
}

// RuntimeCommand checks that the interpreter itself can be executed.
func (p *Profile) RuntimeCommand() []string {
	if p.Language == models.Python {
		return []string{p.python, "--version"}
	}
	return []string{p.node.Node(), "--version"}
}

// ImportProbes are commands that succeed when the Playwright package can be loaded.
func (p *Profile) ImportProbes() [][]string {
	if p.Language == models.Python {
		return [][]string{{p.python, "-c", "import playwright"}}
	}
	return [][]string{
		{p.node.Node(), "-e", "require('@playwright/test')"},
		{p.node.Node(), "-e", "require('playwright')"},
	}
}

// InstallCommands are the shell lines that install Playwright and its browsers, in order.
func (p *Profile) InstallCommands() []string {
	if p.Language == models.Python {
		py := utils.QuoteArg(p.python)
		return []string{
			py + " -m pip install playwright",
			py + " -m playwright install",
		}
	}
	return []string{
		utils.QuoteArg(p.node.Npm()) + " install -D @playwright/test",
		utils.QuoteArg(p.node.Npx()) + " playwright install",
	}
}

func (p *Profile) Node() detect.NodeTools {
	return p.node
}

// WriteBridgeScript renders this language's bridge program into dir.
func (p *Profile) WriteBridgeScript(dir string) (string, error) {
	return scripts.Write(dir, p.Language)
}

func (p *Profile) Extract(raw string) []models.Step {
	return mapper.Extract(p.Language, raw)
}

func (p *Profile) Merge(content string, steps []models.Step) (string, bool) {
	return mapper.Merge(p.Language, content, steps)
}

func (p *Profile) Snippet(steps []models.Step, indent string) string {
	return mapper.Snippet(steps, indent)
}

func (p *Profile) DefaultFile(steps []models.Step) string {
	return mapper.DefaultFile(p.Language, steps)
}

func (p *Profile) NewFileContent(steps []models.Step) string {
	return mapper.NewFileContent(p.Language, steps)
}

func (p *Profile) ScratchExt() string {
	return mapper.ScratchExtension(p.Language)
}

func (p *Profile) FileExtension() string {
	return mapper.FileExtension(p.Language, p.TypeScript)
}
