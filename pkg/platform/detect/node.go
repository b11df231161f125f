package detect

import (
	"path/filepath"

	"github.com/pwrecorder/pwrecorder/utils"
)

// NodeTools resolves the Node.js executables of a project, preferring the copies under
// node_modules/.bin.
type NodeTools struct {
	Root string
}

func (n NodeTools) Node() string {
	if utils.IsWindows() {
		return "node.exe"
	}
	return "node"
}

func (n NodeTools) Npm() string {
	return n.localOr("npm")
}

func (n NodeTools) Npx() string {
	return n.localOr("npx")
}

// PlaywrightBin is the project-local playwright CLI, or "" when it is not installed.
func (n NodeTools) PlaywrightBin() string {
	return n.local("playwright")
}

func (n NodeTools) localOr(name string) string {
	if p := n.local(name); p != "" {
		return p
	}
	return windowsName(name)
}

func (n NodeTools) local(name string) string {
	if n.Root == "" {
		return ""
	}
	p, err := filepath.Abs(filepath.Join(n.Root, "node_modules", ".bin", windowsName(name)))
	if err != nil || !exists(p) {
		return ""
	}
	return p
}

func windowsName(name string) string {
	if utils.IsWindows() {
		return name + ".cmd"
	}
	return name
}
