package detect

import (
	"path/filepath"

	"github.com/pwrecorder/pwrecorder/utils"
)

var venvDirs = []string{".venv", "venv", "env"}

// PythonExecutable returns the interpreter of the first virtualenv found under root, or the
// interpreter on PATH.
func PythonExecutable(root string) string {
	if root != "" {
		for _, dir := range venvDirs {
			bin := filepath.Join(root, dir, "bin", "python")
			if utils.IsWindows() {
				bin = filepath.Join(root, dir, "Scripts", "python.exe")
			}
			if exists(bin) {
				if abs, err := filepath.Abs(bin); err == nil {
					return abs
				}
				return bin
			}
		}
	}
	if utils.IsWindows() {
		return "python"
	}
	return "python3"
}
