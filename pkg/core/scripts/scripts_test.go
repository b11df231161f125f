package scripts

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pwrecorder/pwrecorder/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPicker_IsArrowFunction_001(t *testing.T) {
	p := Picker()

	assert.True(t, strings.HasPrefix(p, "() => {"))
	assert.True(t, strings.HasSuffix(p, "}"))
	assert.Contains(t, p, models.PickBinding)
	assert.Contains(t, p, Outline)
	assert.NotContains(t, p, `"""`)
}

func TestRender_SubstitutesProtocolConstants_002(t *testing.T) {
	tests := []struct {
		name     string
		lang     models.Language
		contains []string
	}{
		{
			name: "javascript",
			lang: models.JavaScript,
			contains: []string{
				"require('playwright')",
				"const PREFIX = 'PWRECORDER:';",
				"const BINDING = 'pw_recorder_pick';",
				"const enablePickerInPage = () => {",
				"page.evaluate(enablePickerInPage)",
			},
		},
		{
			name: "python",
			lang: models.Python,
			contains: []string{
				"from playwright.sync_api import sync_playwright",
				`PREFIX = "PWRECORDER:"`,
				`BINDING = "pw_recorder_pick"`,
				"ENABLE_PICKER = r\"\"\"\n() => {",
				"global context, page",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Render(tt.lang)

			require.NoError(t, err)
			for _, want := range tt.contains {
				assert.Contains(t, string(out), want)
			}
			assert.NotContains(t, string(out), "{{")
		})
	}
}

func TestRender_UnknownLanguage_ReturnsError_003(t *testing.T) {
	_, err := Render(models.LanguageAuto)

	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrInvalidArgument))
}

func TestWrite_CreatesScriptFile_004(t *testing.T) {
	// Arrange
	dir := filepath.Join(t.TempDir(), "nested")

	// Act
	path, err := Write(dir, models.Python)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "bridge.py"), path)
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), "def handle(p, line):")
}

func TestFileName_005(t *testing.T) {
	assert.Equal(t, "bridge.js", FileName(models.JavaScript))
	assert.Equal(t, "bridge.py", FileName(models.Python))
}
