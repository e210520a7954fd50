package config

import (
	"strings"
	"testing"

	"github.com/arthur-debert/texpack/pkg/errors"
	"github.com/arthur-debert/texpack/pkg/settings"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateConfigContent(t *testing.T) {
	content := GenerateConfigContent()

	assert.Contains(t, content, "[pack]\n")
	assert.Contains(t, content, "[settings]\n")
	assert.Contains(t, content, `# name = "pack.atlas"`)
	assert.Contains(t, content, "# paddingX = 2")
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") || strings.HasPrefix(trimmed, "[") {
			continue
		}
		t.Errorf("uncommented value line: %q", line)
	}
}

func TestCommentOutConfigValues(t *testing.T) {
	in := "# title\n\n[pack]\nname = \"x\"\n  # already\n"
	assert.Equal(t, "# title\n\n[pack]\n# name = \"x\"\n  # already\n", commentOutConfigValues(in))
}

func TestRender(t *testing.T) {
	s := settings.Default()
	s.Ignore = []string{"*.psd"}

	out, err := Render(s, FormatTOML)
	require.NoError(t, err)
	assert.Contains(t, string(out), "paddingX = 2")
	assert.Contains(t, string(out), "pot = true")

	out, err = Render(s, FormatYAML)
	require.NoError(t, err)
	assert.Contains(t, string(out), "paddingX: 2")
	assert.Contains(t, string(out), "*.psd")

	out, err = Render(s, FormatJSON)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"paddingX":2`)
	assert.Contains(t, string(out), `"useDirNameAsInnerFolderName":false`)
	assert.Contains(t, string(out), `"ignore":["*.psd"]`)

	_, err = Render(s, "ini")
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidInput))
}

func TestRender_Config(t *testing.T) {
	cfg, err := Load(Options{WorkDir: t.TempDir()})
	require.NoError(t, err)

	out, err := Render(cfg, FormatYAML)
	require.NoError(t, err)
	assert.Contains(t, string(out), "override_name: pack.json")
	assert.Contains(t, string(out), "debounce: 500ms")
}
