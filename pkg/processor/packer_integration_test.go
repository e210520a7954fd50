package processor

import (
	"path/filepath"
	"testing"

	"github.com/arthur-debert/texpack/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcess_DefaultEngineIsIdempotent(t *testing.T) {
	env := testutil.NewTestEnvironment(t, testutil.EnvMemoryOnly)
	env.WithFileTree(testutil.FileTree{
		"a.png": testutil.SolidPNG(t, 4, 4, testutil.Red),
		"ui": testutil.FileTree{
			"b.png": testutil.SolidPNG(t, 4, 4, testutil.Green),
		},
	})
	p, err := New(DefaultConfig(), WithFS(env.FS))
	require.NoError(t, err)

	_, err = p.Process(env.InputRoot, env.OutputRoot)
	require.NoError(t, err)
	first := env.ListOutput()
	firstAtlas := env.ReadFile(env.Output("pack.atlas"))

	assert.Equal(t, []string{"pack.atlas", "pack.png", "pack2.png"}, first)
	assert.Contains(t, firstAtlas, "\npack.png\n")
	assert.Contains(t, firstAtlas, "\npack2.png\n")
	assert.Contains(t, firstAtlas, "\nui/b\n")

	_, err = p.Process(env.InputRoot, env.OutputRoot)
	require.NoError(t, err)
	assert.Equal(t, first, env.ListOutput())
	assert.Equal(t, firstAtlas, env.ReadFile(env.Output("pack.atlas")))
}

func TestProcess_DefaultEngineOnDisk(t *testing.T) {
	env := testutil.NewTestEnvironment(t, testutil.EnvIsolated)
	env.WithFileTree(testutil.FileTree{
		"a.png":        testutil.SolidPNG(t, 4, 4, testutil.Red),
		"fx/pack.json": `{"useDirNameAsInnerFolderName": true}`,
		"fx/b.png":     testutil.SolidPNG(t, 4, 4, testutil.Blue),
	})
	p, err := New(DefaultConfig(), WithFS(env.FS))
	require.NoError(t, err)

	_, err = p.Process(env.InputRoot, env.OutputRoot)
	require.NoError(t, err)
	assert.Equal(t, []string{"fx.png", "pack.atlas", "pack.png"}, env.ListOutput())
}

func TestProcess_DirNamedPagesAreReplacedOnRerun(t *testing.T) {
	env := testutil.NewTestEnvironment(t, testutil.EnvMemoryOnly)
	env.WithFileTree(testutil.FileTree{
		"a.png":        testutil.SolidPNG(t, 4, 4, testutil.Red),
		"fx/pack.json": `{"useDirNameAsInnerFolderName": true}`,
		"fx/b.png":     testutil.SolidPNG(t, 4, 4, testutil.Blue),
	})
	p, err := New(DefaultConfig(), WithFS(env.FS))
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, err = p.Process(env.InputRoot, env.OutputRoot)
		require.NoError(t, err)
		assert.Equal(t, []string{"fx.png", "pack.atlas", "pack.png"}, env.ListOutput(), "run %d", i+1)
	}
	assert.Equal(t, 1, testutil.CountOccurrences(t, env.FS, env.Output("pack.atlas"), "\nfx.png\n"))
}

func TestProcess_MirroredRerunIsIdempotent(t *testing.T) {
	env := testutil.NewTestEnvironment(t, testutil.EnvMemoryOnly)
	env.WithFileTree(testutil.FileTree{
		"a.png":    testutil.SolidPNG(t, 4, 4, testutil.Red),
		"ui/b.png": testutil.SolidPNG(t, 4, 4, testutil.Green),
	})
	cfg := DefaultConfig()
	cfg.Walk.Flatten = false
	p, err := New(cfg, WithFS(env.FS))
	require.NoError(t, err)

	_, err = p.Process(env.InputRoot, env.OutputRoot)
	require.NoError(t, err)
	uiAtlas := env.ReadFile(env.Output("ui", "pack.atlas"))

	for i := 0; i < 2; i++ {
		_, err = p.Process(env.InputRoot, env.OutputRoot)
		require.NoError(t, err)
	}

	assert.Equal(t, []string{"pack.atlas", "pack.png"}, env.ListOutput())
	assert.Equal(t, []string{"pack.atlas", "pack.png"}, testutil.ListFiles(t, env.FS, env.Output("ui")))
	assert.Equal(t, uiAtlas, env.ReadFile(env.Output("ui", "pack.atlas")))
	assert.Contains(t, p.Removed(), env.Output("ui", "pack.png"))
}

func TestProcess_InPlaceRerunIgnoresOwnPages(t *testing.T) {
	env := testutil.NewTestEnvironment(t, testutil.EnvMemoryOnly)
	env.WithFileTree(testutil.FileTree{
		"a.png":        testutil.SolidPNG(t, 4, 4, testutil.Red),
		"fx/pack.json": `{"useDirNameAsInnerFolderName": true}`,
		"fx/b.png":     testutil.SolidPNG(t, 4, 4, testutil.Blue),
	})
	p, err := New(DefaultConfig(), WithFS(env.FS))
	require.NoError(t, err)

	_, err = p.Process(env.InputRoot, env.InputRoot)
	require.NoError(t, err)
	first := testutil.ListFiles(t, env.FS, env.InputRoot)
	firstAtlas := env.ReadFile(env.Input("pack.atlas"))
	assert.Equal(t, []string{"a.png", "fx.png", "pack.atlas", "pack.png"}, first)

	entries, err := p.Process(env.InputRoot, env.InputRoot)
	require.NoError(t, err)
	assert.Len(t, entries, 2, "generated pages are not inputs")
	assert.Equal(t, first, testutil.ListFiles(t, env.FS, env.InputRoot))
	assert.Equal(t, firstAtlas, env.ReadFile(env.Input("pack.atlas")))
	assert.NotContains(t, firstAtlas, "\nfx\n")

	assert.True(t, p.Generated(env.Input("fx.png")))
	assert.True(t, p.Generated(env.Input("pack.atlas")))
	assert.True(t, p.Generated(env.Input("pack2.png")))
	assert.False(t, p.Generated(env.Input("a.png")))
	assert.False(t, p.Generated(env.Input("fx", "b.png")))
}

func TestProcess_NestedOutputRootIsNotInput(t *testing.T) {
	env := testutil.NewTestEnvironment(t, testutil.EnvMemoryOnly)
	env.WithFileTree(testutil.FileTree{
		"a.png":    testutil.SolidPNG(t, 4, 4, testutil.Red),
		"ui/b.png": testutil.SolidPNG(t, 4, 4, testutil.Green),
	})
	cfg := DefaultConfig()
	cfg.Walk.Flatten = false
	p, err := New(cfg, WithFS(env.FS))
	require.NoError(t, err)
	out := env.Input("packed")

	for i := 0; i < 2; i++ {
		_, err = p.Process(env.InputRoot, out)
		require.NoError(t, err)
	}

	assert.Equal(t, []string{"pack.atlas", "pack.png"}, testutil.ListFiles(t, env.FS, out))
	assert.Equal(t, []string{"pack.atlas", "pack.png"}, testutil.ListFiles(t, env.FS, filepath.Join(out, "ui")))
	var dirs []string
	for _, packed := range p.Packed() {
		dirs = append(dirs, packed.Dir)
	}
	assert.Equal(t, []string{env.InputRoot, env.Input("ui")}, dirs)
}
