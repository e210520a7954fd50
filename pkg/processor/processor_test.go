package processor

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/arthur-debert/texpack/pkg/errors"
	"github.com/arthur-debert/texpack/pkg/settings"
	"github.com/arthur-debert/texpack/pkg/testutil"
	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type packCall struct {
	Root         string
	OutputDir    string
	PackFileName string
	ImageName    string
	Images       []string
	Settings     settings.Settings
}

type recordingEngine struct {
	call  packCall
	calls *[]packCall
}

func (e *recordingEngine) AddImage(path string) {
	e.call.Images = append(e.call.Images, path)
}

func (e *recordingEngine) Pack(outputDir, packFileName, imageName string) error {
	e.call.OutputDir = outputDir
	e.call.PackFileName = packFileName
	e.call.ImageName = imageName
	*e.calls = append(*e.calls, e.call)
	return nil
}

func recorder(calls *[]packCall) EngineFactory {
	return func(root string, s settings.Settings) Engine {
		return &recordingEngine{call: packCall{Root: root, Settings: s}, calls: calls}
	}
}

func newTestProcessor(t *testing.T, env *testutil.TestEnvironment, cfg Config) (*Processor, *[]packCall) {
	t.Helper()
	calls := &[]packCall{}
	p, err := New(cfg, WithFS(env.FS), WithEngine(recorder(calls)))
	require.NoError(t, err)
	return p, calls
}

func callFor(t *testing.T, calls []packCall, dir string) packCall {
	t.Helper()
	for _, c := range calls {
		if len(c.Images) > 0 && filepath.Dir(c.Images[0]) == dir {
			return c
		}
	}
	t.Fatalf("no pack call for %s", dir)
	return packCall{}
}

func inheritanceTree(t *testing.T) testutil.FileTree {
	return testutil.FileTree{
		"a.png": testutil.SolidPNG(t, 2, 2, testutil.Red),
		"ui": testutil.FileTree{
			"pack.json": `{"paddingX": 0, "paddingY": 0}`,
			"b.png":     testutil.SolidPNG(t, 2, 2, testutil.Green),
			"icons": testutil.FileTree{
				"c.png": testutil.SolidPNG(t, 2, 2, testutil.Blue),
			},
		},
		"fx": testutil.FileTree{
			"d.png": testutil.SolidPNG(t, 2, 2, testutil.Blue),
		},
	}
}

func TestProcess_SettingsInheritance(t *testing.T) {
	env := testutil.NewTestEnvironment(t, testutil.EnvMemoryOnly)
	env.WithFileTree(inheritanceTree(t))
	p, calls := newTestProcessor(t, env, DefaultConfig())

	entries, err := p.Process(env.InputRoot, env.OutputRoot)
	require.NoError(t, err)
	assert.Len(t, entries, 4)
	require.Len(t, *calls, 4)

	root := callFor(t, *calls, env.InputRoot)
	ui := callFor(t, *calls, env.Input("ui"))
	icons := callFor(t, *calls, env.Input("ui", "icons"))
	fx := callFor(t, *calls, env.Input("fx"))

	assert.Equal(t, 2, root.Settings.PaddingX)
	assert.Equal(t, 0, ui.Settings.PaddingX)
	assert.Equal(t, 0, ui.Settings.PaddingY)
	assert.Equal(t, 0, icons.Settings.PaddingX, "descendants inherit the override")
	assert.Equal(t, 2, fx.Settings.PaddingX, "siblings are unaffected")

	// only the overridden fields differ from the parent
	expected := root.Settings
	expected.PaddingX, expected.PaddingY = 0, 0
	if diff := cmp.Diff(expected, ui.Settings); diff != "" {
		t.Errorf("ui settings mismatch (-want +got):\n%s", diff)
	}
}

func TestProcess_ParentsPackBeforeChildren(t *testing.T) {
	env := testutil.NewTestEnvironment(t, testutil.EnvMemoryOnly)
	env.WithFileTree(inheritanceTree(t))
	p, calls := newTestProcessor(t, env, DefaultConfig())

	_, err := p.Process(env.InputRoot, env.OutputRoot)
	require.NoError(t, err)

	seen := map[string]int{}
	for i, c := range *calls {
		seen[filepath.Dir(c.Images[0])] = i
	}
	assert.Less(t, seen[env.InputRoot], seen[env.Input("ui")])
	assert.Less(t, seen[env.Input("ui")], seen[env.Input("ui", "icons")])
}

func TestProcess_ImageNames(t *testing.T) {
	env := testutil.NewTestEnvironment(t, testutil.EnvMemoryOnly)
	env.WithFileTree(inheritanceTree(t))
	env.WithFileTree(testutil.FileTree{
		"fx/pack.json": `{"useDirNameAsInnerFolderName": true}`,
	})
	p, calls := newTestProcessor(t, env, DefaultConfig())

	_, err := p.Process(env.InputRoot, env.OutputRoot)
	require.NoError(t, err)

	assert.Equal(t, "pack", callFor(t, *calls, env.InputRoot).ImageName)
	assert.Equal(t, "pack", callFor(t, *calls, env.Input("ui")).ImageName)
	assert.Equal(t, "fx", callFor(t, *calls, env.Input("fx")).ImageName)
	for _, c := range *calls {
		assert.Equal(t, "pack.atlas", c.PackFileName)
		assert.Equal(t, env.OutputRoot, c.OutputDir, "output is flattened")
		assert.Equal(t, env.InputRoot, c.Root)
	}
}

func TestProcess_RootNeverUsesDirName(t *testing.T) {
	env := testutil.NewTestEnvironment(t, testutil.EnvMemoryOnly)
	env.WithFileTree(testutil.FileTree{
		"pack.json": `{"useDirNameAsInnerFolderName": true}`,
		"a.png":     testutil.SolidPNG(t, 2, 2, testutil.Red),
		"ui/b.png":  testutil.SolidPNG(t, 2, 2, testutil.Red),
	})
	cfg := DefaultConfig()
	cfg.PackFileName = "sprites"
	p, calls := newTestProcessor(t, env, cfg)
	assert.Equal(t, "sprites.atlas", p.PackFileName())

	_, err := p.Process(env.InputRoot, env.OutputRoot)
	require.NoError(t, err)

	assert.Equal(t, "sprites", callFor(t, *calls, env.InputRoot).ImageName)
	assert.Equal(t, "ui", callFor(t, *calls, env.Input("ui")).ImageName)
}

func TestProcess_MirroredOutput(t *testing.T) {
	env := testutil.NewTestEnvironment(t, testutil.EnvMemoryOnly)
	env.WithFileTree(inheritanceTree(t))
	cfg := DefaultConfig()
	cfg.Walk.Flatten = false
	p, calls := newTestProcessor(t, env, cfg)

	_, err := p.Process(env.InputRoot, env.OutputRoot)
	require.NoError(t, err)

	assert.Equal(t, env.OutputRoot, callFor(t, *calls, env.InputRoot).OutputDir)
	assert.Equal(t, env.Output("ui", "icons"), callFor(t, *calls, env.Input("ui", "icons")).OutputDir)
}

func TestProcess_CleansStaleOutput(t *testing.T) {
	env := testutil.NewTestEnvironment(t, testutil.EnvMemoryOnly)
	env.WithFileTree(inheritanceTree(t))
	env.WithOutputFiles(testutil.FileTree{
		"pack.atlas": "old",
		"pack.png":   "old",
		"pack1.png":  "old",
		"keep.png":   "keep",
	})
	p, _ := newTestProcessor(t, env, DefaultConfig())

	_, err := p.Process(env.InputRoot, env.OutputRoot)
	require.NoError(t, err)

	assert.Equal(t, []string{"keep.png"}, env.ListOutput())
	assert.Len(t, p.Removed(), 3)
}

func TestProcess_DryRun(t *testing.T) {
	env := testutil.NewTestEnvironment(t, testutil.EnvMemoryOnly)
	env.WithFileTree(inheritanceTree(t))
	env.WithOutputFiles(testutil.FileTree{"pack.png": "old"})
	cfg := DefaultConfig()
	cfg.DryRun = true
	p, calls := newTestProcessor(t, env, cfg)

	entries, err := p.Process(env.InputRoot, env.OutputRoot)
	require.NoError(t, err)

	assert.Len(t, entries, 4)
	assert.Empty(t, *calls, "dry runs never pack")
	assert.Len(t, p.Packed(), 4)
	assert.Equal(t, []string{"pack.png"}, env.ListOutput())
}

func TestProcess_IgnorePatterns(t *testing.T) {
	env := testutil.NewTestEnvironment(t, testutil.EnvMemoryOnly)
	env.WithFileTree(testutil.FileTree{
		"pack.json":      `{"ignore": ["*_draft.png"]}`,
		"a.png":          testutil.SolidPNG(t, 2, 2, testutil.Red),
		"a_draft.png":    testutil.SolidPNG(t, 2, 2, testutil.Red),
		"ui/b_draft.png": testutil.SolidPNG(t, 2, 2, testutil.Red),
		"ui/b.png":       testutil.SolidPNG(t, 2, 2, testutil.Red),
	})
	p, calls := newTestProcessor(t, env, DefaultConfig())

	_, err := p.Process(env.InputRoot, env.OutputRoot)
	require.NoError(t, err)

	assert.Equal(t, []string{env.Input("a.png")}, callFor(t, *calls, env.InputRoot).Images)
	assert.Equal(t, []string{env.Input("ui", "b.png")}, callFor(t, *calls, env.Input("ui")).Images, "ignore patterns are inherited")
}

func TestProcess_OverrideErrorsAbort(t *testing.T) {
	tests := []struct {
		name     string
		override string
		code     errors.ErrorCode
	}{
		{"malformed json", `{"paddingX": `, errors.ErrOverrideParse},
		{"unknown key", `{"colour": "red"}`, errors.ErrOverrideParse},
		{"invalid value", `{"paddingX": -1}`, errors.ErrConfigValid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := testutil.NewTestEnvironment(t, testutil.EnvMemoryOnly)
			env.WithFileTree(inheritanceTree(t))
			env.WithFileTree(testutil.FileTree{"ui/pack.json": tt.override})
			p, calls := newTestProcessor(t, env, DefaultConfig())

			_, err := p.Process(env.InputRoot, env.OutputRoot)
			require.Error(t, err)
			assert.True(t, errors.IsErrorCode(err, tt.code), "got %v", err)
			assert.Equal(t, env.Input("ui", "pack.json"), errors.GetErrorDetails(err)["path"])
			for _, c := range *calls {
				assert.NotEqual(t, env.Input("ui"), filepath.Dir(c.Images[0]), "failing directory is not packed")
			}
		})
	}
}

func TestProcess_TomlOverride(t *testing.T) {
	env := testutil.NewTestEnvironment(t, testutil.EnvMemoryOnly)
	env.WithFileTree(testutil.FileTree{
		"pack.toml": "paddingX = 4\nrotation = true\n",
		"a.png":     testutil.SolidPNG(t, 2, 2, testutil.Red),
	})
	cfg := DefaultConfig()
	cfg.OverrideName = "pack.toml"
	p, calls := newTestProcessor(t, env, cfg)

	_, err := p.Process(env.InputRoot, env.OutputRoot)
	require.NoError(t, err)

	s := callFor(t, *calls, env.InputRoot).Settings
	assert.Equal(t, 4, s.PaddingX)
	assert.True(t, s.Rotation)
}

func TestProcess_FileInput(t *testing.T) {
	env := testutil.NewTestEnvironment(t, testutil.EnvMemoryOnly)
	env.WithFileTree(inheritanceTree(t))
	p, calls := newTestProcessor(t, env, DefaultConfig())

	entries, err := p.Process(env.Input("ui", "b.png"), env.OutputRoot)
	require.NoError(t, err)

	require.Len(t, entries, 1)
	require.Len(t, *calls, 1)
	c := (*calls)[0]
	assert.Equal(t, env.Input("ui"), c.Root)
	assert.Equal(t, 0, c.Settings.PaddingX, "the parent directory is the root")
	assert.Equal(t, "pack", c.ImageName)
}

func TestProcess_MissingInput(t *testing.T) {
	env := testutil.NewTestEnvironment(t, testutil.EnvMemoryOnly)
	p, _ := newTestProcessor(t, env, DefaultConfig())

	_, err := p.Process(env.Input("nope"), env.OutputRoot)
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrNotFound))
}

func TestProcess_EmptyRootStillResolves(t *testing.T) {
	env := testutil.NewTestEnvironment(t, testutil.EnvMemoryOnly)
	p, calls := newTestProcessor(t, env, DefaultConfig())

	entries, err := p.Process(env.InputRoot, env.OutputRoot)
	require.NoError(t, err)
	assert.Empty(t, entries)
	require.Len(t, *calls, 1)
	assert.Empty(t, (*calls)[0].Images)
}

func TestProcessFiles_OrdersParentsFirst(t *testing.T) {
	env := testutil.NewTestEnvironment(t, testutil.EnvMemoryOnly)
	env.WithFileTree(testutil.FileTree{
		"pack.json": `{"paddingX": 5}`,
		"a.png":     testutil.SolidPNG(t, 2, 2, testutil.Red),
		"ui/b.png":  testutil.SolidPNG(t, 2, 2, testutil.Red),
	})
	p, calls := newTestProcessor(t, env, DefaultConfig())

	entries, err := p.ProcessFiles("", []string{env.Input("ui", "b.png"), env.Input("a.png")}, env.OutputRoot)
	require.NoError(t, err)

	assert.Len(t, entries, 2)
	require.Len(t, *calls, 2)
	assert.Equal(t, env.InputRoot, (*calls)[0].Root)
	assert.Equal(t, env.Input("a.png"), (*calls)[0].Images[0])
	assert.Equal(t, 5, callFor(t, *calls, env.Input("ui")).Settings.PaddingX)
	assert.Equal(t, "pack", callFor(t, *calls, env.Input("ui")).ImageName)
}

func TestProcessFiles_ResolvesUnlistedAncestors(t *testing.T) {
	env := testutil.NewTestEnvironment(t, testutil.EnvMemoryOnly)
	env.WithFileTree(testutil.FileTree{
		"pack.json":    `{"paddingX": 5}`,
		"ui/pack.json": `{"rotation": true}`,
		"ui/b.png":     testutil.SolidPNG(t, 2, 2, testutil.Red),
		"fx/c.png":     testutil.SolidPNG(t, 2, 2, testutil.Red),
	})
	p, calls := newTestProcessor(t, env, DefaultConfig())

	_, err := p.ProcessFiles("", []string{env.Input("ui", "b.png"), env.Input("fx", "c.png")}, env.OutputRoot)
	require.NoError(t, err)

	require.Len(t, *calls, 2, "the root is resolved but not packed")
	ui := callFor(t, *calls, env.Input("ui"))
	assert.Equal(t, env.InputRoot, ui.Root)
	assert.True(t, ui.Settings.Rotation)
	assert.Equal(t, 5, ui.Settings.PaddingX, "the root override flows down")
	assert.Equal(t, 5, callFor(t, *calls, env.Input("fx")).Settings.PaddingX)
}

func TestProcessFiles_ExplicitRootMatchesFullRun(t *testing.T) {
	env := testutil.NewTestEnvironment(t, testutil.EnvMemoryOnly)
	env.WithFileTree(testutil.FileTree{
		"pack.json":      `{"paddingX": 7}`,
		"a.png":          testutil.SolidPNG(t, 2, 2, testutil.Red),
		"ui/b.png":       testutil.SolidPNG(t, 2, 2, testutil.Red),
		"ui/icons/c.png": testutil.SolidPNG(t, 2, 2, testutil.Red),
	})
	cfg := DefaultConfig()
	cfg.Walk.Flatten = false

	full, fullCalls := newTestProcessor(t, env, cfg)
	_, err := full.Process(env.InputRoot, env.OutputRoot)
	require.NoError(t, err)
	want := callFor(t, *fullCalls, env.Input("ui", "icons"))

	only, onlyCalls := newTestProcessor(t, env, cfg)
	_, err = only.ProcessFiles(env.InputRoot, []string{env.Input("ui", "icons", "c.png")}, env.OutputRoot)
	require.NoError(t, err)
	require.Len(t, *onlyCalls, 1)

	if diff := cmp.Diff(want, (*onlyCalls)[0]); diff != "" {
		t.Errorf("listed file packed differently from a full run (-want +got):\n%s", diff)
	}
	assert.Equal(t, 7, want.Settings.PaddingX)
}

func TestProcessFiles_OutsideRoot(t *testing.T) {
	env := testutil.NewTestEnvironment(t, testutil.EnvMemoryOnly)
	env.WithFileTree(inheritanceTree(t))
	p, calls := newTestProcessor(t, env, DefaultConfig())

	_, err := p.ProcessFiles(env.Input("ui"), []string{env.Input("fx", "d.png")}, env.OutputRoot)
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidInput))
	assert.Empty(t, *calls)
}

func TestProcessFiles_Empty(t *testing.T) {
	env := testutil.NewTestEnvironment(t, testutil.EnvMemoryOnly)
	p, _ := newTestProcessor(t, env, DefaultConfig())

	_, err := p.ProcessFiles("", nil, env.OutputRoot)
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidInput))
}

func TestResolveSettings(t *testing.T) {
	env := testutil.NewTestEnvironment(t, testutil.EnvMemoryOnly)
	env.WithFileTree(inheritanceTree(t))
	p, _ := newTestProcessor(t, env, DefaultConfig())

	s, err := p.ResolveSettings(env.InputRoot, env.Input("ui", "icons"))
	require.NoError(t, err)
	assert.Equal(t, 0, s.PaddingX)

	s, err = p.ResolveSettings(env.InputRoot, env.InputRoot)
	require.NoError(t, err)
	assert.Equal(t, settings.Default(), s)

	_, err = p.ResolveSettings(env.Input("ui"), env.Input("fx"))
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidInput))
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Defaults.PaddingX = -1
	_, err := New(cfg)
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrConfigValid))

	cfg = DefaultConfig()
	cfg.Walk.Excludes = []string{"["}
	_, err = New(cfg)
	require.Error(t, err)
}

func TestCommonParent(t *testing.T) {
	assert.Equal(t, "/a", commonParent([]string{"/a/x.png"}))
	assert.Equal(t, "/a", commonParent([]string{"/a/b/x.png", "/a/c/y.png"}))
	assert.Equal(t, "/a", commonParent([]string{"/a/b/x.png", "/a/y.png"}))
	assert.Equal(t, "/", commonParent([]string{"/ab/x.png", "/ac/y.png"}))
	assert.Equal(t, "/a/b", commonParent([]string{"/a/b/c/x.png", "/a/b/y.png", "/a/b/c/d/z.png"}))
}

func TestProcess_ResolveLogsCarryRunID(t *testing.T) {
	env := testutil.NewTestEnvironment(t, testutil.EnvMemoryOnly)
	env.WithFileTree(inheritanceTree(t))
	p, _ := newTestProcessor(t, env, DefaultConfig())
	var buf bytes.Buffer
	p.logger = zerolog.New(&buf).Level(zerolog.TraceLevel)

	_, err := p.Process(env.InputRoot, env.OutputRoot)
	require.NoError(t, err)

	resolved := 0
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		if entry["message"] != "Resolving settings" {
			continue
		}
		resolved++
		assert.NotEmpty(t, entry["run"], "line %s", line)
	}
	assert.Equal(t, 4, resolved)
}

func TestResolve_KeepsCodeOfWrappedErrors(t *testing.T) {
	env := testutil.NewTestEnvironment(t, testutil.EnvMemoryOnly)
	env.WithFileTree(testutil.FileTree{"pack.json": `{"maxWidth": 4, "minWidth": 8}`})
	p, _ := newTestProcessor(t, env, DefaultConfig())

	_, err := p.ResolveSettings(env.InputRoot, env.InputRoot)
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrConfigValid), "got %v", err)
	assert.Equal(t, env.Input("pack.json"), errors.GetErrorDetails(err)["path"])
}
