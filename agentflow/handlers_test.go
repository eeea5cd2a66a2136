package agentflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoreRegistryCoversFileTools(t *testing.T) {
	r := CoreRegistry()
	for _, kind := range []ToolKind{
		ToolReadFile, ToolGrepSearch, ToolListDir, ToolDeleteFile,
		ToolInsertFile, ToolCreateDirectory, ToolDeleteDirectory,
	} {
		_, ok := r.Get(kind)
		assert.True(t, ok, "missing handler for %s", kind)
	}

	// Edit and finish are dispatched by the session, not the registry.
	_, ok := r.Get(ToolEditFile)
	assert.False(t, ok)
	_, ok = r.Get(ToolFinish)
	assert.False(t, ok)
}

func TestHandleInsertFile(t *testing.T) {
	ws := newTestWorkspace(t)
	act := &Action{Tool: ToolInsertFile, Params: map[string]any{
		"target_file": "pkg/new.go",
		"content":     "package pkg\n",
	}}

	require.NoError(t, handleInsertFile(ws, act))
	require.NotNil(t, act.Result)
	assert.True(t, act.Result.Success)

	content, err := ws.Read("pkg/new.go")
	require.NoError(t, err)
	assert.Equal(t, "package pkg\n", content)
}

func TestHandleInsertFileMissingContent(t *testing.T) {
	ws := newTestWorkspace(t)
	act := &Action{Tool: ToolInsertFile, Params: map[string]any{"target_file": "x.go"}}

	err := handleInsertFile(ws, act)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingParam)
	assert.Nil(t, act.Result)
}

func TestHandleGrepSearch(t *testing.T) {
	ws := newTestWorkspace(t)
	writeFile(t, ws, "a.go", "func Target() {}")
	act := &Action{Tool: ToolGrepSearch, Params: map[string]any{"query": "Target"}}

	require.NoError(t, handleGrepSearch(ws, act))
	require.NotNil(t, act.Result)
	assert.True(t, act.Result.Success)
	require.Len(t, act.Result.Matches, 1)
	assert.Equal(t, "a.go", act.Result.Matches[0].File)
}

func TestHandleGrepSearchInvalidPatternIsObserved(t *testing.T) {
	ws := newTestWorkspace(t)
	act := &Action{Tool: ToolGrepSearch, Params: map[string]any{"query": "[unclosed"}}

	require.NoError(t, handleGrepSearch(ws, act))
	require.NotNil(t, act.Result)
	assert.False(t, act.Result.Success)
	assert.NotEmpty(t, act.Result.Message)
}

func TestHandleListDirDefaultsToRoot(t *testing.T) {
	ws := newTestWorkspace(t)
	writeFile(t, ws, "a.go", "")
	act := &Action{Tool: ToolListDir, Params: map[string]any{}}

	require.NoError(t, handleListDir(ws, act))
	require.NotNil(t, act.Result)
	assert.True(t, act.Result.Success)
	assert.Contains(t, act.Result.Tree, "a.go")
}

func TestHandleDeleteDirectory(t *testing.T) {
	ws := newTestWorkspace(t)
	writeFile(t, ws, "old/nested/file.txt", "x")
	act := &Action{Tool: ToolDeleteDirectory, Params: map[string]any{"target_dir": "old"}}

	require.NoError(t, handleDeleteDirectory(ws, act))
	require.NotNil(t, act.Result)
	assert.True(t, act.Result.Success)

	_, err := ws.Tree("old")
	assert.Error(t, err)
}

func TestDecodeParamsWeakTyping(t *testing.T) {
	var p grepSearchParams
	err := decodeParams(map[string]any{
		"query":          "x",
		"case_sensitive": "true",
	}, &p)
	require.NoError(t, err)
	assert.True(t, p.CaseSensitive)
}
