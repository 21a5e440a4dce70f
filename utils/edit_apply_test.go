package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adityaraj-09/insien-editor/backend"
)

func TestApplyEdit_CreateWritesNestedFile(t *testing.T) {
	root := t.TempDir()

	err := ApplyEdit(root, backend.Edit{
		FilePath:   "src/deep/new.go",
		NewContent: "package deep",
		Type:       backend.EditCreate,
	})
	require.NoError(t, err)

	content, err := os.ReadFile(filepath.Join(root, "src", "deep", "new.go"))
	require.NoError(t, err)
	assert.Equal(t, "package deep", string(content))
}

func TestApplyEdit_ModifyOverwrites(t *testing.T) {
	root := t.TempDir()
	target := filepath.Join(root, "a.go")
	require.NoError(t, os.WriteFile(target, []byte("old"), 0644))

	err := ApplyEdit(root, backend.Edit{FilePath: "a.go", NewContent: "new", Type: backend.EditModify})
	require.NoError(t, err)

	content, _ := os.ReadFile(target)
	assert.Equal(t, "new", string(content))
}

func TestApplyEdit_DeletePrunesEmptyDirs(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "pkg", "sub"), 0755))
	target := filepath.Join(root, "pkg", "sub", "only.go")
	require.NoError(t, os.WriteFile(target, []byte("x"), 0644))

	err := ApplyEdit(root, backend.Edit{FilePath: "pkg/sub/only.go", Type: backend.EditDelete})
	require.NoError(t, err)

	_, statErr := os.Stat(filepath.Join(root, "pkg"))
	assert.True(t, os.IsNotExist(statErr), "empty parents should be pruned")
	_, rootErr := os.Stat(root)
	assert.NoError(t, rootErr, "workspace root must survive")
}

func TestApplyEdit_DeleteMissingFileIsNoop(t *testing.T) {
	root := t.TempDir()
	assert.NoError(t, ApplyEdit(root, backend.Edit{FilePath: "ghost.go", Type: backend.EditDelete}))
}

func TestApplyEdit_RejectsEscapingPaths(t *testing.T) {
	root := t.TempDir()
	err := ApplyEdit(root, backend.Edit{FilePath: "../outside.go", NewContent: "x", Type: backend.EditCreate})
	assert.Error(t, err)
}

func TestApplyEdit_UnknownType(t *testing.T) {
	root := t.TempDir()
	err := ApplyEdit(root, backend.Edit{FilePath: "a.go", Type: "rename"})
	assert.Error(t, err)
}
