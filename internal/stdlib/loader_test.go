package stdlib

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mohammed-j-mahmoud/syster/internal/workspace"
)

func TestLoadSeedsLibraryFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "base.sysml"),
		[]byte("package ScalarValues { attribute def Real; }\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"),
		[]byte("not a model file"), 0o644))

	ws := workspace.New(nil)
	require.NoError(t, Load(ws, dir, nil))

	snap := ws.Snapshot()
	_, err := snap.LookupQualified("ScalarValues::Real")
	assert.NoError(t, err)
	assert.Len(t, ws.Files(), 1)
}

func TestLoadMissingDirIsNotFatal(t *testing.T) {
	ws := workspace.New(nil)
	assert.NoError(t, Load(ws, "/nonexistent/library", nil))
	assert.NoError(t, Load(ws, "", nil))
}
