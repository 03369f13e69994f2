package fs

import (
	"archive/zip"
	"bytes"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkspaceWriteReadRemove(t *testing.T) {
	w := NewMemoryWorkspace()

	path, err := w.WriteFile("script.py", "import bpy")
	require.NoError(t, err)
	assert.Equal(t, w.Path("script.py"), path)
	assert.True(t, w.Exists("script.py"))

	content, err := w.ReadFile("script.py")
	require.NoError(t, err)
	assert.Equal(t, "import bpy", content)

	require.NoError(t, w.Remove("script.py"))
	assert.False(t, w.Exists("script.py"))
}

func TestWorkspaceCreatesNestedDirs(t *testing.T) {
	w := NewMemoryWorkspace()

	_, err := w.WriteFile("sessions/cube/plan.txt", "1. Add a cube")
	require.NoError(t, err)
	assert.True(t, w.Exists("sessions/cube/plan.txt"))
}

func TestWorkspaceRenderPath(t *testing.T) {
	w := NewMemoryWorkspace()
	now := time.Date(2026, 8, 28, 12, 30, 45, 0, time.UTC)
	assert.Equal(t, w.Path("render_20260828_123045.png"), w.RenderPath(now))
}

func TestWriteBundle(t *testing.T) {
	w := NewMemoryWorkspace()

	files := map[string]string{
		"script.py": "import bpy",
		"plan.txt":  "1. Add a cube",
		"spec.txt":  "Subject: a cube",
	}

	zipPath, err := w.WriteBundle("session.zip", files)
	require.NoError(t, err)

	data, err := afero.ReadFile(w.Fs, zipPath)
	require.NoError(t, err)

	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	require.Len(t, reader.File, 3)

	// entries are written in sorted order
	assert.Equal(t, "plan.txt", reader.File[0].Name)
	assert.Equal(t, "script.py", reader.File[1].Name)
	assert.Equal(t, "spec.txt", reader.File[2].Name)

	rc, err := reader.File[1].Open()
	require.NoError(t, err)
	defer rc.Close()
	var buf bytes.Buffer
	_, err = buf.ReadFrom(rc)
	require.NoError(t, err)
	assert.Equal(t, "import bpy", buf.String())
}
