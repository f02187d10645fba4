package main

import (
	"encoding/json"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gekko3d/decalkit"
)

const testScript = `
viewport: {width: 800, height: 600}
decals:
  - image: logo.png
    at: [412, 290]
    rotate: 1
    scale: -3
  - text: "Hi"
    size: 24
    color: "#cc0000"
    at: [388, 340]
    lock: true
`

func TestRunWritesSnapshotAndThumbnails(t *testing.T) {
	dir := t.TempDir()
	f, err := os.Create(filepath.Join(dir, "logo.png"))
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, image.NewNRGBA(image.Rect(0, 0, 30, 15))))
	require.NoError(t, f.Close())

	scriptPath := filepath.Join(dir, "place.yaml")
	require.NoError(t, os.WriteFile(scriptPath, []byte(testScript), 0o644))

	out := filepath.Join(dir, "out")
	require.NoError(t, run(scriptPath, "", out, 32, 5*time.Second, decalkit.NewNopLogger()))

	raw, err := os.ReadFile(filepath.Join(out, "snapshot.json"))
	require.NoError(t, err)
	var snap decalkit.Snapshot
	require.NoError(t, json.Unmarshal(raw, &struct {
		Decals *[]decalkit.DecalSummary `json:"decals"`
	}{&snap.Decals}))

	require.Len(t, snap.Decals, 2)
	assert.InDelta(t, 7, snap.Decals[0].Scale.X(), 1e-4)
	assert.InDelta(t, 1.5707963, snap.Decals[0].Spin, 1e-5)
	assert.False(t, snap.Decals[0].Locked)
	assert.True(t, snap.Decals[1].Locked)

	thumbs, err := filepath.Glob(filepath.Join(out, "*.webp"))
	require.NoError(t, err)
	assert.Len(t, thumbs, 2)
}

func TestRunRejectsMiss(t *testing.T) {
	dir := t.TempDir()
	scriptPath := filepath.Join(dir, "miss.yaml")
	require.NoError(t, os.WriteFile(scriptPath, []byte("decals:\n  - text: x\n    at: [5, 5]\n"), 0o644))

	err := run(scriptPath, "", filepath.Join(dir, "out"), 0, 5*time.Second, decalkit.NewNopLogger())
	assert.ErrorContains(t, err, "misses the garment")
}
