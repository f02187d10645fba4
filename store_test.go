package decalkit

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gekko3d/decalkit/content"
	"github.com/gekko3d/decalkit/garment"
)

func newTestStore(t *testing.T) (*Store, *content.Registry, *garment.Surface, *recordingScene) {
	t.Helper()
	reg := content.NewRegistry()
	scene := newRecordingScene()
	s, ok := garment.NewFlatPanel("flat", 100, 100, 0).Surface()
	require.True(t, ok)
	return NewStore(reg, scene, NewNopLogger()), reg, s, scene
}

func testPreview(c *content.Content, x float32) *Preview {
	return &Preview{
		Content:  c,
		Position: mgl32.Vec3{x, 1, 0},
		Base:     mgl32.QuatIdent(),
		Scale:    mgl32.Vec3{10, 10, 0.1},
		Visible:  true,
	}
}

func TestStoreCommitMissStillCommits(t *testing.T) {
	store, reg, surf, scene := newTestStore(t)
	c := reg.Register(&content.Image{Width: 1, Height: 1})

	// Far off the panel: nothing to bake but the decal still exists
	inst, err := store.Commit(testPreview(c, 500), surf)
	require.NoError(t, err)
	assert.Equal(t, 0, inst.Geometry.TriangleCount())
	assert.Equal(t, 1, store.Len())
	assert.Equal(t, 1, scene.added)
}

func TestStoreRejectsBadCommits(t *testing.T) {
	store, reg, surf, _ := newTestStore(t)
	c := reg.Register(&content.Image{Width: 1, Height: 1})

	_, err := store.Commit(nil, surf)
	assert.Error(t, err)
	_, err = store.Commit(testPreview(c, 0), nil)
	assert.ErrorIs(t, err, ErrNoSurface)

	p := testPreview(c, 0)
	p.Scale = mgl32.Vec3{0, 10, 0.1}
	_, err = store.Commit(p, surf)
	assert.Error(t, err)
	assert.Equal(t, 0, store.Len())
}

func TestStoreEditRemovesPrior(t *testing.T) {
	store, reg, surf, scene := newTestStore(t)
	c := reg.Register(&content.Image{Width: 1, Height: 1})
	first, err := store.Commit(testPreview(c, -20), surf)
	require.NoError(t, err)
	other := reg.Register(&content.Image{Width: 1, Height: 1})
	_, err = store.Commit(testPreview(other, 20), surf)
	require.NoError(t, err)

	p := testPreview(c, -10)
	p.EditOf = first.ID
	edited, err := store.Commit(p, surf)
	require.NoError(t, err)

	assert.Equal(t, 2, store.Len())
	assert.Equal(t, 1, edited.DrawOrder)
	_, ok := store.Get(first.ID)
	assert.False(t, ok)
	assert.Equal(t, 1, scene.removed)
	assert.Equal(t, 2, reg.Len())
}

func TestStoreLockAndUnknownIDs(t *testing.T) {
	store, reg, surf, _ := newTestStore(t)
	inst, err := store.Commit(testPreview(reg.Register(&content.Image{}), 0), surf)
	require.NoError(t, err)

	assert.True(t, store.SetLocked(inst.ID, true))
	got, _ := store.Get(inst.ID)
	assert.True(t, got.Locked)
	assert.Same(t, inst.Geometry, got.Geometry, "locking does not rebake")

	assert.False(t, store.SetLocked("nope", true))
	_, ok := store.ToggleLock("nope")
	assert.False(t, ok)
	assert.False(t, store.Remove("nope"))
	assert.False(t, store.Promote("nope"))
	assert.False(t, store.RemoveByContent("nope"))

	assert.Equal(t, 1, store.RemoveAll())
	assert.Equal(t, 0, reg.Len())
	assert.Equal(t, 0, store.RemoveAll())
}
