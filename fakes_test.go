package decalkit

import (
	"image"
	"image/color"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/require"

	"github.com/gekko3d/decalkit/content"
	"github.com/gekko3d/decalkit/garment"
	"github.com/gekko3d/decalkit/geom"
)

type recordingScene struct {
	decals  map[InstanceID]bool // id -> visible
	added   int
	removed int
	preview *Preview
}

func newRecordingScene() *recordingScene {
	return &recordingScene{decals: make(map[InstanceID]bool)}
}

func (r *recordingScene) AddDecal(inst *Instance) {
	r.decals[inst.ID] = true
	r.added++
}

func (r *recordingScene) RemoveDecal(id InstanceID) {
	delete(r.decals, id)
	r.removed++
}

func (r *recordingScene) SetDecalVisible(id InstanceID, visible bool) {
	if _, ok := r.decals[id]; ok {
		r.decals[id] = visible
	}
}

func (r *recordingScene) ShowPreview(p *Preview) { r.preview = p }
func (r *recordingScene) HidePreview()           { r.preview = nil }

type recordingCamera struct {
	rotation   bool
	horizontal bool
}

func (c *recordingCamera) SetRotationEnabled(enabled bool)           { c.rotation = enabled }
func (c *recordingCamera) SetHorizontalRotationEnabled(enabled bool) { c.horizontal = enabled }

type recordingNotifier struct {
	errs []error
}

func (n *recordingNotifier) Notify(err error) { n.errs = append(n.errs, err) }

type harness struct {
	*Session
	scene    *recordingScene
	camera   *recordingCamera
	notifier *recordingNotifier
}

// Screen points on the flat test panel, clear of its diagonal seam and far
// enough apart that default sized decals do not overlap.
var (
	spotA = mgl32.Vec2{420, 310}
	spotB = mgl32.Vec2{540, 310}
)

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		scene:    newRecordingScene(),
		camera:   &recordingCamera{rotation: true, horizontal: true},
		notifier: &recordingNotifier{},
	}
	s, err := NewSession(garment.NewFlatPanel("flat", 100, 100, 0),
		WithScene(h.scene),
		WithCameraControls(h.camera),
		WithNotifier(h.notifier),
		WithViewport(geom.Viewport{Width: 800, Height: 600}),
	)
	require.NoError(t, err)
	h.Session = s
	return h
}

func testBitmap(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	img.SetNRGBA(0, 0, color.NRGBA{R: 255, A: 255})
	return img
}

func (h *harness) registerImage(w, ht int) *content.Content {
	return h.Registry().Register(&content.Image{Width: w, Height: ht, Pixels: testBitmap(w, ht)})
}

func down(p mgl32.Vec2) PointerEvent { return PointerEvent{Pos: p, Primary: true} }

// place arms c and drops it at p with one click.
func (h *harness) place(t *testing.T, c *content.Content, p mgl32.Vec2) Instance {
	t.Helper()
	h.Arm(c)
	h.PointerDown(down(p))
	require.Equal(t, StateDragging, h.State())
	h.PointerUp(down(p))
	inst, ok := h.Store().Get(h.ActiveInstance())
	require.True(t, ok)
	return inst
}
