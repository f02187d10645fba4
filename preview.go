package decalkit

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/decalkit/content"
	"github.com/gekko3d/decalkit/geom"
)

// Preview is the transient decal shown during placement or edit.
type Preview struct {
	Content *content.Content
	// EditOf is the instance being replaced, empty for new content.
	EditOf InstanceID

	Position mgl32.Vec3
	Base     mgl32.Quat
	Spin     float32
	Scale    mgl32.Vec3
	Locked   bool
	Visible  bool
	// Placed is set once the preview has followed the surface at least once.
	Placed bool
}

func (p *Preview) Orientation() mgl32.Quat {
	return geom.SpinAbout(p.Base, p.Spin)
}

// PreviewController owns the single Preview.
type PreviewController struct {
	cfg    Config
	scene  SceneGraph
	camera CameraControls

	active *Preview
	// original is the instance hidden by PickUpExisting.
	original *Instance
}

func NewPreviewController(cfg Config, scene SceneGraph, camera CameraControls) *PreviewController {
	return &PreviewController{cfg: cfg, scene: scene, camera: camera}
}

func (pc *PreviewController) Active() *Preview {
	return pc.active
}

// Arm starts placing c. The preview sits at hit when it is valid, else at
// initialPos facing +Z. Camera rotation is off until the preview is
// committed or discarded.
func (pc *PreviewController) Arm(c *content.Content, initialPos mgl32.Vec3, hit SurfaceHit) *Preview {
	pc.reset()

	p := &Preview{
		Content:  c,
		Position: initialPos,
		Base:     mgl32.QuatIdent(),
		Scale:    pc.defaultScale(c),
		Visible:  true,
	}
	if hit.Valid {
		p.Position = hit.Point
		p.Base = hit.Orientation
		p.Placed = true
	}
	pc.active = p
	pc.camera.SetRotationEnabled(false)
	pc.scene.ShowPreview(p)
	return p
}

// PickUpExisting turns a committed instance back into the preview and hides
// the original until the preview is committed or discarded.
func (pc *PreviewController) PickUpExisting(inst *Instance, c *content.Content) *Preview {
	pc.reset()

	p := &Preview{
		Content:  c,
		EditOf:   inst.ID,
		Position: inst.Position,
		Base:     inst.Base,
		Spin:     inst.Spin,
		Scale:    inst.Scale,
		Locked:   inst.Locked,
		Visible:  true,
		Placed:   true,
	}
	inst.hidden = true
	pc.scene.SetDecalVisible(inst.ID, false)
	pc.original = inst

	pc.active = p
	pc.camera.SetHorizontalRotationEnabled(false)
	pc.scene.ShowPreview(p)
	return p
}

// Track follows the surface while a drag is in progress. Spin is kept.
func (pc *PreviewController) Track(hit SurfaceHit) bool {
	p := pc.active
	if p == nil || !hit.Valid || !hit.Intersects {
		return false
	}
	p.Position = hit.Point
	p.Base = hit.Orientation
	p.Placed = true
	pc.scene.ShowPreview(p)
	return true
}

// Rotate adds delta to the in-plane spin.
func (pc *PreviewController) Rotate(delta float32) bool {
	p := pc.active
	if p == nil {
		return false
	}
	p.Spin = geom.WrapAngle(p.Spin + delta)
	pc.scene.ShowPreview(p)
	return true
}

// Rescale grows an image preview by delta in width, keeping its aspect.
// Text previews are sized by their rendering and ignore it.
func (pc *PreviewController) Rescale(delta float32) bool {
	p := pc.active
	if p == nil {
		return false
	}
	img, ok := p.Content.Payload.(*content.Image)
	if !ok {
		return false
	}
	w := max(p.Scale.X()+delta, pc.cfg.MinImageScale)
	p.Scale = mgl32.Vec3{w, w * img.Aspect(), pc.cfg.ThinDepth}
	pc.scene.ShowPreview(p)
	return true
}

// Discard drops the preview and shows the original again when editing.
func (pc *PreviewController) Discard() *Preview {
	p := pc.active
	if p == nil {
		return nil
	}
	if pc.original != nil {
		pc.original.hidden = false
		pc.scene.SetDecalVisible(pc.original.ID, true)
	}
	pc.clear()
	return p
}

// Take hands the preview over for commit. The original stays hidden since
// the commit replaces it.
func (pc *PreviewController) Take() *Preview {
	p := pc.active
	pc.clear()
	return p
}

func (pc *PreviewController) reset() {
	if pc.active != nil {
		pc.Discard()
	}
}

func (pc *PreviewController) clear() {
	pc.active = nil
	pc.original = nil
	pc.scene.HidePreview()
	pc.camera.SetRotationEnabled(true)
	pc.camera.SetHorizontalRotationEnabled(true)
}

// Resize recomputes the preview scale from its content, for text whose
// rendering changed.
func (pc *PreviewController) Resize() {
	if p := pc.active; p != nil {
		p.Scale = pc.defaultScale(p.Content)
		pc.scene.ShowPreview(p)
	}
}

func (pc *PreviewController) defaultScale(c *content.Content) mgl32.Vec3 {
	switch p := c.Payload.(type) {
	case *content.Image:
		return mgl32.Vec3{pc.cfg.BaseScale, pc.cfg.BaseScale * p.Aspect(), pc.cfg.ThinDepth}
	case *content.Text:
		w, h := c.Size()
		sw, sh := clampAspect(float32(w)*pc.cfg.FontScale, float32(h)*pc.cfg.FontScale, pc.cfg.TextMinScale, pc.cfg.TextMaxScale)
		return mgl32.Vec3{sw, sh, pc.cfg.ThinDepth}
	default:
		return mgl32.Vec3{pc.cfg.BaseScale, pc.cfg.BaseScale, pc.cfg.ThinDepth}
	}
}

// clampAspect scales (w, h) uniformly so both lie in [lo, hi] where that is
// possible. The upper bound wins when the aspect is too extreme for both.
func clampAspect(w, h, lo, hi float32) (float32, float32) {
	if w <= 0 || h <= 0 {
		return max(w, lo), max(h, lo)
	}
	if small := min(w, h); small < lo {
		f := lo / small
		w, h = w*f, h*f
	}
	if big := max(w, h); big > hi {
		f := hi / big
		w, h = w*f, h*f
	}
	return w, h
}
