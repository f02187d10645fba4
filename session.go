// Package decalkit places image and text decals on a garment surface. A
// Session owns all editor state: the garment, the committed decals, the
// content they show and the single preview used while placing or editing.
//
// A Session is driven from one goroutine. Pointer and keyboard events come
// in through its methods, the attached SceneGraph and CameraControls are
// told what changed, and subscribers receive a Snapshot after every
// transition.
package decalkit

import (
	"errors"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/decalkit/content"
	"github.com/gekko3d/decalkit/garment"
	"github.com/gekko3d/decalkit/geom"
)

// ErrDragInProgress is returned by edits that would replace an instance
// while another decal is being dragged.
var ErrDragInProgress = errors.New("decalkit: drag in progress")

// State is the interaction state reported by Session.State.
type State uint8

const (
	StateIdle State = iota
	StateArmed
	StateDragging
	StateLockedView
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateArmed:
		return "armed"
	case StateDragging:
		return "dragging"
	case StateLockedView:
		return "locked_view"
	default:
		return "unknown"
	}
}

// MarshalText encodes the state by name, as used in snapshot JSON.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Key is an editing key the host forwards to KeyDown.
type Key uint8

const (
	KeyLeft Key = iota + 1
	KeyRight
	KeyUp
	KeyDown
	KeyDelete
	KeyEscape
)

// PointerEvent is a pointer position in client pixels. Only the primary
// pointer moves a drag.
type PointerEvent struct {
	Pos     mgl32.Vec2
	Primary bool
}

// Option configures a Session in NewSession.
type Option func(*Session)

// WithConfig replaces the default configuration. Zero fields take their
// defaults.
func WithConfig(cfg Config) Option {
	return func(s *Session) {
		cfg.Resolve()
		s.cfg = cfg
	}
}

// WithLogger routes session logging; the default discards it.
func WithLogger(l Logger) Option {
	return func(s *Session) { s.log = l }
}

// WithScene attaches the scene graph that draws decals and the preview.
func WithScene(sg SceneGraph) Option {
	return func(s *Session) { s.scene = sg }
}

// WithCameraControls attaches the orbit controls suspended during placement.
func WithCameraControls(cc CameraControls) Option {
	return func(s *Session) { s.controls = cc }
}

// WithNotifier receives errors the user should see.
func WithNotifier(n Notifier) Option {
	return func(s *Session) { s.notifier = n }
}

// WithFonts shares a font table; NewSession creates one otherwise.
func WithFonts(f *content.Fonts) Option {
	return func(s *Session) { s.fonts = f }
}

// WithCamera shares the camera the host renders with.
func WithCamera(c *geom.Camera) Option {
	return func(s *Session) { s.camera = c }
}

// WithViewport sets the canvas rect used to turn pointer positions into rays.
func WithViewport(vp geom.Viewport) Option {
	return func(s *Session) { s.viewport = vp }
}

// Session is not safe for concurrent use.
type Session struct {
	cfg      Config
	log      Logger
	scene    SceneGraph
	controls CameraControls
	notifier Notifier
	fonts    *content.Fonts

	garment  *garment.Garment
	camera   *geom.Camera
	viewport geom.Viewport

	registry *content.Registry
	store    *Store
	preview  *PreviewController

	armed    *content.Content
	dragging bool
	active   InstanceID

	generation uint64
	results    chan acquisition
	pending    int

	subs    map[int]func(Snapshot)
	nextSub int
}

// NewSession starts an idle session on g. Collaborators default to nop
// implementations, the camera to geom.NewCamera and the viewport to 800x600.
func NewSession(g *garment.Garment, opts ...Option) (*Session, error) {
	if g == nil {
		return nil, errors.New("decalkit: nil garment")
	}
	s := &Session{
		cfg:      DefaultConfig(),
		log:      NewNopLogger(),
		scene:    NopScene{},
		controls: NopCameraControls{},
		notifier: NopNotifier{},
		viewport: geom.Viewport{Width: 800, Height: 600},
		registry: content.NewRegistry(),
		results:  make(chan acquisition, 32),
		subs:     make(map[int]func(Snapshot)),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.fonts == nil {
		s.fonts = content.NewFonts()
	}
	if s.camera == nil {
		s.camera = geom.NewCamera()
	}
	s.store = NewStore(s.registry, s.scene, s.log)
	s.preview = NewPreviewController(s.cfg, s.scene, s.controls)
	s.attach(g)
	return s, nil
}

func (s *Session) attach(g *garment.Garment) {
	if g.SurfaceMatch == "" {
		g.SurfaceMatch = s.cfg.SurfaceMatch
		g.Invalidate()
	}
	s.garment = g
	if _, ok := g.Surface(); !ok {
		s.log.Warnf("garment %s has no submesh matching %q", g.Name, g.SurfaceMatch)
	}
}

func (s *Session) Config() Config { return s.cfg }

// Garment is the current model.
func (s *Session) Garment() *garment.Garment { return s.garment }

func (s *Session) Camera() *geom.Camera { return s.camera }

func (s *Session) Viewport() geom.Viewport { return s.viewport }

// Registry exposes the content tables, for thumbnails and tests.
func (s *Session) Registry() *content.Registry { return s.registry }

func (s *Session) Store() *Store { return s.store }

func (s *Session) Fonts() *content.Fonts { return s.fonts }

// Preview is the decal being placed or edited, nil when nothing is dragged.
func (s *Session) Preview() *Preview { return s.preview.Active() }

// Armed is the content the next pointer down will place.
func (s *Session) Armed() *content.Content { return s.armed }

// ActiveInstance is the last selected or committed instance.
func (s *Session) ActiveInstance() InstanceID { return s.active }

// Generation counts garment switches. Acquisitions started in an earlier
// generation are dropped.
func (s *Session) Generation() uint64 { return s.generation }

// SetViewport updates the canvas rect, typically on window resize.
func (s *Session) SetViewport(vp geom.Viewport) { s.viewport = vp }

func (s *Session) picker() *Picker {
	return &Picker{Camera: s.camera, Viewport: s.viewport, DepthConstant: s.cfg.DepthConstant}
}

func (s *Session) surface() *garment.Surface {
	surf, _ := s.garment.Surface()
	return surf
}

// State reports Dragging while a preview follows the pointer, Armed while
// content waits for a pointer down, and LockedView while idle on a locked
// active instance.
func (s *Session) State() State {
	switch {
	case s.dragging:
		return StateDragging
	case s.armed != nil:
		return StateArmed
	}
	if inst := s.store.get(s.active); inst != nil && inst.Locked {
		return StateLockedView
	}
	return StateIdle
}

// QueryHit reports what lies under the pointer. Intersects is set only
// while dragging.
func (s *Session) QueryHit(screen mgl32.Vec2) SurfaceHit {
	return s.picker().QueryHit(screen, s.surface(), s.dragging)
}

// QueryPickableDecal returns a copy of the unlocked decal under the pointer.
func (s *Session) QueryPickableDecal(screen mgl32.Vec2) (Instance, bool) {
	inst := s.picker().QueryPickableDecal(screen, s.store.list)
	if inst == nil {
		return Instance{}, false
	}
	return *inst, true
}

// Arm makes c the content placed by the next pointer down on the surface.
// Camera rotation is suspended while content is armed. Content arriving
// during a drag is staged and armed once the drag ends. Content that already
// backs a decal is armed as a fresh entry sharing its payload.
func (s *Session) Arm(c *content.Content) {
	if c == nil {
		return
	}
	c = s.placeable(c)
	prev := s.armed
	s.registry.Pin(c.ID)
	s.armed = c
	if prev != nil && prev.ID != c.ID {
		s.release(prev.ID)
	}
	s.controls.SetRotationEnabled(false)
	s.emit()
}

// placeable returns c, or a new entry with the same payload when c is
// already linked or unknown. An entry backs at most one instance.
func (s *Session) placeable(c *content.Content) *content.Content {
	e, ok := s.registry.Lookup(c.ID)
	if ok && e.Instance == "" {
		return c
	}
	clone := s.registry.Register(c.Payload)
	s.log.Debugf("content %s is already placed, arming %s", c.ID, clone.ID)
	return clone
}

// release unpins id and sweeps, unless it is still armed or previewed.
func (s *Session) release(id content.ID) {
	if s.armed != nil && s.armed.ID == id {
		return
	}
	if p := s.preview.Active(); p != nil && p.Content.ID == id {
		return
	}
	s.registry.Release(id)
	s.registry.SweepOrphans()
}

// restoreCamera re-enables rotation after a drag, keeping it suspended
// while content is still armed.
func (s *Session) restoreCamera() {
	s.controls.SetHorizontalRotationEnabled(true)
	s.controls.SetRotationEnabled(s.armed == nil)
}

// PointerDown places armed content at the surface hit, or picks up the
// decal under the pointer. A miss with nothing armed is left to the camera.
func (s *Session) PointerDown(ev PointerEvent) {
	if s.dragging || !ev.Primary {
		return
	}

	if s.armed != nil {
		hit := s.picker().QueryHit(ev.Pos, s.surface(), true)
		if !hit.Valid {
			return
		}
		c := s.placeable(s.armed)
		s.armed = nil
		s.preview.Arm(c, hit.Point, hit)
		s.dragging = true
		s.emit()
		return
	}

	if inst := s.picker().QueryPickableDecal(ev.Pos, s.store.list); inst != nil {
		c, ok := s.registry.Get(inst.ContentID)
		if !ok {
			s.log.Warnf("instance %s shows unknown content %s", inst.ID, inst.ContentID)
			return
		}
		s.preview.PickUpExisting(inst, c)
		s.active = inst.ID
		s.dragging = true
		s.emit()
	}
	// Nothing to pick: the camera keeps the gesture
}

// PointerMove drags the preview along the surface.
func (s *Session) PointerMove(ev PointerEvent) {
	if !s.dragging || !ev.Primary {
		return
	}
	if s.preview.Track(s.picker().QueryHit(ev.Pos, s.surface(), true)) {
		s.emit()
	}
}

// PointerUp commits the preview. Content staged during the drag is armed
// afterwards.
func (s *Session) PointerUp(ev PointerEvent) {
	if !s.dragging || !ev.Primary {
		return
	}
	s.dragging = false
	s.commitPreview()
	s.emit()
}

func (s *Session) commitPreview() (*Instance, bool) {
	p := s.preview.Take()
	s.restoreCamera()
	if p == nil {
		return nil, false
	}

	inst, err := s.store.Commit(p, s.surface())
	if err != nil {
		s.log.Warnf("commit %s: %v", p.Content.ID, err)
		s.notifier.Notify(err)
		if p.EditOf != "" {
			if orig := s.store.get(p.EditOf); orig != nil {
				orig.hidden = false
				s.scene.SetDecalVisible(orig.ID, true)
			}
		}
		s.release(p.Content.ID)
		return nil, false
	}
	s.active = inst.ID
	return inst, true
}

// Cancel abandons the drag in progress, or armed content when nothing is
// dragged.
func (s *Session) Cancel() {
	switch {
	case s.dragging:
		s.cancelDrag()
	case s.armed != nil:
		s.disarm()
	default:
		return
	}
	s.emit()
}

func (s *Session) disarm() {
	c := s.armed
	s.armed = nil
	s.release(c.ID)
	s.restoreCamera()
}

func (s *Session) cancelDrag() {
	p := s.preview.Discard()
	s.dragging = false
	s.restoreCamera()
	if p != nil {
		s.release(p.Content.ID)
	}
}

// KeyDown maps arrows to rotate and rescale, Delete to removing the active
// instance and Escape to Cancel.
func (s *Session) KeyDown(k Key) {
	step := s.cfg.RotationStep()
	switch k {
	case KeyLeft:
		s.adjust(func(pc *PreviewController) bool { return pc.Rotate(step) })
	case KeyRight:
		s.adjust(func(pc *PreviewController) bool { return pc.Rotate(-step) })
	case KeyUp:
		s.adjust(func(pc *PreviewController) bool { return pc.Rescale(s.cfg.ScaleStep) })
	case KeyDown:
		s.adjust(func(pc *PreviewController) bool { return pc.Rescale(-s.cfg.ScaleStep) })
	case KeyDelete:
		if !s.dragging && s.active != "" {
			s.Remove(s.active)
		}
	case KeyEscape:
		s.Cancel()
	}
}

// adjust applies fn to the preview, or to the active unlocked instance by
// replacing it.
func (s *Session) adjust(fn func(*PreviewController) bool) {
	if s.preview.Active() != nil {
		if fn(s.preview) {
			s.emit()
		}
		return
	}
	inst := s.store.get(s.active)
	if inst == nil || inst.Locked {
		return
	}
	s.replace(inst, fn)
}

func (s *Session) replace(inst *Instance, fn func(*PreviewController) bool) bool {
	c, ok := s.registry.Get(inst.ContentID)
	if !ok {
		return false
	}
	s.preview.PickUpExisting(inst, c)
	if !fn(s.preview) {
		s.preview.Discard()
		return false
	}
	s.commitPreview()
	s.emit()
	return true
}

// Rotate turns the preview or the active instance by delta radians.
func (s *Session) Rotate(delta float32) {
	s.adjust(func(pc *PreviewController) bool { return pc.Rotate(delta) })
}

// Rescale grows the preview or active image instance by delta.
func (s *Session) Rescale(delta float32) {
	s.adjust(func(pc *PreviewController) bool { return pc.Rescale(delta) })
}

// Select makes id the active instance and draws it in front of the others,
// without picking it up.
func (s *Session) Select(id InstanceID) bool {
	if !s.store.Promote(id) {
		return false
	}
	s.active = id
	s.emit()
	return true
}

// Remove deletes a committed decal and sweeps its content.
func (s *Session) Remove(id InstanceID) bool {
	if !s.store.Remove(id) {
		return false
	}
	if s.active == id {
		s.active = ""
	}
	s.emit()
	return true
}

// RemoveByContent deletes the decal showing cid.
func (s *Session) RemoveByContent(cid content.ID) bool {
	e, ok := s.registry.Lookup(cid)
	if !ok || e.Instance == "" {
		return false
	}
	return s.Remove(InstanceID(e.Instance))
}

// SetLocked makes id unpickable, or pickable again. Its geometry is kept.
func (s *Session) SetLocked(id InstanceID, locked bool) bool {
	if !s.store.SetLocked(id, locked) {
		return false
	}
	s.emit()
	return true
}

// ToggleLock flips the lock of id and returns the new value.
func (s *Session) ToggleLock(id InstanceID) (bool, bool) {
	locked, ok := s.store.ToggleLock(id)
	if ok {
		s.emit()
	}
	return locked, ok
}

// BringToFront draws id after every other decal until the next commit.
func (s *Session) BringToFront(id InstanceID) bool {
	if !s.store.Promote(id) {
		return false
	}
	s.emit()
	return true
}

// EditText re-renders text content and replaces the instance showing it,
// keeping its placement and lock. A preview showing the content is resized
// instead, and unplaced content is just re-rendered. While another decal is
// dragged it fails with ErrDragInProgress.
func (s *Session) EditText(cid content.ID, text string, style content.TextStyle) error {
	previewed := false
	if p := s.preview.Active(); p != nil {
		previewed = p.Content.ID == cid
	}
	if s.dragging && !previewed {
		return ErrDragInProgress
	}
	before, _ := s.registry.Lookup(cid)
	c, err := s.registry.EditText(cid, s.fonts, text, style)
	if err != nil {
		return err
	}
	inst := s.store.get(InstanceID(before.Instance))
	switch {
	case previewed:
		s.preview.Resize()
	case inst != nil:
		s.preview.PickUpExisting(inst, c)
		s.preview.Resize()
		s.commitPreview()
	case !before.Pinned:
		// Keep unplaced content sweepable; armed content is pinned already
		s.registry.Release(cid)
	}
	s.emit()
	return nil
}

// SetGarment switches the model. Every decal and all content is dropped and
// in-flight acquisitions become stale.
func (s *Session) SetGarment(g *garment.Garment) error {
	if g == nil {
		return errors.New("decalkit: nil garment")
	}
	if s.preview.Active() != nil {
		s.preview.Discard()
	}
	s.dragging = false
	s.armed = nil
	s.active = ""
	s.store.RemoveAll()
	s.generation++
	s.controls.SetRotationEnabled(true)
	s.controls.SetHorizontalRotationEnabled(true)
	s.attach(g)
	s.log.Debugf("garment switched to %s (generation %d)", g.Name, s.generation)
	s.emit()
	return nil
}
