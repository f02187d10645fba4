package decalkit

import (
	"encoding/json"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/decalkit/content"
)

// Snapshot is a read-only view of a session, delivered to subscribers after
// every transition.
type Snapshot struct {
	State      State          `json:"state"`
	Generation uint64         `json:"generation"`
	Garment    string         `json:"garment"`
	Decals     []DecalSummary `json:"decals"`
	Active     InstanceID     `json:"active,omitempty"`
	Armed      content.ID     `json:"armed,omitempty"`
	Preview    *PreviewInfo   `json:"preview,omitempty"`
	Images     []ContentInfo  `json:"images"`
	Texts      []ContentInfo  `json:"texts"`
}

// DecalSummary describes one committed decal in draw order.
type DecalSummary struct {
	ID        InstanceID   `json:"id"`
	Kind      content.Kind `json:"kind"`
	ContentID content.ID   `json:"content_id"`
	DrawOrder int          `json:"draw_order"`
	Locked    bool         `json:"locked"`
	Hidden    bool         `json:"hidden,omitempty"`
	Position  mgl32.Vec3   `json:"position"`
	Spin      float32      `json:"spin"`
	Scale     mgl32.Vec3   `json:"scale"`
	PrintSize PrintSize    `json:"print_size"`
	Triangles int          `json:"triangles"`
}

// PreviewInfo describes the decal being dragged.
type PreviewInfo struct {
	ContentID content.ID   `json:"content_id"`
	Kind      content.Kind `json:"kind"`
	EditOf    InstanceID   `json:"edit_of,omitempty"`
	Position  mgl32.Vec3   `json:"position"`
	Spin      float32      `json:"spin"`
	Scale     mgl32.Vec3   `json:"scale"`
	PrintSize PrintSize    `json:"print_size"`
	Placed    bool         `json:"placed"`
}

// ContentInfo is one registry row. Label is a display key derived from the
// id, not an identifier.
type ContentInfo struct {
	ID       content.ID   `json:"id"`
	Kind     content.Kind `json:"kind"`
	Label    string       `json:"label"`
	Instance InstanceID   `json:"instance,omitempty"`
	Width    int          `json:"width"`
	Height   int          `json:"height"`
	Text     string       `json:"text,omitempty"`
}

// Snapshot captures the current session state.
func (s *Session) Snapshot() Snapshot {
	snap := Snapshot{
		State:      s.State(),
		Generation: s.generation,
		Garment:    s.garment.Name,
		Active:     s.active,
		Decals:     []DecalSummary{},
	}
	if s.armed != nil {
		snap.Armed = s.armed.ID
	}
	for _, inst := range s.store.List() {
		tris := 0
		if inst.Geometry != nil {
			tris = inst.Geometry.TriangleCount()
		}
		snap.Decals = append(snap.Decals, DecalSummary{
			ID:        inst.ID,
			Kind:      inst.Kind,
			ContentID: inst.ContentID,
			DrawOrder: inst.DrawOrder,
			Locked:    inst.Locked,
			Hidden:    inst.hidden,
			Position:  inst.Position,
			Spin:      inst.Spin,
			Scale:     inst.Scale,
			PrintSize: printSize(inst.Scale, s.cfg.PrintUnitsPerWorldUnit),
			Triangles: tris,
		})
	}
	if p := s.preview.Active(); p != nil {
		snap.Preview = &PreviewInfo{
			ContentID: p.Content.ID,
			Kind:      p.Content.Kind(),
			EditOf:    p.EditOf,
			Position:  p.Position,
			Spin:      p.Spin,
			Scale:     p.Scale,
			PrintSize: printSize(p.Scale, s.cfg.PrintUnitsPerWorldUnit),
			Placed:    p.Placed,
		}
	}
	snap.Images = contentInfos(s.registry.Images())
	snap.Texts = contentInfos(s.registry.Texts())
	return snap
}

func contentInfos(entries []content.Entry) []ContentInfo {
	out := make([]ContentInfo, 0, len(entries))
	for _, e := range entries {
		w, h := e.Content.Size()
		info := ContentInfo{
			ID:       e.Content.ID,
			Kind:     e.Content.Kind(),
			Label:    label(e.Content),
			Instance: InstanceID(e.Instance),
			Width:    w,
			Height:   h,
		}
		if t, ok := e.Content.Payload.(*content.Text); ok {
			info.Text = t.Text
		}
		out = append(out, info)
	}
	return out
}

func label(c *content.Content) string {
	id := string(c.ID)
	if len(id) > 8 {
		id = id[:8]
	}
	return fmt.Sprintf("%s-%s", c.Kind(), id)
}

// JSON encodes the snapshot indented.
func (snap Snapshot) JSON() ([]byte, error) {
	return json.MarshalIndent(snap, "", "  ")
}

// Subscribe calls fn with the current snapshot and again after every
// transition until the returned function is called.
func (s *Session) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	fn(s.Snapshot())
	return func() { delete(s.subs, id) }
}

func (s *Session) emit() {
	if len(s.subs) == 0 {
		return
	}
	snap := s.Snapshot()
	for _, fn := range s.subs {
		fn(snap)
	}
}
