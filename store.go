package decalkit

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/decalkit/bake"
	"github.com/gekko3d/decalkit/content"
	"github.com/gekko3d/decalkit/garment"
)

// ErrNoSurface is returned when the garment has no decal eligible submesh.
var ErrNoSurface = errors.New("decalkit: garment has no decal surface")

// Store is the ordered set of committed decals. Slice order is commit
// order; an instance's draw order is its index, except the promoted one
// which is drawn after everything else.
type Store struct {
	registry *content.Registry
	scene    SceneGraph
	log      Logger

	list     []*Instance
	promoted InstanceID
}

// NewStore returns an empty store linking commits into registry and scene.
func NewStore(registry *content.Registry, scene SceneGraph, log Logger) *Store {
	return &Store{registry: registry, scene: scene, log: log}
}

// Commit bakes p into a new instance. When p edits an instance, that one is
// removed first. A bake that misses the surface still yields an instance,
// one with no triangles.
func (s *Store) Commit(p *Preview, surface *garment.Surface) (*Instance, error) {
	if p == nil || p.Content == nil {
		return nil, errors.New("decalkit: commit without preview content")
	}
	if surface == nil {
		return nil, ErrNoSurface
	}

	w, h := p.Scale.X(), p.Scale.Y()
	geo, err := bake.Bake(surface, bake.Projector{
		Position:    p.Position,
		Orientation: p.Orientation(),
		Size:        mgl32.Vec3{w, h, w},
	})
	switch {
	case errors.Is(err, bake.ErrEmpty):
		s.log.Debugf("decal for %s does not touch %s", p.Content.ID, surface.Name())
	case err != nil:
		return nil, fmt.Errorf("decalkit: commit: %w", err)
	}

	if p.EditOf != "" {
		s.remove(p.EditOf)
	}

	inst := &Instance{
		ID:        newInstanceID(),
		ContentID: p.Content.ID,
		Kind:      p.Content.Kind(),
		Geometry:  geo,
		Position:  p.Position,
		Base:      p.Base,
		Spin:      p.Spin,
		Scale:     p.Scale,
		Locked:    p.Locked,
		DrawOrder: len(s.list),
	}
	s.list = append(s.list, inst)
	// The newest commit is already front most
	s.promoted = ""
	s.renumber()

	s.registry.Link(inst.ContentID, string(inst.ID))
	s.registry.SweepOrphans()
	s.scene.AddDecal(inst)

	s.log.Debugf("committed %s (%s, content %s, order %d, %d triangles)", inst.ID, inst.Kind, inst.ContentID, inst.DrawOrder, geo.TriangleCount())
	return inst, nil
}

// Remove deletes id and sweeps content nothing shows anymore. Unknown ids
// are ignored.
func (s *Store) Remove(id InstanceID) bool {
	if !s.remove(id) {
		return false
	}
	s.registry.SweepOrphans()
	return true
}

func (s *Store) remove(id InstanceID) bool {
	idx := s.index(id)
	if idx < 0 {
		return false
	}
	inst := s.list[idx]
	s.list = append(s.list[:idx], s.list[idx+1:]...)
	if s.promoted == id {
		s.promoted = ""
	}
	s.renumber()

	s.registry.Unlink(inst.ContentID, string(inst.ID))
	s.scene.RemoveDecal(id)
	s.log.Debugf("removed %s", id)
	return true
}

// RemoveByContent removes the instance showing cid, if any.
func (s *Store) RemoveByContent(cid content.ID) bool {
	e, ok := s.registry.Lookup(cid)
	if !ok || e.Instance == "" {
		return false
	}
	return s.Remove(InstanceID(e.Instance))
}

// RemoveAll empties the store and both content tables.
func (s *Store) RemoveAll() int {
	n := len(s.list)
	for _, inst := range s.list {
		s.scene.RemoveDecal(inst.ID)
	}
	s.list = nil
	s.promoted = ""
	s.registry.Clear()
	if n > 0 {
		s.log.Debugf("removed all %d decals", n)
	}
	return n
}

// Promote draws id in front of every other instance.
func (s *Store) Promote(id InstanceID) bool {
	if s.index(id) < 0 {
		return false
	}
	s.promoted = id
	s.renumber()
	return true
}

// SetLocked changes the lock flag in place; locking is not geometry.
func (s *Store) SetLocked(id InstanceID, locked bool) bool {
	inst := s.get(id)
	if inst == nil {
		return false
	}
	inst.Locked = locked
	return true
}

// ToggleLock flips the lock flag of id.
func (s *Store) ToggleLock(id InstanceID) (locked, ok bool) {
	inst := s.get(id)
	if inst == nil {
		return false, false
	}
	inst.Locked = !inst.Locked
	return inst.Locked, true
}

// Len is the number of committed instances.
func (s *Store) Len() int {
	return len(s.list)
}

// Get returns a copy of the instance.
func (s *Store) Get(id InstanceID) (Instance, bool) {
	inst := s.get(id)
	if inst == nil {
		return Instance{}, false
	}
	return *inst, true
}

// List returns copies of the instances ordered by draw order.
func (s *Store) List() []Instance {
	out := make([]Instance, 0, len(s.list))
	var front *Instance
	for _, inst := range s.list {
		if inst.ID == s.promoted {
			front = inst
			continue
		}
		out = append(out, *inst)
	}
	if front != nil {
		out = append(out, *front)
	}
	return out
}

func (s *Store) get(id InstanceID) *Instance {
	if idx := s.index(id); idx >= 0 {
		return s.list[idx]
	}
	return nil
}

func (s *Store) index(id InstanceID) int {
	for i, inst := range s.list {
		if inst.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) renumber() {
	for i, inst := range s.list {
		inst.DrawOrder = i
		if inst.ID == s.promoted {
			inst.DrawOrder = len(s.list)
		}
	}
}
