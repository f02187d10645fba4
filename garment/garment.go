// Package garment models the base mesh decals are placed on: a named set of
// submeshes under one model transform, exactly one of which is the decal
// eligible surface.
package garment

import (
	"strings"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/decalkit/geom"
)

// DefaultSurfaceMatch is the submesh naming convention for the printable zone.
const DefaultSurfaceMatch = "pZone"

type Garment struct {
	Name      string
	Transform geom.Transform
	Submeshes []*geom.Mesh

	// SurfaceMatch selects the decal eligible submesh by substring. Empty
	// means DefaultSurfaceMatch.
	SurfaceMatch string

	surface *Surface
}

func New(name string, submeshes ...*geom.Mesh) *Garment {
	return &Garment{
		Name:      name,
		Transform: geom.NewTransform(),
		Submeshes: submeshes,
	}
}

// Surface returns the canonical decal surface: the first submesh whose name
// matches the convention. The result is cached; call Invalidate after
// changing the transform or submeshes.
func (g *Garment) Surface() (*Surface, bool) {
	if g == nil {
		return nil, false
	}
	if g.surface != nil {
		return g.surface, true
	}
	match := g.SurfaceMatch
	if match == "" {
		match = DefaultSurfaceMatch
	}
	for _, m := range g.Submeshes {
		if strings.Contains(m.Name, match) {
			g.surface = newSurface(m, g.Transform)
			return g.surface, true
		}
	}
	return nil, false
}

func (g *Garment) Invalidate() {
	g.surface = nil
}

// Bounds is the world space box over every submesh.
func (g *Garment) Bounds() geom.AABB {
	box := geom.EmptyAABB()
	o2w := g.Transform.ObjectToWorld()
	for _, m := range g.Submeshes {
		box = box.Union(m.Bounds().Transform(o2w))
	}
	return box
}

// FitWidth uniformly scales the garment so its world bounds are width wide
// on X, and recenters it on the origin.
func (g *Garment) FitWidth(width float32) {
	g.Transform.Scale = mgl32.Vec3{1, 1, 1}
	g.Transform.Position = mgl32.Vec3{}
	size := g.Bounds().Size()
	if size.X() <= 0 || width <= 0 {
		return
	}
	s := width / size.X()
	g.Transform.Scale = mgl32.Vec3{s, s, s}
	center := g.Bounds().Center()
	g.Transform.Position = center.Mul(-1)
	g.Invalidate()
}

// Surface is a garment submesh bound to the garment transform. Ray queries
// run in object space; results are reported in world space.
type Surface struct {
	Mesh      *geom.Mesh
	Transform geom.Transform

	o2w mgl32.Mat4
	w2o mgl32.Mat4
}

func newSurface(m *geom.Mesh, tr geom.Transform) *Surface {
	if m.TriangleCount() > 0 {
		m.BuildBVH()
	}
	return &Surface{
		Mesh:      m,
		Transform: tr,
		o2w:       tr.ObjectToWorld(),
		w2o:       tr.WorldToObject(),
	}
}

// NewSurface binds a mesh to a transform directly, bypassing the naming
// convention.
func NewSurface(m *geom.Mesh, tr geom.Transform) *Surface {
	return newSurface(m, tr)
}

func (s *Surface) Name() string {
	return s.Mesh.Name
}

func (s *Surface) Bounds() geom.AABB {
	return s.Mesh.Bounds().Transform(s.o2w)
}

// Raycast intersects a world ray with the surface. The returned Hit carries a
// world space point, world distance and unit world normal.
func (s *Surface) Raycast(ray geom.Ray, tMax float32) (geom.Hit, bool) {
	local := ray.Transform(s.w2o)
	scaleFactor := local.Dir.Len()
	if scaleFactor < 1e-8 {
		return geom.Hit{}, false
	}
	local.Dir = local.Dir.Mul(1.0 / scaleFactor)

	hit, ok := s.Mesh.Intersect(local, tMax*scaleFactor)
	if !ok {
		return geom.Hit{}, false
	}

	worldPos := s.o2w.Mul4x1(hit.Point.Vec4(1.0)).Vec3()
	hit.T = worldPos.Sub(ray.Origin).Len()
	hit.Point = worldPos
	hit.Normal = s.Transform.TransformNormal(hit.Normal)
	return hit, true
}

// WorldTriangles calls fn for each triangle in world space along with its
// unit world face normal. Returning false stops the walk.
func (s *Surface) WorldTriangles(fn func(a, b, c, n mgl32.Vec3) bool) {
	m := s.Mesh
	for i := 0; i < m.TriangleCount(); i++ {
		a, b, c := m.Triangle(i)
		wa := s.o2w.Mul4x1(a.Vec4(1.0)).Vec3()
		wb := s.o2w.Mul4x1(b.Vec4(1.0)).Vec3()
		wc := s.o2w.Mul4x1(c.Vec4(1.0)).Vec3()
		n := wb.Sub(wa).Cross(wc.Sub(wa))
		if l := n.Len(); l > 1e-12 {
			n = n.Mul(1.0 / l)
		} else {
			continue
		}
		if !fn(wa, wb, wc, n) {
			return
		}
	}
}
