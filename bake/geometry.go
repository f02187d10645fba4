package bake

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/decalkit/geom"
)

// Geometry is baked decal geometry. It is immutable once Bake returns:
// accessors hand out copies and nothing in this package writes to it again.
type Geometry struct {
	projector Projector
	positions []mgl32.Vec3
	normals   []mgl32.Vec3
	uvs       []mgl32.Vec2

	mesh   *geom.Mesh
	bounds geom.AABB
}

func (g *Geometry) emit(toWorld mgl32.Mat4, v vertex, n mgl32.Vec3, size mgl32.Vec3) {
	g.positions = append(g.positions, toWorld.Mul4x1(v.pos.Vec4(1.0)).Vec3())
	g.normals = append(g.normals, n)
	g.uvs = append(g.uvs, mgl32.Vec2{v.pos.X()/size.X() + 0.5, v.pos.Y()/size.Y() + 0.5})
}

func (g *Geometry) finish() {
	g.mesh = &geom.Mesh{Name: "decal", Positions: g.positions}
	g.mesh.Indices = make([]uint32, len(g.positions))
	for i := range g.mesh.Indices {
		g.mesh.Indices[i] = uint32(i)
	}
	if len(g.positions) >= 3*16 {
		g.mesh.BuildBVH()
	}
	g.bounds = g.mesh.Bounds()
}

func (g *Geometry) Projector() Projector {
	return g.projector
}

func (g *Geometry) TriangleCount() int {
	return len(g.positions) / 3
}

func (g *Geometry) Positions() []mgl32.Vec3 {
	return append([]mgl32.Vec3(nil), g.positions...)
}

func (g *Geometry) Normals() []mgl32.Vec3 {
	return append([]mgl32.Vec3(nil), g.normals...)
}

func (g *Geometry) UVs() []mgl32.Vec2 {
	return append([]mgl32.Vec2(nil), g.uvs...)
}

func (g *Geometry) Bounds() geom.AABB {
	return g.bounds
}

// Intersect returns the world distance to the nearest decal triangle.
func (g *Geometry) Intersect(ray geom.Ray, tMax float32) (float32, bool) {
	if g.TriangleCount() == 0 {
		return 0, false
	}
	if _, _, ok := g.bounds.IntersectRay(ray); !ok {
		return 0, false
	}
	hit, ok := g.mesh.Intersect(ray, tMax)
	if !ok {
		return 0, false
	}
	return hit.T, true
}
