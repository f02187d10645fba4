package geom

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Hit describes the nearest ray/mesh intersection in the mesh's own space.
type Hit struct {
	T        float32
	Point    mgl32.Vec3
	Normal   mgl32.Vec3 // face normal, unit length
	Triangle int
	U, V     float32 // barycentrics of vertex 1 and 2
}

// Mesh is an indexed triangle list. Normals are optional per-vertex normals;
// picking always uses face normals.
type Mesh struct {
	Name      string
	Positions []mgl32.Vec3
	Normals   []mgl32.Vec3
	Indices   []uint32

	bvh *BVH
}

func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

func (m *Mesh) Triangle(i int) (mgl32.Vec3, mgl32.Vec3, mgl32.Vec3) {
	return m.Positions[m.Indices[i*3]], m.Positions[m.Indices[i*3+1]], m.Positions[m.Indices[i*3+2]]
}

func (m *Mesh) FaceNormal(i int) mgl32.Vec3 {
	a, b, c := m.Triangle(i)
	return normalizeOr(b.Sub(a).Cross(c.Sub(a)), mgl32.Vec3{0, 0, 1})
}

func (m *Mesh) Bounds() AABB {
	box := EmptyAABB()
	for _, p := range m.Positions {
		box = box.Extend(p)
	}
	return box
}

// BuildBVH (re)builds the acceleration structure. Call it again after
// mutating Positions or Indices.
func (m *Mesh) BuildBVH() {
	m.bvh = NewTriangleBVH(m)
}

// Intersect returns the nearest hit with t in (0, tMax].
func (m *Mesh) Intersect(ray Ray, tMax float32) (Hit, bool) {
	best := Hit{T: tMax}
	found := false

	test := func(tri int) float32 {
		a, b, c := m.Triangle(tri)
		t, u, v, ok := IntersectTriangle(ray, a, b, c)
		if ok && t <= best.T {
			best = Hit{T: t, Triangle: tri, U: u, V: v}
			found = true
		}
		return best.T
	}

	if m.bvh != nil {
		m.bvh.Traverse(ray, tMax, test)
	} else {
		for i := 0; i < m.TriangleCount(); i++ {
			test(i)
		}
	}

	if !found {
		return Hit{}, false
	}
	best.Point = ray.At(best.T)
	best.Normal = m.FaceNormal(best.Triangle)
	return best, true
}

// IntersectTriangle is a double sided Möller–Trumbore test.
func IntersectTriangle(ray Ray, a, b, c mgl32.Vec3) (t, u, v float32, ok bool) {
	const eps = 1e-7
	e1 := b.Sub(a)
	e2 := c.Sub(a)
	p := ray.Dir.Cross(e2)
	det := e1.Dot(p)
	if det > -eps && det < eps {
		return 0, 0, 0, false
	}
	inv := 1.0 / det
	s := ray.Origin.Sub(a)
	u = s.Dot(p) * inv
	if u < 0 || u > 1 {
		return 0, 0, 0, false
	}
	q := s.Cross(e1)
	v = ray.Dir.Dot(q) * inv
	if v < 0 || u+v > 1 {
		return 0, 0, 0, false
	}
	t = e2.Dot(q) * inv
	if t <= eps {
		return 0, 0, 0, false
	}
	return t, u, v, true
}
