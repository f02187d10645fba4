// Package bake builds decal geometry conformed to a surface. A projector box
// is placed on the surface; every surface triangle facing the projector is
// clipped against the box and kept with UVs taken from its position inside
// the box.
package bake

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

var (
	ErrEmpty            = errors.New("bake: projector does not touch the surface")
	ErrInvalidProjector = errors.New("bake: projector size must be positive")
	errNilSurface       = errors.New("bake: nil surface")
)

const (
	facingEpsilon = 1e-4
	// a triangle clipped by six planes has at most nine corners
	maxClippedPolyLength = 9
)

// Surface is anything that can enumerate world space triangles with unit
// face normals.
type Surface interface {
	WorldTriangles(fn func(a, b, c, n mgl32.Vec3) bool)
}

// Projector is an oriented box. Its local +Z is the projection axis (the
// surface normal at placement), X and Y span the decal image.
type Projector struct {
	Position    mgl32.Vec3
	Orientation mgl32.Quat
	Size        mgl32.Vec3
}

func (p Projector) matrix() mgl32.Mat4 {
	return mgl32.Translate3D(p.Position.X(), p.Position.Y(), p.Position.Z()).Mul4(p.Orientation.Normalize().Mat4())
}

func (p Projector) Axis() mgl32.Vec3 {
	return p.Orientation.Rotate(mgl32.Vec3{0, 0, 1})
}

type vertex struct {
	pos mgl32.Vec3 // projector space
}

// Bake clips surface against the projector. Geometry is returned even when
// ErrEmpty is reported, so callers can keep a zero triangle decal around.
func Bake(surface Surface, p Projector) (*Geometry, error) {
	if surface == nil {
		return nil, errNilSurface
	}
	if p.Size.X() <= 0 || p.Size.Y() <= 0 || p.Size.Z() <= 0 {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidProjector, p.Size)
	}

	toWorld := p.matrix()
	toLocal := toWorld.Inv()
	axis := p.Axis()
	half := p.Size.Mul(0.5)

	g := &Geometry{projector: p}
	poly := make([]vertex, 0, maxClippedPolyLength)
	scratch := make([]vertex, 0, maxClippedPolyLength)

	surface.WorldTriangles(func(a, b, c, n mgl32.Vec3) bool {
		if n.Dot(axis) < facingEpsilon {
			return true
		}
		poly = poly[:0]
		for _, w := range [3]mgl32.Vec3{a, b, c} {
			poly = append(poly, vertex{pos: toLocal.Mul4x1(w.Vec4(1.0)).Vec3()})
		}

		for axisIdx := 0; axisIdx < 3 && len(poly) > 0; axisIdx++ {
			poly, scratch = clipPlane(poly, scratch[:0], axisIdx, half[axisIdx], 1), poly
			poly, scratch = clipPlane(poly, scratch[:0], axisIdx, half[axisIdx], -1), poly
		}
		if len(poly) < 3 {
			return true
		}

		// Fan triangulation keeps the source winding
		for i := 1; i+1 < len(poly); i++ {
			for _, v := range [3]vertex{poly[0], poly[i], poly[i+1]} {
				g.emit(toWorld, v, n, p.Size)
			}
		}
		return true
	})

	g.finish()
	if g.TriangleCount() == 0 {
		return g, ErrEmpty
	}
	return g, nil
}

// clipPlane keeps the part of poly with sign*pos[axis] <= half.
func clipPlane(poly, out []vertex, axis int, half float32, sign float32) []vertex {
	dist := func(v vertex) float32 {
		return sign*v.pos[axis] - half
	}
	for i := range poly {
		cur := poly[i]
		next := poly[(i+1)%len(poly)]
		dc, dn := dist(cur), dist(next)
		curIn, nextIn := dc <= 0, dn <= 0

		if curIn {
			out = append(out, cur)
		}
		if curIn != nextIn {
			t := dc / (dc - dn)
			out = append(out, vertex{pos: cur.pos.Add(next.pos.Sub(cur.pos).Mul(t))})
		}
	}
	return out
}
