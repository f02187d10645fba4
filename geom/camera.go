package geom

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Camera is a perspective camera. Orbit controllers are external; they only
// move Position/Target.
type Camera struct {
	Position mgl32.Vec3
	Target   mgl32.Vec3
	Up       mgl32.Vec3
	FovY     float32 // degrees
	Near     float32
	Far      float32
}

func NewCamera() *Camera {
	return &Camera{
		Position: mgl32.Vec3{0, 0, 160},
		Target:   mgl32.Vec3{0, 0, 0},
		Up:       mgl32.Vec3{0, 1, 0},
		FovY:     35,
		Near:     1,
		Far:      10000,
	}
}

func (c *Camera) Forward() mgl32.Vec3 {
	return normalizeOr(c.Target.Sub(c.Position), mgl32.Vec3{0, 0, -1})
}

func (c *Camera) View() mgl32.Mat4 {
	return mgl32.LookAtV(c.Position, c.Target, c.Up)
}

func (c *Camera) Projection(aspect float32) mgl32.Mat4 {
	if aspect <= 0 {
		aspect = 1.0
	}
	return mgl32.Perspective(mgl32.DegToRad(c.FovY), aspect, c.Near, c.Far)
}

func (c *Camera) ViewProjection(aspect float32) mgl32.Mat4 {
	return c.Projection(aspect).Mul4(c.View())
}

// Ray builds a world space ray from the eye through ndc (x right, y up, both
// in [-1, 1]).
func (c *Camera) Ray(ndc mgl32.Vec2, aspect float32) Ray {
	inv := c.ViewProjection(aspect).Inv()

	far := inv.Mul4x1(mgl32.Vec4{ndc.X(), ndc.Y(), 1, 1})
	if far.W() != 0 {
		far = far.Mul(1.0 / far.W())
	}
	dir := normalizeOr(far.Vec3().Sub(c.Position), c.Forward())
	return Ray{Origin: c.Position, Dir: dir}
}

// Project maps a world point to client pixels inside vp. ok is false when the
// point is behind the camera or outside the viewport.
func (c *Camera) Project(p mgl32.Vec3, vp Viewport) (mgl32.Vec2, bool) {
	clip := c.ViewProjection(vp.Aspect()).Mul4x1(p.Vec4(1.0))
	if clip.W() < 1e-6 {
		return mgl32.Vec2{}, false
	}
	ndc := clip.Vec3().Mul(1.0 / clip.W())
	screen := vp.FromNDC(mgl32.Vec2{ndc.X(), ndc.Y()})
	return screen, vp.Contains(screen)
}

// Viewport is the canvas rect in client pixels.
type Viewport struct {
	X, Y          float32
	Width, Height float32
}

func (vp Viewport) Aspect() float32 {
	if vp.Height <= 0 {
		return 1
	}
	return vp.Width / vp.Height
}

func (vp Viewport) Contains(p mgl32.Vec2) bool {
	return p.X() >= vp.X && p.X() <= vp.X+vp.Width && p.Y() >= vp.Y && p.Y() <= vp.Y+vp.Height
}

// NDC normalizes a client point against the viewport rect. ok is false for a
// degenerate rect or a point outside it.
func (vp Viewport) NDC(p mgl32.Vec2) (mgl32.Vec2, bool) {
	if vp.Width <= 0 || vp.Height <= 0 {
		return mgl32.Vec2{}, false
	}
	x := ((p.X()-vp.X)/vp.Width)*2 - 1
	y := -((p.Y()-vp.Y)/vp.Height)*2 + 1
	return mgl32.Vec2{x, y}, vp.Contains(p)
}

func (vp Viewport) FromNDC(ndc mgl32.Vec2) mgl32.Vec2 {
	return mgl32.Vec2{
		vp.X + (ndc.X()*0.5+0.5)*vp.Width,
		vp.Y + (1.0-(ndc.Y()*0.5+0.5))*vp.Height,
	}
}
