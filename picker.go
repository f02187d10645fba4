package decalkit

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/decalkit/garment"
	"github.com/gekko3d/decalkit/geom"
)

const pickDistance = 1e6

// SurfaceHit describes where and how a decal would sit under the pointer.
type SurfaceHit struct {
	Point  mgl32.Vec3
	Normal mgl32.Vec3
	// Orientation looks from Point toward Point + Normal*DepthConstant, so
	// local +Z is the surface normal.
	Orientation mgl32.Quat
	Distance    float32
	Valid       bool
	// Intersects is only set while a drag gesture is active.
	Intersects bool
}

// Picker turns client space pointer positions into rays through the camera.
// It holds no interaction state.
type Picker struct {
	Camera        *geom.Camera
	Viewport      geom.Viewport
	DepthConstant float32
}

func (p *Picker) Ray(screen mgl32.Vec2) (geom.Ray, bool) {
	ndc, ok := p.Viewport.NDC(screen)
	if !ok || p.Camera == nil {
		return geom.Ray{}, false
	}
	return p.Camera.Ray(ndc, p.Viewport.Aspect()), true
}

// QueryHit intersects the pointer ray with the decal surface only.
func (p *Picker) QueryHit(screen mgl32.Vec2, surface *garment.Surface, dragging bool) SurfaceHit {
	if surface == nil {
		return SurfaceHit{}
	}
	ray, ok := p.Ray(screen)
	if !ok {
		return SurfaceHit{}
	}
	hit, ok := surface.Raycast(ray, pickDistance)
	if !ok {
		return SurfaceHit{}
	}

	depth := p.DepthConstant
	if depth <= 0 {
		depth = DefaultConfig().DepthConstant
	}
	target := hit.Point.Add(hit.Normal.Mul(depth))
	return SurfaceHit{
		Point:       hit.Point,
		Normal:      hit.Normal,
		Orientation: geom.LookAt(hit.Point, target, mgl32.Vec3{0, 1, 0}),
		Distance:    hit.T,
		Valid:       true,
		Intersects:  dragging,
	}
}

// QueryPickableDecal returns the unlocked, visible instance nearest along the
// pointer ray, or nil.
func (p *Picker) QueryPickableDecal(screen mgl32.Vec2, instances []*Instance) *Instance {
	ray, ok := p.Ray(screen)
	if !ok {
		return nil
	}
	var (
		best     *Instance
		bestDist = float32(math.MaxFloat32)
	)
	for _, inst := range instances {
		if inst.Locked || inst.hidden || inst.Geometry == nil {
			continue
		}
		t, ok := inst.Geometry.Intersect(ray, pickDistance)
		if !ok {
			continue
		}
		// Coplanar decals resolve to the one drawn on top
		switch {
		case best == nil, t < bestDist && !closeTo(t, bestDist):
		case closeTo(t, bestDist) && inst.DrawOrder > best.DrawOrder:
		default:
			continue
		}
		best, bestDist = inst, t
	}
	return best
}

func closeTo(a, b float32) bool {
	return math.Abs(float64(a-b)) < 1e-3
}
