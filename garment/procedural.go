package garment

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/decalkit/geom"
)

type ProceduralOptions struct {
	Radius   float32
	Height   float32
	Segments int     // around the torso
	Rings    int     // along the height
	PanelArc float32 // degrees of the front print zone, centered on +Z
}

func (o *ProceduralOptions) defaults() {
	if o.Radius <= 0 {
		o.Radius = 20
	}
	if o.Height <= 0 {
		o.Height = 50
	}
	if o.Segments < 8 {
		o.Segments = 48
	}
	if o.Rings < 1 {
		o.Rings = 12
	}
	if o.PanelArc <= 0 || o.PanelArc >= 360 {
		o.PanelArc = 120
	}
}

// NewProcedural builds a tube shaped torso centered on the origin with its
// axis on Y. The front arc becomes the "pZone_front" submesh and the rest is
// "body".
func NewProcedural(name string, opts ProceduralOptions) *Garment {
	opts.defaults()

	half := float64(mgl32.DegToRad(opts.PanelArc)) / 2
	panel := &geom.Mesh{Name: DefaultSurfaceMatch + "_front"}
	body := &geom.Mesh{Name: "body"}

	step := 2 * math.Pi / float64(opts.Segments)
	for s := 0; s < opts.Segments; s++ {
		// Angles are measured from +Z, so segment s is centered on theta0 + step/2
		theta0 := -math.Pi + float64(s)*step
		theta1 := theta0 + step
		mid := theta0 + step/2
		target := body
		if math.Abs(mid) <= half {
			target = panel
		}
		appendTubeStrip(target, opts, float32(theta0), float32(theta1))
	}

	return New(name, body, panel)
}

func appendTubeStrip(m *geom.Mesh, opts ProceduralOptions, theta0, theta1 float32) {
	r := opts.Radius
	dy := opts.Height / float32(opts.Rings)
	y0 := -opts.Height / 2

	point := func(theta, y float32) (mgl32.Vec3, mgl32.Vec3) {
		s, c := float32(math.Sin(float64(theta))), float32(math.Cos(float64(theta)))
		return mgl32.Vec3{r * s, y, r * c}, mgl32.Vec3{s, 0, c}
	}

	for ring := 0; ring < opts.Rings; ring++ {
		ya := y0 + float32(ring)*dy
		yb := ya + dy

		base := uint32(len(m.Positions))
		for _, v := range [4][2]float32{{theta0, ya}, {theta1, ya}, {theta1, yb}, {theta0, yb}} {
			p, n := point(v[0], v[1])
			m.Positions = append(m.Positions, p)
			m.Normals = append(m.Normals, n)
		}
		m.Indices = append(m.Indices, base, base+1, base+2, base, base+2, base+3)
	}
}

// NewFlatPanel builds a garment whose print zone is a single width x height
// quad in the XY plane at z, facing +Z. Handy for exact placement tests.
func NewFlatPanel(name string, width, height, z float32) *Garment {
	hw, hh := width/2, height/2
	panel := &geom.Mesh{
		Name: DefaultSurfaceMatch + "_flat",
		Positions: []mgl32.Vec3{
			{-hw, -hh, z}, {hw, -hh, z}, {hw, hh, z}, {-hw, hh, z},
		},
		Normals: []mgl32.Vec3{{0, 0, 1}, {0, 0, 1}, {0, 0, 1}, {0, 0, 1}},
		Indices: []uint32{0, 1, 2, 0, 2, 3},
	}
	return New(name, panel)
}
