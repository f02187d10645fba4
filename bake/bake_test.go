package bake

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gekko3d/decalkit/garment"
	"github.com/gekko3d/decalkit/geom"
)

func flatSurface(t *testing.T) *garment.Surface {
	t.Helper()
	s, ok := garment.NewFlatPanel("flat", 100, 100, 0).Surface()
	require.True(t, ok)
	return s
}

func area(g *Geometry) float32 {
	pos := g.Positions()
	var sum float32
	for i := 0; i+2 < len(pos); i += 3 {
		sum += pos[i+1].Sub(pos[i]).Cross(pos[i+2].Sub(pos[i])).Len() / 2
	}
	return sum
}

func TestBakeFlatPanel(t *testing.T) {
	g, err := Bake(flatSurface(t), Projector{
		Position:    mgl32.Vec3{3, -2, 0},
		Orientation: mgl32.QuatIdent(),
		Size:        mgl32.Vec3{10, 6, 10},
	})
	require.NoError(t, err)
	require.Greater(t, g.TriangleCount(), 0)

	assert.InDelta(t, 60, area(g), 1e-3)

	for _, p := range g.Positions() {
		assert.InDelta(t, 0, p.Z(), 1e-5)
		assert.GreaterOrEqual(t, p.X(), float32(-2-1e-4))
		assert.LessOrEqual(t, p.X(), float32(8+1e-4))
		assert.GreaterOrEqual(t, p.Y(), float32(-5-1e-4))
		assert.LessOrEqual(t, p.Y(), float32(1+1e-4))
	}
	for _, uv := range g.UVs() {
		assert.GreaterOrEqual(t, uv.X(), float32(-1e-5))
		assert.LessOrEqual(t, uv.X(), float32(1+1e-5))
		assert.GreaterOrEqual(t, uv.Y(), float32(-1e-5))
		assert.LessOrEqual(t, uv.Y(), float32(1+1e-5))
	}
	for _, n := range g.Normals() {
		assert.InDelta(t, 1, n.Z(), 1e-5)
	}
}

func TestBakeUVFollowsSpin(t *testing.T) {
	// A quarter turn about the projection axis maps world +Y onto local +X
	p := Projector{
		Orientation: geom.SpinAbout(mgl32.QuatIdent(), math.Pi/2),
		Size:        mgl32.Vec3{10, 10, 10},
	}
	g, err := Bake(flatSurface(t), p)
	require.NoError(t, err)

	pos, uvs := g.Positions(), g.UVs()
	for i := range pos {
		assert.InDelta(t, 0.5+pos[i].Y()/10, uvs[i].X(), 1e-4)
		assert.InDelta(t, 0.5-pos[i].X()/10, uvs[i].Y(), 1e-4)
	}
}

func TestBakeCurvedSurfaceStaysInsideBox(t *testing.T) {
	s, ok := garment.NewProcedural("tee", garment.ProceduralOptions{}).Surface()
	require.True(t, ok)

	p := Projector{
		Position:    mgl32.Vec3{0, 0, 20},
		Orientation: mgl32.QuatIdent(),
		Size:        mgl32.Vec3{12, 12, 10},
	}
	g, err := Bake(s, p)
	require.NoError(t, err)

	for _, v := range g.Positions() {
		local := v.Sub(p.Position)
		assert.LessOrEqual(t, math.Abs(float64(local.X())), 6+1e-3)
		assert.LessOrEqual(t, math.Abs(float64(local.Y())), 6+1e-3)
		assert.LessOrEqual(t, math.Abs(float64(local.Z())), 5+1e-3)
	}

	tHit, ok := g.Intersect(geom.Ray{Origin: mgl32.Vec3{0.5, 0.5, 60}, Dir: mgl32.Vec3{0, 0, -1}}, 1000)
	require.True(t, ok)
	assert.InDelta(t, 40, tHit, 0.1)

	_, ok = g.Intersect(geom.Ray{Origin: mgl32.Vec3{15, 0, 60}, Dir: mgl32.Vec3{0, 0, -1}}, 1000)
	assert.False(t, ok)
}

func TestBakeEmpty(t *testing.T) {
	s := flatSurface(t)

	g, err := Bake(s, Projector{
		Position:    mgl32.Vec3{0, 0, 50},
		Orientation: mgl32.QuatIdent(),
		Size:        mgl32.Vec3{10, 10, 10},
	})
	assert.ErrorIs(t, err, ErrEmpty)
	require.NotNil(t, g)
	assert.Equal(t, 0, g.TriangleCount())

	// Facing away from the panel culls every triangle
	_, err = Bake(s, Projector{
		Orientation: mgl32.QuatRotate(math.Pi, mgl32.Vec3{0, 1, 0}),
		Size:        mgl32.Vec3{10, 10, 10},
	})
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestBakeRejectsBadInput(t *testing.T) {
	_, err := Bake(flatSurface(t), Projector{Orientation: mgl32.QuatIdent(), Size: mgl32.Vec3{10, 0, 10}})
	assert.ErrorIs(t, err, ErrInvalidProjector)

	_, err = Bake(nil, Projector{Size: mgl32.Vec3{1, 1, 1}})
	assert.Error(t, err)
}

func TestGeometryAccessorsCopy(t *testing.T) {
	g, err := Bake(flatSurface(t), Projector{Orientation: mgl32.QuatIdent(), Size: mgl32.Vec3{4, 4, 4}})
	require.NoError(t, err)

	pos := g.Positions()
	pos[0] = mgl32.Vec3{999, 999, 999}
	assert.NotEqual(t, pos[0], g.Positions()[0])
	assert.Less(t, g.Bounds().Max.X(), float32(3))
}
