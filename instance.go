package decalkit

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"

	"github.com/gekko3d/decalkit/bake"
	"github.com/gekko3d/decalkit/content"
	"github.com/gekko3d/decalkit/geom"
)

// InstanceID identifies a committed decal. It is never reused, an edit
// produces a new id.
type InstanceID string

func newInstanceID() InstanceID {
	return InstanceID(uuid.NewString())
}

// Instance is a committed decal. Its geometry is baked once at commit time;
// changing the transform means committing a replacement.
type Instance struct {
	ID        InstanceID
	ContentID content.ID
	Kind      content.Kind
	Geometry  *bake.Geometry

	Position mgl32.Vec3
	// Base is the surface aligned orientation, Spin the in-plane turn
	// applied on top of it.
	Base  mgl32.Quat
	Spin  float32
	Scale mgl32.Vec3

	Locked    bool
	DrawOrder int

	hidden bool
}

func (i *Instance) Orientation() mgl32.Quat {
	return geom.SpinAbout(i.Base, i.Spin)
}

func (i *Instance) Hidden() bool {
	return i.hidden
}

// PrintSize is the physical size of a decal, in centimetres.
type PrintSize struct {
	Width  int `json:"width_cm"`
	Height int `json:"height_cm"`
}

func (p PrintSize) String() string {
	return fmt.Sprintf("Print size : %d cm (L) x %d cm (H)", p.Width, p.Height)
}

func printSize(scale mgl32.Vec3, unitsPerWorld float32) PrintSize {
	return PrintSize{
		Width:  int(math.Round(float64(scale.X() * unitsPerWorld))),
		Height: int(math.Round(float64(scale.Y() * unitsPerWorld))),
	}
}
