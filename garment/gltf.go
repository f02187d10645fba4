package garment

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/gekko3d/decalkit/geom"
)

type LoadOptions struct {
	// Width normalizes the model so its bounds are this wide; 0 keeps the
	// authored scale.
	Width        float32
	SurfaceMatch string
}

// LoadGLTF reads a .gltf or .glb file and flattens every mesh primitive of the
// default scene into world space submeshes. Submeshes are named after their
// node, falling back to the mesh name.
func LoadGLTF(path string, opts LoadOptions) (*Garment, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("garment: open %s: %w", path, err)
	}
	return FromGLTF(path, doc, opts)
}

// FromGLTF builds a garment from an already decoded document.
func FromGLTF(name string, doc *gltf.Document, opts LoadOptions) (*Garment, error) {
	g, err := fromDocument(name, doc)
	if err != nil {
		return nil, err
	}
	g.SurfaceMatch = opts.SurfaceMatch
	if opts.Width > 0 {
		g.FitWidth(opts.Width)
	}
	if _, ok := g.Surface(); !ok {
		return nil, fmt.Errorf("garment: %s has no submesh matching %q", name, g.surfaceMatch())
	}
	return g, nil
}

func (g *Garment) surfaceMatch() string {
	if g.SurfaceMatch == "" {
		return DefaultSurfaceMatch
	}
	return g.SurfaceMatch
}

func fromDocument(name string, doc *gltf.Document) (*Garment, error) {
	g := New(name)

	var roots []uint32
	switch {
	case doc.Scene != nil && int(*doc.Scene) < len(doc.Scenes):
		roots = doc.Scenes[*doc.Scene].Nodes
	case len(doc.Scenes) > 0:
		roots = doc.Scenes[0].Nodes
	default:
		for i := range doc.Nodes {
			roots = append(roots, uint32(i))
		}
	}

	var walk func(idx uint32, parent mgl32.Mat4, depth int) error
	walk = func(idx uint32, parent mgl32.Mat4, depth int) error {
		if int(idx) >= len(doc.Nodes) || depth > 64 {
			return nil
		}
		node := doc.Nodes[idx]
		world := parent.Mul4(nodeMatrix(node))

		if node.Mesh != nil && int(*node.Mesh) < len(doc.Meshes) {
			meshes, err := readMesh(doc, doc.Meshes[*node.Mesh], node.Name, world)
			if err != nil {
				return err
			}
			g.Submeshes = append(g.Submeshes, meshes...)
		}
		for _, child := range node.Children {
			if err := walk(child, world, depth+1); err != nil {
				return err
			}
		}
		return nil
	}

	for _, r := range roots {
		if err := walk(r, mgl32.Ident4(), 0); err != nil {
			return nil, err
		}
	}
	return g, nil
}

func nodeMatrix(n *gltf.Node) mgl32.Mat4 {
	var m mgl32.Mat4
	nonZero := false
	for i, v := range n.Matrix {
		m[i] = float32(v)
		if v != 0 {
			nonZero = true
		}
	}
	if nonZero && m != mgl32.Ident4() {
		return m
	}

	t := mgl32.Translate3D(float32(n.Translation[0]), float32(n.Translation[1]), float32(n.Translation[2]))
	r := mgl32.Quat{W: float32(n.Rotation[3]), V: mgl32.Vec3{float32(n.Rotation[0]), float32(n.Rotation[1]), float32(n.Rotation[2])}}
	if r.Len() < 1e-6 {
		r = mgl32.QuatIdent()
	}
	sx, sy, sz := float32(n.Scale[0]), float32(n.Scale[1]), float32(n.Scale[2])
	if sx == 0 && sy == 0 && sz == 0 {
		sx, sy, sz = 1, 1, 1
	}
	return t.Mul4(r.Normalize().Mat4()).Mul4(mgl32.Scale3D(sx, sy, sz))
}

func readMesh(doc *gltf.Document, mesh *gltf.Mesh, nodeName string, world mgl32.Mat4) ([]*geom.Mesh, error) {
	name := nodeName
	if name == "" {
		name = mesh.Name
	}
	normalMat := world.Mat3().Inv().Transpose()

	var out []*geom.Mesh
	for pi, prim := range mesh.Primitives {
		posIdx, ok := prim.Attributes[gltf.POSITION]
		if !ok || int(posIdx) >= len(doc.Accessors) {
			continue
		}
		positions, err := modeler.ReadPosition(doc, doc.Accessors[posIdx], nil)
		if err != nil {
			return nil, fmt.Errorf("garment: read positions of %s: %w", name, err)
		}

		m := &geom.Mesh{Name: name}
		if len(mesh.Primitives) > 1 {
			m.Name = fmt.Sprintf("%s_%d", name, pi)
		}
		for _, p := range positions {
			v := mgl32.Vec3{p[0], p[1], p[2]}
			m.Positions = append(m.Positions, world.Mul4x1(v.Vec4(1.0)).Vec3())
		}

		if nIdx, ok := prim.Attributes[gltf.NORMAL]; ok && int(nIdx) < len(doc.Accessors) {
			normals, err := modeler.ReadNormal(doc, doc.Accessors[nIdx], nil)
			if err != nil {
				return nil, fmt.Errorf("garment: read normals of %s: %w", name, err)
			}
			for _, n := range normals {
				wn := normalMat.Mul3x1(mgl32.Vec3{n[0], n[1], n[2]})
				if wn.Len() > 1e-12 {
					wn = wn.Normalize()
				}
				m.Normals = append(m.Normals, wn)
			}
		}

		if prim.Indices != nil && int(*prim.Indices) < len(doc.Accessors) {
			indices, err := modeler.ReadIndices(doc, doc.Accessors[*prim.Indices], nil)
			if err != nil {
				return nil, fmt.Errorf("garment: read indices of %s: %w", name, err)
			}
			m.Indices = indices
		} else {
			for i := range m.Positions {
				m.Indices = append(m.Indices, uint32(i))
			}
		}
		m.Indices = m.Indices[:len(m.Indices)/3*3]
		out = append(out, m)
	}
	return out, nil
}
