// Command decalpad is an interactive harness for a decal session. It opens a
// window, feeds pointer and key input to the session and logs every
// snapshot. Rendering is left to whatever consumes the snapshots.
//
// Keys: 1 arms the -image file, 2 arms the -text, arrows rotate and rescale,
// Delete removes, Escape cancels, L toggles the lock, S prints the snapshot
// JSON, F brings the active decal to front.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math"
	"mime"
	"os"
	"path/filepath"
	"runtime"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/decalkit"
	"github.com/gekko3d/decalkit/content"
	"github.com/gekko3d/decalkit/garment"
	"github.com/gekko3d/decalkit/geom"
)

func init() {
	// GLFW event handling must run on the main thread
	runtime.LockOSThread()
}

func main() {
	var (
		configPath = flag.String("config", "", "YAML config file")
		modelPath  = flag.String("model", "", "glTF/GLB garment (procedural torso when empty)")
		modelWidth = flag.Float64("width", 60, "normalize the model to this width")
		imagePath  = flag.String("image", "", "image file armed with key 1")
		text       = flag.String("text", "Hello", "text armed with key 2")
		fontPath   = flag.String("font", "", "TTF/OTF used for text")
		fontSize   = flag.Float64("size", content.DefaultFontSizePt, "font size in points")
		textColor  = flag.String("color", content.DefaultColorHex, "text color")
		debug      = flag.Bool("debug", false, "debug logging")
	)
	flag.Parse()

	logger := decalkit.NewDefaultLogger("decalpad", *debug)

	cfg := decalkit.DefaultConfig()
	if *configPath != "" {
		loaded, err := decalkit.LoadConfig(*configPath)
		if err != nil {
			log.Fatalf("%v", err)
		}
		cfg = loaded
	}

	g, err := loadGarment(*modelPath, float32(*modelWidth), cfg.SurfaceMatch)
	if err != nil {
		log.Fatalf("%v", err)
	}

	fonts := content.NewFonts()
	style := content.TextStyle{FontSizePt: *fontSize, ColorHex: *textColor}
	if *fontPath != "" {
		family := filepath.Base(*fontPath)
		if err := fonts.LoadFile(family, *fontPath); err != nil {
			log.Fatalf("%v", err)
		}
		style.FontFamily = family
	}

	if err := glfw.Init(); err != nil {
		log.Fatalf("failed to initialize glfw: %v", err)
	}
	defer glfw.Terminate()

	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	glfw.WindowHint(glfw.Resizable, glfw.True)
	win, err := glfw.CreateWindow(1024, 768, "decalpad", nil, nil)
	if err != nil {
		log.Fatalf("failed to create window: %v", err)
	}
	defer win.Destroy()

	camera := geom.NewCamera()
	orbit := newOrbit(camera)
	session, err := decalkit.NewSession(g,
		decalkit.WithConfig(cfg),
		decalkit.WithLogger(logger),
		decalkit.WithFonts(fonts),
		decalkit.WithCamera(camera),
		decalkit.WithCameraControls(orbit),
		decalkit.WithScene(&logScene{log: logger}),
		decalkit.WithNotifier(decalkit.NotifierFunc(func(err error) { logger.Errorf("%v", err) })),
	)
	if err != nil {
		log.Fatalf("%v", err)
	}
	session.Subscribe(func(s decalkit.Snapshot) {
		logger.Infof("state=%s decals=%d images=%d texts=%d", s.State, len(s.Decals), len(s.Images), len(s.Texts))
	})

	ctx := context.Background()
	keys := newKeyState(win)
	var (
		buttonDown bool
		lastX      float64
		lastY      float64
	)

	for !win.ShouldClose() {
		glfw.PollEvents()
		session.Dispatch()

		w, h := win.GetSize()
		session.SetViewport(geom.Viewport{Width: float32(w), Height: float32(h)})

		mx, my := win.GetCursorPos()
		pos := mgl32.Vec2{float32(mx), float32(my)}
		pressed := win.GetMouseButton(glfw.MouseButtonLeft) == glfw.Press
		switch {
		case pressed && !buttonDown:
			session.PointerDown(decalkit.PointerEvent{Pos: pos, Primary: true})
		case pressed && buttonDown:
			if session.State() == decalkit.StateDragging {
				session.PointerMove(decalkit.PointerEvent{Pos: pos, Primary: true})
			} else {
				orbit.Drag(float32(mx-lastX), float32(my-lastY))
			}
		case !pressed && buttonDown:
			session.PointerUp(decalkit.PointerEvent{Pos: pos, Primary: true})
		}
		buttonDown, lastX, lastY = pressed, mx, my

		for _, k := range keys.justPressed() {
			switch k {
			case glfw.KeyLeft:
				session.KeyDown(decalkit.KeyLeft)
			case glfw.KeyRight:
				session.KeyDown(decalkit.KeyRight)
			case glfw.KeyUp:
				session.KeyDown(decalkit.KeyUp)
			case glfw.KeyDown:
				session.KeyDown(decalkit.KeyDown)
			case glfw.KeyDelete, glfw.KeyBackspace:
				session.KeyDown(decalkit.KeyDelete)
			case glfw.KeyEscape:
				session.KeyDown(decalkit.KeyEscape)
			case glfw.Key1:
				if *imagePath == "" {
					logger.Warnf("no -image given")
					continue
				}
				url, err := fileDataURL(*imagePath)
				if err != nil {
					logger.Errorf("%v", err)
					continue
				}
				session.AcquireImage(ctx, url)
			case glfw.Key2:
				session.AcquireText(ctx, *text, style)
			case glfw.KeyL:
				if id := session.ActiveInstance(); id != "" {
					session.ToggleLock(id)
				}
			case glfw.KeyF:
				if id := session.ActiveInstance(); id != "" {
					session.BringToFront(id)
				}
			case glfw.KeyS:
				raw, err := session.Snapshot().JSON()
				if err != nil {
					logger.Errorf("%v", err)
					continue
				}
				fmt.Println(string(raw))
			}
		}
	}
}

func loadGarment(path string, width float32, match string) (*garment.Garment, error) {
	if path == "" {
		g := garment.NewProcedural("torso", garment.ProceduralOptions{})
		g.SurfaceMatch = match
		return g, nil
	}
	return garment.LoadGLTF(path, garment.LoadOptions{Width: width, SurfaceMatch: match})
}

func fileDataURL(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read image: %w", err)
	}
	return content.DataURLFromBytes(mime.TypeByExtension(filepath.Ext(path)), raw), nil
}

var watchedKeys = []glfw.Key{
	glfw.KeyLeft, glfw.KeyRight, glfw.KeyUp, glfw.KeyDown,
	glfw.KeyDelete, glfw.KeyBackspace, glfw.KeyEscape,
	glfw.Key1, glfw.Key2, glfw.KeyL, glfw.KeyF, glfw.KeyS,
}

type keyState struct {
	win     *glfw.Window
	pressed map[glfw.Key]bool
}

func newKeyState(win *glfw.Window) *keyState {
	return &keyState{win: win, pressed: make(map[glfw.Key]bool)}
}

func (k *keyState) justPressed() []glfw.Key {
	var out []glfw.Key
	for _, key := range watchedKeys {
		down := k.win.GetKey(key) == glfw.Press
		if down && !k.pressed[key] {
			out = append(out, key)
		}
		k.pressed[key] = down
	}
	return out
}

// orbit spins the camera around its target. It honors the session's
// requests to suspend rotation during placement.
type orbit struct {
	camera     *geom.Camera
	enabled    bool
	horizontal bool
	yaw, pitch float32
	distance   float32
}

func newOrbit(c *geom.Camera) *orbit {
	return &orbit{camera: c, enabled: true, horizontal: true, distance: c.Position.Sub(c.Target).Len()}
}

func (o *orbit) SetRotationEnabled(enabled bool)           { o.enabled = enabled }
func (o *orbit) SetHorizontalRotationEnabled(enabled bool) { o.horizontal = enabled }

func (o *orbit) Drag(dx, dy float32) {
	if !o.enabled {
		return
	}
	const speed = 0.01
	if o.horizontal {
		o.yaw -= dx * speed
	}
	o.pitch = mgl32.Clamp(o.pitch-dy*speed, -1.4, 1.4)

	cp := float32(math.Cos(float64(o.pitch)))
	offset := mgl32.Vec3{
		o.distance * cp * float32(math.Sin(float64(o.yaw))),
		o.distance * float32(math.Sin(float64(o.pitch))),
		o.distance * cp * float32(math.Cos(float64(o.yaw))),
	}
	o.camera.Position = o.camera.Target.Add(offset)
}

type logScene struct {
	log decalkit.Logger
}

func (s *logScene) AddDecal(inst *decalkit.Instance) {
	s.log.Debugf("scene: add %s at %v", inst.ID, inst.Position)
}

func (s *logScene) RemoveDecal(id decalkit.InstanceID) {
	s.log.Debugf("scene: remove %s", id)
}

func (s *logScene) SetDecalVisible(id decalkit.InstanceID, visible bool) {
	s.log.Debugf("scene: %s visible=%v", id, visible)
}

func (s *logScene) ShowPreview(p *decalkit.Preview) {
	s.log.Debugf("scene: preview at %v spin %.2f", p.Position, p.Spin)
}

func (s *logScene) HidePreview() {
	s.log.Debugf("scene: preview hidden")
}
