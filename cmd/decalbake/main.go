// Command decalbake places decals from a YAML script without a window and
// writes the resulting snapshot plus one WebP thumbnail per content item.
//
//	garment:
//	  model: shirt.glb   # procedural torso when empty
//	  width: 60
//	viewport: {width: 800, height: 600}
//	decals:
//	  - image: logo.png
//	    at: [420, 310]
//	    rotate: 1        # quarter turns, positive is counterclockwise
//	    scale: 2         # scale steps, images only
//	  - text: "Hello"
//	    size: 48
//	    color: "#cc0000"
//	    at: [400, 380]
//	    lock: true
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"mime"
	"os"
	"path/filepath"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"gopkg.in/yaml.v3"

	"github.com/gekko3d/decalkit"
	"github.com/gekko3d/decalkit/content"
	"github.com/gekko3d/decalkit/garment"
	"github.com/gekko3d/decalkit/geom"
)

type script struct {
	Garment struct {
		Model string  `yaml:"model"`
		Width float32 `yaml:"width"`
	} `yaml:"garment"`
	Viewport struct {
		Width  float32 `yaml:"width"`
		Height float32 `yaml:"height"`
	} `yaml:"viewport"`
	Decals []placement `yaml:"decals"`
}

type placement struct {
	Image  string     `yaml:"image"`
	Text   string     `yaml:"text"`
	Font   string     `yaml:"font"`
	Size   float64    `yaml:"size"`
	Color  string     `yaml:"color"`
	At     [2]float32 `yaml:"at"`
	Rotate int        `yaml:"rotate"`
	Scale  int        `yaml:"scale"`
	Lock   bool       `yaml:"lock"`
}

func main() {
	var (
		scriptPath = flag.String("script", "", "YAML placement script (required)")
		configPath = flag.String("config", "", "YAML config file")
		outDir     = flag.String("out", "out", "output directory")
		thumbSize  = flag.Int("thumb", 0, "thumbnail size in pixels (config default when 0)")
		timeout    = flag.Duration("timeout", 30*time.Second, "per decal content load timeout")
		debug      = flag.Bool("debug", false, "debug logging")
	)
	flag.Parse()
	if *scriptPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	logger := decalkit.NewDefaultLogger("decalbake", *debug)
	if err := run(*scriptPath, *configPath, *outDir, *thumbSize, *timeout, logger); err != nil {
		log.Fatalf("%v", err)
	}
}

func run(scriptPath, configPath, outDir string, thumbSize int, timeout time.Duration, logger decalkit.Logger) error {
	raw, err := os.ReadFile(scriptPath)
	if err != nil {
		return fmt.Errorf("failed to read script: %w", err)
	}
	var sc script
	if err := yaml.Unmarshal(raw, &sc); err != nil {
		return fmt.Errorf("failed to parse script %s: %w", scriptPath, err)
	}
	baseDir := filepath.Dir(scriptPath)

	cfg := decalkit.DefaultConfig()
	if configPath != "" {
		if cfg, err = decalkit.LoadConfig(configPath); err != nil {
			return err
		}
	}

	g, err := loadGarment(resolve(baseDir, sc.Garment.Model), sc.Garment.Width, cfg.SurfaceMatch)
	if err != nil {
		return err
	}

	vp := geom.Viewport{Width: sc.Viewport.Width, Height: sc.Viewport.Height}
	if vp.Width <= 0 || vp.Height <= 0 {
		vp.Width, vp.Height = 800, 600
	}

	var failures []error
	session, err := decalkit.NewSession(g,
		decalkit.WithConfig(cfg),
		decalkit.WithLogger(logger),
		decalkit.WithViewport(vp),
		decalkit.WithNotifier(decalkit.NotifierFunc(func(err error) { failures = append(failures, err) })),
	)
	if err != nil {
		return err
	}

	for i, d := range sc.Decals {
		if err := place(session, d, baseDir, timeout); err != nil {
			return fmt.Errorf("decal %d: %w", i, err)
		}
		if len(failures) > 0 {
			return fmt.Errorf("decal %d: %w", i, failures[0])
		}
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}
	snap := session.Snapshot()
	js, err := snap.JSON()
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	if err := os.WriteFile(filepath.Join(outDir, "snapshot.json"), js, 0o644); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}

	for _, infos := range [][]decalkit.ContentInfo{snap.Images, snap.Texts} {
		for _, info := range infos {
			webp, err := session.Thumbnail(info.ID, thumbSize)
			if err != nil {
				return err
			}
			name := filepath.Join(outDir, info.Label+".webp")
			if err := os.WriteFile(name, webp, 0o644); err != nil {
				return fmt.Errorf("failed to write thumbnail: %w", err)
			}
		}
	}
	logger.Infof("placed %d decals, wrote %s", len(snap.Decals), outDir)
	return nil
}

func place(s *decalkit.Session, d placement, baseDir string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	switch {
	case d.Image != "":
		path := resolve(baseDir, d.Image)
		raw, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read image: %w", err)
		}
		s.AcquireImage(ctx, content.DataURLFromBytes(mime.TypeByExtension(filepath.Ext(path)), raw))
	case d.Text != "":
		style := content.TextStyle{FontSizePt: d.Size, ColorHex: d.Color}
		if d.Font != "" {
			path := resolve(baseDir, d.Font)
			style.FontFamily = filepath.Base(path)
			if !s.Fonts().Has(style.FontFamily) {
				if err := s.Fonts().LoadFile(style.FontFamily, path); err != nil {
					return err
				}
			}
		}
		s.AcquireText(ctx, d.Text, style)
	default:
		return fmt.Errorf("needs image or text")
	}
	if err := s.Wait(ctx); err != nil {
		return err
	}
	if s.Armed() == nil {
		return nil // failure already reported through the notifier
	}

	at := mgl32.Vec2{d.At[0], d.At[1]}
	if at == (mgl32.Vec2{}) {
		vp := s.Viewport()
		at = mgl32.Vec2{vp.X + vp.Width/2, vp.Y + vp.Height/2}
	}
	ev := decalkit.PointerEvent{Pos: at, Primary: true}
	s.PointerDown(ev)
	if s.State() != decalkit.StateDragging {
		s.Cancel()
		return fmt.Errorf("point %v misses the garment", at)
	}
	for n := d.Rotate; n != 0; {
		if n > 0 {
			s.KeyDown(decalkit.KeyLeft)
			n--
		} else {
			s.KeyDown(decalkit.KeyRight)
			n++
		}
	}
	for n := d.Scale; n != 0; {
		if n > 0 {
			s.KeyDown(decalkit.KeyUp)
			n--
		} else {
			s.KeyDown(decalkit.KeyDown)
			n++
		}
	}
	s.PointerUp(ev)

	if d.Lock {
		s.SetLocked(s.ActiveInstance(), true)
	}
	return nil
}

func loadGarment(path string, width float32, match string) (*garment.Garment, error) {
	if path == "" {
		g := garment.NewProcedural("torso", garment.ProceduralOptions{})
		g.SurfaceMatch = match
		if width > 0 {
			g.FitWidth(width)
		}
		return g, nil
	}
	return garment.LoadGLTF(path, garment.LoadOptions{Width: width, SurfaceMatch: match})
}

func resolve(base, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(base, path)
}
