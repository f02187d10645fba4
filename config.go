package decalkit

import (
	"fmt"
	"os"

	"github.com/go-gl/mathgl/mgl32"
	"gopkg.in/yaml.v3"

	"github.com/gekko3d/decalkit/garment"
)

// Config holds the placement constants. Zero fields are filled by Resolve.
type Config struct {
	// DepthConstant is how far along the surface normal the look-at target
	// sits when orienting a decal.
	DepthConstant float32 `yaml:"depth_constant"`
	// BaseScale is the initial width of an image decal in world units.
	BaseScale float32 `yaml:"base_scale"`
	// FontScale converts text raster pixels to world units.
	FontScale float32 `yaml:"font_scale"`
	ThinDepth float32 `yaml:"thin_depth"`

	RotationStepDeg float32 `yaml:"rotation_step_deg"`
	ScaleStep       float32 `yaml:"scale_step"`
	MinImageScale   float32 `yaml:"min_image_scale"`

	TextMinScale float32 `yaml:"text_min_scale"`
	TextMaxScale float32 `yaml:"text_max_scale"`

	PrintUnitsPerWorldUnit float32 `yaml:"print_units_per_world_unit"`
	SurfaceMatch           string  `yaml:"surface_match"`
	ThumbnailSize          int     `yaml:"thumbnail_size"`
}

// DefaultConfig returns the stock engine constants.
func DefaultConfig() Config {
	return Config{
		DepthConstant:          10,
		BaseScale:              10,
		FontScale:              0.1,
		ThinDepth:              0.1,
		RotationStepDeg:        90,
		ScaleStep:              1,
		MinImageScale:          1,
		TextMinScale:           0.5,
		TextMaxScale:           200,
		PrintUnitsPerWorldUnit: 1,
		SurfaceMatch:           garment.DefaultSurfaceMatch,
		ThumbnailSize:          96,
	}
}

// LoadConfig reads a YAML config file. Fields absent from the file take
// their defaults.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	cfg.Resolve()
	if cfg.TextMinScale > cfg.TextMaxScale {
		return Config{}, fmt.Errorf("config: %s: text_min_scale %v exceeds text_max_scale %v", path, cfg.TextMinScale, cfg.TextMaxScale)
	}
	return cfg, nil
}

// Resolve fills non-positive fields with defaults.
func (c *Config) Resolve() {
	d := DefaultConfig()
	fill := func(v *float32, def float32) {
		if *v <= 0 {
			*v = def
		}
	}
	fill(&c.DepthConstant, d.DepthConstant)
	fill(&c.BaseScale, d.BaseScale)
	fill(&c.FontScale, d.FontScale)
	fill(&c.ThinDepth, d.ThinDepth)
	fill(&c.RotationStepDeg, d.RotationStepDeg)
	fill(&c.ScaleStep, d.ScaleStep)
	fill(&c.MinImageScale, d.MinImageScale)
	fill(&c.TextMinScale, d.TextMinScale)
	fill(&c.TextMaxScale, d.TextMaxScale)
	fill(&c.PrintUnitsPerWorldUnit, d.PrintUnitsPerWorldUnit)
	if c.SurfaceMatch == "" {
		c.SurfaceMatch = d.SurfaceMatch
	}
	if c.ThumbnailSize <= 0 {
		c.ThumbnailSize = d.ThumbnailSize
	}
}

func (c Config) RotationStep() float32 {
	return mgl32.DegToRad(c.RotationStepDeg)
}
