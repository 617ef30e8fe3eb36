package renderer

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"time"

	"github.com/df07/go-weekend-raytracer/pkg/core"
	"github.com/df07/go-weekend-raytracer/pkg/geometry"
)

// HitEpsilon is the minimum accepted t for scene queries. A scattered ray starts
// on the surface it left; rounding would otherwise let it re-hit that surface.
const HitEpsilon = 0.001

var (
	horizonColor = core.NewColor(1.0, 1.0, 1.0)
	zenithColor  = core.NewColor(0.5, 0.7, 1.0)
)

// Shading selects what the integrator returns at a surface hit
type Shading int

const (
	// ShadeScatter follows material scattering (the full integrator)
	ShadeScatter Shading = iota
	// ShadeNormals maps the hit normal to a color and draws no random numbers
	ShadeNormals
)

func (s Shading) String() string {
	switch s {
	case ShadeScatter:
		return "scatter"
	case ShadeNormals:
		return "normals"
	default:
		return fmt.Sprintf("Shading(%d)", int(s))
	}
}

// ParseShading parses a shading mode name
func ParseShading(name string) (Shading, error) {
	switch name {
	case "scatter", "":
		return ShadeScatter, nil
	case "normals":
		return ShadeNormals, nil
	default:
		return 0, fmt.Errorf("unknown shading mode %q", name)
	}
}

// SamplingConfig contains rendering configuration
type SamplingConfig struct {
	SamplesPerPixel int     // Number of rays per pixel
	MaxDepth        int     // Maximum ray bounce depth
	Jitter          bool    // Randomize sample positions within each pixel
	Shading         Shading // What a surface hit contributes
}

// DefaultSamplingConfig returns sensible default values
func DefaultSamplingConfig() SamplingConfig {
	return SamplingConfig{
		SamplesPerPixel: 100,
		MaxDepth:        50,
		Jitter:          true,
		Shading:         ShadeScatter,
	}
}

// Validate reports configuration values the renderer cannot use
func (c SamplingConfig) Validate() error {
	if c.SamplesPerPixel < 1 {
		return fmt.Errorf("samples per pixel must be at least 1, got %d", c.SamplesPerPixel)
	}
	if c.MaxDepth < 0 {
		return fmt.Errorf("max depth must not be negative, got %d", c.MaxDepth)
	}
	return nil
}

// Scene interface to avoid circular imports
type Scene interface {
	GetCamera() *Camera
	GetWorld() geometry.Shape
}

// Raytracer handles the rendering process. The scene is only read, so one
// Raytracer can serve many goroutines as long as each passes its own sampler.
type Raytracer struct {
	scene   Scene
	width   int
	height  int
	config  SamplingConfig
	sampler core.Sampler
	logger  core.Logger
}

// NewRaytracer creates a new raytracer
func NewRaytracer(scene Scene, width, height int) (*Raytracer, error) {
	// u and v divide by width-1 and height-1
	if width < 2 || height < 2 {
		return nil, fmt.Errorf("image must be at least 2x2, got %dx%d", width, height)
	}
	return &Raytracer{
		scene:   scene,
		width:   width,
		height:  height,
		config:  DefaultSamplingConfig(),
		sampler: core.NewSeededSampler(42), // Deterministic for testing
		logger:  NewDiscardLogger(),
	}, nil
}

// SetSamplingConfig updates the sampling configuration
func (rt *Raytracer) SetSamplingConfig(config SamplingConfig) error {
	if err := config.Validate(); err != nil {
		return err
	}
	rt.config = config
	return nil
}

// SamplingConfig returns the active sampling configuration
func (rt *Raytracer) SamplingConfig() SamplingConfig {
	return rt.config
}

// SetSampler replaces the random source used by RenderPass and RenderLinear
func (rt *Raytracer) SetSampler(sampler core.Sampler) {
	rt.sampler = sampler
}

// SetLogger sets the progress logger
func (rt *Raytracer) SetLogger(logger core.Logger) {
	rt.logger = logger
}

// Size returns the image dimensions
func (rt *Raytracer) Size() (width, height int) {
	return rt.width, rt.height
}

// backgroundGradient blends white at the horizon into sky blue at the zenith
func backgroundGradient(r core.Ray) core.Color {
	unitDirection := r.Direction.Unit()
	t := 0.5 * (unitDirection.Y + 1.0)
	return horizonColor.Lerp(zenithColor, t)
}

// RayColor returns the radiance estimate for a ray with at most depth bounces
func (rt *Raytracer) RayColor(r core.Ray, depth int, sampler core.Sampler) core.Color {
	// If we've exceeded the ray bounce limit, no more light is gathered
	if depth <= 0 {
		return core.Color{}
	}

	hit, isHit := rt.scene.GetWorld().Hit(r, HitEpsilon, math.Inf(1))
	if !isHit {
		return backgroundGradient(r)
	}

	if rt.config.Shading == ShadeNormals {
		return hit.Normal.Add(core.NewVec3(1, 1, 1)).Multiply(0.5)
	}

	scatter, didScatter := hit.Material.Scatter(r, hit, sampler)
	if !didScatter {
		return core.Color{} // Material absorbed the ray
	}

	return scatter.Attenuation.MultiplyVec(rt.RayColor(scatter.Scattered, depth-1, sampler))
}

// pixelRay returns the camera ray for one sample of pixel (i, j), with j counted from the bottom row
func (rt *Raytracer) pixelRay(camera *Camera, i, j int, sampler core.Sampler) core.Ray {
	du, dv := 0.0, 0.0
	if rt.config.Jitter {
		du, dv = sampler.Get1D(), sampler.Get1D()
	}
	u := (float64(i) + du) / float64(rt.width-1)
	v := (float64(j) + dv) / float64(rt.height-1)
	return camera.GetRay(u, v)
}

// samplePixel averages SamplesPerPixel radiance estimates for pixel (i, j)
func (rt *Raytracer) samplePixel(camera *Camera, i, j int, sampler core.Sampler) core.Color {
	colorAccum := core.Color{}
	for sample := 0; sample < rt.config.SamplesPerPixel; sample++ {
		ray := rt.pixelRay(camera, i, j, sampler)
		colorAccum = colorAccum.Add(rt.RayColor(ray, rt.config.MaxDepth, sampler))
	}
	return colorAccum.Divide(float64(rt.config.SamplesPerPixel))
}

// RenderLinear renders every pixel and returns the averaged linear colors in output
// order: rows from the top of the image down, each row left to right.
func (rt *Raytracer) RenderLinear() []core.Color {
	camera := rt.scene.GetCamera()
	pixels := make([]core.Color, 0, rt.width*rt.height)

	for j := rt.height - 1; j >= 0; j-- {
		rt.logProgress(j)
		for i := 0; i < rt.width; i++ {
			pixels = append(pixels, rt.samplePixel(camera, i, j, rt.sampler))
		}
	}
	return pixels
}

// RenderPass renders a single pass with multi-sampling and returns an image
func (rt *Raytracer) RenderPass() (*image.RGBA, RenderStats) {
	start := time.Now()
	img := image.NewRGBA(image.Rect(0, 0, rt.width, rt.height))

	for idx, c := range rt.RenderLinear() {
		img.SetRGBA(idx%rt.width, idx/rt.width, QuantizeColor(c))
	}

	stats := newRenderStats(rt.width*rt.height, rt.config.SamplesPerPixel)
	stats.Elapsed = time.Since(start)
	rt.logger.Printf("Render completed in %v\n", stats.Elapsed)
	return img, stats
}

// logProgress reports remaining scanlines roughly every tenth of the image
func (rt *Raytracer) logProgress(j int) {
	step := max(1, rt.height/10)
	if (j+1)%step == 0 || j == rt.height-1 {
		rt.logger.Printf("Scanlines remaining: %d\n", j+1)
	}
}

// QuantizeColor applies gamma 2, clamps each channel to [0, 0.999] and scales to 8 bits
func QuantizeColor(c core.Color) color.RGBA {
	return color.RGBA{
		R: quantizeChannel(c.X),
		G: quantizeChannel(c.Y),
		B: quantizeChannel(c.Z),
		A: 255,
	}
}

func quantizeChannel(x float64) uint8 {
	// NaN and negatives map to 0
	if !(x > 0) {
		return 0
	}
	return uint8(256 * math.Min(math.Sqrt(x), 0.999))
}
