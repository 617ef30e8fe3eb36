package scene

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/df07/go-weekend-raytracer/pkg/core"
	"github.com/df07/go-weekend-raytracer/pkg/material"
	"github.com/df07/go-weekend-raytracer/pkg/renderer"
)

// Vec3Cfg is a vector written as a three-element JSON array
type Vec3Cfg [3]float64

func (v Vec3Cfg) Vec3() core.Vec3 {
	return core.NewVec3(v[0], v[1], v[2])
}

type CameraCfg struct {
	Origin         *Vec3Cfg `json:"origin,omitempty"`
	AspectRatio    float64  `json:"aspectRatio,omitempty"`
	ViewportHeight float64  `json:"viewportHeight,omitempty"`
	FocalLength    float64  `json:"focalLength,omitempty"`
}

type SamplingCfg struct {
	SamplesPerPixel int    `json:"samplesPerPixel,omitempty"`
	MaxDepth        *int   `json:"maxDepth,omitempty"`
	Jitter          *bool  `json:"jitter,omitempty"`
	Shading         string `json:"shading,omitempty"`
}

type MaterialCfg struct {
	Kind   string  `json:"kind"`
	Albedo Vec3Cfg `json:"albedo"`
	Fuzz   float64 `json:"fuzz,omitempty"`
	IR     float64 `json:"ir,omitempty"`
}

type SphereCfg struct {
	Center   Vec3Cfg `json:"center"`
	Radius   float64 `json:"radius"`
	Material string  `json:"material"`
}

// Config is the on-disk form of a scene
type Config struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description,omitempty"`
	Group       string                 `json:"group,omitempty"`
	Width       int                    `json:"width,omitempty"`
	Camera      CameraCfg              `json:"camera"`
	Sampling    SamplingCfg            `json:"sampling"`
	Materials   map[string]MaterialCfg `json:"materials"`
	Spheres     []SphereCfg            `json:"spheres"`
}

// Build converts the camera settings, filling unset fields from the default camera
func (c CameraCfg) Build() (renderer.CameraConfig, error) {
	config := renderer.DefaultCameraConfig()
	if c.Origin != nil {
		config.Origin = c.Origin.Vec3()
	}
	if c.AspectRatio != 0 {
		config.AspectRatio = c.AspectRatio
	}
	if c.ViewportHeight != 0 {
		config.ViewportHeight = c.ViewportHeight
	}
	if c.FocalLength != 0 {
		config.FocalLength = c.FocalLength
	}
	if config.AspectRatio <= 0 || config.ViewportHeight <= 0 || config.FocalLength <= 0 {
		return config, fmt.Errorf("camera aspectRatio, viewportHeight and focalLength must be > 0, got %+v", c)
	}
	return config, nil
}

// Build converts the sampling settings, filling unset fields from the defaults
func (c SamplingCfg) Build() (renderer.SamplingConfig, error) {
	config := renderer.DefaultSamplingConfig()
	if c.SamplesPerPixel != 0 {
		config.SamplesPerPixel = c.SamplesPerPixel
	}
	if c.MaxDepth != nil {
		config.MaxDepth = *c.MaxDepth
	}
	if c.Jitter != nil {
		config.Jitter = *c.Jitter
	}
	shading, err := renderer.ParseShading(c.Shading)
	if err != nil {
		return config, err
	}
	config.Shading = shading
	return config, config.Validate()
}

func (c MaterialCfg) Build() (material.Material, error) {
	kind, err := material.ParseKind(c.Kind)
	if err != nil {
		return material.Material{}, err
	}
	switch kind {
	case material.KindLambertian:
		return material.NewLambertian(c.Albedo.Vec3()), nil
	case material.KindMetal:
		return material.NewMetal(c.Albedo.Vec3(), c.Fuzz), nil
	case material.KindDielectric:
		if c.IR <= 0 {
			return material.Material{}, fmt.Errorf("dielectric ir must be > 0, got %g", c.IR)
		}
		return material.NewDielectric(c.IR), nil
	default:
		return material.Material{}, fmt.Errorf("unsupported material kind %v", kind)
	}
}

// Build constructs the scene described by the config
func (c *Config) Build() (*Scene, error) {
	cameraConfig, err := c.Camera.Build()
	if err != nil {
		return nil, err
	}
	samplingConfig, err := c.Sampling.Build()
	if err != nil {
		return nil, fmt.Errorf("sampling: %w", err)
	}

	materials := make(map[string]material.Material, len(c.Materials))
	for name, mc := range c.Materials {
		mat, err := mc.Build()
		if err != nil {
			return nil, fmt.Errorf("material %q: %w", name, err)
		}
		materials[name] = mat
	}

	s := newScene(c.Name, cameraConfig, samplingConfig)
	if c.Width != 0 {
		s.Width = c.Width
	}
	if s.Width < 2 {
		return nil, fmt.Errorf("width must be at least 2, got %d", s.Width)
	}

	for i, sc := range c.Spheres {
		mat, ok := materials[sc.Material]
		if !ok {
			return nil, fmt.Errorf("sphere %d: unknown material %q", i, sc.Material)
		}
		if err := s.AddSphere(sc.Center.Vec3(), sc.Radius, mat); err != nil {
			return nil, fmt.Errorf("sphere %d: %w", i, err)
		}
	}
	return s, nil
}

// ParseConfig decodes a scene file. Unknown fields are rejected.
func ParseConfig(data []byte) (*Config, error) {
	var cfg Config
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parse scene: %w", err)
	}
	return &cfg, nil
}

// LoadSceneFile reads and builds a JSON scene file
func LoadSceneFile(path string) (*Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scene file: %w", err)
	}
	cfg, err := ParseConfig(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	s, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if s.Name == "" {
		s.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return s, nil
}
