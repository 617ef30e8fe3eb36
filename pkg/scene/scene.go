package scene

import (
	"fmt"

	"github.com/df07/go-weekend-raytracer/pkg/core"
	"github.com/df07/go-weekend-raytracer/pkg/geometry"
	"github.com/df07/go-weekend-raytracer/pkg/material"
	"github.com/df07/go-weekend-raytracer/pkg/renderer"
)

// DefaultWidth is the image width used when a scene does not set one
const DefaultWidth = 400

// Scene contains all the elements needed for rendering
type Scene struct {
	Name           string
	Camera         *renderer.Camera
	CameraConfig   renderer.CameraConfig
	World          *geometry.SurfaceList // Objects in the scene
	SamplingConfig renderer.SamplingConfig
	Width          int // Image width; height follows from the camera aspect ratio
}

// newScene creates an empty scene with the given camera and sampling settings
func newScene(name string, cameraConfig renderer.CameraConfig, samplingConfig renderer.SamplingConfig) *Scene {
	return &Scene{
		Name:           name,
		Camera:         renderer.NewCamera(cameraConfig),
		CameraConfig:   cameraConfig,
		World:          geometry.NewSurfaceList(),
		SamplingConfig: samplingConfig,
		Width:          DefaultWidth,
	}
}

// GetCamera returns the scene camera
func (s *Scene) GetCamera() *renderer.Camera {
	return s.Camera
}

// GetWorld returns the scene aggregate
func (s *Scene) GetWorld() geometry.Shape {
	return s.World
}

// AddSphere adds a sphere to the scene
func (s *Scene) AddSphere(center core.Point3, radius float64, mat material.Material) error {
	sphere, err := geometry.NewSphere(center, radius, mat)
	if err != nil {
		return fmt.Errorf("scene %q: %w", s.Name, err)
	}
	s.World.Add(sphere)
	return nil
}

// ImageSize returns the image dimensions for the scene's width and aspect ratio
func (s *Scene) ImageSize() (width, height int) {
	return s.Width, HeightForWidth(s.Width, s.CameraConfig.AspectRatio)
}

// SetWidth overrides the image width
func (s *Scene) SetWidth(width int) {
	s.Width = width
}

// HeightForWidth truncates width / aspectRatio to a whole number of rows
func HeightForWidth(width int, aspectRatio float64) int {
	return int(float64(width) / aspectRatio)
}

// NewRaytracer builds a reference raytracer sized and configured for the scene
func (s *Scene) NewRaytracer() (*renderer.Raytracer, error) {
	width, height := s.ImageSize()
	rt, err := renderer.NewRaytracer(s, width, height)
	if err != nil {
		return nil, fmt.Errorf("scene %q: %w", s.Name, err)
	}
	if err := rt.SetSamplingConfig(s.SamplingConfig); err != nil {
		return nil, fmt.Errorf("scene %q: %w", s.Name, err)
	}
	return rt, nil
}
