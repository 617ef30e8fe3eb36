package scene

import (
	"github.com/df07/go-weekend-raytracer/pkg/core"
	"github.com/df07/go-weekend-raytracer/pkg/material"
	"github.com/df07/go-weekend-raytracer/pkg/renderer"
)

// NewDefaultScene creates the three-sphere material showcase on a large ground sphere
func NewDefaultScene() *Scene {
	s := newScene("default", renderer.DefaultCameraConfig(), renderer.DefaultSamplingConfig())

	// Create materials
	materialGround := material.NewLambertian(core.NewColor(0.8, 0.8, 0.0))
	materialCenter := material.NewLambertian(core.NewColor(0.1, 0.2, 0.5))
	materialLeft := material.NewDielectric(1.5)
	materialRight := material.NewMetal(core.NewColor(0.8, 0.6, 0.2), 0.0)

	// Radii are constants, so these cannot fail
	_ = s.AddSphere(core.NewVec3(0.0, -100.5, -1.0), 100.0, materialGround)
	_ = s.AddSphere(core.NewVec3(0.0, 0.0, -1.0), 0.5, materialCenter)
	_ = s.AddSphere(core.NewVec3(-1.0, 0.0, -1.0), 0.5, materialLeft)
	_ = s.AddSphere(core.NewVec3(1.0, 0.0, -1.0), 0.5, materialRight)

	return s
}

// NewNormalsScene creates a small sphere resting on a ground sphere, shaded by surface normal
func NewNormalsScene() *Scene {
	samplingConfig := renderer.DefaultSamplingConfig()
	samplingConfig.Shading = renderer.ShadeNormals
	s := newScene("normals", renderer.DefaultCameraConfig(), samplingConfig)

	// Normal shading never reads the material
	_ = s.AddSphere(core.NewVec3(0, 0, -1), 0.5, material.Material{})
	_ = s.AddSphere(core.NewVec3(0, -100.5, -1), 100, material.Material{})

	return s
}

// NewSkyScene creates an empty scene that renders only the background gradient
func NewSkyScene() *Scene {
	samplingConfig := renderer.DefaultSamplingConfig()
	samplingConfig.SamplesPerPixel = 1
	samplingConfig.Jitter = false
	return newScene("sky", renderer.DefaultCameraConfig(), samplingConfig)
}
