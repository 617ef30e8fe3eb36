package renderer

import (
	"testing"

	"github.com/df07/go-weekend-raytracer/pkg/core"
)

func TestNewCamera_DerivedBasis(t *testing.T) {
	camera := NewCamera(DefaultCameraConfig())

	tests := []struct {
		name     string
		got      core.Vec3
		expected core.Vec3
	}{
		{"origin", camera.origin, core.NewVec3(0, 0, 0)},
		{"horizontal", camera.horizontal, core.NewVec3(32.0/9.0, 0, 0)},
		{"vertical", camera.vertical, core.NewVec3(0, 2, 0)},
		{"lower left corner", camera.lowerLeftCorner, core.NewVec3(-16.0/9.0, -1, -1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !tt.got.ApproxEquals(tt.expected, 1e-12) {
				t.Errorf("Expected %v, got %v", tt.expected, tt.got)
			}
		})
	}
}

func TestCamera_GetRay(t *testing.T) {
	config := DefaultCameraConfig()
	config.Origin = core.NewVec3(1, 2, 3)
	camera := NewCamera(config)

	tests := []struct {
		name      string
		u, v      float64
		direction core.Vec3
	}{
		{"center", 0.5, 0.5, core.NewVec3(0, 0, -1)},
		{"lower left", 0, 0, core.NewVec3(-16.0/9.0, -1, -1)},
		{"upper right", 1, 1, core.NewVec3(16.0/9.0, 1, -1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ray := camera.GetRay(tt.u, tt.v)
			if !ray.Origin.Equals(config.Origin) {
				t.Errorf("Expected origin %v, got %v", config.Origin, ray.Origin)
			}
			if !ray.Direction.ApproxEquals(tt.direction, 1e-12) {
				t.Errorf("Expected direction %v, got %v", tt.direction, ray.Direction)
			}
		})
	}
}

func TestCamera_FocalLength(t *testing.T) {
	config := DefaultCameraConfig()
	config.FocalLength = 2.5
	ray := NewCamera(config).GetRay(0.5, 0.5)
	if !ray.Direction.ApproxEquals(core.NewVec3(0, 0, -2.5), 1e-12) {
		t.Errorf("Expected center ray along -Z at focal length, got %v", ray.Direction)
	}
}
