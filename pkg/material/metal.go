package material

import (
	"github.com/df07/go-weekend-raytracer/pkg/core"
)

// NewMetal creates a new metal material
func NewMetal(albedo core.Color, fuzz float64) Material {
	// Clamp fuzz to valid range
	fuzz = max(0.0, min(1.0, fuzz))
	return Material{kind: KindMetal, albedo: albedo, fuzz: fuzz}
}

// scatterMetal reflects about the normal, perturbed by fuzz
func (m Material) scatterMetal(rayIn core.Ray, hit HitRecord, sampler core.Sampler) (ScatterResult, bool) {
	reflected := rayIn.Direction.Unit().Reflect(hit.Normal)
	if m.fuzz > 0 {
		reflected = reflected.Add(core.RandomInUnitSphere(sampler).Multiply(m.fuzz))
	}

	scattered := core.NewRay(hit.Point, reflected)

	// Fuzz can push the ray below the surface; those are absorbed
	scatters := scattered.Direction.Dot(hit.Normal) > 0

	return ScatterResult{
		Scattered:   scattered,
		Attenuation: m.albedo,
	}, scatters
}
