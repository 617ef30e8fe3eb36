package material

import (
	"github.com/df07/go-weekend-raytracer/pkg/core"
)

// NewLambertian creates a perfectly diffuse material
func NewLambertian(albedo core.Color) Material {
	return Material{kind: KindLambertian, albedo: albedo}
}

// scatterLambertian scatters around the normal; it never absorbs
func (m Material) scatterLambertian(hit HitRecord, sampler core.Sampler) ScatterResult {
	scatterDirection := hit.Normal.Add(core.RandomUnitVector(sampler))

	// The random unit vector can cancel the normal almost exactly
	if scatterDirection.NearZero() {
		scatterDirection = hit.Normal
	}

	return ScatterResult{
		Scattered:   core.NewRay(hit.Point, scatterDirection),
		Attenuation: m.albedo,
	}
}
