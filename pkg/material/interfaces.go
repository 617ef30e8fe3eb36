package material

import (
	"fmt"
	"strings"

	"github.com/df07/go-weekend-raytracer/pkg/core"
)

// Kind identifies which scattering model a Material uses
type Kind uint8

const (
	KindLambertian Kind = iota
	KindMetal
	KindDielectric
)

func (k Kind) String() string {
	switch k {
	case KindLambertian:
		return "lambertian"
	case KindMetal:
		return "metal"
	case KindDielectric:
		return "dielectric"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// ParseKind parses a material kind name as written in scene files
func ParseKind(name string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "lambertian", "diffuse":
		return KindLambertian, nil
	case "metal":
		return KindMetal, nil
	case "dielectric", "glass":
		return KindDielectric, nil
	default:
		return 0, fmt.Errorf("unknown material kind %q", name)
	}
}

// Material is a closed set of scattering models. It is a small immutable value:
// copying it into a HitRecord never shares state with the surface it came from.
// The zero value is a black Lambertian.
type Material struct {
	kind   Kind
	albedo core.Color
	fuzz   float64
	ir     float64
}

// ScatterResult contains the result of material scattering
type ScatterResult struct {
	Scattered   core.Ray   // The scattered ray
	Attenuation core.Color // Color attenuation
}

// Kind returns the scattering model of the material
func (m Material) Kind() Kind { return m.kind }

// Albedo returns the base color (Lambertian and Metal)
func (m Material) Albedo() core.Color { return m.albedo }

// Fuzz returns the reflection blur radius (Metal)
func (m Material) Fuzz() float64 { return m.fuzz }

// RefractiveIndex returns the index of refraction (Dielectric)
func (m Material) RefractiveIndex() float64 { return m.ir }

// Scatter computes the outgoing ray and attenuation for rayIn hitting the surface
// described by hit. The bool is false when the ray is absorbed.
func (m Material) Scatter(rayIn core.Ray, hit HitRecord, sampler core.Sampler) (ScatterResult, bool) {
	switch m.kind {
	case KindLambertian:
		return m.scatterLambertian(hit, sampler), true
	case KindMetal:
		return m.scatterMetal(rayIn, hit, sampler)
	case KindDielectric:
		return m.scatterDielectric(rayIn, hit, sampler), true
	default:
		panic(fmt.Sprintf("material: unhandled kind %v", m.kind))
	}
}

func (m Material) String() string {
	switch m.kind {
	case KindMetal:
		return fmt.Sprintf("metal(albedo=%v, fuzz=%g)", m.albedo, m.fuzz)
	case KindDielectric:
		return fmt.Sprintf("dielectric(ir=%g)", m.ir)
	default:
		return fmt.Sprintf("%v(albedo=%v)", m.kind, m.albedo)
	}
}

// HitRecord contains information about a ray-object intersection
type HitRecord struct {
	Point     core.Point3 // Point of intersection
	Normal    core.Vec3   // Unit surface normal, facing against the incoming ray
	Material  Material    // Material of the hit object
	T         float64     // Parameter t along the ray
	FrontFace bool        // Whether ray hit the front face
}

// SetFaceNormal sets the normal vector and determines front/back face.
// outwardNormal must be unit length.
func (h *HitRecord) SetFaceNormal(ray core.Ray, outwardNormal core.Vec3) {
	h.FrontFace = ray.Direction.Dot(outwardNormal) < 0
	if h.FrontFace {
		h.Normal = outwardNormal
	} else {
		h.Normal = outwardNormal.Negate()
	}
}
