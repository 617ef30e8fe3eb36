package geometry

import (
	"math"
	"testing"

	"github.com/df07/go-weekend-raytracer/pkg/core"
	"github.com/df07/go-weekend-raytracer/pkg/material"
)

func TestSurfaceList_EmptyMisses(t *testing.T) {
	list := NewSurfaceList()
	ray := core.NewRay(core.NewVec3(0, 0, 0), core.NewVec3(0, 0, -1))
	if _, isHit := list.Hit(ray, 0.001, math.Inf(1)); isHit {
		t.Error("Empty list should never report a hit")
	}
}

func TestSurfaceList_NearestHitIsOrderIndependent(t *testing.T) {
	near := mustSphere(t, core.NewVec3(0, 0, -2), 0.5, material.NewLambertian(core.NewColor(1, 0, 0)))
	middle := mustSphere(t, core.NewVec3(0, 0, -5), 0.5, material.NewLambertian(core.NewColor(0, 1, 0)))
	far := mustSphere(t, core.NewVec3(0, 0, -9), 0.5, material.NewLambertian(core.NewColor(0, 0, 1)))
	ray := core.NewRay(core.NewVec3(0, 0, 0), core.NewVec3(0, 0, -1))

	orders := [][]Shape{
		{near, middle, far},
		{near, far, middle},
		{middle, near, far},
		{middle, far, near},
		{far, near, middle},
		{far, middle, near},
	}

	for _, order := range orders {
		list := NewSurfaceList(order...)
		hit, isHit := list.Hit(ray, 0.001, math.Inf(1))
		if !isHit {
			t.Fatal("Expected a hit")
		}
		if math.Abs(hit.T-1.5) > 1e-12 {
			t.Errorf("Expected nearest t=1.5, got %f", hit.T)
		}
		if hit.Material != near.Material {
			t.Errorf("Expected nearest sphere's material, got %v", hit.Material)
		}
	}
}

func TestSurfaceList_RespectsRange(t *testing.T) {
	near := mustSphere(t, core.NewVec3(0, 0, -2), 0.5, material.Material{})
	far := mustSphere(t, core.NewVec3(0, 0, -9), 0.5, material.Material{})
	list := NewSurfaceList(near, far)
	ray := core.NewRay(core.NewVec3(0, 0, 0), core.NewVec3(0, 0, -1))

	// tMin past the whole near sphere leaves only the far one
	hit, isHit := list.Hit(ray, 3, math.Inf(1))
	if !isHit || hit.T != 8.5 {
		t.Errorf("Expected far hit at 8.5, got %f (hit=%t)", hit.T, isHit)
	}

	if _, isHit := list.Hit(ray, 0.001, 1.0); isHit {
		t.Error("No surface lies within t <= 1")
	}
}

func TestSurfaceList_AddClear(t *testing.T) {
	list := NewSurfaceList()
	s := mustSphere(t, core.NewVec3(0, 0, -1), 0.5, material.Material{})
	list.Add(s)
	list.Add(s)
	if list.Len() != 2 {
		t.Errorf("Expected 2 shapes, got %d", list.Len())
	}

	shapes := list.Shapes()
	shapes[0] = nil
	if list.Shapes()[0] == nil {
		t.Error("Shapes should return a copy")
	}

	list.Clear()
	if list.Len() != 0 {
		t.Errorf("Expected empty list after Clear, got %d", list.Len())
	}
}
