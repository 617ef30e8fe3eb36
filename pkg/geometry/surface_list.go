package geometry

import (
	"github.com/df07/go-weekend-raytracer/pkg/core"
	"github.com/df07/go-weekend-raytracer/pkg/material"
)

// SurfaceList is an ordered collection of shapes scanned linearly for the nearest hit.
// Members are shared read-only; the list never mutates them, so one list can be
// queried from many goroutines once it is built.
type SurfaceList struct {
	shapes []Shape
}

// NewSurfaceList creates a list holding the given shapes in order
func NewSurfaceList(shapes ...Shape) *SurfaceList {
	return &SurfaceList{shapes: append([]Shape(nil), shapes...)}
}

// Add appends a shape. Not safe to call while a render is reading the list.
func (l *SurfaceList) Add(shape Shape) {
	l.shapes = append(l.shapes, shape)
}

// Clear removes every shape. Not safe to call while a render is reading the list.
func (l *SurfaceList) Clear() {
	l.shapes = nil
}

// Len returns the number of shapes
func (l *SurfaceList) Len() int {
	return len(l.shapes)
}

// Shapes returns a copy of the member list
func (l *SurfaceList) Shapes() []Shape {
	return append([]Shape(nil), l.shapes...)
}

// Hit returns the nearest intersection in [tMin, tMax] across all shapes
func (l *SurfaceList) Hit(ray core.Ray, tMin, tMax float64) (material.HitRecord, bool) {
	var closestHit material.HitRecord
	closestSoFar := tMax
	hitAnything := false

	for _, shape := range l.shapes {
		if hit, isHit := shape.Hit(ray, tMin, closestSoFar); isHit {
			hitAnything = true
			closestSoFar = hit.T
			closestHit = hit
		}
	}

	return closestHit, hitAnything
}
