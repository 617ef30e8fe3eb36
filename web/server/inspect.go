package server

import (
	"fmt"
	"math"
	"net/http"
	"strconv"

	"github.com/df07/go-weekend-raytracer/pkg/core"
	"github.com/df07/go-weekend-raytracer/pkg/geometry"
	"github.com/df07/go-weekend-raytracer/pkg/material"
	"github.com/df07/go-weekend-raytracer/pkg/renderer"
	"github.com/df07/go-weekend-raytracer/pkg/scene"
)

// InspectResponse represents the JSON response for object inspection
type InspectResponse struct {
	Hit          bool                   `json:"hit"`
	MaterialType string                 `json:"materialType"`
	GeometryType string                 `json:"geometryType"`
	Point        [3]float64             `json:"point"`
	Normal       [3]float64             `json:"normal"`
	Distance     float64                `json:"distance"`
	FrontFace    bool                   `json:"frontFace"`
	Properties   map[string]interface{} `json:"properties"`
}

func vecArray(v core.Vec3) [3]float64 {
	return [3]float64{v.X, v.Y, v.Z}
}

// hexColor formats a linear color as #rrggbb, clamping each channel to [0, 1]
func hexColor(c core.Color) string {
	c = c.Clamp(0, 1)
	return fmt.Sprintf("#%02x%02x%02x", uint8(c.X*255), uint8(c.Y*255), uint8(c.Z*255))
}

// extractMaterialInfo describes a material by kind
func extractMaterialInfo(mat material.Material) (string, map[string]interface{}) {
	properties := make(map[string]interface{})

	switch mat.Kind() {
	case material.KindLambertian, material.KindMetal:
		albedo := mat.Albedo()
		properties["albedo"] = vecArray(albedo)
		properties["color"] = hexColor(albedo)
		if mat.Kind() == material.KindMetal {
			properties["fuzz"] = mat.Fuzz()
		}
	case material.KindDielectric:
		properties["refractiveIndex"] = mat.RefractiveIndex()
	}
	return mat.Kind().String(), properties
}

// extractGeometryInfo describes the shape that was hit
func extractGeometryInfo(shape geometry.Shape) (string, map[string]interface{}) {
	properties := make(map[string]interface{})

	switch geom := shape.(type) {
	case *geometry.Sphere:
		properties["center"] = vecArray(geom.Center)
		properties["radius"] = geom.Radius
		return "sphere", properties
	default:
		return "unknown", properties
	}
}

// inspectPixel casts the unjittered ray through pixel (x, y), with y counted from
// the top row, and returns the nearest hit and the shape it belongs to
func inspectPixel(sceneObj *scene.Scene, x, y int) (material.HitRecord, geometry.Shape, bool) {
	width, height := sceneObj.ImageSize()
	u := float64(x) / float64(width-1)
	v := float64(height-1-y) / float64(height-1)
	ray := sceneObj.GetCamera().GetRay(u, v)

	hit, isHit := sceneObj.GetWorld().Hit(ray, renderer.HitEpsilon, math.Inf(1))
	if !isHit {
		return hit, nil, false
	}

	// The aggregate does not say which member produced the hit; find the shape
	// whose own nearest hit matches
	for _, shape := range sceneObj.World.Shapes() {
		if shapeHit, ok := shape.Hit(ray, renderer.HitEpsilon, hit.T); ok && shapeHit.T == hit.T {
			return hit, shape, true
		}
	}
	return hit, nil, true
}

// handleInspect handles ray casting inspection requests
func (s *Server) handleInspect(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	sceneName := query.Get("scene")
	if sceneName == "" {
		sceneName = DefaultScene
	}
	sceneObj, err := scene.LoadScene(sceneName, s.scenesDir)
	if err != nil {
		writeJSONError(w, renderErrorStatus(err), err.Error())
		return
	}

	width, err := parseIntParam(query, "width", 0, minWidth, maxWidth)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if width > 0 {
		sceneObj.SetWidth(width)
	}
	width, height := sceneObj.ImageSize()

	// Parse pixel coordinates
	pixelX, errX := strconv.Atoi(query.Get("x"))
	pixelY, errY := strconv.Atoi(query.Get("y"))
	if errX != nil || errY != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid pixel coordinates")
		return
	}
	if pixelX < 0 || pixelX >= width || pixelY < 0 || pixelY >= height {
		writeJSONError(w, http.StatusBadRequest, "Pixel coordinates out of bounds")
		return
	}

	hit, shape, isHit := inspectPixel(sceneObj, pixelX, pixelY)
	if !isHit {
		writeJSON(w, http.StatusOK, InspectResponse{Hit: false})
		return
	}

	materialType, materialProps := extractMaterialInfo(hit.Material)
	geometryType, geometryProps := extractGeometryInfo(shape)

	writeJSON(w, http.StatusOK, InspectResponse{
		Hit:          true,
		MaterialType: materialType,
		GeometryType: geometryType,
		Point:        vecArray(hit.Point),
		Normal:       vecArray(hit.Normal),
		Distance:     hit.T,
		FrontFace:    hit.FrontFace,
		Properties: map[string]interface{}{
			"material": materialProps,
			"geometry": geometryProps,
		},
	})
}
