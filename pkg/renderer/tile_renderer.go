package renderer

import (
	"image"

	"github.com/df07/go-weekend-raytracer/pkg/core"
)

// TileRenderer renders individual tiles with a shared, read-only raytracer
type TileRenderer struct {
	raytracer *Raytracer
}

// NewTileRenderer creates a new tile renderer
func NewTileRenderer(raytracer *Raytracer) *TileRenderer {
	return &TileRenderer{raytracer: raytracer}
}

// RenderTileBounds renders pixels within bounds into pixelStats, which is indexed
// [y][x] in image space. Only the slots inside bounds are written.
func (tr *TileRenderer) RenderTileBounds(bounds image.Rectangle, pixelStats [][]PixelStats, sampler core.Sampler) RenderStats {
	rt := tr.raytracer
	camera := rt.scene.GetCamera()
	stats := RenderStats{Tiles: 1}

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		// Image rows grow downward; the viewport's v grows upward
		j := rt.height - 1 - y
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			ps := &pixelStats[y][x]
			for s := 0; s < rt.config.SamplesPerPixel; s++ {
				ray := rt.pixelRay(camera, x, j, sampler)
				ps.AddSample(rt.RayColor(ray, rt.config.MaxDepth, sampler))
			}
			stats.TotalPixels++
			stats.TotalSamples += rt.config.SamplesPerPixel
		}
	}

	stats.finalize()
	return stats
}
