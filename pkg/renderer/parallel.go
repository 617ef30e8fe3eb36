package renderer

import (
	"context"
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/df07/go-weekend-raytracer/pkg/core"
)

// ParallelConfig contains configuration for tiled parallel rendering
type ParallelConfig struct {
	TileSize   int   // Size of each square tile in pixels
	NumWorkers int   // Number of parallel workers (0 = use CPU count)
	Seed       int64 // Base seed; tile N samples from Seed+N
}

// DefaultParallelConfig returns sensible default values
func DefaultParallelConfig() ParallelConfig {
	return ParallelConfig{
		TileSize:   32,
		NumWorkers: 0, // Auto-detect CPU count
		Seed:       42,
	}
}

// TileCompletionResult contains information about a completed tile for callbacks
type TileCompletionResult struct {
	TileID     int             // Tile identifier
	Bounds     image.Rectangle // Pixel bounds of the tile
	TileNumber int             // Completed tiles so far in this render (1-based)
	TotalTiles int             // Total number of tiles in the image
}

// ParallelRenderer distributes tiles of one render across a worker pool.
// Output depends only on the seed and tile size, not on the worker count.
type ParallelRenderer struct {
	raytracer *Raytracer
	config    ParallelConfig
	logger    core.Logger
}

// NewParallelRenderer creates a parallel renderer around a configured raytracer
func NewParallelRenderer(raytracer *Raytracer, config ParallelConfig, logger core.Logger) (*ParallelRenderer, error) {
	if config.TileSize < 1 {
		return nil, fmt.Errorf("tile size must be positive, got %d", config.TileSize)
	}
	if logger == nil {
		logger = NewDiscardLogger()
	}
	return &ParallelRenderer{
		raytracer: raytracer,
		config:    config,
		logger:    logger,
	}, nil
}

// Render renders the full image. onTile, if non-nil, is called on the calling
// goroutine after each tile completes. Cancelling ctx stops scheduling new tiles
// and Render returns ctx.Err().
func (pr *ParallelRenderer) Render(ctx context.Context, onTile func(TileCompletionResult)) (*image.RGBA, RenderStats, error) {
	start := time.Now()
	width, height := pr.raytracer.Size()
	tiles := NewTileGrid(width, height, pr.config.TileSize, pr.config.Seed)

	pixelStats := make([][]PixelStats, height)
	for y := range pixelStats {
		pixelStats[y] = make([]PixelStats, width)
	}

	workerPool := NewWorkerPool(pr.raytracer, pr.config.NumWorkers, len(tiles))
	pr.logger.Printf("Rendering %dx%d in %d tiles using %d workers...\n",
		width, height, len(tiles), workerPool.GetNumWorkers())

	workerPool.Start(ctx)
	for taskID, tile := range tiles {
		workerPool.SubmitTask(TileTask{
			Tile:       tile,
			TaskID:     taskID,
			PixelStats: pixelStats,
		})
	}

	stats := RenderStats{}
	var renderErr error
	for i := 0; i < len(tiles); i++ {
		result, ok := workerPool.GetResult()
		if !ok {
			renderErr = errors.New("worker pool closed unexpectedly")
			break
		}
		if result.Error != nil {
			if renderErr == nil {
				renderErr = result.Error
			}
			continue
		}
		stats.merge(result.Stats)

		if onTile != nil {
			tile := tiles[result.TaskID]
			onTile(TileCompletionResult{
				TileID:     tile.ID,
				Bounds:     tile.Bounds,
				TileNumber: i + 1,
				TotalTiles: len(tiles),
			})
		}
	}
	workerPool.Stop()

	if renderErr != nil {
		pr.logger.Printf("Render aborted: %v\n", renderErr)
		return nil, RenderStats{}, renderErr
	}

	img := assembleImage(pixelStats, width, height)
	stats.finalize()
	stats.Elapsed = time.Since(start)
	pr.logger.Printf("Render completed in %v (%d samples/pixel)\n", stats.Elapsed, int(stats.AverageSamples))
	return img, stats, nil
}

// assembleImage quantizes the shared pixel stats into an image
func assembleImage(pixelStats [][]PixelStats, width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetRGBA(x, y, QuantizeColor(pixelStats[y][x].GetColor()))
		}
	}
	return img
}
