package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/df07/go-weekend-raytracer/pkg/core"
	"github.com/df07/go-weekend-raytracer/pkg/output"
	"github.com/df07/go-weekend-raytracer/pkg/renderer"
	"github.com/df07/go-weekend-raytracer/pkg/scene"
)

// options holds the resolved command line configuration
type options struct {
	sceneID   string
	sceneFile string
	width     int
	samples   int
	depth     int
	shading   string
	noJitter  bool
	parallel  bool
	workers   int
	tileSize  int
	seed      int64
	out       string
	preview   bool
	upload    bool
	help      bool
}

// envString returns the environment value for key, or fallback when unset
func envString(getenv func(string) string, key, fallback string) string {
	if value := getenv(key); value != "" {
		return value
	}
	return fallback
}

// envInt returns the integer environment value for key, or fallback when unset or malformed
func envInt(getenv func(string) string, key string, fallback int) int {
	if value := getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

// newFlagSet binds the command line flags to opts. RAYTRACER_* environment
// variables supply the defaults.
func newFlagSet(opts *options, getenv func(string) string) *flag.FlagSet {
	fs := flag.NewFlagSet("raytracer", flag.ContinueOnError)

	fs.StringVar(&opts.sceneID, "scene", envString(getenv, "RAYTRACER_SCENE", "default"), "Scene ID: 'default', 'normals', 'sky' or 'file:<name>' from the scenes directory")
	fs.StringVar(&opts.sceneFile, "scene-file", "", "Path to a JSON scene file (overrides -scene)")
	fs.IntVar(&opts.width, "width", envInt(getenv, "RAYTRACER_WIDTH", 0), "Image width in pixels (0 = scene default)")
	fs.IntVar(&opts.samples, "samples", envInt(getenv, "RAYTRACER_SAMPLES", 0), "Samples per pixel (0 = scene default)")
	fs.IntVar(&opts.depth, "depth", -1, "Maximum ray bounce depth (-1 = scene default)")
	fs.StringVar(&opts.shading, "shading", "", "Shading mode: 'scatter' or 'normals' (empty = scene default)")
	fs.BoolVar(&opts.noJitter, "no-jitter", false, "Sample pixel corners instead of random positions")
	fs.BoolVar(&opts.parallel, "parallel", false, "Render tiles in parallel")
	fs.IntVar(&opts.workers, "workers", envInt(getenv, "RAYTRACER_WORKERS", 0), "Number of parallel workers (0 = auto-detect CPU count)")
	fs.IntVar(&opts.tileSize, "tile-size", renderer.DefaultParallelConfig().TileSize, "Tile size in pixels for parallel rendering")
	fs.Int64Var(&opts.seed, "seed", 42, "Random seed")
	fs.StringVar(&opts.out, "out", envString(getenv, "RAYTRACER_OUTPUT", "-"), "Output path ('-' = PPM on stdout, 'auto' = output/<scene>/render_<timestamp>.png)")
	fs.BoolVar(&opts.preview, "preview", false, "Also save a PNG thumbnail next to the output")
	fs.BoolVar(&opts.upload, "upload", false, "Upload the render to the S3 bucket configured by S3_* variables")
	fs.BoolVar(&opts.help, "help", false, "Show help information")
	return fs
}

// parseOptions parses args into options
func parseOptions(args []string, getenv func(string) string, errOut io.Writer) (options, error) {
	var opts options
	fs := newFlagSet(&opts, getenv)
	fs.SetOutput(errOut)

	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if fs.NArg() > 0 {
		return opts, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}
	if opts.out == "-" && opts.preview {
		return opts, fmt.Errorf("-preview needs a file output")
	}
	return opts, nil
}

// createScene resolves the scene named by the options
func createScene(opts options) (*scene.Scene, error) {
	if opts.sceneFile != "" {
		return scene.LoadSceneFile(opts.sceneFile)
	}
	if strings.HasSuffix(opts.sceneID, ".json") {
		return scene.LoadSceneFile(opts.sceneID)
	}
	return scene.LoadScene(opts.sceneID, scene.FindScenesDir())
}

// applyOverrides applies command line overrides to the scene's settings
func applyOverrides(s *scene.Scene, opts options) error {
	if opts.width > 0 {
		s.SetWidth(opts.width)
	}
	if opts.samples > 0 {
		s.SamplingConfig.SamplesPerPixel = opts.samples
	}
	if opts.depth >= 0 {
		s.SamplingConfig.MaxDepth = opts.depth
	}
	if opts.shading != "" {
		shading, err := renderer.ParseShading(opts.shading)
		if err != nil {
			return err
		}
		s.SamplingConfig.Shading = shading
	}
	if opts.noJitter {
		s.SamplingConfig.Jitter = false
	}
	return s.SamplingConfig.Validate()
}

// render runs the reference or the parallel renderer
func render(ctx context.Context, s *scene.Scene, opts options, logger core.Logger) (*image.RGBA, renderer.RenderStats, error) {
	rt, err := s.NewRaytracer()
	if err != nil {
		return nil, renderer.RenderStats{}, err
	}
	rt.SetLogger(logger)
	rt.SetSampler(core.NewSeededSampler(opts.seed))

	if !opts.parallel {
		img, stats := rt.RenderPass()
		return img, stats, nil
	}

	pr, err := renderer.NewParallelRenderer(rt, renderer.ParallelConfig{
		TileSize:   opts.tileSize,
		NumWorkers: opts.workers,
		Seed:       opts.seed,
	}, logger)
	if err != nil {
		return nil, renderer.RenderStats{}, err
	}

	return pr.Render(ctx, func(result renderer.TileCompletionResult) {
		step := max(1, result.TotalTiles/10)
		if result.TileNumber%step == 0 || result.TileNumber == result.TotalTiles {
			logger.Printf("Tiles completed: %d/%d\n", result.TileNumber, result.TotalTiles)
		}
	})
}

// sceneDirName reduces a scene name to a single safe path segment: lowercase
// letters, digits, '-' and '_', with every other run of characters becoming '-'
func sceneDirName(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' {
			b.WriteRune(r)
			dash = false
		} else if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	if dir := strings.TrimRight(b.String(), "-"); dir != "" {
		return dir
	}
	return "scene"
}

// outputPath resolves 'auto' to a timestamped file under output/<scene>
func outputPath(out, sceneName string, now time.Time) string {
	if out != "auto" {
		return out
	}
	timestamp := now.Format("20060102_150405")
	return filepath.Join("output", sceneDirName(sceneName), fmt.Sprintf("render_%s.png", timestamp))
}

// writeOutput writes the image to stdout or a file and returns the path written ("" for stdout)
func writeOutput(img image.Image, out string, stdout io.Writer) (string, error) {
	if out == "-" {
		return "", output.WritePPM(stdout, img)
	}
	if err := os.MkdirAll(filepath.Dir(out), 0755); err != nil {
		return "", fmt.Errorf("error creating output directory: %w", err)
	}
	if err := output.Save(img, out); err != nil {
		return "", err
	}
	return out, nil
}

// uploadRender stores the image in the configured bucket under <scene>/<file>
func uploadRender(ctx context.Context, img image.Image, sceneName, path string, logger core.Logger) error {
	uploader, err := output.NewS3Uploader(output.S3ConfigFromEnv(), logger)
	if err != nil {
		return err
	}

	format := "png"
	dir := sceneDirName(sceneName)
	name := fmt.Sprintf("%s/render_%d.png", dir, time.Now().Unix())
	if path != "" {
		format = strings.TrimPrefix(filepath.Ext(path), ".")
		name = dir + "/" + filepath.Base(path)
	}
	_, err = uploader.UploadImage(ctx, name, img, format)
	return err
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	opts, err := parseOptions(args, os.Getenv, stderr)
	if err != nil {
		return err
	}
	if opts.help {
		printHelp(stderr, os.Getenv)
		return nil
	}

	// Progress goes to stderr because stdout may carry the image
	logger := renderer.NewStreamLogger(stderr)

	s, err := createScene(opts)
	if err != nil {
		return err
	}
	if err := applyOverrides(s, opts); err != nil {
		return err
	}

	width, height := s.ImageSize()
	logger.Printf("Rendering scene %q at %dx%d, %d samples/pixel, depth %d\n",
		s.Name, width, height, s.SamplingConfig.SamplesPerPixel, s.SamplingConfig.MaxDepth)

	img, stats, err := render(ctx, s, opts, logger)
	if err != nil {
		return err
	}
	logger.Printf("Average luminance: %.3f\n", renderer.CalculateAverageLuminance(img))

	path, err := writeOutput(img, outputPath(opts.out, s.Name, time.Now()), stdout)
	if err != nil {
		return err
	}
	if path != "" {
		logger.Printf("Render saved as %s (%v)\n", path, stats.Elapsed)
	}

	if opts.preview {
		previewPath := output.PreviewPath(path)
		if err := output.Save(output.Thumbnail(img, output.DefaultPreviewSize), previewPath); err != nil {
			return err
		}
		logger.Printf("Preview saved as %s\n", previewPath)
	}

	if opts.upload {
		if err := uploadRender(ctx, img, s.Name, path, logger); err != nil {
			return err
		}
	}
	return nil
}

func printHelp(w io.Writer, getenv func(string) string) {
	fmt.Fprintln(w, "Weekend Raytracer")
	fmt.Fprintln(w, "Usage: raytracer [options]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Options:")
	var opts options
	fs := newFlagSet(&opts, getenv)
	fs.SetOutput(w)
	fs.PrintDefaults()
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Available scenes:")
	for _, info := range scene.BuiltInScenes() {
		fmt.Fprintf(w, "  %-8s - %s\n", info.ID, info.Description)
	}
	if files, err := scene.ListFileScenes(scene.FindScenesDir()); err == nil {
		for _, info := range files {
			fmt.Fprintf(w, "  %s - %s\n", info.ID, info.Description)
		}
	}
}

func main() {
	// Settings in .env become RAYTRACER_* and S3_* defaults; a missing file is fine
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if err == flag.ErrHelp {
			return
		}
		log.Fatalf("Error: %v", err)
	}
}
