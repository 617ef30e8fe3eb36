package main

import (
	"bytes"
	"context"
	"errors"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/df07/go-weekend-raytracer/pkg/renderer"
	"github.com/df07/go-weekend-raytracer/pkg/scene"
)

func noEnv(string) string { return "" }

func TestParseOptions_Defaults(t *testing.T) {
	opts, err := parseOptions(nil, noEnv, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("parseOptions: %v", err)
	}
	if opts.sceneID != "default" || opts.out != "-" || opts.seed != 42 || opts.depth != -1 {
		t.Errorf("Unexpected defaults %+v", opts)
	}
	if opts.tileSize != renderer.DefaultParallelConfig().TileSize {
		t.Errorf("Unexpected tile size %d", opts.tileSize)
	}
}

func TestParseOptions_EnvironmentDefaults(t *testing.T) {
	env := map[string]string{
		"RAYTRACER_SCENE":   "normals",
		"RAYTRACER_WIDTH":   "320",
		"RAYTRACER_SAMPLES": "not-a-number",
		"RAYTRACER_OUTPUT":  "auto",
	}
	getenv := func(key string) string { return env[key] }

	opts, err := parseOptions(nil, getenv, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("parseOptions: %v", err)
	}
	if opts.sceneID != "normals" || opts.width != 320 || opts.samples != 0 || opts.out != "auto" {
		t.Errorf("Unexpected options %+v", opts)
	}

	// Flags win over the environment
	opts, err = parseOptions([]string{"-scene", "sky", "-width", "64"}, getenv, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("parseOptions: %v", err)
	}
	if opts.sceneID != "sky" || opts.width != 64 {
		t.Errorf("Flags should override environment, got %+v", opts)
	}
}

func TestParseOptions_Errors(t *testing.T) {
	tests := [][]string{
		{"-width", "wide"},
		{"-unknown"},
		{"stray-argument"},
		{"-preview"}, // preview needs a file output
	}
	for _, args := range tests {
		if _, err := parseOptions(args, noEnv, &bytes.Buffer{}); err == nil {
			t.Errorf("Expected error for %v", args)
		}
	}
}

func TestCreateScene(t *testing.T) {
	dir := t.TempDir()
	sceneFile := filepath.Join(dir, "ball.json")
	content := `{"materials": {"m": {"kind": "metal", "albedo": [0.5, 0.5, 0.5]}},
		"spheres": [{"center": [0, 0, -1], "radius": 0.5, "material": "m"}]}`
	if err := os.WriteFile(sceneFile, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	tests := []struct {
		name        string
		opts        options
		expectError bool
		shapes      int
	}{
		{"default scene", options{sceneID: "default"}, false, 4},
		{"normals scene", options{sceneID: "normals"}, false, 2},
		{"sky scene", options{sceneID: "sky"}, false, 0},
		{"scene file flag", options{sceneID: "default", sceneFile: sceneFile}, false, 1},
		{"scene file by path", options{sceneID: sceneFile}, false, 1},
		{"unknown scene", options{sceneID: "nonexistent"}, true, 0},
		{"missing file", options{sceneFile: filepath.Join(dir, "missing.json")}, true, 0},
		{"empty scene name", options{sceneID: ""}, true, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := createScene(tt.opts)
			if tt.expectError {
				if err == nil {
					t.Errorf("Expected error, got scene %v", s)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if s.World.Len() != tt.shapes {
				t.Errorf("Expected %d shapes, got %d", tt.shapes, s.World.Len())
			}
			if width, height := s.ImageSize(); width <= 0 || height <= 0 {
				t.Errorf("Scene size should be positive, got %dx%d", width, height)
			}
		})
	}

	if _, err := createScene(options{sceneID: "nonexistent"}); !errors.Is(err, scene.ErrUnknownScene) {
		t.Errorf("Expected ErrUnknownScene, got %v", err)
	}
}

func TestApplyOverrides(t *testing.T) {
	s := scene.NewDefaultScene()
	opts := options{width: 64, samples: 3, depth: 0, shading: "normals", noJitter: true}
	if err := applyOverrides(s, opts); err != nil {
		t.Fatalf("applyOverrides: %v", err)
	}

	expected := renderer.SamplingConfig{SamplesPerPixel: 3, MaxDepth: 0, Jitter: false, Shading: renderer.ShadeNormals}
	if s.SamplingConfig != expected {
		t.Errorf("Expected %+v, got %+v", expected, s.SamplingConfig)
	}
	if width, height := s.ImageSize(); width != 64 || height != 36 {
		t.Errorf("Expected 64x36, got %dx%d", width, height)
	}

	// Unset overrides keep the scene's settings
	s = scene.NewDefaultScene()
	if err := applyOverrides(s, options{depth: -1}); err != nil {
		t.Fatalf("applyOverrides: %v", err)
	}
	if s.SamplingConfig != renderer.DefaultSamplingConfig() {
		t.Errorf("Expected scene defaults, got %+v", s.SamplingConfig)
	}

	if err := applyOverrides(scene.NewDefaultScene(), options{depth: -1, shading: "phong"}); err == nil {
		t.Error("Expected error for unknown shading")
	}
}

func TestOutputPath(t *testing.T) {
	now := time.Date(2024, 3, 9, 14, 5, 6, 0, time.UTC)
	if got := outputPath("auto", "default", now); got != filepath.Join("output", "default", "render_20240309_140506.png") {
		t.Errorf("Unexpected auto path %q", got)
	}
	if got := outputPath("out.ppm", "default", now); got != "out.ppm" {
		t.Errorf("Explicit path should be kept, got %q", got)
	}

	// Scene file names are free text and must stay inside output/
	for _, name := range []string{"../x", "../../etc", "/abs/path", "a/../../b", ".."} {
		got := outputPath("auto", name, now)
		rel, err := filepath.Rel("output", got)
		if err != nil || strings.HasPrefix(rel, "..") || filepath.Dir(rel) == "." || strings.Contains(filepath.Dir(rel), string(filepath.Separator)) {
			t.Errorf("outputPath(auto, %q) = %q escapes or nests under output/", name, got)
		}
	}
}

func TestSceneDirName(t *testing.T) {
	tests := []struct {
		in       string
		expected string
	}{
		{"default", "default"},
		{"Glass Row", "glass-row"},
		{"diffuse_pair", "diffuse_pair"},
		{"../x", "x"},
		{"a/../../b", "a-b"},
		{"Mirror Ball!", "mirror-ball"},
		{"..", "scene"},
		{"", "scene"},
	}
	for _, tt := range tests {
		if got := sceneDirName(tt.in); got != tt.expected {
			t.Errorf("sceneDirName(%q) = %q, expected %q", tt.in, got, tt.expected)
		}
	}
}

func TestRun_PPMToStdout(t *testing.T) {
	var stdout, stderr bytes.Buffer
	args := []string{"-scene", "normals", "-width", "32", "-samples", "1", "-no-jitter"}
	if err := run(context.Background(), args, &stdout, &stderr); err != nil {
		t.Fatalf("run: %v", err)
	}

	// 32 wide at 16:9 is 18 rows
	lines := strings.Split(strings.TrimSuffix(stdout.String(), "\n"), "\n")
	if lines[0] != "P3" || lines[1] != "32 18" || lines[2] != "255" {
		t.Fatalf("Unexpected header %q", lines[:3])
	}
	if len(lines) != 3+32*18 {
		t.Errorf("Expected %d lines, got %d", 3+32*18, len(lines))
	}
	if !strings.Contains(stderr.String(), "Rendering scene") {
		t.Errorf("Expected progress on stderr, got %q", stderr.String())
	}
}

func TestRun_ParallelMatchesSequentialWithoutRandomness(t *testing.T) {
	base := []string{"-scene", "normals", "-width", "40", "-samples", "1", "-no-jitter"}

	var sequential, parallel bytes.Buffer
	if err := run(context.Background(), base, &sequential, &bytes.Buffer{}); err != nil {
		t.Fatalf("sequential run: %v", err)
	}
	args := append(append([]string{}, base...), "-parallel", "-workers", "3", "-tile-size", "8")
	if err := run(context.Background(), args, &parallel, &bytes.Buffer{}); err != nil {
		t.Fatalf("parallel run: %v", err)
	}
	if sequential.String() != parallel.String() {
		t.Error("Parallel output should match sequential output for deterministic shading")
	}
}

func TestRun_FileOutputWithPreview(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "renders", "sky.png")
	args := []string{"-scene", "sky", "-width", "600", "-out", out, "-preview"}
	if err := run(context.Background(), args, &bytes.Buffer{}, &bytes.Buffer{}); err != nil {
		t.Fatalf("run: %v", err)
	}

	file, err := os.Open(out)
	if err != nil {
		t.Fatalf("Open output: %v", err)
	}
	defer file.Close()
	img, err := png.Decode(file)
	if err != nil {
		t.Fatalf("Decode output: %v", err)
	}
	if img.Bounds().Dx() != 600 || img.Bounds().Dy() != 337 {
		t.Errorf("Expected 600x337, got %v", img.Bounds())
	}

	preview, err := os.Open(filepath.Join(dir, "renders", "sky.preview.png"))
	if err != nil {
		t.Fatalf("Open preview: %v", err)
	}
	defer preview.Close()
	thumb, err := png.Decode(preview)
	if err != nil {
		t.Fatalf("Decode preview: %v", err)
	}
	if thumb.Bounds().Dx() != 256 {
		t.Errorf("Expected 256px wide preview, got %v", thumb.Bounds())
	}
}

func TestRun_Help(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if err := run(context.Background(), []string{"-help"}, &stdout, &stderr); err != nil {
		t.Fatalf("run: %v", err)
	}
	if stdout.Len() != 0 {
		t.Error("Help should not write to stdout")
	}
	for _, want := range []string{"-scene", "default", "normals", "sky"} {
		if !strings.Contains(stderr.String(), want) {
			t.Errorf("Help output missing %q", want)
		}
	}
}

func TestRun_UploadWithoutConfig(t *testing.T) {
	t.Setenv("S3_BUCKET", "")
	args := []string{"-scene", "sky", "-width", "16", "-upload"}
	if err := run(context.Background(), args, &bytes.Buffer{}, &bytes.Buffer{}); err == nil {
		t.Error("Expected error when S3 is not configured")
	}
}
