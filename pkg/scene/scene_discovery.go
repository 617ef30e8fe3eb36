package scene

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrUnknownScene is returned when a scene ID matches no built-in or file scene
var ErrUnknownScene = errors.New("unknown scene")

const (
	builtInGroup  = "Built-in Scenes"
	fileGroup     = "Scene Files"
	fileIDPrefix  = "file:"
	typeBuiltIn   = "builtin"
	typeSceneFile = "file"
)

// SceneInfo represents a discovered scene with its metadata
type SceneInfo struct {
	ID          string `json:"id"`          // Unique identifier
	Name        string `json:"name"`        // Scene name
	Description string `json:"description"` // Optional description
	Group       string `json:"group"`       // Grouping category
	Type        string `json:"type"`        // "builtin" or "file"
	FilePath    string `json:"filePath"`    // Path to the JSON file (file type only)
}

// SceneGroup represents a group of related scenes
type SceneGroup struct {
	Name   string      `json:"name"`
	Scenes []SceneInfo `json:"scenes"`
}

// ScenesResponse represents the complete response for /api/scenes
type ScenesResponse struct {
	Groups []SceneGroup `json:"groups"`
}

type builtIn struct {
	info SceneInfo
	new  func() *Scene
}

var builtInScenes = []builtIn{
	{
		info: SceneInfo{ID: "default", Name: "Default Scene", Description: "Lambertian, glass and metal spheres on a ground sphere"},
		new:  NewDefaultScene,
	},
	{
		info: SceneInfo{ID: "normals", Name: "Surface Normals", Description: "Sphere on a ground sphere colored by surface normal"},
		new:  NewNormalsScene,
	},
	{
		info: SceneInfo{ID: "sky", Name: "Sky", Description: "Empty scene showing only the background gradient"},
		new:  NewSkyScene,
	},
}

// BuiltInScenes returns the metadata of the built-in scenes in registration order
func BuiltInScenes() []SceneInfo {
	scenes := make([]SceneInfo, 0, len(builtInScenes))
	for _, b := range builtInScenes {
		info := b.info
		info.Group = builtInGroup
		info.Type = typeBuiltIn
		scenes = append(scenes, info)
	}
	return scenes
}

// FindScenesDir returns the first existing scenes directory, or "" if there is none
func FindScenesDir() string {
	// Try different possible paths for scenes directory
	for _, path := range []string{"scenes", "../scenes"} {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			return path
		}
	}
	return ""
}

// ListFileScenes scans dir for JSON scene files. A missing or empty dir yields no scenes.
func ListFileScenes(dir string) ([]SceneInfo, error) {
	if dir == "" {
		return []SceneInfo{}, nil
	}

	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to scan scenes directory: %w", err)
	}

	scenes := []SceneInfo{}
	for _, filePath := range files {
		sceneInfo, err := ReadSceneMetadata(filePath)
		if err != nil {
			// Skip unreadable files but keep listing the rest
			fmt.Fprintf(os.Stderr, "Warning: failed to read metadata for %s: %v\n", filePath, err)
			continue
		}
		scenes = append(scenes, sceneInfo)
	}

	// Sort scenes by name
	sort.Slice(scenes, func(i, j int) bool {
		return scenes[i].Name < scenes[j].Name
	})

	return scenes, nil
}

// ReadSceneMetadata reads the name, description and group of a JSON scene file
func ReadSceneMetadata(filePath string) (SceneInfo, error) {
	filename := filepath.Base(filePath)
	nameWithoutExt := strings.TrimSuffix(filename, filepath.Ext(filename))

	// Fallback values when the file leaves fields unset
	sceneInfo := SceneInfo{
		ID:       fileIDPrefix + nameWithoutExt,
		Name:     titleCase(nameWithoutExt),
		Group:    fileGroup,
		Type:     typeSceneFile,
		FilePath: filePath,
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return sceneInfo, err
	}
	cfg, err := ParseConfig(data)
	if err != nil {
		return sceneInfo, err
	}

	if cfg.Name != "" {
		sceneInfo.Name = cfg.Name
	}
	if cfg.Group != "" {
		sceneInfo.Group = cfg.Group
	}
	sceneInfo.Description = cfg.Description
	return sceneInfo, nil
}

// ListAllScenes returns both built-in and file scenes, grouped by category
func ListAllScenes(dir string) (ScenesResponse, error) {
	var response ScenesResponse

	fileScenes, err := ListFileScenes(dir)
	if err != nil {
		return response, fmt.Errorf("failed to list scene files: %w", err)
	}

	// Group scenes by their Group field
	groupMap := make(map[string][]SceneInfo)
	for _, info := range append(BuiltInScenes(), fileScenes...) {
		groupMap[info.Group] = append(groupMap[info.Group], info)
	}

	// Create ordered groups (Built-in first, then alphabetical)
	var groupNames []string
	for groupName := range groupMap {
		if groupName != builtInGroup {
			groupNames = append(groupNames, groupName)
		}
	}
	sort.Strings(groupNames)

	response.Groups = append(response.Groups, SceneGroup{
		Name:   builtInGroup,
		Scenes: groupMap[builtInGroup],
	})
	for _, groupName := range groupNames {
		response.Groups = append(response.Groups, SceneGroup{
			Name:   groupName,
			Scenes: groupMap[groupName],
		})
	}

	return response, nil
}

// LoadScene resolves a scene ID to a fresh scene. Built-in IDs are matched
// first; "file:<name>" IDs load <dir>/<name>.json.
func LoadScene(id, dir string) (*Scene, error) {
	for _, b := range builtInScenes {
		if b.info.ID == id {
			return b.new(), nil
		}
	}

	if name, ok := strings.CutPrefix(id, fileIDPrefix); ok && dir != "" && name != "" {
		// Scene names come from request parameters; keep them inside dir
		if name != filepath.Base(name) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownScene, id)
		}
		path := filepath.Join(dir, name+".json")
		if _, err := os.Stat(path); err == nil {
			return LoadSceneFile(path)
		}
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownScene, id)
}

// titleCase converts a filename-style string to title case
// e.g., "three-spheres" -> "Three Spheres"
func titleCase(s string) string {
	// Replace hyphens and underscores with spaces
	s = strings.ReplaceAll(s, "-", " ")
	s = strings.ReplaceAll(s, "_", " ")

	// Title case each word
	words := strings.Fields(s)
	for i, word := range words {
		if len(word) > 0 {
			words[i] = strings.ToUpper(word[:1]) + strings.ToLower(word[1:])
		}
	}

	return strings.Join(words, " ")
}
