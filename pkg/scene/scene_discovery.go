package scene

import (
	"fmt"
	"sort"
	"strings"
)

// SceneInfo represents a built-in scene with its metadata
type SceneInfo struct {
	ID          string `json:"id"`          // Unique identifier, passed to New
	DisplayName string `json:"displayName"` // UI display name
	Description string `json:"description"` // Optional description
}

type builtinScene struct {
	description string
	build       func(Options) *Scene
}

var builtinScenes = map[string]builtinScene{
	"default": {
		description: "Diffuse, glass and metal spheres on a large ground sphere",
		build:       NewDefaultScene,
	},
	"spheregrid": {
		description: "Grid of small spheres with seeded per-row materials",
		build:       NewSphereGridScene,
	},
	"normals": {
		description: "Material-less spheres shaded by surface normal",
		build:       NewNormalsScene,
	},
}

// Names returns the IDs of all built-in scenes in sorted order
func Names() []string {
	names := make([]string, 0, len(builtinScenes))
	for name := range builtinScenes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ListScenes returns metadata for all built-in scenes, sorted by ID
func ListScenes() []SceneInfo {
	names := Names()
	scenes := make([]SceneInfo, 0, len(names))
	for _, name := range names {
		scenes = append(scenes, SceneInfo{
			ID:          name,
			DisplayName: titleCase(name),
			Description: builtinScenes[name].description,
		})
	}
	return scenes
}

// New builds the named scene
func New(name string, opts Options) (*Scene, error) {
	builtin, ok := builtinScenes[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown scene %q (available: %s)", name, strings.Join(Names(), ", "))
	}
	return builtin.build(opts), nil
}

// titleCase converts an identifier-style string to title case
// e.g., "sphere-grid" -> "Sphere Grid"
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
