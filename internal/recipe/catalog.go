// Package recipe holds the static shader recipe registry.
//
// Recipes are declared in an embedded CUE file and compiled through the
// CUE Go API at first use. CUE gives the catalog schema validation for
// free: a recipe with a missing range or a non-positive update rate
// fails to build rather than slipping into the engine.
package recipe

import (
	_ "embed"
	"fmt"
	"sort"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

//go:embed recipes.cue
var recipesCUE []byte

// UniformRule declares one allowed uniform: its numeric range, default,
// and the maximum accepted update rate in Hz.
type UniformRule struct {
	Type        string  `json:"type"`
	Default     float64 `json:"default"`
	Min         float64 `json:"min"`
	Max         float64 `json:"max"`
	MaxUpdateHz float64 `json:"max_update_hz"`
}

// TextureSlot declares one texture binding point of a recipe.
type TextureSlot struct {
	Slot         string   `json:"slot"`
	Required     bool     `json:"required"`
	MaxDimension int      `json:"max_dimension"`
	Formats      []string `json:"formats"`
}

// Recipe is a named, versioned declaration of a material's uniform
// schema and texture slots.
type Recipe struct {
	RecipeID       string                 `json:"recipe_id"`
	Version        string                 `json:"version"`
	BackendTargets []string               `json:"backend_targets"`
	Uniforms       map[string]UniformRule `json:"uniforms"`
	Textures       []TextureSlot          `json:"textures"`
}

// Catalog is an immutable set of recipes keyed by id.
type Catalog struct {
	recipes map[string]Recipe
}

// Load compiles the embedded CUE catalog into a Catalog.
func Load() (*Catalog, error) {
	ctx := cuecontext.New()
	value := ctx.CompileBytes(recipesCUE)
	if err := value.Err(); err != nil {
		return nil, fmt.Errorf("compile recipe catalog: %w", err)
	}
	return decodeCatalog(value)
}

// decodeCatalog extracts the recipes struct from a built CUE value.
func decodeCatalog(value cue.Value) (*Catalog, error) {
	recipesVal := value.LookupPath(cue.ParsePath("recipes"))
	if !recipesVal.Exists() {
		return nil, fmt.Errorf("recipe catalog missing top-level recipes struct")
	}
	iter, err := recipesVal.Fields()
	if err != nil {
		return nil, fmt.Errorf("iterate recipes: %w", err)
	}
	recipes := make(map[string]Recipe)
	for iter.Next() {
		var r Recipe
		if err := iter.Value().Decode(&r); err != nil {
			return nil, fmt.Errorf("decode recipe %q: %w", iter.Selector().Unquoted(), err)
		}
		recipes[r.RecipeID] = r
	}
	if len(recipes) == 0 {
		return nil, fmt.Errorf("recipe catalog is empty")
	}
	return &Catalog{recipes: recipes}, nil
}

// defaultCatalog memoizes the embedded catalog. The embedded CUE ships
// with the binary, so a build failure here is a programming error.
var defaultCatalog = sync.OnceValue(func() *Catalog {
	c, err := Load()
	if err != nil {
		panic(fmt.Sprintf("recipe: embedded catalog failed to build: %v", err))
	}
	return c
})

// Default returns the built-in catalog shared by the process.
func Default() *Catalog {
	return defaultCatalog()
}

// Get looks up a recipe by id.
func (c *Catalog) Get(id string) (Recipe, bool) {
	r, ok := c.recipes[id]
	return r, ok
}

// List returns all recipes sorted by id.
func (c *Catalog) List() []Recipe {
	out := make([]Recipe, 0, len(c.recipes))
	for _, r := range c.recipes {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RecipeID < out[j].RecipeID })
	return out
}

// Len returns the number of recipes in the catalog.
func (c *Catalog) Len() int {
	return len(c.recipes)
}
