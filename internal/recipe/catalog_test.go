package recipe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalogBuilds(t *testing.T) {
	c := Default()
	assert.Equal(t, 3, c.Len())

	ids := make([]string, 0, c.Len())
	for _, r := range c.List() {
		ids = append(ids, r.RecipeID)
	}
	assert.Equal(t, []string{"caustic_overlay_shader", "glass_refraction_like", "water_volume_tint"}, ids)
}

func TestGlassRefractionSchema(t *testing.T) {
	r, ok := Default().Get("glass_refraction_like")
	require.True(t, ok)

	ior, ok := r.Uniforms["ior"]
	require.True(t, ok)
	assert.Equal(t, 1.18, ior.Default)
	assert.Equal(t, 1.0, ior.Min)
	assert.Equal(t, 1.6, ior.Max)
	assert.Equal(t, 30.0, ior.MaxUpdateHz)

	require.Len(t, r.Textures, 1)
	assert.Equal(t, "normalMap", r.Textures[0].Slot)
	assert.Equal(t, 2048, r.Textures[0].MaxDimension)
}

func TestCausticOverlayPerUniformRates(t *testing.T) {
	r, ok := Default().Get("caustic_overlay_shader")
	require.True(t, ok)

	// intensity stays at the full rate while scale and speed are slower.
	assert.Equal(t, 30.0, r.Uniforms["intensity"].MaxUpdateHz)
	assert.Equal(t, 15.0, r.Uniforms["scale"].MaxUpdateHz)
	assert.Equal(t, 15.0, r.Uniforms["speed"].MaxUpdateHz)
}

func TestGetUnknownRecipe(t *testing.T) {
	_, ok := Default().Get("nonexistent")
	assert.False(t, ok)
}
