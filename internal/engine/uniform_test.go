package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opencommotion/scenekit/internal/scene"
)

func newWaterScene(t *testing.T, e *Engine) *scene.State {
	t.Helper()
	st := scene.New("stage")
	mustApply(t, e, st, []scene.Op{
		{OpID: "setup-1", Kind: scene.OpCreateMaterial, MaterialID: "water", Data: map[string]any{
			"type":      "recipe",
			"recipe_id": "water_volume_tint",
		}},
	})
	return st
}

func TestSetUniformWritesValue(t *testing.T) {
	e := New(nil)
	st := newWaterScene(t, e)

	mustApply(t, e, st, []scene.Op{
		{OpID: "op-1", AtMs: 0, Kind: scene.OpSetUniform, MaterialID: "water", Uniform: "density", Value: 0.5},
	})

	m := st.Materials["mat:water#001"]
	assert.Equal(t, 0.5, m.Uniforms["density"])
	assert.Equal(t, int64(0), st.UniformUpdateAt["mat:water#001:density"])
}

func TestSetUniformRateLimited(t *testing.T) {
	e := New(nil)
	st := newWaterScene(t, e)

	// water_volume_tint caps density at 30Hz, so updates need at least
	// 33ms between them. 0ms then 10ms must reject the second write.
	_, err := e.Apply(st, []scene.Op{
		{OpID: "op-1", AtMs: 0, Kind: scene.OpSetUniform, MaterialID: "water", Uniform: "density", Value: 0.5},
		{OpID: "op-2", AtMs: 10, Kind: scene.OpSetUniform, MaterialID: "water", Uniform: "density", Value: 0.6},
	}, testPolicy(), false)

	ae, ok := AsApplyError(err)
	require.True(t, ok)
	assert.Equal(t, CodeUniformRateLimited, ae.Code)
	assert.Equal(t, "density", ae.Detail["uniform"])
	assert.Equal(t, 30.0, ae.Detail["max_hz"])

	// The whole batch rolled back, first write included.
	assert.Empty(t, st.Materials["mat:water#001"].Uniforms)
}

func TestSetUniformRateLimitSpansBatches(t *testing.T) {
	e := New(nil)
	st := newWaterScene(t, e)

	mustApply(t, e, st, []scene.Op{
		{OpID: "op-1", AtMs: 0, Kind: scene.OpSetUniform, MaterialID: "water", Uniform: "density", Value: 0.5},
	})

	_, err := e.Apply(st, []scene.Op{
		{OpID: "op-2", AtMs: 10, Kind: scene.OpSetUniform, MaterialID: "water", Uniform: "density", Value: 0.6},
	}, testPolicy(), false)
	assert.True(t, IsCode(err, CodeUniformRateLimited))

	mustApply(t, e, st, []scene.Op{
		{OpID: "op-3", AtMs: 40, Kind: scene.OpSetUniform, MaterialID: "water", Uniform: "density", Value: 0.6},
	})
	assert.Equal(t, 0.6, st.Materials["mat:water#001"].Uniforms["density"])
}

func TestSetUniformRateIsPerUniform(t *testing.T) {
	e := New(nil)
	st := newWaterScene(t, e)

	// Different uniforms on the same material do not share a window.
	mustApply(t, e, st, []scene.Op{
		{OpID: "op-1", AtMs: 0, Kind: scene.OpSetUniform, MaterialID: "water", Uniform: "density", Value: 0.5},
		{OpID: "op-2", AtMs: 5, Kind: scene.OpSetUniform, MaterialID: "water", Uniform: "blue_shift", Value: 0.3},
	})

	m := st.Materials["mat:water#001"]
	assert.Equal(t, 0.5, m.Uniforms["density"])
	assert.Equal(t, 0.3, m.Uniforms["blue_shift"])
}

func TestSetUniformRecipeRateBeatsPolicy(t *testing.T) {
	e := New(nil)
	st := scene.New("stage")
	mustApply(t, e, st, []scene.Op{
		{OpID: "setup-1", Kind: scene.OpCreateMaterial, MaterialID: "caustics", Data: map[string]any{
			"type":      "recipe",
			"recipe_id": "caustic_overlay_shader",
		}},
	})

	// scale is declared at 15Hz (67ms) even though the policy allows 30Hz.
	_, err := e.Apply(st, []scene.Op{
		{OpID: "op-1", AtMs: 0, Kind: scene.OpSetUniform, MaterialID: "caustics", Uniform: "scale", Value: 1.0},
		{OpID: "op-2", AtMs: 50, Kind: scene.OpSetUniform, MaterialID: "caustics", Uniform: "scale", Value: 1.2},
	}, testPolicy(), false)

	ae, ok := AsApplyError(err)
	require.True(t, ok)
	assert.Equal(t, CodeUniformRateLimited, ae.Code)
	assert.Equal(t, 15.0, ae.Detail["max_hz"])
}

func TestSetUniformOutOfRange(t *testing.T) {
	e := New(nil)
	st := newWaterScene(t, e)

	_, err := e.Apply(st, []scene.Op{
		{OpID: "op-1", Kind: scene.OpSetUniform, MaterialID: "water", Uniform: "density", Value: 1.5},
	}, testPolicy(), false)

	assert.True(t, IsCode(err, CodeUniformOutOfRange))
}

func TestSetUniformUnknownUniform(t *testing.T) {
	e := New(nil)
	st := newWaterScene(t, e)

	_, err := e.Apply(st, []scene.Op{
		{OpID: "op-1", Kind: scene.OpSetUniform, MaterialID: "water", Uniform: "sparkle", Value: 0.5},
	}, testPolicy(), false)

	assert.True(t, IsCode(err, CodeUnknownUniform))
}

func TestSetUniformNameRequired(t *testing.T) {
	e := New(nil)
	st := newWaterScene(t, e)

	_, err := e.Apply(st, []scene.Op{
		{OpID: "op-1", Kind: scene.OpSetUniform, MaterialID: "water", Uniform: "   ", Value: 0.5},
	}, testPolicy(), false)

	assert.True(t, IsCode(err, CodeUniformNameRequired))
}

func TestSetUniformUnknownMaterial(t *testing.T) {
	e := New(nil)
	st := scene.New("stage")

	_, err := e.Apply(st, []scene.Op{
		{OpID: "op-1", Kind: scene.OpSetUniform, MaterialID: "ghost", Uniform: "density", Value: 0.5},
	}, testPolicy(), false)

	assert.True(t, IsCode(err, CodeUnknownMaterialID))
}

func TestSetUniformOnPlainMaterialCoercesLoosely(t *testing.T) {
	e := New(nil)
	st := scene.New("stage")
	mustApply(t, e, st, []scene.Op{
		{OpID: "setup-1", Kind: scene.OpCreateMaterial, MaterialID: "flat", Data: map[string]any{"type": "unlit"}},
	})

	// Without a recipe there is no schema; numeric strings are accepted.
	mustApply(t, e, st, []scene.Op{
		{OpID: "op-1", AtMs: 0, Kind: scene.OpSetUniform, MaterialID: "flat", Uniform: "glow", Value: "0.75"},
	})
	assert.Equal(t, 0.75, st.Materials["mat:flat#001"].Uniforms["glow"])

	_, err := e.Apply(st, []scene.Op{
		{OpID: "op-2", AtMs: 100, Kind: scene.OpSetUniform, MaterialID: "flat", Uniform: "glow", Value: map[string]any{}},
	}, testPolicy(), false)
	assert.True(t, IsCode(err, CodeUniformNotNumeric))
}
