package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultPolicyBaseline(t *testing.T) {
	p := DefaultPolicy()

	assert.Equal(t, 400, p.MaxEntities2D)
	assert.Equal(t, 250, p.MaxEntities3D)
	assert.Equal(t, 120, p.MaxOpsPerTurn)
	assert.Equal(t, 128, p.MaxMaterials)
	assert.Equal(t, 256, p.MaxBehaviors)
	assert.Equal(t, 2048, p.MaxTextureDimension)
	assert.Equal(t, 128, p.MaxTextureMemoryMB)
	assert.Equal(t, 30.0, p.MaxUniformUpdateHz)
}

func TestDefaultPolicyEnvOverrides(t *testing.T) {
	t.Setenv("OPENCOMMOTION_V2_MAX_ENTITIES_2D", "50")
	t.Setenv("OPENCOMMOTION_V2_MAX_PATCH_OPS_PER_TURN", "10")
	t.Setenv("OPENCOMMOTION_V2_MAX_UNIFORM_UPDATE_HZ", "5")

	p := DefaultPolicy()
	assert.Equal(t, 50, p.MaxEntities2D)
	assert.Equal(t, 10, p.MaxOpsPerTurn)
	assert.Equal(t, 5.0, p.MaxUniformUpdateHz)
	// Untouched caps keep their defaults.
	assert.Equal(t, 250, p.MaxEntities3D)
}

func TestDefaultPolicyClampsOutOfRange(t *testing.T) {
	t.Setenv("OPENCOMMOTION_V2_MAX_ENTITIES_2D", "0")
	t.Setenv("OPENCOMMOTION_V2_MAX_MATERIALS", "999999")
	t.Setenv("OPENCOMMOTION_V2_MAX_UNIFORM_UPDATE_HZ", "0")

	p := DefaultPolicy()
	assert.Equal(t, 1, p.MaxEntities2D)
	assert.Equal(t, 10_000, p.MaxMaterials)
	assert.Equal(t, 0.1, p.MaxUniformUpdateHz)
}

func TestDefaultPolicyMalformedEnvFallsBack(t *testing.T) {
	t.Setenv("OPENCOMMOTION_V2_MAX_ENTITIES_2D", "not-a-number")

	p := DefaultPolicy()
	assert.Equal(t, 400, p.MaxEntities2D)
	assert.Equal(t, 120, p.MaxOpsPerTurn)
}
