package translate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opencommotion/scenekit/internal/scene"
)

func TestActorAddBecomesCreateEntity(t *testing.T) {
	st := scene.New("stage")

	ops, warnings := PatchesToOps([]Patch{
		{Op: "add", Path: "/actors/goldfish", AtMs: 100, Value: map[string]any{"type": "Fish", "x": 1.0}},
	}, "turn-1", "", st)

	require.Empty(t, warnings)
	require.Len(t, ops, 1)
	op := ops[0]
	assert.Equal(t, scene.OpCreateEntity, op.Kind)
	assert.Equal(t, "turn-1-op-00000", op.OpID)
	assert.Equal(t, "entity:goldfish#001", op.EntityID)
	assert.Equal(t, "fish", op.EntityKind)
	assert.Equal(t, int64(100), op.AtMs)
}

func TestActorReplaceOnExistingBecomesUpdate(t *testing.T) {
	st := scene.New("stage")
	id := st.CanonicalID(scene.NamespaceEntity, "goldfish")
	st.Entities[id] = &scene.Entity{ID: id, Kind: "fish"}

	ops, _ := PatchesToOps([]Patch{
		{Op: "replace", Path: "/actors/goldfish", Value: map[string]any{"x": 2.0}},
	}, "turn-1", "", st)

	require.Len(t, ops, 1)
	assert.Equal(t, scene.OpUpdateEntity, ops[0].Kind)
	assert.Equal(t, id, ops[0].EntityID)
	assert.Equal(t, map[string]any{"x": 2.0}, ops[0].Changes)
}

func TestActorRemove(t *testing.T) {
	st := scene.New("stage")

	ops, _ := PatchesToOps([]Patch{
		{Op: "remove", Path: "/actors/goldfish"},
	}, "turn-1", "", st)

	require.Len(t, ops, 1)
	assert.Equal(t, scene.OpDestroyEntity, ops[0].Kind)
}

func TestActorMotionBecomesBehavior(t *testing.T) {
	st := scene.New("stage")

	ops, _ := PatchesToOps([]Patch{
		{Op: "add", Path: "/actors/goldfish/motion", Value: map[string]any{"speed": 2.0}},
	}, "turn-1", "", st)

	require.Len(t, ops, 1)
	op := ops[0]
	assert.Equal(t, scene.OpCreateBehavior, op.Kind)
	assert.Equal(t, "beh:goldfish-motion#001", op.BehaviorID)
	assert.Equal(t, "entity:goldfish#001", op.TargetID)
	assert.Equal(t, "parametric_motion", op.Data["type"])
	assert.Equal(t, "motion", op.Data["name"])
	assert.Equal(t, map[string]any{"speed": 2.0}, op.Data["params"])
}

func TestActorAnimationOnExistingBehaviorBecomesUpdate(t *testing.T) {
	st := scene.New("stage")
	behID := st.CanonicalID(scene.NamespaceBehavior, "goldfish-animation")
	st.Behaviors[behID] = &scene.Behavior{ID: behID, State: "idle"}

	ops, _ := PatchesToOps([]Patch{
		{Op: "replace", Path: "/actors/goldfish/animation", Value: map[string]any{"clip": "swim"}},
	}, "turn-1", "", st)

	require.Len(t, ops, 1)
	op := ops[0]
	assert.Equal(t, scene.OpUpdateBehavior, op.Kind)
	assert.Equal(t, behID, op.BehaviorID)
	def, ok := op.Changes["definition"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "timeline", def["type"])
}

func TestUnknownActorSubPathWarns(t *testing.T) {
	st := scene.New("stage")

	ops, warnings := PatchesToOps([]Patch{
		{Op: "add", Path: "/actors/goldfish/skeleton", Value: map[string]any{}},
	}, "turn-1", "", st)

	assert.Empty(t, ops)
	assert.Equal(t, []string{"unsupported_v1_patch_path:/actors/goldfish/skeleton"}, warnings)
}

func TestMaterialShaderAliasesToRecipe(t *testing.T) {
	st := scene.New("stage")

	ops, _ := PatchesToOps([]Patch{
		{Op: "add", Path: "/materials/water-volume", Value: map[string]any{"shader_id": "water_volume_tint"}},
	}, "turn-1", "", st)

	require.Len(t, ops, 1)
	op := ops[0]
	assert.Equal(t, scene.OpCreateMaterial, op.Kind)
	assert.Equal(t, "mat:water-volume#001", op.MaterialID)
	assert.Equal(t, "recipe", op.Data["type"])
	assert.Equal(t, "water_volume_tint", op.Data["recipe_id"])
}

func TestMaterialWithoutShaderDefaultsUnlit(t *testing.T) {
	st := scene.New("stage")

	ops, _ := PatchesToOps([]Patch{
		{Op: "add", Path: "/materials/flat", Value: map[string]any{"color": "#fff"}},
	}, "turn-1", "", st)

	require.Len(t, ops, 1)
	assert.Equal(t, "unlit", ops[0].Data["type"])
}

func TestRenderPathTargetsRuntimeEntity(t *testing.T) {
	st := scene.New("stage")

	ops, _ := PatchesToOps([]Patch{
		{Op: "replace", Path: "/render/mode", Value: "wireframe"},
	}, "turn-1", "", st)

	require.Len(t, ops, 1)
	op := ops[0]
	assert.Equal(t, scene.OpCreateEntity, op.Kind)
	assert.Equal(t, "entity:runtime-render#001", op.EntityID)
	assert.Equal(t, "runtime", op.EntityKind)
	assert.Equal(t, map[string]any{"mode": "wireframe"}, op.Data)
}

func TestScalarEnvironmentValueWraps(t *testing.T) {
	st := scene.New("stage")

	ops, _ := PatchesToOps([]Patch{
		{Op: "replace", Path: "/environment", Value: "dusk"},
	}, "turn-1", "", st)

	require.Len(t, ops, 1)
	assert.Equal(t, "environment", ops[0].EntityKind)
	assert.Equal(t, map[string]any{"value": "dusk"}, ops[0].Data)
}

func TestUnsupportedPathWarnsWithoutError(t *testing.T) {
	st := scene.New("stage")

	ops, warnings := PatchesToOps([]Patch{
		{Op: "replace", Path: "/audio/volume", Value: 0.5},
		{Op: "add", Path: "/actors/goldfish", Value: map[string]any{}},
	}, "turn-1", "", st)

	assert.Len(t, ops, 1)
	assert.Equal(t, []string{"unsupported_v1_patch_path:/audio/volume"}, warnings)
}

func TestOpIDsFollowTurnIndex(t *testing.T) {
	st := scene.New("stage")

	ops, _ := PatchesToOps([]Patch{
		{Op: "add", Path: "/actors/a", AtMs: 0, Value: map[string]any{}},
		{Op: "add", Path: "/actors/b", AtMs: 0, Value: map[string]any{}},
	}, "turn-9", "", st)

	require.Len(t, ops, 2)
	assert.Equal(t, "turn-9-op-00000", ops[0].OpID)
	assert.Equal(t, "turn-9-op-00001", ops[1].OpID)
}

func TestBloopDemoSynthesis(t *testing.T) {
	st := scene.New("stage")
	fishID := st.CanonicalID(scene.NamespaceEntity, "goldfish")
	st.Entities[fishID] = &scene.Entity{ID: fishID, Kind: "fish"}
	waterID := st.CanonicalID(scene.NamespaceMaterial, "water-volume")
	st.Materials[waterID] = &scene.Material{ID: waterID, Type: "recipe", RecipeID: "water_volume_tint"}

	ops, warnings := PatchesToOps(nil, "turn-2", "make the fish go bloop", st)

	require.Empty(t, warnings)
	require.Len(t, ops, 3)
	assert.Equal(t, scene.OpCreateBehavior, ops[0].Kind)
	assert.Equal(t, int64(160), ops[0].AtMs)
	assert.Equal(t, fishID, ops[0].TargetID)
	assert.Equal(t, "bloop", ops[0].Data["state"])

	assert.Equal(t, scene.OpTrigger, ops[1].Kind)
	assert.Equal(t, int64(180), ops[1].AtMs)
	assert.Equal(t, ops[0].BehaviorID, ops[1].TargetID)
	assert.Equal(t, "bloop", ops[1].Action)

	assert.Equal(t, scene.OpSetUniform, ops[2].Kind)
	assert.Equal(t, int64(220), ops[2].AtMs)
	assert.Equal(t, waterID, ops[2].MaterialID)
	assert.Equal(t, "intensity", ops[2].Uniform)
	assert.Equal(t, 0.62, ops[2].Value)
}

func TestBloopDemoUpdatesExistingBehavior(t *testing.T) {
	st := scene.New("stage")
	fishID := st.CanonicalID(scene.NamespaceEntity, "goldfish")
	st.Entities[fishID] = &scene.Entity{ID: fishID, Kind: "fish"}
	behID := st.CanonicalID(scene.NamespaceBehavior, "goldfish-bloop")
	st.Behaviors[behID] = &scene.Behavior{ID: behID, TargetID: fishID, State: "idle"}

	ops, _ := PatchesToOps(nil, "turn-3", "blooop fish again", st)

	require.Len(t, ops, 2)
	assert.Equal(t, scene.OpUpdateBehavior, ops[0].Kind)
	assert.Equal(t, behID, ops[0].BehaviorID)
	assert.Equal(t, "bloop", ops[0].Changes["state"])
}

func TestBloopDemoNeedsFishEntity(t *testing.T) {
	st := scene.New("stage")

	ops, _ := PatchesToOps(nil, "turn-4", "fish bloop please", st)
	assert.Empty(t, ops)
}

func TestNonBloopPromptSynthesizesNothing(t *testing.T) {
	st := scene.New("stage")
	fishID := st.CanonicalID(scene.NamespaceEntity, "goldfish")
	st.Entities[fishID] = &scene.Entity{ID: fishID, Kind: "fish"}

	ops, _ := PatchesToOps(nil, "turn-5", "feed the fish", st)
	assert.Empty(t, ops)
}
