package engine

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/opencommotion/scenekit/internal/recipe"
	"github.com/opencommotion/scenekit/internal/scene"
)

// builtinMaterialTypes are material types that need no recipe backing.
var builtinMaterialTypes = map[string]bool{
	"pbr":   true,
	"unlit": true,
}

// Engine applies op batches against scene state. It is stateless apart
// from the recipe catalog and safe to share across scenes.
type Engine struct {
	recipes *recipe.Catalog
}

// New creates an Engine. A nil catalog selects the built-in one.
func New(recipes *recipe.Catalog) *Engine {
	if recipes == nil {
		recipes = recipe.Default()
	}
	return &Engine{recipes: recipes}
}

// Result reports what a successful Apply committed.
type Result struct {
	// AppliedOps are the freshly committed ops in applied order
	// (duplicates excluded).
	AppliedOps []scene.Op `json:"applied_ops"`
	// Warnings are non-fatal notes for this batch, e.g.
	// "op_duplicate_ignored:<id>".
	Warnings []string `json:"warnings"`
	// DegradeNotes is reserved for quality fallbacks; always empty today.
	DegradeNotes []string `json:"degrade_notes"`
}

// Apply interprets one ordered op batch as a single logical turn.
//
// Pipeline: op-count precheck -> normalize -> rebuild heuristic ->
// per-op dispatch (skipping already-applied op ids with a warning) ->
// end-state cap enforcement -> commit (revision+1, dedup set, bounded
// warning history).
//
// On error the scene is untouched; see the package doc for atomicity.
func (e *Engine) Apply(st *scene.State, ops []scene.Op, policy Policy, explicitRebuild bool) (*Result, error) {
	if len(ops) > policy.MaxOpsPerTurn {
		return nil, applyError(CodePatchBudgetExceeded, "patch op count exceeds cap", map[string]any{
			"cap": policy.MaxOpsPerTurn, "count": len(ops), "scope": "ops_per_turn",
		})
	}

	normalized := scene.NormalizeOps(ops)
	if looksLikeRebuild(st, normalized) && !explicitRebuild {
		return nil, applyError(CodeSuspiciousRebuild,
			"follow-up patch set looks like a scene rebuild",
			map[string]any{"hint": "set intent.rebuild=true for explicit rebuild turns"})
	}

	// Stage every mutation on a clone; the live scene is replaced only
	// after the whole batch, caps included, has succeeded.
	stage := st.Clone()

	seen := make(map[string]bool, len(stage.AppliedOpIDs)+len(normalized))
	for _, id := range stage.AppliedOpIDs {
		seen[id] = true
	}

	var warnings []string
	var applied []scene.Op
	for _, op := range normalized {
		if op.OpID == "" {
			continue
		}
		if seen[op.OpID] {
			warnings = append(warnings, "op_duplicate_ignored:"+op.OpID)
			continue
		}
		if err := e.applyOp(stage, op, policy); err != nil {
			return nil, err
		}
		seen[op.OpID] = true
		applied = append(applied, op)
	}

	if err := enforceCaps(stage, policy); err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	stage.AppliedOpIDs = ids
	stage.Revision++
	stage.AppendWarnings(warnings)

	*st = *stage

	slog.Debug("op batch applied",
		"scene_id", st.SceneID,
		"revision", st.Revision,
		"applied", len(applied),
		"warnings", len(warnings),
	)

	return &Result{AppliedOps: applied, Warnings: warnings, DegradeNotes: []string{}}, nil
}

// applyOp dispatches one op by kind. Every mutation runs against the
// staging scene.
func (e *Engine) applyOp(st *scene.State, op scene.Op, policy Policy) error {
	switch op.Kind {
	case scene.OpCreateEntity:
		return e.createEntity(st, op)
	case scene.OpUpdateEntity:
		return e.updateEntity(st, op)
	case scene.OpDestroyEntity:
		entityID := st.CanonicalID(scene.NamespaceEntity, op.EntityID)
		delete(st.Entities, entityID)
		delete(st.Bindings.EntityToMaterial, entityID)
		return nil
	case scene.OpCreateMaterial:
		return e.createMaterial(st, op)
	case scene.OpUpdateMaterial:
		return e.updateMaterial(st, op)
	case scene.OpDestroyMaterial:
		materialID := st.CanonicalID(scene.NamespaceMaterial, op.MaterialID)
		delete(st.Materials, materialID)
		for entityID, boundID := range st.Bindings.EntityToMaterial {
			if boundID == materialID {
				delete(st.Bindings.EntityToMaterial, entityID)
			}
		}
		return nil
	case scene.OpApplyMaterial:
		return e.applyMaterial(st, op)
	case scene.OpSetUniform:
		return e.applySetUniform(st, op, policy)
	case scene.OpCreateBehavior:
		return e.createBehavior(st, op)
	case scene.OpUpdateBehavior:
		return e.updateBehavior(st, op)
	case scene.OpDestroyBehavior:
		behaviorID := st.CanonicalID(scene.NamespaceBehavior, op.BehaviorID)
		delete(st.Behaviors, behaviorID)
		return nil
	case scene.OpTrigger:
		return e.applyTrigger(st, op)
	default:
		return applyError(CodeUnsupportedOp,
			fmt.Sprintf("unsupported patch op %q", op.Kind),
			map[string]any{"op": string(op.Kind)})
	}
}

func (e *Engine) createEntity(st *scene.State, op scene.Op) error {
	entityID := st.CanonicalID(scene.NamespaceEntity, op.EntityID)
	kind := strings.ToLower(strings.TrimSpace(op.EntityKind))
	if kind == "" {
		return applyError(CodeUnknownEntityKind, "entity kind is required",
			map[string]any{"entity_id": entityID})
	}
	data := scene.CloneAnyMap(op.Data)
	lastTrigger := ""
	if existing, ok := st.Entities[entityID]; ok {
		// Re-creating an existing id merges over it rather than resetting.
		data = mergeData(existing.Data, op.Data)
		lastTrigger = existing.LastTrigger
	}
	st.Entities[entityID] = &scene.Entity{
		ID:          entityID,
		Kind:        kind,
		Data:        data,
		LastTrigger: lastTrigger,
		UpdatedAtMs: op.AtMs,
	}
	return nil
}

func (e *Engine) updateEntity(st *scene.State, op scene.Op) error {
	entityID := st.CanonicalID(scene.NamespaceEntity, op.EntityID)
	entity, ok := st.Entities[entityID]
	if !ok {
		return applyError(CodeUnknownEntityID,
			fmt.Sprintf("entity %q was not found", entityID),
			map[string]any{"entity_id": entityID})
	}
	changes := scene.CloneAnyMap(op.Changes)
	if kind, ok := stringField(changes, "kind"); ok {
		entity.Kind = strings.ToLower(strings.TrimSpace(kind))
		delete(changes, "kind")
	}
	if lastTrigger, ok := stringField(changes, "last_trigger"); ok {
		entity.LastTrigger = lastTrigger
		delete(changes, "last_trigger")
	}
	entity.Data = mergeData(entity.Data, changes)
	entity.UpdatedAtMs = op.AtMs
	return nil
}

func (e *Engine) createMaterial(st *scene.State, op scene.Op) error {
	materialID := st.CanonicalID(scene.NamespaceMaterial, op.MaterialID)
	data := scene.CloneAnyMap(op.Data)

	materialType := "unlit"
	if t, ok := stringField(data, "type"); ok {
		if trimmed := strings.ToLower(strings.TrimSpace(t)); trimmed != "" {
			materialType = trimmed
		}
	}
	recipeID, _ := stringField(data, "recipe_id")
	if recipeID == "" {
		recipeID, _ = stringField(data, "shader_id")
	}
	recipeID = strings.TrimSpace(recipeID)

	if !builtinMaterialTypes[materialType] && recipeID == "" {
		return applyError(CodeUnknownRecipeID,
			fmt.Sprintf("material %q requires recipe_id for non-built-in type", materialID),
			map[string]any{"material_id": materialID})
	}
	if recipeID != "" {
		if _, ok := e.recipes.Get(recipeID); !ok {
			return applyError(CodeUnknownRecipeID,
				fmt.Sprintf("recipe %q is not available", recipeID),
				map[string]any{"material_id": materialID, "recipe_id": recipeID})
		}
	}

	uniforms := uniformMap(data["uniforms"])
	delete(data, "type")
	delete(data, "recipe_id")
	delete(data, "shader_id")
	delete(data, "uniforms")

	var extra map[string]any
	if existing, ok := st.Materials[materialID]; ok {
		extra = mergeData(existing.Data, data)
	} else {
		extra = data
	}
	st.Materials[materialID] = &scene.Material{
		ID:          materialID,
		Type:        materialType,
		RecipeID:    recipeID,
		Uniforms:    uniforms,
		Data:        extra,
		UpdatedAtMs: op.AtMs,
	}
	return nil
}

func (e *Engine) updateMaterial(st *scene.State, op scene.Op) error {
	materialID := st.CanonicalID(scene.NamespaceMaterial, op.MaterialID)
	material, ok := st.Materials[materialID]
	if !ok {
		return applyError(CodeUnknownMaterialID,
			fmt.Sprintf("material %q was not found", materialID),
			map[string]any{"material_id": materialID})
	}
	changes := scene.CloneAnyMap(op.Changes)
	if _, present := changes["recipe_id"]; present {
		recipeID, _ := stringField(changes, "recipe_id")
		recipeID = strings.TrimSpace(recipeID)
		if recipeID != "" {
			if _, ok := e.recipes.Get(recipeID); !ok {
				return applyError(CodeUnknownRecipeID,
					fmt.Sprintf("recipe %q is not available", recipeID),
					map[string]any{"material_id": materialID, "recipe_id": recipeID})
			}
		}
		material.RecipeID = recipeID
		delete(changes, "recipe_id")
	}
	if t, ok := stringField(changes, "type"); ok {
		if trimmed := strings.ToLower(strings.TrimSpace(t)); trimmed != "" {
			material.Type = trimmed
		}
		delete(changes, "type")
	}
	if raw, present := changes["uniforms"]; present {
		for name, value := range uniformMap(raw) {
			if material.Uniforms == nil {
				material.Uniforms = make(map[string]float64)
			}
			material.Uniforms[name] = value
		}
		delete(changes, "uniforms")
	}
	material.Data = mergeData(material.Data, changes)
	material.UpdatedAtMs = op.AtMs
	return nil
}

func (e *Engine) applyMaterial(st *scene.State, op scene.Op) error {
	entityID := st.CanonicalID(scene.NamespaceEntity, op.EntityID)
	materialID := st.CanonicalID(scene.NamespaceMaterial, op.MaterialID)
	if _, ok := st.Entities[entityID]; !ok {
		return applyError(CodeUnknownEntityID,
			fmt.Sprintf("entity %q was not found", entityID),
			map[string]any{"entity_id": entityID})
	}
	if _, ok := st.Materials[materialID]; !ok {
		return applyError(CodeUnknownMaterialID,
			fmt.Sprintf("material %q was not found", materialID),
			map[string]any{"material_id": materialID})
	}
	st.Bindings.EntityToMaterial[entityID] = materialID
	return nil
}

func (e *Engine) createBehavior(st *scene.State, op scene.Op) error {
	behaviorID := st.CanonicalID(scene.NamespaceBehavior, op.BehaviorID)
	targetID := st.CanonicalID(scene.NamespaceEntity, op.TargetID)
	if _, ok := st.Entities[targetID]; !ok {
		return applyError(CodeUnknownEntityID,
			fmt.Sprintf("behavior target %q was not found", targetID),
			map[string]any{"target_id": targetID})
	}
	def := decodeDefinition(op.Data)
	state := def.State
	if state == "" {
		state = "idle"
	}
	lastTrigger := ""
	if existing, ok := st.Behaviors[behaviorID]; ok {
		lastTrigger = existing.LastTrigger
	}
	st.Behaviors[behaviorID] = &scene.Behavior{
		ID:          behaviorID,
		TargetID:    targetID,
		Definition:  def,
		State:       state,
		LastTrigger: lastTrigger,
		UpdatedAtMs: op.AtMs,
	}
	return nil
}

func (e *Engine) updateBehavior(st *scene.State, op scene.Op) error {
	behaviorID := st.CanonicalID(scene.NamespaceBehavior, op.BehaviorID)
	behavior, ok := st.Behaviors[behaviorID]
	if !ok {
		return applyError(CodeUnknownBehaviorID,
			fmt.Sprintf("behavior %q was not found", behaviorID),
			map[string]any{"behavior_id": behaviorID})
	}
	changes := op.Changes
	if state, ok := stringField(changes, "state"); ok {
		behavior.State = state
	}
	if target, ok := stringField(changes, "target_id"); ok && target != "" {
		behavior.TargetID = st.CanonicalID(scene.NamespaceEntity, target)
	}
	if lastTrigger, ok := stringField(changes, "last_trigger"); ok {
		behavior.LastTrigger = lastTrigger
	}
	if rawDef, present := changes["definition"]; present {
		if defMap, ok := rawDef.(map[string]any); ok {
			behavior.Definition = mergeDefinition(behavior.Definition, defMap)
		}
	}
	behavior.UpdatedAtMs = op.AtMs
	return nil
}

func (e *Engine) applyTrigger(st *scene.State, op scene.Op) error {
	targetID := strings.TrimSpace(op.TargetID)
	action := strings.TrimSpace(op.Action)
	if targetID == "" || action == "" {
		return applyError(CodeInvalidTrigger, "trigger requires target_id and action",
			map[string]any{"target_id": targetID, "action": action})
	}

	behaviorID := st.CanonicalID(scene.NamespaceBehavior, targetID)
	if behavior, ok := st.Behaviors[behaviorID]; ok {
		behavior.LastTrigger = action
		if next := resolveTransition(behavior, action); next != "" {
			behavior.State = next
		}
	} else {
		entityID := st.CanonicalID(scene.NamespaceEntity, targetID)
		entity, ok := st.Entities[entityID]
		if !ok {
			return applyError(CodeUnknownTriggerTarget,
				fmt.Sprintf("trigger target %q was not found", targetID),
				map[string]any{"target_id": targetID})
		}
		entity.LastTrigger = action
	}

	st.AppendTrigger(scene.TriggerEvent{TargetID: targetID, Action: action, AtMs: op.AtMs})
	return nil
}

// mergeData shallow-merges src over a copy of dst. Nil results stay nil
// so empty payloads round-trip without growing the document.
func mergeData(dst, src map[string]any) map[string]any {
	if len(dst) == 0 && len(src) == 0 {
		return nil
	}
	out := scene.CloneAnyMap(dst)
	if out == nil {
		out = make(map[string]any, len(src))
	}
	for k, v := range src {
		out[k] = scene.CloneValue(v)
	}
	return out
}

// stringField pulls a string-typed value out of a decoded-JSON map.
func stringField(m map[string]any, key string) (string, bool) {
	raw, ok := m[key]
	if !ok {
		return "", false
	}
	s, ok := raw.(string)
	return s, ok
}

// uniformMap coerces a decoded-JSON uniforms payload into typed floats.
// Non-numeric entries are dropped; createMaterial is lenient here, only
// setUniform validates strictly.
func uniformMap(raw any) map[string]float64 {
	m, ok := raw.(map[string]any)
	if !ok || len(m) == 0 {
		return nil
	}
	out := make(map[string]float64, len(m))
	for name, value := range m {
		if numeric, ok := recipe.CoerceNumeric(value); ok {
			out[name] = numeric
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
