// Package translate converts legacy v1 scene patches into the typed
// mutation vocabulary. Each patch path family maps onto one op; paths
// outside the known families produce a warning instead of an error so a
// partially translatable turn still applies.
//
// Translation resolves ids against the live scene so a patch that
// touches an existing resource becomes an update rather than a second
// create. That resolution mints canonical ids through the scene's alias
// table, which means translating a batch reserves ids even before the
// engine applies it.
package translate

import (
	"fmt"
	"strings"

	"github.com/opencommotion/scenekit/internal/scene"
)

// Patch is one legacy v1 patch entry.
type Patch struct {
	Op    string `json:"op"`
	Path  string `json:"path"`
	AtMs  int64  `json:"at_ms"`
	Value any    `json:"value,omitempty"`
}

// PatchesToOps translates a legacy patch batch into normalized ops.
// turnID seeds the deterministic op ids, prompt drives demo synthesis
// when the batch is empty, and st is the scene the ops will target.
func PatchesToOps(patches []Patch, turnID, prompt string, st *scene.State) ([]scene.Op, []string) {
	var ops []scene.Op
	var warnings []string

	for idx, patch := range patches {
		parts := splitPath(patch.Path)
		if len(parts) == 0 {
			continue
		}
		opID := nextOpID(turnID, idx)
		atMs := patch.AtMs

		switch {
		case parts[0] == "actors" && len(parts) >= 2:
			actorOps, handled := translateActor(st, patch, parts, opID, atMs)
			if !handled {
				warnings = append(warnings, "unsupported_v1_patch_path:"+patch.Path)
				break
			}
			ops = append(ops, actorOps...)

		case (parts[0] == "charts" || parts[0] == "fx") && len(parts) >= 2:
			hint := parts[0] + "-" + parts[1]
			entityID, exists := existingEntity(st, hint)
			if patch.Op == "remove" {
				ops = append(ops, scene.Op{OpID: opID, AtMs: atMs, Kind: scene.OpDestroyEntity, EntityID: entityID})
				break
			}
			payload := asMap(patch.Value)
			kind := stringOr(payload["type"], parts[0])
			ops = append(ops, upsertEntity(exists, opID, atMs, entityID, kind, payload))

		case parts[0] == "materials" && len(parts) >= 2:
			materialID, exists := existingMaterial(st, parts[1])
			if patch.Op == "remove" {
				ops = append(ops, scene.Op{OpID: opID, AtMs: atMs, Kind: scene.OpDestroyMaterial, MaterialID: materialID})
				break
			}
			if patch.Op != "add" && patch.Op != "replace" {
				break
			}
			payload := materialData(patch.Value)
			if exists {
				ops = append(ops, scene.Op{OpID: opID, AtMs: atMs, Kind: scene.OpUpdateMaterial, MaterialID: materialID, Changes: payload})
			} else {
				ops = append(ops, scene.Op{OpID: opID, AtMs: atMs, Kind: scene.OpCreateMaterial, MaterialID: materialID, Data: payload})
			}

		case parts[0] == "render" && len(parts) >= 2:
			entityID, exists := existingEntity(st, "runtime-render")
			payload := map[string]any{"mode": patch.Value}
			ops = append(ops, upsertEntity(exists, opID, atMs, entityID, "runtime", payload))

		case parts[0] == "environment" || parts[0] == "camera" || parts[0] == "lyrics" || parts[0] == "scene":
			entityID, exists := existingEntity(st, parts[0]+"-state")
			payload, ok := patch.Value.(map[string]any)
			if !ok {
				payload = map[string]any{"value": patch.Value}
			}
			ops = append(ops, upsertEntity(exists, opID, atMs, entityID, parts[0], payload))

		case parts[0] == "annotations":
			entityID, exists := existingEntity(st, fmt.Sprintf("annotation-%d", idx))
			payload, ok := patch.Value.(map[string]any)
			if !ok {
				payload = map[string]any{"text": fmt.Sprint(patch.Value)}
			}
			ops = append(ops, upsertEntity(exists, opID, atMs, entityID, "annotation", payload))

		default:
			warnings = append(warnings, "unsupported_v1_patch_path:"+patch.Path)
		}
	}

	if len(ops) == 0 {
		ops = synthesizeBloopDemo(st, turnID, prompt, len(patches))
	}

	return scene.NormalizeOps(ops), warnings
}

// translateActor handles the /actors/<id>[/motion|/animation] family.
// The second result is false when the sub-path is not recognized.
func translateActor(st *scene.State, patch Patch, parts []string, opID string, atMs int64) ([]scene.Op, bool) {
	actorID := parts[1]
	entityID, exists := existingEntity(st, actorID)

	if len(parts) == 2 {
		switch patch.Op {
		case "remove":
			return []scene.Op{{OpID: opID, AtMs: atMs, Kind: scene.OpDestroyEntity, EntityID: entityID}}, true
		case "add", "replace":
			payload := asMap(patch.Value)
			kind := stringOr(payload["type"], "node")
			return []scene.Op{upsertEntity(exists, opID, atMs, entityID, kind, payload)}, true
		}
		return nil, true
	}

	part := parts[2]
	if part != "motion" && part != "animation" {
		return nil, false
	}

	behaviorID, behExists := existingBehavior(st, actorID+"-"+part)
	if patch.Op == "remove" {
		return []scene.Op{{OpID: opID, AtMs: atMs, Kind: scene.OpDestroyBehavior, BehaviorID: behaviorID}}, true
	}

	defType := "parametric_motion"
	if part == "animation" {
		defType = "timeline"
	}
	params, ok := patch.Value.(map[string]any)
	if !ok {
		params = map[string]any{"value": patch.Value}
	}
	definition := map[string]any{"type": defType, "name": part, "params": params}

	if behExists {
		return []scene.Op{{
			OpID: opID, AtMs: atMs, Kind: scene.OpUpdateBehavior,
			BehaviorID: behaviorID,
			Changes:    map[string]any{"definition": definition, "target_id": entityID},
		}}, true
	}
	return []scene.Op{{
		OpID: opID, AtMs: atMs, Kind: scene.OpCreateBehavior,
		BehaviorID: behaviorID, TargetID: entityID,
		Data: definition,
	}}, true
}

// synthesizeBloopDemo emits the canned fish demo turn when the prompt
// asks for a bloop and the scene already has a fish entity.
func synthesizeBloopDemo(st *scene.State, turnID, prompt string, baseIdx int) []scene.Op {
	lowered := strings.ToLower(prompt)
	if !strings.Contains(lowered, "fish") {
		return nil
	}
	if !strings.Contains(lowered, "bloop") && !strings.Contains(lowered, "blooop") {
		return nil
	}

	fishEntityID := ""
	for entityID, entity := range st.Entities {
		if strings.ToLower(entity.Kind) == "fish" {
			fishEntityID = entityID
			break
		}
	}
	if fishEntityID == "" {
		return nil
	}

	var ops []scene.Op
	behaviorID, behExists := existingBehavior(st, "goldfish-bloop")
	if behExists {
		ops = append(ops, scene.Op{
			OpID: nextOpID(turnID, baseIdx), AtMs: 160, Kind: scene.OpUpdateBehavior,
			BehaviorID: behaviorID,
			Changes: map[string]any{
				"state":      "bloop",
				"definition": map[string]any{"type": "state_machine", "state": "bloop"},
			},
		})
	} else {
		ops = append(ops, scene.Op{
			OpID: nextOpID(turnID, baseIdx), AtMs: 160, Kind: scene.OpCreateBehavior,
			BehaviorID: behaviorID, TargetID: fishEntityID,
			Data: map[string]any{
				"type":  "state_machine",
				"state": "bloop",
				"states": map[string]any{
					"idle":  map[string]any{"transitions": []any{map[string]any{"event": "bloop", "to": "bloop"}}},
					"bloop": map[string]any{"transitions": []any{map[string]any{"event": "settle", "to": "idle"}}},
				},
			},
		})
	}
	ops = append(ops, scene.Op{
		OpID: nextOpID(turnID, baseIdx+1), AtMs: 180, Kind: scene.OpTrigger,
		TargetID: behaviorID, Action: "bloop",
	})

	for materialID := range st.Materials {
		if strings.Contains(materialID, "water") {
			ops = append(ops, scene.Op{
				OpID: nextOpID(turnID, baseIdx+2), AtMs: 220, Kind: scene.OpSetUniform,
				MaterialID: materialID, Uniform: "intensity", Value: 0.62,
			})
			break
		}
	}
	return ops
}

func upsertEntity(exists bool, opID string, atMs int64, entityID, kind string, payload map[string]any) scene.Op {
	if exists {
		return scene.Op{OpID: opID, AtMs: atMs, Kind: scene.OpUpdateEntity, EntityID: entityID, Changes: payload}
	}
	return scene.Op{OpID: opID, AtMs: atMs, Kind: scene.OpCreateEntity, EntityID: entityID, EntityKind: kind, Data: payload}
}

func existingEntity(st *scene.State, hint string) (string, bool) {
	id := st.CanonicalID(scene.NamespaceEntity, hint)
	_, ok := st.Entities[id]
	return id, ok
}

func existingMaterial(st *scene.State, hint string) (string, bool) {
	id := st.CanonicalID(scene.NamespaceMaterial, hint)
	_, ok := st.Materials[id]
	return id, ok
}

func existingBehavior(st *scene.State, hint string) (string, bool) {
	id := st.CanonicalID(scene.NamespaceBehavior, hint)
	_, ok := st.Behaviors[id]
	return id, ok
}

// materialData mirrors the material payload shape: shader_id is the
// legacy alias for recipe_id, and the type defaults to recipe when a
// shader is referenced.
func materialData(value any) map[string]any {
	row := asMap(value)
	shaderID := ""
	if raw, ok := row["shader_id"]; ok && raw != nil {
		shaderID = strings.TrimSpace(fmt.Sprint(raw))
	}
	materialType := strings.ToLower(strings.TrimSpace(stringOr(row["type"], "")))
	if materialType == "" {
		if shaderID != "" {
			materialType = "recipe"
		} else {
			materialType = "unlit"
		}
	}
	payload := make(map[string]any, len(row)+2)
	for k, v := range row {
		payload[k] = v
	}
	if _, ok := payload["type"]; !ok {
		payload["type"] = materialType
	}
	if shaderID != "" {
		if _, ok := payload["recipe_id"]; !ok {
			payload["recipe_id"] = shaderID
		}
	}
	return payload
}

func splitPath(path string) []string {
	var parts []string
	for _, part := range strings.Split(path, "/") {
		if part != "" {
			parts = append(parts, part)
		}
	}
	return parts
}

func nextOpID(turnID string, index int) string {
	return fmt.Sprintf("%s-op-%05d", turnID, index)
}

func stringOr(value any, fallback string) string {
	if value == nil {
		return fallback
	}
	s := strings.ToLower(strings.TrimSpace(fmt.Sprint(value)))
	if s == "" {
		return fallback
	}
	return s
}

func asMap(value any) map[string]any {
	if m, ok := value.(map[string]any); ok {
		return m
	}
	return map[string]any{}
}
