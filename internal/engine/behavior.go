package engine

import (
	"encoding/json"
	"strings"

	"github.com/opencommotion/scenekit/internal/scene"
)

// resolveTransition finds the next state for a trigger action against
// the behavior's current state. Returns "" when no transition matches;
// an unmatched trigger is recorded but is not an error.
func resolveTransition(b *scene.Behavior, action string) string {
	current := b.State
	if current == "" {
		current = b.Definition.State
	}
	if current == "" {
		current = "idle"
	}
	spec, ok := b.Definition.States[current]
	if !ok {
		return ""
	}
	for _, tr := range spec.Transitions {
		if strings.TrimSpace(tr.Event) == action {
			return strings.TrimSpace(tr.To)
		}
	}
	return ""
}

// decodeDefinition converts an op's raw data payload into a typed
// behavior definition. A JSON round-trip keeps the accepted shapes in
// one place (the Definition struct tags) instead of hand-walking maps.
// Decoding is best-effort: fields with an unexpected shape are dropped,
// mirroring how a schemaless document would simply ignore them.
func decodeDefinition(data map[string]any) scene.Definition {
	if len(data) == 0 {
		return scene.Definition{}
	}
	var def scene.Definition
	if raw, err := json.Marshal(data); err == nil {
		_ = json.Unmarshal(raw, &def)
	}
	return def
}

// mergeDefinition overlays the top-level keys present in changes onto
// the existing definition. Keys absent from changes are preserved.
func mergeDefinition(existing scene.Definition, changes map[string]any) scene.Definition {
	patch := decodeDefinition(changes)
	merged := existing.Clone()
	if _, ok := changes["type"]; ok {
		merged.Type = patch.Type
	}
	if _, ok := changes["state"]; ok {
		merged.State = patch.State
	}
	if _, ok := changes["states"]; ok {
		merged.States = patch.States
	}
	if _, ok := changes["params"]; ok {
		merged.Params = patch.Params
	}
	if _, ok := changes["name"]; ok {
		merged.Name = patch.Name
	}
	return merged
}
