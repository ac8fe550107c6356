package engine

import (
	"strings"

	"github.com/opencommotion/scenekit/internal/scene"
)

// threeDKinds is the fixed classification of entity kinds that count
// against the 3D cap. Everything else counts as 2D.
var threeDKinds = map[string]bool{
	"mesh":        true,
	"camera":      true,
	"light":       true,
	"environment": true,
}

// entityCounts splits the scene's entities into (2D, 3D) by kind.
func entityCounts(st *scene.State) (twoD, threeD int) {
	for _, e := range st.Entities {
		kind := strings.ToLower(strings.TrimSpace(e.Kind))
		if threeDKinds[kind] {
			threeD++
		} else {
			twoD++
		}
	}
	return twoD, threeD
}

// enforceCaps checks the end-state resource counts against the policy.
// Caps are end-state only: a batch that transiently exceeds a cap but
// finishes below it passes, and there is no peak tracking.
func enforceCaps(st *scene.State, policy Policy) error {
	twoD, threeD := entityCounts(st)
	if twoD > policy.MaxEntities2D {
		return applyError(CodePatchBudgetExceeded, "2D entity cap exceeded", map[string]any{
			"cap": policy.MaxEntities2D, "count": twoD, "scope": "entities_2d",
		})
	}
	if threeD > policy.MaxEntities3D {
		return applyError(CodePatchBudgetExceeded, "3D entity cap exceeded", map[string]any{
			"cap": policy.MaxEntities3D, "count": threeD, "scope": "entities_3d",
		})
	}
	if len(st.Materials) > policy.MaxMaterials {
		return applyError(CodePatchBudgetExceeded, "material cap exceeded", map[string]any{
			"cap": policy.MaxMaterials, "count": len(st.Materials), "scope": "materials",
		})
	}
	if len(st.Behaviors) > policy.MaxBehaviors {
		return applyError(CodePatchBudgetExceeded, "behavior cap exceeded", map[string]any{
			"cap": policy.MaxBehaviors, "count": len(st.Behaviors), "scope": "behaviors",
		})
	}
	return nil
}
