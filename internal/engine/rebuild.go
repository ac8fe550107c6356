package engine

import "github.com/opencommotion/scenekit/internal/scene"

// looksLikeRebuild detects op batches that look like an unintended
// full-scene replacement: an upstream planner discarding an existing
// scene when the natural-language intent was an incremental edit.
//
// A batch is suspicious when the scene already has entities and the
// batch carries at least 3 destroys and 3 creates whose combined count
// exceeds max(8, 0.4 x existing entity count).
func looksLikeRebuild(st *scene.State, ops []scene.Op) bool {
	existing := len(st.Entities)
	if existing <= 0 {
		return false
	}
	creates, destroys := 0, 0
	for _, op := range ops {
		switch op.Kind {
		case scene.OpCreateEntity:
			creates++
		case scene.OpDestroyEntity:
			destroys++
		}
	}
	churn := creates + destroys
	threshold := 8
	if scaled := int(float64(existing) * 0.4); scaled > threshold {
		threshold = scaled
	}
	return destroys >= 3 && creates >= 3 && churn > threshold
}
