package scene

import (
	"fmt"
	"sort"
)

// OpKind discriminates the typed mutation vocabulary. The engine's
// dispatch switch covers every kind; anything else is rejected with
// unsupported_op rather than silently dropped.
type OpKind string

const (
	OpCreateEntity    OpKind = "createEntity"
	OpUpdateEntity    OpKind = "updateEntity"
	OpDestroyEntity   OpKind = "destroyEntity"
	OpCreateMaterial  OpKind = "createMaterial"
	OpUpdateMaterial  OpKind = "updateMaterial"
	OpDestroyMaterial OpKind = "destroyMaterial"
	OpApplyMaterial   OpKind = "applyMaterial"
	OpSetUniform      OpKind = "setUniform"
	OpCreateBehavior  OpKind = "createBehavior"
	OpUpdateBehavior  OpKind = "updateBehavior"
	OpDestroyBehavior OpKind = "destroyBehavior"
	OpTrigger         OpKind = "trigger"
)

// Op is one typed mutation request. Which fields are meaningful depends
// on Kind; the JSON shape matches the planner wire format, so unused
// fields simply stay zero.
type Op struct {
	OpID string `json:"op_id,omitempty"`
	AtMs int64  `json:"at_ms"`
	Kind OpKind `json:"op"`

	EntityID   string `json:"entity_id,omitempty"`
	MaterialID string `json:"material_id,omitempty"`
	BehaviorID string `json:"behavior_id,omitempty"`
	TargetID   string `json:"target_id,omitempty"`

	// EntityKind is the free-form kind tag for createEntity.
	EntityKind string `json:"kind,omitempty"`

	Data    map[string]any `json:"data,omitempty"`
	Changes map[string]any `json:"changes,omitempty"`

	Uniform string `json:"uniform,omitempty"`
	Value   any    `json:"value,omitempty"`
	Action  string `json:"action,omitempty"`
}

// Clone deep-copies the op, including its decoded-JSON payload maps.
func (o Op) Clone() Op {
	out := o
	out.Data = CloneAnyMap(o.Data)
	out.Changes = CloneAnyMap(o.Changes)
	out.Value = CloneValue(o.Value)
	return out
}

// NormalizeOps imposes the deterministic total order over a batch:
// ascending by (at_ms, op_id, original index). Ops missing an op_id get
// a synthetic "op-<index>" id and negative timestamps clamp to 0.
//
// The input is never mutated; the result is a deep copy.
func NormalizeOps(ops []Op) []Op {
	type row struct {
		idx int
		op  Op
	}
	rows := make([]row, len(ops))
	for i, op := range ops {
		normalized := op.Clone()
		if normalized.AtMs < 0 {
			normalized.AtMs = 0
		}
		if normalized.OpID == "" {
			normalized.OpID = fmt.Sprintf("op-%05d", i)
		}
		rows[i] = row{idx: i, op: normalized}
	}
	sort.SliceStable(rows, func(a, b int) bool {
		if rows[a].op.AtMs != rows[b].op.AtMs {
			return rows[a].op.AtMs < rows[b].op.AtMs
		}
		if rows[a].op.OpID != rows[b].op.OpID {
			return rows[a].op.OpID < rows[b].op.OpID
		}
		return rows[a].idx < rows[b].idx
	})
	out := make([]Op, len(rows))
	for i, r := range rows {
		out[i] = r.op
	}
	return out
}
