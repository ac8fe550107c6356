package scene

// Namespace partitions canonical ids by resource kind.
type Namespace string

const (
	// NamespaceEntity covers renderable scene entities.
	NamespaceEntity Namespace = "entity"
	// NamespaceMaterial covers materials.
	NamespaceMaterial Namespace = "material"
	// NamespaceBehavior covers per-entity behavior state machines.
	NamespaceBehavior Namespace = "behavior"
)

// Prefix returns the canonical id prefix for the namespace.
// Canonical ids have the form "<prefix>:<slug>#<counter>".
func (n Namespace) Prefix() string {
	switch n {
	case NamespaceEntity:
		return "entity"
	case NamespaceMaterial:
		return "mat"
	case NamespaceBehavior:
		return "beh"
	default:
		return string(n)
	}
}

// maxLogEntries bounds the trigger log and warning history rings.
const maxLogEntries = 200

// Entity is a schemaless scene node. Beyond ID and Kind, everything the
// planner supplies lives in Data and is shallow-merged on update.
type Entity struct {
	ID          string         `json:"id"`
	Kind        string         `json:"kind"`
	Data        map[string]any `json:"data,omitempty"`
	LastTrigger string         `json:"last_trigger,omitempty"`
	UpdatedAtMs int64          `json:"updated_at_ms"`
}

// Material is either a built-in type (pbr, unlit) or recipe-backed.
// Recipe-backed materials get uniform validation and rate limiting.
type Material struct {
	ID          string             `json:"id"`
	Type        string             `json:"type"`
	RecipeID    string             `json:"recipe_id,omitempty"`
	Uniforms    map[string]float64 `json:"uniforms,omitempty"`
	Data        map[string]any     `json:"data,omitempty"`
	UpdatedAtMs int64              `json:"updated_at_ms"`
}

// Transition is one outgoing edge of a behavior state.
type Transition struct {
	Event string `json:"event"`
	To    string `json:"to"`
}

// StateSpec lists the outgoing transitions of one behavior state.
type StateSpec struct {
	Transitions []Transition `json:"transitions,omitempty"`
}

// Definition is the declarative state machine a behavior carries.
type Definition struct {
	Type   string               `json:"type,omitempty"`
	State  string               `json:"state,omitempty"`
	States map[string]StateSpec `json:"states,omitempty"`
	Params map[string]any       `json:"params,omitempty"`
	Name   string               `json:"name,omitempty"`
}

// Behavior is always bound to exactly one entity (TargetID), which must
// exist at creation time. Destroying the target orphans the behavior but
// does not remove it.
type Behavior struct {
	ID          string     `json:"id"`
	TargetID    string     `json:"target_id"`
	Definition  Definition `json:"definition"`
	State       string     `json:"state"`
	LastTrigger string     `json:"last_trigger,omitempty"`
	UpdatedAtMs int64      `json:"updated_at_ms"`
}

// Bindings holds cross-resource links. Today that is only the
// entity-to-material assignment.
type Bindings struct {
	EntityToMaterial map[string]string `json:"entity_to_material"`
}

// TriggerEvent is one entry of the bounded trigger log.
type TriggerEvent struct {
	TargetID string `json:"target_id"`
	Action   string `json:"action"`
	AtMs     int64  `json:"at_ms"`
}

// State is the full scene graph document for one scene id.
//
// INVARIANTS (hold after every successful apply):
//   - Revision increases by exactly 1 per committed batch.
//   - Every map key is a canonical id; raw ids alias at most once per
//     (namespace, raw id) pair for the scene's lifetime.
//   - AppliedOpIDs contains each committed op id exactly once.
type State struct {
	SceneID         string               `json:"scene_id"`
	Revision        int64                `json:"revision"`
	Entities        map[string]*Entity   `json:"entities"`
	Materials       map[string]*Material `json:"materials"`
	Behaviors       map[string]*Behavior `json:"behaviors"`
	Bindings        Bindings             `json:"bindings"`
	AppliedOpIDs    []string             `json:"applied_op_ids"`
	IDAliases       map[string]string    `json:"id_aliases"`
	Counters        map[Namespace]int    `json:"counters"`
	UniformUpdateAt map[string]int64     `json:"uniform_update_at"`
	TriggerLog      []TriggerEvent       `json:"trigger_log"`
	Warnings        []string             `json:"warnings"`
}

// Summary is the caller-facing digest of a scene.
type Summary struct {
	SceneID       string `json:"scene_id"`
	Revision      int64  `json:"revision"`
	EntityCount   int    `json:"entity_count"`
	MaterialCount int    `json:"material_count"`
	BehaviorCount int    `json:"behavior_count"`
}

// New constructs an empty scene at revision 0 with mint counters at 1.
func New(sceneID string) *State {
	return &State{
		SceneID:   sceneID,
		Entities:  make(map[string]*Entity),
		Materials: make(map[string]*Material),
		Behaviors: make(map[string]*Behavior),
		Bindings:  Bindings{EntityToMaterial: make(map[string]string)},
		IDAliases: make(map[string]string),
		Counters: map[Namespace]int{
			NamespaceEntity:   1,
			NamespaceMaterial: 1,
			NamespaceBehavior: 1,
		},
		UniformUpdateAt: make(map[string]int64),
	}
}

// Summary returns the scene digest.
func (s *State) Summary() Summary {
	return Summary{
		SceneID:       s.SceneID,
		Revision:      s.Revision,
		EntityCount:   len(s.Entities),
		MaterialCount: len(s.Materials),
		BehaviorCount: len(s.Behaviors),
	}
}

// EnsureDefaults fills nil maps after JSON decoding so old snapshots
// (written before new fields existed) still load. Loading is the only
// place a State may be partially populated.
func (s *State) EnsureDefaults() {
	if s.Entities == nil {
		s.Entities = make(map[string]*Entity)
	}
	if s.Materials == nil {
		s.Materials = make(map[string]*Material)
	}
	if s.Behaviors == nil {
		s.Behaviors = make(map[string]*Behavior)
	}
	if s.Bindings.EntityToMaterial == nil {
		s.Bindings.EntityToMaterial = make(map[string]string)
	}
	if s.IDAliases == nil {
		s.IDAliases = make(map[string]string)
	}
	if s.Counters == nil {
		s.Counters = make(map[Namespace]int)
	}
	if s.UniformUpdateAt == nil {
		s.UniformUpdateAt = make(map[string]int64)
	}
}

// AppendTrigger records a trigger event, keeping only the newest
// maxLogEntries entries.
func (s *State) AppendTrigger(ev TriggerEvent) {
	s.TriggerLog = append(s.TriggerLog, ev)
	if n := len(s.TriggerLog); n > maxLogEntries {
		s.TriggerLog = append(s.TriggerLog[:0:0], s.TriggerLog[n-maxLogEntries:]...)
	}
}

// AppendWarnings extends the warning history, keeping only the newest
// maxLogEntries entries.
func (s *State) AppendWarnings(warnings []string) {
	s.Warnings = append(s.Warnings, warnings...)
	if n := len(s.Warnings); n > maxLogEntries {
		s.Warnings = append(s.Warnings[:0:0], s.Warnings[n-maxLogEntries:]...)
	}
}

// Clone deep-copies the state. Apply stages all mutations on a clone and
// swaps it in only on success, so a failed batch leaves the live scene
// untouched.
func (s *State) Clone() *State {
	out := &State{
		SceneID:         s.SceneID,
		Revision:        s.Revision,
		Entities:        make(map[string]*Entity, len(s.Entities)),
		Materials:       make(map[string]*Material, len(s.Materials)),
		Behaviors:       make(map[string]*Behavior, len(s.Behaviors)),
		Bindings:        Bindings{EntityToMaterial: make(map[string]string, len(s.Bindings.EntityToMaterial))},
		AppliedOpIDs:    append([]string(nil), s.AppliedOpIDs...),
		IDAliases:       make(map[string]string, len(s.IDAliases)),
		Counters:        make(map[Namespace]int, len(s.Counters)),
		UniformUpdateAt: make(map[string]int64, len(s.UniformUpdateAt)),
		TriggerLog:      append([]TriggerEvent(nil), s.TriggerLog...),
		Warnings:        append([]string(nil), s.Warnings...),
	}
	for id, e := range s.Entities {
		out.Entities[id] = e.clone()
	}
	for id, m := range s.Materials {
		out.Materials[id] = m.clone()
	}
	for id, b := range s.Behaviors {
		out.Behaviors[id] = b.clone()
	}
	for k, v := range s.Bindings.EntityToMaterial {
		out.Bindings.EntityToMaterial[k] = v
	}
	for k, v := range s.IDAliases {
		out.IDAliases[k] = v
	}
	for k, v := range s.Counters {
		out.Counters[k] = v
	}
	for k, v := range s.UniformUpdateAt {
		out.UniformUpdateAt[k] = v
	}
	return out
}

func (e *Entity) clone() *Entity {
	out := *e
	out.Data = CloneAnyMap(e.Data)
	return &out
}

func (m *Material) clone() *Material {
	out := *m
	if m.Uniforms != nil {
		out.Uniforms = make(map[string]float64, len(m.Uniforms))
		for k, v := range m.Uniforms {
			out.Uniforms[k] = v
		}
	}
	out.Data = CloneAnyMap(m.Data)
	return &out
}

func (b *Behavior) clone() *Behavior {
	out := *b
	out.Definition = b.Definition.Clone()
	return &out
}

// Clone deep-copies a behavior definition.
func (d Definition) Clone() Definition {
	out := d
	if d.States != nil {
		out.States = make(map[string]StateSpec, len(d.States))
		for name, spec := range d.States {
			out.States[name] = StateSpec{Transitions: append([]Transition(nil), spec.Transitions...)}
		}
	}
	out.Params = CloneAnyMap(d.Params)
	return out
}

// CloneAnyMap deep-copies a decoded-JSON map (nested maps and slices
// included). Returns nil for nil input.
func CloneAnyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = CloneValue(v)
	}
	return out
}

// CloneValue deep-copies a decoded-JSON value.
func CloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return CloneAnyMap(val)
	case []any:
		out := make([]any, len(val))
		for i, elem := range val {
			out[i] = CloneValue(elem)
		}
		return out
	default:
		return v
	}
}
