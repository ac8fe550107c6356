package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/opencommotion/scenekit/internal/scene"
	"github.com/opencommotion/scenekit/internal/translate"
)

// Scenario defines one conformance scenario: a named sequence of turns
// against a fresh scene, with assertions on the final state.
type Scenario struct {
	// Name uniquely identifies the scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what the scenario validates.
	Description string `yaml:"description"`

	// SceneID seeds the scene. Defaults to "test-scene".
	SceneID string `yaml:"scene_id,omitempty"`

	// Turns are applied in order.
	Turns []Turn `yaml:"turns"`

	// Assertions validate the final scene state.
	Assertions []Assertion `yaml:"assertions"`
}

// Turn is one logical batch. Exactly one of Ops or Patches must be set;
// Patches go through the legacy translator first.
type Turn struct {
	// TurnID seeds translated op ids. Defaults to "turn-<index>".
	TurnID string `yaml:"turn_id,omitempty"`

	// Prompt is the natural-language intent passed to the translator.
	Prompt string `yaml:"prompt,omitempty"`

	// Rebuild marks the turn as an intentional scene rebuild.
	Rebuild bool `yaml:"rebuild,omitempty"`

	Ops     []OpStep          `yaml:"ops,omitempty"`
	Patches []translate.Patch `yaml:"patches,omitempty"`

	// ExpectError is the failure code this turn must produce. The turn
	// is then expected to leave the scene untouched.
	ExpectError string `yaml:"expect_error,omitempty"`

	// ExpectWarnings are warning entries the turn must report.
	ExpectWarnings []string `yaml:"expect_warnings,omitempty"`
}

// OpStep is the YAML rendering of one typed op.
type OpStep struct {
	OpID       string         `yaml:"op_id,omitempty"`
	AtMs       int64          `yaml:"at_ms,omitempty"`
	Op         string         `yaml:"op"`
	EntityID   string         `yaml:"entity_id,omitempty"`
	MaterialID string         `yaml:"material_id,omitempty"`
	BehaviorID string         `yaml:"behavior_id,omitempty"`
	TargetID   string         `yaml:"target_id,omitempty"`
	Kind       string         `yaml:"kind,omitempty"`
	Data       map[string]any `yaml:"data,omitempty"`
	Changes    map[string]any `yaml:"changes,omitempty"`
	Uniform    string         `yaml:"uniform,omitempty"`
	Value      any            `yaml:"value,omitempty"`
	Action     string         `yaml:"action,omitempty"`
}

// toOp converts the YAML step into the engine's op type.
func (s OpStep) toOp() scene.Op {
	return scene.Op{
		OpID:       s.OpID,
		AtMs:       s.AtMs,
		Kind:       scene.OpKind(s.Op),
		EntityID:   s.EntityID,
		MaterialID: s.MaterialID,
		BehaviorID: s.BehaviorID,
		TargetID:   s.TargetID,
		EntityKind: s.Kind,
		Data:       s.Data,
		Changes:    s.Changes,
		Uniform:    s.Uniform,
		Value:      s.Value,
		Action:     s.Action,
	}
}

// Assertion validates one fact about the final scene.
type Assertion struct {
	// Type selects the check: revision, entity_count, material_count,
	// behavior_state, entity_kind, uniform, warnings_contain.
	Type string `yaml:"type"`

	// ID is the canonical resource id (behavior_state, entity_kind,
	// uniform).
	ID string `yaml:"id,omitempty"`

	// State is the expected behavior state (behavior_state).
	State string `yaml:"state,omitempty"`

	// Kind is the expected entity kind (entity_kind).
	Kind string `yaml:"kind,omitempty"`

	// Uniform and Value name the expected uniform entry (uniform).
	Uniform string  `yaml:"uniform,omitempty"`
	Value   float64 `yaml:"value,omitempty"`

	// Count is the expected resource count (revision, entity_count,
	// material_count).
	Count int64 `yaml:"count,omitempty"`

	// Contains is the expected warning substring (warnings_contain).
	Contains string `yaml:"contains,omitempty"`
}

// Assertion type constants.
const (
	AssertRevision        = "revision"
	AssertEntityCount     = "entity_count"
	AssertMaterialCount   = "material_count"
	AssertBehaviorState   = "behavior_state"
	AssertEntityKind      = "entity_kind"
	AssertUniform         = "uniform"
	AssertWarningsContain = "warnings_contain"
)

// LoadScenario reads and parses a scenario YAML file. Unknown fields
// are rejected so typos fail loudly.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Turns) == 0 {
		return fmt.Errorf("turns list is required and must be non-empty")
	}

	for i, turn := range s.Turns {
		hasOps := len(turn.Ops) > 0
		hasPatches := len(turn.Patches) > 0
		if hasOps && hasPatches {
			return fmt.Errorf("turns[%d]: ops and patches are mutually exclusive", i)
		}
		if !hasOps && !hasPatches && turn.Prompt == "" {
			return fmt.Errorf("turns[%d]: ops, patches, or a prompt is required", i)
		}
		for j, op := range turn.Ops {
			if op.Op == "" {
				return fmt.Errorf("turns[%d].ops[%d]: op is required", i, j)
			}
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case AssertRevision, AssertEntityCount, AssertMaterialCount:
		// Count of zero is legal; nothing more to check.
	case AssertBehaviorState:
		if a.ID == "" || a.State == "" {
			return fmt.Errorf("assertions[%d]: id and state are required for %s", index, a.Type)
		}
	case AssertEntityKind:
		if a.ID == "" || a.Kind == "" {
			return fmt.Errorf("assertions[%d]: id and kind are required for %s", index, a.Type)
		}
	case AssertUniform:
		if a.ID == "" || a.Uniform == "" {
			return fmt.Errorf("assertions[%d]: id and uniform are required for %s", index, a.Type)
		}
	case AssertWarningsContain:
		if a.Contains == "" {
			return fmt.Errorf("assertions[%d]: contains is required for %s", index, a.Type)
		}
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
