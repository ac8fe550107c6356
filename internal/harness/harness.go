package harness

import (
	"fmt"
	"math"
	"strings"

	"github.com/opencommotion/scenekit/internal/engine"
	"github.com/opencommotion/scenekit/internal/scene"
	"github.com/opencommotion/scenekit/internal/translate"
)

// Result captures a full scenario execution.
type Result struct {
	// Scene is the final scene state.
	Scene *scene.State

	// Turns are the per-turn outcomes in execution order.
	Turns []TurnResult
}

// TurnResult is the outcome of one executed turn.
type TurnResult struct {
	TurnID     string
	AppliedOps []scene.Op
	Warnings   []string
	// ErrorCode is set when the turn failed as expected.
	ErrorCode string
}

// Run executes the scenario against a fresh scene with the default
// policy and recipe catalog.
func Run(s *Scenario) (*Result, error) {
	sceneID := s.SceneID
	if sceneID == "" {
		sceneID = "test-scene"
	}

	eng := engine.New(nil)
	policy := engine.DefaultPolicy()
	st := scene.New(sceneID)

	result := &Result{Scene: st}
	for i, turn := range s.Turns {
		turnID := turn.TurnID
		if turnID == "" {
			turnID = fmt.Sprintf("turn-%d", i)
		}

		var ops []scene.Op
		var translateWarnings []string
		if len(turn.Ops) > 0 {
			ops = make([]scene.Op, len(turn.Ops))
			for j, step := range turn.Ops {
				ops[j] = step.toOp()
			}
		} else {
			ops, translateWarnings = translate.PatchesToOps(turn.Patches, turnID, turn.Prompt, st)
		}

		tr := TurnResult{TurnID: turnID, Warnings: translateWarnings}
		res, err := eng.Apply(st, ops, policy, turn.Rebuild)
		if err != nil {
			ae, ok := engine.AsApplyError(err)
			if !ok {
				return nil, fmt.Errorf("turn %q: %w", turnID, err)
			}
			if turn.ExpectError == "" {
				return nil, fmt.Errorf("turn %q failed unexpectedly: %w", turnID, err)
			}
			if string(ae.Code) != turn.ExpectError {
				return nil, fmt.Errorf("turn %q: expected error %q, got %q", turnID, turn.ExpectError, ae.Code)
			}
			tr.ErrorCode = string(ae.Code)
			result.Turns = append(result.Turns, tr)
			continue
		}
		if turn.ExpectError != "" {
			return nil, fmt.Errorf("turn %q: expected error %q but the turn succeeded", turnID, turn.ExpectError)
		}

		tr.AppliedOps = res.AppliedOps
		tr.Warnings = append(tr.Warnings, res.Warnings...)
		for _, want := range turn.ExpectWarnings {
			if !containsString(tr.Warnings, want) {
				return nil, fmt.Errorf("turn %q: expected warning %q, got %v", turnID, want, tr.Warnings)
			}
		}
		result.Turns = append(result.Turns, tr)
	}

	if err := checkAssertions(s, result.Scene); err != nil {
		return nil, err
	}
	return result, nil
}

// checkAssertions validates the final scene against the scenario's
// assertion list.
func checkAssertions(s *Scenario, st *scene.State) error {
	for i, a := range s.Assertions {
		if err := checkAssertion(&a, st); err != nil {
			return fmt.Errorf("assertions[%d] (%s): %w", i, a.Type, err)
		}
	}
	return nil
}

func checkAssertion(a *Assertion, st *scene.State) error {
	switch a.Type {
	case AssertRevision:
		if st.Revision != a.Count {
			return fmt.Errorf("revision is %d, expected %d", st.Revision, a.Count)
		}
	case AssertEntityCount:
		if int64(len(st.Entities)) != a.Count {
			return fmt.Errorf("entity count is %d, expected %d", len(st.Entities), a.Count)
		}
	case AssertMaterialCount:
		if int64(len(st.Materials)) != a.Count {
			return fmt.Errorf("material count is %d, expected %d", len(st.Materials), a.Count)
		}
	case AssertBehaviorState:
		b, ok := st.Behaviors[a.ID]
		if !ok {
			return fmt.Errorf("behavior %q not found", a.ID)
		}
		if b.State != a.State {
			return fmt.Errorf("behavior %q is in state %q, expected %q", a.ID, b.State, a.State)
		}
	case AssertEntityKind:
		e, ok := st.Entities[a.ID]
		if !ok {
			return fmt.Errorf("entity %q not found", a.ID)
		}
		if e.Kind != a.Kind {
			return fmt.Errorf("entity %q has kind %q, expected %q", a.ID, e.Kind, a.Kind)
		}
	case AssertUniform:
		m, ok := st.Materials[a.ID]
		if !ok {
			return fmt.Errorf("material %q not found", a.ID)
		}
		got, ok := m.Uniforms[a.Uniform]
		if !ok {
			return fmt.Errorf("material %q has no uniform %q", a.ID, a.Uniform)
		}
		if math.Abs(got-a.Value) > 1e-9 {
			return fmt.Errorf("uniform %q is %v, expected %v", a.Uniform, got, a.Value)
		}
	case AssertWarningsContain:
		for _, w := range st.Warnings {
			if strings.Contains(w, a.Contains) {
				return nil
			}
		}
		return fmt.Errorf("no warning contains %q (have %v)", a.Contains, st.Warnings)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}

func containsString(list []string, want string) bool {
	for _, have := range list {
		if have == want {
			return true
		}
	}
	return false
}
