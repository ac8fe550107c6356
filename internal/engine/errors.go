package engine

import (
	"errors"
	"fmt"
)

// Code identifies an apply failure category. Codes are stable contract:
// callers branch on them and surface them to users.
type Code string

const (
	// CodePatchBudgetExceeded covers the op-count precheck and every
	// post-application resource cap (entities, materials, behaviors).
	CodePatchBudgetExceeded Code = "patch_budget_exceeded"

	// CodeSuspiciousRebuild flags a batch that looks like an unintended
	// full-scene replacement.
	CodeSuspiciousRebuild Code = "suspicious_rebuild"

	CodeUnknownEntityKind    Code = "unknown_entity_kind"
	CodeUnknownEntityID      Code = "unknown_entity_id"
	CodeUnknownMaterialID    Code = "unknown_material_id"
	CodeUnknownRecipeID      Code = "unknown_recipe_id"
	CodeUnknownBehaviorID    Code = "unknown_behavior_id"
	CodeUnknownTriggerTarget Code = "unknown_trigger_target"
	CodeInvalidTrigger       Code = "invalid_trigger"
	CodeUniformNameRequired  Code = "uniform_name_required"
	CodeUnknownUniform       Code = "unknown_uniform"
	CodeUniformNotNumeric    Code = "uniform_not_numeric"
	CodeUniformOutOfRange    Code = "uniform_out_of_range"
	CodeUniformRateLimited   Code = "uniform_rate_limited"
	CodeUnsupportedOp        Code = "unsupported_op"
)

// ApplyError is the single error type for every engine failure.
// A raised ApplyError means the whole batch did not commit.
type ApplyError struct {
	Code    Code
	Message string
	Detail  map[string]any
}

// Error implements the error interface.
func (e *ApplyError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// applyError constructs an ApplyError. Detail keys are the structured
// context callers echo back to the planner.
func applyError(code Code, message string, detail map[string]any) *ApplyError {
	return &ApplyError{Code: code, Message: message, Detail: detail}
}

// AsApplyError unwraps err into an *ApplyError if it is one.
func AsApplyError(err error) (*ApplyError, bool) {
	var ae *ApplyError
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

// IsCode reports whether err is an ApplyError with the given code.
func IsCode(err error, code Code) bool {
	ae, ok := AsApplyError(err)
	return ok && ae.Code == code
}
