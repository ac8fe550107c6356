package recipe

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Validation failure codes. These are stable identifiers surfaced to
// callers through the engine's apply errors.
const (
	CodeUnknownRecipe     = "unknown_recipe_id"
	CodeUnknownUniform    = "unknown_uniform"
	CodeUniformNotNumeric = "uniform_not_numeric"
	CodeUniformOutOfRange = "uniform_out_of_range"
)

// ValidationError reports why a uniform value was rejected against a
// recipe's schema.
type ValidationError struct {
	Code     string
	RecipeID string
	Uniform  string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: uniform %q rejected for recipe %q", e.Code, e.Uniform, e.RecipeID)
}

// ValidateUniform checks a raw value against the recipe's schema and
// returns the coerced numeric value on success.
func (c *Catalog) ValidateUniform(recipeID, uniform string, value any) (float64, error) {
	r, ok := c.Get(recipeID)
	if !ok {
		return 0, &ValidationError{Code: CodeUnknownRecipe, RecipeID: recipeID, Uniform: uniform}
	}
	rule, ok := r.Uniforms[uniform]
	if !ok {
		return 0, &ValidationError{Code: CodeUnknownUniform, RecipeID: recipeID, Uniform: uniform}
	}
	numeric, ok := CoerceNumeric(value)
	if !ok {
		return 0, &ValidationError{Code: CodeUniformNotNumeric, RecipeID: recipeID, Uniform: uniform}
	}
	if numeric < rule.Min || numeric > rule.Max {
		return 0, &ValidationError{Code: CodeUniformOutOfRange, RecipeID: recipeID, Uniform: uniform}
	}
	return numeric, nil
}

// CoerceNumeric converts the value shapes a decoded-JSON op can carry
// into a float64. Numeric strings are accepted; anything else is not.
func CoerceNumeric(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(v, 64)
		return f, err == nil
	case bool:
		if v {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}
