package engine

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/opencommotion/scenekit/internal/recipe"
	"github.com/opencommotion/scenekit/internal/scene"
)

// effectiveHz resolves the update-rate cap for one (material, uniform)
// pair: the recipe's declared per-uniform rate wins (bounded by the
// policy cap) when the material is recipe-backed and the uniform is in
// its schema, otherwise the policy default applies. Non-positive rates
// fall back to the policy cap so the limiter can never divide by zero.
func (e *Engine) effectiveHz(m *scene.Material, uniform string, policy Policy) float64 {
	maxHz := policy.MaxUniformUpdateHz
	if m.RecipeID != "" {
		if r, ok := e.recipes.Get(m.RecipeID); ok {
			if rule, ok := r.Uniforms[uniform]; ok && rule.MaxUpdateHz < maxHz {
				maxHz = rule.MaxUpdateHz
			}
		}
	}
	if maxHz <= 0 {
		maxHz = policy.MaxUniformUpdateHz
	}
	return maxHz
}

// applySetUniform handles a setUniform op: existence check, rate limit
// against the last accepted update, value validation, then the write.
func (e *Engine) applySetUniform(st *scene.State, op scene.Op, policy Policy) error {
	materialID := st.CanonicalID(scene.NamespaceMaterial, op.MaterialID)
	material, ok := st.Materials[materialID]
	if !ok {
		return applyError(CodeUnknownMaterialID,
			fmt.Sprintf("material %q was not found", materialID),
			map[string]any{"material_id": materialID})
	}

	uniform := strings.TrimSpace(op.Uniform)
	if uniform == "" {
		return applyError(CodeUniformNameRequired, "uniform name is required",
			map[string]any{"material_id": materialID})
	}

	maxHz := e.effectiveHz(material, uniform, policy)
	minDeltaMs := int64(math.Round(1000.0 / maxHz))
	key := materialID + ":" + uniform
	if previous, seen := st.UniformUpdateAt[key]; seen && op.AtMs-previous < minDeltaMs {
		return applyError(CodeUniformRateLimited,
			fmt.Sprintf("uniform %q update frequency exceeds %.2fHz", uniform, maxHz),
			map[string]any{"material_id": materialID, "uniform": uniform, "max_hz": maxHz})
	}

	var value float64
	if material.RecipeID != "" {
		numeric, err := e.recipes.ValidateUniform(material.RecipeID, uniform, op.Value)
		if err != nil {
			var ve *recipe.ValidationError
			code := Code("uniform_validation_failed")
			if errors.As(err, &ve) {
				code = Code(ve.Code)
			}
			return applyError(code,
				fmt.Sprintf("uniform %q rejected for recipe %q", uniform, material.RecipeID),
				map[string]any{"material_id": materialID, "uniform": uniform, "recipe_id": material.RecipeID})
		}
		value = numeric
	} else {
		numeric, ok := recipe.CoerceNumeric(op.Value)
		if !ok {
			return applyError(CodeUniformNotNumeric,
				fmt.Sprintf("uniform %q must be numeric", uniform),
				map[string]any{"material_id": materialID, "uniform": uniform})
		}
		value = numeric
	}

	if material.Uniforms == nil {
		material.Uniforms = make(map[string]float64)
	}
	material.Uniforms[uniform] = value
	material.UpdatedAtMs = op.AtMs
	st.UniformUpdateAt[key] = op.AtMs
	return nil
}
