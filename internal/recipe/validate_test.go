package recipe

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateUniform(t *testing.T) {
	c := Default()

	got, err := c.ValidateUniform("water_volume_tint", "density", 0.5)
	require.NoError(t, err)
	assert.Equal(t, 0.5, got)
}

func TestValidateUniformErrors(t *testing.T) {
	c := Default()

	cases := []struct {
		name     string
		recipeID string
		uniform  string
		value    any
		wantCode string
	}{
		{"unknown recipe", "nope", "density", 0.5, CodeUnknownRecipe},
		{"unknown uniform", "water_volume_tint", "sparkle", 0.5, CodeUnknownUniform},
		{"not numeric", "water_volume_tint", "density", map[string]any{}, CodeUniformNotNumeric},
		{"below range", "glass_refraction_like", "ior", 0.5, CodeUniformOutOfRange},
		{"above range", "water_volume_tint", "density", 1.5, CodeUniformOutOfRange},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := c.ValidateUniform(tc.recipeID, tc.uniform, tc.value)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tc.wantCode, verr.Code)
			assert.Equal(t, tc.uniform, verr.Uniform)
		})
	}

	// Inclusive bounds are accepted.
	_, err := c.ValidateUniform("water_volume_tint", "density", 1.0)
	assert.NoError(t, err)
	_, err = c.ValidateUniform("water_volume_tint", "density", 0.0)
	assert.NoError(t, err)

	var generic error = errors.New("x")
	var verr *ValidationError
	assert.False(t, errors.As(generic, &verr))
}

func TestCoerceNumeric(t *testing.T) {
	cases := []struct {
		in     any
		want   float64
		wantOK bool
	}{
		{0.25, 0.25, true},
		{float32(2), 2, true},
		{3, 3, true},
		{int64(4), 4, true},
		{json.Number("0.75"), 0.75, true},
		{"1.5", 1.5, true},
		{"not a number", 0, false},
		{true, 1, true},
		{false, 0, true},
		{nil, 0, false},
		{[]any{1.0}, 0, false},
	}
	for _, tc := range cases {
		got, ok := CoerceNumeric(tc.in)
		assert.Equal(t, tc.wantOK, ok, "CoerceNumeric(%#v)", tc.in)
		if tc.wantOK {
			assert.Equal(t, tc.want, got, "CoerceNumeric(%#v)", tc.in)
		}
	}
}
