package engine

import (
	"log/slog"

	"github.com/caarlos0/env/v11"
)

// Policy is the flat record of numeric safety caps. Every field is
// independently configurable; DefaultPolicy sources overrides from
// OPENCOMMOTION_V2_* environment variables.
type Policy struct {
	MaxEntities2D       int
	MaxEntities3D       int
	MaxOpsPerTurn       int
	MaxMaterials        int
	MaxBehaviors        int
	MaxTextureDimension int
	MaxTextureMemoryMB  int
	MaxUniformUpdateHz  float64
}

// policyEnv maps OPENCOMMOTION_V2_* env vars onto policy caps.
type policyEnv struct {
	// MaxEntities2D caps flat entities from OPENCOMMOTION_V2_MAX_ENTITIES_2D.
	MaxEntities2D int `env:"OPENCOMMOTION_V2_MAX_ENTITIES_2D" envDefault:"400"`
	// MaxEntities3D caps mesh/camera/light/environment entities from OPENCOMMOTION_V2_MAX_ENTITIES_3D.
	MaxEntities3D int `env:"OPENCOMMOTION_V2_MAX_ENTITIES_3D" envDefault:"250"`
	// MaxOpsPerTurn caps batch size from OPENCOMMOTION_V2_MAX_PATCH_OPS_PER_TURN.
	MaxOpsPerTurn int `env:"OPENCOMMOTION_V2_MAX_PATCH_OPS_PER_TURN" envDefault:"120"`
	// MaxMaterials caps materials from OPENCOMMOTION_V2_MAX_MATERIALS.
	MaxMaterials int `env:"OPENCOMMOTION_V2_MAX_MATERIALS" envDefault:"128"`
	// MaxBehaviors caps behaviors from OPENCOMMOTION_V2_MAX_BEHAVIORS.
	MaxBehaviors int `env:"OPENCOMMOTION_V2_MAX_BEHAVIORS" envDefault:"256"`
	// MaxTextureDimension caps texture edge size from OPENCOMMOTION_V2_MAX_TEXTURE_DIMENSION.
	MaxTextureDimension int `env:"OPENCOMMOTION_V2_MAX_TEXTURE_DIMENSION" envDefault:"2048"`
	// MaxTextureMemoryMB caps texture memory from OPENCOMMOTION_V2_MAX_TEXTURE_MEMORY_MB.
	MaxTextureMemoryMB int `env:"OPENCOMMOTION_V2_MAX_TEXTURE_MEMORY_MB" envDefault:"128"`
	// MaxUniformUpdateHz caps uniform update rate from OPENCOMMOTION_V2_MAX_UNIFORM_UPDATE_HZ.
	MaxUniformUpdateHz float64 `env:"OPENCOMMOTION_V2_MAX_UNIFORM_UPDATE_HZ" envDefault:"30"`
}

// DefaultPolicy builds the policy from environment overrides. Malformed
// env values fall back to the baseline defaults; out-of-range values are
// clamped (ints to [1,10000], the rate to [0.1,1000] Hz) so a stray
// override can never disable a cap outright.
func DefaultPolicy() Policy {
	var cfg policyEnv
	if err := env.Parse(&cfg); err != nil {
		slog.Warn("safety policy env overrides ignored", "error", err)
		cfg = policyEnv{
			MaxEntities2D:       400,
			MaxEntities3D:       250,
			MaxOpsPerTurn:       120,
			MaxMaterials:        128,
			MaxBehaviors:        256,
			MaxTextureDimension: 2048,
			MaxTextureMemoryMB:  128,
			MaxUniformUpdateHz:  30,
		}
	}
	return Policy{
		MaxEntities2D:       clampInt(cfg.MaxEntities2D),
		MaxEntities3D:       clampInt(cfg.MaxEntities3D),
		MaxOpsPerTurn:       clampInt(cfg.MaxOpsPerTurn),
		MaxMaterials:        clampInt(cfg.MaxMaterials),
		MaxBehaviors:        clampInt(cfg.MaxBehaviors),
		MaxTextureDimension: clampInt(cfg.MaxTextureDimension),
		MaxTextureMemoryMB:  clampInt(cfg.MaxTextureMemoryMB),
		MaxUniformUpdateHz:  clampHz(cfg.MaxUniformUpdateHz),
	}
}

func clampInt(v int) int {
	const min, max = 1, 10_000
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func clampHz(v float64) float64 {
	const min, max = 0.1, 1000.0
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
