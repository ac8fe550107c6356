package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePatchesFile(t *testing.T, patches []map[string]any) string {
	t.Helper()
	raw, err := json.Marshal(patches)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "patches.json")
	require.NoError(t, os.WriteFile(path, raw, 0o644))
	return path
}

func TestTranslateCommand(t *testing.T) {
	dataDir := t.TempDir()
	patchesPath := writePatchesFile(t, []map[string]any{
		{"op": "add", "path": "/actors/goldfish", "value": map[string]any{"type": "fish"}},
		{"op": "replace", "path": "/audio/volume", "value": 0.5},
	})

	out, err := runCommand(t, "--data-dir", dataDir, "--format", "json",
		"translate", patchesPath, "--scene", "aquarium", "--turn-id", "turn-1")
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)

	data := resp.Data.(map[string]any)
	assert.Equal(t, "turn-1", data["turn_id"])
	ops := data["ops"].([]any)
	require.Len(t, ops, 1)
	op := ops[0].(map[string]any)
	assert.Equal(t, "createEntity", op["op"])
	assert.Equal(t, "turn-1-op-00000", op["op_id"])

	warnings := data["warnings"].([]any)
	require.Len(t, warnings, 1)
	assert.True(t, strings.HasPrefix(warnings[0].(string), "unsupported_v1_patch_path:"))

	// Without --apply the scene stays untouched.
	assert.Nil(t, data["summary"])
}

func TestTranslateCommandApplies(t *testing.T) {
	dataDir := t.TempDir()
	patchesPath := writePatchesFile(t, []map[string]any{
		{"op": "add", "path": "/actors/goldfish", "value": map[string]any{"type": "fish"}},
	})

	out, err := runCommand(t, "--data-dir", dataDir, "--format", "json",
		"translate", patchesPath, "--scene", "aquarium", "--turn-id", "turn-1", "--apply")
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	summary := resp.Data.(map[string]any)["summary"].(map[string]any)
	assert.Equal(t, float64(1), summary["revision"])
	assert.FileExists(t, filepath.Join(dataDir, "aquarium", "autosave.json"))
}

func TestRecipesCommand(t *testing.T) {
	out, err := runCommand(t, "--format", "json", "recipes")
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	recipes := resp.Data.([]any)
	assert.Len(t, recipes, 3)
}
