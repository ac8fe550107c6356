package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedScene(t *testing.T, dataDir, sceneID string) {
	t.Helper()
	opsPath := writeOpsFile(t, []map[string]any{
		{"op_id": "seed-1", "op": "createEntity", "entity_id": "goldfish", "kind": "fish"},
	})
	_, err := runCommand(t, "--data-dir", dataDir, "apply", opsPath, "--scene", sceneID)
	require.NoError(t, err)
}

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	dataDir := t.TempDir()
	seedScene(t, dataDir, "aquarium")

	out, err := runCommand(t, "--data-dir", dataDir, "--format", "json",
		"snapshot", "--scene", "aquarium", "--name", "checkpoint")
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	data := resp.Data.(map[string]any)
	assert.Equal(t, "checkpoint", data["snapshot_id"])

	// Move the scene forward, then restore the checkpoint.
	opsPath := writeOpsFile(t, []map[string]any{
		{"op_id": "op-2", "op": "destroyEntity", "entity_id": "goldfish"},
	})
	_, err = runCommand(t, "--data-dir", dataDir, "apply", opsPath, "--scene", "aquarium")
	require.NoError(t, err)

	out, err = runCommand(t, "--data-dir", dataDir, "--format", "json",
		"restore", "checkpoint", "--scene", "aquarium")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	summary := resp.Data.(map[string]any)["summary"].(map[string]any)
	assert.Equal(t, float64(1), summary["revision"])
	assert.Equal(t, float64(1), summary["entity_count"])
}

func TestSnapshotsCommandLists(t *testing.T) {
	dataDir := t.TempDir()
	seedScene(t, dataDir, "aquarium")

	_, err := runCommand(t, "--data-dir", dataDir, "snapshot", "--scene", "aquarium", "--name", "first")
	require.NoError(t, err)

	out, err := runCommand(t, "--data-dir", dataDir, "--format", "json", "snapshots", "--scene", "aquarium")
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	entries := resp.Data.([]any)
	require.Len(t, entries, 1)
	assert.Equal(t, "first", entries[0].(map[string]any)["snapshot_id"])
}

func TestScenesCommandLists(t *testing.T) {
	dataDir := t.TempDir()
	seedScene(t, dataDir, "alpha")
	seedScene(t, dataDir, "beta")

	out, err := runCommand(t, "--data-dir", dataDir, "--format", "json", "scenes")
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	rows := resp.Data.([]any)
	require.Len(t, rows, 2)
	assert.Equal(t, "alpha", rows[0].(map[string]any)["scene_id"])
}

func TestSummaryCommand(t *testing.T) {
	dataDir := t.TempDir()
	seedScene(t, dataDir, "aquarium")

	out, err := runCommand(t, "--data-dir", dataDir, "--format", "json", "summary", "--scene", "aquarium")
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	scene := resp.Data.(map[string]any)["scene"].(map[string]any)
	assert.Equal(t, "aquarium", scene["scene_id"])
	assert.Equal(t, float64(1), scene["entity_count"])
}
