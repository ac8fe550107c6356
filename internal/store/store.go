package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/opencommotion/scenekit/internal/scene"
)

const (
	autosaveName = "autosave.json"
	snapshotDir  = "snapshots"
)

// Store manages scene documents under a root directory plus the
// catalog index. One live *scene.State exists per scene id; callers
// must serialize mutation and save calls for the same scene.
type Store struct {
	root    string
	catalog *Catalog

	mu     sync.Mutex
	scenes map[string]*scene.State
}

// SaveInfo describes a written autosave.
type SaveInfo struct {
	SceneID string    `json:"scene_id"`
	Path    string    `json:"path"`
	SavedAt time.Time `json:"saved_at"`
}

// SnapshotInfo describes a written or restored snapshot.
type SnapshotInfo struct {
	SceneID    string        `json:"scene_id"`
	SnapshotID string        `json:"snapshot_id"`
	Path       string        `json:"path"`
	Summary    scene.Summary `json:"summary"`
}

// SnapshotEntry is one snapshot file on disk.
type SnapshotEntry struct {
	SnapshotID string    `json:"snapshot_id"`
	Path       string    `json:"path"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// StateView bundles the scene digest with its available snapshots.
type StateView struct {
	Scene     scene.Summary   `json:"scene"`
	Snapshots []SnapshotEntry `json:"snapshots"`
}

// document is the on-disk JSON shape: the full scene state plus
// persistence metadata.
type document struct {
	scene.State
	SnapshotID string `json:"snapshot_id,omitempty"`
	SavedAt    string `json:"saved_at"`
}

// Open prepares a store rooted at dir, creating it if needed, and
// opens the catalog database inside it.
func Open(dir string) (*Store, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("store root is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store root: %w", err)
	}
	catalog, err := OpenCatalog(filepath.Join(dir, "catalog.db"))
	if err != nil {
		return nil, err
	}
	return &Store{
		root:    dir,
		catalog: catalog,
		scenes:  make(map[string]*scene.State),
	}, nil
}

// Close releases the catalog connection. In-memory states stay valid
// but are no longer persisted to the index.
func (s *Store) Close() error {
	return s.catalog.Close()
}

// Root returns the store's root directory.
func (s *Store) Root() string {
	return s.root
}

// GetOrCreate returns the live state for the scene id, loading it from
// the autosave document on first access and minting an empty scene when
// no document exists. A blank id maps to "default".
func (s *Store) GetOrCreate(sceneID string) (*scene.State, error) {
	sceneID = normalizeSceneID(sceneID)

	s.mu.Lock()
	defer s.mu.Unlock()

	if st, ok := s.scenes[sceneID]; ok {
		return st, nil
	}

	st, err := s.loadAutosave(sceneID)
	if err != nil {
		return nil, err
	}
	if st == nil {
		st = scene.New(sceneID)
	}
	s.scenes[sceneID] = st
	return st, nil
}

// Autosave writes the scene's current state to its autosave document
// and records it in the catalog.
func (s *Store) Autosave(sceneID string) (SaveInfo, error) {
	sceneID = normalizeSceneID(sceneID)
	st, err := s.GetOrCreate(sceneID)
	if err != nil {
		return SaveInfo{}, err
	}

	savedAt := time.Now().UTC()
	path := filepath.Join(s.sceneDir(sceneID), autosaveName)
	if err := s.writeDocument(path, st, "", savedAt); err != nil {
		return SaveInfo{}, err
	}

	if err := s.catalog.RecordScene(context.Background(), st.Summary(), savedAt); err != nil {
		// The document is the source of truth; a stale index only
		// degrades listing.
		slog.Warn("scene catalog update failed", "scene_id", sceneID, "error", err)
	}

	return SaveInfo{SceneID: sceneID, Path: path, SavedAt: savedAt}, nil
}

// Snapshot writes a point-in-time copy of the scene. An empty name
// mints a random snapshot id; a provided name is slugged into one.
// The autosave document is refreshed afterwards so autosave and the
// newest snapshot never diverge.
func (s *Store) Snapshot(sceneID, name string) (SnapshotInfo, error) {
	sceneID = normalizeSceneID(sceneID)
	st, err := s.GetOrCreate(sceneID)
	if err != nil {
		return SnapshotInfo{}, err
	}

	snapshotID := strings.TrimSpace(name)
	if snapshotID == "" {
		snapshotID = uuid.NewString()
	} else {
		snapshotID = scene.Slugify(snapshotID)
	}

	savedAt := time.Now().UTC()
	path := filepath.Join(s.sceneDir(sceneID), snapshotDir, snapshotID+".json")
	if err := s.writeDocument(path, st, snapshotID, savedAt); err != nil {
		return SnapshotInfo{}, err
	}

	if err := s.catalog.RecordSnapshot(context.Background(), SnapshotRow{
		SceneID:    sceneID,
		SnapshotID: snapshotID,
		Path:       path,
		Revision:   st.Revision,
		SavedAt:    savedAt,
	}); err != nil {
		slog.Warn("snapshot catalog update failed", "scene_id", sceneID, "snapshot_id", snapshotID, "error", err)
	}

	if _, err := s.Autosave(sceneID); err != nil {
		return SnapshotInfo{}, err
	}

	return SnapshotInfo{
		SceneID:    sceneID,
		SnapshotID: snapshotID,
		Path:       path,
		Summary:    st.Summary(),
	}, nil
}

// Restore replaces the scene's live state wholesale with the named
// snapshot, keeping the requested scene id, then autosaves.
func (s *Store) Restore(sceneID, snapshotID string) (SnapshotInfo, error) {
	sceneID = normalizeSceneID(sceneID)
	snapshotID = strings.TrimSpace(snapshotID)
	if snapshotID == "" {
		return SnapshotInfo{}, fmt.Errorf("snapshot id is required")
	}

	path := filepath.Join(s.sceneDir(sceneID), snapshotDir, snapshotID+".json")
	st, err := readDocument(path)
	if err != nil {
		return SnapshotInfo{}, fmt.Errorf("restore %s/%s: %w", sceneID, snapshotID, err)
	}
	st.SceneID = sceneID

	s.mu.Lock()
	s.scenes[sceneID] = st
	s.mu.Unlock()

	if _, err := s.Autosave(sceneID); err != nil {
		return SnapshotInfo{}, err
	}

	return SnapshotInfo{
		SceneID:    sceneID,
		SnapshotID: snapshotID,
		Path:       path,
		Summary:    st.Summary(),
	}, nil
}

// ListSnapshots returns the scene's snapshot files, newest first.
func (s *Store) ListSnapshots(sceneID string) ([]SnapshotEntry, error) {
	sceneID = normalizeSceneID(sceneID)
	dir := filepath.Join(s.sceneDir(sceneID), snapshotDir)

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list snapshots: %w", err)
	}

	var out []SnapshotEntry
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		out = append(out, SnapshotEntry{
			SnapshotID: strings.TrimSuffix(entry.Name(), ".json"),
			Path:       filepath.Join(dir, entry.Name()),
			UpdatedAt:  info.ModTime(),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].SnapshotID < out[j].SnapshotID
	})
	return out, nil
}

// StateView returns the scene digest plus its snapshot listing.
func (s *Store) StateView(sceneID string) (StateView, error) {
	sceneID = normalizeSceneID(sceneID)
	st, err := s.GetOrCreate(sceneID)
	if err != nil {
		return StateView{}, err
	}
	snapshots, err := s.ListSnapshots(sceneID)
	if err != nil {
		return StateView{}, err
	}
	return StateView{Scene: st.Summary(), Snapshots: snapshots}, nil
}

// ListScenes lists every scene recorded in the catalog.
func (s *Store) ListScenes(ctx context.Context) ([]SceneRow, error) {
	return s.catalog.Scenes(ctx)
}

func (s *Store) sceneDir(sceneID string) string {
	return filepath.Join(s.root, sceneID)
}

// loadAutosave reads the autosave document for the scene, returning
// (nil, nil) when none exists yet.
func (s *Store) loadAutosave(sceneID string) (*scene.State, error) {
	path := filepath.Join(s.sceneDir(sceneID), autosaveName)
	st, err := readDocument(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("load scene %s: %w", sceneID, err)
	}
	st.SceneID = sceneID
	return st, nil
}

func readDocument(path string) (*scene.State, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	st := doc.State
	st.EnsureDefaults()
	return &st, nil
}

func (s *Store) writeDocument(path string, st *scene.State, snapshotID string, savedAt time.Time) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create scene dir: %w", err)
	}

	doc := document{
		State:      *st,
		SnapshotID: snapshotID,
		SavedAt:    savedAt.Format(time.RFC3339Nano),
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode scene document: %w", err)
	}

	// Write-then-rename so a crash mid-write never truncates the
	// previous document.
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write scene document: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("commit scene document: %w", err)
	}
	return nil
}

func normalizeSceneID(sceneID string) string {
	sceneID = strings.TrimSpace(sceneID)
	if sceneID == "" {
		return "default"
	}
	return scene.Slugify(sceneID)
}
