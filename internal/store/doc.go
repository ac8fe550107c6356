// Package store provides durable persistence for scene state.
//
// Layout under the store root:
//
//	<root>/<scene_id>/autosave.json              latest committed state
//	<root>/<scene_id>/snapshots/<snapshot>.json  named point-in-time copies
//	<root>/catalog.db                            SQLite index of scenes/snapshots
//
// JSON documents are the source of truth. Each one carries the full
// scene state plus a saved_at timestamp; missing fields default on load
// so documents written by older versions still parse. The SQLite
// catalog is a derived index used for cross-scene listing - a catalog
// write failure degrades listing, never the save itself.
//
// The store keeps one in-memory State per scene id, lazily loaded from
// autosave on first access. Callers must serialize mutation + save
// against a single scene id; the store only locks its own registry and
// file writes.
package store
