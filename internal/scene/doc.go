// Package scene defines the versioned scene graph document: entities,
// materials, behaviors, their bindings, and the bookkeeping that makes
// op application idempotent (canonical id aliases, per-namespace mint
// counters, the applied-op dedup set, and the uniform update timestamps).
//
// A State is exclusively owned by the store's in-memory registry. The
// engine mutates it only through Apply; nothing in this package locks.
package scene
