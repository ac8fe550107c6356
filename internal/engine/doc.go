// Package engine implements the scene apply engine.
//
// The engine interprets ordered batches of typed ops against a live
// scene graph under a safety policy. One call to Apply is one logical
// turn: the batch is normalized into a deterministic total order, run
// through the rebuild heuristic, applied op by op with duplicate-op
// deduplication, and finally checked against the policy's resource caps.
//
// ATOMICITY: Apply stages every mutation on a deep clone of the scene
// and swaps the clone in only after cap enforcement passes. A batch
// that fails - at any op, or at the final cap check - leaves the live
// scene completely untouched: graph, revision, and dedup set alike.
//
// CONCURRENCY: The engine performs no locking. A scene is mutated by
// one logical writer per turn; serializing Apply calls against the same
// scene id is the caller's responsibility. Different scene ids share no
// mutable state.
//
// All failures are a single typed error (*ApplyError) carrying a stable
// code, human message, and structured detail. Duplicate op ids are NOT
// errors - they are skipped and reported as warnings.
package engine
