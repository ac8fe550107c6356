// Package harness runs declarative scene scenarios for conformance
// testing.
//
// A scenario is a YAML file describing a sequence of turns against a
// fresh scene. Each turn is either a typed op batch or a legacy patch
// batch routed through the translator, optionally expecting a specific
// failure code. After the turns run, assertions validate the final
// state and golden files pin the full scene document byte for byte.
//
// Scenario YAML is parsed strictly: unknown fields are rejected so a
// typo in an assertion key fails loudly instead of silently passing.
package harness
