// Package model defines shared data types used across the interaction feed.
//
// Conventions:
//   - Identifiers are opaque strings (UUIDs when produced by the simulator)
//   - Timestamps are display-only strings (RFC3339 UTC when produced here)
//   - Wire field names are camelCase to match the browser feed schema
package model
