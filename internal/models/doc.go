// Package models defines the core domain models for Roomies profiles.
//
// # Two Records Per Person
//
// Every person is represented twice:
//   - AccountRecord: the canonical, writable record. It holds authentication
//     identity, raw onboarding answers (numeric lifestyle scales, budget
//     ranges, structured location) and onboarding progress.
//   - DiscoveryRecord: a denormalized, display-ready projection keyed by the
//     same ID. It carries a single resolved image, canonical lifestyle
//     categories and pre-formatted strings, and is what browsing and
//     matching read.
//
// The account record is the source of truth. Discovery records are derived
// from it (see package profilesync) and are never edited independently,
// except for an explicit reset.
//
// # Partial Updates
//
// Mutations arrive as AccountPatch values. A nil field in a patch means
// "not part of this mutation"; only present fields are validated and merged.
//
// # Image References
//
// ProfileImage is a tagged union. The marker strings that distinguish
// "use my personality image" and "use the local default" from a real URL
// exist only in its JSON encoding (see ParseProfileImage), so the rest of
// the code never compares magic strings.
package models
