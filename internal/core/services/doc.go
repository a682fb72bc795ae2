// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// Mutations of a collection's chunks are serialised per collection
// through a lock arena keyed by the collection's immutable handle;
// different collections never contend.
//
// Services are pure Go with no CGO or external dependencies.
package services
