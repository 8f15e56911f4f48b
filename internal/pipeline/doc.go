// Package pipeline holds the pure kanban rules of a workspace pipeline:
// stage ordering, per-stage validation, intra-stage ordering, promotion
// rules and the optimistic board reducers used by the client coordinator.
//
// Nothing in this package performs I/O. Persistence and transport live in
// repositories, services and client; they call into these functions.
package pipeline
