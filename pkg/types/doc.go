// Package types defines the entities, natural keys, store interfaces, and
// standard errors shared by the qcwatch ingestion and merge engine.
//
// Entities are plain value objects. Shared rows (CV, Property) are referenced
// by surrogate ID from their holders and identified by natural key; the
// in-memory graph carries the natural key so the store can resolve it.
package types
