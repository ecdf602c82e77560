// Package mocks provides hand-written test doubles for the interfaces in
// internal/generation, internal/store and internal/service.
//
// Every mock exposes function fields (CreateFn, ReviewFn, ...) that override
// its behaviour. When a function field is nil the mock falls back to a
// simple default: the store mocks keep state in memory and enforce the same
// state rules as the PostgreSQL stores, so service and pipeline tests can
// run without a database.
package mocks
