// Package task runs background jobs on an in-memory queue drained by a fixed
// pool of workers. Its main job is the question pipeline: generating a
// question, persisting it, reviewing it and caching the outcome, all detached
// from the HTTP request that asked for it.
package task
