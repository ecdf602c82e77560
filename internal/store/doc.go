// Package store defines the persistence interfaces for raw questions,
// promoted questions, the model call audit log, and statistics. These
// interfaces keep the pipeline and service layers independent of the
// database; internal/platform/postgres provides the implementation.
package store
