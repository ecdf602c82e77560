// Package cache holds the idempotency cache in front of the generation
// pipeline. Entries are short-lived previews keyed by a fingerprint of the
// generation inputs. The cache is never a source of truth: backend failures
// are logged and treated as misses.
package cache
