// Package core implements the transactional deployment engine: run and
// backup bookkeeping, off-path staging, atomic in-place replacement for
// live-critical files, boot-time commit, the dead-man's-switch boot
// verifier and the automatic rollback engine.
//
// The engine is strictly sequential. Its "concurrency" is temporal: the
// boot that applies a deployment versus the next boot that judges it.
// A reboot is the transaction boundary, modeled as three phases: stage
// (invisible), apply-at-boot (visible, unconfirmed), verify (confirmed).
// Rollback is reachable only from the unconfirmed phase.
package core
