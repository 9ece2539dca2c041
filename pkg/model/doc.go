// Package model describes the durable data model of a deployment: runs,
// manifests, staged files, validation domains and the boot-confirmation
// state machine, together with the path encodings used on disk.
//
// The package is pure: it never touches the filesystem.
package model
