package wheelfile

import "github.com/MrMino/wheelfile/internal/zipstore"

// Re-export storage types from internal/zipstore for the public API.
type (
	// Storage is the archive container backend a WheelFile operates on.
	Storage = zipstore.Storage

	// EntryInfo describes a stored archive entry.
	EntryInfo = zipstore.EntryInfo

	// EntryOption adjusts how a single entry is written into storage.
	EntryOption = zipstore.EntryOption

	// RawEntry is an entry in its exact stored (compressed) form.
	RawEntry = zipstore.RawEntry

	// RawReader is a storage backend exposing entries in stored form.
	RawReader = zipstore.RawReader

	// RawWriter is a storage backend accepting pre-compressed entries.
	RawWriter = zipstore.RawWriter
)

// Entry write options re-exported from internal/zipstore.
var (
	// EntryWithModTime overrides the modification time of a written entry.
	EntryWithModTime = zipstore.EntryWithModTime

	// EntryStored writes an entry uncompressed.
	EntryStored = zipstore.EntryStored
)
