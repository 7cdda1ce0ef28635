// Package data is the value model shared by every content source and by the
// save format.
//
// Content definitions (actors, map layouts, event pages) are decoded from
// YAML, CUE or packed containers into a small closed set of types: Null,
// String, Int, Bool, Bytes, List and Object. Numbers are always int64; floats
// are rejected at the decoding boundary so that a saved game serializes to the
// same bytes on every device.
//
// Canonical serialization (MarshalCanonical) follows RFC 8785 and is the only
// encoding used for save blobs and content hashes.
package data
