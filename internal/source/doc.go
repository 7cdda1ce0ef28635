// Package source implements the overlay data store: named content sources
// whose bodies are loaded on demand and dropped from memory as soon as the
// last handle into them closes.
//
// A source has a manifest (its exported object names), which is read and
// cached without touching the body. Backends read YAML, CUE and packed
// image containers from a content directory.
package source
