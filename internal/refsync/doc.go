// Package refsync regenerates the derived documents of a cartridge from
// the entity store.
//
// Derived documents are never patched. Every command ends with Rebuild,
// which reads the whole store and renders the manifest, the module
// ordering documents, the course settings and every content artifact from
// scratch. Identical store contents produce byte-identical output.
//
// The same package reads the manifest and module documents back, so the
// on-disk format lives in one place.
package refsync
