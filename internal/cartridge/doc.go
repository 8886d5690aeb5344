// Package cartridge moves a package between disk and the entity store.
//
// Load scans a package directory into a fresh in-memory store, Write
// persists a rebuilt plan (writing changed documents, removing documents
// the plan no longer produces), Create lays down an empty course and
// Archive zips the package for upload.
//
// Tool state that is not part of the cartridge format lives under
// .cartridge/ and is never packaged.
package cartridge
