// Package naming derives stable, human-readable names for definitions that
// the bundler inlines from external documents.
//
// Names come from the last JSON Pointer token of a reference (or the file
// stem for whole-document references), converted to PascalCase. When a name
// is already taken, [Unique] first tries qualifying it with the file stem and
// then appends a numeric suffix.
package naming
