// Package directory defines the value types of the identity graph — Identity,
// Group, APIKey, Alias, Tag — together with their canonical JSON encodings,
// the credential types a caller can present, and the error taxonomy shared by
// every storage backend.
//
// Record ids are carried in the storage key, not in the document, so the
// encodings omit them; the loading code fills the ID field after decoding.
package directory
