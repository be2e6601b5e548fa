// Package output provides serialization and output destinations for
// unitconv results, history exports and rate snapshots.
//
// The package is organized around three concerns:
//
//   - Serialization (serializer.go): YAML, JSON and JSON Lines
//     encoders with a trailing newline and stable key order.
//
//   - Formats (registry.go): a [Registry] mapping format names and
//     aliases such as "yml" to [Encoder] functions.
//
//   - Writers (writer.go): pluggable destinations via the [Writer]
//     interface, with [StreamWriter] and [FileWriter] implementations.
package output
