// Package codec implements the transport encoding of the bolthelper protocol.
//
// Everything that crosses the process boundary is copied out of the store and
// encoded here:
//
//   - Byte strings (keys, values, prefixes, cursors) travel as standard base64
//     (EncodeBytes / DecodeBytes), so arbitrary binary keys survive the JSON
//     round trip unchanged.
//   - Results are written as exactly one JSON document per invocation. The
//     envelope types in envelope.go fix the field names the IDE client decodes
//     (keyBase64, valueSize, isBucket, nextAfterKey, ...).
//   - The ISerializer interface hides the JSON implementation (goccy/go-json).
//     Results, export documents and test decoding all go through it.
//
// Bucket path segments are plain UTF-8 strings on the wire and are not encoded
// by this package.
package codec
