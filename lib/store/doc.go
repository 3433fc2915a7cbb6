// Package store provides the high-level interface for browsing and editing a
// bolt database file: listing, searching, reading and mutating nested buckets
// and keys, with unified error handling.
//
// The package focuses on:
//   - A unified interface (IStore) for the operations of the helper commands
//   - Domain types shared by all engines (Entry, Page, Match, Head, ...)
//   - A typed error taxonomy that the command dispatcher maps to exit codes
//
// Key Components:
//
//   - IStore Interface: The core abstraction defining the read and write
//     operations on one store file. Every method runs in its own transaction,
//     so each call sees a consistent snapshot and every mutation is applied
//     completely or not at all.
//
//   - Error System: A structured error reporting mechanism using typed error
//     codes (RetCode) and descriptive messages. AsError classifies bbolt, file
//     system and path resolution errors into the taxonomy, so callers only ever
//     deal with *Error values.
//
//   - Envelopes: conversion of results into the JSON wire types of the codec
//     package. Keys and values are base64 encoded on the way out.
//
// Implementations:
//
//	The bbolt implementation lives in the "github.com/ValentinKolb/bolthelper/lib/store/bstore"
//	package. The reusable conformance suite for IStore implementations lives in
//	"github.com/ValentinKolb/bolthelper/lib/store/testing".
package store
