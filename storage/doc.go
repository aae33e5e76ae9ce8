// Package storage provides the key-value abstraction used for memoized
// model replies.
//
// Values are opaque bytes; callers encode them with the mus-go helpers in
// this package (MarshalString, MarshalStrings, MarshalRecord). Three
// backends implement Store:
//
//   - storage/badger: embedded BadgerDB, on disk or in memory
//   - storage/redis: a shared Redis server
//   - storage/fs: one file per key in a directory
//
// # Constructor Return Type Pattern
//
// Public constructors return the storage.Store interface to keep callers
// independent of the backend:
//
//	store, err := badger.Open("/var/lib/gurukul/cache", false)  // returns storage.Store
//
// # Thread Safety
//
// All Store implementations are safe for concurrent use.
package storage
