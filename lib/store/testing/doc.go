// Package testing provides fixtures, a conformance test suite and benchmarks
// for implementations of the store.IStore interface.
//
// The package contains:
//   - fixture: Build and Populate create bolt files from a literal Tree
//   - testing: RunIStoreTests, the behavioural contract of IStore (pagination,
//     search, mutations, reads, exports)
//   - benchmark: RunIStoreBenchmarks for listing and search throughput
//
// Example usage:
//
//	factory := func(t testing.TB, path string, mode db.Mode) store.IStore {
//		s, err := bstore.NewBoltStore(path, bstore.Options{Mode: mode})
//		require.NoError(t, err)
//		return s
//	}
//
//	storetesting.RunIStoreTests(t, "BoltStore", factory)
package testing
