package testing

import (
	"fmt"
	"io"
	"testing"

	"github.com/ValentinKolb/bolthelper/lib/db"
	"github.com/ValentinKolb/bolthelper/lib/store"
)

// RunIStoreBenchmarks runs all benchmarks for an IStore implementation
func RunIStoreBenchmarks(b *testing.B, name string, factory StoreFactory) {

	b.Run("ListPage", func(b *testing.B) {
		benchmarkListPage(b, factory)
	})

	b.Run("ListAll", func(b *testing.B) {
		benchmarkListAll(b, factory)
	})

	b.Run("Search", func(b *testing.B) {
		benchmarkSearch(b, factory)
	})

	b.Run("Head", func(b *testing.B) {
		benchmarkHead(b, factory)
	})

	b.Run("Put", func(b *testing.B) {
		benchmarkPut(b, factory)
	})

	b.Run("Export", func(b *testing.B) {
		benchmarkExport(b, factory)
	})
}

// benchTree holds 10 buckets of 1000 keys each, every bucket with one nested
// bucket of 100 keys
func benchTree() Tree {
	tree := Tree{}
	for i := 0; i < 10; i++ {
		bucket := NumberedKeys("key", 1000)
		bucket["nested"] = NumberedKeys("nested", 100)
		tree[fmt.Sprintf("bucket%02d", i)] = bucket
	}
	return tree
}

// --------------------------------------------------------------------------
// Benchmark functions
// --------------------------------------------------------------------------

// Benchmark for one page in the middle of a bucket
func benchmarkListPage(b *testing.B, factory StoreFactory) {
	s := open(b, factory, benchTree(), db.ModeReadOnly)
	opts := store.ListOptions{AfterKey: []byte("key500"), Limit: 100}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := s.List(store.Path{"bucket05"}, opts); err != nil {
			b.Fatal(err)
		}
	}
}

// Benchmark for paging through a full bucket
func benchmarkListAll(b *testing.B, factory StoreFactory) {
	s := open(b, factory, benchTree(), db.ModeReadOnly)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if n := len(listAll(b, s, store.Path{"bucket05"}, nil, 100)); n != 1001 {
			b.Fatalf("expected 1001 entries, got %d", n)
		}
	}
}

// Benchmark for a case folded search over the whole store
func benchmarkSearch(b *testing.B, factory StoreFactory) {
	s := open(b, factory, benchTree(), db.ModeReadOnly)
	opts := store.SearchOptions{Query: "NESTED05", Limit: 1000}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := s.Search(opts); err != nil {
			b.Fatal(err)
		}
	}
}

// Benchmark for head reads of a single key
func benchmarkHead(b *testing.B, factory StoreFactory) {
	s := open(b, factory, benchTree(), db.ModeReadOnly)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := s.Head(store.Path{"bucket03", "nested"}, []byte("nested042"), 64); err != nil {
			b.Fatal(err)
		}
	}
}

// Benchmark for single key writes, one transaction each
func benchmarkPut(b *testing.B, factory StoreFactory) {
	s := open(b, factory, Tree{"bench": Tree{}}, db.ModeReadWrite)
	value := make([]byte, 128)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		key := []byte(fmt.Sprintf("key%d", i%1000))
		if err := s.Put(store.Path{"bench"}, key, value); err != nil {
			b.Fatal(err)
		}
	}
}

// Benchmark for exporting one bucket with its nested bucket
func benchmarkExport(b *testing.B, factory StoreFactory) {
	s := open(b, factory, benchTree(), db.ModeReadOnly)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := s.Export(store.Path{"bucket01"}, nil, io.Discard); err != nil {
			b.Fatal(err)
		}
	}
}
