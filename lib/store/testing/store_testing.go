package testing

import (
	"bytes"
	"fmt"
	"sort"
	"testing"

	"github.com/ValentinKolb/bolthelper/lib/codec"
	"github.com/ValentinKolb/bolthelper/lib/db"
	"github.com/ValentinKolb/bolthelper/lib/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// StoreFactory opens the bolt file at path in the given mode. The suite closes
// every store it opens.
type StoreFactory func(t testing.TB, path string, mode db.Mode) store.IStore

// RunIStoreTests runs the behavioural test suite for an IStore implementation.
func RunIStoreTests(t *testing.T, name string, factory StoreFactory) {
	t.Run(name, func(t *testing.T) {
		t.Run("Info", func(t *testing.T) {
			testInfo(t, factory)
		})

		t.Run("ListBuckets", func(t *testing.T) {
			testListBuckets(t, factory)
		})

		t.Run("ListScenario", func(t *testing.T) {
			testListScenario(t, factory)
		})

		t.Run("ListCompleteness", func(t *testing.T) {
			testListCompleteness(t, factory)
		})

		t.Run("ListPrefix", func(t *testing.T) {
			testListPrefix(t, factory)
		})

		t.Run("ListEntryKinds", func(t *testing.T) {
			testListEntryKinds(t, factory)
		})

		t.Run("ListErrors", func(t *testing.T) {
			testListErrors(t, factory)
		})

		t.Run("Search", func(t *testing.T) {
			testSearch(t, factory)
		})

		t.Run("SearchValues", func(t *testing.T) {
			testSearchValues(t, factory)
		})

		t.Run("SearchLimit", func(t *testing.T) {
			testSearchLimit(t, factory)
		})

		t.Run("SearchDeterminism", func(t *testing.T) {
			testSearchDeterminism(t, factory)
		})

		t.Run("SearchErrors", func(t *testing.T) {
			testSearchErrors(t, factory)
		})

		t.Run("HeadRoundTrip", func(t *testing.T) {
			testHeadRoundTrip(t, factory)
		})

		t.Run("HeadErrors", func(t *testing.T) {
			testHeadErrors(t, factory)
		})

		t.Run("Save", func(t *testing.T) {
			testSave(t, factory)
		})

		t.Run("CreateBucket", func(t *testing.T) {
			testCreateBucket(t, factory)
		})

		t.Run("Put", func(t *testing.T) {
			testPut(t, factory)
		})

		t.Run("MutationAtomicity", func(t *testing.T) {
			testMutationAtomicity(t, factory)
		})

		t.Run("DeleteKey", func(t *testing.T) {
			testDeleteKey(t, factory)
		})

		t.Run("DeleteBucket", func(t *testing.T) {
			testDeleteBucket(t, factory)
		})

		t.Run("Stats", func(t *testing.T) {
			testStats(t, factory)
		})

		t.Run("Export", func(t *testing.T) {
			testExport(t, factory)
		})

		t.Run("ReadOnly", func(t *testing.T) {
			testReadOnly(t, factory)
		})
	})
}

// --------------------------------------------------------------------------
// Helper functions
// --------------------------------------------------------------------------

func open(t testing.TB, factory StoreFactory, tree Tree, mode db.Mode) store.IStore {
	t.Helper()
	s := factory(t, Build(t, tree), mode)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// listAll pages through a bucket by chaining NextAfterKey
func listAll(t testing.TB, s store.IStore, path store.Path, prefix []byte, limit int) []store.Entry {
	t.Helper()
	var all []store.Entry
	var after []byte
	for i := 0; ; i++ {
		require.Less(t, i, 10000, "pagination does not terminate")
		page, err := s.List(path, store.ListOptions{Prefix: prefix, AfterKey: after, Limit: limit})
		require.NoError(t, err)
		require.LessOrEqual(t, len(page.Items), limit)
		all = append(all, page.Items...)
		if page.NextAfterKey == nil {
			return all
		}
		require.NotEmpty(t, page.Items)
		require.Equal(t, page.Items[len(page.Items)-1].Key, page.NextAfterKey)
		after = page.NextAfterKey
	}
}

func keysOf(entries []store.Entry) []string {
	keys := make([]string, 0, len(entries))
	for _, e := range entries {
		keys = append(keys, string(e.Key))
	}
	return keys
}

func matchKeys(matches []store.Match) []string {
	keys := make([]string, 0, len(matches))
	for _, m := range matches {
		keys = append(keys, m.Path.String()+":"+string(m.Entry.Key))
	}
	return keys
}

// snapshot exports the whole store, byte for byte
func snapshot(t testing.TB, s store.IStore) []byte {
	t.Helper()
	var buf bytes.Buffer
	_, err := s.Export(store.Path{}, nil, &buf)
	require.NoError(t, err)
	return buf.Bytes()
}

func requireCode(t testing.TB, code store.RetCode, err error) {
	t.Helper()
	require.Error(t, err)
	var se *store.Error
	require.ErrorAs(t, err, &se, "expected *store.Error, got %T", err)
	require.Equal(t, code, se.Code, "unexpected error: %v", err)
}

// --------------------------------------------------------------------------
// Test functions
// --------------------------------------------------------------------------

func testInfo(t *testing.T, factory StoreFactory) {
	path := Build(t, Tree{"a": Tree{"k": "v"}, "b": Tree{}})
	s := factory(t, path, db.ModeReadOnly)
	defer s.Close()

	info, err := s.Info()
	require.NoError(t, err)
	assert.Equal(t, path, info.Path)
	assert.Equal(t, 2, info.RootBuckets)
	assert.Greater(t, info.PageSize, 0)
	assert.Greater(t, info.SizeBytes, int64(0))
	assert.True(t, info.ReadOnly)
}

func testListBuckets(t *testing.T, factory StoreFactory) {
	s := open(t, factory, Tree{
		"r": Tree{"b1": Tree{}, "k": "v", "b2": Tree{"x": "y"}},
		"s": Tree{},
	}, db.ModeReadOnly)

	names, err := s.ListBuckets(store.Path{"r"})
	require.NoError(t, err)
	assert.Equal(t, [][]byte{[]byte("b1"), []byte("b2")}, names)

	names, err = s.ListBuckets(store.Path{})
	require.NoError(t, err)
	assert.Equal(t, [][]byte{[]byte("r"), []byte("s")}, names)

	names, err = s.ListBuckets(store.Path{"s"})
	require.NoError(t, err)
	assert.Empty(t, names)

	_, err = s.ListBuckets(store.Path{"nope"})
	requireCode(t, store.RetCPathNotFound, err)
}

func testListScenario(t *testing.T, factory StoreFactory) {
	s := open(t, factory, Tree{
		"a": Tree{"k1": "v1", "k2": "v2", "k3": "v3", "k4": "v4", "k5": "v5"},
	}, db.ModeReadOnly)
	path := store.Path{"a"}

	page, err := s.List(path, store.ListOptions{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"k1", "k2"}, keysOf(page.Items))
	assert.Equal(t, []byte("k2"), page.NextAfterKey)

	page, err = s.List(path, store.ListOptions{AfterKey: []byte("k2"), Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"k3", "k4"}, keysOf(page.Items))
	assert.Equal(t, []byte("k4"), page.NextAfterKey)

	page, err = s.List(path, store.ListOptions{AfterKey: []byte("k4"), Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"k5"}, keysOf(page.Items))
	assert.Nil(t, page.NextAfterKey)

	// a page that ends exactly at the last entry is still the last page
	page, err = s.List(path, store.ListOptions{AfterKey: []byte("k3"), Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"k4", "k5"}, keysOf(page.Items))
	assert.Nil(t, page.NextAfterKey)

	// the cursor does not have to exist
	page, err = s.List(path, store.ListOptions{AfterKey: []byte("k20"), Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, []string{"k3", "k4", "k5"}, keysOf(page.Items))
}

func testListCompleteness(t *testing.T, factory StoreFactory) {
	content := NumberedKeys("key", 57)
	content["zz-bucket"] = Tree{"inner": "x"}
	s := open(t, factory, Tree{"b": content}, db.ModeReadOnly)

	expected := make([]string, 0, len(content))
	for k := range content {
		expected = append(expected, k)
	}
	sort.Strings(expected)

	for _, limit := range []int{1, 2, 7, 58, 100} {
		t.Run(fmt.Sprintf("limit=%d", limit), func(t *testing.T) {
			all := listAll(t, s, store.Path{"b"}, nil, limit)
			assert.Equal(t, expected, keysOf(all))
		})
	}
}

func testListPrefix(t *testing.T, factory StoreFactory) {
	s := open(t, factory, Tree{
		"p": Tree{
			"apple": "1", "apricot": "2", "b": "3", "banana": "4",
			"band": "5", "bandana": "6", "can": "7",
		},
	}, db.ModeReadOnly)
	path := store.Path{"p"}

	for _, limit := range []int{1, 2, 10} {
		all := listAll(t, s, path, []byte("ban"), limit)
		assert.Equal(t, []string{"banana", "band", "bandana"}, keysOf(all), "limit %d", limit)
	}

	all := listAll(t, s, path, []byte("ap"), 1)
	assert.Equal(t, []string{"apple", "apricot"}, keysOf(all))

	// cursor before the prefix range starts at the prefix
	page, err := s.List(path, store.ListOptions{Prefix: []byte("ban"), AfterKey: []byte("a"), Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, []string{"banana", "band", "bandana"}, keysOf(page.Items))

	// cursor inside the prefix range resumes after it
	page, err = s.List(path, store.ListOptions{Prefix: []byte("ban"), AfterKey: []byte("band"), Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, []string{"bandana"}, keysOf(page.Items))
	assert.Nil(t, page.NextAfterKey)

	// cursor behind the prefix range yields nothing
	page, err = s.List(path, store.ListOptions{Prefix: []byte("ban"), AfterKey: []byte("c"), Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, page.Items)

	page, err = s.List(path, store.ListOptions{Prefix: []byte("zz"), Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.Nil(t, page.NextAfterKey)
}

func testListEntryKinds(t *testing.T, factory StoreFactory) {
	s := open(t, factory, Tree{
		"f": Tree{"key": "value12", "sub": Tree{}, "empty": ""},
		"e": Tree{},
	}, db.ModeReadOnly)

	page, err := s.List(store.Path{"f"}, store.ListOptions{Limit: 10})
	require.NoError(t, err)
	require.Len(t, page.Items, 3)
	assert.Equal(t, store.Entry{Key: []byte("empty"), ValueSize: 0, Kind: store.KindKey}, page.Items[0])
	assert.Equal(t, store.Entry{Key: []byte("key"), ValueSize: 7, Kind: store.KindKey}, page.Items[1])
	assert.Equal(t, store.Entry{Key: []byte("sub"), ValueSize: 0, Kind: store.KindBucket}, page.Items[2])

	page, err = s.List(store.Path{"e"}, store.ListOptions{Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.Nil(t, page.NextAfterKey)

	page, err = s.List(store.Path{}, store.ListOptions{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, []string{"e", "f"}, keysOf(page.Items))
	for _, e := range page.Items {
		assert.True(t, e.IsBucket())
	}
}

func testListErrors(t *testing.T, factory StoreFactory) {
	s := open(t, factory, Tree{"f": Tree{"key": "v", "sub": Tree{}}}, db.ModeReadOnly)

	_, err := s.List(store.Path{"f"}, store.ListOptions{Limit: 0})
	requireCode(t, store.RetCInvalidArgument, err)

	_, err = s.List(store.Path{"f"}, store.ListOptions{Limit: -1})
	requireCode(t, store.RetCInvalidArgument, err)

	_, err = s.List(store.Path{"missing"}, store.ListOptions{Limit: 1})
	requireCode(t, store.RetCPathNotFound, err)

	_, err = s.List(store.Path{"f", "key"}, store.ListOptions{Limit: 1})
	requireCode(t, store.RetCNotABucket, err)

	_, err = s.List(store.Path{"f", "sub", "deeper"}, store.ListOptions{Limit: 1})
	requireCode(t, store.RetCPathNotFound, err)
}

// searchTree is shared by the search tests. In native order the root holds
// "alice-bucket" before "users", and "Bob" sorts before "alice".
func searchTree() Tree {
	return Tree{
		"users": Tree{
			"alice":  "admin",
			"Bob":    "user",
			"nested": Tree{"alice-notes": "hello", "carol": "ALICE's friend"},
		},
		"alice-bucket": Tree{"x": "y"},
	}
}

func testSearch(t *testing.T, factory StoreFactory) {
	s := open(t, factory, searchTree(), db.ModeReadOnly)

	res, err := s.Search(store.SearchOptions{Query: "ALICE", Limit: 100})
	require.NoError(t, err)
	assert.Equal(t, []string{":alice-bucket", "users:alice", "users/nested:alice-notes"}, matchKeys(res.Items))
	assert.False(t, res.Limited)
	assert.Equal(t, 8, res.Scanned)

	assert.True(t, res.Items[0].Entry.IsBucket())
	assert.False(t, res.Items[1].Entry.IsBucket())
	assert.Equal(t, 5, res.Items[1].Entry.ValueSize)
	assert.Equal(t, store.MatchKey, res.Items[1].Type)

	res, err = s.Search(store.SearchOptions{Query: "ALICE", Limit: 100, CaseSensitive: true})
	require.NoError(t, err)
	assert.Empty(t, res.Items)
	assert.False(t, res.Limited)

	res, err = s.Search(store.SearchOptions{Query: "Bob", Limit: 100, CaseSensitive: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"users:Bob"}, matchKeys(res.Items))

	// subtree search keeps full paths
	res, err = s.Search(store.SearchOptions{Query: "alice", Limit: 100, Root: store.Path{"users"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"users:alice", "users/nested:alice-notes"}, matchKeys(res.Items))

	// a matching bucket is still descended into
	s2 := open(t, factory, Tree{"match": Tree{"match-child": Tree{"match-leaf": "v"}}}, db.ModeReadOnly)
	res, err = s2.Search(store.SearchOptions{Query: "match", Limit: 100})
	require.NoError(t, err)
	assert.Equal(t, []string{":match", "match:match-child", "match/match-child:match-leaf"}, matchKeys(res.Items))
}

func testSearchValues(t *testing.T, factory StoreFactory) {
	s := open(t, factory, searchTree(), db.ModeReadOnly)

	res, err := s.Search(store.SearchOptions{Query: "friend", Limit: 100})
	require.NoError(t, err)
	assert.Empty(t, res.Items)

	res, err = s.Search(store.SearchOptions{Query: "friend", Limit: 100, Values: true})
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "users/nested:carol", matchKeys(res.Items)[0])
	assert.Equal(t, store.MatchValue, res.Items[0].Type)

	// key matches win over value matches, each entry is reported once
	res, err = s.Search(store.SearchOptions{Query: "alice", Limit: 100, Values: true})
	require.NoError(t, err)
	assert.Equal(t, []string{":alice-bucket", "users:alice", "users/nested:alice-notes", "users/nested:carol"}, matchKeys(res.Items))
	types := []store.MatchType{}
	for _, m := range res.Items {
		types = append(types, m.Type)
	}
	assert.Equal(t, []store.MatchType{store.MatchKey, store.MatchKey, store.MatchKey, store.MatchValue}, types)
}

func testSearchLimit(t *testing.T, factory StoreFactory) {
	s := open(t, factory, searchTree(), db.ModeReadOnly)

	// exactly as many matches as the limit: not truncated
	res, err := s.Search(store.SearchOptions{Query: "alice", Limit: 3})
	require.NoError(t, err)
	assert.Len(t, res.Items, 3)
	assert.False(t, res.Limited)

	res, err = s.Search(store.SearchOptions{Query: "alice", Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{":alice-bucket", "users:alice"}, matchKeys(res.Items))
	assert.True(t, res.Limited)

	res, err = s.Search(store.SearchOptions{Query: "alice", Limit: 1})
	require.NoError(t, err)
	assert.Len(t, res.Items, 1)
	assert.True(t, res.Limited)
}

func testSearchDeterminism(t *testing.T, factory StoreFactory) {
	tree := Tree{}
	for i := 0; i < 5; i++ {
		b := NumberedKeys("item", 20)
		b["child"] = NumberedKeys("item-child", 5)
		tree[fmt.Sprintf("bucket%d", i)] = b
	}
	s := open(t, factory, tree, db.ModeReadOnly)

	opts := store.SearchOptions{Query: "item01", Limit: 50}
	first, err := s.Search(opts)
	require.NoError(t, err)
	second, err := s.Search(opts)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.NotEmpty(t, first.Items)
}

func testSearchErrors(t *testing.T, factory StoreFactory) {
	s := open(t, factory, searchTree(), db.ModeReadOnly)

	_, err := s.Search(store.SearchOptions{Query: "", Limit: 10})
	requireCode(t, store.RetCInvalidArgument, err)

	_, err = s.Search(store.SearchOptions{Query: "x", Limit: 0})
	requireCode(t, store.RetCInvalidArgument, err)

	_, err = s.Search(store.SearchOptions{Query: "x", Limit: 10, Root: store.Path{"nope"}})
	requireCode(t, store.RetCPathNotFound, err)

	_, err = s.Search(store.SearchOptions{Query: "x", Limit: 10, Root: store.Path{"users", "alice"}})
	requireCode(t, store.RetCNotABucket, err)
}

func testHeadRoundTrip(t *testing.T, factory StoreFactory) {
	s := open(t, factory, Tree{"h": Tree{}}, db.ModeReadWrite)
	path := store.Path{"h"}

	value := make([]byte, 256)
	for i := range value {
		value[i] = byte(i)
	}
	key := []byte{0x00, 0xff, 'k'}
	require.NoError(t, s.Put(path, key, value))

	head, err := s.Head(path, key, len(value))
	require.NoError(t, err)
	assert.Equal(t, value, head.Value)
	assert.Equal(t, len(value), head.TotalSize)

	head, err = s.Head(path, key, 10)
	require.NoError(t, err)
	assert.Equal(t, value[:10], head.Value)
	assert.Equal(t, 256, head.TotalSize)

	head, err = s.Head(path, key, 1<<20)
	require.NoError(t, err)
	assert.Equal(t, value, head.Value)

	head, err = s.Head(path, key, 0)
	require.NoError(t, err)
	assert.Empty(t, head.Value)
	assert.Equal(t, 256, head.TotalSize)
}

func testHeadErrors(t *testing.T, factory StoreFactory) {
	s := open(t, factory, Tree{"h": Tree{"k": "v", "sub": Tree{}}}, db.ModeReadOnly)

	_, err := s.Head(store.Path{"h"}, []byte("missing"), 10)
	requireCode(t, store.RetCKeyNotFound, err)

	_, err = s.Head(store.Path{"h"}, []byte("sub"), 10)
	requireCode(t, store.RetCNotAKey, err)

	_, err = s.Head(store.Path{"h"}, []byte("k"), -1)
	requireCode(t, store.RetCInvalidArgument, err)

	_, err = s.Head(store.Path{"h"}, nil, 10)
	requireCode(t, store.RetCInvalidArgument, err)

	_, err = s.Head(store.Path{"nope"}, []byte("k"), 10)
	requireCode(t, store.RetCPathNotFound, err)
}

func testSave(t *testing.T, factory StoreFactory) {
	value := bytes.Repeat([]byte("0123456789"), 1000)
	s := open(t, factory, Tree{"v": Tree{"big": value}}, db.ModeReadOnly)

	var buf bytes.Buffer
	size, err := s.Save(store.Path{"v"}, []byte("big"), &buf)
	require.NoError(t, err)
	assert.Equal(t, len(value), size)
	assert.Equal(t, value, buf.Bytes())

	buf.Reset()
	_, err = s.Save(store.Path{"v"}, []byte("small"), &buf)
	requireCode(t, store.RetCKeyNotFound, err)
	assert.Zero(t, buf.Len())
}

func testCreateBucket(t *testing.T, factory StoreFactory) {
	s := open(t, factory, Tree{"c": Tree{"k": "v"}}, db.ModeReadWrite)

	require.NoError(t, s.CreateBucket(store.Path{"c", "new"}))
	names, err := s.ListBuckets(store.Path{"c"})
	require.NoError(t, err)
	assert.Equal(t, [][]byte{[]byte("new")}, names)

	page, err := s.List(store.Path{"c", "new"}, store.ListOptions{Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, page.Items)

	err = s.CreateBucket(store.Path{"c", "new"})
	requireCode(t, store.RetCAlreadyExists, err)

	err = s.CreateBucket(store.Path{"c", "k"})
	requireCode(t, store.RetCAlreadyExists, err)

	err = s.CreateBucket(store.Path{"missing", "x"})
	requireCode(t, store.RetCPathNotFound, err)

	err = s.CreateBucket(store.Path{"c", "k", "x"})
	requireCode(t, store.RetCNotABucket, err)

	err = s.CreateBucket(store.Path{})
	requireCode(t, store.RetCInvalidArgument, err)

	require.NoError(t, s.CreateBucket(store.Path{"top"}))
	names, err = s.ListBuckets(store.Path{})
	require.NoError(t, err)
	assert.Equal(t, [][]byte{[]byte("c"), []byte("top")}, names)
}

func testPut(t *testing.T, factory StoreFactory) {
	s := open(t, factory, Tree{"p": Tree{"k": "v1", "sub": Tree{}}}, db.ModeReadWrite)
	path := store.Path{"p"}

	require.NoError(t, s.Put(path, []byte("k"), []byte("value-2")))
	head, err := s.Head(path, []byte("k"), 100)
	require.NoError(t, err)
	assert.Equal(t, "value-2", string(head.Value))

	// empty values are allowed and stay keys
	require.NoError(t, s.Put(path, []byte("empty"), nil))
	page, err := s.List(path, store.ListOptions{Prefix: []byte("empty"), Limit: 10})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, store.KindKey, page.Items[0].Kind)
	assert.Equal(t, 0, page.Items[0].ValueSize)

	err = s.Put(path, []byte("sub"), []byte("x"))
	requireCode(t, store.RetCNotAKey, err)

	err = s.Put(store.Path{}, []byte("k"), []byte("x"))
	requireCode(t, store.RetCInvalidArgument, err)

	err = s.Put(path, nil, []byte("x"))
	requireCode(t, store.RetCInvalidArgument, err)

	err = s.Put(store.Path{"p", "k"}, []byte("x"), []byte("x"))
	requireCode(t, store.RetCNotABucket, err)
}

func testMutationAtomicity(t *testing.T, factory StoreFactory) {
	s := open(t, factory, Tree{"a": Tree{"k1": "v1", "sub": Tree{"k2": "v2"}}}, db.ModeReadWrite)
	before := snapshot(t, s)

	requireCode(t, store.RetCPathNotFound, s.Put(store.Path{"missing"}, []byte("k"), []byte("v")))
	requireCode(t, store.RetCAlreadyExists, s.CreateBucket(store.Path{"a", "sub"}))
	requireCode(t, store.RetCNotAKey, s.DeleteKey(store.Path{"a"}, []byte("sub")))
	requireCode(t, store.RetCPathNotFound, s.DeleteBucket(store.Path{"a", "nope"}))
	require.NoError(t, s.DeleteKey(store.Path{"a"}, []byte("absent")))

	assert.Equal(t, before, snapshot(t, s))
}

func testDeleteKey(t *testing.T, factory StoreFactory) {
	s := open(t, factory, Tree{"d": Tree{"k": "v", "sub": Tree{}}}, db.ModeReadWrite)
	path := store.Path{"d"}

	require.NoError(t, s.DeleteKey(path, []byte("k")))
	_, err := s.Head(path, []byte("k"), 1)
	requireCode(t, store.RetCKeyNotFound, err)

	// deleting again is a no-op
	before := snapshot(t, s)
	require.NoError(t, s.DeleteKey(path, []byte("k")))
	assert.Equal(t, before, snapshot(t, s))

	err = s.DeleteKey(store.Path{"nope"}, []byte("k"))
	requireCode(t, store.RetCPathNotFound, err)

	err = s.DeleteKey(path, nil)
	requireCode(t, store.RetCInvalidArgument, err)
}

func testDeleteBucket(t *testing.T, factory StoreFactory) {
	s := open(t, factory, Tree{
		"d": Tree{
			"sub": Tree{"deep": Tree{"k": "v"}, "k2": "v"},
			"key": "v",
		},
	}, db.ModeReadWrite)

	require.NoError(t, s.DeleteBucket(store.Path{"d", "sub"}))
	page, err := s.List(store.Path{"d"}, store.ListOptions{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, []string{"key"}, keysOf(page.Items))

	_, err = s.List(store.Path{"d", "sub", "deep"}, store.ListOptions{Limit: 10})
	requireCode(t, store.RetCPathNotFound, err)

	err = s.DeleteBucket(store.Path{"d", "sub"})
	requireCode(t, store.RetCPathNotFound, err)

	err = s.DeleteBucket(store.Path{"d", "key"})
	requireCode(t, store.RetCNotABucket, err)

	err = s.DeleteBucket(store.Path{})
	requireCode(t, store.RetCInvalidArgument, err)

	require.NoError(t, s.DeleteBucket(store.Path{"d"}))
	names, err := s.ListBuckets(store.Path{})
	require.NoError(t, err)
	assert.Empty(t, names)
}

func testStats(t *testing.T, factory StoreFactory) {
	s := open(t, factory, Tree{
		"s": Tree{
			"a": "1", "bb": "22", "ccc": "333333",
			"sub": Tree{"x": "1", "deeper": Tree{"y": "2", "z": "3"}},
		},
	}, db.ModeReadOnly)

	stats, err := s.Stats(store.Path{"s"})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Buckets)
	assert.Equal(t, 3, stats.Keys)
	assert.Equal(t, []int{1, 2, 6}, stats.ValueSizes)
	assert.Equal(t, 6, stats.NestedKeys)
	assert.Equal(t, 2, stats.Depth)

	_, err = s.Stats(store.Path{"nope"})
	requireCode(t, store.RetCPathNotFound, err)
}

func testExport(t *testing.T, factory StoreFactory) {
	s := open(t, factory, Tree{
		"e": Tree{"p1": "v1", "p2": "v2", "q": "v3", "psub": Tree{"x": "y"}},
	}, db.ModeReadOnly)

	var buf bytes.Buffer
	summary, err := s.Export(store.Path{"e"}, []byte("p"), &buf)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Keys)
	assert.Equal(t, 1, summary.Buckets)
	assert.Equal(t, int64(buf.Len()), summary.Bytes)

	var doc codec.ExportDocument
	require.NoError(t, codec.NewJSONSerializer(false).Deserialize(buf.Bytes(), &doc))
	assert.Equal(t, codec.ExportFormat, doc.Format)
	assert.Equal(t, []string{"e"}, doc.Path)
	assert.Equal(t, codec.EncodeBytes([]byte("p")), doc.PrefixBase64)
	require.Len(t, doc.Entries, 3)

	names := []string{}
	for _, e := range doc.Entries {
		k, err := codec.DecodeBytes(e.KeyBase64)
		require.NoError(t, err)
		names = append(names, string(k))
	}
	assert.Equal(t, []string{"p1", "p2", "psub"}, names)

	require.NotNil(t, doc.Entries[0].ValueBase64)
	assert.Equal(t, codec.EncodeBytes([]byte("v1")), *doc.Entries[0].ValueBase64)
	require.NotNil(t, doc.Entries[2].Bucket)
	require.Len(t, doc.Entries[2].Bucket.Entries, 1)
	assert.Equal(t, codec.EncodeBytes([]byte("y")), *doc.Entries[2].Bucket.Entries[0].ValueBase64)

	_, err = s.Export(store.Path{"nope"}, nil, &buf)
	requireCode(t, store.RetCPathNotFound, err)
}

func testReadOnly(t *testing.T, factory StoreFactory) {
	s := open(t, factory, Tree{"r": Tree{"k": "v"}}, db.ModeReadOnly)

	err := s.Put(store.Path{"r"}, []byte("k"), []byte("v2"))
	requireCode(t, store.RetCIOError, err)

	head, err := s.Head(store.Path{"r"}, []byte("k"), 10)
	require.NoError(t, err)
	assert.Equal(t, "v", string(head.Value))
}
