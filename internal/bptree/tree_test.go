package bptree

import (
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/kavak-db/kavak/internal/config"
)

func openTestTree(t *testing.T) *BPlusTree {
	t.Helper()

	opts := DefaultOptions()
	opts.PageSize = 512
	opts.Schema = testKeySchema()

	tree, err := Open(filepath.Join(t.TempDir(), "test.kvk"), opts)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() {
		if !tree.closed {
			tree.Close()
		}
	})
	return tree
}

func TestTreeBootstrap(t *testing.T) {
	tree := openTestTree(t)

	stats := tree.Stats()
	if stats.Root == 0 {
		t.Error("fresh tree has no root page")
	}
	if stats.Schema != testKeySchema().String() {
		t.Errorf("schema = %q", stats.Schema)
	}

	if _, err := tree.Search(intKey(t, 1)); !errors.Is(err, ErrKeyNotFound) {
		t.Errorf("Search on empty tree error = %v, want ErrKeyNotFound", err)
	}
	if found, err := tree.Contains(intKey(t, 1)); err != nil || found {
		t.Errorf("Contains on empty tree = (%v, %v)", found, err)
	}
}

func TestInsertAndSearch(t *testing.T) {
	tree := openTestTree(t)

	for i := int32(0); i < 10; i++ {
		if err := tree.Insert(intKey(t, i), uint64(1000+i)); err != nil {
			t.Fatalf("Insert %d failed: %v", i, err)
		}
	}

	for i := int32(0); i < 10; i++ {
		refs, err := tree.Search(intKey(t, i))
		if err != nil {
			t.Fatalf("Search %d failed: %v", i, err)
		}
		if len(refs) != 1 || refs[0] != uint64(1000+i) {
			t.Errorf("Search %d = %v", i, refs)
		}
	}
}

func TestInsertSplitsKeepTreeSearchable(t *testing.T) {
	tree := openTestTree(t)

	// Enough keys to force leaf splits, a root split, and internal splits
	// at page size 512.
	const n = 1500
	for i := int32(0); i < n; i++ {
		if err := tree.Insert(intKey(t, i), uint64(i)); err != nil {
			t.Fatalf("Insert %d failed: %v", i, err)
		}
	}

	for _, i := range []int32{0, 1, 500, 999, 1234, n - 1} {
		refs, err := tree.Search(intKey(t, i))
		if err != nil {
			t.Fatalf("Search %d failed: %v", i, err)
		}
		if len(refs) != 1 || refs[0] != uint64(i) {
			t.Errorf("Search %d = %v", i, refs)
		}
	}

	entries, err := tree.RangeScan(nil, nil)
	if err != nil {
		t.Fatalf("RangeScan failed: %v", err)
	}
	if len(entries) != n {
		t.Fatalf("full scan returned %d entries, want %d", len(entries), n)
	}
	for i := 1; i < len(entries); i++ {
		if entries[i-1].Key.Compare(entries[i].Key) >= 0 {
			t.Fatalf("scan out of order at %d: %s >= %s", i,
				FormatKey(entries[i-1].Key, tree.conf.Schema),
				FormatKey(entries[i].Key, tree.conf.Schema))
		}
	}
}

func TestDuplicateKeys(t *testing.T) {
	tree := openTestTree(t)
	key := intKey(t, 42)

	const dups = 60 // several overflow pages at page size 512
	want := make(map[uint64]bool)
	for i := 0; i < dups; i++ {
		ref := uint64(7000 + i)
		want[ref] = true
		if err := tree.Insert(key, ref); err != nil {
			t.Fatalf("duplicate insert %d failed: %v", i, err)
		}
	}

	refs, err := tree.Search(key)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(refs) != dups {
		t.Fatalf("Search returned %d refs, want %d", len(refs), dups)
	}
	for _, ref := range refs {
		if !want[ref] {
			t.Errorf("unexpected ref %d", ref)
		}
		delete(want, ref)
	}

	// Each delete removes exactly one stored occurrence.
	for i := 0; i < dups; i++ {
		if _, err := tree.Delete(key); err != nil {
			t.Fatalf("delete occurrence %d failed: %v", i, err)
		}
	}
	if _, err := tree.Delete(key); !errors.Is(err, ErrKeyNotFound) {
		t.Errorf("delete after drain error = %v, want ErrKeyNotFound", err)
	}
}

func TestDeleteRebalances(t *testing.T) {
	tree := openTestTree(t)

	const n = 600
	for i := int32(0); i < n; i++ {
		if err := tree.Insert(intKey(t, i), uint64(i)); err != nil {
			t.Fatalf("Insert %d failed: %v", i, err)
		}
	}

	// Delete in a scattered order so borrows and merges hit both siblings.
	for i := int32(0); i < n; i++ {
		k := (i * 7) % n
		ref, err := tree.Delete(intKey(t, k))
		if err != nil {
			t.Fatalf("Delete %d failed: %v", k, err)
		}
		if ref != uint64(k) {
			t.Errorf("Delete %d returned ref %d", k, ref)
		}
	}

	entries, err := tree.RangeScan(nil, nil)
	if err != nil {
		t.Fatalf("RangeScan failed: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("drained tree still has %d entries", len(entries))
	}

	// The tree must stay usable after draining, reusing freed pages.
	for i := int32(0); i < 50; i++ {
		if err := tree.Insert(intKey(t, i), uint64(i)); err != nil {
			t.Fatalf("reinsert %d failed: %v", i, err)
		}
	}
	refs, err := tree.Search(intKey(t, 25))
	if err != nil || len(refs) != 1 || refs[0] != 25 {
		t.Errorf("Search after reinsert = (%v, %v)", refs, err)
	}
}

func TestFreedPagesAreRecycled(t *testing.T) {
	tree := openTestTree(t)

	const n = 400
	for i := int32(0); i < n; i++ {
		if err := tree.Insert(intKey(t, i), uint64(i)); err != nil {
			t.Fatalf("Insert %d failed: %v", i, err)
		}
	}
	for i := int32(0); i < n; i++ {
		if _, err := tree.Delete(intKey(t, i)); err != nil {
			t.Fatalf("Delete %d failed: %v", i, err)
		}
	}

	before := tree.Stats().TotalPages
	for i := int32(0); i < n; i++ {
		if err := tree.Insert(intKey(t, i), uint64(i)); err != nil {
			t.Fatalf("reinsert %d failed: %v", i, err)
		}
	}
	after := tree.Stats().TotalPages

	if after > before {
		t.Errorf("file grew from %d to %d pages despite the free list", before, after)
	}
}

func TestRangeScanBounds(t *testing.T) {
	tree := openTestTree(t)

	for i := int32(1); i <= 50; i++ {
		if err := tree.Insert(intKey(t, i), uint64(i)); err != nil {
			t.Fatalf("Insert %d failed: %v", i, err)
		}
	}

	entries, err := tree.RangeScan(intKey(t, 10), intKey(t, 20))
	if err != nil {
		t.Fatalf("RangeScan failed: %v", err)
	}
	if len(entries) != 11 {
		t.Fatalf("RangeScan returned %d entries, want 11", len(entries))
	}
	if entries[0].Key[0].Int32() != 10 || entries[10].Key[0].Int32() != 20 {
		t.Errorf("bounds = (%d, %d)", entries[0].Key[0].Int32(), entries[10].Key[0].Int32())
	}

	count, err := tree.Count(intKey(t, 10), intKey(t, 20))
	if err != nil || count != 11 {
		t.Errorf("Count = (%d, %v), want 11", count, err)
	}
}

func TestTreePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reopen.kvk")
	opts := DefaultOptions()
	opts.PageSize = 512
	opts.Schema = testKeySchema()

	tree, err := Open(path, opts)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	for i := int32(0); i < 300; i++ {
		if err := tree.Insert(intKey(t, i), uint64(i)); err != nil {
			t.Fatalf("Insert %d failed: %v", i, err)
		}
	}
	if err := tree.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := Open(path, DefaultOptions())
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reopened.Close()

	for _, i := range []int32{0, 150, 299} {
		refs, err := reopened.Search(intKey(t, i))
		if err != nil {
			t.Fatalf("Search %d after reopen failed: %v", i, err)
		}
		if len(refs) != 1 || refs[0] != uint64(i) {
			t.Errorf("Search %d = %v", i, refs)
		}
	}
}

func TestDumpPage(t *testing.T) {
	tree := openTestTree(t)
	if err := tree.Insert(intKey(t, 5), 50); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	var sb stringsBuilder
	if err := tree.DumpPage(&sb, tree.Stats().Root); err != nil {
		t.Fatalf("DumpPage failed: %v", err)
	}
	if sb.String() == "" {
		t.Error("DumpPage produced no output")
	}
}

// stringsBuilder is a minimal io.Writer for dump assertions.
type stringsBuilder struct {
	data []byte
}

func (s *stringsBuilder) Write(p []byte) (int, error) {
	s.data = append(s.data, p...)
	return len(p), nil
}

func (s *stringsBuilder) String() string {
	return string(s.data)
}

func BenchmarkInsert(b *testing.B) {
	opts := DefaultOptions()
	opts.Schema = testKeySchema()

	tree, err := Open(filepath.Join(b.TempDir(), "bench.kvk"), opts)
	if err != nil {
		b.Fatalf("Open failed: %v", err)
	}
	defer tree.Close()

	schema := testKeySchema()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		key, err := NewKey(schema, Int32Value(int32(i)), StringValue("xxx"))
		if err != nil {
			b.Fatal(err)
		}
		if err := tree.Insert(key, uint64(i)); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkSearch(b *testing.B) {
	opts := DefaultOptions()
	opts.Schema = testKeySchema()

	tree, err := Open(filepath.Join(b.TempDir(), "bench.kvk"), opts)
	if err != nil {
		b.Fatalf("Open failed: %v", err)
	}
	defer tree.Close()

	schema := testKeySchema()
	const n = 10000
	keys := make([]Key, n)
	for i := 0; i < n; i++ {
		key, err := NewKey(schema, Int32Value(int32(i)), StringValue("xxx"))
		if err != nil {
			b.Fatal(err)
		}
		keys[i] = key
		if err := tree.Insert(key, uint64(i)); err != nil {
			b.Fatal(err)
		}
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := tree.Search(keys[i%n]); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkRangeScan(b *testing.B) {
	opts := DefaultOptions()
	opts.Schema = testKeySchema()

	tree, err := Open(filepath.Join(b.TempDir(), "bench.kvk"), opts)
	if err != nil {
		b.Fatalf("Open failed: %v", err)
	}
	defer tree.Close()

	schema := testKeySchema()
	const n = 10000
	for i := 0; i < n; i++ {
		key, err := NewKey(schema, Int32Value(int32(i)), StringValue("xxx"))
		if err != nil {
			b.Fatal(err)
		}
		if err := tree.Insert(key, uint64(i)); err != nil {
			b.Fatal(err)
		}
	}

	from, _ := NewKey(schema, Int32Value(1000), StringValue("xxx"))
	to, _ := NewKey(schema, Int32Value(2000), StringValue("xxx"))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := tree.RangeScan(from, to); err != nil {
			b.Fatal(err)
		}
	}
}

func ExampleBPlusTree() {
	schema, _ := config.ParseSchema("int32,fixed(3)")
	opts := DefaultOptions()
	opts.Schema = schema

	tree, err := Open(filepath.Join("/tmp", "example.kvk"), opts)
	if err != nil {
		fmt.Println(err)
		return
	}
	defer tree.Close()

	key, _ := NewKey(schema, Int32Value(1), StringValue("abc"))
	_ = tree.Insert(key, 42)
	refs, _ := tree.Search(key)
	_ = refs
}
