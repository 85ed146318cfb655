package bptree

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/kavak-db/kavak/internal/config"
	"github.com/kavak-db/kavak/internal/logging"
	"github.com/kavak-db/kavak/internal/storage"
)

// Tree errors.
var (
	// ErrKeyNotFound signals a lookup or removal for a key the index does
	// not hold.
	ErrKeyNotFound = errors.New("key not found")

	// ErrTreeClosed signals an operation on a closed tree.
	ErrTreeClosed = errors.New("tree is closed")
)

// Options configures a BPlusTree.
type Options struct {
	PageSize    int           // page size for new index files
	Schema      config.Schema // key schema, required when creating
	ReadOnly    bool          // open the index read-only
	SyncOnWrite bool          // fsync after every page write
	CacheBytes  int64         // pager read cache budget; <= 0 disables it
	UseMmap     bool          // map the file for reads (read-only only)
	Logger      logging.Logger
}

// DefaultOptions returns the default tree options. Schema must still be set
// before creating a new index.
func DefaultOptions() Options {
	return Options{
		PageSize:   config.DefaultPageSize,
		CacheBytes: storage.DefaultCacheBytes,
	}
}

// BPlusTree is a multi-column B+ tree index over a page file. Keys are
// composite and ordered column by column; duplicate keys spill into
// overflow chains hanging off their leaf entry.
//
// All operations are safe for concurrent use.
type BPlusTree struct {
	pager  *storage.Pager
	conf   *config.Config
	log    logging.Logger
	mu     sync.RWMutex
	closed bool
}

// Open opens the index file at path, creating it when it does not exist.
// For a new file the schema comes from opts; for an existing file it is
// read back from the file header and opts.Schema is ignored.
func Open(path string, opts Options) (*BPlusTree, error) {
	if opts.PageSize == 0 {
		opts.PageSize = config.DefaultPageSize
	}
	log := opts.Logger
	if log == nil {
		log = logging.NewNop()
	}

	pagerOpts := storage.DefaultOptions()
	pagerOpts.PageSize = opts.PageSize
	pagerOpts.Schema = opts.Schema.String()
	pagerOpts.ReadOnly = opts.ReadOnly
	pagerOpts.SyncOnWrite = opts.SyncOnWrite
	pagerOpts.CacheBytes = opts.CacheBytes
	pagerOpts.UseMmap = opts.UseMmap

	pager, err := storage.Open(path, pagerOpts)
	if err != nil {
		return nil, err
	}

	schema, err := config.ParseSchema(pager.SchemaText())
	if err != nil {
		pager.Close()
		return nil, fmt.Errorf("invalid schema in index header: %w", err)
	}

	conf, err := config.New(pager.PageSize(), schema)
	if err != nil {
		pager.Close()
		return nil, err
	}

	t := &BPlusTree{
		pager: pager,
		conf:  conf,
		log:   log.WithFields("index", path),
	}

	if pager.Root() == storage.InvalidPageID {
		if opts.ReadOnly {
			pager.Close()
			return nil, fmt.Errorf("%w: empty index opened read-only", storage.ErrReadOnly)
		}
		if err := t.bootstrap(); err != nil {
			pager.Close()
			return nil, err
		}
	}

	t.log.Debug("index opened",
		"page_size", conf.PageSize,
		"schema", schema.String(),
		"root", pager.Root())

	return t, nil
}

// bootstrap writes the first root page of a fresh index: an empty root
// leaf.
func (t *BPlusTree) bootstrap() error {
	id, err := t.pager.AllocatePage()
	if err != nil {
		return err
	}

	root := NewLeafNode(KindRootLeaf, id)
	root.SetBeingDeleted(false)
	if err := t.writeNode(root); err != nil {
		return err
	}

	t.pager.SetRoot(id)
	return t.pager.Sync()
}

// Config returns the tree's derived configuration.
func (t *BPlusTree) Config() *config.Config {
	return t.conf
}

// Pager returns the underlying pager, for inspection tooling.
func (t *BPlusTree) Pager() *storage.Pager {
	return t.pager
}

// Sync flushes the index file.
func (t *BPlusTree) Sync() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return ErrTreeClosed
	}
	return t.pager.Sync()
}

// Close flushes and releases the index file.
func (t *BPlusTree) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return ErrTreeClosed
	}
	t.closed = true
	return t.pager.Close()
}

// readNode reads and decodes the node page with the given ID.
func (t *BPlusTree) readNode(id storage.PageID) (PageNode, error) {
	buf, err := t.pager.ReadPage(id)
	if err != nil {
		return nil, err
	}
	return ReadNode(buf, t.conf, id)
}

// readLeaf reads a page that must be a leaf.
func (t *BPlusTree) readLeaf(id storage.PageID) (*LeafNode, error) {
	n, err := t.readNode(id)
	if err != nil {
		return nil, err
	}
	leaf, ok := n.(*LeafNode)
	if !ok {
		return nil, fmt.Errorf("%w: page %d is %s, want a leaf", ErrPageCorrupted, id, n.Kind())
	}
	return leaf, nil
}

// readInternal reads a page that must be an internal node.
func (t *BPlusTree) readInternal(id storage.PageID) (*InternalNode, error) {
	n, err := t.readNode(id)
	if err != nil {
		return nil, err
	}
	in, ok := n.(*InternalNode)
	if !ok {
		return nil, fmt.Errorf("%w: page %d is %s, want an internal node", ErrPageCorrupted, id, n.Kind())
	}
	return in, nil
}

// readOverflow reads a page that must be a leaf-overflow node.
func (t *BPlusTree) readOverflow(id storage.PageID) (*LeafOverflowNode, error) {
	n, err := t.readNode(id)
	if err != nil {
		return nil, err
	}
	o, ok := n.(*LeafOverflowNode)
	if !ok {
		return nil, fmt.Errorf("%w: page %d is %s, want a leaf overflow", ErrPageCorrupted, id, n.Kind())
	}
	return o, nil
}

// readLookup reads a page that must be a lookup-overflow node.
func (t *BPlusTree) readLookup(id storage.PageID) (*LookupOverflowNode, error) {
	n, err := t.readNode(id)
	if err != nil {
		return nil, err
	}
	lo, ok := n.(*LookupOverflowNode)
	if !ok {
		return nil, fmt.Errorf("%w: page %d is %s, want a lookup overflow", ErrPageCorrupted, id, n.Kind())
	}
	return lo, nil
}

// writeNode serializes the node into a fresh page buffer and writes it.
func (t *BPlusTree) writeNode(n PageNode) error {
	buf := make([]byte, t.pager.PageSize())
	if _, err := n.Serialize(buf, t.conf); err != nil {
		return err
	}
	return t.pager.WritePage(n.PageID(), buf)
}

// allocatePage hands out a page for a new node, recycling from the lookup
// chain before growing the file.
func (t *BPlusTree) allocatePage() (storage.PageID, error) {
	head := t.pager.LookupHead()
	if head == storage.InvalidPageID {
		return t.pager.AllocatePage()
	}

	lo, err := t.readLookup(head)
	if err != nil {
		return storage.InvalidPageID, err
	}

	if lo.IsEmpty() {
		// The drained chain page itself is the last free page it tracked.
		t.pager.SetLookupHead(lo.Next)
		return head, nil
	}

	id, err := lo.PopPointer(t.conf)
	if err != nil {
		return storage.InvalidPageID, err
	}
	if err := t.writeNode(lo); err != nil {
		return storage.InvalidPageID, err
	}
	return id, nil
}

// freePage returns a page to the lookup chain for reuse. When the chain
// head is full (or there is no chain yet) the freed page itself becomes
// the new head.
func (t *BPlusTree) freePage(id storage.PageID) error {
	head := t.pager.LookupHead()

	if head != storage.InvalidPageID {
		lo, err := t.readLookup(head)
		if err != nil {
			return err
		}
		if !lo.IsFull(t.conf) {
			if err := lo.PushPointer(id, t.conf); err != nil {
				return err
			}
			return t.writeNode(lo)
		}
	}

	lo := NewLookupOverflowNode(id)
	lo.SetBeingDeleted(false)
	lo.Next = head
	if err := t.writeNode(lo); err != nil {
		return err
	}
	t.pager.SetLookupHead(id)
	return nil
}

// freeOverflowChain frees every page of a leaf entry's overflow chain.
func (t *BPlusTree) freeOverflowChain(head storage.PageID) error {
	for head != storage.InvalidPageID {
		o, err := t.readOverflow(head)
		if err != nil {
			return err
		}
		next := o.Next
		if err := t.freePage(head); err != nil {
			return err
		}
		head = next
	}
	return nil
}

// DumpPage writes the diagnostic rendering of one page to w.
func (t *BPlusTree) DumpPage(w io.Writer, id storage.PageID) error {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.closed {
		return ErrTreeClosed
	}

	n, err := t.readNode(id)
	if err != nil {
		return err
	}
	n.Dump(w, t.conf)
	return nil
}

// Stats describes the current shape of the index.
type Stats struct {
	TotalPages uint64
	PageSize   int
	Root       storage.PageID
	Schema     string
}

// Stats returns current index statistics.
func (t *BPlusTree) Stats() Stats {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return Stats{
		TotalPages: t.pager.TotalPages(),
		PageSize:   t.pager.PageSize(),
		Root:       t.pager.Root(),
		Schema:     t.pager.SchemaText(),
	}
}
