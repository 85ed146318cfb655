package bptree

import (
	"fmt"

	"github.com/kavak-db/kavak/internal/storage"
)

// Entry is one (key, record reference) pair returned by a scan.
type Entry struct {
	Key Key
	Ref uint64
}

// Search returns every record reference stored under key, the leaf entry's
// own reference first and then the overflow chain in insertion order per
// page. Returns ErrKeyNotFound when the key is absent.
func (t *BPlusTree) Search(key Key) ([]uint64, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.closed {
		return nil, ErrTreeClosed
	}

	leaf, err := t.findLeaf(key)
	if err != nil {
		return nil, err
	}

	idx, found := leaf.searchKey(key)
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, FormatKey(key, t.conf.Schema))
	}

	refs := []uint64{leaf.ValueAt(idx)}
	refs, err = t.appendChainRefs(refs, leaf.OverflowAt(idx))
	if err != nil {
		return nil, err
	}
	return refs, nil
}

// Contains reports whether the index holds key.
func (t *BPlusTree) Contains(key Key) (bool, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.closed {
		return false, ErrTreeClosed
	}

	leaf, err := t.findLeaf(key)
	if err != nil {
		return false, err
	}
	_, found := leaf.searchKey(key)
	return found, nil
}

// findLeaf descends from the root to the leaf that covers key. Callers
// hold the tree lock.
func (t *BPlusTree) findLeaf(key Key) (*LeafNode, error) {
	n, err := t.readNode(t.pager.Root())
	if err != nil {
		return nil, err
	}

	for {
		switch v := n.(type) {
		case *LeafNode:
			return v, nil
		case *InternalNode:
			_, childID := v.ChildForKey(key)
			n, err = t.readNode(childID)
			if err != nil {
				return nil, err
			}
		default:
			return nil, fmt.Errorf("%w: page %d (%s) in search descent", ErrInvalidTreeState, n.PageID(), n.Kind())
		}
	}
}

// leftmostLeaf descends to the first leaf of the tree.
func (t *BPlusTree) leftmostLeaf() (*LeafNode, error) {
	n, err := t.readNode(t.pager.Root())
	if err != nil {
		return nil, err
	}

	for {
		switch v := n.(type) {
		case *LeafNode:
			return v, nil
		case *InternalNode:
			n, err = t.readNode(v.ChildAt(0))
			if err != nil {
				return nil, err
			}
		default:
			return nil, fmt.Errorf("%w: page %d (%s) in scan descent", ErrInvalidTreeState, n.PageID(), n.Kind())
		}
	}
}

// appendChainRefs walks an overflow chain and appends its references.
func (t *BPlusTree) appendChainRefs(refs []uint64, head storage.PageID) ([]uint64, error) {
	for head != storage.InvalidPageID {
		page, err := t.readOverflow(head)
		if err != nil {
			return nil, err
		}
		refs = append(refs, page.Values...)
		head = page.Next
	}
	return refs, nil
}

// RangeScan returns every entry with from <= key <= to in key order,
// walking the leaf chain. A nil bound is open: RangeScan(nil, nil) yields
// the whole index. Duplicate keys contribute one Entry per stored
// reference.
func (t *BPlusTree) RangeScan(from, to Key) ([]Entry, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.closed {
		return nil, ErrTreeClosed
	}

	var leaf *LeafNode
	var err error
	if from == nil {
		leaf, err = t.leftmostLeaf()
	} else {
		leaf, err = t.findLeaf(from)
	}
	if err != nil {
		return nil, err
	}

	var out []Entry
	for {
		for i := 0; i < leaf.KeyCount(); i++ {
			key := leaf.KeyAt(i)
			if from != nil && key.Compare(from) < 0 {
				continue
			}
			if to != nil && key.Compare(to) > 0 {
				return out, nil
			}
			out = append(out, Entry{Key: key, Ref: leaf.ValueAt(i)})
			chain := leaf.OverflowAt(i)
			for chain != storage.InvalidPageID {
				page, err := t.readOverflow(chain)
				if err != nil {
					return nil, err
				}
				for _, ref := range page.Values {
					out = append(out, Entry{Key: key, Ref: ref})
				}
				chain = page.Next
			}
		}

		if leaf.Next == storage.InvalidPageID {
			return out, nil
		}
		leaf, err = t.readLeaf(leaf.Next)
		if err != nil {
			return nil, err
		}
	}
}

// Count returns the number of stored references in [from, to].
func (t *BPlusTree) Count(from, to Key) (int, error) {
	entries, err := t.RangeScan(from, to)
	if err != nil {
		return 0, err
	}
	return len(entries), nil
}
