package bptree

import (
	"fmt"

	"github.com/kavak-db/kavak/internal/storage"
)

// Delete removes one stored occurrence of key and returns its record
// reference. Duplicates come off the overflow chain first; the leaf entry
// itself goes last. Returns ErrKeyNotFound when the key is absent.
//
// The descent repairs any child sitting at its merge threshold before
// stepping into it, so the leaf removal itself never underflows.
func (t *BPlusTree) Delete(key Key) (uint64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return 0, ErrTreeClosed
	}

	n, err := t.readNode(t.pager.Root())
	if err != nil {
		return 0, err
	}

	for {
		switch v := n.(type) {
		case *LeafNode:
			return t.deleteFromLeaf(v, key)
		case *InternalNode:
			idx, childID := v.ChildForKey(key)
			child, err := t.readNode(childID)
			if err != nil {
				return 0, err
			}
			if nodeAtMergeThreshold(child, t) {
				child, err = t.fixChild(v, idx, child)
				if err != nil {
					return 0, err
				}
			}
			n = child
		default:
			return 0, fmt.Errorf("%w: page %d (%s) in delete descent", ErrInvalidTreeState, n.PageID(), n.Kind())
		}
	}
}

// nodeAtMergeThreshold reports whether a non-root child cannot give up a
// key without underflowing.
func nodeAtMergeThreshold(n PageNode, t *BPlusTree) bool {
	switch v := n.(type) {
	case *LeafNode:
		return v.IsTimeToMerge(t.conf)
	case *InternalNode:
		return v.IsTimeToMerge(t.conf)
	default:
		return false
	}
}

// deleteFromLeaf removes one occurrence of key from the leaf: the newest
// overflow-chain entry when a chain exists, the leaf entry otherwise.
func (t *BPlusTree) deleteFromLeaf(leaf *LeafNode, key Key) (uint64, error) {
	idx, found := leaf.searchKey(key)
	if !found {
		return 0, fmt.Errorf("%w: %s", ErrKeyNotFound, FormatKey(key, t.conf.Schema))
	}

	if chainID := leaf.OverflowAt(idx); chainID != storage.InvalidPageID {
		head, err := t.readOverflow(chainID)
		if err != nil {
			return 0, err
		}
		_, ref, err := head.PopEntry(t.conf)
		if err != nil {
			return 0, err
		}
		if head.IsEmpty() {
			leaf.SetOverflowAt(idx, head.Next)
			if err := t.freePage(chainID); err != nil {
				return 0, err
			}
			if err := t.writeNode(leaf); err != nil {
				return 0, err
			}
		} else if err := t.writeNode(head); err != nil {
			return 0, err
		}
		return ref, nil
	}

	_, ref, err := leaf.RemoveEntry(idx, t.conf)
	if err != nil {
		return 0, err
	}
	if err := t.writeNode(leaf); err != nil {
		return 0, err
	}

	t.log.Debug("key removed", "page", leaf.PageID(), "key", FormatKey(key, t.conf.Schema))
	return ref, nil
}

// fixChild brings the child at parent position idx above its merge
// threshold: borrow from a sibling with spare keys, or merge with one.
// Returns the node the descent should continue into.
func (t *BPlusTree) fixChild(parent *InternalNode, idx int, child PageNode) (PageNode, error) {
	if idx > 0 {
		left, err := t.readNode(parent.ChildAt(idx - 1))
		if err != nil {
			return nil, err
		}
		if !nodeAtMergeThreshold(left, t) {
			return child, t.borrowFromLeft(parent, idx, child, left)
		}
		// Left sibling has nothing to spare; merge into it.
		if right, ok := child.(*LeafNode); ok {
			return left, t.mergeLeaves(parent, idx-1, left.(*LeafNode), right)
		}
		return left, t.mergeInternals(parent, idx-1, left.(*InternalNode), child.(*InternalNode))
	}

	right, err := t.readNode(parent.ChildAt(idx + 1))
	if err != nil {
		return nil, err
	}
	if !nodeAtMergeThreshold(right, t) {
		return child, t.borrowFromRight(parent, idx, child, right)
	}
	if leaf, ok := child.(*LeafNode); ok {
		return leaf, t.mergeLeaves(parent, idx, leaf, right.(*LeafNode))
	}
	return child, t.mergeInternals(parent, idx, child.(*InternalNode), right.(*InternalNode))
}

// borrowFromLeft shifts the left sibling's last entry into the child and
// refreshes the separator at parent position idx-1.
func (t *BPlusTree) borrowFromLeft(parent *InternalNode, idx int, child, left PageNode) error {
	switch c := child.(type) {
	case *LeafNode:
		l := left.(*LeafNode)
		last := l.Capacity() - 1
		chain := l.OverflowAt(last)
		key, ref, err := l.RemoveEntry(last, t.conf)
		if err != nil {
			return err
		}
		if err := c.InsertEntry(0, key, ref, chain, t.conf); err != nil {
			return err
		}
		parent.SetKeyAt(idx-1, key)
	case *InternalNode:
		l := left.(*InternalNode)
		if err := c.InsertKeyValidated(0, parent.KeyAt(idx-1), t.conf); err != nil {
			return err
		}
		c.InsertChildAt(0, l.RemoveChildAt(len(l.Children)-1))
		moved, err := l.RemoveKeyValidated(l.Capacity()-1, t.conf)
		if err != nil {
			return err
		}
		parent.SetKeyAt(idx-1, moved)
	}

	if err := t.writeNode(left); err != nil {
		return err
	}
	if err := t.writeNode(child); err != nil {
		return err
	}
	return t.writeNode(parent)
}

// borrowFromRight shifts the right sibling's first entry into the child
// and refreshes the separator at parent position idx.
func (t *BPlusTree) borrowFromRight(parent *InternalNode, idx int, child, right PageNode) error {
	switch c := child.(type) {
	case *LeafNode:
		r := right.(*LeafNode)
		chain := r.OverflowAt(0)
		key, ref, err := r.RemoveEntry(0, t.conf)
		if err != nil {
			return err
		}
		if err := c.InsertEntry(c.Capacity(), key, ref, chain, t.conf); err != nil {
			return err
		}
		parent.SetKeyAt(idx, r.FirstKey())
	case *InternalNode:
		r := right.(*InternalNode)
		if err := c.InsertKeyValidated(c.Capacity(), parent.KeyAt(idx), t.conf); err != nil {
			return err
		}
		c.Children = append(c.Children, r.RemoveChildAt(0))
		moved, err := r.RemoveKeyValidated(0, t.conf)
		if err != nil {
			return err
		}
		parent.SetKeyAt(idx, moved)
	}

	if err := t.writeNode(right); err != nil {
		return err
	}
	if err := t.writeNode(child); err != nil {
		return err
	}
	return t.writeNode(parent)
}

// mergeLeaves drains the right leaf into the left one, drops the
// separator at parent position sepIdx, and frees the right page. The
// right leaf is marked being-deleted for the duration so its capacity may
// drain to zero.
func (t *BPlusTree) mergeLeaves(parent *InternalNode, sepIdx int, left, right *LeafNode) error {
	right.SetBeingDeleted(true)
	for right.Capacity() > 0 {
		chain := right.OverflowAt(0)
		key, ref, err := right.RemoveEntry(0, t.conf)
		if err != nil {
			return err
		}
		if err := left.InsertEntry(left.Capacity(), key, ref, chain, t.conf); err != nil {
			return err
		}
	}

	left.Next = right.Next
	if right.Next != storage.InvalidPageID {
		after, err := t.readLeaf(right.Next)
		if err != nil {
			return err
		}
		after.Prev = left.PageID()
		if err := t.writeNode(after); err != nil {
			return err
		}
	}

	return t.finishMerge(parent, sepIdx, left, right.PageID())
}

// mergeInternals pulls the separator at parent position sepIdx down into
// the left node, drains the right node after it, and frees the right page.
func (t *BPlusTree) mergeInternals(parent *InternalNode, sepIdx int, left, right *InternalNode) error {
	if err := left.InsertKeyValidated(left.Capacity(), parent.KeyAt(sepIdx), t.conf); err != nil {
		return err
	}

	right.SetBeingDeleted(true)
	left.Children = append(left.Children, right.Children...)
	right.Children = nil
	for right.Capacity() > 0 {
		key, err := right.RemoveKeyValidated(0, t.conf)
		if err != nil {
			return err
		}
		if err := left.InsertKeyValidated(left.Capacity(), key, t.conf); err != nil {
			return err
		}
	}

	return t.finishMerge(parent, sepIdx, left, right.PageID())
}

// finishMerge removes the separator and dead child pointer from the
// parent, frees the drained page, and collapses the root when the merge
// emptied it.
func (t *BPlusTree) finishMerge(parent *InternalNode, sepIdx int, merged PageNode, freed storage.PageID) error {
	parent.RemoveChildAt(sepIdx + 1)
	if _, err := parent.RemoveKeyValidated(sepIdx, t.conf); err != nil {
		return err
	}

	if err := t.freePage(freed); err != nil {
		return err
	}
	if err := t.writeNode(merged); err != nil {
		return err
	}

	if parent.Kind().IsRoot() && parent.IsEmpty() {
		return t.collapseRoot(parent, merged)
	}

	t.log.Debug("pages merged", "page", merged.PageID(), "freed", freed)
	return t.writeNode(parent)
}

// collapseRoot makes the merged node the new root after the old root
// internal drained its last separator, shrinking the tree one level.
func (t *BPlusTree) collapseRoot(oldRoot *InternalNode, newRoot PageNode) error {
	switch v := newRoot.(type) {
	case *LeafNode:
		if err := v.SetKind(KindRootLeaf); err != nil {
			return err
		}
	case *InternalNode:
		if err := v.SetKind(KindRootInternal); err != nil {
			return err
		}
	}

	if err := t.writeNode(newRoot); err != nil {
		return err
	}
	t.pager.SetRoot(newRoot.PageID())
	if err := t.freePage(oldRoot.PageID()); err != nil {
		return err
	}

	t.log.Debug("root collapsed", "old_root", oldRoot.PageID(), "new_root", newRoot.PageID())
	return nil
}
