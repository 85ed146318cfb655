package bptree

import (
	"fmt"

	"github.com/kavak-db/kavak/internal/storage"
)

// Insert adds one (key, record reference) pair to the index. Duplicate keys
// are allowed; each extra occurrence lands in the leaf entry's overflow
// chain.
//
// The descent splits full nodes on the way down, so a leaf always has room
// by the time the new entry arrives.
func (t *BPlusTree) Insert(key Key, ref uint64) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return ErrTreeClosed
	}

	root, err := t.readNode(t.pager.Root())
	if err != nil {
		return err
	}

	if nodeIsFull(root, t) {
		if err := t.splitRoot(root); err != nil {
			return err
		}
		root, err = t.readNode(t.pager.Root())
		if err != nil {
			return err
		}
	}

	return t.insertNonFull(root, key, ref)
}

// nodeIsFull reports fullness through the concrete type's embedded state.
func nodeIsFull(n PageNode, t *BPlusTree) bool {
	switch v := n.(type) {
	case *LeafNode:
		return v.IsFull(t.conf)
	case *InternalNode:
		return v.IsFull(t.conf)
	default:
		return false
	}
}

// splitRoot grows the tree one level: the old root is retagged to its
// non-root kind and becomes the single child of a fresh root internal,
// which then splits it like any other full child.
func (t *BPlusTree) splitRoot(old PageNode) error {
	newRootID, err := t.allocatePage()
	if err != nil {
		return err
	}

	newRoot := NewInternalNode(KindRootInternal, newRootID)
	newRoot.Children = append(newRoot.Children, old.PageID())

	switch v := old.(type) {
	case *LeafNode:
		if err := v.SetKind(KindLeaf); err != nil {
			return err
		}
	case *InternalNode:
		if err := v.SetKind(KindInternal); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: page %d (%s) cannot be a root", ErrInvalidTreeState, old.PageID(), old.Kind())
	}

	if err := t.writeNode(old); err != nil {
		return err
	}
	if err := t.splitChild(newRoot, 0); err != nil {
		return err
	}

	newRoot.SetBeingDeleted(false)
	if err := t.writeNode(newRoot); err != nil {
		return err
	}

	t.pager.SetRoot(newRootID)
	t.log.Debug("root split", "old_root", old.PageID(), "new_root", newRootID)
	return nil
}

// splitChild splits the full child at parent position idx into two nodes
// and lifts a separator into the parent. All touched pages are written.
func (t *BPlusTree) splitChild(parent *InternalNode, idx int) error {
	child, err := t.readNode(parent.ChildAt(idx))
	if err != nil {
		return err
	}

	newID, err := t.allocatePage()
	if err != nil {
		return err
	}

	var separator Key
	switch v := child.(type) {
	case *LeafNode:
		separator, err = t.splitLeaf(v, newID)
	case *InternalNode:
		separator, err = t.splitInternal(v, newID)
	default:
		return fmt.Errorf("%w: page %d (%s) cannot be split", ErrInvalidTreeState, child.PageID(), child.Kind())
	}
	if err != nil {
		return err
	}

	parent.InsertChildAt(idx+1, newID)
	if err := parent.InsertKeyValidated(idx, separator, t.conf); err != nil {
		return err
	}

	t.log.Debug("page split",
		"page", child.PageID(),
		"new_page", newID,
		"kind", child.Kind().String())

	return t.writeNode(parent)
}

// splitLeaf moves the upper half of a full leaf into a new sibling at
// newID and returns the separator (the sibling's first key).
func (t *BPlusTree) splitLeaf(left *LeafNode, newID storage.PageID) (Key, error) {
	right := NewLeafNode(KindLeaf, newID)
	mid := left.Capacity() / 2

	moved := left.Capacity() - mid
	for i := 0; i < moved; i++ {
		chain := left.OverflowAt(mid)
		key, ref, err := left.RemoveEntry(mid, t.conf)
		if err != nil {
			return nil, err
		}
		if err := right.InsertEntry(right.Capacity(), key, ref, chain, t.conf); err != nil {
			return nil, err
		}
	}
	right.SetBeingDeleted(false)

	// Stitch the new sibling into the leaf chain.
	right.Next = left.Next
	right.Prev = left.PageID()
	left.Next = newID
	if right.Next != storage.InvalidPageID {
		after, err := t.readLeaf(right.Next)
		if err != nil {
			return nil, err
		}
		after.Prev = newID
		if err := t.writeNode(after); err != nil {
			return nil, err
		}
	}

	if err := t.writeNode(left); err != nil {
		return nil, err
	}
	if err := t.writeNode(right); err != nil {
		return nil, err
	}

	return right.FirstKey(), nil
}

// splitInternal moves the upper keys and children of a full internal node
// into a new sibling at newID and returns the promoted middle separator.
func (t *BPlusTree) splitInternal(left *InternalNode, newID storage.PageID) (Key, error) {
	right := NewInternalNode(KindInternal, newID)
	mid := left.Capacity() / 2
	separator := left.KeyAt(mid)

	moved := left.Capacity() - mid - 1

	right.Children = append(right.Children, left.Children[mid+1:]...)
	left.Children = left.Children[:mid+1]

	for i := 0; i < moved; i++ {
		right.PushBackKey(left.RemoveKeyAt(mid + 1))
	}
	left.RemoveKeyAt(mid)

	left.SetCapacity(mid)
	right.SetCapacity(moved)
	right.SetBeingDeleted(false)

	if err := left.Validate(t.conf); err != nil {
		return nil, err
	}
	if err := right.Validate(t.conf); err != nil {
		return nil, err
	}

	if err := t.writeNode(left); err != nil {
		return nil, err
	}
	if err := t.writeNode(right); err != nil {
		return nil, err
	}

	return separator, nil
}

// insertNonFull descends from a node known to have room, splitting any
// full child before stepping into it, and places the entry at the leaf.
func (t *BPlusTree) insertNonFull(n PageNode, key Key, ref uint64) error {
	for {
		switch v := n.(type) {
		case *LeafNode:
			return t.insertIntoLeaf(v, key, ref)
		case *InternalNode:
			idx, childID := v.ChildForKey(key)
			child, err := t.readNode(childID)
			if err != nil {
				return err
			}
			if nodeIsFull(child, t) {
				if err := t.splitChild(v, idx); err != nil {
					return err
				}
				_, childID = v.ChildForKey(key)
				child, err = t.readNode(childID)
				if err != nil {
					return err
				}
			}
			n = child
		default:
			return fmt.Errorf("%w: page %d (%s) in insert descent", ErrInvalidTreeState, n.PageID(), n.Kind())
		}
	}
}

// insertIntoLeaf places the entry in its sorted position, or pushes a
// duplicate onto the entry's overflow chain.
func (t *BPlusTree) insertIntoLeaf(leaf *LeafNode, key Key, ref uint64) error {
	idx, found := leaf.searchKey(key)
	if !found {
		if err := leaf.InsertEntry(idx, key, ref, storage.InvalidPageID, t.conf); err != nil {
			return err
		}
		return t.writeNode(leaf)
	}

	// Duplicate key: the entry keeps its first reference, extras chain off
	// overflow pages. New pages are prepended so the chain head always has
	// room or is replaced.
	headID := leaf.OverflowAt(idx)
	if headID != storage.InvalidPageID {
		head, err := t.readOverflow(headID)
		if err != nil {
			return err
		}
		if !head.IsFull(t.conf) {
			if err := head.AppendEntry(key, ref, t.conf); err != nil {
				return err
			}
			return t.writeNode(head)
		}
	}

	newID, err := t.allocatePage()
	if err != nil {
		return err
	}
	page := NewLeafOverflowNode(newID)
	page.Next = headID
	if err := page.AppendEntry(key, ref, t.conf); err != nil {
		return err
	}
	page.SetBeingDeleted(false)
	if err := t.writeNode(page); err != nil {
		return err
	}

	leaf.SetOverflowAt(idx, newID)
	return t.writeNode(leaf)
}
