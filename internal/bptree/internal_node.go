package bptree

import (
	"fmt"

	"github.com/kavak-db/kavak/internal/storage"
)

// InternalNode is a navigation page: separator keys plus child page
// references. A non-empty internal node always holds one more child than
// keys; Children[i] leads to keys strictly below Keys[i], Children[i+1] to
// keys at or above it.
type InternalNode struct {
	Node
	Children []storage.PageID
}

// NewInternalNode creates an empty internal page. kind must be KindInternal
// or KindRootInternal.
func NewInternalNode(kind NodeKind, pageID storage.PageID) *InternalNode {
	return &InternalNode{
		Node: newNode(kind, pageID),
	}
}

// ChildAt returns the child reference at index.
func (in *InternalNode) ChildAt(index int) storage.PageID {
	return in.Children[index]
}

// SetChildAt replaces the child reference at index.
func (in *InternalNode) SetChildAt(index int, id storage.PageID) {
	in.Children[index] = id
}

// InsertChildAt inserts a child reference at index, shifting subsequent
// references right. Child edits have no capacity of their own; they ride
// along with the separator-key edits.
func (in *InternalNode) InsertChildAt(index int, id storage.PageID) {
	in.Children = append(in.Children, storage.InvalidPageID)
	copy(in.Children[index+1:], in.Children[index:])
	in.Children[index] = id
}

// RemoveChildAt removes and returns the child reference at index.
func (in *InternalNode) RemoveChildAt(index int) storage.PageID {
	id := in.Children[index]
	in.Children = append(in.Children[:index], in.Children[index+1:]...)
	return id
}

// ChildForKey returns the index and reference of the child that covers key.
func (in *InternalNode) ChildForKey(key Key) (int, storage.PageID) {
	idx, found := in.searchKey(key)
	if found {
		idx++
	}
	return idx, in.Children[idx]
}

// checkShape verifies the separator/child relationship against the
// capacity counter.
func (in *InternalNode) checkShape() error {
	if in.KeyCount() != in.Capacity() {
		return fmt.Errorf("%w: internal page %d has %d keys for capacity %d",
			ErrInvalidTreeState, in.PageID(), in.KeyCount(), in.Capacity())
	}
	wantChildren := in.Capacity() + 1
	if in.Capacity() == 0 {
		wantChildren = len(in.Children) // an empty internal page may hold 0 or 1 children mid-merge
		if wantChildren > 1 {
			return fmt.Errorf("%w: empty internal page %d has %d children",
				ErrInvalidTreeState, in.PageID(), len(in.Children))
		}
		return nil
	}
	if len(in.Children) != wantChildren {
		return fmt.Errorf("%w: internal page %d has %d children for %d keys",
			ErrInvalidTreeState, in.PageID(), len(in.Children), in.Capacity())
	}
	return nil
}
