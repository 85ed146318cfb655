package bptree

import (
	"fmt"

	"github.com/kavak-db/kavak/internal/config"
	"github.com/kavak-db/kavak/internal/storage"
)

// LeafNode is a record-bearing page: keys in sorted order, each paired with
// a record reference and the head of its duplicate-run overflow chain (or
// InvalidPageID when the entry has no chain). Leaves are doubly linked for
// range scans.
type LeafNode struct {
	Node
	Values   []uint64         // record references, aligned with the keys
	Overflow []storage.PageID // overflow chain heads, aligned with the keys
	Prev     storage.PageID
	Next     storage.PageID
}

// NewLeafNode creates an empty leaf page. kind must be KindLeaf or
// KindRootLeaf.
func NewLeafNode(kind NodeKind, pageID storage.PageID) *LeafNode {
	return &LeafNode{
		Node: newNode(kind, pageID),
		Prev: storage.InvalidPageID,
		Next: storage.InvalidPageID,
	}
}

// ValueAt returns the record reference aligned with the key at index.
func (l *LeafNode) ValueAt(index int) uint64 {
	return l.Values[index]
}

// OverflowAt returns the overflow chain head aligned with the key at index.
func (l *LeafNode) OverflowAt(index int) storage.PageID {
	return l.Overflow[index]
}

// SetOverflowAt replaces the overflow chain head for the entry at index.
func (l *LeafNode) SetOverflowAt(index int, id storage.PageID) {
	l.Overflow[index] = id
}

// InsertEntry inserts a full leaf entry at index as one validated
// operation: key, record reference, and overflow head move together, and
// the capacity counter follows. On a capacity violation nothing changes.
func (l *LeafNode) InsertEntry(index int, key Key, ref uint64, overflow storage.PageID, conf *config.Config) error {
	if err := l.InsertKeyValidated(index, key, conf); err != nil {
		return err
	}

	l.Values = append(l.Values, 0)
	copy(l.Values[index+1:], l.Values[index:])
	l.Values[index] = ref

	l.Overflow = append(l.Overflow, storage.InvalidPageID)
	copy(l.Overflow[index+1:], l.Overflow[index:])
	l.Overflow[index] = overflow

	return nil
}

// RemoveEntry removes the leaf entry at index as one validated operation
// and returns its key and record reference.
func (l *LeafNode) RemoveEntry(index int, conf *config.Config) (Key, uint64, error) {
	key, err := l.RemoveKeyValidated(index, conf)
	if err != nil {
		return nil, 0, err
	}

	ref := l.Values[index]
	l.Values = append(l.Values[:index], l.Values[index+1:]...)
	l.Overflow = append(l.Overflow[:index], l.Overflow[index+1:]...)

	return key, ref, nil
}

// checkShape verifies the parallel slices line up with the capacity
// counter. A mismatch means a caller broke the edit/count pairing.
func (l *LeafNode) checkShape() error {
	if l.KeyCount() != l.Capacity() || len(l.Values) != l.Capacity() || len(l.Overflow) != l.Capacity() {
		return fmt.Errorf("%w: leaf page %d has %d keys, %d values, %d chains for capacity %d",
			ErrInvalidTreeState, l.PageID(), l.KeyCount(), len(l.Values), len(l.Overflow), l.Capacity())
	}
	return nil
}
