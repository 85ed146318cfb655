package bptree

import (
	"fmt"

	"github.com/kavak-db/kavak/internal/config"
	"github.com/kavak-db/kavak/internal/storage"
)

// LeafOverflowNode is a continuation page chained off a leaf entry whose
// duplicate-key run outgrew its page. It carries the continuation keys and
// their record references; Next links further pages of the same run.
type LeafOverflowNode struct {
	Node
	Values []uint64 // record references, aligned with the keys
	Next   storage.PageID
}

// NewLeafOverflowNode creates an empty leaf-overflow page.
func NewLeafOverflowNode(pageID storage.PageID) *LeafOverflowNode {
	return &LeafOverflowNode{
		Node: newNode(KindLeafOverflow, pageID),
		Next: storage.InvalidPageID,
	}
}

// AppendEntry appends a continuation entry as one validated operation.
func (o *LeafOverflowNode) AppendEntry(key Key, ref uint64, conf *config.Config) error {
	o.PushBackKey(key)
	if err := o.IncrementCapacity(conf); err != nil {
		o.PopBackKey()
		return err
	}
	o.Values = append(o.Values, ref)
	return nil
}

// PopEntry removes and returns the last continuation entry as one
// validated operation.
func (o *LeafOverflowNode) PopEntry(conf *config.Config) (Key, uint64, error) {
	key := o.PopBackKey()
	if err := o.DecrementCapacity(conf); err != nil {
		o.PushBackKey(key)
		return nil, 0, err
	}
	ref := o.Values[len(o.Values)-1]
	o.Values = o.Values[:len(o.Values)-1]
	return key, ref, nil
}

// checkShape verifies the parallel slices line up with the capacity
// counter.
func (o *LeafOverflowNode) checkShape() error {
	if o.KeyCount() != o.Capacity() || len(o.Values) != o.Capacity() {
		return fmt.Errorf("%w: overflow page %d has %d keys, %d values for capacity %d",
			ErrInvalidTreeState, o.PageID(), o.KeyCount(), len(o.Values), o.Capacity())
	}
	return nil
}

// LookupOverflowNode is a continuation page of the on-disk free-page list:
// a chain of pages each holding references to reusable pages. Its capacity
// counter tracks the reference count; the key list stays empty.
type LookupOverflowNode struct {
	Node
	Pointers []storage.PageID
	Next     storage.PageID
}

// NewLookupOverflowNode creates an empty lookup-overflow page.
func NewLookupOverflowNode(pageID storage.PageID) *LookupOverflowNode {
	return &LookupOverflowNode{
		Node: newNode(KindLookupOverflow, pageID),
		Next: storage.InvalidPageID,
	}
}

// PushPointer appends a free-page reference as one validated operation.
func (lo *LookupOverflowNode) PushPointer(id storage.PageID, conf *config.Config) error {
	if err := lo.IncrementCapacity(conf); err != nil {
		return err
	}
	lo.Pointers = append(lo.Pointers, id)
	return nil
}

// PopPointer removes and returns the last free-page reference as one
// validated operation.
func (lo *LookupOverflowNode) PopPointer(conf *config.Config) (storage.PageID, error) {
	if err := lo.DecrementCapacity(conf); err != nil {
		return storage.InvalidPageID, err
	}
	id := lo.Pointers[len(lo.Pointers)-1]
	lo.Pointers = lo.Pointers[:len(lo.Pointers)-1]
	return id, nil
}

// checkShape verifies the pointer slice lines up with the capacity
// counter.
func (lo *LookupOverflowNode) checkShape() error {
	if len(lo.Pointers) != lo.Capacity() {
		return fmt.Errorf("%w: lookup page %d has %d pointers for capacity %d",
			ErrInvalidTreeState, lo.PageID(), len(lo.Pointers), lo.Capacity())
	}
	return nil
}
