package bptree

import (
	"fmt"

	"github.com/kavak-db/kavak/internal/config"
	"github.com/kavak-db/kavak/internal/storage"
)

// Node is the common runtime state shared by every page kind: the kind tag,
// the on-disk location, the ordered key list, the capacity counter, and the
// deletion-in-progress flag. Concrete page kinds embed Node and add their
// own payload (record references, child references, chain links).
//
// The key-list operations never touch the capacity counter; every
// count-changing edit must be paired with IncrementCapacity or
// DecrementCapacity, or use the combined operations that do the pairing.
type Node struct {
	kind         NodeKind
	pageID       storage.PageID
	keys         []Key
	capacity     int
	beingDeleted bool
}

// newNode initializes common node state. Nodes start empty and marked
// being-deleted: a fresh page is a transient placeholder until its first
// committed insert, and the relaxed lower bound lets it pass validation
// until then.
func newNode(kind NodeKind, pageID storage.PageID) Node {
	return Node{
		kind:         kind,
		pageID:       pageID,
		beingDeleted: true,
	}
}

// Kind returns the node's current kind.
func (n *Node) Kind() NodeKind {
	return n.kind
}

// SetKind reassigns the node's kind. Reassignment is only legal within the
// node's family (Leaf<->RootLeaf, Internal<->RootInternal); crossing the
// family boundary is a contract violation.
func (n *Node) SetKind(kind NodeKind) error {
	if !sameFamily(n.kind, kind) {
		return fmt.Errorf("%w: %s to %s", ErrKindTransition, n.kind, kind)
	}
	n.kind = kind
	return nil
}

// PageID returns the node's on-disk page reference.
func (n *Node) PageID() storage.PageID {
	return n.pageID
}

// SetPageID updates the node's on-disk page reference, used when the tree
// relocates a page.
func (n *Node) SetPageID(id storage.PageID) {
	n.pageID = id
}

// Capacity returns the current capacity counter.
func (n *Node) Capacity() int {
	return n.capacity
}

// SetCapacity replaces the capacity counter without validation. Used when
// materializing a node from disk.
func (n *Node) SetCapacity(c int) {
	n.capacity = c
}

// BeingDeleted reports whether a multi-step removal is in progress on this
// node, which relaxes the lower capacity bound to zero.
func (n *Node) BeingDeleted() bool {
	return n.beingDeleted
}

// SetBeingDeleted sets or clears the deletion-in-progress flag. The owning
// removal routine must clear it once the node reaches a stable state, at
// which point the strict lower bound applies again.
func (n *Node) SetBeingDeleted(deleted bool) {
	n.beingDeleted = deleted
}

// IsEmpty reports whether the node holds no keys.
func (n *Node) IsEmpty() bool {
	return n.capacity == 0
}

// KeyCount returns the number of keys in the key list. Equal to Capacity
// whenever no mutation is in flight.
func (n *Node) KeyCount() int {
	return len(n.keys)
}

// IncrementCapacity raises the capacity counter by one and re-validates the
// node. On a violation the counter is restored and the error returned, so a
// failed adjustment never leaves the node in an illegal state.
func (n *Node) IncrementCapacity(conf *config.Config) error {
	n.capacity++
	if err := n.Validate(conf); err != nil {
		n.capacity--
		return err
	}
	return nil
}

// DecrementCapacity lowers the capacity counter by one and re-validates the
// node. On a violation the counter is restored and the error returned.
func (n *Node) DecrementCapacity(conf *config.Config) error {
	n.capacity--
	if err := n.Validate(conf); err != nil {
		n.capacity++
		return err
	}
	return nil
}

// KeyAt returns the key at the given position.
func (n *Node) KeyAt(index int) Key {
	return n.keys[index]
}

// SetKeyAt replaces the key at the given position.
func (n *Node) SetKeyAt(index int, key Key) {
	n.keys[index] = key
}

// InsertKeyAt inserts a key at the given position, shifting subsequent
// entries right. Does not touch the capacity counter.
func (n *Node) InsertKeyAt(index int, key Key) {
	n.keys = append(n.keys, nil)
	copy(n.keys[index+1:], n.keys[index:])
	n.keys[index] = key
}

// RemoveKeyAt removes and returns the key at the given position. Does not
// touch the capacity counter.
func (n *Node) RemoveKeyAt(index int) Key {
	key := n.keys[index]
	n.keys = append(n.keys[:index], n.keys[index+1:]...)
	return key
}

// PushFrontKey prepends a key.
func (n *Node) PushFrontKey(key Key) {
	n.InsertKeyAt(0, key)
}

// PushBackKey appends a key.
func (n *Node) PushBackKey(key Key) {
	n.keys = append(n.keys, key)
}

// PopFrontKey removes and returns the first key.
func (n *Node) PopFrontKey() Key {
	return n.RemoveKeyAt(0)
}

// PopBackKey removes and returns the last key.
func (n *Node) PopBackKey() Key {
	return n.RemoveKeyAt(len(n.keys) - 1)
}

// FirstKey returns the first key without removing it.
func (n *Node) FirstKey() Key {
	return n.keys[0]
}

// LastKey returns the last key without removing it.
func (n *Node) LastKey() Key {
	return n.keys[len(n.keys)-1]
}

// InsertKeyValidated inserts a key at the given position and raises the
// capacity counter as one operation. If validation fails the list edit is
// rolled back and the node is unchanged.
func (n *Node) InsertKeyValidated(index int, key Key, conf *config.Config) error {
	n.InsertKeyAt(index, key)
	if err := n.IncrementCapacity(conf); err != nil {
		n.RemoveKeyAt(index)
		return err
	}
	return nil
}

// RemoveKeyValidated removes the key at the given position and lowers the
// capacity counter as one operation. If validation fails the list edit is
// rolled back and the node is unchanged.
func (n *Node) RemoveKeyValidated(index int, conf *config.Config) (Key, error) {
	key := n.RemoveKeyAt(index)
	if err := n.DecrementCapacity(conf); err != nil {
		n.InsertKeyAt(index, key)
		return nil, err
	}
	return key, nil
}

// searchKey returns the position where key belongs in the sorted key list
// and whether an equal key is already there.
func (n *Node) searchKey(key Key) (int, bool) {
	low, high := 0, len(n.keys)
	for low < high {
		mid := (low + high) / 2
		switch c := n.keys[mid].Compare(key); {
		case c < 0:
			low = mid + 1
		case c > 0:
			high = mid
		default:
			return mid, true
		}
	}
	return low, false
}
