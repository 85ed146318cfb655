// Package bptree implements the node model and tree algorithms for the
// KavakDB multi-column B+ tree index.
package bptree

import (
	"errors"
	"fmt"
)

// NodeKind identifies the role a node plays in the tree. Exactly one kind is
// in effect at a time, and the kind drives every capacity rule.
type NodeKind uint8

const (
	// KindLeaf is a non-root leaf page holding record-bearing keys.
	KindLeaf NodeKind = iota
	// KindRootLeaf is the root while the whole tree fits in one leaf.
	KindRootLeaf
	// KindInternal is a non-root internal page holding separator keys and
	// child references.
	KindInternal
	// KindRootInternal is the root once the tree has more than one level.
	KindRootInternal
	// KindLeafOverflow is a continuation page chained off a leaf entry
	// whose duplicate-key run exceeded a single page.
	KindLeafOverflow
	// KindLookupOverflow is a continuation page of the on-disk free-page
	// list.
	KindLookupOverflow
)

// Persisted page tags. The mapping is fixed and must match on disk across
// versions.
const (
	TagLeaf           uint8 = 1
	TagInternal       uint8 = 2
	TagRootInternal   uint8 = 3
	TagRootLeaf       uint8 = 4
	TagLeafOverflow   uint8 = 5
	TagLookupOverflow uint8 = 6
)

// Errors for kind and tag handling.
var (
	// ErrUnknownPageTag signals an on-disk tag outside the known mapping.
	// It means file corruption or a version mismatch; the read must abort.
	ErrUnknownPageTag = errors.New("unknown page tag: file possibly corrupt")

	// ErrKindTransition signals a kind reassignment that would cross the
	// leaf/internal family boundary. It is a contract violation by the
	// caller, not a recoverable condition.
	ErrKindTransition = errors.New("illegal node kind transition")
)

// String returns the string representation of a NodeKind.
func (k NodeKind) String() string {
	switch k {
	case KindLeaf:
		return "Leaf"
	case KindRootLeaf:
		return "RootLeaf"
	case KindInternal:
		return "Internal"
	case KindRootInternal:
		return "RootInternal"
	case KindLeafOverflow:
		return "LeafOverflow"
	case KindLookupOverflow:
		return "LookupOverflow"
	default:
		return "Unknown"
	}
}

// IsLeaf reports whether the kind belongs to the leaf family.
func (k NodeKind) IsLeaf() bool {
	return k == KindLeaf || k == KindRootLeaf || k == KindLeafOverflow
}

// IsInternal reports whether the kind belongs to the internal family.
func (k NodeKind) IsInternal() bool {
	return k == KindInternal || k == KindRootInternal
}

// IsRoot reports whether the kind is a root variant.
func (k NodeKind) IsRoot() bool {
	return k == KindRootLeaf || k == KindRootInternal
}

// IsOverflow reports whether the kind is a leaf-overflow page.
func (k NodeKind) IsOverflow() bool {
	return k == KindLeafOverflow
}

// IsLookupOverflow reports whether the kind is a lookup-overflow page.
func (k NodeKind) IsLookupOverflow() bool {
	return k == KindLookupOverflow
}

// Tag returns the persisted page tag for the kind.
func (k NodeKind) Tag() uint8 {
	switch k {
	case KindLeaf:
		return TagLeaf
	case KindInternal:
		return TagInternal
	case KindRootInternal:
		return TagRootInternal
	case KindRootLeaf:
		return TagRootLeaf
	case KindLeafOverflow:
		return TagLeafOverflow
	case KindLookupOverflow:
		return TagLookupOverflow
	default:
		// Unreachable for the closed kind set.
		return 0
	}
}

// ParsePageTag maps a persisted page tag back to its NodeKind. Any value
// outside the fixed mapping is rejected; the reader must not guess a
// default.
func ParsePageTag(tag uint8) (NodeKind, error) {
	switch tag {
	case TagLeaf:
		return KindLeaf, nil
	case TagInternal:
		return KindInternal, nil
	case TagRootInternal:
		return KindRootInternal, nil
	case TagRootLeaf:
		return KindRootLeaf, nil
	case TagLeafOverflow:
		return KindLeafOverflow, nil
	case TagLookupOverflow:
		return KindLookupOverflow, nil
	default:
		return 0, fmt.Errorf("%w: %d", ErrUnknownPageTag, tag)
	}
}

// sameFamily reports whether two kinds belong to the same retag family.
// Only Leaf<->RootLeaf and Internal<->RootInternal are legal; overflow
// kinds never change.
func sameFamily(a, b NodeKind) bool {
	switch a {
	case KindLeaf, KindRootLeaf:
		return b == KindLeaf || b == KindRootLeaf
	case KindInternal, KindRootInternal:
		return b == KindInternal || b == KindRootInternal
	default:
		return a == b
	}
}
