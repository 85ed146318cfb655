package bptree

import (
	"errors"
	"fmt"

	"github.com/kavak-db/kavak/internal/config"
)

// ErrInvalidTreeState signals a node whose capacity violates the bounds for
// its kind. It is an internal-consistency failure pointing at a bug in the
// calling algorithm; callers must not retry it.
var ErrInvalidTreeState = errors.New("invalid tree state")

// Validate checks the node's capacity against the bounds for its kind.
//
// Root kinds are exempt from the minimum (a root may drain to one entry or
// to empty) but share the maximum of their non-root counterpart. For every
// other kind the strict lower bound applies only while the node is not
// being deleted; during a multi-step removal the bound relaxes to zero.
func (n *Node) Validate(conf *config.Config) error {
	if n.capacity < 0 {
		return n.invalid("capacity below zero")
	}

	if n.kind.IsRoot() {
		switch {
		case n.kind.IsLeaf() && n.capacity > conf.MaxLeafKeys:
			return n.invalid("root leaf above maximum")
		case n.kind.IsInternal() && n.capacity > conf.MaxInternalKeys:
			return n.invalid("root internal above maximum")
		}
		return nil
	}

	switch {
	case n.kind.IsLookupOverflow():
		if n.capacity > conf.MaxLookupEntries {
			return n.invalid("lookup overflow above maximum")
		}
	case n.kind.IsOverflow():
		if n.capacity > conf.MaxOverflowEntries {
			return n.invalid("leaf overflow above maximum")
		}
	case n.kind.IsLeaf():
		if !n.beingDeleted && n.capacity < conf.MinLeafKeys {
			return n.invalid("leaf below minimum")
		}
		if n.capacity > conf.MaxLeafKeys {
			return n.invalid("leaf above maximum")
		}
	case n.kind.IsInternal():
		if !n.beingDeleted && n.capacity < conf.MinInternalKeys {
			return n.invalid("internal below minimum")
		}
		if n.capacity > conf.MaxInternalKeys {
			return n.invalid("internal above maximum")
		}
	}

	return nil
}

// invalid builds an ErrInvalidTreeState with node context attached.
func (n *Node) invalid(detail string) error {
	return fmt.Errorf("%w: %s (kind %s, page %d, capacity %d)",
		ErrInvalidTreeState, detail, n.kind, n.pageID, n.capacity)
}

// IsFull reports whether the node is at the maximum capacity for its kind.
// The tree algorithm checks this before inserting so capacity never exceeds
// the maximum outside the single check/act window.
func (n *Node) IsFull(conf *config.Config) bool {
	switch {
	case n.kind.IsLookupOverflow():
		return n.capacity == conf.MaxLookupEntries
	case n.kind.IsOverflow():
		return n.capacity == conf.MaxOverflowEntries
	case n.kind.IsLeaf():
		return n.capacity == conf.MaxLeafKeys
	default:
		return n.capacity == conf.MaxInternalKeys
	}
}

// IsTimeToMerge reports whether the node has drained to the point where the
// deletion algorithm must borrow or merge. Roots collapse at one entry or
// fewer; overflow pages only when empty; everything else at the configured
// minimum.
func (n *Node) IsTimeToMerge(conf *config.Config) bool {
	switch {
	case n.kind.IsRoot():
		return n.capacity <= 1
	case n.kind.IsOverflow(), n.kind.IsLookupOverflow():
		return n.IsEmpty()
	case n.kind.IsLeaf():
		return n.capacity <= conf.MinLeafKeys
	default:
		return n.capacity <= conf.MinInternalKeys
	}
}
