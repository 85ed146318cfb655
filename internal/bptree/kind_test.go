package bptree

import (
	"errors"
	"testing"
)

func TestPageTagMapping(t *testing.T) {
	tests := []struct {
		kind NodeKind
		tag  uint8
	}{
		{KindLeaf, 1},
		{KindInternal, 2},
		{KindRootInternal, 3},
		{KindRootLeaf, 4},
		{KindLeafOverflow, 5},
		{KindLookupOverflow, 6},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			if got := tt.kind.Tag(); got != tt.tag {
				t.Errorf("Tag() = %d, want %d", got, tt.tag)
			}
			kind, err := ParsePageTag(tt.tag)
			if err != nil {
				t.Fatalf("ParsePageTag(%d) failed: %v", tt.tag, err)
			}
			if kind != tt.kind {
				t.Errorf("ParsePageTag(%d) = %s, want %s", tt.tag, kind, tt.kind)
			}
		})
	}
}

func TestParsePageTagRejectsUnknown(t *testing.T) {
	for _, tag := range []uint8{0, 7, 42, 255} {
		if _, err := ParsePageTag(tag); !errors.Is(err, ErrUnknownPageTag) {
			t.Errorf("ParsePageTag(%d) error = %v, want ErrUnknownPageTag", tag, err)
		}
	}
}

func TestKindPredicates(t *testing.T) {
	tests := []struct {
		kind                                      NodeKind
		isLeaf, isInternal, isRoot, isOv, isLkpOv bool
	}{
		{KindLeaf, true, false, false, false, false},
		{KindRootLeaf, true, false, true, false, false},
		{KindInternal, false, true, false, false, false},
		{KindRootInternal, false, true, true, false, false},
		{KindLeafOverflow, true, false, false, true, false},
		{KindLookupOverflow, false, false, false, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			if tt.kind.IsLeaf() != tt.isLeaf {
				t.Errorf("IsLeaf() = %v", tt.kind.IsLeaf())
			}
			if tt.kind.IsInternal() != tt.isInternal {
				t.Errorf("IsInternal() = %v", tt.kind.IsInternal())
			}
			if tt.kind.IsRoot() != tt.isRoot {
				t.Errorf("IsRoot() = %v", tt.kind.IsRoot())
			}
			if tt.kind.IsOverflow() != tt.isOv {
				t.Errorf("IsOverflow() = %v", tt.kind.IsOverflow())
			}
			if tt.kind.IsLookupOverflow() != tt.isLkpOv {
				t.Errorf("IsLookupOverflow() = %v", tt.kind.IsLookupOverflow())
			}
		})
	}
}

func TestSetKindTransitions(t *testing.T) {
	n := newNode(KindLeaf, 7)
	if err := n.SetKind(KindRootLeaf); err != nil {
		t.Errorf("Leaf -> RootLeaf failed: %v", err)
	}
	if err := n.SetKind(KindLeaf); err != nil {
		t.Errorf("RootLeaf -> Leaf failed: %v", err)
	}
	if err := n.SetKind(KindInternal); !errors.Is(err, ErrKindTransition) {
		t.Errorf("Leaf -> Internal error = %v, want ErrKindTransition", err)
	}
	if n.Kind() != KindLeaf {
		t.Errorf("kind changed after rejected transition: %s", n.Kind())
	}

	in := newNode(KindInternal, 8)
	if err := in.SetKind(KindRootInternal); err != nil {
		t.Errorf("Internal -> RootInternal failed: %v", err)
	}
	if err := in.SetKind(KindRootLeaf); !errors.Is(err, ErrKindTransition) {
		t.Errorf("RootInternal -> RootLeaf error = %v, want ErrKindTransition", err)
	}

	ov := newNode(KindLeafOverflow, 9)
	if err := ov.SetKind(KindLeaf); !errors.Is(err, ErrKindTransition) {
		t.Errorf("LeafOverflow -> Leaf error = %v, want ErrKindTransition", err)
	}
}
