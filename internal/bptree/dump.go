package bptree

import (
	"fmt"
	"io"

	"github.com/kavak-db/kavak/internal/config"
)

// Dump writes a line-oriented rendering of the leaf page to w. Diagnostics
// only; the format is not stable.
func (l *LeafNode) Dump(w io.Writer, conf *config.Config) {
	fmt.Fprintf(w, "%s page=%d capacity=%d prev=%d next=%d\n",
		l.Kind(), l.PageID(), l.Capacity(), l.Prev, l.Next)
	for i := 0; i < l.KeyCount(); i++ {
		fmt.Fprintf(w, "  %s ref=%d chain=%d\n",
			FormatKey(l.KeyAt(i), conf.Schema), l.Values[i], l.Overflow[i])
	}
}

// Dump writes a line-oriented rendering of the internal page to w.
func (in *InternalNode) Dump(w io.Writer, conf *config.Config) {
	fmt.Fprintf(w, "%s page=%d capacity=%d\n", in.Kind(), in.PageID(), in.Capacity())
	for i := 0; i < in.KeyCount(); i++ {
		fmt.Fprintf(w, "  child=%d\n", in.Children[i])
		fmt.Fprintf(w, "  %s\n", FormatKey(in.KeyAt(i), conf.Schema))
	}
	if len(in.Children) > in.KeyCount() {
		fmt.Fprintf(w, "  child=%d\n", in.Children[len(in.Children)-1])
	}
}

// Dump writes a line-oriented rendering of the leaf-overflow page to w.
func (o *LeafOverflowNode) Dump(w io.Writer, conf *config.Config) {
	fmt.Fprintf(w, "%s page=%d capacity=%d next=%d\n",
		o.Kind(), o.PageID(), o.Capacity(), o.Next)
	for i := 0; i < o.KeyCount(); i++ {
		fmt.Fprintf(w, "  %s ref=%d\n", FormatKey(o.KeyAt(i), conf.Schema), o.Values[i])
	}
}

// Dump writes a line-oriented rendering of the lookup-overflow page to w.
func (lo *LookupOverflowNode) Dump(w io.Writer, conf *config.Config) {
	fmt.Fprintf(w, "%s page=%d capacity=%d next=%d\n",
		lo.Kind(), lo.PageID(), lo.Capacity(), lo.Next)
	for _, id := range lo.Pointers {
		fmt.Fprintf(w, "  free=%d\n", id)
	}
}
