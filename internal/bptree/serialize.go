package bptree

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/kavak-db/kavak/internal/config"
	"github.com/kavak-db/kavak/internal/storage"
)

// ErrPageCorrupted signals node page bytes that cannot be decoded: a
// payload that does not fit its declared capacity, an impossible capacity,
// or a truncated buffer. Like an unknown tag it aborts the read path.
var ErrPageCorrupted = errors.New("corrupted node page")

// PageNode is the persistence contract every concrete page kind fulfils:
// serialize yourself into a page buffer (common header first, kind payload
// after), and render yourself for diagnostics. Both are built on the key
// codec.
type PageNode interface {
	Serialize(buf []byte, conf *config.Config) (int, error)
	Dump(w io.Writer, conf *config.Config)
	Kind() NodeKind
	PageID() storage.PageID
	Capacity() int
}

var (
	_ PageNode = (*LeafNode)(nil)
	_ PageNode = (*InternalNode)(nil)
	_ PageNode = (*LeafOverflowNode)(nil)
	_ PageNode = (*LookupOverflowNode)(nil)
)

// writeNodeHeader writes the common node header.
// Layout:
//   - Byte 0:    persisted tag
//   - Byte 1:    reserved
//   - Bytes 2-3: capacity (uint16)
func writeNodeHeader(buf []byte, kind NodeKind, capacity int) {
	buf[0] = kind.Tag()
	buf[1] = 0
	binary.BigEndian.PutUint16(buf[2:4], uint16(capacity))
}

// readNodeHeader reads the common node header and rejects unknown tags.
func readNodeHeader(buf []byte) (NodeKind, int, error) {
	if len(buf) < config.NodeHeaderSize {
		return 0, 0, fmt.Errorf("%w: %d bytes for node header", ErrPageCorrupted, len(buf))
	}
	kind, err := ParsePageTag(buf[0])
	if err != nil {
		return 0, 0, err
	}
	return kind, int(binary.BigEndian.Uint16(buf[2:4])), nil
}

// Serialize writes the leaf page: common header, sibling links, then one
// (key, record ref, overflow head) entry per key.
func (l *LeafNode) Serialize(buf []byte, conf *config.Config) (int, error) {
	if err := l.checkShape(); err != nil {
		return 0, err
	}

	entrySize := conf.KeySize() + config.RecordRefSize + config.PageRefSize
	need := config.LeafMetaSize + l.Capacity()*entrySize
	if need > len(buf) {
		return 0, fmt.Errorf("%w: leaf page %d needs %d bytes", ErrPageCorrupted, l.PageID(), need)
	}

	writeNodeHeader(buf, l.Kind(), l.Capacity())
	binary.BigEndian.PutUint64(buf[4:12], uint64(l.Prev))
	binary.BigEndian.PutUint64(buf[12:20], uint64(l.Next))

	offset := config.LeafMetaSize
	for i := 0; i < l.Capacity(); i++ {
		n, err := EncodeKey(l.KeyAt(i), conf.Schema, buf[offset:])
		if err != nil {
			return 0, err
		}
		offset += n
		binary.BigEndian.PutUint64(buf[offset:], l.Values[i])
		offset += config.RecordRefSize
		binary.BigEndian.PutUint64(buf[offset:], uint64(l.Overflow[i]))
		offset += config.PageRefSize
	}

	return offset, nil
}

// deserializeLeaf rebuilds a leaf page from its bytes.
func deserializeLeaf(kind NodeKind, capacity int, buf []byte, conf *config.Config, pageID storage.PageID) (*LeafNode, error) {
	if capacity > conf.MaxLeafKeys {
		return nil, fmt.Errorf("%w: leaf page %d declares capacity %d", ErrPageCorrupted, pageID, capacity)
	}

	entrySize := conf.KeySize() + config.RecordRefSize + config.PageRefSize
	if config.LeafMetaSize+capacity*entrySize > len(buf) {
		return nil, fmt.Errorf("%w: leaf page %d payload truncated", ErrPageCorrupted, pageID)
	}

	l := NewLeafNode(kind, pageID)
	l.Prev = storage.PageID(binary.BigEndian.Uint64(buf[4:12]))
	l.Next = storage.PageID(binary.BigEndian.Uint64(buf[12:20]))

	offset := config.LeafMetaSize
	for i := 0; i < capacity; i++ {
		key, n, err := DecodeKey(conf.Schema, buf[offset:])
		if err != nil {
			return nil, err
		}
		offset += n
		l.PushBackKey(key)
		l.Values = append(l.Values, binary.BigEndian.Uint64(buf[offset:]))
		offset += config.RecordRefSize
		l.Overflow = append(l.Overflow, storage.PageID(binary.BigEndian.Uint64(buf[offset:])))
		offset += config.PageRefSize
	}

	l.SetCapacity(capacity)
	l.SetBeingDeleted(false)
	return l, nil
}

// Serialize writes the internal page: common header, child references,
// then the separator keys. Internal pages never persist empty.
func (in *InternalNode) Serialize(buf []byte, conf *config.Config) (int, error) {
	if err := in.checkShape(); err != nil {
		return 0, err
	}
	if in.Capacity() == 0 {
		return 0, fmt.Errorf("%w: internal page %d is empty", ErrInvalidTreeState, in.PageID())
	}

	need := config.InternalMetaSize + (in.Capacity()+1)*config.PageRefSize + in.Capacity()*conf.KeySize()
	if need > len(buf) {
		return 0, fmt.Errorf("%w: internal page %d needs %d bytes", ErrPageCorrupted, in.PageID(), need)
	}

	writeNodeHeader(buf, in.Kind(), in.Capacity())

	offset := config.InternalMetaSize
	for _, child := range in.Children {
		binary.BigEndian.PutUint64(buf[offset:], uint64(child))
		offset += config.PageRefSize
	}
	for i := 0; i < in.Capacity(); i++ {
		n, err := EncodeKey(in.KeyAt(i), conf.Schema, buf[offset:])
		if err != nil {
			return 0, err
		}
		offset += n
	}

	return offset, nil
}

// deserializeInternal rebuilds an internal page from its bytes.
func deserializeInternal(kind NodeKind, capacity int, buf []byte, conf *config.Config, pageID storage.PageID) (*InternalNode, error) {
	if capacity == 0 || capacity > conf.MaxInternalKeys {
		return nil, fmt.Errorf("%w: internal page %d declares capacity %d", ErrPageCorrupted, pageID, capacity)
	}

	need := config.InternalMetaSize + (capacity+1)*config.PageRefSize + capacity*conf.KeySize()
	if need > len(buf) {
		return nil, fmt.Errorf("%w: internal page %d payload truncated", ErrPageCorrupted, pageID)
	}

	in := NewInternalNode(kind, pageID)

	offset := config.InternalMetaSize
	for i := 0; i <= capacity; i++ {
		in.Children = append(in.Children, storage.PageID(binary.BigEndian.Uint64(buf[offset:])))
		offset += config.PageRefSize
	}
	for i := 0; i < capacity; i++ {
		key, n, err := DecodeKey(conf.Schema, buf[offset:])
		if err != nil {
			return nil, err
		}
		offset += n
		in.PushBackKey(key)
	}

	in.SetCapacity(capacity)
	in.SetBeingDeleted(false)
	return in, nil
}

// Serialize writes the leaf-overflow page: common header, next-in-chain,
// then one (key, record ref) entry per key.
func (o *LeafOverflowNode) Serialize(buf []byte, conf *config.Config) (int, error) {
	if err := o.checkShape(); err != nil {
		return 0, err
	}

	entrySize := conf.KeySize() + config.RecordRefSize
	need := config.OverflowMetaSize + o.Capacity()*entrySize
	if need > len(buf) {
		return 0, fmt.Errorf("%w: overflow page %d needs %d bytes", ErrPageCorrupted, o.PageID(), need)
	}

	writeNodeHeader(buf, o.Kind(), o.Capacity())
	binary.BigEndian.PutUint64(buf[4:12], uint64(o.Next))

	offset := config.OverflowMetaSize
	for i := 0; i < o.Capacity(); i++ {
		n, err := EncodeKey(o.KeyAt(i), conf.Schema, buf[offset:])
		if err != nil {
			return 0, err
		}
		offset += n
		binary.BigEndian.PutUint64(buf[offset:], o.Values[i])
		offset += config.RecordRefSize
	}

	return offset, nil
}

// deserializeOverflow rebuilds a leaf-overflow page from its bytes.
func deserializeOverflow(capacity int, buf []byte, conf *config.Config, pageID storage.PageID) (*LeafOverflowNode, error) {
	if capacity > conf.MaxOverflowEntries {
		return nil, fmt.Errorf("%w: overflow page %d declares capacity %d", ErrPageCorrupted, pageID, capacity)
	}

	entrySize := conf.KeySize() + config.RecordRefSize
	if config.OverflowMetaSize+capacity*entrySize > len(buf) {
		return nil, fmt.Errorf("%w: overflow page %d payload truncated", ErrPageCorrupted, pageID)
	}

	o := NewLeafOverflowNode(pageID)
	o.Next = storage.PageID(binary.BigEndian.Uint64(buf[4:12]))

	offset := config.OverflowMetaSize
	for i := 0; i < capacity; i++ {
		key, n, err := DecodeKey(conf.Schema, buf[offset:])
		if err != nil {
			return nil, err
		}
		offset += n
		o.PushBackKey(key)
		o.Values = append(o.Values, binary.BigEndian.Uint64(buf[offset:]))
		offset += config.RecordRefSize
	}

	o.SetCapacity(capacity)
	o.SetBeingDeleted(false)
	return o, nil
}

// Serialize writes the lookup-overflow page: common header, next-in-chain,
// then the free-page references.
func (lo *LookupOverflowNode) Serialize(buf []byte, conf *config.Config) (int, error) {
	if err := lo.checkShape(); err != nil {
		return 0, err
	}

	need := config.LookupMetaSize + lo.Capacity()*config.PageRefSize
	if need > len(buf) {
		return 0, fmt.Errorf("%w: lookup page %d needs %d bytes", ErrPageCorrupted, lo.PageID(), need)
	}

	writeNodeHeader(buf, lo.Kind(), lo.Capacity())
	binary.BigEndian.PutUint64(buf[4:12], uint64(lo.Next))

	offset := config.LookupMetaSize
	for _, id := range lo.Pointers {
		binary.BigEndian.PutUint64(buf[offset:], uint64(id))
		offset += config.PageRefSize
	}

	return offset, nil
}

// deserializeLookup rebuilds a lookup-overflow page from its bytes.
func deserializeLookup(capacity int, buf []byte, conf *config.Config, pageID storage.PageID) (*LookupOverflowNode, error) {
	if capacity > conf.MaxLookupEntries {
		return nil, fmt.Errorf("%w: lookup page %d declares capacity %d", ErrPageCorrupted, pageID, capacity)
	}
	if config.LookupMetaSize+capacity*config.PageRefSize > len(buf) {
		return nil, fmt.Errorf("%w: lookup page %d payload truncated", ErrPageCorrupted, pageID)
	}

	lo := NewLookupOverflowNode(pageID)
	lo.Next = storage.PageID(binary.BigEndian.Uint64(buf[4:12]))

	offset := config.LookupMetaSize
	for i := 0; i < capacity; i++ {
		lo.Pointers = append(lo.Pointers, storage.PageID(binary.BigEndian.Uint64(buf[offset:])))
		offset += config.PageRefSize
	}

	lo.SetCapacity(capacity)
	lo.SetBeingDeleted(false)
	return lo, nil
}

// ReadNode decodes the node page in buf, dispatching on the persisted tag.
// An unknown tag or a payload that contradicts its header aborts the read.
func ReadNode(buf []byte, conf *config.Config, pageID storage.PageID) (PageNode, error) {
	kind, capacity, err := readNodeHeader(buf)
	if err != nil {
		return nil, err
	}

	switch kind {
	case KindLeaf, KindRootLeaf:
		return deserializeLeaf(kind, capacity, buf, conf, pageID)
	case KindInternal, KindRootInternal:
		return deserializeInternal(kind, capacity, buf, conf, pageID)
	case KindLeafOverflow:
		return deserializeOverflow(capacity, buf, conf, pageID)
	case KindLookupOverflow:
		return deserializeLookup(capacity, buf, conf, pageID)
	default:
		// Unreachable: readNodeHeader already rejected unknown tags.
		return nil, fmt.Errorf("%w: %d", ErrUnknownPageTag, buf[0])
	}
}
