// Package pager owns the on-disk page format and the page cache that
// sits between the B+tree and the file descriptor.
package pager

import "encoding/binary"

// PageSize is the fixed size of every page in the file, in both forms
// (leaf and internal). The file length is always a whole multiple of
// PageSize.
const PageSize = 4096

// MaxPages bounds the in-memory page cache. A page number at or beyond
// this bound is fatal (PageOutOfBounds), never silently clamped.
const MaxPages = 100

// Node type tags stored in the low byte of the node_type field.
const (
	NodeLeaf     uint8 = 0
	NodeInternal uint8 = 1
)

// Common node header layout. The source this format is modeled on
// declares node_type and is_root as "uint32-sized" fields but only
// ever reads/writes their low byte; this codec preserves that 4-byte
// stride (so the on-disk layout is pinned) while treating bytes 1-3 of
// each field as unused padding.
const (
	nodeTypeOffset   = 0
	nodeTypeStride   = 4
	isRootOffset     = nodeTypeOffset + nodeTypeStride
	isRootStride     = 4
	parentPtrOffset  = isRootOffset + isRootStride
	parentPtrSize    = 4
	commonHeaderSize = parentPtrOffset + parentPtrSize // 12
)

// Leaf header continues after the common header.
const (
	leafNumCellsOffset = commonHeaderSize
	leafNumCellsSize   = 4
	leafNextLeafOffset = leafNumCellsOffset + leafNumCellsSize
	leafNextLeafSize   = 4
	LeafHeaderSize     = leafNextLeafOffset + leafNextLeafSize // 20
)

// Internal header continues after the common header.
const (
	internalNumKeysOffset  = commonHeaderSize
	internalNumKeysSize    = 4
	internalRightPtrOffset = internalNumKeysOffset + internalNumKeysSize
	internalRightPtrSize   = 4
	InternalHeaderSize     = internalRightPtrOffset + internalRightPtrSize // 20
)

// LeafCellSize returns the size in bytes of one leaf cell (key + row)
// given the fixed row payload size.
func LeafCellSize(rowSize uint32) uint32 {
	return 4 + rowSize
}

// LeafMaxCells returns how many cells fit in a leaf page for the given
// row size.
func LeafMaxCells(rowSize uint32) uint32 {
	return (PageSize - LeafHeaderSize) / LeafCellSize(rowSize)
}

// InternalCellSize is fixed: child page number + separator key.
const InternalCellSize = 8

// Page is one resident 4096-byte page buffer. Dirty is cleared by
// Pager.Flush but is not set anywhere, and Pager.Close does not consult
// it: every resident page is written back on close.
type Page struct {
	Data  [PageSize]byte
	Dirty bool
}

// --- common header accessors, shared by leaf and internal nodes ---

// NodeType reads the node type tag from the low byte of offset 0.
func (p *Page) NodeType() uint8 { return p.Data[nodeTypeOffset] }

// SetNodeType writes the node type tag into the low byte of offset 0,
// leaving the padding bytes of the 4-byte stride untouched (they are
// always zero on a freshly allocated page).
func (p *Page) SetNodeType(t uint8) { p.Data[nodeTypeOffset] = t }

// IsRoot reads the root flag from the low byte of offset 4.
func (p *Page) IsRoot() bool { return p.Data[isRootOffset] != 0 }

// SetIsRoot writes the root flag into the low byte of offset 4.
func (p *Page) SetIsRoot(v bool) {
	if v {
		p.Data[isRootOffset] = 1
	} else {
		p.Data[isRootOffset] = 0
	}
}

// ParentPageNum reads the parent page number at offset 8.
func (p *Page) ParentPageNum() uint32 {
	return binary.LittleEndian.Uint32(p.Data[parentPtrOffset : parentPtrOffset+parentPtrSize])
}

// SetParentPageNum writes the parent page number at offset 8.
func (p *Page) SetParentPageNum(v uint32) {
	binary.LittleEndian.PutUint32(p.Data[parentPtrOffset:parentPtrOffset+parentPtrSize], v)
}

// --- leaf header accessors ---

func (p *Page) LeafNumCells() uint32 {
	return binary.LittleEndian.Uint32(p.Data[leafNumCellsOffset : leafNumCellsOffset+leafNumCellsSize])
}

func (p *Page) SetLeafNumCells(v uint32) {
	binary.LittleEndian.PutUint32(p.Data[leafNumCellsOffset:leafNumCellsOffset+leafNumCellsSize], v)
}

func (p *Page) LeafNextLeaf() uint32 {
	return binary.LittleEndian.Uint32(p.Data[leafNextLeafOffset : leafNextLeafOffset+leafNextLeafSize])
}

func (p *Page) SetLeafNextLeaf(v uint32) {
	binary.LittleEndian.PutUint32(p.Data[leafNextLeafOffset:leafNextLeafOffset+leafNextLeafSize], v)
}

// leafCellOffset returns the byte offset of cell i (key followed by
// rowSize value bytes).
func leafCellOffset(i int, rowSize uint32) int {
	return int(LeafHeaderSize) + i*int(LeafCellSize(rowSize))
}

// LeafCellKey returns the key of cell i.
func (p *Page) LeafCellKey(i int, rowSize uint32) uint32 {
	off := leafCellOffset(i, rowSize)
	return binary.LittleEndian.Uint32(p.Data[off : off+4])
}

// SetLeafCellKey sets the key of cell i.
func (p *Page) SetLeafCellKey(i int, rowSize uint32, key uint32) {
	off := leafCellOffset(i, rowSize)
	binary.LittleEndian.PutUint32(p.Data[off:off+4], key)
}

// LeafCellValue returns a mutable slice over the row payload of cell i.
func (p *Page) LeafCellValue(i int, rowSize uint32) []byte {
	off := leafCellOffset(i, rowSize) + 4
	return p.Data[off : off+int(rowSize)]
}

// CopyLeafCell copies cell src to cell dst within the same page (used
// while shifting cells during insert and split).
func (p *Page) CopyLeafCell(dst, src int, rowSize uint32) {
	cellSize := int(LeafCellSize(rowSize))
	dstOff := leafCellOffset(dst, rowSize)
	srcOff := leafCellOffset(src, rowSize)
	copy(p.Data[dstOff:dstOff+cellSize], p.Data[srcOff:srcOff+cellSize])
}

// CopyLeafCellFrom copies cell srcIdx of src into cell dstIdx of p.
// src and p may be the same page (used for in-page shifts) or
// different pages (used when redistributing cells across a split).
func (p *Page) CopyLeafCellFrom(dstIdx int, src *Page, srcIdx int, rowSize uint32) {
	if p == src {
		p.CopyLeafCell(dstIdx, srcIdx, rowSize)
		return
	}
	p.SetLeafCellKey(dstIdx, rowSize, src.LeafCellKey(srcIdx, rowSize))
	copy(p.LeafCellValue(dstIdx, rowSize), src.LeafCellValue(srcIdx, rowSize))
}

// --- internal header accessors ---

func (p *Page) InternalNumKeys() uint32 {
	return binary.LittleEndian.Uint32(p.Data[internalNumKeysOffset : internalNumKeysOffset+internalNumKeysSize])
}

func (p *Page) SetInternalNumKeys(v uint32) {
	binary.LittleEndian.PutUint32(p.Data[internalNumKeysOffset:internalNumKeysOffset+internalNumKeysSize], v)
}

func (p *Page) InternalRightChild() uint32 {
	return binary.LittleEndian.Uint32(p.Data[internalRightPtrOffset : internalRightPtrOffset+internalRightPtrSize])
}

func (p *Page) SetInternalRightChild(v uint32) {
	binary.LittleEndian.PutUint32(p.Data[internalRightPtrOffset:internalRightPtrOffset+internalRightPtrSize], v)
}

func internalCellOffset(i int) int {
	return int(InternalHeaderSize) + i*InternalCellSize
}

// InternalCellChild returns the child page number stored in cell i.
func (p *Page) InternalCellChild(i int) uint32 {
	off := internalCellOffset(i)
	return binary.LittleEndian.Uint32(p.Data[off : off+4])
}

func (p *Page) SetInternalCellChild(i int, v uint32) {
	off := internalCellOffset(i)
	binary.LittleEndian.PutUint32(p.Data[off:off+4], v)
}

// InternalCellKey returns the separator key stored in cell i.
func (p *Page) InternalCellKey(i int) uint32 {
	off := internalCellOffset(i) + 4
	return binary.LittleEndian.Uint32(p.Data[off : off+4])
}

func (p *Page) SetInternalCellKey(i int, v uint32) {
	off := internalCellOffset(i) + 4
	binary.LittleEndian.PutUint32(p.Data[off:off+4], v)
}

func (p *Page) CopyInternalCell(dst, src int) {
	dstOff := internalCellOffset(dst)
	srcOff := internalCellOffset(src)
	copy(p.Data[dstOff:dstOff+InternalCellSize], p.Data[srcOff:srcOff+InternalCellSize])
}

// InitializeLeaf resets a page to an empty, non-root leaf.
func (p *Page) InitializeLeaf() {
	p.SetNodeType(NodeLeaf)
	p.SetIsRoot(false)
	p.SetLeafNumCells(0)
	p.SetLeafNextLeaf(0)
}

// InitializeInternal resets a page to an empty, non-root internal node.
func (p *Page) InitializeInternal() {
	p.SetNodeType(NodeInternal)
	p.SetIsRoot(false)
	p.SetInternalNumKeys(0)
}

// MaxKey returns the last key in a leaf, or the last separator of an
// internal node (the right child holds keys greater than any
// separator, so it never contributes here; callers needing the true
// subtree maximum recurse into the right child first).
func (p *Page) MaxKey(rowSize uint32) uint32 {
	if p.NodeType() == NodeLeaf {
		n := p.LeafNumCells()
		return p.LeafCellKey(int(n)-1, rowSize)
	}
	n := p.InternalNumKeys()
	return p.InternalCellKey(int(n) - 1)
}
