package btree

import (
	"btdb/pager"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// RootPageNum is always 0: the root's page number never changes, even
// when the tree grows and the root is promoted from a leaf to an
// internal node in place.
const RootPageNum = 0

// InternalMaxCells bounds the fan-out of an internal node. It is
// deliberately tiny (unlike LeafMaxCells, which is derived from the
// page and row size) so that a full internal node, and with it the
// ErrNeedInternalSplit path, is reachable in a few dozen inserts
// during testing.
const InternalMaxCells = 3

// ErrDuplicateKey is returned by Insert when key already exists.
var ErrDuplicateKey = errors.New("duplicate key")

// ErrNeedInternalSplit is returned (and is fatal to the caller) when
// an internal node insert would overflow InternalMaxCells. Splitting
// internal nodes is out of scope for this tree; see the doc comment
// on BTree.
var ErrNeedInternalSplit = errors.New("need to implement splitting internal node")

// BTree is a disk-resident B+tree rooted at page 0 of a pager.Pager.
// It never splits internal nodes (ErrNeedInternalSplit instead) and
// never reclaims pages: both are explicit, documented limitations
// inherited from the tutorial this format is modeled on.
type BTree struct {
	pager *pager.Pager
	log   *zap.SugaredLogger
}

// Open returns a BTree over pager p, initializing page 0 as an empty
// root leaf if p has no pages yet.
func Open(p *pager.Pager, log *zap.SugaredLogger) (*BTree, error) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	t := &BTree{pager: p, log: log}
	if p.NumPages() == 0 {
		root, err := p.GetPage(RootPageNum)
		if err != nil {
			return nil, err
		}
		root.InitializeLeaf()
		root.SetIsRoot(true)
	}
	return t, nil
}

// Find descends from the root and returns a cursor positioned at the
// leaf cell holding key, or the position key would occupy if inserted.
func (t *BTree) Find(key uint32) (*Cursor, error) {
	pageNum := uint32(RootPageNum)
	for {
		page, err := t.pager.GetPage(pageNum)
		if err != nil {
			return nil, err
		}
		if page.NodeType() == pager.NodeLeaf {
			idx := leafFindIndex(page, key)
			return &Cursor{
				tree:       t,
				pageNum:    pageNum,
				cellNum:    uint32(idx),
				endOfTable: uint32(idx) >= page.LeafNumCells(),
			}, nil
		}
		idx := internalFindChildIndex(page, key)
		pageNum = internalChildPage(page, idx)
	}
}

// Insert adds key/row to the tree. It fails with ErrDuplicateKey if
// key already exists, without mutating any page.
func (t *BTree) Insert(key uint32, row Row) error {
	cur, err := t.Find(key)
	if err != nil {
		return err
	}
	leafPage, err := t.pager.GetPage(cur.pageNum)
	if err != nil {
		return err
	}
	numCells := leafPage.LeafNumCells()
	if cur.cellNum < numCells && leafPage.LeafCellKey(int(cur.cellNum), RowSize) == key {
		return ErrDuplicateKey
	}

	if numCells < pager.LeafMaxCells(RowSize) {
		return t.leafInsertAt(leafPage, int(cur.cellNum), key, row)
	}
	return t.leafSplitAndInsert(cur.pageNum, int(cur.cellNum), key, row)
}

// leafInsertAt inserts key/row at index pos in page, which must have
// room (checked by the caller).
func (t *BTree) leafInsertAt(page *pager.Page, pos int, key uint32, row Row) error {
	numCells := int(page.LeafNumCells())
	for i := numCells; i > pos; i-- {
		page.CopyLeafCell(i, i-1, RowSize)
	}
	page.SetLeafCellKey(pos, RowSize, key)
	if err := SerializeRow(row, page.LeafCellValue(pos, RowSize)); err != nil {
		return err
	}
	page.SetLeafNumCells(uint32(numCells + 1))
	return nil
}

// leafSplitAndInsert splits the full leaf at oldPageNum, redistributes
// its MaxCells existing cells plus the new (key, row) at logical
// position pos across the two leaves, and propagates the split
// upward (root promotion or internal-node insert).
func (t *BTree) leafSplitAndInsert(oldPageNum uint32, pos int, key uint32, row Row) error {
	maxCells := int(pager.LeafMaxCells(RowSize))
	left := (maxCells + 1 + 1) / 2 // ceil((max+1)/2)
	right := (maxCells + 1) - left

	oldPage, err := t.pager.GetPage(oldPageNum)
	if err != nil {
		return err
	}
	wasRoot := oldPage.IsRoot()
	oldMaxBeforeSplit := oldPage.MaxKey(RowSize)

	newPageNum := t.pager.AllocatePage()
	newPage, err := t.pager.GetPage(newPageNum)
	if err != nil {
		return err
	}
	newPage.InitializeLeaf()
	newPage.SetParentPageNum(oldPage.ParentPageNum())
	newPage.SetLeafNextLeaf(oldPage.LeafNextLeaf())
	oldPage.SetLeafNextLeaf(newPageNum)

	// Redistribute high-to-low so writes to low indices of oldPage
	// never clobber a source cell still needed by a later (higher)
	// iteration.
	for i := maxCells; i >= 0; i-- {
		var dest *pager.Page
		var destIdx int
		if i < left {
			dest, destIdx = oldPage, i
		} else {
			dest, destIdx = newPage, i-left
		}
		switch {
		case i == pos:
			dest.SetLeafCellKey(destIdx, RowSize, key)
			if err := SerializeRow(row, dest.LeafCellValue(destIdx, RowSize)); err != nil {
				return err
			}
		case i > pos:
			dest.CopyLeafCellFrom(destIdx, oldPage, i-1, RowSize)
		default: // i < pos
			dest.CopyLeafCellFrom(destIdx, oldPage, i, RowSize)
		}
	}
	oldPage.SetLeafNumCells(uint32(left))
	newPage.SetLeafNumCells(uint32(right))

	if wasRoot {
		return t.createNewRoot(newPageNum)
	}

	parentPageNum := oldPage.ParentPageNum()
	newOldMax := oldPage.MaxKey(RowSize)
	if err := t.updateInternalNodeKey(parentPageNum, oldMaxBeforeSplit, newOldMax); err != nil {
		return err
	}
	return t.internalNodeInsert(parentPageNum, newPageNum)
}

// createNewRoot promotes the current (full) root leaf/internal node
// into a fresh left child, and re-initializes page 0 in place as an
// internal node with one separator pointing at the new left/right
// children. The root's page number never changes.
func (t *BTree) createNewRoot(rightPageNum uint32) error {
	oldRoot, err := t.pager.GetPage(RootPageNum)
	if err != nil {
		return err
	}
	rightPage, err := t.pager.GetPage(rightPageNum)
	if err != nil {
		return err
	}

	leftPageNum := t.pager.AllocatePage()
	leftPage, err := t.pager.GetPage(leftPageNum)
	if err != nil {
		return err
	}
	leftPage.Data = oldRoot.Data
	leftPage.SetIsRoot(false)
	leftPage.SetParentPageNum(RootPageNum)

	rightPage.SetParentPageNum(RootPageNum)

	oldRoot.InitializeInternal()
	oldRoot.SetIsRoot(true)
	oldRoot.SetInternalNumKeys(1)
	oldRoot.SetInternalCellChild(0, leftPageNum)
	oldRoot.SetInternalCellKey(0, leftPage.MaxKey(RowSize))
	oldRoot.SetInternalRightChild(rightPageNum)
	return nil
}

// internalNodeInsert splices a new child (whose max key is cmk) into
// parent, becoming the new right child if cmk exceeds the current
// right child's max, else inserted in sorted position among the
// existing separators.
func (t *BTree) internalNodeInsert(parentPageNum, childPageNum uint32) error {
	parentPage, err := t.pager.GetPage(parentPageNum)
	if err != nil {
		return err
	}
	childPage, err := t.pager.GetPage(childPageNum)
	if err != nil {
		return err
	}
	cmk := childPage.MaxKey(RowSize)
	pos := internalFindChildIndex(parentPage, cmk)

	if parentPage.InternalNumKeys() >= InternalMaxCells {
		t.log.Errorw("internal node full, cannot split", "parent", parentPageNum)
		return ErrNeedInternalSplit
	}

	rightChildPage, err := t.pager.GetPage(parentPage.InternalRightChild())
	if err != nil {
		return err
	}
	rightChildMax := rightChildPage.MaxKey(RowSize)

	originalNumKeys := parentPage.InternalNumKeys()
	parentPage.SetInternalNumKeys(originalNumKeys + 1)

	if cmk > rightChildMax {
		parentPage.SetInternalCellChild(int(originalNumKeys), parentPage.InternalRightChild())
		parentPage.SetInternalCellKey(int(originalNumKeys), rightChildMax)
		parentPage.SetInternalRightChild(childPageNum)
	} else {
		for i := int(originalNumKeys); i > pos; i-- {
			parentPage.CopyInternalCell(i, i-1)
		}
		parentPage.SetInternalCellChild(pos, childPageNum)
		parentPage.SetInternalCellKey(pos, cmk)
	}
	childPage.SetParentPageNum(parentPageNum)
	return nil
}

// updateInternalNodeKey refreshes the separator in parent that used to
// equal oldKey (the pre-split maximum of a child that has since
// split) to newKey (that child's maximum after the split).
func (t *BTree) updateInternalNodeKey(parentPageNum uint32, oldKey, newKey uint32) error {
	parentPage, err := t.pager.GetPage(parentPageNum)
	if err != nil {
		return err
	}
	idx := internalFindChildIndex(parentPage, oldKey)
	parentPage.SetInternalCellKey(idx, newKey)
	return nil
}
