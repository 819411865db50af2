package btree

import "btdb/pager"

// leafFindIndex returns the index of the leftmost cell in page whose
// key is >= key, or page.LeafNumCells() if every key is smaller. Page
// must be a leaf.
func leafFindIndex(page *pager.Page, key uint32) int {
	lo, hi := 0, int(page.LeafNumCells())
	for lo < hi {
		mid := (lo + hi) / 2
		k := page.LeafCellKey(mid, RowSize)
		if k == key {
			return mid
		}
		if k > key {
			hi = mid
		} else {
			lo = mid + 1
		}
	}
	return lo
}

// internalFindChildIndex returns the index in [0, numKeys] of the
// child subtree that may contain key: the leftmost separator that is
// >= key, or numKeys (meaning "descend into the right child") if key
// is greater than every separator. Page must be an internal node.
func internalFindChildIndex(page *pager.Page, key uint32) int {
	lo, hi := 0, int(page.InternalNumKeys())
	for lo < hi {
		mid := (lo + hi) / 2
		sep := page.InternalCellKey(mid)
		if key <= sep {
			hi = mid
		} else {
			lo = mid + 1
		}
	}
	return lo
}

// internalChildPage resolves the index returned by
// internalFindChildIndex to an actual child page number.
func internalChildPage(page *pager.Page, idx int) uint32 {
	if idx < int(page.InternalNumKeys()) {
		return page.InternalCellChild(idx)
	}
	return page.InternalRightChild()
}
