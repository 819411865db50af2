package btree

// Cursor is a positioned iterator over the leaf cells of a BTree, in
// ascending key order. It is invalidated (in the sense that its
// fields become meaningless) by any subsequent Insert; callers should
// not retain a Cursor across a mutation.
type Cursor struct {
	tree       *BTree
	pageNum    uint32
	cellNum    uint32
	endOfTable bool
}

// TableStart returns a cursor positioned at the smallest key in the
// tree. find(0) always descends to the leftmost leaf, so this lands
// correctly even though cell 0 of that leaf may not literally hold
// key 0.
func (t *BTree) TableStart() (*Cursor, error) {
	return t.Find(0)
}

// End reports whether the cursor has advanced past the last row.
func (c *Cursor) End() bool { return c.endOfTable }

// Value deserializes the row at the cursor's current position. The
// caller must check End() first.
func (c *Cursor) Value() (Row, error) {
	page, err := c.tree.pager.GetPage(c.pageNum)
	if err != nil {
		return Row{}, err
	}
	return DeserializeRow(page.LeafCellValue(int(c.cellNum), RowSize))
}

// Key returns the key at the cursor's current position. The caller
// must check End() first.
func (c *Cursor) Key() (uint32, error) {
	page, err := c.tree.pager.GetPage(c.pageNum)
	if err != nil {
		return 0, err
	}
	return page.LeafCellKey(int(c.cellNum), RowSize), nil
}

// Advance moves the cursor to the next cell in key order, following
// the leaf sibling chain across page boundaries.
func (c *Cursor) Advance() error {
	page, err := c.tree.pager.GetPage(c.pageNum)
	if err != nil {
		return err
	}
	c.cellNum++
	if c.cellNum < page.LeafNumCells() {
		return nil
	}
	next := page.LeafNextLeaf()
	if next == 0 {
		c.endOfTable = true
		return nil
	}
	c.pageNum = next
	c.cellNum = 0
	nextPage, err := c.tree.pager.GetPage(next)
	if err != nil {
		return err
	}
	c.endOfTable = nextPage.LeafNumCells() == 0
	return nil
}
