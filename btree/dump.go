package btree

import (
	"fmt"
	"io"
	"strings"

	"btdb/pager"
)

// Dump writes a pre-order, indented dump of the tree to w, in the
// format the REPL's .btree meta-command prints.
func (t *BTree) Dump(w io.Writer) error {
	return t.dumpNode(w, RootPageNum, 0)
}

func (t *BTree) dumpNode(w io.Writer, pageNum uint32, indent int) error {
	page, err := t.pager.GetPage(pageNum)
	if err != nil {
		return err
	}
	pad := strings.Repeat("  ", indent)

	if page.NodeType() == pager.NodeLeaf {
		numCells := page.LeafNumCells()
		fmt.Fprintf(w, "%s- leaf (size %d)\n", pad, numCells)
		for i := 0; i < int(numCells); i++ {
			fmt.Fprintf(w, "%s  - %d\n", pad, page.LeafCellKey(i, RowSize))
		}
		return nil
	}

	numKeys := page.InternalNumKeys()
	fmt.Fprintf(w, "%s- internal (size %d)\n", pad, numKeys)
	for i := 0; i < int(numKeys); i++ {
		if err := t.dumpNode(w, page.InternalCellChild(i), indent+1); err != nil {
			return err
		}
		fmt.Fprintf(w, "%s  - key %d\n", pad, page.InternalCellKey(i))
	}
	return t.dumpNode(w, page.InternalRightChild(), indent+1)
}
