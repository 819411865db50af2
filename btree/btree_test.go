package btree

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"testing"

	"btdb/pager"

	"github.com/stretchr/testify/require"
)

func newTempTree(t *testing.T) *BTree {
	f, err := os.CreateTemp("", "btree_test_*.db")
	require.NoError(t, err)
	require.NoError(t, f.Close())
	t.Cleanup(func() { os.Remove(f.Name()) })

	p, err := pager.Open(f.Name(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { p.Close() })

	bt, err := Open(p, nil)
	require.NoError(t, err)
	return bt
}

func collectKeys(t *testing.T, bt *BTree) []uint32 {
	cur, err := bt.TableStart()
	require.NoError(t, err)
	var got []uint32
	for !cur.End() {
		k, err := cur.Key()
		require.NoError(t, err)
		got = append(got, k)
		require.NoError(t, cur.Advance())
	}
	return got
}

func TestInsertAndFindSingle(t *testing.T) {
	bt := newTempTree(t)
	require.NoError(t, bt.Insert(1, Row{ID: 1, Username: "user1", Email: "p1@e.com"}))

	cur, err := bt.Find(1)
	require.NoError(t, err)
	require.False(t, cur.End())
	row, err := cur.Value()
	require.NoError(t, err)
	require.Equal(t, Row{ID: 1, Username: "user1", Email: "p1@e.com"}, row)
}

func TestInsertDuplicateKeyFails(t *testing.T) {
	bt := newTempTree(t)
	require.NoError(t, bt.Insert(1, Row{ID: 1, Username: "a", Email: "a"}))
	err := bt.Insert(1, Row{ID: 1, Username: "b", Email: "b"})
	require.ErrorIs(t, err, ErrDuplicateKey)
}

func TestCursorOrdersDescendingInserts(t *testing.T) {
	bt := newTempTree(t)
	maxCells := int(pager.LeafMaxCells(RowSize))
	n := maxCells + 2
	for i := n; i >= 1; i-- {
		require.NoError(t, bt.Insert(uint32(i), Row{ID: uint32(i), Username: fmt.Sprintf("u%d", i), Email: "e"}))
	}

	got := collectKeys(t, bt)
	require.Len(t, got, n)
	for i, k := range got {
		require.EqualValues(t, i+1, k)
	}
}

func TestLeafSplitKeepsExactFanoutBeforeSplitting(t *testing.T) {
	bt := newTempTree(t)
	maxCells := int(pager.LeafMaxCells(RowSize))
	for i := 0; i < maxCells; i++ {
		require.NoError(t, bt.Insert(uint32(i), Row{ID: uint32(i), Username: "u", Email: "e"}))
	}
	root, err := bt.pager.GetPage(RootPageNum)
	require.NoError(t, err)
	require.Equal(t, pager.NodeLeaf, root.NodeType())
	require.EqualValues(t, maxCells, root.LeafNumCells())

	// One more insert must split: root becomes internal.
	require.NoError(t, bt.Insert(uint32(maxCells), Row{ID: uint32(maxCells), Username: "u", Email: "e"}))
	root, err = bt.pager.GetPage(RootPageNum)
	require.NoError(t, err)
	require.Equal(t, pager.NodeInternal, root.NodeType())
	require.EqualValues(t, 1, root.InternalNumKeys())

	left := (maxCells + 2) / 2
	right := (maxCells + 1) - left

	leftChild, err := bt.pager.GetPage(root.InternalCellChild(0))
	require.NoError(t, err)
	rightChild, err := bt.pager.GetPage(root.InternalRightChild())
	require.NoError(t, err)
	require.EqualValues(t, left, leftChild.LeafNumCells())
	require.EqualValues(t, right, rightChild.LeafNumCells())

	got := collectKeys(t, bt)
	require.Len(t, got, maxCells+1)
	for i, k := range got {
		require.EqualValues(t, i, k)
	}
}

func TestDumpAfterSplitShowsInternalRoot(t *testing.T) {
	bt := newTempTree(t)
	maxCells := int(pager.LeafMaxCells(RowSize))
	for i := maxCells; i >= 0; i-- {
		require.NoError(t, bt.Insert(uint32(i), Row{ID: uint32(i), Username: "u", Email: "e"}))
	}

	var buf bytes.Buffer
	require.NoError(t, bt.Dump(&buf))
	require.Contains(t, buf.String(), "- internal (size 1)")
}

func TestInternalSplitOverflowIsFatal(t *testing.T) {
	bt := newTempTree(t)
	maxCells := int(pager.LeafMaxCells(RowSize))

	// Force enough leaf splits to fill the root's InternalMaxCells
	// separators, then push it one further to hit the fatal path.
	key := uint32(0)
	var lastErr error
	for n := 0; n < (maxCells+1)*(InternalMaxCells+2); n++ {
		lastErr = bt.Insert(key, Row{ID: key, Username: "u", Email: "e"})
		if errors.Is(lastErr, ErrNeedInternalSplit) {
			break
		}
		key++
	}
	require.ErrorIs(t, lastErr, ErrNeedInternalSplit)
}
