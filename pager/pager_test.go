package pager

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func tempPath(t *testing.T) string {
	f, err := os.CreateTemp("", "pager_test_*.db")
	require.NoError(t, err)
	require.NoError(t, f.Close())
	t.Cleanup(func() { os.Remove(f.Name()) })
	return f.Name()
}

func TestOpenEmptyFile(t *testing.T) {
	p, err := Open(tempPath(t), nil)
	require.NoError(t, err)
	defer p.Close()

	require.EqualValues(t, 0, p.NumPages())
}

func TestOpenRejectsCorruptLength(t *testing.T) {
	path := tempPath(t)
	require.NoError(t, os.WriteFile(path, make([]byte, PageSize+17), 0600))

	_, err := Open(path, nil)
	require.ErrorIs(t, err, ErrCorruptFile)
}

func TestGetPageOutOfBounds(t *testing.T) {
	p, err := Open(tempPath(t), nil)
	require.NoError(t, err)
	defer p.Close()

	_, err = p.GetPage(MaxPages)
	require.ErrorIs(t, err, ErrPageOutOfBounds)
}

func TestGetPageZeroFillsPastEOF(t *testing.T) {
	p, err := Open(tempPath(t), nil)
	require.NoError(t, err)
	defer p.Close()

	page, err := p.GetPage(0)
	require.NoError(t, err)
	for _, b := range page.Data {
		require.Zero(t, b)
	}
	require.EqualValues(t, 1, p.NumPages())
}

func TestAllocateFlushReopenRoundTrips(t *testing.T) {
	path := tempPath(t)
	p, err := Open(path, nil)
	require.NoError(t, err)

	pgNum := p.AllocatePage()
	require.EqualValues(t, 0, pgNum)
	page, err := p.GetPage(pgNum)
	require.NoError(t, err)
	page.InitializeLeaf()
	page.Data[100] = 0xAB
	require.NoError(t, p.Flush(pgNum))
	require.NoError(t, p.file.Close())

	p2, err := Open(path, nil)
	require.NoError(t, err)
	defer p2.Close()
	require.EqualValues(t, 1, p2.NumPages())

	reloaded, err := p2.GetPage(0)
	require.NoError(t, err)
	require.Equal(t, NodeLeaf, reloaded.NodeType())
	require.EqualValues(t, 0xAB, reloaded.Data[100])
}

func TestCloseFlushesResidentPages(t *testing.T) {
	path := tempPath(t)
	p, err := Open(path, nil)
	require.NoError(t, err)

	page, err := p.GetPage(0)
	require.NoError(t, err)
	page.InitializeLeaf()
	require.NoError(t, p.Close())

	fi, err := os.Stat(path)
	require.NoError(t, err)
	require.EqualValues(t, PageSize, fi.Size())
	require.Zero(t, fi.Size()%PageSize)
}
