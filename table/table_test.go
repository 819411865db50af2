package table

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"btdb/btree"
)

func tempDBPath(t *testing.T) string {
	f, err := os.CreateTemp("", "table_test_*.db")
	require.NoError(t, err)
	require.NoError(t, f.Close())
	t.Cleanup(func() { os.Remove(f.Name()) })
	return f.Name()
}

func TestInsertSelectRoundTrip(t *testing.T) {
	path := tempDBPath(t)
	tbl, err := Open(path, nil)
	require.NoError(t, err)

	res, err := tbl.ExecuteInsert(Statement{Type: StatementInsert, RowToInsert: btree.Row{ID: 1, Username: "user1", Email: "p1@e.com"}})
	require.NoError(t, err)
	require.Equal(t, ExecuteSuccess, res)

	var out strings.Builder
	require.NoError(t, tbl.ExecuteSelect(&out))
	require.Equal(t, "(1, user1, p1@e.com)\n", out.String())
	require.NoError(t, tbl.Close())
}

func TestDuplicateInsertReported(t *testing.T) {
	path := tempDBPath(t)
	tbl, err := Open(path, nil)
	require.NoError(t, err)
	defer tbl.Close()

	row := btree.Row{ID: 1, Username: "a", Email: "a@x"}
	res, err := tbl.ExecuteInsert(Statement{Type: StatementInsert, RowToInsert: row})
	require.NoError(t, err)
	require.Equal(t, ExecuteSuccess, res)

	res, err = tbl.ExecuteInsert(Statement{Type: StatementInsert, RowToInsert: row})
	require.NoError(t, err)
	require.Equal(t, ExecuteDuplicateKey, res)
}

func TestPersistsAcrossReopen(t *testing.T) {
	path := tempDBPath(t)

	tbl, err := Open(path, nil)
	require.NoError(t, err)
	_, err = tbl.ExecuteInsert(Statement{Type: StatementInsert, RowToInsert: btree.Row{ID: 1, Username: "u", Email: "u@e"}})
	require.NoError(t, err)
	require.NoError(t, tbl.Close())

	reopened, err := Open(path, nil)
	require.NoError(t, err)
	defer reopened.Close()

	var out strings.Builder
	require.NoError(t, reopened.ExecuteSelect(&out))
	require.Equal(t, "(1, u, u@e)\n", out.String())
}

func TestFileLengthIsPageMultipleAfterClose(t *testing.T) {
	path := tempDBPath(t)
	tbl, err := Open(path, nil)
	require.NoError(t, err)
	// 30 ascending keys force four leaf splits; a fifth (at key 34) would
	// overflow the root's InternalMaxCells separators.
	for i := uint32(0); i < 30; i++ {
		_, err := tbl.ExecuteInsert(Statement{Type: StatementInsert, RowToInsert: btree.Row{ID: i, Username: "u", Email: "e"}})
		require.NoError(t, err)
	}
	require.NoError(t, tbl.Close())

	fi, err := os.Stat(path)
	require.NoError(t, err)
	require.Zero(t, fi.Size()%4096)
}
