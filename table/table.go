// Package table implements the executor and lifecycle boundary the
// REPL talks to: opening and closing a table file, and running the
// two statements this schema supports against the underlying B+tree.
package table

import (
	"fmt"
	"io"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"btdb/btree"
	"btdb/pager"
)

// Table owns the pager and the B+tree built over it for one database
// file.
type Table struct {
	pager *pager.Pager
	tree  *btree.BTree
}

// Open opens (creating if necessary) the database file at path. If the
// file is new, page 0 is initialized as an empty root leaf.
func Open(path string, log *zap.SugaredLogger) (*Table, error) {
	p, err := pager.Open(path, log)
	if err != nil {
		return nil, errors.Wrap(err, "table: open")
	}
	tree, err := btree.Open(p, log)
	if err != nil {
		return nil, errors.Wrap(err, "table: init tree")
	}
	return &Table{pager: p, tree: tree}, nil
}

// Close flushes every resident page and releases the file descriptor.
func (t *Table) Close() error {
	return t.pager.Close()
}

// StatementType distinguishes the two statements this schema supports.
type StatementType int

const (
	StatementInsert StatementType = iota
	StatementSelect
)

// Statement is what the REPL's parser hands to the executor.
type Statement struct {
	Type        StatementType
	RowToInsert btree.Row
}

// ExecuteResult reports the outcome of a successfully parsed
// statement.
type ExecuteResult int

const (
	ExecuteSuccess ExecuteResult = iota
	ExecuteDuplicateKey
)

// ExecuteInsert inserts stmt.RowToInsert, keyed by its ID.
func (t *Table) ExecuteInsert(stmt Statement) (ExecuteResult, error) {
	row := stmt.RowToInsert
	if err := t.tree.Insert(row.ID, row); err != nil {
		if errors.Is(err, btree.ErrDuplicateKey) {
			return ExecuteDuplicateKey, nil
		}
		return 0, errors.Wrap(err, "table: insert")
	}
	return ExecuteSuccess, nil
}

// ExecuteSelect walks the table in ascending key order, writing each
// row to w as "(<id>, <username>, <email>)".
func (t *Table) ExecuteSelect(w io.Writer) error {
	cur, err := t.tree.TableStart()
	if err != nil {
		return errors.Wrap(err, "table: select")
	}
	for !cur.End() {
		row, err := cur.Value()
		if err != nil {
			return errors.Wrap(err, "table: select")
		}
		fmt.Fprintf(w, "(%d, %s, %s)\n", row.ID, row.Username, row.Email)
		if err := cur.Advance(); err != nil {
			return errors.Wrap(err, "table: select")
		}
	}
	return nil
}

// DumpTree writes the .btree pre-order dump to w.
func (t *Table) DumpTree(w io.Writer) error {
	return t.tree.Dump(w)
}
