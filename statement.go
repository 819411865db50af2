package main

import (
	"math"
	"strconv"
	"strings"

	"btdb/btree"
	"btdb/table"
)

// MetaCommandResult reports the outcome of dispatching a "."-prefixed
// line.
type MetaCommandResult int

const (
	MetaCommandSuccess MetaCommandResult = iota
	MetaCommandExit
	MetaCommandUnrecognized
)

// PrepareResult reports the outcome of parsing a non-meta line into a
// Statement.
type PrepareResult int

const (
	PrepareSuccess PrepareResult = iota
	PrepareUnrecognizedStatement
	PrepareSyntaxError
	PrepareStringTooLong
	PrepareNegativeID
)

// doMetaCommand dispatches a line starting with '.'.
func doMetaCommand(line string) MetaCommandResult {
	switch line {
	case ".exit":
		return MetaCommandExit
	case ".btree":
		return MetaCommandSuccess
	default:
		return MetaCommandUnrecognized
	}
}

// prepareStatement tokenizes line into a Statement. Recognized
// keywords are "insert" and "select"; insert additionally validates
// its three arguments per the fixed row schema.
func prepareStatement(line string, stmt *table.Statement) PrepareResult {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return PrepareUnrecognizedStatement
	}

	switch fields[0] {
	case "insert":
		return prepareInsert(fields, stmt)
	case "select":
		stmt.Type = table.StatementSelect
		return PrepareSuccess
	default:
		return PrepareUnrecognizedStatement
	}
}

func prepareInsert(fields []string, stmt *table.Statement) PrepareResult {
	stmt.Type = table.StatementInsert
	if len(fields) != 4 {
		return PrepareSyntaxError
	}
	idStr, username, email := fields[1], fields[2], fields[3]

	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		return PrepareSyntaxError
	}
	if id < 0 {
		return PrepareNegativeID
	}
	if id > math.MaxUint32 {
		return PrepareSyntaxError
	}
	if len(username) > btree.UsernameMaxLen || len(email) > btree.EmailMaxLen {
		return PrepareStringTooLong
	}

	stmt.RowToInsert = btree.Row{ID: uint32(id), Username: username, Email: email}
	return PrepareSuccess
}
