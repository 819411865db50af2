// Command btdb is a line-oriented REPL over a single-file, disk-backed
// B+tree table with one fixed schema: (id, username, email).
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"go.uber.org/zap"

	"btdb/btree"
	"btdb/table"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Must supply a database filename.")
		os.Exit(1)
	}
	dbFile := os.Args[1]

	logger, err := zap.NewProduction()
	if err != nil {
		logger = zap.NewNop()
	}
	defer logger.Sync()
	log := logger.Sugar()

	tbl, err := table.Open(dbFile, log)
	if err != nil {
		log.Errorw("failed to open database file", "file", dbFile, "error", err)
		fmt.Println("Unable to open file.")
		os.Exit(1)
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:                 "db > ",
		DisableAutoSaveHistory: true,
	})
	if err != nil {
		log.Errorw("failed to start input loop", "error", err)
		os.Exit(1)
	}
	defer rl.Close()

	runRepl(rl, tbl, log)
}

// runRepl reads lines until '.exit', EOF, or a fatal error, dispatching
// each to the meta-command or statement path.
func runRepl(rl *readline.Instance, tbl *table.Table, log *zap.SugaredLogger) {
	for {
		line, err := rl.Readline()
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, readline.ErrInterrupt) {
				closeCleanly(tbl, log)
				return
			}
			log.Errorw("error reading input", "error", err)
			os.Exit(1)
		}
		line = strings.TrimSpace(line)

		if len(line) > 0 && line[0] == '.' {
			switch doMetaCommand(line) {
			case MetaCommandExit:
				closeCleanly(tbl, log)
				return
			case MetaCommandSuccess:
				if line == ".btree" {
					if err := tbl.DumpTree(os.Stdout); err != nil {
						log.Errorw("failed to dump tree", "error", err)
						os.Exit(1)
					}
				}
				continue
			case MetaCommandUnrecognized:
				fmt.Printf("Unrecognized command '%s'.\n", line)
				continue
			}
		}

		var stmt table.Statement
		switch prepareStatement(line, &stmt) {
		case PrepareSuccess:
		case PrepareUnrecognizedStatement:
			fmt.Printf("Unrecognized keyword at start of '%s'\n", line)
			continue
		case PrepareSyntaxError:
			fmt.Println("Syntax Error. Could not parse query.")
			continue
		case PrepareStringTooLong:
			fmt.Println("String is too long.")
			continue
		case PrepareNegativeID:
			fmt.Println("ID must be positive.")
			continue
		}

		executeStatement(stmt, tbl, log)
	}
}

func executeStatement(stmt table.Statement, tbl *table.Table, log *zap.SugaredLogger) {
	switch stmt.Type {
	case table.StatementInsert:
		result, err := tbl.ExecuteInsert(stmt)
		if err != nil {
			if errors.Is(err, btree.ErrNeedInternalSplit) {
				fmt.Println("Need to implement splitting internal node")
				os.Exit(1)
			}
			log.Errorw("insert failed", "error", err)
			os.Exit(1)
		}
		switch result {
		case table.ExecuteSuccess:
			fmt.Println("Executed.")
		case table.ExecuteDuplicateKey:
			fmt.Println("Error: Duplicate key.")
		}
	case table.StatementSelect:
		if err := tbl.ExecuteSelect(os.Stdout); err != nil {
			log.Errorw("select failed", "error", err)
			os.Exit(1)
		}
		fmt.Println("Executed.")
	}
}

func closeCleanly(tbl *table.Table, log *zap.SugaredLogger) {
	if err := tbl.Close(); err != nil {
		log.Errorw("error closing database file", "error", err)
		os.Exit(1)
	}
	os.Exit(0)
}
