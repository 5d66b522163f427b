// Package main applies or rolls back the catalog schema migrations.
//
// Usage:
//
//	migrate up
//	migrate down
//	migrate steps -n 1
//	migrate version
//	migrate force -v 3
package main

import (
	"database/sql"
	"flag"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/lib/pq"

	"github.com/santinisystems/catalog/internal/migration"
)

func main() {
	fs := flag.NewFlagSet("migrate", flag.ExitOnError)
	databaseURL := fs.String("database-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection string")
	steps := fs.Int("n", 1, "number of steps for the steps command (negative rolls back)")
	version := fs.Int("v", -1, "version for the force command")

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	command := os.Args[1]
	if err := fs.Parse(os.Args[2:]); err != nil {
		os.Exit(2)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	if *databaseURL == "" {
		logger.Error("DATABASE_URL is required")
		os.Exit(1)
	}

	db, err := sql.Open("postgres", *databaseURL)
	if err != nil {
		logger.Error("open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	m, err := migration.NewWithDB(db, logger)
	if err != nil {
		logger.Error("init migrator", "error", err)
		os.Exit(1)
	}
	defer m.Close()

	if err := run(m, command, *steps, *version); err != nil {
		logger.Error("migration failed", "command", command, "error", err)
		os.Exit(1)
	}
}

func run(m *migration.Migrator, command string, steps, version int) error {
	switch command {
	case "up":
		return m.Up()
	case "down":
		return m.Down()
	case "steps":
		return m.Steps(steps)
	case "version":
		v, dirty, err := m.Version()
		if err != nil {
			return err
		}
		fmt.Printf("version=%d dirty=%t\n", v, dirty)
		return nil
	case "force":
		if version < 0 {
			return fmt.Errorf("force requires -v")
		}
		return m.Force(version)
	default:
		usage()
		return fmt.Errorf("unknown command %q", command)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: migrate <up|down|steps|version|force> [-database-url URL] [-n N] [-v V]")
}
