// Package database provides the SQLite store behind the module inventory.
//
// It opens the database file with WAL mode and a busy timeout, limits the
// pool to a single writer, and applies the embedded schema migrations.
//
// Usage:
//
//	db, err := database.Open(database.Config{Path: cfg.Database.Path, WALMode: true})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    return err
//	}
//
// Migrations are pairs of YYYYMMDD_HHMMSS_description.up.sql and
// .down.sql files registered through MigrationsFS, normally by importing
// the migrations package for its side effect.
package database
