// Package database opens the SQLite file that stores probe event history
// and the configuration audit trail, and applies versioned schema migrations to it.
//
// Connections use WAL mode and a busy timeout so the telemetry writer and
// API readers can share the file. Migrations are read from an fs.FS,
// normally the embedded migrations package:
//
//	db, err := database.Open(database.Config{Path: cfg.Database.Path, WALMode: true})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if _, err := db.Migrate(ctx, migrations.FS); err != nil {
//	    return err
//	}
package database
