package database

import (
	"context"
	"testing"
	"testing/fstest"

	"github.com/nerrad567/novaprops-core/migrations"
)

func testMigrations() fstest.MapFS {
	return fstest.MapFS{
		"20260101_000000_widgets.up.sql":   {Data: []byte("CREATE TABLE widgets (id INTEGER PRIMARY KEY);")},
		"20260101_000000_widgets.down.sql": {Data: []byte("DROP TABLE widgets;")},
		"20260102_000000_gears.up.sql":     {Data: []byte("CREATE TABLE gears (id INTEGER PRIMARY KEY);")},
		"README.md":                        {Data: []byte("ignored")},
		"20260103_000000_orphan.down.sql":  {Data: []byte("SELECT 1;")},
	}
}

func tableExists(t *testing.T, db *DB, name string) bool {
	t.Helper()
	var n int
	err := db.QueryRowContext(context.Background(),
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", name).Scan(&n)
	if err != nil {
		t.Fatalf("sqlite_master: %v", err)
	}
	return n == 1
}

func TestMigrate(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	fsys := testMigrations()

	n, err := db.Migrate(ctx, fsys)
	if err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	if n != 2 {
		t.Errorf("Migrate() applied %d, want 2", n)
	}
	if !tableExists(t, db, "widgets") || !tableExists(t, db, "gears") {
		t.Error("migrated tables missing")
	}

	n, err = db.Migrate(ctx, fsys)
	if err != nil || n != 0 {
		t.Errorf("second Migrate() = %d, %v; want 0, nil", n, err)
	}

	applied, pending, err := db.MigrationStatus(ctx, fsys)
	if err != nil {
		t.Fatalf("MigrationStatus() error = %v", err)
	}
	if len(applied) != 2 || len(pending) != 0 {
		t.Errorf("status = %d applied, %d pending", len(applied), len(pending))
	}
	if applied[0].AppliedAt.IsZero() {
		t.Error("AppliedAt not recorded")
	}
}

func TestMigrate_BadSQL(t *testing.T) {
	db := openTestDB(t)
	fsys := fstest.MapFS{
		"20260101_000000_good.up.sql": {Data: []byte("CREATE TABLE good (id INTEGER);")},
		"20260102_000000_bad.up.sql":  {Data: []byte("CREATE TABLE (;")},
	}
	n, err := db.Migrate(context.Background(), fsys)
	if err == nil {
		t.Fatal("Migrate() with bad SQL should fail")
	}
	if n != 1 || !tableExists(t, db, "good") {
		t.Errorf("applied = %d; earlier migration should stay committed", n)
	}
}

func TestMigrate_Embedded(t *testing.T) {
	db := openTestDB(t)
	if _, err := db.Migrate(context.Background(), migrations.FS); err != nil {
		t.Fatalf("Migrate(embedded) error = %v", err)
	}
	for _, table := range []string{"probe_events", "audit_logs"} {
		if !tableExists(t, db, table) {
			t.Errorf("%s table missing", table)
		}
	}
}

func TestLoadMigrations(t *testing.T) {
	got, err := LoadMigrations(testMigrations())
	if err != nil {
		t.Fatalf("LoadMigrations() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("LoadMigrations() = %d migrations, want 2", len(got))
	}
	if got[0].Version != "20260101_000000" || got[0].Name != "widgets" || got[0].UpSQL == "" {
		t.Errorf("first migration = %+v", got[0])
	}
	if got[1].Version != "20260102_000000" || got[1].Name != "gears" {
		t.Errorf("second migration = %+v", got[1])
	}

	none, err := LoadMigrations(nil)
	if err != nil || none != nil {
		t.Errorf("LoadMigrations(nil) = %v, %v", none, err)
	}
}

func TestParseMigrationFilename(t *testing.T) {
	tests := []struct {
		file    string
		version string
		name    string
		ok      bool
	}{
		{"20261017_120000_probe_events.up.sql", "20261017_120000", "probe_events", true},
		{"20261017_120000.up.sql", "20261017_120000", "20261017_120000", true},
		{"20261017_120000_probe_events.down.sql", "", "", false},
		{"notes.sql", "", "", false},
		{"20261017_120000_x.up.txt", "", "", false},
		{"single.up.sql", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			version, name, ok := parseMigrationFilename(tt.file)
			if version != tt.version || name != tt.name || ok != tt.ok {
				t.Errorf("parseMigrationFilename(%q) = %q, %q, %v", tt.file, version, name, ok)
			}
		})
	}
}
