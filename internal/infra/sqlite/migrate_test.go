package sqlite_test

import (
	"database/sql"
	"testing"

	"presetchat/internal/infra/sqlite"
)

func assertTableExists(t *testing.T, db *sql.DB, table string) {
	t.Helper()
	var name string
	row := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table)
	if err := row.Scan(&name); err != nil {
		t.Fatalf("table %q does not exist: %v", table, err)
	}
}

func TestMigrate_RunsAllMigrations(t *testing.T) {
	t.Parallel()

	db := mustOpenDB(t)

	if err := sqlite.MigrateUp(db); err != nil {
		t.Fatalf("MigrateUp() error = %v; want nil", err)
	}

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count); err != nil {
		t.Fatalf("SELECT COUNT(*) FROM schema_migrations error = %v", err)
	}
	if count == 0 {
		t.Error("schema_migrations has 0 rows after MigrateUp; want > 0")
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	t.Parallel()

	db := mustOpenDB(t)

	if err := sqlite.MigrateUp(db); err != nil {
		t.Fatalf("MigrateUp() first run error = %v; want nil", err)
	}
	if err := sqlite.MigrateUp(db); err != nil {
		t.Fatalf("MigrateUp() second run error = %v; want nil (idempotent)", err)
	}
}

func TestMigrate_SchemaTables(t *testing.T) {
	t.Parallel()

	db := mustOpenDB(t)
	if err := sqlite.MigrateUp(db); err != nil {
		t.Fatalf("MigrateUp() error = %v", err)
	}

	assertTableExists(t, db, "preset")
	assertTableExists(t, db, "app_state")
	assertTableExists(t, db, "history")
}

func TestMigrationVersion(t *testing.T) {
	t.Parallel()

	db := mustOpenDB(t)

	v, err := sqlite.MigrationVersion(db)
	if err != nil {
		t.Fatalf("MigrationVersion() before migrate error = %v", err)
	}
	if v != 0 {
		t.Errorf("version before migrate = %d; want 0", v)
	}

	if err := sqlite.MigrateUp(db); err != nil {
		t.Fatalf("MigrateUp() error = %v", err)
	}

	v, err = sqlite.MigrationVersion(db)
	if err != nil {
		t.Fatalf("MigrationVersion() after migrate error = %v", err)
	}
	if v < 1 {
		t.Errorf("version after migrate = %d; want >= 1", v)
	}
}
