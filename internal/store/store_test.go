package store

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
)

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	// Verify file was created
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestOpen_OpensExistingDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	// Create database
	s1, err := Open(path)
	if err != nil {
		t.Fatalf("first Open() failed: %v", err)
	}
	s1.Close()

	// Reopen database
	s2, err := Open(path)
	if err != nil {
		t.Fatalf("second Open() failed: %v", err)
	}
	defer s2.Close()

	// Verify we can query it
	var count int
	err = s2.db.QueryRow("SELECT COUNT(*) FROM transactions").Scan(&count)
	if err != nil {
		t.Errorf("query failed: %v", err)
	}
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	// Open multiple times
	for i := 0; i < 3; i++ {
		s, err := Open(path)
		if err != nil {
			t.Fatalf("Open() iteration %d failed: %v", i, err)
		}
		s.Close()
	}

	// Final open should work
	s, err := Open(path)
	if err != nil {
		t.Fatalf("final Open() failed: %v", err)
	}
	defer s.Close()

	// Verify schema is intact
	tables := []string{"transactions", "action_traces"}
	for _, table := range tables {
		var name string
		err := s.db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?",
			table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %q not found after idempotent opens: %v", table, err)
		}
	}
}

func TestOpen_InvalidPath(t *testing.T) {
	// Try to open in non-existent directory
	path := "/nonexistent/dir/test.db"

	_, err := Open(path)
	if err == nil {
		t.Error("expected error for invalid path, got nil")
	}
}

func TestClose_NilDB(t *testing.T) {
	s := &Store{db: nil}
	err := s.Close()
	if err != nil {
		t.Errorf("Close() on nil db should not error: %v", err)
	}
}

func TestClose_MultipleCalls(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}

	// First close should succeed
	if err := s.Close(); err != nil {
		t.Errorf("first Close() failed: %v", err)
	}

	// Second close should not panic (though may error)
	// We just verify it doesn't panic
	_ = s.Close()
}

// Pragma tests

func TestPragma_JournalMode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	if err := s.verifyPragma("journal_mode", "wal"); err != nil {
		t.Error(err)
	}
}

func TestPragma_Synchronous(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	// NORMAL = 1
	if err := s.verifyPragma("synchronous", "1"); err != nil {
		t.Error(err)
	}
}

func TestPragma_BusyTimeout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	if err := s.verifyPragma("busy_timeout", "5000"); err != nil {
		t.Error(err)
	}
}

func TestPragma_ForeignKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	// ON = 1
	if err := s.verifyPragma("foreign_keys", "1"); err != nil {
		t.Error(err)
	}
}

// Schema table tests

func TestSchema_TransactionsTable(t *testing.T) {
	s := createTestStore(t)

	columns := getTableColumns(t, s.db, "transactions")

	expected := []string{
		"id", "seq", "tx_hash", "status", "error", "console", "packed", "created_at_us",
	}

	for _, col := range expected {
		if !contains(columns, col) {
			t.Errorf("transactions table missing column %q", col)
		}
	}
}

func TestSchema_ActionTracesTable(t *testing.T) {
	s := createTestStore(t)

	columns := getTableColumns(t, s.db, "action_traces")

	expected := []string{
		"id", "transaction_id", "execution_order", "action_ordinal", "contract",
		"action", "first_receiver", "sender", "is_inline", "is_notification",
		"authorization", "data_hex", "console",
	}

	for _, col := range expected {
		if !contains(columns, col) {
			t.Errorf("action_traces table missing column %q", col)
		}
	}
}

func TestSchema_ActionTracesIndexes(t *testing.T) {
	s := createTestStore(t)

	indexes := getTableIndexes(t, s.db, "action_traces")
	if !contains(indexes, "idx_action_traces_contract_action") {
		t.Errorf("action_traces missing idx_action_traces_contract_action, got %v", indexes)
	}
}

// Constraint tests

func TestConstraint_StatusCheck(t *testing.T) {
	s := createTestStore(t)

	_, err := s.db.Exec(`
		INSERT INTO transactions (id, seq, tx_hash, status, packed, created_at_us)
		VALUES ('tx-1', 1, 'h', 'pending', x'', 0)
	`)
	if err == nil {
		t.Error("expected CHECK violation for unknown status")
	}
}

func TestConstraint_SeqUnique(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	if err := s.WriteTransaction(ctx, testTransaction("tx-1", 1)); err != nil {
		t.Fatalf("WriteTransaction() failed: %v", err)
	}
	if err := s.WriteTransaction(ctx, testTransaction("tx-2", 1)); err == nil {
		t.Error("expected UNIQUE violation for duplicate seq")
	}
}

func TestConstraint_ForeignKeyTraceToTransaction(t *testing.T) {
	s := createTestStore(t)

	err := s.WriteActionTrace(context.Background(), testTrace("missing", 0, "alice", "hi"))
	if err == nil {
		t.Error("expected foreign key violation for unknown transaction_id")
	}
}

func TestConstraint_TraceUniqueExecutionOrder(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	if err := s.WriteTransaction(ctx, testTransaction("tx-1", 1)); err != nil {
		t.Fatalf("WriteTransaction() failed: %v", err)
	}
	if err := s.WriteActionTrace(ctx, testTrace("tx-1", 0, "alice", "first")); err != nil {
		t.Fatalf("first WriteActionTrace() failed: %v", err)
	}
	// Same (transaction, execution order): silently ignored.
	if err := s.WriteActionTrace(ctx, testTrace("tx-1", 0, "bob", "second")); err != nil {
		t.Fatalf("second WriteActionTrace() failed: %v", err)
	}

	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM action_traces").Scan(&count); err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Errorf("action_traces count = %d, want 1", count)
	}

	var console string
	if err := s.db.QueryRow("SELECT console FROM action_traces").Scan(&console); err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if console != "first" {
		t.Errorf("console = %q, want the first write to win", console)
	}
}

// Migration tests

func TestMigration_SchemaVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	// Verify user_version is set to currentSchemaVersion
	var version int
	err = s.db.QueryRow("PRAGMA user_version").Scan(&version)
	if err != nil {
		t.Fatalf("failed to get user_version: %v", err)
	}

	if version != currentSchemaVersion {
		t.Errorf("user_version = %d, want %d", version, currentSchemaVersion)
	}
}

func TestMigration_IdempotentUpgrade(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	// Open and close multiple times - migrations should be idempotent
	for i := 0; i < 3; i++ {
		s, err := Open(path)
		if err != nil {
			t.Fatalf("Open() iteration %d failed: %v", i, err)
		}

		// Verify version is correct each time
		var version int
		err = s.db.QueryRow("PRAGMA user_version").Scan(&version)
		if err != nil {
			t.Fatalf("failed to get user_version: %v", err)
		}

		if version != currentSchemaVersion {
			t.Errorf("iteration %d: user_version = %d, want %d", i, version, currentSchemaVersion)
		}

		s.Close()
	}
}

func TestMigration_UpgradeFromV0(t *testing.T) {
	// Simulate a pre-migration database (version 0)
	path := filepath.Join(t.TempDir(), "test.db")

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}

	// Apply schema but NOT migrations (simulates pre-migration state)
	if _, err := db.Exec(schemaSQL); err != nil {
		t.Fatalf("failed to apply schema: %v", err)
	}
	if _, err := db.Exec("PRAGMA user_version = 0"); err != nil {
		t.Fatalf("failed to set user_version: %v", err)
	}
	if indexes := getTableIndexes(t, db, "action_traces"); contains(indexes, "idx_action_traces_contract_action") {
		t.Fatalf("lookup index present before migration: %v", indexes)
	}
	db.Close()

	// Now open through our normal path - should trigger migration
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	var version int
	err = s.db.QueryRow("PRAGMA user_version").Scan(&version)
	if err != nil {
		t.Fatalf("failed to get user_version: %v", err)
	}
	if version != currentSchemaVersion {
		t.Errorf("user_version = %d, want %d after migration", version, currentSchemaVersion)
	}

	indexes := getTableIndexes(t, s.db, "action_traces")
	if !contains(indexes, "idx_action_traces_contract_action") {
		t.Errorf("expected idx_action_traces_contract_action after migration, got indexes: %v", indexes)
	}
}

func TestMigration_AddsPackedColumn(t *testing.T) {
	// A log written before transactions carried their packed form.
	path := filepath.Join(t.TempDir(), "test.db")
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	if _, err := db.Exec(`
		CREATE TABLE transactions (
			id            TEXT PRIMARY KEY,
			seq           INTEGER NOT NULL UNIQUE,
			tx_hash       TEXT NOT NULL,
			status        TEXT NOT NULL CHECK (status IN ('executed', 'failed')),
			error         TEXT NOT NULL DEFAULT '',
			console       TEXT NOT NULL DEFAULT '',
			created_at_us INTEGER NOT NULL
		);
		INSERT INTO transactions (id, seq, tx_hash, status, created_at_us)
		VALUES ('old', 1, 'hash-old', 'executed', 0);
		PRAGMA user_version = 1;
	`); err != nil {
		t.Fatalf("failed to create legacy log: %v", err)
	}
	db.Close()

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	if cols := getTableColumns(t, s.db, "transactions"); !contains(cols, "packed") {
		t.Fatalf("expected packed column after migration, got %v", cols)
	}
	var version int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		t.Fatalf("failed to get user_version: %v", err)
	}
	if version != currentSchemaVersion {
		t.Errorf("user_version = %d, want %d", version, currentSchemaVersion)
	}

	rec, err := s.ReadTransaction(context.Background(), "old")
	if err != nil {
		t.Fatalf("ReadTransaction() failed: %v", err)
	}
	if len(rec.Packed) != 0 {
		t.Errorf("legacy row packed = %x, want empty", rec.Packed)
	}

	// New rows carry their packed form.
	if err := s.WriteTransaction(context.Background(), testTransaction("new", 2)); err != nil {
		t.Fatalf("WriteTransaction() failed: %v", err)
	}
}

// Helper functions

func getTableColumns(t *testing.T, db *sql.DB, table string) []string {
	t.Helper()

	rows, err := db.Query("PRAGMA table_info(" + table + ")")
	if err != nil {
		t.Fatalf("failed to get table info for %q: %v", table, err)
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var cid int
		var name, ctype string
		var notnull, pk int
		var dfltValue interface{}
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dfltValue, &pk); err != nil {
			t.Fatalf("failed to scan column info: %v", err)
		}
		columns = append(columns, name)
	}
	return columns
}

func getTableIndexes(t *testing.T, db *sql.DB, table string) []string {
	t.Helper()

	rows, err := db.Query("SELECT name FROM sqlite_master WHERE type='index' AND tbl_name=?", table)
	if err != nil {
		t.Fatalf("failed to get indexes for %q: %v", table, err)
	}
	defer rows.Close()

	var indexes []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			t.Fatalf("failed to scan index name: %v", err)
		}
		indexes = append(indexes, name)
	}
	return indexes
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
