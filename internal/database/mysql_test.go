package database

import (
	"strings"
	"testing"

	"github.com/CosmoTheDev/ctrlreport/internal/config"
)

func TestMySQLAdaptRewritesMigrations(t *testing.T) {
	data, err := migrationsFS.ReadFile("migrations/001_reports.sql")
	if err != nil {
		t.Fatalf("read migration: %v", err)
	}
	ddl := mysqlAdapt(string(data))
	if strings.Contains(ddl, "AUTOINCREMENT") {
		t.Fatalf("AUTOINCREMENT left in adapted DDL:\n%s", ddl)
	}
	if !strings.Contains(ddl, "INT NOT NULL AUTO_INCREMENT PRIMARY KEY") {
		t.Fatalf("primary key not rewritten:\n%s", ddl)
	}
	if n := len(splitStatements(ddl)); n != 4 {
		t.Fatalf("expected 4 statements, got %d", n)
	}
}

func TestMySQLUpsertTail(t *testing.T) {
	got := mysqlDialect.upsertTail([]string{"name"}, []string{"source", "report_count"})
	want := "ON DUPLICATE KEY UPDATE source = VALUES(source), report_count = VALUES(report_count)"
	if got != want {
		t.Fatalf("upsert tail:\nwant %s\ngot  %s", want, got)
	}
}

func TestNewMySQLRequiresDSN(t *testing.T) {
	if _, err := NewMySQL(config.DatabaseConfig{Driver: "mysql"}); err == nil {
		t.Fatal("expected error for empty DSN")
	}
	if _, err := NewMySQL(config.DatabaseConfig{Driver: "mysql", DSN: "not a dsn"}); err == nil {
		t.Fatal("expected error for malformed DSN")
	}
}
