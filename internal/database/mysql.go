package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/CosmoTheDev/ctrlreport/internal/config"
	"github.com/go-sql-driver/mysql"
)

// MySQLDB stores reports in a shared MySQL server, for teams that point
// several gateways at one database.
type MySQLDB struct {
	sqlStore
}

var mysqlDialect = dialect{
	name: "mysql",
	migrationsTable: `CREATE TABLE IF NOT EXISTS schema_migrations (
		id         INT          NOT NULL AUTO_INCREMENT PRIMARY KEY,
		filename   VARCHAR(255) NOT NULL UNIQUE,
		applied_at VARCHAR(64)  NOT NULL
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	adapt: mysqlAdapt,
	upsertTail: func(_, updateCols []string) string {
		sets := make([]string, len(updateCols))
		for i, c := range updateCols {
			sets[i] = fmt.Sprintf("%s = VALUES(%s)", c, c)
		}
		return "ON DUPLICATE KEY UPDATE " + strings.Join(sets, ", ")
	},
}

// NewMySQL connects using cfg.DSN. parseTime is forced on so DATETIME
// columns scan into time.Time.
func NewMySQL(cfg config.DatabaseConfig) (*MySQLDB, error) {
	if cfg.DSN == "" {
		return nil, errors.New("mysql DSN is required when driver is mysql")
	}
	mc, err := mysql.ParseDSN(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parsing mysql DSN: %w", err)
	}
	mc.ParseTime = true

	connector, err := mysql.NewConnector(mc)
	if err != nil {
		return nil, fmt.Errorf("building mysql connector: %w", err)
	}
	db := sql.OpenDB(connector)
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	m := &MySQLDB{newSQLStore(db, mysqlDialect)}
	if err := m.Ping(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pinging mysql %s: %w", mc.Addr, err)
	}
	return m, nil
}

// mysqlAdapt rewrites the SQLite-flavoured migrations for MySQL.
func mysqlAdapt(ddl string) string {
	r := strings.NewReplacer(
		"INTEGER PRIMARY KEY AUTOINCREMENT", "INT NOT NULL AUTO_INCREMENT PRIMARY KEY",
		"AUTOINCREMENT", "AUTO_INCREMENT",
	)
	return r.Replace(ddl)
}
