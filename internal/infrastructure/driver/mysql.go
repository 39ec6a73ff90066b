package driver

import (
	"context"
	"database/sql"
	"strings"

	// mysql driver
	_ "github.com/go-sql-driver/mysql"
)

// MySQLConn SQLConn backed by database/sql and go-sql-driver
type MySQLConn struct {
	db *sql.DB
}

var _ SQLConn = &MySQLConn{}

// NewMySQLConn open a pool of at most cfg.MaxConn connections, the server is not contacted until first use
func NewMySQLConn(dsn string, cfg *DBConfig) (*MySQLConn, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}
	if cfg.MaxConn > 0 {
		db.SetMaxOpenConns(int(cfg.MaxConn))
	}
	return &MySQLConn{db}, nil
}

// ExecContext implement SQLConn
func (mc *MySQLConn) ExecContext(ctx context.Context, query string, args ...interface{}) (int64, error) {
	query = mysqlDialect(query)
	done := statement(ctx, "mysql", "Exec", query, args)

	res, err := mc.db.ExecContext(ctx, query, args...)
	done(err)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// QueryContext implement SQLConn
func (mc *MySQLConn) QueryContext(ctx context.Context, query string, args ...interface{}) (Rows, error) {
	query = mysqlDialect(query)
	done := statement(ctx, "mysql", "Query", query, args)

	rows, err := mc.db.QueryContext(ctx, query, args...)
	done(err)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Ping implement SQLConn
func (mc *MySQLConn) Ping(ctx context.Context) error {
	return mc.db.PingContext(ctx)
}

// Close implement SQLConn
func (mc *MySQLConn) Close() error {
	return mc.db.Close()
}

// mysqlDialect rewrites $n placeholders and double quoted identifiers
func mysqlDialect(query string) string {
	query = strings.Replace(query, "\"", "`", -1)
	query = dollarPlaceholderPattern.ReplaceAllString(query, "?")
	return compact(query)
}
