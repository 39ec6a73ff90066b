package driver

import (
	"context"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// PostgreSQLConn SQLConn backed by a pgx pool
type PostgreSQLConn struct {
	pool *pgxpool.Pool
}

var _ SQLConn = &PostgreSQLConn{}

// pgRows pgx reports iteration errors from Err, Close has nothing to return
type pgRows struct {
	pgx.Rows
}

func (r pgRows) Close() error {
	r.Rows.Close()
	return nil
}

// NewPostgreSQLConn connect a pool of at most cfg.MaxConn connections
func NewPostgreSQLConn(dsn string, cfg *DBConfig) (*PostgreSQLConn, error) {
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	if cfg.MaxConn > 0 {
		poolConfig.MaxConns = cfg.MaxConn
	}
	pool, err := pgxpool.ConnectConfig(context.Background(), poolConfig)
	if err != nil {
		return nil, err
	}
	return &PostgreSQLConn{pool}, nil
}

// ExecContext implement SQLConn
func (pc *PostgreSQLConn) ExecContext(ctx context.Context, query string, args ...interface{}) (int64, error) {
	query = compact(query)
	done := statement(ctx, "postgresql", "Exec", query, args)

	var tag pgconn.CommandTag
	tag, err := pc.pool.Exec(ctx, query, args...)
	done(err)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// QueryContext implement SQLConn
func (pc *PostgreSQLConn) QueryContext(ctx context.Context, query string, args ...interface{}) (Rows, error) {
	query = compact(query)
	done := statement(ctx, "postgresql", "Query", query, args)

	rows, err := pc.pool.Query(ctx, query, args...)
	done(err)
	if err != nil {
		return nil, err
	}
	return pgRows{rows}, nil
}

// Ping acquire a connection and ping the server with it
func (pc *PostgreSQLConn) Ping(ctx context.Context) error {
	conn, err := pc.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()
	return conn.Conn().Ping(ctx)
}

// Close close the pool
func (pc *PostgreSQLConn) Close() error {
	pc.pool.Close()
	return nil
}
