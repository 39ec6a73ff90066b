package driver

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/pot-code/learn-gateway/internal/infrastructure/logging"
	"go.elastic.co/apm"
	"go.uber.org/zap"
)

// Rows query result, iterate with Next and always Close
type Rows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
	Close() error
}

// SQLConn statement level access to a SQL database, queries are written with $n placeholders
// and double quoted identifiers whatever the driver
type SQLConn interface {
	// ExecContext returns the number of affected rows
	ExecContext(ctx context.Context, query string, args ...interface{}) (int64, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (Rows, error)
	Ping(ctx context.Context) error
	Close() error
}

// DBConfig connection options shared by every driver
type DBConfig struct {
	Driver   string // postgres or mysql
	Host     string
	MaxConn  int32
	Password string
	Port     int
	Protocol string // mysql only, eg.tcp
	Query    string // DSN query parameter
	Schema   string
	User     string
}

var (
	spacePattern             = regexp.MustCompile(`[\n\t\s]+`)
	dollarPlaceholderPattern = regexp.MustCompile(`\$[0-9]+`)
)

func getDSN(cfg *DBConfig) string {
	var dsn string
	if cfg.Protocol != "" {
		dsn = fmt.Sprintf("%s:%s@%s(%s:%d)/%s", cfg.User, cfg.Password, cfg.Protocol, cfg.Host, cfg.Port, cfg.Schema)
	} else {
		dsn = fmt.Sprintf("%s:%s@%s:%d/%s", cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Schema)
	}
	query := cfg.Query
	if cfg.Driver == "mysql" {
		query = withParseTime(query)
	}
	if query != "" {
		return dsn + "?" + query
	}
	return dsn
}

// withParseTime mysql scans DATETIME into time.Time only with parseTime, an explicit setting wins
func withParseTime(query string) string {
	for _, param := range strings.Split(query, "&") {
		if strings.HasPrefix(param, "parseTime=") {
			return query
		}
	}
	if query == "" {
		return "parseTime=true"
	}
	return query + "&parseTime=true"
}

// GetDBConnection open the connection pool of cfg.Driver
func GetDBConnection(cfg *DBConfig) (SQLConn, error) {
	dsn := getDSN(cfg)
	switch cfg.Driver {
	case "mysql":
		conn, err := NewMySQLConn(dsn, cfg)
		if err != nil {
			return nil, err
		}
		return conn, nil
	case "postgres":
		conn, err := NewPostgreSQLConn("postgres://"+dsn, cfg)
		if err != nil {
			return nil, err
		}
		return conn, nil
	}
	return nil, fmt.Errorf("unsupported driver: %s", cfg.Driver)
}

// compact collapses whitespace so statements log on one line
func compact(query string) string {
	return strings.TrimSpace(spacePattern.ReplaceAllString(query, " "))
}

// statement traces one driver call, call the returned func with the outcome
func statement(ctx context.Context, dialect, method, query string, args []interface{}) func(err error) {
	spanName := method
	if fields := strings.Fields(query); len(fields) > 0 {
		spanName = strings.ToUpper(fields[0])
	}
	span, _ := apm.StartSpan(ctx, spanName, "db."+dialect+".query")
	span.Context.SetDatabase(apm.DatabaseSpanContext{Type: "sql", Statement: query})
	start := time.Now()

	return func(err error) {
		span.End()
		logger := logging.ExtractLoggerFromContext(ctx)
		fields := []zap.Field{
			zap.String("db.method", method),
			zap.String("db.sql", query),
			zap.Any("db.args", logQueryArgs(args)),
		}
		if err != nil {
			if !errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, context.Canceled) {
				logger.Error(err.Error(), fields...)
			}
			return
		}
		logger.Debug("", append(fields, zap.Duration("db.time", time.Since(start)))...)
	}
}

func logQueryArgs(args []interface{}) []interface{} {
	logArgs := make([]interface{}, 0, len(args))
	for _, a := range args {
		switch v := a.(type) {
		case []byte:
			if len(v) < 64 {
				a = hex.EncodeToString(v)
			} else {
				a = fmt.Sprintf("%x (truncated %d bytes)", v[:64], len(v)-64)
			}
		case string:
			if len(v) > 64 {
				a = fmt.Sprintf("%s (truncated %d bytes)", v[:64], len(v)-64)
			}
		}
		logArgs = append(logArgs, a)
	}
	return logArgs
}
