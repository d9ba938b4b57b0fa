package logify

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL 驱动
)

// DefaultTableName 默认表名
const DefaultTableName = "request_logs"

var tableNameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// DBConfig 数据库连接配置
type DBConfig struct {
	Driver          string // 目前只链接了 postgres 驱动
	DSN             string
	TableName       string // 表名，默认 "request_logs"
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DBSink 数据库日志输出实现
type DBSink struct {
	*asyncQueue
	db     *sqlx.DB
	table  string
	insert string
}

type dbRow struct {
	LoggedAt   time.Time `db:"logged_at"`
	Level      string    `db:"level"`
	Method     string    `db:"method"`
	Path       string    `db:"path"`
	StatusCode int       `db:"status_code"`
	DurationMS float64   `db:"duration_ms"`
	ClientIP   string    `db:"client_ip"`
	Line       string    `db:"line"`
}

// OpenDBSink 连接数据库并创建写入 cfg.TableName 的输出
func OpenDBSink(ctx context.Context, cfg DBConfig, bufferSize int) (*DBSink, error) {
	db, err := sqlx.ConnectContext(ctx, cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	} else {
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	s, err := NewDBSink(db, cfg.TableName, bufferSize)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewDBSink 使用已打开的数据库连接创建输出，关闭输出时一并关闭 db
func NewDBSink(db *sqlx.DB, table string, bufferSize int) (*DBSink, error) {
	if table == "" {
		table = DefaultTableName
	}
	if !tableNameRe.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}

	s := &DBSink{
		db:    db,
		table: table,
		insert: fmt.Sprintf(`INSERT INTO %s (logged_at, level, method, path, status_code, duration_ms, client_ip, line)
		VALUES (:logged_at, :level, :method, :path, :status_code, :duration_ms, :client_ip, :line)`, table),
	}
	s.asyncQueue = newAsyncQueue("database", bufferSize, s.insertEntry)
	return s, nil
}

// DB 返回底层数据库连接
func (s *DBSink) DB() *sqlx.DB {
	return s.db
}

func (s *DBSink) insertEntry(entry *LogEntry) error {
	row := dbRow{
		LoggedAt:   entry.Timestamp,
		Level:      entry.Level,
		Method:     entry.Method,
		Path:       entry.Path,
		StatusCode: entry.StatusCode,
		DurationMS: entry.DurationMillis(),
		ClientIP:   entry.ClientIP,
		Line:       entry.Line,
	}
	if _, err := s.db.NamedExecContext(context.Background(), s.insert, row); err != nil {
		return fmt.Errorf("failed to insert log: %w", err)
	}
	return nil
}

// CreateTable 创建日志表和索引（PostgreSQL 语法）
func (s *DBSink) CreateTable(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id BIGSERIAL PRIMARY KEY,
			logged_at TIMESTAMPTZ NOT NULL,
			level VARCHAR(8) NOT NULL,
			method VARCHAR(10) NOT NULL,
			path VARCHAR(512) NOT NULL,
			status_code INT NOT NULL,
			duration_ms DOUBLE PRECISION NOT NULL,
			client_ip VARCHAR(45) NOT NULL DEFAULT '',
			line TEXT NOT NULL
		)
	`, s.table)
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create table %s: %w", s.table, err)
	}

	for _, col := range []string{"method", "path", "status_code", "logged_at"} {
		idx := fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_%s_%s ON %s(%s)", s.table, col, s.table, col)
		if _, err := s.db.ExecContext(ctx, idx); err != nil {
			return fmt.Errorf("failed to create index on %s.%s: %w", s.table, col, err)
		}
	}
	return nil
}

// Close 实现 Sink 接口
func (s *DBSink) Close() error {
	if !s.shutdown() {
		return nil
	}
	return s.db.Close()
}
