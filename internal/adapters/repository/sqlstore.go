package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"
)

// dialect holds the statements that differ between database/sql drivers.
type dialect struct {
	name   string
	schema string
	insert string
	recent string
}

var sqliteDialect = dialect{
	name: "sqlite",
	schema: `CREATE TABLE IF NOT EXISTS history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		query TEXT NOT NULL,
		"when" TEXT NOT NULL,
		top TEXT NOT NULL DEFAULT ''
	)`,
	insert: `INSERT INTO history (query, "when", top) VALUES (?, ?, ?)`,
	recent: `SELECT query, "when", top FROM history ORDER BY id DESC LIMIT ?`,
}

var mysqlDialect = dialect{
	name: "mysql",
	schema: "CREATE TABLE IF NOT EXISTS history (" +
		"id BIGINT AUTO_INCREMENT PRIMARY KEY, " +
		"query TEXT NOT NULL, " +
		"`when` VARCHAR(64) NOT NULL, " +
		"top VARCHAR(255) NOT NULL DEFAULT ''" +
		")",
	insert: "INSERT INTO history (query, `when`, top) VALUES (?, ?, ?)",
	recent: "SELECT query, `when`, top FROM history ORDER BY id DESC LIMIT ?",
}

// SQLStore implements Store on top of database/sql.
type SQLStore struct {
	db      *sql.DB
	dialect dialect
}

// NewSQLiteStore opens a SQLite database at path (":memory:" for a private
// in-memory database). WAL is enabled and a single connection is used, so
// writes are serialized by the pool.
func NewSQLiteStore(ctx context.Context, path string) (*SQLStore, error) {
	dsn := path
	if strings.Contains(dsn, "?") {
		dsn += "&"
	} else {
		dsn += "?"
	}
	dsn += "_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: open sqlite: %w", ErrStore, err)
	}
	db.SetMaxOpenConns(1)

	return newSQLStore(ctx, db, sqliteDialect)
}

// NewMySQLStore connects to MySQL with at most poolSize open connections.
func NewMySQLStore(ctx context.Context, dsn string, poolSize int) (*SQLStore, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: parse mysql dsn: %w", ErrStore, err)
	}
	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: mysql connector: %w", ErrStore, err)
	}

	db := sql.OpenDB(connector)
	if poolSize > 0 {
		db.SetMaxOpenConns(poolSize)
		db.SetMaxIdleConns(poolSize)
	}

	return newSQLStore(ctx, db, mysqlDialect)
}

func newSQLStore(ctx context.Context, db *sql.DB, d dialect) (*SQLStore, error) {
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: ping %s: %w", ErrStore, d.name, err)
	}
	return &SQLStore{db: db, dialect: d}, nil
}

// InitSchema creates the history table if it does not exist.
func (s *SQLStore) InitSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, s.dialect.schema); err != nil {
		return fmt.Errorf("%w: init %s schema: %w", ErrStore, s.dialect.name, err)
	}
	return nil
}

// AppendHistory implements Store.
func (s *SQLStore) AppendHistory(ctx context.Context, entry Entry) error {
	if _, err := s.db.ExecContext(ctx, s.dialect.insert, entry.Query, entry.When, entry.Top); err != nil {
		return fmt.Errorf("%w: append history: %w", ErrStore, err)
	}
	return nil
}

// FetchRecentHistory implements Store.
func (s *SQLStore) FetchRecentHistory(ctx context.Context, limit int) ([]Entry, error) {
	if limit < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLimit, limit)
	}

	rows, err := s.db.QueryContext(ctx, s.dialect.recent, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch history: %w", ErrStore, err)
	}
	defer rows.Close()

	out := make([]Entry, 0, limit)
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Query, &e.When, &e.Top); err != nil {
			return nil, fmt.Errorf("%w: scan history: %w", ErrStore, err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate history: %w", ErrStore, err)
	}
	return out, nil
}

// Close implements Store.
func (s *SQLStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("%w: close %s: %w", ErrStore, s.dialect.name, err)
	}
	return nil
}
