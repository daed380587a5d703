package storage

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Dialect identifies the SQL driver backing the chunk store.
type Dialect string

const (
	// DialectSQLite uses github.com/mattn/go-sqlite3.
	DialectSQLite Dialect = "sqlite3"
	// DialectPostgres uses github.com/lib/pq.
	DialectPostgres Dialect = "postgres"
)

// ParseDialect maps a driver name to a Dialect.
func ParseDialect(driver string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "", "sqlite", "sqlite3":
		return DialectSQLite, nil
	case "postgres", "postgresql", "pq":
		return DialectPostgres, nil
	default:
		return "", fmt.Errorf("unsupported database driver %q", driver)
	}
}

// New opens a SQLite database connection at the given path.
func New(path string) (*sql.DB, error) {
	return Open(DialectSQLite, path)
}

// Open opens a database connection for the given dialect and DSN.
// For SQLite the DSN is a file path.
func Open(dialect Dialect, dsn string) (*sql.DB, error) {
	db, err := sql.Open(string(dialect), dsn)
	if err != nil {
		return nil, err
	}

	if dialect == DialectSQLite {
		// WAL lets searches read while an ingestion is writing
		if _, err := db.Exec("PRAGMA journal_mode = WAL;"); err != nil {
			_ = db.Close()
			return nil, err
		}
		if _, err := db.Exec("PRAGMA busy_timeout = 5000;"); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

// Migrate creates the rag_chunks table and its indexes.
// It is idempotent and can be run multiple times safely.
func Migrate(db *sql.DB, dialect Dialect) error {
	idType := "TEXT"
	if dialect == DialectPostgres {
		idType = "VARCHAR(255)"
	}

	schema := []string{
		`CREATE TABLE IF NOT EXISTS rag_chunks (
			id ` + idType + ` PRIMARY KEY,
			document_id ` + idType + ` NOT NULL,
			owner_id BIGINT NOT NULL,
			chunk_text TEXT NOT NULL,
			embedding_vector TEXT NOT NULL,
			source_url TEXT,
			ordinal_position INTEGER NOT NULL,
			created_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_rag_chunks_document ON rag_chunks (document_id);`,
		`CREATE INDEX IF NOT EXISTS idx_rag_chunks_owner ON rag_chunks (owner_id);`,
	}

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to run migration: %w", err)
		}
	}

	return nil
}

// rebind rewrites '?' placeholders into the dialect's bind syntax.
func rebind(dialect Dialect, query string) string {
	if dialect != DialectPostgres {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
