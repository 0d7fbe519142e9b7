package utils

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"heritage-map/internal/config"
)

// BuildPostgresDSN：由配置拼接连接串
func BuildPostgresDSN(c config.Postgres) string {
	dsn := "postgres://" + c.User
	if c.Password != "" {
		dsn += ":" + c.Password
	}
	dsn += "@" + c.Host + ":" + c.Port + "/" + c.DB + "?sslmode=" + c.SSLMode
	return dsn
}

// OpenPostgres：打开连接池并设置上限
func OpenPostgres(c config.Postgres) (*sql.DB, error) {
	db, err := sql.Open("postgres", BuildPostgresDSN(c))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(c.MaxOpenConns)
	db.SetMaxIdleConns(c.MaxIdleConns)
	return db, nil
}

// OpenSQLite：打开本地库，启用 WAL 并限制为单写连接
func OpenSQLite(path string) (*sql.DB, error) {
	if path != ":memory:" && !strings.HasPrefix(path, "file:") {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating sqlite dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}
	db.SetMaxOpenConns(1)
	return db, nil
}
