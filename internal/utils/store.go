package utils

import (
	"fmt"

	"heritage-map/internal/config"
	"heritage-map/internal/logger"
	"heritage-map/internal/migrate"
	"heritage-map/internal/store"
)

// OpenStore：按 STORE_DRIVER 打开存储并确保表结构
func OpenStore(c config.Config) (store.Store, error) {
	l := logger.L()
	switch c.StoreDriver {
	case "memory":
		l.Warn("store_memory", "note", "records are lost on exit")
		return store.NewMemory(), nil
	case "postgres":
		db, err := OpenPostgres(c.Postgres)
		if err != nil {
			return nil, err
		}
		if err := db.Ping(); err != nil {
			db.Close()
			return nil, fmt.Errorf("postgres ping: %w", err)
		}
		if err := migrate.EnsureSchema(db, "postgres"); err != nil {
			db.Close()
			return nil, err
		}
		l.Info("db_open_ok", "driver", "postgres", "host", c.Postgres.Host)
		return store.AttachDB(db, store.Postgres), nil
	case "sqlite":
		db, err := OpenSQLite(c.SQLitePath)
		if err != nil {
			return nil, err
		}
		if err := migrate.EnsureSchema(db, "sqlite"); err != nil {
			db.Close()
			return nil, err
		}
		l.Info("db_open_ok", "driver", "sqlite", "path", c.SQLitePath)
		return store.AttachDB(db, store.SQLite), nil
	}
	return nil, fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
}
