package migrate

import (
	"database/sql"

	"heritage-map/internal/logger"
)

// EnsureSchema：首次运行自动建表与索引
// 约束：使用 IF NOT EXISTS，重复执行无副作用；driver 取 postgres 或 sqlite
func EnsureSchema(db *sql.DB, driver string) error {
	bodyType := "TEXT"
	if driver == "postgres" {
		bodyType = "JSONB"
	}
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS documents (
            collection TEXT NOT NULL,
            id TEXT NOT NULL,
            body ` + bodyType + ` NOT NULL,
            updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
            PRIMARY KEY (collection, id)
        )`,
		`CREATE INDEX IF NOT EXISTS idx_documents_collection ON documents(collection)`,
	}
	if driver == "postgres" {
		stmts = append(stmts,
			`CREATE INDEX IF NOT EXISTS idx_documents_status ON documents ((body->>'status'))`,
			`CREATE INDEX IF NOT EXISTS idx_documents_query ON documents ((body->>'normalizedQuery')) WHERE collection = 'geocode_cache'`,
		)
	}
	for i, s := range stmts {
		logger.L().Debug("schema_exec", "idx", i, "driver", driver)
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	logger.L().Debug("schema_done", "driver", driver)
	return nil
}
