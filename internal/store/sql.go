package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"heritage-map/internal/logger"
)

// Dialect：SQL 方言差异（占位符与 JSON 字段抽取）
type Dialect string

const (
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
)

// SQL：基于 documents 表的实现，Postgres 使用 JSONB，SQLite 使用 JSON 文本
type SQL struct {
	db      *sql.DB
	dialect Dialect
}

// AttachDB：在已打开且完成建表的连接上构建存储
func AttachDB(db *sql.DB, d Dialect) *SQL { return &SQL{db: db, dialect: d} }

func (s *SQL) Close() error { return s.db.Close() }

func (s *SQL) ph(n int) string {
	if s.dialect == Postgres {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

func (s *SQL) Get(ctx context.Context, collection, id string) (Document, error) {
	q := "SELECT body FROM documents WHERE collection=" + s.ph(1) + " AND id=" + s.ph(2)
	var body string
	err := s.db.QueryRowContext(ctx, q, collection, id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store get %s/%s: %w: %w", collection, id, ErrUnavailable, err)
	}
	return Document(body), nil
}

func (s *SQL) Set(ctx context.Context, collection, id string, doc Document) error {
	q := "INSERT INTO documents(collection, id, body, updated_at) VALUES(" +
		s.ph(1) + "," + s.ph(2) + "," + s.ph(3) + ", CURRENT_TIMESTAMP) " +
		"ON CONFLICT (collection, id) DO UPDATE SET body=excluded.body, updated_at=CURRENT_TIMESTAMP"
	if _, err := s.db.ExecContext(ctx, q, collection, id, string(doc)); err != nil {
		logger.L().Error("store_set_error", "collection", collection, "id", id, "err", err)
		return fmt.Errorf("store set %s/%s: %w: %w", collection, id, ErrUnavailable, err)
	}
	return nil
}

func (s *SQL) Delete(ctx context.Context, collection, id string) error {
	q := "DELETE FROM documents WHERE collection=" + s.ph(1) + " AND id=" + s.ph(2)
	if _, err := s.db.ExecContext(ctx, q, collection, id); err != nil {
		return fmt.Errorf("store delete %s/%s: %w: %w", collection, id, ErrUnavailable, err)
	}
	return nil
}

func (s *SQL) List(ctx context.Context, collection string) ([]Document, error) {
	q := "SELECT body FROM documents WHERE collection=" + s.ph(1) + " ORDER BY id"
	return s.query(ctx, q, collection)
}

func (s *SQL) IDs(ctx context.Context, collection string) ([]string, error) {
	q := "SELECT id FROM documents WHERE collection=" + s.ph(1) + " ORDER BY id"
	rows, err := s.db.QueryContext(ctx, q, collection)
	if err != nil {
		return nil, fmt.Errorf("store ids %s: %w: %w", collection, ErrUnavailable, err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("store scan: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (s *SQL) QueryByField(ctx context.Context, collection, field, value string) ([]Document, error) {
	var q string
	if s.dialect == Postgres {
		q = "SELECT body FROM documents WHERE collection=$1 AND body->>$2 = $3 ORDER BY id"
	} else {
		q = "SELECT body FROM documents WHERE collection=? AND CAST(json_extract(body, '$.' || ?) AS TEXT) = ? ORDER BY id"
	}
	return s.query(ctx, q, collection, field, value)
}

func (s *SQL) query(ctx context.Context, q string, args ...any) ([]Document, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("store query: %w: %w", ErrUnavailable, err)
	}
	defer rows.Close()
	var out []Document
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("store scan: %w", err)
		}
		out = append(out, Document(body))
	}
	return out, rows.Err()
}
