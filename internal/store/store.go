// 包 store：按集合组织的文档型键值存储（get/set/delete/按字段查询）
package store

import (
	"context"
	"encoding/json"
	"errors"
)

var (
	// ErrNotFound：集合内不存在该 id
	ErrNotFound = errors.New("store: not found")
	// ErrUnavailable：后端不可达或拒绝写入，调用方视为致命错误
	ErrUnavailable = errors.New("store: unavailable")
)

// Document：JSON 文档原文；几何等嵌套数组按原生 JSON 存储
type Document = json.RawMessage

// Store：持久化协作方接口
// 约束：Delete 对不存在的 id 不报错；List、IDs 与 QueryByField 按 id 升序返回
type Store interface {
	Get(ctx context.Context, collection, id string) (Document, error)
	Set(ctx context.Context, collection, id string, doc Document) error
	Delete(ctx context.Context, collection, id string) error
	QueryByField(ctx context.Context, collection, field, value string) ([]Document, error)
	List(ctx context.Context, collection string) ([]Document, error)
	// IDs：集合内全部 id，不解析文档内容
	IDs(ctx context.Context, collection string) ([]string, error)
	Close() error
}

// GetJSON：读取并解码文档
func GetJSON(ctx context.Context, s Store, collection, id string, v any) error {
	doc, err := s.Get(ctx, collection, id)
	if err != nil {
		return err
	}
	return json.Unmarshal(doc, v)
}

// SetJSON：编码并写入文档
func SetJSON(ctx context.Context, s Store, collection, id string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.Set(ctx, collection, id, b)
}
