package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
)

// Memory：进程内实现，用于测试与无数据库的本地运行
type Memory struct {
	mu   sync.RWMutex
	data map[string]map[string]Document
}

func NewMemory() *Memory {
	return &Memory{data: make(map[string]map[string]Document)}
}

func (m *Memory) Get(_ context.Context, collection, id string) (Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.data[collection][id]
	if !ok {
		return nil, ErrNotFound
	}
	return append(Document(nil), doc...), nil
}

func (m *Memory) Set(_ context.Context, collection, id string, doc Document) error {
	if !json.Valid(doc) {
		return fmt.Errorf("store: invalid json for %s/%s", collection, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.data[collection]
	if !ok {
		c = make(map[string]Document)
		m.data[collection] = c
	}
	c[id] = append(Document(nil), doc...)
	return nil
}

func (m *Memory) Delete(_ context.Context, collection, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data[collection], id)
	return nil
}

func (m *Memory) List(_ context.Context, collection string) ([]Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sorted(collection, nil), nil
}

func (m *Memory) QueryByField(_ context.Context, collection, field, value string) ([]Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sorted(collection, func(doc Document) bool {
		var obj map[string]any
		if err := json.Unmarshal(doc, &obj); err != nil {
			return false
		}
		v, ok := obj[field]
		return ok && v != nil && fmt.Sprint(v) == value
	}), nil
}

func (m *Memory) IDs(_ context.Context, collection string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.data[collection]))
	for id := range m.data[collection] {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// Len：集合内文档数量
func (m *Memory) Len(collection string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data[collection])
}

func (m *Memory) Close() error { return nil }

func (m *Memory) sorted(collection string, keep func(Document) bool) []Document {
	c := m.data[collection]
	ids := make([]string, 0, len(c))
	for id := range c {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]Document, 0, len(ids))
	for _, id := range ids {
		doc := c[id]
		if keep != nil && !keep(doc) {
			continue
		}
		out = append(out, append(Document(nil), doc...))
	}
	return out
}
