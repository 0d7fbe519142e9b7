// 包 seed：种子文件的结构校验与解码，HTTP 导入与命令行共用
package seed

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"heritage-map/internal/heritage"
)

//go:embed seed.schema.json
var schemaJSON []byte

const schemaURL = "mem://seed.schema.json"

var (
	once    sync.Once
	schema  *jsonschema.Schema
	loadErr error
)

func load() {
	c := jsonschema.NewCompiler()
	if err := c.AddResource(schemaURL, bytes.NewReader(schemaJSON)); err != nil {
		loadErr = err
		return
	}
	schema, loadErr = c.Compile(schemaURL)
}

// Parse：先按 schema 校验，再解码为原始记录
func Parse(b []byte) ([]heritage.RawRecord, error) {
	once.Do(load)
	if loadErr != nil {
		return nil, fmt.Errorf("seed schema: %w", loadErr)
	}
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return nil, fmt.Errorf("seed json: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return nil, fmt.Errorf("seed invalid: %w", err)
	}
	var recs []heritage.RawRecord
	if err := json.Unmarshal(b, &recs); err != nil {
		return nil, fmt.Errorf("seed decode: %w", err)
	}
	return recs, nil
}

// ReadFile：读取并解析种子文件
func ReadFile(p string) ([]heritage.RawRecord, error) {
	b, err := os.ReadFile(p)
	if err != nil {
		return nil, err
	}
	return Parse(b)
}
