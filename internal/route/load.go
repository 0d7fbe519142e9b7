package route

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// File：路网数据文件结构（YAML）
type File struct {
	Waypoints   []Waypoint   `yaml:"waypoints"`
	Connections []Connection `yaml:"connections"`
}

// Parse：解析 YAML 路网数据并构建
func Parse(b []byte) (*Graph, error) {
	var f File
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parse route graph: %w", err)
	}
	return Build(f.Waypoints, f.Connections), nil
}

// LoadFile：读取路网数据文件
func LoadFile(p string) (*Graph, error) {
	b, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("read route graph: %w", err)
	}
	return Parse(b)
}
