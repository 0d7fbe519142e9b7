package heritage

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Policy：点/面判定与置信度阈值的策略配置
// 约束：关键词与城市名单为人工维护的固定清单，比较时不区分大小写与重音
type Policy struct {
	TypologyKeywords []string `yaml:"typology_keywords"`
	TitleKeywords    []string `yaml:"title_keywords"`
	Municipalities   []string `yaml:"municipalities"`
	AcceptThreshold  float64  `yaml:"accept_threshold"`
}

// DefaultPolicy：内置默认策略
func DefaultPolicy() Policy {
	return Policy{
		TypologyKeywords: []string{"conjunto urbano"},
		TitleKeywords:    []string{"centro histórico", "município de", "área de proteção"},
		Municipalities: []string{
			"Ouro Preto", "Mariana", "Diamantina", "Tiradentes", "São João del-Rei",
			"Congonhas", "Sabará", "Serro", "Catas Altas", "Santa Bárbara",
		},
		AcceptThreshold: 0.75,
	}
}

// LoadPolicy：从 YAML 文件加载策略；未提供的字段沿用默认值
func LoadPolicy(p string) (Policy, error) {
	pol := DefaultPolicy()
	b, err := os.ReadFile(p)
	if err != nil {
		return pol, fmt.Errorf("read policy: %w", err)
	}
	var f Policy
	if err := yaml.Unmarshal(b, &f); err != nil {
		return pol, fmt.Errorf("parse policy: %w", err)
	}
	if len(f.TypologyKeywords) > 0 {
		pol.TypologyKeywords = f.TypologyKeywords
	}
	if len(f.TitleKeywords) > 0 {
		pol.TitleKeywords = f.TitleKeywords
	}
	if len(f.Municipalities) > 0 {
		pol.Municipalities = f.Municipalities
	}
	if f.AcceptThreshold > 0 {
		pol.AcceptThreshold = f.AcceptThreshold
	}
	return pol, nil
}

// Classify：判定记录为点或面；人工坐标优先，始终为点
func (p Policy) Classify(r RawRecord) Kind {
	if r.HasManualCoordinates() {
		return KindPoint
	}
	if p.IsArea(r.Title, r.Typology) {
		return KindArea
	}
	return KindPoint
}

// IsArea：类型含片区关键词，或标题含面状关键词，或标题恰为名单内城市
func (p Policy) IsArea(title, typology string) bool {
	ty := Fold(typology)
	for _, k := range p.TypologyKeywords {
		if strings.Contains(ty, Fold(k)) {
			return true
		}
	}
	ti := strings.TrimSpace(Fold(title))
	for _, k := range p.TitleKeywords {
		if strings.Contains(ti, Fold(k)) {
			return true
		}
	}
	for _, m := range p.Municipalities {
		if ti == Fold(m) {
			return true
		}
	}
	return false
}
