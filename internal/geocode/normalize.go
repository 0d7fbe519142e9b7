// 包 geocode：地址归一化与多级地理编码缓存（进程内 LRU → Redis → 持久化集合 → 外部检索）
package geocode

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
)

var honorific = regexp.MustCompile(`(?i)^\s*(munic[ií]pio|cidade)\s+de\s+`)

// 无门牌号占位符，去掉句点后比较
var placeholders = map[string]bool{"s/n": true, "s/nº": true, "s/n°": true, "s/no": true}

// Normalizer：把地址与城市拼成外部检索用的查询串
type Normalizer struct {
	Region  string
	Country string
}

// Query：格式为 "{address}, {city}, {region}, {country}"，空段省略
// 约束：去掉“Município de / Cidade de”前缀、句点与 s/n 占位符，并折叠空白
func (n Normalizer) Query(address, city string) string {
	parts := make([]string, 0, 4)
	for _, p := range []string{address, city, n.Region, n.Country} {
		if p = clean(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

// Key：缓存键，为查询串的大小写折叠形式；归一化相同的输入得到相同的键
func Key(query string) string {
	return cases.Fold().String(strings.Join(strings.Fields(query), " "))
}

func clean(s string) string {
	s = honorific.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, ".", "")
	fields := strings.Fields(s)
	kept := fields[:0]
	for _, f := range fields {
		if placeholders[strings.ToLower(strings.Trim(f, ",;"))] {
			// 占位符后的分隔逗号移交给前一个词
			if strings.HasSuffix(f, ",") && len(kept) > 0 && !strings.HasSuffix(kept[len(kept)-1], ",") {
				kept[len(kept)-1] += ","
			}
			continue
		}
		kept = append(kept, f)
	}
	return strings.Trim(strings.Join(kept, " "), " ,;")
}
