package heritage

import "strings"

// ManualConfidence：人工坐标的置信度
const ManualConfidence = 1.0

// 置信度分档：按外部地名库返回的要素类别查表
var confidenceTiers = []struct {
	keys       []string
	confidence float64
	precision  Precision
}{
	{[]string{"building", "house", "house_number"}, 0.95, PrecisionRooftop},
	{[]string{"road", "residential", "street", "highway", "pedestrian"}, 0.80, PrecisionStreet},
	{[]string{"city", "administrative", "town", "municipality", "boundary"}, 0.40, PrecisionMunicipality},
}

// Score：按要素类别打分；任一类别命中即取该档，按建筑 > 道路 > 城市顺序匹配，未命中为 0.60
func Score(classes ...string) (float64, Precision) {
	for _, tier := range confidenceTiers {
		for _, c := range classes {
			c = strings.ToLower(strings.TrimSpace(c))
			if c == "" {
				continue
			}
			for _, k := range tier.keys {
				if c == k {
					return tier.confidence, tier.precision
				}
			}
		}
	}
	return 0.60, PrecisionPlace
}
