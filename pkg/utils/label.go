package utils

import "strconv"

// Label 是推荐链路中的一等公民：可解释、可追踪、可透传。
// Value 与 Source 的语义由业务自定义；这里只提供标准化的合并规则。
type Label struct {
	Value  string `json:"value"`
	Source string `json:"source"` // recall / rank / rerank / filter / engine
}

// 常用 Label key
const (
	LabelStrategy     = "strategy"      // hybrid / collaborative / popularity
	LabelScoreSource  = "score_source"  // content / neutral / random / popularity
	LabelSimilarUser  = "similar_user"  // 协同过滤中贡献该商品的相似用户
	LabelDiversity    = "diversity"     // 多样性扰动值
	LabelInteractions = "interactions"  // 热门兜底中的行为数
	LabelFiltered     = "filtered"
)

// FloatLabel 以紧凑格式记录数值。
func FloatLabel(v float64, source string) Label {
	return Label{Value: strconv.FormatFloat(v, 'g', 6, 64), Source: source}
}

// MergeLabel 用于合并同名 Label，遵循"保留历史、可追踪"的默认策略。
// - Value: 以 '|' 累积
// - Source: 以 ',' 累积
func MergeLabel(existing Label, incoming Label) Label {
	if existing.Value == "" {
		return incoming
	}
	if incoming.Value == "" {
		return existing
	}

	merged := existing
	merged.Value = existing.Value + "|" + incoming.Value
	switch {
	case existing.Source == "":
		merged.Source = incoming.Source
	case incoming.Source == "":
		merged.Source = existing.Source
	default:
		merged.Source = existing.Source + "," + incoming.Source
	}
	return merged
}
