package recall

import (
	"context"

	"github.com/rushteam/hybridrec/core"
	"github.com/rushteam/hybridrec/feature"
	"github.com/rushteam/hybridrec/pipeline"
	"github.com/rushteam/hybridrec/pkg/utils"
)

// DefaultNeutralScore 是没有可用历史时的中性分。
const DefaultNeutralScore = 0.5

// ContentScorer 是基于内容的打分节点（冷启动用户的混合策略基础分）。
//
// 打分规则：
//   - 有内容索引：候选分 = 与用户历史商品（索引内，去重）的平均余弦相似度；
//     候选不在索引中记 0；用户没有可用历史时记 NeutralScore
//   - 无内容索引：候选分 = [0,1) 均匀随机数
type ContentScorer struct {
	Index        *feature.ContentIndex
	NeutralScore float64
	Rand         utils.Float64Source
}

func (s *ContentScorer) Name() string        { return "recall.content" }
func (s *ContentScorer) Kind() pipeline.Kind { return pipeline.KindRank }

func (s *ContentScorer) Process(
	_ context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if s.Index == nil {
		rnd := s.Rand
		if rnd == nil {
			rnd = utils.NewLockedRand(0)
		}
		for _, it := range items {
			it.Score = rnd.Float64()
			it.PutLabel(utils.LabelScoreSource, utils.Label{Value: "random", Source: "recall"})
		}
		return items, nil
	}

	var history []string
	if rctx != nil {
		history = rctx.History
	}
	rows := s.historyRows(history)
	if len(rows) == 0 {
		for _, it := range items {
			it.Score = s.NeutralScore
			it.PutLabel(utils.LabelScoreSource, utils.Label{Value: "neutral", Source: "recall"})
		}
		return items, nil
	}

	for _, it := range items {
		it.Score = s.Index.MeanSimilarity(it.ID, rows)
		it.PutLabel(utils.LabelScoreSource, utils.Label{Value: "content", Source: "recall"})
	}
	return items, nil
}

// historyRows 把历史商品映射为索引行号，去重并保持首次出现顺序。
func (s *ContentScorer) historyRows(history []string) []int {
	seen := make(map[int]struct{}, len(history))
	rows := make([]int, 0, len(history))
	for _, pid := range history {
		r, ok := s.Index.Row(pid)
		if !ok {
			continue
		}
		if _, dup := seen[r]; dup {
			continue
		}
		seen[r] = struct{}{}
		rows = append(rows, r)
	}
	return rows
}
