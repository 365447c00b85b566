package rerank

import (
	"context"

	"github.com/rushteam/hybridrec/core"
	"github.com/rushteam/hybridrec/pipeline"
	"github.com/rushteam/hybridrec/pkg/utils"
)

// DefaultDiversityScale 是多样性扰动的幅度。
const DefaultDiversityScale = 0.3

// Diversity 给每个候选加上独立的 [0, Scale) 均匀扰动，避免结果一成不变。
// 与基础分直接相加，不做归一化。
type Diversity struct {
	Scale float64
	Rand  utils.Float64Source
}

func (n *Diversity) Name() string {
	return "rerank.diversity"
}

func (n *Diversity) Kind() pipeline.Kind {
	return pipeline.KindReRank
}

func (n *Diversity) Process(
	_ context.Context,
	_ *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(items) == 0 || n.Scale <= 0 {
		return items, nil
	}
	rnd := n.Rand
	if rnd == nil {
		rnd = utils.NewLockedRand(0)
	}

	for _, it := range items {
		if it == nil {
			continue
		}
		boost := rnd.Float64() * n.Scale
		it.Score += boost
		it.PutLabel(utils.LabelDiversity, utils.FloatLabel(boost, "rerank"))
	}
	return items, nil
}
