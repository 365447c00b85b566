package rerank

import (
	"context"
	"sort"

	"github.com/rushteam/hybridrec/core"
	"github.com/rushteam/hybridrec/pipeline"
)

// ScoreSort 按分数降序稳定排序，同分保持输入顺序。
type ScoreSort struct{}

func (n *ScoreSort) Name() string        { return "rerank.sort" }
func (n *ScoreSort) Kind() pipeline.Kind { return pipeline.KindReRank }

func (n *ScoreSort) Process(
	_ context.Context,
	_ *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Score > items[j].Score
	})
	return items, nil
}
