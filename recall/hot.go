package recall

import (
	"context"
	"sort"
	"strconv"

	"github.com/rushteam/hybridrec/core"
	"github.com/rushteam/hybridrec/pipeline"
	"github.com/rushteam/hybridrec/pkg/utils"
)

// Hot 是热门兜底节点：按候选商品的行为总数降序排列。
// 计数失败的商品记 0；同分保持输入顺序，因此全部为 0 时不改变顺序。
// Counter 实现 core.BatchInteractionCounter 时一次取回全部计数。
type Hot struct {
	Counter core.InteractionCounter
}

func (r *Hot) Name() string        { return "recall.hot" }
func (r *Hot) Kind() pipeline.Kind { return pipeline.KindRank }

func (r *Hot) Process(
	ctx context.Context,
	_ *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	batch := r.batchCounts(ctx, items)
	for _, it := range items {
		var count int64
		switch {
		case batch != nil:
			count = batch[it.ID]
		case r.Counter != nil:
			if c, err := r.Counter.CountProductInteractions(ctx, it.ID); err == nil {
				count = c
			}
		}
		it.Score = float64(count)
		it.PutLabel(utils.LabelInteractions, utils.Label{Value: strconv.FormatInt(count, 10), Source: "recall"})
		it.PutLabel(utils.LabelScoreSource, utils.Label{Value: "popularity", Source: "recall"})
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Score > items[j].Score
	})
	return items, nil
}

func (r *Hot) batchCounts(ctx context.Context, items []*core.Item) map[string]int64 {
	bc, ok := r.Counter.(core.BatchInteractionCounter)
	if !ok || len(items) == 0 {
		return nil
	}
	ids := make([]string, len(items))
	for i, it := range items {
		ids[i] = it.ID
	}
	counts, err := bc.CountProductsInteractions(ctx, ids)
	if err != nil {
		return nil
	}
	if counts == nil {
		counts = map[string]int64{}
	}
	return counts
}
