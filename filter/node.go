package filter

import (
	"context"

	"github.com/rushteam/hybridrec/core"
	"github.com/rushteam/hybridrec/pipeline"
	"github.com/rushteam/hybridrec/pkg/utils"
)

// FilterNode 依次询问 Filters，任一命中即剔除商品，剔除的商品带 filtered Label（来源为命中的过滤器）。
// 单个过滤器出错视为未命中。输出保持输入顺序。
type FilterNode struct {
	Filters []Filter
}

func (n *FilterNode) Name() string        { return "filter.node" }
func (n *FilterNode) Kind() pipeline.Kind { return pipeline.KindFilter }

func (n *FilterNode) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(n.Filters) == 0 {
		return items, nil
	}
	kept := make([]*core.Item, 0, len(items))
	for _, it := range items {
		if it == nil {
			continue
		}
		if by := n.match(ctx, rctx, it); by != "" {
			it.PutLabel(utils.LabelFiltered, utils.Label{Value: "true", Source: by})
			continue
		}
		kept = append(kept, it)
	}
	return kept, nil
}

// match 返回第一个命中的过滤器名，没有命中返回空串。
func (n *FilterNode) match(ctx context.Context, rctx *core.RecommendContext, it *core.Item) string {
	for _, f := range n.Filters {
		if drop, err := f.ShouldFilter(ctx, rctx, it); err == nil && drop {
			return f.Name()
		}
	}
	return ""
}
