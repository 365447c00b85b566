package rerank

import (
	"context"

	"github.com/rushteam/hybridrec/core"
	"github.com/rushteam/hybridrec/pipeline"
)

// TopNNode 是一个 Top-N 截断节点，用于在排序后截取前 N 个商品。
//
// N 的取值：
//   - N > 0：截取前 N 个
//   - N <= 0：使用请求中的 rctx.TopN；仍 <= 0 时不截断
//
// 示例：
//
//	p := pipeline.New("hybrid",
//	    &recall.ContentScorer{...},
//	    &rerank.Diversity{Scale: 0.3},
//	    &rerank.ScoreSort{},
//	    &rerank.TopNNode{},
//	)
type TopNNode struct {
	N int
}

func (n *TopNNode) Name() string {
	return "rerank.topn"
}

func (n *TopNNode) Kind() pipeline.Kind {
	return pipeline.KindReRank
}

func (n *TopNNode) Process(
	_ context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	limit := n.N
	if limit <= 0 && rctx != nil {
		limit = rctx.TopN
	}
	if limit <= 0 || len(items) <= limit {
		return items, nil
	}
	return items[:limit], nil
}
