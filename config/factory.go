package config

import (
	"fmt"

	"github.com/rushteam/hybridrec/filter"
	"github.com/rushteam/hybridrec/pipeline"
	"github.com/rushteam/hybridrec/pkg/conv"
	"github.com/rushteam/hybridrec/rerank"
)

func init() {
	Register("filter.expr", BuildExprFilterNode)
	Register("filter.blacklist", BuildBlacklistFilterNode)
	Register("rerank.topn", BuildTopNNode)
}

// BuildExprFilterNode 配置示例：
//
//	- type: filter.expr
//	  config:
//	    expr: 'item.price < 100.0'
//	    keep: true
func BuildExprFilterNode(cfg map[string]interface{}) (pipeline.Node, error) {
	expr := conv.ConfigGet(cfg, "expr", "")
	if expr == "" {
		return nil, fmt.Errorf("filter.expr: expr is required")
	}
	f, err := filter.NewExprFilter(expr, conv.ConfigGet(cfg, "keep", false))
	if err != nil {
		return nil, fmt.Errorf("filter.expr: %w", err)
	}
	return &filter.FilterNode{Filters: []filter.Filter{f}}, nil
}

// BuildBlacklistFilterNode 配置示例：
//
//	- type: filter.blacklist
//	  config:
//	    product_ids: [p1, p2]
//	    categories: [adult]
func BuildBlacklistFilterNode(cfg map[string]interface{}) (pipeline.Node, error) {
	ids := conv.SliceAnyToString(cfg["product_ids"])
	categories := conv.SliceAnyToString(cfg["categories"])
	return &filter.FilterNode{
		Filters: []filter.Filter{filter.NewBlacklistFilter(ids, categories)},
	}, nil
}

// BuildTopNNode 配置示例：{type: rerank.topn, config: {n: 50}}
func BuildTopNNode(cfg map[string]interface{}) (pipeline.Node, error) {
	n := conv.ConfigGetInt64(cfg, "n", 0)
	if n < 0 {
		return nil, fmt.Errorf("rerank.topn: n must not be negative")
	}
	return &rerank.TopNNode{N: int(n)}, nil
}
