package filter

import (
	"context"

	"github.com/rushteam/hybridrec/core"
)

// BlacklistFilter 过滤掉黑名单中的商品 ID 或类目。
type BlacklistFilter struct {
	productIDs map[string]struct{}
	categories map[string]struct{}
}

// NewBlacklistFilter 创建一个黑名单过滤器。
func NewBlacklistFilter(productIDs, categories []string) *BlacklistFilter {
	f := &BlacklistFilter{
		productIDs: make(map[string]struct{}, len(productIDs)),
		categories: make(map[string]struct{}, len(categories)),
	}
	for _, id := range productIDs {
		f.productIDs[id] = struct{}{}
	}
	for _, c := range categories {
		f.categories[c] = struct{}{}
	}
	return f
}

func (f *BlacklistFilter) Name() string {
	return "filter.blacklist"
}

func (f *BlacklistFilter) ShouldFilter(
	_ context.Context,
	_ *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil {
		return true, nil
	}
	if _, ok := f.productIDs[item.ID]; ok {
		return true, nil
	}
	if _, ok := f.categories[item.Product.Category]; ok {
		return true, nil
	}
	return false, nil
}
