package core

import "github.com/rushteam/hybridrec/pkg/utils"

// Item 是推荐链路中的统一承载结构：商品、分数、元信息、标签。
// Labels 用于解释与策略驱动；Score 用于排序决策。
type Item struct {
	ID      string
	Score   float64
	Product Product
	Meta    map[string]any
	Labels  map[string]utils.Label
}

func NewItem(p Product) *Item {
	return &Item{
		ID:      p.ID,
		Product: p,
		Meta:    make(map[string]any),
		Labels:  make(map[string]utils.Label),
	}
}

// NewItems 按输入顺序把商品包装为 Item。
func NewItems(products []Product) []*Item {
	out := make([]*Item, 0, len(products))
	for _, p := range products {
		out = append(out, NewItem(p))
	}
	return out
}

// Products 按顺序取出 Item 中的商品，忽略 nil。
func Products(items []*Item) []Product {
	out := make([]Product, 0, len(items))
	for _, it := range items {
		if it == nil {
			continue
		}
		out = append(out, it.Product)
	}
	return out
}

// PutLabel 写入 Label；若已存在同名 key，则按默认 Merge 规则累积。
func (it *Item) PutLabel(key string, lbl utils.Label) {
	if it.Labels == nil {
		it.Labels = make(map[string]utils.Label)
	}
	if old, ok := it.Labels[key]; ok {
		it.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	it.Labels[key] = lbl
}
