// Package filter 在推荐前剔除不应出现的候选商品。
package filter

import (
	"context"

	"github.com/rushteam/hybridrec/core"
)

// Filter 判断一个候选商品是否应被剔除，返回 true 即剔除。
type Filter interface {
	Name() string
	ShouldFilter(ctx context.Context, rctx *core.RecommendContext, item *core.Item) (bool, error)
}

// Func 把普通函数包装成 Filter，Label 作为 Name 返回。
type Func struct {
	Label string
	Fn    func(ctx context.Context, rctx *core.RecommendContext, item *core.Item) (bool, error)
}

func (f Func) Name() string { return f.Label }

func (f Func) ShouldFilter(ctx context.Context, rctx *core.RecommendContext, item *core.Item) (bool, error) {
	if f.Fn == nil {
		return false, nil
	}
	return f.Fn(ctx, rctx, item)
}
