package filter

import (
	"context"

	"github.com/rushteam/hybridrec/core"
	"github.com/rushteam/hybridrec/pkg/dsl"
)

// ExprFilter 用 CEL 表达式决定商品去留。
// Keep 为 true 时表达式为真的商品保留，否则表达式为真的商品被过滤。
type ExprFilter struct {
	program *dsl.Program
	Keep    bool
}

// NewExprFilter 编译表达式并创建过滤器。
func NewExprFilter(expr string, keep bool) (*ExprFilter, error) {
	p, err := dsl.Compile(expr)
	if err != nil {
		return nil, err
	}
	return &ExprFilter{program: p, Keep: keep}, nil
}

func (f *ExprFilter) Name() string {
	return "filter.expr"
}

func (f *ExprFilter) ShouldFilter(
	_ context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	matched, err := f.program.Eval(item, rctx)
	if err != nil {
		return false, err
	}
	if f.Keep {
		return !matched, nil
	}
	return matched, nil
}
