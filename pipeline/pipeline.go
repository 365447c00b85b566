package pipeline

import (
	"context"
	"fmt"

	"github.com/rushteam/hybridrec/core"
)

// Pipeline 把一个推荐策略拆成可组合的 Node 链。
type Pipeline struct {
	Name  string
	Nodes []Node
}

// New 创建 Pipeline，忽略 nil 节点。
func New(name string, nodes ...Node) *Pipeline {
	p := &Pipeline{Name: name, Nodes: make([]Node, 0, len(nodes))}
	for _, n := range nodes {
		if n != nil {
			p.Nodes = append(p.Nodes, n)
		}
	}
	return p
}

// Run 依次执行节点。任一节点出错即中止并返回带节点名的错误。
func (p *Pipeline) Run(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	cur := items
	for _, node := range p.Nodes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		next, err := node.Process(ctx, rctx, cur)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", node.Name(), err)
		}
		cur = next
	}
	return cur, nil
}

// Then 返回在末尾追加节点后的新 Pipeline，原 Pipeline 不变。
func (p *Pipeline) Then(nodes ...Node) *Pipeline {
	all := make([]Node, 0, len(p.Nodes)+len(nodes))
	all = append(all, p.Nodes...)
	return New(p.Name, append(all, nodes...)...)
}
