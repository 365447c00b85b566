package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/rushteam/hybridrec/core"
)

type funcNode struct {
	name string
	fn   func(items []*core.Item) ([]*core.Item, error)
}

func (n *funcNode) Name() string { return n.name }
func (n *funcNode) Kind() Kind   { return KindRank }
func (n *funcNode) Process(_ context.Context, _ *core.RecommendContext, items []*core.Item) ([]*core.Item, error) {
	return n.fn(items)
}

func TestPipeline_Run(t *testing.T) {
	double := &funcNode{name: "double", fn: func(items []*core.Item) ([]*core.Item, error) {
		for _, it := range items {
			it.Score = it.Score*2 + 1
		}
		return items, nil
	}}
	head := &funcNode{name: "head", fn: func(items []*core.Item) ([]*core.Item, error) {
		return items[:1], nil
	}}

	p := New("test", double, nil, head)
	if len(p.Nodes) != 2 {
		t.Fatalf("nil nodes should be skipped, got %d", len(p.Nodes))
	}
	out, err := p.Run(context.Background(), &core.RecommendContext{}, core.NewItems([]core.Product{{ID: "a"}, {ID: "b"}}))
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 1 || out[0].ID != "a" || out[0].Score != 1 {
		t.Errorf("unexpected output: %+v", out)
	}
}

func TestPipeline_RunError(t *testing.T) {
	boom := errors.New("boom")
	p := New("test", &funcNode{name: "fail", fn: func([]*core.Item) ([]*core.Item, error) { return nil, boom }})
	_, err := p.Run(context.Background(), &core.RecommendContext{}, nil)
	if !errors.Is(err, boom) {
		t.Errorf("err = %v, want wrapped boom", err)
	}
	if err.Error() != "fail: boom" {
		t.Errorf("err message = %q", err.Error())
	}
}

func TestPipeline_Then(t *testing.T) {
	a := &funcNode{name: "a"}
	b := &funcNode{name: "b"}
	base := New("base", a)
	ext := base.Then(b)
	if len(base.Nodes) != 1 || len(ext.Nodes) != 2 {
		t.Errorf("Then should not modify base: base=%d ext=%d", len(base.Nodes), len(ext.Nodes))
	}
}

func TestParseYAML(t *testing.T) {
	data := []byte(`
pipeline:
  name: prefilter
  nodes:
    - type: filter.expr
      config:
        expr: "item.price < 100.0"
    - type: rerank.topn
      config:
        n: 5
`)
	cfg, err := ParseYAML(data)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Pipeline.Name != "prefilter" || len(cfg.Pipeline.Nodes) != 2 {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.Pipeline.Nodes[1].Config["n"] != 5 {
		t.Errorf("n = %v", cfg.Pipeline.Nodes[1].Config["n"])
	}

	factory := NewNodeFactory()
	factory.Register("filter.expr", func(map[string]interface{}) (Node, error) { return &funcNode{name: "expr"}, nil })
	if _, err := cfg.BuildPipeline(factory); err == nil {
		t.Error("unregistered rerank.topn should fail")
	}
}

func TestConfig_BuildPipeline(t *testing.T) {
	factory := NewNodeFactory()
	factory.Register("noop", func(cfg map[string]interface{}) (Node, error) {
		name, _ := cfg["name"].(string)
		return &funcNode{name: name}, nil
	})
	if got := factory.Types(); len(got) != 1 || got[0] != "noop" {
		t.Fatalf("Types = %v", got)
	}

	cfg, err := ParseJSON([]byte(`{"pipeline": {"name": "p", "nodes": [
		{"type": "noop", "config": {"name": "first"}},
		{"type": "noop"}
	]}}`))
	if err != nil {
		t.Fatal(err)
	}
	p, err := cfg.BuildPipeline(factory)
	if err != nil {
		t.Fatal(err)
	}
	if p.Name != "p" || len(p.Nodes) != 2 || p.Nodes[0].Name() != "first" {
		t.Fatalf("pipeline = %+v", p)
	}

	cfg.Pipeline.Nodes = append(cfg.Pipeline.Nodes, NodeConfig{})
	if _, err := cfg.BuildPipeline(factory); err == nil {
		t.Error("empty node type should fail")
	}
	if _, err := ParseJSON([]byte(`{`)); err == nil {
		t.Error("invalid json should fail")
	}
}
