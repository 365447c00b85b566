package rerank

import (
	"context"
	"math"
	"testing"

	"github.com/rushteam/hybridrec/core"
	"github.com/rushteam/hybridrec/pkg/utils"
)

func scored(scores ...float64) []*core.Item {
	out := make([]*core.Item, 0, len(scores))
	for i, s := range scores {
		it := core.NewItem(core.Product{ID: string(rune('a' + i))})
		it.Score = s
		out = append(out, it)
	}
	return out
}

func TestDiversity_AddsBoundedNoise(t *testing.T) {
	items := scored(0.5, 0.1, 0.9)
	n := &Diversity{Scale: DefaultDiversityScale, Rand: utils.NewLockedRand(1)}
	out, err := n.Process(context.Background(), nil, items)
	if err != nil {
		t.Fatal(err)
	}
	base := []float64{0.5, 0.1, 0.9}
	for i, it := range out {
		boost := it.Score - base[i]
		if boost < 0 || boost >= DefaultDiversityScale {
			t.Errorf("item %s boost = %v, want [0, 0.3)", it.ID, boost)
		}
		if _, ok := it.Labels[utils.LabelDiversity]; !ok {
			t.Errorf("item %s missing diversity label", it.ID)
		}
	}
}

func TestDiversity_Const(t *testing.T) {
	items := scored(1)
	n := &Diversity{Scale: 0.3, Rand: utils.ConstSource(0.5)}
	out, _ := n.Process(context.Background(), nil, items)
	if math.Abs(out[0].Score-1.15) > 1e-12 {
		t.Errorf("score = %v, want 1.15", out[0].Score)
	}

	zero := &Diversity{Scale: 0, Rand: utils.ConstSource(0.5)}
	out, _ = zero.Process(context.Background(), nil, scored(1))
	if out[0].Score != 1 {
		t.Errorf("zero scale should not change score, got %v", out[0].Score)
	}
}

func TestScoreSort_Stable(t *testing.T) {
	out, _ := (&ScoreSort{}).Process(context.Background(), nil, scored(1, 3, 1, 3))
	want := []string{"b", "d", "a", "c"}
	for i, it := range out {
		if it.ID != want[i] {
			t.Errorf("pos %d = %s, want %s", i, it.ID, want[i])
		}
	}
}

func TestTopNNode(t *testing.T) {
	tests := []struct {
		name string
		n    int
		rctx *core.RecommendContext
		in   int
		want int
	}{
		{"explicit n", 2, nil, 5, 2},
		{"from context", 0, &core.RecommendContext{TopN: 3}, 5, 3},
		{"larger than input", 10, nil, 4, 4},
		{"no limit", 0, &core.RecommendContext{}, 4, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _ := (&TopNNode{N: tt.n}).Process(context.Background(), tt.rctx, scored(make([]float64, tt.in)...))
			if len(out) != tt.want {
				t.Errorf("len = %d, want %d", len(out), tt.want)
			}
		})
	}
}
