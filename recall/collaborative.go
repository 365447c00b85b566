package recall

import (
	"context"
	"errors"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/rushteam/hybridrec/core"
	"github.com/rushteam/hybridrec/model"
	"github.com/rushteam/hybridrec/pipeline"
	"github.com/rushteam/hybridrec/pkg/utils"
)

const (
	DefaultSimilarUsers = 10
	DefaultPoolFactor   = 2
)

var (
	// ErrCollabUnavailable 表示矩阵为空或隐因子模型未拟合
	ErrCollabUnavailable = core.NewDomainError(core.ModuleEngine, core.ErrorCodeUnavailable, "recall: collaborative index unavailable")

	// ErrUserNotIndexed 表示用户不在训练矩阵中
	ErrUserNotIndexed = core.NewDomainError(core.ModuleEngine, core.ErrorCodeNotFound, "recall: user not in trained matrix")
)

// CollabIndex 是协同过滤的训练产物：用户-商品矩阵、隐因子模型及全部用户的隐向量。
// SVD 为 nil 表示因成分数不足跳过了分解。
type CollabIndex struct {
	Matrix *model.UserProductMatrix
	SVD    *model.TruncatedSVD
	Latent *mat.Dense
}

// BuildCollabIndex 从行为构建协同过滤索引。
// 没有行为时返回 nil；成分数不足时返回只含矩阵的索引，error 为 nil。
func BuildCollabIndex(interactions []core.Interaction, weight core.WeightFunc, cfg model.SVDConfig) (*CollabIndex, error) {
	m := model.BuildUserProductMatrix(interactions, weight)
	if m.IsEmpty() {
		return nil, nil
	}
	idx := &CollabIndex{Matrix: m}

	svd := model.NewTruncatedSVD(cfg)
	if err := svd.Fit(m); err != nil {
		if errors.Is(err, model.ErrTooFewComponents) {
			return idx, nil
		}
		return nil, err
	}
	latent, err := svd.TransformMatrix(m)
	if err != nil {
		return nil, err
	}
	idx.SVD = svd
	idx.Latent = latent
	return idx, nil
}

// Users 返回索引中的用户数。
func (c *CollabIndex) Users() int {
	if c == nil || c.Matrix.IsEmpty() {
		return 0
	}
	return len(c.Matrix.UserIDs)
}

// Available 判断是否可以做协同过滤。
func (c *CollabIndex) Available() bool {
	return c != nil && !c.Matrix.IsEmpty() && c.SVD.K() > 0 && c.Latent != nil
}

// CollaborativeRecall 是基于隐因子的用户协同过滤节点。
//
// 流程：
//  1. 用训练好的 SVD 把用户行投影到隐空间
//  2. 取余弦相似度最高的 SimilarUsers 个用户（可能包含用户自己，同分按矩阵行序）
//  3. 按相似度顺序合并这些用户交互过的候选商品，直到至少 PoolFactor × TopN 个
//  4. 截断到 TopN，保持合并顺序
type CollaborativeRecall struct {
	Index        *CollabIndex
	SimilarUsers int
	PoolFactor   int
}

func (r *CollaborativeRecall) Name() string        { return "recall.collaborative" }
func (r *CollaborativeRecall) Kind() pipeline.Kind { return pipeline.KindRecall }

func (r *CollaborativeRecall) Process(
	_ context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if !r.Index.Available() {
		return nil, ErrCollabUnavailable
	}
	if rctx == nil {
		return nil, ErrUserNotIndexed
	}
	row, ok := r.Index.Matrix.UserRow(rctx.UserID)
	if !ok {
		return nil, ErrUserNotIndexed
	}

	userLatent, err := r.Index.SVD.Transform(r.Index.Matrix.Row(row))
	if err != nil {
		return nil, err
	}

	similarUsers := r.SimilarUsers
	if similarUsers <= 0 {
		similarUsers = DefaultSimilarUsers
	}
	poolFactor := r.PoolFactor
	if poolFactor <= 0 {
		poolFactor = DefaultPoolFactor
	}
	topN := rctx.TopN
	if topN <= 0 || topN > len(items) {
		topN = len(items)
	}
	pool := poolFactor * topN

	byID := make(map[string]*core.Item, len(items))
	for _, it := range items {
		if _, dup := byID[it.ID]; !dup {
			byID[it.ID] = it
		}
	}

	picked := make([]*core.Item, 0, pool)
	seen := make(map[string]struct{}, pool)
	for _, sim := range model.MostSimilarRows(userLatent, r.Index.Latent, similarUsers) {
		if math.IsNaN(sim.Similarity) {
			return nil, core.NewDomainError(core.ModuleEngine, core.ErrorCodeInternalError, "recall: similarity is NaN")
		}
		similarUser := r.Index.Matrix.UserIDs[sim.Row]
		for _, pid := range r.Index.Matrix.InteractedProducts(sim.Row) {
			it, ok := byID[pid]
			if !ok {
				continue
			}
			if _, dup := seen[pid]; dup {
				continue
			}
			seen[pid] = struct{}{}
			it.Score = sim.Similarity
			it.PutLabel(utils.LabelSimilarUser, utils.Label{Value: similarUser, Source: "recall"})
			picked = append(picked, it)
			if len(picked) >= pool {
				break
			}
		}
		if len(picked) >= pool {
			break
		}
	}

	if len(picked) > topN {
		picked = picked[:topN]
	}
	return picked, nil
}
