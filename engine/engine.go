// Package engine 是混合推荐引擎：训练内容与协同过滤模型，并按用户选择推荐策略。
//
// 策略选择（按顺序）：
//  1. 未训练：热门兜底
//  2. 用户行为数 < ColdStartThreshold：混合策略（内容相似度 + 多样性扰动）
//  3. 否则：协同过滤；不可用或失败时降级到混合策略
//
// 任一策略失败（包括 panic）都降级到下一级，热门兜底失败时按输入顺序截断返回。
// RecommendForUser 从不返回错误。
//
//	r := engine.New(store, engine.WithSeed(7))
//	r.Train(ctx, products, interactions)
//	products := r.RecommendForUser(ctx, "u1", candidates, 10)
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/rushteam/hybridrec/core"
	"github.com/rushteam/hybridrec/feature"
	"github.com/rushteam/hybridrec/logging"
	"github.com/rushteam/hybridrec/metrics"
	"github.com/rushteam/hybridrec/pipeline"
	"github.com/rushteam/hybridrec/pkg/utils"
	"github.com/rushteam/hybridrec/recall"
	"github.com/rushteam/hybridrec/rerank"
)

// 推荐策略名，同时用作指标与 Label 取值。
const (
	StrategyCollaborative = "collaborative"
	StrategyHybrid        = "hybrid"
	StrategyPopularity    = "popularity"
	// StrategyInputOrder 表示所有策略都失败，按输入顺序返回
	StrategyInputOrder = "input_order"
)

// DefaultColdStartThreshold 是走协同过滤所需的最少行为数。
const DefaultColdStartThreshold = 3

// Recommender 持有当前模型快照。Train 原子替换快照，
// 并发的 RecommendForUser 看到的要么是旧快照，要么是新快照。
type Recommender struct {
	reader  core.InteractionReader
	counter core.InteractionCounter
	opts    Options
	rnd     utils.Float64Source
	log     zerolog.Logger

	snap    atomic.Pointer[Snapshot]
	trainMu sync.Mutex
}

// New 创建推荐引擎。reader 提供用户实时行为与商品计数，可以为 nil（所有用户视为冷启动）。
func New(reader core.InteractionReader, opts ...Option) *Recommender {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	r := &Recommender{
		reader:  reader,
		counter: o.Counter,
		opts:    o,
		rnd:     o.Rand,
		log:     logging.With("engine"),
	}
	if r.counter == nil && reader != nil {
		r.counter = reader
	}
	if r.rnd == nil {
		r.rnd = utils.NewLockedRand(o.Seed)
	}
	return r
}

// Snapshot 返回当前快照，未训练时为 nil。
func (r *Recommender) Snapshot() *Snapshot {
	return r.snap.Load()
}

// IsTrained 判断是否已有可用快照。
func (r *Recommender) IsTrained() bool {
	return r.snap.Load() != nil
}

// Status 返回模型状态。
func (r *Recommender) Status() Status {
	s := r.snap.Load()
	if s == nil {
		return Status{}
	}
	return Status{
		Trained:       true,
		TrainedAt:     s.TrainedAt,
		Version:       s.Version,
		Products:      s.Products(),
		Users:         s.Users(),
		Components:    s.Components(),
		Collaborative: s.Collab.Available(),
	}
}

// Train 全量训练并替换快照。
// 空商品或空行为是合法输入，只是对应的子模型不可用；
// 只有计算失败或 ctx 取消时返回 false，此时保留旧快照。
func (r *Recommender) Train(ctx context.Context, products []core.Product, interactions []core.Interaction) bool {
	r.trainMu.Lock()
	defer r.trainMu.Unlock()

	start := time.Now()
	products = core.DedupProducts(products)
	interactions = core.DedupRatings(interactions)

	var (
		content *feature.ContentIndex
		collab  *recall.CollabIndex
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		defer recoverInto(&err, "content")
		vec := feature.NewVectorizer(r.opts.MaxFeatures)
		if !r.opts.StopWords {
			vec.StopWords = nil
		}
		content = vec.FitTransform(products)
		return gctx.Err()
	})
	g.Go(func() (err error) {
		defer recoverInto(&err, "collaborative")
		collab, err = recall.BuildCollabIndex(interactions, r.opts.Weight, r.opts.SVD)
		if err != nil {
			return err
		}
		return gctx.Err()
	})
	err := g.Wait()
	elapsed := time.Since(start)
	if err != nil {
		r.log.Error().Err(err).Int("products", len(products)).Int("interactions", len(interactions)).Msg("train failed")
		metrics.RecordTrain("error", elapsed, 0, 0)
		return false
	}

	var version uint64 = 1
	if prev := r.snap.Load(); prev != nil {
		version = prev.Version + 1
	}
	snap := &Snapshot{
		Content:   content,
		Collab:    collab,
		TrainedAt: time.Now(),
		Version:   version,
	}
	r.snap.Store(snap)

	result := "ok"
	if content == nil && collab == nil {
		result = "empty"
	}
	metrics.RecordTrain(result, elapsed, snap.Products(), snap.Users())

	ev := r.log.Info().
		Uint64("version", version).
		Int("products", snap.Products()).
		Int("users", snap.Users()).
		Int("components", snap.Components()).
		Dur("elapsed", elapsed)
	if collab != nil && !collab.Available() {
		ev = ev.Bool("svd_skipped", true)
	}
	ev.Msg("model trained")
	return true
}

// TrainFromStore 从存储读取全量商品与行为后训练。
func (r *Recommender) TrainFromStore(ctx context.Context, catalog core.CatalogReader) (TrainStats, error) {
	start := time.Now()
	products, err := catalog.ListProducts(ctx)
	if err != nil {
		return TrainStats{}, fmt.Errorf("list products: %w", err)
	}
	interactions, err := catalog.ListInteractions(ctx)
	if err != nil {
		return TrainStats{}, fmt.Errorf("list interactions: %w", err)
	}

	ok := r.Train(ctx, products, interactions)
	stats := TrainStats{
		Products:     len(products),
		Interactions: len(interactions),
		Users:        len(core.DistinctUsers(interactions)),
		Duration:     time.Since(start),
		Success:      ok,
	}
	if s := r.snap.Load(); ok && s != nil {
		stats.TrainedAt = s.TrainedAt
	}
	if !ok {
		return stats, core.NewDomainError(core.ModuleEngine, core.ErrorCodeInternalError, "engine: training failed")
	}
	return stats, nil
}

// RecommendForUser 为用户从 candidates 中选出至多 topN 个商品，无重复。
// topN <= 0 或没有候选时返回空结果。
func (r *Recommender) RecommendForUser(ctx context.Context, userID string, candidates []core.Product, topN int) []core.Product {
	candidates = core.DedupProducts(candidates)
	if topN <= 0 || len(candidates) == 0 {
		return []core.Product{}
	}

	requestID := logging.RequestIDFromContext(ctx)
	if requestID == "" {
		requestID = logging.NewRequestID()
		ctx = logging.ContextWithRequestID(ctx, requestID)
	}
	log := logging.Ctx(ctx).With().Str("component", "engine").Str("user_id", userID).Logger()

	rctx := &core.RecommendContext{
		RequestID: requestID,
		UserID:    userID,
		TopN:      topN,
	}

	candidates = r.prefilter(ctx, rctx, candidates, &log)
	if len(candidates) == 0 {
		return []core.Product{}
	}

	items, strategy := r.recommend(ctx, rctx, candidates, &log)
	if len(items) > topN {
		items = items[:topN]
	}
	for _, it := range items {
		it.PutLabel(utils.LabelStrategy, utils.Label{Value: strategy, Source: "engine"})
	}
	metrics.RecordRecommendation(strategy)
	log.Debug().Str("strategy", strategy).Int("returned", len(items)).Msg("recommend")
	return core.Products(items)
}

func (r *Recommender) recommend(
	ctx context.Context,
	rctx *core.RecommendContext,
	candidates []core.Product,
	log *zerolog.Logger,
) ([]*core.Item, string) {
	snap := r.snap.Load()
	if snap != nil {
		count := r.userInteractionCount(ctx, rctx.UserID, log)
		rctx.InteractionCount = int(count)

		if count >= int64(r.opts.ColdStartThreshold) {
			items, err := r.runStage(ctx, r.collaborativePipeline(snap), rctx, candidates)
			// 相似用户没碰过任何候选时结果为空，也降级到混合策略：
			// 只有候选列表本身为空才返回空结果
			if err == nil && len(items) > 0 {
				return items, StrategyCollaborative
			}
			r.logDegrade(log, StrategyCollaborative, StrategyHybrid, err)
		}

		rctx.History = r.userHistory(ctx, rctx.UserID, log)
		items, err := r.runStage(ctx, r.hybridPipeline(snap), rctx, candidates)
		if err == nil {
			return items, StrategyHybrid
		}
		r.logDegrade(log, StrategyHybrid, StrategyPopularity, err)
	}

	items, err := r.runStage(ctx, r.popularityPipeline(), rctx, candidates)
	if err == nil {
		return items, StrategyPopularity
	}
	r.logDegrade(log, StrategyPopularity, StrategyInputOrder, err)
	return core.NewItems(candidates), StrategyInputOrder
}

// runStage 用新的 Item 执行一条策略 Pipeline，panic 转为 error。
func (r *Recommender) runStage(
	ctx context.Context,
	p *pipeline.Pipeline,
	rctx *core.RecommendContext,
	candidates []core.Product,
) (items []*core.Item, err error) {
	defer recoverInto(&err, p.Name)
	return p.Run(ctx, rctx, core.NewItems(candidates))
}

func (r *Recommender) collaborativePipeline(snap *Snapshot) *pipeline.Pipeline {
	return pipeline.New(StrategyCollaborative,
		&recall.CollaborativeRecall{
			Index:        snap.Collab,
			SimilarUsers: r.opts.SimilarUsers,
			PoolFactor:   r.opts.PoolFactor,
		},
	)
}

func (r *Recommender) hybridPipeline(snap *Snapshot) *pipeline.Pipeline {
	return pipeline.New(StrategyHybrid,
		&recall.ContentScorer{
			Index:        snap.Content,
			NeutralScore: r.opts.NeutralScore,
			Rand:         r.rnd,
		},
		&rerank.Diversity{Scale: r.opts.DiversityScale, Rand: r.rnd},
		&rerank.ScoreSort{},
		&rerank.TopNNode{},
	)
}

func (r *Recommender) popularityPipeline() *pipeline.Pipeline {
	return pipeline.New(StrategyPopularity,
		&recall.Hot{Counter: r.counter},
		&rerank.TopNNode{},
	)
}

// prefilter 执行可选的候选预过滤。出错时忽略预过滤，使用原候选。
func (r *Recommender) prefilter(
	ctx context.Context,
	rctx *core.RecommendContext,
	candidates []core.Product,
	log *zerolog.Logger,
) []core.Product {
	if r.opts.Prefilter == nil {
		return candidates
	}
	items, err := r.runStage(ctx, r.opts.Prefilter, rctx, candidates)
	if err != nil {
		log.Warn().Err(err).Msg("prefilter failed, using all candidates")
		return candidates
	}
	return core.Products(items)
}

// userInteractionCount 读取失败时按 0 处理，即视为冷启动用户。
func (r *Recommender) userInteractionCount(ctx context.Context, userID string, log *zerolog.Logger) int64 {
	if r.reader == nil {
		return 0
	}
	n, err := r.reader.CountUserInteractions(ctx, userID)
	if err != nil {
		log.Warn().Err(err).Msg("count user interactions failed")
		return 0
	}
	return n
}

func (r *Recommender) userHistory(ctx context.Context, userID string, log *zerolog.Logger) []string {
	if r.reader == nil {
		return nil
	}
	interactions, err := r.reader.ListUserInteractions(ctx, userID)
	if err != nil {
		log.Warn().Err(err).Msg("list user interactions failed")
		return nil
	}
	history := make([]string, 0, len(interactions))
	for _, in := range interactions {
		history = append(history, in.ProductID)
	}
	return history
}

// logDegrade 数据缺失（未训练、用户不在矩阵中等）只记 debug，其余记 warn。
func (r *Recommender) logDegrade(log *zerolog.Logger, from, to string, err error) {
	metrics.RecordDegradation(from, to)
	switch {
	case err == nil:
		log.Debug().Str("from", from).Str("to", to).Msg("empty result, degrading")
	case core.IsUnavailable(err) || core.IsNotFound(err):
		log.Debug().Err(err).Str("from", from).Str("to", to).Msg("strategy unavailable, degrading")
	default:
		log.Warn().Err(err).Str("from", from).Str("to", to).Msg("strategy failed, degrading")
	}
}

var errPanic = errors.New("panic")

func recoverInto(err *error, stage string) {
	if v := recover(); v != nil {
		*err = fmt.Errorf("%s: %w: %v", stage, errPanic, v)
	}
}
