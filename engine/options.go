package engine

import (
	"github.com/rushteam/hybridrec/core"
	"github.com/rushteam/hybridrec/feature"
	"github.com/rushteam/hybridrec/model"
	"github.com/rushteam/hybridrec/pipeline"
	"github.com/rushteam/hybridrec/pkg/utils"
	"github.com/rushteam/hybridrec/recall"
	"github.com/rushteam/hybridrec/rerank"
)

// Options 是引擎参数。New 从默认值开始依次应用 Option。
type Options struct {
	ColdStartThreshold int
	SimilarUsers       int
	PoolFactor         int
	DiversityScale     float64
	NeutralScore       float64

	MaxFeatures int
	StopWords   bool
	SVD         model.SVDConfig
	Weight      core.WeightFunc

	// Counter 覆盖热门兜底的计数来源，默认使用 reader
	Counter core.InteractionCounter
	// Prefilter 在策略选择之前过滤候选
	Prefilter *pipeline.Pipeline

	Seed int64
	Rand utils.Float64Source
}

func defaultOptions() Options {
	return Options{
		ColdStartThreshold: DefaultColdStartThreshold,
		SimilarUsers:       recall.DefaultSimilarUsers,
		PoolFactor:         recall.DefaultPoolFactor,
		DiversityScale:     rerank.DefaultDiversityScale,
		NeutralScore:       recall.DefaultNeutralScore,
		MaxFeatures:        feature.DefaultMaxFeatures,
		StopWords:          true,
		SVD:                model.DefaultSVDConfig(),
		Weight:             core.Weight,
	}
}

type Option func(*Options)

// WithOptions 整体替换参数。
func WithOptions(o Options) Option {
	return func(dst *Options) {
		if o.Weight == nil {
			o.Weight = core.Weight
		}
		*dst = o
	}
}

func WithColdStartThreshold(n int) Option {
	return func(o *Options) { o.ColdStartThreshold = n }
}

func WithDiversityScale(scale float64) Option {
	return func(o *Options) { o.DiversityScale = scale }
}

func WithSVD(cfg model.SVDConfig) Option {
	return func(o *Options) { o.SVD = cfg }
}

func WithMaxFeatures(n int) Option {
	return func(o *Options) { o.MaxFeatures = n }
}

func WithCounter(c core.InteractionCounter) Option {
	return func(o *Options) { o.Counter = c }
}

func WithPrefilter(p *pipeline.Pipeline) Option {
	return func(o *Options) { o.Prefilter = p }
}

// WithSeed 固定随机数种子，0 表示按时间播种。
func WithSeed(seed int64) Option {
	return func(o *Options) { o.Seed = seed }
}

// WithRand 指定随机数源，用于测试。
func WithRand(r utils.Float64Source) Option {
	return func(o *Options) { o.Rand = r }
}
