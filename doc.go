// Package hybridrec 是一个混合商品推荐引擎。
//
// 设计要点：
// - Snapshot-first: 训练产出不可变快照（TF-IDF 内容索引 + SVD 用户因子），原子替换
// - Pipeline-first: 协同过滤、内容混合、热度三条路径都由 Node 串联
// - 逐级降级: 协同过滤 → 内容混合 → 热度 → 输入顺序，推荐调用不返回错误
package hybridrec

import (
	"github.com/rushteam/hybridrec/core"
	"github.com/rushteam/hybridrec/engine"
	"github.com/rushteam/hybridrec/pipeline"
)

// 轻量 facade：便于直接 import "hybridrec" 使用核心抽象。
type (
	Product         = core.Product
	Interaction     = core.Interaction
	InteractionKind = core.InteractionKind
	Recommender     = engine.Recommender
	Option          = engine.Option
	Pipeline        = pipeline.Pipeline
	Node            = pipeline.Node
	Kind            = pipeline.Kind
)

const (
	KindRecall = pipeline.KindRecall
	KindFilter = pipeline.KindFilter
	KindRank   = pipeline.KindRank
	KindReRank = pipeline.KindReRank
)

// New 创建推荐引擎，等价于 engine.New。
var New = engine.New
