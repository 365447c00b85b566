package core

// 行为权重：反映用户投入程度，view < click < rating < purchase。
var interactionWeights = map[InteractionKind]float64{
	KindView:     1,
	KindClick:    2,
	KindRating:   3,
	KindPurchase: 5,
}

// DefaultWeight 是未配置权重的行为类型（wishlist、ai_description_generated、未知类型）的权重。
const DefaultWeight = 1.0

// Weight 返回行为类型对应的权重。
func Weight(kind InteractionKind) float64 {
	if w, ok := interactionWeights[kind]; ok {
		return w
	}
	return DefaultWeight
}

// WeightFunc 把行为类型映射为权重，Weight 是默认实现。
type WeightFunc func(kind InteractionKind) float64
