package core

// RecommendContext 是一次推荐请求的上下文，由引擎填充后传给策略中的每个节点。
type RecommendContext struct {
	RequestID string
	UserID    string
	TopN      int

	// InteractionCount 在选择策略前写入；History 只在走混合策略前写入。
	InteractionCount int
	History          []string

	// Params 是调用方附带的参数，CEL 表达式中以 rctx.params 访问
	Params map[string]any
}

// WithParam 设置一个请求参数并返回 rctx 本身，便于链式构造。
func (rctx *RecommendContext) WithParam(key string, v any) *RecommendContext {
	if rctx.Params == nil {
		rctx.Params = make(map[string]any)
	}
	rctx.Params[key] = v
	return rctx
}
