package feast

import (
	"context"
	"fmt"

	"github.com/rushteam/hybridrec/core"
)

const (
	// DefaultCountFeature 是商品行为总数的特征名。
	DefaultCountFeature = "product_stats:interaction_count"
	// DefaultEntityKey 是商品实体的 join key。
	DefaultEntityKey = "product_id"
)

// PopularityCounter 从 Feast 在线特征读取商品行为总数，用于热门兜底。
// Feast 请求失败时使用 Fallback（通常是 Store）。
type PopularityCounter struct {
	Client    Client
	Feature   string
	EntityKey string
	Fallback  core.InteractionCounter
}

// NewPopularityCounter 使用默认特征名创建计数器。
func NewPopularityCounter(client Client, fallback core.InteractionCounter) *PopularityCounter {
	return &PopularityCounter{
		Client:    client,
		Feature:   DefaultCountFeature,
		EntityKey: DefaultEntityKey,
		Fallback:  fallback,
	}
}

func (p *PopularityCounter) feature() string {
	if p.Feature == "" {
		return DefaultCountFeature
	}
	return p.Feature
}

func (p *PopularityCounter) entityKey() string {
	if p.EntityKey == "" {
		return DefaultEntityKey
	}
	return p.EntityKey
}

// CountProductInteractions 实现 core.InteractionCounter。
func (p *PopularityCounter) CountProductInteractions(ctx context.Context, productID string) (int64, error) {
	counts, err := p.CountProductsInteractions(ctx, []string{productID})
	if err != nil {
		return 0, err
	}
	return counts[productID], nil
}

// CountProductsInteractions 实现 core.BatchInteractionCounter。
func (p *PopularityCounter) CountProductsInteractions(ctx context.Context, productIDs []string) (map[string]int64, error) {
	counts, err := p.fetch(ctx, productIDs)
	if err == nil {
		return counts, nil
	}
	if p.Fallback == nil {
		return nil, err
	}

	out := make(map[string]int64, len(productIDs))
	for _, id := range productIDs {
		n, ferr := p.Fallback.CountProductInteractions(ctx, id)
		if ferr != nil {
			continue
		}
		out[id] = n
	}
	return out, nil
}

func (p *PopularityCounter) fetch(ctx context.Context, productIDs []string) (map[string]int64, error) {
	if p.Client == nil {
		return nil, core.NewDomainError(core.ModuleFeature, core.ErrorCodeUnavailable, "feast: client not configured")
	}
	feature := p.feature()
	rows, err := p.Client.OnlineFeatures(ctx, []string{feature}, p.entityKey(), productIDs)
	if err != nil {
		return nil, core.WrapDomainError(core.ModuleFeature, core.ErrorCodeUnavailable, "feast: online features", err)
	}
	if len(rows) != len(productIDs) {
		return nil, fmt.Errorf("feast: expected %d rows, got %d", len(productIDs), len(rows))
	}

	out := make(map[string]int64, len(productIDs))
	for i, id := range productIDs {
		if v, ok := rows[i][feature]; ok {
			out[id] = int64(v)
		}
	}
	return out, nil
}

var (
	_ core.InteractionCounter      = (*PopularityCounter)(nil)
	_ core.BatchInteractionCounter = (*PopularityCounter)(nil)
)
