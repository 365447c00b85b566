package store

import (
	"context"
	"sync"
	"time"

	"github.com/rushteam/hybridrec/core"
)

// MemoryStore 是内存实现的 Store，用于测试/开发/原型。
// 进程重启后数据丢失。
type MemoryStore struct {
	mu           sync.RWMutex
	products     map[string]core.Product
	order        []string // 商品写入顺序
	interactions []core.Interaction
	// ratings 记录 (user, product) 当前评分在 interactions 中的下标
	ratings map[ratingKey]int
	byUser  map[string]int64
	byItem  map[string]int64
	now     func() time.Time
}

type ratingKey struct{ user, product string }

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		products: make(map[string]core.Product),
		ratings:  make(map[ratingKey]int),
		byUser:   make(map[string]int64),
		byItem:   make(map[string]int64),
		now:      time.Now,
	}
}

func (m *MemoryStore) Name() string { return "memory" }

func (m *MemoryStore) PutProducts(_ context.Context, products ...core.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, p := range products {
		if p.ID == "" {
			return core.NewDomainError(core.ModuleStore, core.ErrorCodeInvalidInput, "store: product id is required")
		}
		if _, ok := m.products[p.ID]; !ok {
			m.order = append(m.order, p.ID)
		}
		m.products[p.ID] = p
	}
	return nil
}

func (m *MemoryStore) GetProduct(_ context.Context, productID string) (core.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.products[productID]
	if !ok {
		return core.Product{}, core.ErrStoreNotFound
	}
	return p, nil
}

func (m *MemoryStore) ListProducts(_ context.Context) ([]core.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]core.Product, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.products[id])
	}
	return out, nil
}

// RecordInteraction 追加一条行为；评分行为按 (user, product) 覆盖。
func (m *MemoryStore) RecordInteraction(_ context.Context, in core.Interaction) error {
	if err := in.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if in.Timestamp.IsZero() {
		in.Timestamp = m.now()
	}
	if in.Kind == core.KindRating {
		key := ratingKey{in.UserID, in.ProductID}
		if i, ok := m.ratings[key]; ok {
			m.interactions[i] = in
			return nil
		}
		m.ratings[key] = len(m.interactions)
	}
	m.interactions = append(m.interactions, in)
	m.byUser[in.UserID]++
	m.byItem[in.ProductID]++
	return nil
}

func (m *MemoryStore) ListInteractions(_ context.Context) ([]core.Interaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return append([]core.Interaction(nil), m.interactions...), nil
}

func (m *MemoryStore) ListUserInteractions(_ context.Context, userID string) ([]core.Interaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]core.Interaction, 0, m.byUser[userID])
	for _, in := range m.interactions {
		if in.UserID == userID {
			out = append(out, in)
		}
	}
	return out, nil
}

func (m *MemoryStore) CountUserInteractions(_ context.Context, userID string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.byUser[userID], nil
}

func (m *MemoryStore) CountProductInteractions(_ context.Context, productID string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.byItem[productID], nil
}

func (m *MemoryStore) ProductStats(_ context.Context, productID string) (core.ProductStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := core.ProductStats{ProductID: productID}
	var ratingSum int
	for _, in := range m.interactions {
		if in.ProductID != productID {
			continue
		}
		stats.Total++
		switch in.Kind {
		case core.KindView:
			stats.Views++
		case core.KindWishlist:
			stats.Wishlists++
		case core.KindPurchase:
			stats.Purchases++
		case core.KindRating:
			stats.RatingCount++
			ratingSum += in.Rating
		}
	}
	if stats.RatingCount > 0 {
		stats.AverageRating = float64(ratingSum) / float64(stats.RatingCount)
	}
	return stats, nil
}

func (m *MemoryStore) UserStats(_ context.Context, userID string) (core.UserStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := core.UserStats{UserID: userID, ByKind: make(map[core.InteractionKind]int64)}
	for _, in := range m.interactions {
		if in.UserID != userID {
			continue
		}
		stats.ByKind[in.Kind]++
		stats.Total++
	}
	return stats, nil
}

func (m *MemoryStore) Close() error {
	return nil
}

var _ core.Store = (*MemoryStore)(nil)
