package core

import (
	"sort"
	"time"
)

// Product 是商品目录中的一个商品。推荐链路中视为只读。
type Product struct {
	ID          string  `json:"id" yaml:"id"`
	Name        string  `json:"name" yaml:"name"`
	Description string  `json:"description" yaml:"description"`
	Category    string  `json:"category" yaml:"category"`
	Price       float64 `json:"price" yaml:"price"`
}

// Text 返回用于内容特征的文本：name + description + category。
func (p Product) Text() string {
	return p.Name + " " + p.Description + " " + p.Category
}

// InteractionKind 是用户行为类型。
type InteractionKind string

const (
	KindView      InteractionKind = "view"
	KindClick     InteractionKind = "click"
	KindPurchase  InteractionKind = "purchase"
	KindRating    InteractionKind = "rating"
	KindWishlist  InteractionKind = "wishlist"
	KindAIContent InteractionKind = "ai_description_generated"
)

// Valid 判断是否为已知行为类型。
func (k InteractionKind) Valid() bool {
	switch k {
	case KindView, KindClick, KindPurchase, KindRating, KindWishlist, KindAIContent:
		return true
	}
	return false
}

// Interaction 是一条用户-商品行为记录。
// Rating 仅在 Kind == KindRating 时有意义（1-5）。
type Interaction struct {
	UserID    string          `json:"user_id" yaml:"user_id"`
	ProductID string          `json:"product_id" yaml:"product_id"`
	Kind      InteractionKind `json:"kind" yaml:"kind"`
	Rating    int             `json:"rating,omitempty" yaml:"rating,omitempty"`
	Timestamp time.Time       `json:"timestamp" yaml:"timestamp"`
}

const (
	MinRating = 1
	MaxRating = 5
)

// Validate 校验行为记录。
func (in Interaction) Validate() error {
	if in.UserID == "" || in.ProductID == "" {
		return NewDomainError(ModuleStore, ErrorCodeInvalidInput, "interaction: user id and product id are required")
	}
	if in.Kind == KindRating && (in.Rating < MinRating || in.Rating > MaxRating) {
		return ErrInvalidRating
	}
	return nil
}

// DedupRatings 保证每个 (user, product) 至多一条评分：保留时间戳最新的一条，
// 时间戳相同则保留后出现的一条。其他行为原样保留，顺序不变。
func DedupRatings(interactions []Interaction) []Interaction {
	type pair struct{ user, product string }
	latest := make(map[pair]int)
	for i, in := range interactions {
		if in.Kind != KindRating {
			continue
		}
		key := pair{in.UserID, in.ProductID}
		if j, ok := latest[key]; ok && interactions[j].Timestamp.After(in.Timestamp) {
			continue
		}
		latest[key] = i
	}

	out := make([]Interaction, 0, len(interactions))
	for i, in := range interactions {
		if in.Kind == KindRating && latest[pair{in.UserID, in.ProductID}] != i {
			continue
		}
		out = append(out, in)
	}
	return out
}

// DedupProducts 按 ID 去重，保留首次出现的商品。
func DedupProducts(products []Product) []Product {
	seen := make(map[string]struct{}, len(products))
	out := make([]Product, 0, len(products))
	for _, p := range products {
		if _, ok := seen[p.ID]; ok {
			continue
		}
		seen[p.ID] = struct{}{}
		out = append(out, p)
	}
	return out
}

// DistinctUsers 返回行为中出现过的用户 ID（升序）。
func DistinctUsers(interactions []Interaction) []string {
	set := make(map[string]struct{})
	for _, in := range interactions {
		set[in.UserID] = struct{}{}
	}
	users := make([]string, 0, len(set))
	for u := range set {
		users = append(users, u)
	}
	sort.Strings(users)
	return users
}
