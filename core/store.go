package core

import "context"

// CatalogReader 读取训练所需的全量商品与行为。
// 同一次 Train 内返回的数据应保持稳定。
type CatalogReader interface {
	ListProducts(ctx context.Context) ([]Product, error)
	ListInteractions(ctx context.Context) ([]Interaction, error)
}

// InteractionCounter 返回商品的行为总数（任意类型），用于热门兜底。
type InteractionCounter interface {
	CountProductInteractions(ctx context.Context, productID string) (int64, error)
}

// BatchInteractionCounter 一次返回多个商品的行为总数。缺失的商品不出现在结果中。
// 远程计数源（如 Feast）实现此接口以减少请求次数。
type BatchInteractionCounter interface {
	CountProductsInteractions(ctx context.Context, productIDs []string) (map[string]int64, error)
}

// InteractionReader 是推荐时读取用户实时行为的接口。
type InteractionReader interface {
	InteractionCounter

	// ListUserInteractions 返回用户的全部行为（按写入顺序）
	ListUserInteractions(ctx context.Context, userID string) ([]Interaction, error)

	// CountUserInteractions 返回用户的行为总数，用于冷启动阈值判断
	CountUserInteractions(ctx context.Context, userID string) (int64, error)
}

// InteractionWriter 记录用户行为。评分行为按 (user, product) 覆盖写入。
type InteractionWriter interface {
	RecordInteraction(ctx context.Context, in Interaction) error
}

// ProductStats 是单个商品的行为统计。
type ProductStats struct {
	ProductID     string  `json:"product_id"`
	Views         int64   `json:"views"`
	Wishlists     int64   `json:"wishlists"`
	Purchases     int64   `json:"purchases"`
	RatingCount   int64   `json:"rating_count"`
	AverageRating float64 `json:"average_rating"`
	Total         int64   `json:"total"`
}

// UserStats 是单个用户按行为类型的计数。
type UserStats struct {
	UserID string                    `json:"user_id"`
	ByKind map[InteractionKind]int64 `json:"by_kind"`
	Total  int64                     `json:"total"`
}

// Store 是商品与行为存储的领域接口。
//
// 实现：
//   - store.MemoryStore（测试/开发）
//   - store.RedisStore（生产）
type Store interface {
	CatalogReader
	InteractionReader
	InteractionWriter

	// Name 返回存储后端名称（用于日志/监控）
	Name() string

	// PutProducts 写入或覆盖商品
	PutProducts(ctx context.Context, products ...Product) error

	// GetProduct 读取单个商品，不存在时返回 ErrStoreNotFound
	GetProduct(ctx context.Context, productID string) (Product, error)

	ProductStats(ctx context.Context, productID string) (ProductStats, error)
	UserStats(ctx context.Context, userID string) (UserStats, error)

	// Close 关闭连接/释放资源
	Close() error
}

// Store 错误定义（使用统一的 DomainError）
var (
	// ErrStoreNotFound 表示 key 不存在
	ErrStoreNotFound = NewDomainError(ModuleStore, ErrorCodeNotFound, "store: key not found")

	// ErrInvalidRating 表示评分超出 1-5
	ErrInvalidRating = NewDomainError(ModuleStore, ErrorCodeInvalidInput, "store: rating must be between 1 and 5")
)

// IsStoreNotFound 检查错误是否为 key 不存在
func IsStoreNotFound(err error) bool {
	domainErr := GetDomainError(err)
	if domainErr != nil && domainErr.Module == ModuleStore {
		return domainErr.Code == ErrorCodeNotFound
	}
	return false
}
