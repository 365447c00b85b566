package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"github.com/rushteam/hybridrec/core"
)

// DefaultRedisPrefix 是 Redis key 的默认前缀。
const DefaultRedisPrefix = "hybridrec:"

// maxUpsertRetries 是评分写入遇到并发冲突时的最大尝试次数。
const maxUpsertRetries = 32

// RedisStore 是 Redis 实现的 Store，生产环境使用。
//
// Key 布局（prefix 默认 "hybridrec:"）：
//
//	products                  hash   product id -> product JSON
//	interactions              list   非评分行为 JSON
//	ratings                   hash   user|product -> 评分 JSON（覆盖写）
//	user:<id>:interactions    list   用户非评分行为
//	user:<id>:ratings         hash   product id -> 评分 JSON
//	user:<id>:stats           hash   kind -> 次数
//	user_counts               hash   user id -> 行为总数
//	product:<id>:stats        hash   kind -> 次数，rating_sum
//	popularity                zset   product id -> 行为总数
type RedisStore struct {
	client *redis.Client
	prefix string
	now    func() time.Time
}

// NewRedisStore 连接 Redis 并检查可用性。
func NewRedisStore(addr string, db int, prefix string) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return NewRedisStoreWithClient(client, prefix), nil
}

// NewRedisStoreWithClient 使用已有客户端创建 Store。
func NewRedisStoreWithClient(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisStore{client: client, prefix: prefix, now: time.Now}
}

func (r *RedisStore) Name() string { return "redis" }

func (r *RedisStore) key(parts ...string) string {
	k := r.prefix
	for i, p := range parts {
		if i > 0 {
			k += ":"
		}
		k += p
	}
	return k
}

func ratingField(userID, productID string) string {
	return userID + "|" + productID
}

func (r *RedisStore) PutProducts(ctx context.Context, products ...core.Product) error {
	if len(products) == 0 {
		return nil
	}
	values := make(map[string]interface{}, len(products))
	for _, p := range products {
		if p.ID == "" {
			return core.NewDomainError(core.ModuleStore, core.ErrorCodeInvalidInput, "store: product id is required")
		}
		data, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("marshal product %s: %w", p.ID, err)
		}
		values[p.ID] = data
	}
	return r.client.HSet(ctx, r.key("products"), values).Err()
}

func (r *RedisStore) GetProduct(ctx context.Context, productID string) (core.Product, error) {
	data, err := r.client.HGet(ctx, r.key("products"), productID).Bytes()
	if errors.Is(err, redis.Nil) {
		return core.Product{}, core.ErrStoreNotFound
	}
	if err != nil {
		return core.Product{}, err
	}
	var p core.Product
	if err := json.Unmarshal(data, &p); err != nil {
		return core.Product{}, fmt.Errorf("unmarshal product %s: %w", productID, err)
	}
	return p, nil
}

// ListProducts 返回全部商品，按 ID 升序。
func (r *RedisStore) ListProducts(ctx context.Context) ([]core.Product, error) {
	vals, err := r.client.HGetAll(ctx, r.key("products")).Result()
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(vals))
	for id := range vals {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]core.Product, 0, len(ids))
	for _, id := range ids {
		var p core.Product
		if err := json.Unmarshal([]byte(vals[id]), &p); err != nil {
			return nil, fmt.Errorf("unmarshal product %s: %w", id, err)
		}
		out = append(out, p)
	}
	return out, nil
}

// RecordInteraction 写入行为。评分按 (user, product) 覆盖，只有首次评分计入计数。
func (r *RedisStore) RecordInteraction(ctx context.Context, in core.Interaction) error {
	if err := in.Validate(); err != nil {
		return err
	}
	if in.Timestamp.IsZero() {
		in.Timestamp = r.now()
	}
	data, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal interaction: %w", err)
	}

	if in.Kind != core.KindRating {
		_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.RPush(ctx, r.key("interactions"), data)
			pipe.RPush(ctx, r.key("user", in.UserID, "interactions"), data)
			r.countNew(ctx, pipe, in)
			return nil
		})
		return err
	}

	// 以用户评分 hash 为乐观锁：读旧评分与写入在同一事务内，并发写同一用户时重试
	userRatings := r.key("user", in.UserID, "ratings")
	upsert := func(tx *redis.Tx) error {
		oldRating := 0
		old, err := tx.HGet(ctx, userRatings, in.ProductID).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
		case err != nil:
			return err
		default:
			var prev core.Interaction
			if err := json.Unmarshal(old, &prev); err != nil {
				return fmt.Errorf("unmarshal rating: %w", err)
			}
			oldRating = prev.Rating
		}
		isNew := old == nil

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, r.key("ratings"), ratingField(in.UserID, in.ProductID), data)
			pipe.HSet(ctx, userRatings, in.ProductID, data)
			pipe.HIncrBy(ctx, r.key("product", in.ProductID, "stats"), "rating_sum", int64(in.Rating-oldRating))
			if isNew {
				r.countNew(ctx, pipe, in)
			}
			return nil
		})
		return err
	}

	for i := 0; i < maxUpsertRetries; i++ {
		err := r.client.Watch(ctx, upsert, userRatings)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
	}
	return core.NewDomainError(core.ModuleStore, core.ErrorCodeUnavailable, "store: rating upsert retries exhausted")
}

func (r *RedisStore) countNew(ctx context.Context, pipe redis.Pipeliner, in core.Interaction) {
	pipe.HIncrBy(ctx, r.key("user_counts"), in.UserID, 1)
	pipe.HIncrBy(ctx, r.key("user", in.UserID, "stats"), string(in.Kind), 1)
	pipe.HIncrBy(ctx, r.key("product", in.ProductID, "stats"), string(in.Kind), 1)
	pipe.ZIncrBy(ctx, r.key("popularity"), 1, in.ProductID)
}

func decodeInteractions(raw []string) ([]core.Interaction, error) {
	out := make([]core.Interaction, 0, len(raw))
	for _, s := range raw {
		var in core.Interaction
		if err := json.Unmarshal([]byte(s), &in); err != nil {
			return nil, fmt.Errorf("unmarshal interaction: %w", err)
		}
		out = append(out, in)
	}
	return out, nil
}

// ListInteractions 返回全部行为：非评分行为按写入顺序，随后是当前评分。
func (r *RedisStore) ListInteractions(ctx context.Context) ([]core.Interaction, error) {
	return r.listInteractions(ctx, r.key("interactions"), r.key("ratings"))
}

func (r *RedisStore) ListUserInteractions(ctx context.Context, userID string) ([]core.Interaction, error) {
	return r.listInteractions(ctx, r.key("user", userID, "interactions"), r.key("user", userID, "ratings"))
}

func (r *RedisStore) listInteractions(ctx context.Context, listKey, ratingKey string) ([]core.Interaction, error) {
	var (
		listCmd   *redis.StringSliceCmd
		ratingCmd *redis.MapStringStringCmd
	)
	_, err := r.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		listCmd = pipe.LRange(ctx, listKey, 0, -1)
		ratingCmd = pipe.HGetAll(ctx, ratingKey)
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, err
	}

	out, err := decodeInteractions(listCmd.Val())
	if err != nil {
		return nil, err
	}
	ratingMap := ratingCmd.Val()
	fields := make([]string, 0, len(ratingMap))
	for f := range ratingMap {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	raw := make([]string, 0, len(fields))
	for _, f := range fields {
		raw = append(raw, ratingMap[f])
	}
	ratings, err := decodeInteractions(raw)
	if err != nil {
		return nil, err
	}
	return append(out, ratings...), nil
}

func (r *RedisStore) CountUserInteractions(ctx context.Context, userID string) (int64, error) {
	n, err := r.client.HGet(ctx, r.key("user_counts"), userID).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return n, err
}

func (r *RedisStore) CountProductInteractions(ctx context.Context, productID string) (int64, error) {
	score, err := r.client.ZScore(ctx, r.key("popularity"), productID).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return int64(score), err
}

func (r *RedisStore) ProductStats(ctx context.Context, productID string) (core.ProductStats, error) {
	vals, err := r.client.HGetAll(ctx, r.key("product", productID, "stats")).Result()
	if err != nil {
		return core.ProductStats{}, err
	}
	get := func(field string) int64 {
		n, _ := strconv.ParseInt(vals[field], 10, 64)
		return n
	}
	stats := core.ProductStats{
		ProductID:   productID,
		Views:       get(string(core.KindView)),
		Wishlists:   get(string(core.KindWishlist)),
		Purchases:   get(string(core.KindPurchase)),
		RatingCount: get(string(core.KindRating)),
	}
	for field, v := range vals {
		if field == "rating_sum" {
			continue
		}
		n, _ := strconv.ParseInt(v, 10, 64)
		stats.Total += n
	}
	if stats.RatingCount > 0 {
		stats.AverageRating = float64(get("rating_sum")) / float64(stats.RatingCount)
	}
	return stats, nil
}

func (r *RedisStore) UserStats(ctx context.Context, userID string) (core.UserStats, error) {
	vals, err := r.client.HGetAll(ctx, r.key("user", userID, "stats")).Result()
	if err != nil {
		return core.UserStats{}, err
	}
	stats := core.UserStats{UserID: userID, ByKind: make(map[core.InteractionKind]int64, len(vals))}
	for kind, v := range vals {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			continue
		}
		stats.ByKind[core.InteractionKind(kind)] = n
		stats.Total += n
	}
	return stats, nil
}

// Flush 删除当前前缀下的所有 key，仅用于测试与重建。
func (r *RedisStore) Flush(ctx context.Context) error {
	iter := r.client.Scan(ctx, 0, r.prefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return r.client.Del(ctx, keys...).Err()
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}

var _ core.Store = (*RedisStore)(nil)
