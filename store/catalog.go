package store

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/rushteam/hybridrec/core"
)

// Catalog 是 YAML 格式的商品与行为种子数据。
//
//	products:
//	  - id: p1
//	    name: Trail Running Shoe
//	    category: sports
//	interactions:
//	  - user_id: u1
//	    product_id: p1
//	    kind: purchase
type Catalog struct {
	Products     []core.Product     `yaml:"products"`
	Interactions []core.Interaction `yaml:"interactions"`
}

// LoadCatalog 从 YAML 文件加载种子数据。
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return ParseCatalog(data)
}

// ParseCatalog 解析 YAML 种子数据。
func ParseCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	for i, in := range c.Interactions {
		if !in.Kind.Valid() {
			return nil, fmt.Errorf("parse catalog: interaction %d: unknown kind %q", i, in.Kind)
		}
	}
	return &c, nil
}

// Seed 把种子数据写入 Store。商品先写入，行为按文件顺序写入。
// Store 中已有商品时视为已初始化，不写入并返回 false，重复启动不会重复追加行为。
func (c *Catalog) Seed(ctx context.Context, s core.Store) (bool, error) {
	existing, err := s.ListProducts(ctx)
	if err != nil {
		return false, fmt.Errorf("check existing products: %w", err)
	}
	if len(existing) > 0 {
		return false, nil
	}
	if err := s.PutProducts(ctx, c.Products...); err != nil {
		return false, err
	}
	for i, in := range c.Interactions {
		if err := s.RecordInteraction(ctx, in); err != nil {
			return true, fmt.Errorf("seed interaction %d: %w", i, err)
		}
	}
	return true, nil
}
