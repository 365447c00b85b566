package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rushteam/hybridrec/core"
)

const testCatalog = `
products:
  - id: p1
    name: Trail Running Shoe
    description: Lightweight shoe for trail running
    category: sports
    price: 89.5
  - id: p2
    name: Chef Knife
    category: kitchen
interactions:
  - user_id: u1
    product_id: p1
    kind: purchase
  - user_id: u1
    product_id: p2
    kind: rating
    rating: 4
    timestamp: 2024-03-01T10:00:00Z
`

func TestLoadCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	if err := os.WriteFile(path, []byte(testCatalog), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := LoadCatalog(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(c.Products) != 2 || c.Products[0].Price != 89.5 {
		t.Fatalf("products = %+v", c.Products)
	}
	if len(c.Interactions) != 2 || c.Interactions[1].Rating != 4 || c.Interactions[1].Timestamp.Year() != 2024 {
		t.Fatalf("interactions = %+v", c.Interactions)
	}

	ctx := context.Background()
	s := NewMemoryStore()
	if seeded, err := c.Seed(ctx, s); err != nil || !seeded {
		t.Fatalf("Seed = %v, %v", seeded, err)
	}
	n, _ := s.CountUserInteractions(ctx, "u1")
	if n != 2 {
		t.Errorf("user count = %d, want 2", n)
	}
	p, err := s.GetProduct(ctx, "p2")
	if err != nil || p.Category != "kitchen" {
		t.Errorf("GetProduct = %+v, %v", p, err)
	}
}

func TestParseCatalog_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"bad yaml", "products: [\n"},
		{"unknown kind", "interactions:\n  - user_id: u1\n    product_id: p1\n    kind: like\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseCatalog([]byte(tt.data)); err == nil {
				t.Error("expected error")
			}
		})
	}
	if _, err := LoadCatalog(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("missing file should fail")
	}
}

func TestCatalog_SeedInvalidRating(t *testing.T) {
	c, err := ParseCatalog([]byte("interactions:\n  - user_id: u1\n    product_id: p1\n    kind: rating\n    rating: 9\n"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.Seed(context.Background(), NewMemoryStore()); err == nil {
		t.Error("rating out of range should fail to seed")
	}
}

func TestCatalog_SeedTwice(t *testing.T) {
	c, err := ParseCatalog([]byte(testCatalog))
	if err != nil {
		t.Fatal(err)
	}

	// open 返回指向同一份数据的两个 Store，相当于两次进程启动
	tests := []struct {
		name string
		open func(t *testing.T) (core.Store, core.Store)
	}{
		{"memory", func(*testing.T) (core.Store, core.Store) {
			s := NewMemoryStore()
			return s, s
		}},
		{"redis", func(t *testing.T) (core.Store, core.Store) {
			client := newTestRedisClient(t)
			first := NewRedisStoreWithClient(client, testRedisPrefix())
			t.Cleanup(func() { _ = first.Flush(context.Background()) })
			return first, NewRedisStoreWithClient(client, first.prefix)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			first, second := tt.open(t)
			if seeded, err := c.Seed(ctx, first); err != nil || !seeded {
				t.Fatalf("first Seed = %v, %v", seeded, err)
			}
			if seeded, err := c.Seed(ctx, second); err != nil || seeded {
				t.Fatalf("second Seed = %v, %v, want skipped", seeded, err)
			}

			if n, _ := second.CountUserInteractions(ctx, "u1"); n != 2 {
				t.Errorf("u1 count = %d, want 2", n)
			}
			if n, _ := second.CountProductInteractions(ctx, "p1"); n != 1 {
				t.Errorf("p1 count = %d, want 1", n)
			}
			if all, _ := second.ListInteractions(ctx); len(all) != 2 {
				t.Errorf("interactions = %d, want 2", len(all))
			}
		})
	}
}
