package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rushteam/hybridrec/core"
)

func TestMemoryStore_Products(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	if err := s.PutProducts(ctx,
		core.Product{ID: "p2", Name: "Lamp"},
		core.Product{ID: "p1", Name: "Desk"},
	); err != nil {
		t.Fatal(err)
	}
	// 覆盖已有商品不改变顺序
	if err := s.PutProducts(ctx, core.Product{ID: "p2", Name: "Floor Lamp"}); err != nil {
		t.Fatal(err)
	}

	products, err := s.ListProducts(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(products) != 2 || products[0].ID != "p2" || products[1].ID != "p1" {
		t.Fatalf("products = %+v", products)
	}
	if products[0].Name != "Floor Lamp" {
		t.Errorf("name = %q, want updated", products[0].Name)
	}

	if _, err := s.GetProduct(ctx, "missing"); !core.IsStoreNotFound(err) {
		t.Errorf("GetProduct(missing) err = %v", err)
	}
	if err := s.PutProducts(ctx, core.Product{}); !core.IsInvalidInput(err) {
		t.Errorf("empty id err = %v", err)
	}
}

func TestMemoryStore_RatingUpsert(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	for _, r := range []int{2, 5, 4} {
		if err := s.RecordInteraction(ctx, core.Interaction{
			UserID: "u1", ProductID: "p1", Kind: core.KindRating, Rating: r,
		}); err != nil {
			t.Fatal(err)
		}
	}

	all, err := s.ListInteractions(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 1 || all[0].Rating != 4 {
		t.Fatalf("interactions = %+v, want single rating 4", all)
	}

	n, _ := s.CountUserInteractions(ctx, "u1")
	if n != 1 {
		t.Errorf("user count = %d, want 1", n)
	}
	n, _ = s.CountProductInteractions(ctx, "p1")
	if n != 1 {
		t.Errorf("product count = %d, want 1", n)
	}

	stats, err := s.ProductStats(ctx, "p1")
	if err != nil {
		t.Fatal(err)
	}
	if stats.RatingCount != 1 || stats.AverageRating != 4 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestMemoryStore_InvalidInteraction(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	tests := []struct {
		name string
		in   core.Interaction
	}{
		{"missing user", core.Interaction{ProductID: "p1", Kind: core.KindView}},
		{"rating too low", core.Interaction{UserID: "u1", ProductID: "p1", Kind: core.KindRating, Rating: 0}},
		{"rating too high", core.Interaction{UserID: "u1", ProductID: "p1", Kind: core.KindRating, Rating: 6}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := s.RecordInteraction(ctx, tt.in); err == nil {
				t.Error("expected error")
			}
		})
	}
	if err := s.RecordInteraction(ctx, tests[1].in); !errors.Is(err, core.ErrInvalidRating) {
		t.Errorf("err = %v, want ErrInvalidRating", err)
	}
	if all, _ := s.ListInteractions(ctx); len(all) != 0 {
		t.Errorf("invalid interactions were stored: %+v", all)
	}
}

func TestMemoryStore_Stats(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	fixed := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	records := []core.Interaction{
		{UserID: "u1", ProductID: "p1", Kind: core.KindView},
		{UserID: "u1", ProductID: "p1", Kind: core.KindView},
		{UserID: "u1", ProductID: "p1", Kind: core.KindPurchase},
		{UserID: "u2", ProductID: "p1", Kind: core.KindWishlist},
		{UserID: "u2", ProductID: "p1", Kind: core.KindRating, Rating: 3},
		{UserID: "u1", ProductID: "p1", Kind: core.KindRating, Rating: 5},
		{UserID: "u2", ProductID: "p2", Kind: core.KindClick},
	}
	for _, in := range records {
		if err := s.RecordInteraction(ctx, in); err != nil {
			t.Fatal(err)
		}
	}

	ps, err := s.ProductStats(ctx, "p1")
	if err != nil {
		t.Fatal(err)
	}
	want := core.ProductStats{
		ProductID: "p1", Views: 2, Wishlists: 1, Purchases: 1,
		RatingCount: 2, AverageRating: 4, Total: 6,
	}
	if ps != want {
		t.Errorf("ProductStats = %+v, want %+v", ps, want)
	}

	us, err := s.UserStats(ctx, "u2")
	if err != nil {
		t.Fatal(err)
	}
	if us.Total != 3 || us.ByKind[core.KindClick] != 1 || us.ByKind[core.KindRating] != 1 {
		t.Errorf("UserStats = %+v", us)
	}

	hist, _ := s.ListUserInteractions(ctx, "u2")
	if len(hist) != 3 {
		t.Fatalf("history = %d, want 3", len(hist))
	}
	if !hist[0].Timestamp.Equal(fixed) {
		t.Errorf("timestamp = %v, want %v", hist[0].Timestamp, fixed)
	}

	n, _ := s.CountProductInteractions(ctx, "unknown")
	if n != 0 {
		t.Errorf("unknown product count = %d", n)
	}
}
