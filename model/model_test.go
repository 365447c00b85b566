package model

import (
	"errors"
	"math"
	"reflect"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/rushteam/hybridrec/core"
)

func interactions() []core.Interaction {
	return []core.Interaction{
		{UserID: "u2", ProductID: "p1", Kind: core.KindView},
		{UserID: "u1", ProductID: "p1", Kind: core.KindView},
		{UserID: "u1", ProductID: "p1", Kind: core.KindPurchase},
		{UserID: "u1", ProductID: "p3", Kind: core.KindClick},
		{UserID: "u3", ProductID: "p2", Kind: core.KindRating, Rating: 4},
		{UserID: "u3", ProductID: "p4", Kind: core.KindWishlist},
		{UserID: "u4", ProductID: "p2", Kind: core.KindPurchase},
		{UserID: "u4", ProductID: "p3", Kind: core.KindView},
		{UserID: "u5", ProductID: "p4", Kind: core.KindClick},
		{UserID: "u5", ProductID: "p1", Kind: core.KindClick},
	}
}

func TestBuildUserProductMatrix(t *testing.T) {
	m := BuildUserProductMatrix(interactions(), nil)

	if !reflect.DeepEqual(m.UserIDs, []string{"u1", "u2", "u3", "u4", "u5"}) {
		t.Errorf("UserIDs = %v", m.UserIDs)
	}
	if !reflect.DeepEqual(m.ProductIDs, []string{"p1", "p2", "p3", "p4"}) {
		t.Errorf("ProductIDs = %v", m.ProductIDs)
	}

	tests := []struct {
		user, product string
		want          float64
	}{
		{"u1", "p1", 6},
		{"u1", "p3", 2},
		{"u1", "p2", 0},
		{"u3", "p2", 3},
		{"u3", "p4", 1},
		{"nobody", "p1", 0},
	}
	for _, tt := range tests {
		if got := m.At(tt.user, tt.product); got != tt.want {
			t.Errorf("At(%s,%s) = %v, want %v", tt.user, tt.product, got, tt.want)
		}
	}

	row, ok := m.UserRow("u4")
	if !ok {
		t.Fatal("u4 should be indexed")
	}
	if got := m.InteractedProducts(row); !reflect.DeepEqual(got, []string{"p2", "p3"}) {
		t.Errorf("InteractedProducts(u4) = %v", got)
	}
}

func TestBuildUserProductMatrix_Empty(t *testing.T) {
	m := BuildUserProductMatrix(nil, nil)
	if !m.IsEmpty() {
		t.Error("empty input should produce empty matrix")
	}
	if r, c := m.Dims(); r != 0 || c != 0 {
		t.Errorf("Dims = %d,%d", r, c)
	}
	if _, ok := m.UserRow("u1"); ok {
		t.Error("empty matrix has no rows")
	}
}

func TestBuildUserProductMatrix_CustomWeight(t *testing.T) {
	m := BuildUserProductMatrix(interactions(), func(core.InteractionKind) float64 { return 1 })
	if got := m.At("u1", "p1"); got != 2 {
		t.Errorf("At(u1,p1) = %v, want 2", got)
	}
}

func TestComponentCount(t *testing.T) {
	tests := []struct {
		name              string
		users, products   int
		max               int
		want              int
		wantTooFew        bool
	}{
		{"capped at max", 100, 200, 30, 30, false},
		{"limited by users", 5, 40, 30, 4, false},
		{"limited by products", 50, 3, 30, 2, false},
		{"single user", 1, 3, 30, 0, true},
		{"two products", 10, 2, 30, 0, true},
		{"default max", 100, 100, 0, 30, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ComponentCount(tt.users, tt.products, tt.max)
			if tt.wantTooFew {
				if !errors.Is(err, ErrTooFewComponents) {
					t.Errorf("err = %v, want ErrTooFewComponents", err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("ComponentCount = %d, %v; want %d", got, err, tt.want)
			}
		})
	}
}

func TestTruncatedSVD_Fit(t *testing.T) {
	m := BuildUserProductMatrix(interactions(), nil)
	svd := NewTruncatedSVD(SVDConfig{})
	if err := svd.Fit(m); err != nil {
		t.Fatalf("Fit: %v", err)
	}
	// 5 users, 4 products -> k = 3
	if svd.K() != 3 {
		t.Fatalf("K = %d, want 3", svd.K())
	}

	var full mat.SVD
	if !full.Factorize(m.Data, mat.SVDThin) {
		t.Fatal("reference svd failed")
	}
	want := full.Values(nil)
	for i, got := range svd.Singular {
		if math.Abs(got-want[i]) > 1e-6 {
			t.Errorf("singular[%d] = %v, want %v", i, got, want[i])
		}
	}

	// components are orthonormal
	var gram mat.Dense
	gram.Mul(svd.Components.T(), svd.Components)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			want := 0.0
			if i == j {
				want = 1
			}
			if math.Abs(gram.At(i, j)-want) > 1e-9 {
				t.Errorf("gram(%d,%d) = %v, want %v", i, j, gram.At(i, j), want)
			}
		}
	}
}

func TestTruncatedSVD_Reproducible(t *testing.T) {
	m := BuildUserProductMatrix(interactions(), nil)
	a, b := NewTruncatedSVD(SVDConfig{Seed: 7}), NewTruncatedSVD(SVDConfig{Seed: 7})
	if err := a.Fit(m); err != nil {
		t.Fatal(err)
	}
	if err := b.Fit(m); err != nil {
		t.Fatal(err)
	}
	if !mat.Equal(a.Components, b.Components) {
		t.Error("same seed and input should give identical components")
	}
}

func TestTruncatedSVD_Transform(t *testing.T) {
	m := BuildUserProductMatrix(interactions(), nil)
	svd := NewTruncatedSVD(DefaultSVDConfig())
	if _, err := svd.Transform([]float64{1, 2, 3, 4}); !errors.Is(err, ErrNotFitted) {
		t.Errorf("unfitted Transform err = %v", err)
	}
	if err := svd.Fit(m); err != nil {
		t.Fatal(err)
	}

	all, err := svd.TransformMatrix(m)
	if err != nil {
		t.Fatal(err)
	}
	row, _ := m.UserRow("u3")
	one, err := svd.Transform(m.Row(row))
	if err != nil {
		t.Fatal(err)
	}
	for j, v := range one {
		if math.Abs(v-all.At(row, j)) > 1e-12 {
			t.Errorf("Transform[%d] = %v, TransformMatrix = %v", j, v, all.At(row, j))
		}
	}

	if _, err := svd.Transform([]float64{1}); err == nil {
		t.Error("wrong row length should fail")
	}
}

func TestTruncatedSVD_TooFew(t *testing.T) {
	m := BuildUserProductMatrix([]core.Interaction{
		{UserID: "u", ProductID: "a", Kind: core.KindView},
		{UserID: "u", ProductID: "b", Kind: core.KindClick},
	}, nil)
	svd := NewTruncatedSVD(DefaultSVDConfig())
	if err := svd.Fit(m); !errors.Is(err, ErrTooFewComponents) {
		t.Errorf("Fit err = %v, want ErrTooFewComponents", err)
	}
	if svd.K() != 0 {
		t.Error("skipped fit should leave K = 0")
	}
	if err := svd.Fit(BuildUserProductMatrix(nil, nil)); !core.IsUnavailable(err) {
		t.Errorf("empty matrix err = %v", err)
	}
}

func TestMostSimilarRows(t *testing.T) {
	rows := mat.NewDense(4, 2, []float64{
		1, 0,
		0, 1,
		1, 0,
		1, 1,
	})
	got := MostSimilarRows([]float64{1, 0}, rows, 3)
	wantRows := []int{0, 2, 3}
	for i, r := range got {
		if r.Row != wantRows[i] {
			t.Errorf("rank %d row = %d, want %d", i, r.Row, wantRows[i])
		}
	}
	if math.Abs(got[0].Similarity-1) > 1e-12 {
		t.Errorf("self similarity = %v", got[0].Similarity)
	}
	if MostSimilarRows([]float64{1, 0}, rows, 0) != nil {
		t.Error("n=0 should return nil")
	}
	if Cosine([]float64{0, 0}, []float64{1, 1}) != 0 {
		t.Error("zero vector cosine should be 0")
	}
}
