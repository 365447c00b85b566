// Package model 提供用户-商品矩阵与截断 SVD 隐因子模型。
package model

import (
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/rushteam/hybridrec/core"
)

// UserProductMatrix 是加权后的用户 × 商品矩阵。
// 行按用户 ID 升序，列按商品 ID 升序；单元格为权重之和，不做归一化。
type UserProductMatrix struct {
	UserIDs    []string
	ProductIDs []string
	Data       *mat.Dense

	userPos    map[string]int
	productPos map[string]int
}

// BuildUserProductMatrix 汇总行为构建矩阵。weight 为 nil 时使用 core.Weight。
// 没有行为时返回空矩阵（IsEmpty 为 true）。
func BuildUserProductMatrix(interactions []core.Interaction, weight core.WeightFunc) *UserProductMatrix {
	if weight == nil {
		weight = core.Weight
	}
	m := &UserProductMatrix{
		userPos:    make(map[string]int),
		productPos: make(map[string]int),
	}
	if len(interactions) == 0 {
		return m
	}

	users := make(map[string]struct{})
	products := make(map[string]struct{})
	for _, in := range interactions {
		users[in.UserID] = struct{}{}
		products[in.ProductID] = struct{}{}
	}
	m.UserIDs = sortedKeys(users)
	m.ProductIDs = sortedKeys(products)
	for i, u := range m.UserIDs {
		m.userPos[u] = i
	}
	for j, p := range m.ProductIDs {
		m.productPos[p] = j
	}

	m.Data = mat.NewDense(len(m.UserIDs), len(m.ProductIDs), nil)
	for _, in := range interactions {
		i, j := m.userPos[in.UserID], m.productPos[in.ProductID]
		m.Data.Set(i, j, m.Data.At(i, j)+weight(in.Kind))
	}
	return m
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// IsEmpty 判断矩阵是否为空。
func (m *UserProductMatrix) IsEmpty() bool {
	return m == nil || m.Data == nil || len(m.UserIDs) == 0 || len(m.ProductIDs) == 0
}

// Dims 返回 (用户数, 商品数)。
func (m *UserProductMatrix) Dims() (int, int) {
	if m.IsEmpty() {
		return 0, 0
	}
	return len(m.UserIDs), len(m.ProductIDs)
}

// UserRow 返回用户所在行号。
func (m *UserProductMatrix) UserRow(userID string) (int, bool) {
	if m == nil {
		return 0, false
	}
	i, ok := m.userPos[userID]
	return i, ok
}

// At 返回 (user, product) 的权重之和，不存在时为 0。
func (m *UserProductMatrix) At(userID, productID string) float64 {
	if m.IsEmpty() {
		return 0
	}
	i, ok := m.userPos[userID]
	if !ok {
		return 0
	}
	j, ok := m.productPos[productID]
	if !ok {
		return 0
	}
	return m.Data.At(i, j)
}

// Row 返回第 i 行的副本。
func (m *UserProductMatrix) Row(i int) []float64 {
	return mat.Row(nil, i, m.Data)
}

// InteractedProducts 返回第 i 行中权重为正的商品 ID，按列顺序。
func (m *UserProductMatrix) InteractedProducts(i int) []string {
	out := make([]string, 0)
	for j, p := range m.ProductIDs {
		if m.Data.At(i, j) > 0 {
			out = append(out, p)
		}
	}
	return out
}
