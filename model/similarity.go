package model

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// Cosine 返回两个向量的余弦相似度；任一为零向量时返回 0。
func Cosine(a, b []float64) float64 {
	var dot, na, nb float64
	for i := range a {
		if i >= len(b) {
			break
		}
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// RankedRow 是行号及其相似度。
type RankedRow struct {
	Row        int
	Similarity float64
}

// MostSimilarRows 按与 target 的余弦相似度降序返回前 n 行，同分按行号升序。
// target 自身所在的行不会被排除。
func MostSimilarRows(target []float64, rows *mat.Dense, n int) []RankedRow {
	if rows == nil || n <= 0 {
		return nil
	}
	r, _ := rows.Dims()
	ranked := make([]RankedRow, r)
	for i := 0; i < r; i++ {
		ranked[i] = RankedRow{Row: i, Similarity: Cosine(target, rows.RawRowView(i))}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Similarity > ranked[j].Similarity
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}
