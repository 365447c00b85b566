// Package feature 从商品文本构建内容特征（TF-IDF）。
package feature

import (
	"math"
	"sort"

	"github.com/rushteam/hybridrec/core"
)

const (
	// DefaultMaxFeatures 是默认词表上限
	DefaultMaxFeatures = 1000
)

// Vectorizer 是 TF-IDF 向量化器。
//
// 规则：
//   - 分词：小写，至少两个字符的词，剔除停用词
//   - 词表：按语料总词频取前 MaxFeatures 个（同频按字典序），最终按字典序排列
//   - 权重：原始词频 × 平滑 IDF：ln((1+n)/(1+df)) + 1
//   - 每行做 L2 归一化
//
// Vectorizer 本身无状态，每次 FitTransform 都重新拟合。
type Vectorizer struct {
	MaxFeatures int
	StopWords   map[string]struct{}
}

// NewVectorizer 创建使用英文停用词的向量化器。maxFeatures <= 0 时使用默认值。
func NewVectorizer(maxFeatures int) *Vectorizer {
	if maxFeatures <= 0 {
		maxFeatures = DefaultMaxFeatures
	}
	return &Vectorizer{
		MaxFeatures: maxFeatures,
		StopWords:   EnglishStopWords(),
	}
}

// ContentIndex 是拟合结果：商品 × 词 的 TF-IDF 矩阵及行对应的商品 ID。
type ContentIndex struct {
	Vocabulary []string
	IDF        []float64
	ProductIDs []string
	// Rows[i] 是 ProductIDs[i] 的归一化稀疏向量：词下标 -> 权重
	Rows []map[int]float64

	position map[string]int
}

// FitTransform 对商品文本拟合词表并返回内容索引。
// 没有商品时返回 nil，表示内容特征不可用。
func (v *Vectorizer) FitTransform(products []core.Product) *ContentIndex {
	if len(products) == 0 {
		return nil
	}

	docs := make([]map[string]int, len(products))
	corpusFreq := make(map[string]int)
	docFreq := make(map[string]int)
	for i, p := range products {
		counts := make(map[string]int)
		for _, tok := range Tokenize(p.Text(), v.StopWords) {
			counts[tok]++
		}
		for term, c := range counts {
			corpusFreq[term] += c
			docFreq[term]++
		}
		docs[i] = counts
	}

	vocab := v.selectVocabulary(corpusFreq)
	termIndex := make(map[string]int, len(vocab))
	for i, term := range vocab {
		termIndex[term] = i
	}

	n := float64(len(products))
	idf := make([]float64, len(vocab))
	for i, term := range vocab {
		idf[i] = math.Log((1+n)/(1+float64(docFreq[term]))) + 1
	}

	idx := &ContentIndex{
		Vocabulary: vocab,
		IDF:        idf,
		ProductIDs: make([]string, len(products)),
		Rows:       make([]map[int]float64, len(products)),
		position:   make(map[string]int, len(products)),
	}
	for i, p := range products {
		row := make(map[int]float64)
		var norm float64
		for term, c := range docs[i] {
			j, ok := termIndex[term]
			if !ok {
				continue
			}
			w := float64(c) * idf[j]
			row[j] = w
			norm += w * w
		}
		if norm > 0 {
			norm = math.Sqrt(norm)
			for j := range row {
				row[j] /= norm
			}
		}
		idx.ProductIDs[i] = p.ID
		idx.Rows[i] = row
		if _, dup := idx.position[p.ID]; !dup {
			idx.position[p.ID] = i
		}
	}
	return idx
}

func (v *Vectorizer) selectVocabulary(corpusFreq map[string]int) []string {
	terms := make([]string, 0, len(corpusFreq))
	for term := range corpusFreq {
		terms = append(terms, term)
	}
	sort.Strings(terms)

	limit := v.MaxFeatures
	if limit <= 0 {
		limit = DefaultMaxFeatures
	}
	if len(terms) > limit {
		sort.SliceStable(terms, func(i, j int) bool {
			return corpusFreq[terms[i]] > corpusFreq[terms[j]]
		})
		terms = terms[:limit]
		sort.Strings(terms)
	}
	return terms
}

// Len 返回索引中的商品数。
func (c *ContentIndex) Len() int {
	if c == nil {
		return 0
	}
	return len(c.ProductIDs)
}

// Row 返回商品所在行号。
func (c *ContentIndex) Row(productID string) (int, bool) {
	if c == nil {
		return 0, false
	}
	i, ok := c.position[productID]
	return i, ok
}

// Similarity 返回两行的余弦相似度。行已归一化，直接点积即可。
func (c *ContentIndex) Similarity(i, j int) float64 {
	a, b := c.Rows[i], c.Rows[j]
	if len(a) > len(b) {
		a, b = b, a
	}
	var dot float64
	for k, va := range a {
		dot += va * b[k]
	}
	return dot
}

// MeanSimilarity 返回商品与一组行的平均相似度；商品不在索引中时返回 0。
func (c *ContentIndex) MeanSimilarity(productID string, rows []int) float64 {
	i, ok := c.Row(productID)
	if !ok || len(rows) == 0 {
		return 0
	}
	var sum float64
	for _, r := range rows {
		sum += c.Similarity(i, r)
	}
	return sum / float64(len(rows))
}
