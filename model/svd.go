package model

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/rushteam/hybridrec/core"
)

const (
	DefaultMaxComponents = 30
	DefaultIterations    = 20
	DefaultOversamples   = 10
	DefaultSeed          = 42

	// MinComponents 是进行分解所需的最少成分数
	MinComponents = 2
)

var (
	// ErrTooFewComponents 表示用户或商品过少，跳过分解
	ErrTooFewComponents = core.NewDomainError(core.ModuleModel, core.ErrorCodeUnavailable, "model: too few users or products for factorization")

	// ErrNotFitted 表示模型尚未拟合
	ErrNotFitted = core.NewDomainError(core.ModuleModel, core.ErrorCodeUnavailable, "model: svd not fitted")
)

// ComponentCount 计算成分数：min(max, users-1, products-1)。
// 结果小于 MinComponents 时返回 ErrTooFewComponents。
func ComponentCount(nUsers, nProducts, maxComponents int) (int, error) {
	if maxComponents <= 0 {
		maxComponents = DefaultMaxComponents
	}
	k := min(maxComponents, nUsers-1, nProducts-1)
	if k < MinComponents {
		return 0, ErrTooFewComponents
	}
	return k, nil
}

// SVDConfig 是截断 SVD 的参数。
type SVDConfig struct {
	MaxComponents int
	Iterations    int
	Oversamples   int
	Seed          int64
}

// DefaultSVDConfig 返回默认参数。
func DefaultSVDConfig() SVDConfig {
	return SVDConfig{
		MaxComponents: DefaultMaxComponents,
		Iterations:    DefaultIterations,
		Oversamples:   DefaultOversamples,
		Seed:          DefaultSeed,
	}
}

// TruncatedSVD 是基于随机化子空间迭代的截断 SVD。
// 固定种子与输入时结果可复现；每个成分的符号约定为绝对值最大的分量为正。
type TruncatedSVD struct {
	Config SVDConfig

	// Components 是 商品数 × k 的右奇异向量
	Components *mat.Dense
	// Singular 是前 k 个奇异值（降序）
	Singular []float64
}

// NewTruncatedSVD 创建模型，零值参数使用默认值。
func NewTruncatedSVD(cfg SVDConfig) *TruncatedSVD {
	def := DefaultSVDConfig()
	if cfg.MaxComponents <= 0 {
		cfg.MaxComponents = def.MaxComponents
	}
	if cfg.Iterations < 0 {
		cfg.Iterations = def.Iterations
	}
	if cfg.Oversamples <= 0 {
		cfg.Oversamples = def.Oversamples
	}
	if cfg.Seed == 0 {
		cfg.Seed = def.Seed
	}
	return &TruncatedSVD{Config: cfg}
}

// K 返回成分数，未拟合时为 0。
func (s *TruncatedSVD) K() int {
	if s == nil || s.Components == nil {
		return 0
	}
	_, k := s.Components.Dims()
	return k
}

// Fit 对矩阵做分解。成分数不足时返回 ErrTooFewComponents。
func (s *TruncatedSVD) Fit(m *UserProductMatrix) error {
	if m.IsEmpty() {
		return ErrTooFewComponents
	}
	a := m.Data
	rows, cols := a.Dims()
	k, err := ComponentCount(rows, cols, s.Config.MaxComponents)
	if err != nil {
		return err
	}
	l := min(k+s.Config.Oversamples, rows, cols)

	rng := rand.New(rand.NewSource(s.Config.Seed))
	omega := mat.NewDense(cols, l, nil)
	for i := 0; i < cols; i++ {
		for j := 0; j < l; j++ {
			omega.Set(i, j, rng.NormFloat64())
		}
	}

	// 子空间迭代：Q = orth(A Ω)，再交替左乘 Aᵀ、A
	q := mat.NewDense(rows, l, nil)
	q.Mul(a, omega)
	orthonormalize(q)
	z := mat.NewDense(cols, l, nil)
	for it := 0; it < s.Config.Iterations; it++ {
		z.Mul(a.T(), q)
		orthonormalize(z)
		q.Mul(a, z)
		orthonormalize(q)
	}

	b := mat.NewDense(l, cols, nil)
	b.Mul(q.T(), a)

	var svd mat.SVD
	if ok := svd.Factorize(b, mat.SVDThin); !ok {
		return core.NewDomainError(core.ModuleModel, core.ErrorCodeInternalError, "model: svd factorization failed")
	}
	var v mat.Dense
	svd.VTo(&v)
	values := svd.Values(nil)

	comps := mat.DenseCopyOf(v.Slice(0, cols, 0, k))
	flipSigns(comps)

	for _, x := range values[:k] {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return core.NewDomainError(core.ModuleModel, core.ErrorCodeInternalError, "model: non-finite singular value")
		}
	}

	s.Components = comps
	s.Singular = append([]float64(nil), values[:k]...)
	return nil
}

// Transform 把一行（长度为商品数）投影到隐空间。
func (s *TruncatedSVD) Transform(row []float64) ([]float64, error) {
	if s.K() == 0 {
		return nil, ErrNotFitted
	}
	n, k := s.Components.Dims()
	if len(row) != n {
		return nil, fmt.Errorf("model: row has %d columns, want %d", len(row), n)
	}
	out := mat.NewVecDense(k, nil)
	out.MulVec(s.Components.T(), mat.NewVecDense(n, append([]float64(nil), row...)))
	return out.RawVector().Data, nil
}

// TransformMatrix 把整个矩阵投影到隐空间，返回 用户数 × k 的矩阵。
func (s *TruncatedSVD) TransformMatrix(m *UserProductMatrix) (*mat.Dense, error) {
	if s.K() == 0 {
		return nil, ErrNotFitted
	}
	if m.IsEmpty() {
		return nil, fmt.Errorf("model: empty matrix")
	}
	rows, cols := m.Data.Dims()
	n, k := s.Components.Dims()
	if cols != n {
		return nil, fmt.Errorf("model: matrix has %d columns, want %d", cols, n)
	}
	out := mat.NewDense(rows, k, nil)
	out.Mul(m.Data, s.Components)
	return out, nil
}

// orthonormalize 用改进 Gram-Schmidt 原地正交化列；退化列置零。
func orthonormalize(m *mat.Dense) {
	raw := m.RawMatrix()
	rows, cols, stride, data := raw.Rows, raw.Cols, raw.Stride, raw.Data
	for j := 0; j < cols; j++ {
		for i := 0; i < j; i++ {
			var dot float64
			for r := 0; r < rows; r++ {
				dot += data[r*stride+j] * data[r*stride+i]
			}
			for r := 0; r < rows; r++ {
				data[r*stride+j] -= dot * data[r*stride+i]
			}
		}
		var norm float64
		for r := 0; r < rows; r++ {
			norm += data[r*stride+j] * data[r*stride+j]
		}
		norm = math.Sqrt(norm)
		for r := 0; r < rows; r++ {
			if norm < 1e-12 {
				data[r*stride+j] = 0
			} else {
				data[r*stride+j] /= norm
			}
		}
	}
}

// flipSigns 使每列绝对值最大的分量为正。
func flipSigns(m *mat.Dense) {
	r, c := m.Dims()
	for j := 0; j < c; j++ {
		best, bestAbs := 0, -1.0
		for i := 0; i < r; i++ {
			if v := math.Abs(m.At(i, j)); v > bestAbs {
				best, bestAbs = i, v
			}
		}
		if m.At(best, j) < 0 {
			for i := 0; i < r; i++ {
				m.Set(i, j, -m.At(i, j))
			}
		}
	}
}
