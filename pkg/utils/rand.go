package utils

import (
	"math/rand"
	"sync"
	"time"
)

// Float64Source 是 [0,1) 均匀随机数来源。
type Float64Source interface {
	Float64() float64
}

// LockedRand 是并发安全的随机数源。*rand.Rand 本身不是并发安全的。
type LockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

// NewLockedRand 使用给定种子创建随机数源；seed 为 0 时使用当前时间。
func NewLockedRand(seed int64) *LockedRand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &LockedRand{r: rand.New(rand.NewSource(seed))}
}

func (l *LockedRand) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Float64()
}

// ConstSource 总是返回同一个值，用于测试。
type ConstSource float64

func (c ConstSource) Float64() float64 { return float64(c) }
