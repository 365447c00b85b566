package engine

import (
	"time"

	"github.com/rushteam/hybridrec/feature"
	"github.com/rushteam/hybridrec/recall"
)

// Snapshot 是一次训练的完整产物，发布后只读。
// Content 为 nil 表示没有商品可向量化；Collab 为 nil 表示没有行为。
type Snapshot struct {
	Content   *feature.ContentIndex
	Collab    *recall.CollabIndex
	TrainedAt time.Time
	Version   uint64
}

// Products 返回内容索引中的商品数。
func (s *Snapshot) Products() int {
	if s == nil {
		return 0
	}
	return s.Content.Len()
}

// Users 返回用户-商品矩阵中的用户数。
func (s *Snapshot) Users() int {
	if s == nil {
		return 0
	}
	return s.Collab.Users()
}

// Components 返回隐因子维度，跳过分解时为 0。
func (s *Snapshot) Components() int {
	if s == nil || s.Collab == nil {
		return 0
	}
	return s.Collab.SVD.K()
}

// Status 是模型状态，供运维与监控使用。
type Status struct {
	Trained       bool      `json:"trained"`
	TrainedAt     time.Time `json:"trained_at,omitempty"`
	Version       uint64    `json:"version"`
	Products      int       `json:"products"`
	Users         int       `json:"users"`
	Components    int       `json:"components"`
	Collaborative bool      `json:"collaborative"`
}

// TrainStats 是一次 TrainFromStore 的统计。
type TrainStats struct {
	Products     int           `json:"products"`
	Interactions int           `json:"interactions"`
	Users        int           `json:"users"`
	TrainedAt    time.Time     `json:"trained_at"`
	Duration     time.Duration `json:"duration"`
	Success      bool          `json:"success"`
}
