// Package config 加载推荐引擎配置并注册可配置的 Pipeline 节点。
//
// 配置按以下顺序叠加，后者覆盖前者：
//  1. 结构体默认值
//  2. YAML 文件（路径来自参数、HYBRIDREC_CONFIG 或 ./config.yaml）
//  3. 环境变量：HYBRIDREC_ 前缀，"__" 表示层级，例如
//     HYBRIDREC_STORE__BACKEND=redis -> store.backend
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

const (
	// EnvPrefix 是环境变量前缀。
	EnvPrefix = "HYBRIDREC_"
	// PathEnvVar 指定配置文件路径。
	PathEnvVar = "HYBRIDREC_CONFIG"
	// DefaultPath 是默认配置文件路径，不存在时忽略。
	DefaultPath = "config.yaml"
)

type Config struct {
	Log       LogConfig       `koanf:"log"`
	Store     StoreConfig     `koanf:"store"`
	Feast     FeastConfig     `koanf:"feast"`
	Content   ContentConfig   `koanf:"content"`
	SVD       SVDConfig       `koanf:"svd"`
	Recommend RecommendConfig `koanf:"recommend"`
	Metrics   MetricsConfig   `koanf:"metrics"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// StoreConfig 选择行为存储。Catalog 非空时启动后写入种子数据。
type StoreConfig struct {
	Backend     string `koanf:"backend"` // memory | redis
	RedisAddr   string `koanf:"redis_addr"`
	RedisDB     int    `koanf:"redis_db"`
	RedisPrefix string `koanf:"redis_prefix"`
	Catalog     string `koanf:"catalog"`
}

// FeastConfig 配置热门兜底的计数来源。
type FeastConfig struct {
	Enabled  bool          `koanf:"enabled"`
	Endpoint string        `koanf:"endpoint"`
	Project  string        `koanf:"project"`
	Feature  string        `koanf:"feature"`
	Token    string        `koanf:"token"`
	Timeout  time.Duration `koanf:"timeout"`
}

type ContentConfig struct {
	MaxFeatures int  `koanf:"max_features"`
	StopWords   bool `koanf:"stop_words"`
}

type SVDConfig struct {
	MaxComponents int   `koanf:"max_components"`
	Iterations    int   `koanf:"iterations"`
	Oversamples   int   `koanf:"oversamples"`
	Seed          int64 `koanf:"seed"`
}

type RecommendConfig struct {
	// ColdStartThreshold 行为数低于该值的用户走混合策略
	ColdStartThreshold int     `koanf:"cold_start_threshold"`
	SimilarUsers       int     `koanf:"similar_users"`
	PoolFactor         int     `koanf:"pool_factor"`
	DefaultTopN        int     `koanf:"default_top_n"`
	DiversityScale     float64 `koanf:"diversity_scale"`
	NeutralScore       float64 `koanf:"neutral_score"`
	// Seed 为 0 时随机数按时间播种
	Seed int64 `koanf:"seed"`
	// Prefilter 是候选预过滤 Pipeline 的 YAML 文件，可选
	Prefilter string `koanf:"prefilter"`
}

type MetricsConfig struct {
	Enabled bool   `koanf:"enabled"`
	Addr    string `koanf:"addr"`
}

// Default 返回默认配置。
func Default() *Config {
	return &Config{
		Log: LogConfig{Level: "info", Format: "json"},
		Store: StoreConfig{
			Backend:     "memory",
			RedisAddr:   "localhost:6379",
			RedisPrefix: "hybridrec:",
		},
		Feast: FeastConfig{
			Endpoint: "localhost:6565",
			Feature:  "product_stats:interaction_count",
			Timeout:  3 * time.Second,
		},
		Content: ContentConfig{MaxFeatures: 1000, StopWords: true},
		SVD: SVDConfig{
			MaxComponents: 30,
			Iterations:    20,
			Oversamples:   10,
			Seed:          42,
		},
		Recommend: RecommendConfig{
			ColdStartThreshold: 3,
			SimilarUsers:       10,
			PoolFactor:         2,
			DefaultTopN:        10,
			DiversityScale:     0.3,
			NeutralScore:       0.5,
		},
		Metrics: MetricsConfig{Addr: ":9090"},
	}
}

// Load 按 默认值 -> 文件 -> 环境变量 加载配置并校验。
// path 为空时依次尝试 HYBRIDREC_CONFIG 与 ./config.yaml。
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path = findConfigFile(path); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func findConfigFile(path string) string {
	if path != "" {
		return path
	}
	if p := os.Getenv(PathEnvVar); p != "" {
		return p
	}
	if _, err := os.Stat(DefaultPath); err == nil {
		return DefaultPath
	}
	return ""
}

// envTransform: HYBRIDREC_RECOMMEND__DEFAULT_TOP_N -> recommend.default_top_n
// HYBRIDREC_CONFIG 本身不是配置项，返回空串丢弃。
func envTransform(key string) string {
	if key == PathEnvVar {
		return ""
	}
	key = strings.TrimPrefix(key, EnvPrefix)
	return strings.ReplaceAll(strings.ToLower(key), "__", ".")
}

// Validate 检查取值范围。
func (c *Config) Validate() error {
	var errs []error
	switch c.Store.Backend {
	case "memory":
	case "redis":
		if c.Store.RedisAddr == "" {
			errs = append(errs, errors.New("store.redis_addr is required for redis backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("store.backend must be memory or redis, got %q", c.Store.Backend))
	}
	if c.Feast.Enabled && c.Feast.Endpoint == "" {
		errs = append(errs, errors.New("feast.endpoint is required when feast is enabled"))
	}
	if c.Content.MaxFeatures <= 0 {
		errs = append(errs, errors.New("content.max_features must be positive"))
	}
	if c.SVD.MaxComponents < 2 {
		errs = append(errs, errors.New("svd.max_components must be at least 2"))
	}
	if c.SVD.Iterations < 0 || c.SVD.Oversamples < 0 {
		errs = append(errs, errors.New("svd.iterations and svd.oversamples must not be negative"))
	}
	r := c.Recommend
	if r.ColdStartThreshold < 0 {
		errs = append(errs, errors.New("recommend.cold_start_threshold must not be negative"))
	}
	if r.SimilarUsers <= 0 || r.PoolFactor <= 0 {
		errs = append(errs, errors.New("recommend.similar_users and recommend.pool_factor must be positive"))
	}
	if r.DefaultTopN <= 0 {
		errs = append(errs, errors.New("recommend.default_top_n must be positive"))
	}
	if r.DiversityScale < 0 {
		errs = append(errs, errors.New("recommend.diversity_scale must not be negative"))
	}
	if r.NeutralScore < 0 || r.NeutralScore > 1 {
		errs = append(errs, errors.New("recommend.neutral_score must be within [0, 1]"))
	}
	return errors.Join(errs...)
}
