package feast

import (
	"context"
	"strconv"
	"strings"
	"time"
)

// Client 是 Feast 在线特征的最小读取接口。
//
// 推荐系统只用到在线特征：按实体 ID 批量读取数值特征，
// 例如 "product_stats:interaction_count"。
//
// 参考：https://github.com/feast-dev/feast
type Client interface {
	// OnlineFeatures 按实体批量读取特征。
	// 返回值与 entityIDs 一一对应，缺失的特征不出现在 map 中。
	OnlineFeatures(ctx context.Context, features []string, entityKey string, entityIDs []string) ([]map[string]float64, error)

	Close() error
}

// ClientOption Feast 客户端配置选项
type ClientOption func(*ClientConfig)

// ClientConfig Feast 客户端配置
type ClientConfig struct {
	// Endpoint 服务端点，host:port
	Endpoint string

	Project string

	// Timeout 单次请求超时
	Timeout time.Duration

	// Token 非空时使用静态 Token 认证
	Token string
}

// WithTimeout 配置选项：设置超时时间
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *ClientConfig) {
		c.Timeout = timeout
	}
}

// WithToken 配置选项：使用静态 Token 认证
func WithToken(token string) ClientOption {
	return func(c *ClientConfig) {
		c.Token = token
	}
}

// parseEndpoint 解析端点地址，返回 host 和 port
func parseEndpoint(endpoint string) (string, int) {
	endpoint = strings.TrimPrefix(endpoint, "grpc://")

	host, portStr, ok := strings.Cut(endpoint, ":")
	if ok {
		if port, err := strconv.Atoi(portStr); err == nil {
			return host, port
		}
	}
	return endpoint, 0
}
