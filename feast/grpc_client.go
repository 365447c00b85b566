package feast

import (
	"context"
	"fmt"
	"strconv"
	"time"

	feastsdk "github.com/feast-dev/feast/sdk/go"
)

// DefaultPort 是 Feast Feature Server 的默认 gRPC 端口。
const DefaultPort = 6565

// GrpcClient 是基于官方 Feast Go SDK 的 gRPC 客户端实现。
type GrpcClient struct {
	client *feastsdk.GrpcClient

	Project  string
	Endpoint string
	Timeout  time.Duration
}

// NewGrpcClient 创建一个基于官方 SDK 的 Feast gRPC 客户端。
// endpoint 形如 "localhost:6565"，省略端口时使用 6565。
func NewGrpcClient(endpoint, project string, opts ...ClientOption) (*GrpcClient, error) {
	host, port := parseEndpoint(endpoint)
	if port == 0 {
		port = DefaultPort
	}
	config := &ClientConfig{
		Endpoint: fmt.Sprintf("%s:%d", host, port),
		Project:  project,
		Timeout:  3 * time.Second,
	}
	for _, opt := range opts {
		opt(config)
	}

	var (
		client *feastsdk.GrpcClient
		err    error
	)
	if config.Token != "" {
		client, err = feastsdk.NewSecureGrpcClient(host, port, feastsdk.SecurityConfig{
			Credential: feastsdk.NewStaticCredential(config.Token),
		})
	} else {
		client, err = feastsdk.NewGrpcClient(host, port)
	}
	if err != nil {
		return nil, fmt.Errorf("feast: connect %s: %w", config.Endpoint, err)
	}

	return &GrpcClient{
		client:   client,
		Project:  project,
		Endpoint: config.Endpoint,
		Timeout:  config.Timeout,
	}, nil
}

// OnlineFeatures 实现 Client 接口。
func (c *GrpcClient) OnlineFeatures(
	ctx context.Context,
	features []string,
	entityKey string,
	entityIDs []string,
) ([]map[string]float64, error) {
	if len(features) == 0 {
		return nil, fmt.Errorf("feast: features are required")
	}
	if len(entityIDs) == 0 {
		return nil, nil
	}
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	rows := make([]feastsdk.Row, len(entityIDs))
	for i, id := range entityIDs {
		rows[i] = feastsdk.Row{entityKey: feastsdk.StrVal(id)}
	}

	resp, err := c.client.GetOnlineFeatures(ctx, &feastsdk.OnlineFeaturesRequest{
		Features: features,
		Entities: rows,
		Project:  c.Project,
	})
	if err != nil {
		return nil, fmt.Errorf("feast: get online features: %w", err)
	}

	got := resp.Rows()
	if len(got) != len(entityIDs) {
		return nil, fmt.Errorf("feast: response row count mismatch: expected %d, got %d", len(entityIDs), len(got))
	}

	out := make([]map[string]float64, len(got))
	for i, row := range got {
		values := make(map[string]float64, len(features))
		for _, name := range features {
			val, ok := row[name]
			if !ok || val == nil {
				continue
			}
			if f, ok := convertFromSDKValue(val); ok {
				values[name] = f
			}
		}
		out[i] = values
	}
	return out, nil
}

func (c *GrpcClient) Close() error {
	c.client = nil
	return nil
}

// numericValue 匹配 Feast protobuf Value 的数值 getter。
// oneof 中未设置的字段返回零值。
type numericValue interface {
	GetInt32Val() int32
	GetInt64Val() int64
	GetFloatVal() float32
	GetDoubleVal() float64
}

// convertFromSDKValue 把特征值转换为 float64，无法转换时返回 false。
func convertFromSDKValue(val interface{}) (float64, bool) {
	switch v := val.(type) {
	case nil:
		return 0, false
	case int64:
		return float64(v), true
	case int32:
		return float64(v), true
	case int:
		return float64(v), true
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case bool:
		if v {
			return 1, true
		}
		return 0, true
	case string:
		f, err := strconv.ParseFloat(v, 64)
		return f, err == nil
	case numericValue:
		return float64(v.GetInt32Val()) + float64(v.GetInt64Val()) +
			float64(v.GetFloatVal()) + v.GetDoubleVal(), true
	}
	return 0, false
}

var _ Client = (*GrpcClient)(nil)
