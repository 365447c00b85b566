package pipeline

import (
	"fmt"
	"os"
	"sort"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// Config 描述一条可由文件加载的 Pipeline，YAML 与 JSON 共用同一结构：
//
//	pipeline:
//	  name: prefilter
//	  nodes:
//	    - type: filter.blacklist
//	      config: {categories: [adult]}
type Config struct {
	Pipeline struct {
		Name  string       `yaml:"name" json:"name"`
		Nodes []NodeConfig `yaml:"nodes" json:"nodes"`
	} `yaml:"pipeline" json:"pipeline"`
}

// NodeConfig 是一个节点的类型名与参数。
type NodeConfig struct {
	Type   string                 `yaml:"type" json:"type"`
	Config map[string]interface{} `yaml:"config" json:"config"`
}

func loadFile(path string, parse func([]byte) (*Config, error)) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read pipeline config %s: %w", path, err)
	}
	return parse(data)
}

// LoadFromYAML 读取 YAML 文件。
func LoadFromYAML(path string) (*Config, error) {
	return loadFile(path, ParseYAML)
}

// ParseYAML 解析 YAML 内容。
func ParseYAML(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	return &cfg, nil
}

// LoadFromJSON 读取 JSON 文件。
func LoadFromJSON(path string) (*Config, error) {
	return loadFile(path, ParseJSON)
}

// ParseJSON 解析 JSON 内容。
func ParseJSON(data []byte) (*Config, error) {
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}
	return &cfg, nil
}

// BuildPipeline 按顺序构建节点。节点类型为空或未注册都会报错，并带上节点序号。
func (c *Config) BuildPipeline(factory *NodeFactory) (*Pipeline, error) {
	nodes := make([]Node, 0, len(c.Pipeline.Nodes))
	for i, nc := range c.Pipeline.Nodes {
		if nc.Type == "" {
			return nil, fmt.Errorf("node #%d: type is required", i)
		}
		cfg := nc.Config
		if cfg == nil {
			cfg = map[string]interface{}{}
		}
		node, err := factory.Build(nc.Type, cfg)
		if err != nil {
			return nil, fmt.Errorf("node #%d (%s): %w", i, nc.Type, err)
		}
		nodes = append(nodes, node)
	}
	return New(c.Pipeline.Name, nodes...), nil
}

// NodeBuilder 由参数构建一个节点。
type NodeBuilder func(map[string]interface{}) (Node, error)

// NodeFactory 是节点类型名到构建函数的映射，不是并发安全的。
type NodeFactory struct {
	builders map[string]NodeBuilder
}

func NewNodeFactory() *NodeFactory {
	return &NodeFactory{builders: make(map[string]NodeBuilder)}
}

func (f *NodeFactory) Register(nodeType string, builder NodeBuilder) {
	f.builders[nodeType] = builder
}

// Types 返回已注册的类型名（排序）。
func (f *NodeFactory) Types() []string {
	out := make([]string, 0, len(f.builders))
	for t := range f.builders {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

func (f *NodeFactory) Build(nodeType string, config map[string]interface{}) (Node, error) {
	builder, ok := f.builders[nodeType]
	if !ok {
		return nil, fmt.Errorf("unknown node type %q (known: %v)", nodeType, f.Types())
	}
	return builder(config)
}
