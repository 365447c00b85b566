package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/rushteam/hybridrec/filter"
	"github.com/rushteam/hybridrec/pipeline"
	"github.com/rushteam/hybridrec/rerank"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// chdir changes the working directory for the test and restores it on cleanup.
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv(PathEnvVar, "")
	chdir(t, t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(cfg, Default()) {
		t.Errorf("cfg = %+v, want defaults", cfg)
	}
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := writeFile(t, "config.yaml", `
log:
  level: debug
store:
  backend: redis
  redis_addr: redis:6379
feast:
  timeout: 500ms
recommend:
  default_top_n: 20
  diversity_scale: 0.1
`)
	t.Setenv("HYBRIDREC_RECOMMEND__DEFAULT_TOP_N", "5")
	t.Setenv("HYBRIDREC_SVD__SEED", "7")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Log.Level != "debug" || cfg.Store.Backend != "redis" || cfg.Store.RedisAddr != "redis:6379" {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if cfg.Recommend.DefaultTopN != 5 {
		t.Errorf("env should override file, top_n = %d", cfg.Recommend.DefaultTopN)
	}
	if cfg.SVD.Seed != 7 || cfg.SVD.MaxComponents != 30 {
		t.Errorf("svd = %+v", cfg.SVD)
	}
	if cfg.Recommend.DiversityScale != 0.1 || cfg.Recommend.ColdStartThreshold != 3 {
		t.Errorf("recommend = %+v", cfg.Recommend)
	}
	if cfg.Feast.Timeout != 500*time.Millisecond {
		t.Errorf("feast timeout = %v", cfg.Feast.Timeout)
	}
}

func TestLoad_Invalid(t *testing.T) {
	path := writeFile(t, "config.yaml", "store:\n  backend: mongo\n")
	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "store.backend") {
		t.Errorf("err = %v", err)
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("missing explicit file should fail")
	}
}

func TestEnvTransform(t *testing.T) {
	tests := map[string]string{
		"HYBRIDREC_STORE__BACKEND":           "store.backend",
		"HYBRIDREC_RECOMMEND__DEFAULT_TOP_N": "recommend.default_top_n",
		"HYBRIDREC_CONFIG":                   "",
	}
	for in, want := range tests {
		if got := envTransform(in); got != want {
			t.Errorf("envTransform(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"max features", func(c *Config) { c.Content.MaxFeatures = 0 }},
		{"components", func(c *Config) { c.SVD.MaxComponents = 1 }},
		{"top n", func(c *Config) { c.Recommend.DefaultTopN = 0 }},
		{"neutral", func(c *Config) { c.Recommend.NeutralScore = 1.5 }},
		{"diversity", func(c *Config) { c.Recommend.DiversityScale = -1 }},
		{"feast endpoint", func(c *Config) { c.Feast.Enabled = true; c.Feast.Endpoint = "" }},
		{"redis addr", func(c *Config) { c.Store.Backend = "redis"; c.Store.RedisAddr = "" }},
	}
	if err := Default().Validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.mutate(c)
			if err := c.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestLoadPrefilter(t *testing.T) {
	path := writeFile(t, "prefilter.yaml", `
pipeline:
  name: prefilter
  nodes:
    - type: filter.blacklist
      config:
        product_ids: [p1]
        categories: [adult]
    - type: filter.expr
      config:
        expr: 'item.price < 100.0'
        keep: true
    - type: rerank.topn
      config:
        n: 50
`)
	p, err := LoadPrefilter(path)
	if err != nil {
		t.Fatal(err)
	}
	if p.Name != "prefilter" || len(p.Nodes) != 3 {
		t.Fatalf("pipeline = %+v", p)
	}
	if _, ok := p.Nodes[0].(*filter.FilterNode); !ok {
		t.Errorf("node 0 = %T", p.Nodes[0])
	}
	if n, ok := p.Nodes[2].(*rerank.TopNNode); !ok || n.N != 50 {
		t.Errorf("node 2 = %#v", p.Nodes[2])
	}

	if p, err := LoadPrefilter(""); p != nil || err != nil {
		t.Errorf("empty path = %v, %v", p, err)
	}
}

func TestLoadPrefilter_JSON(t *testing.T) {
	path := writeFile(t, "prefilter.json", `{"pipeline": {"name": "json", "nodes": [
		{"type": "filter.blacklist", "config": {"categories": ["adult"]}},
		{"type": "rerank.topn", "config": {"n": 20}}
	]}}`)
	p, err := LoadPrefilter(path)
	if err != nil {
		t.Fatal(err)
	}
	if p.Name != "json" || len(p.Nodes) != 2 {
		t.Fatalf("pipeline = %+v", p)
	}
	if n, ok := p.Nodes[1].(*rerank.TopNNode); !ok || n.N != 20 {
		t.Errorf("node 1 = %#v", p.Nodes[1])
	}
}

func TestValidatePipelineConfig(t *testing.T) {
	pc, err := pipeline.ParseYAML([]byte("pipeline:\n  nodes:\n    - type: rank.lr\n"))
	if err != nil {
		t.Fatal(err)
	}
	err = ValidatePipelineConfig(pc)
	if err == nil || !strings.Contains(err.Error(), "filter.expr") {
		t.Errorf("err = %v, want list of supported types", err)
	}
	for _, typ := range []string{"filter.blacklist", "filter.expr", "rerank.topn"} {
		found := false
		for _, s := range SupportedTypes() {
			found = found || s == typ
		}
		if !found {
			t.Errorf("%s not registered", typ)
		}
	}
}

func TestBuildExprFilterNode_Errors(t *testing.T) {
	if _, err := BuildExprFilterNode(map[string]interface{}{}); err == nil {
		t.Error("missing expr should fail")
	}
	if _, err := BuildExprFilterNode(map[string]interface{}{"expr": "item.price <"}); err == nil {
		t.Error("invalid expr should fail")
	}
	if _, err := BuildTopNNode(map[string]interface{}{"n": -1}); err == nil {
		t.Error("negative n should fail")
	}
}
