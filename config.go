package sysinfo

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/darkit/sysinfo/errdefs"
	"github.com/darkit/sysinfo/virt"
)

// EnvHostRoot 覆盖配置中的 host_root
const EnvHostRoot = "HOST_ROOT"

// Config 采集配置
type Config struct {
	// HostRoot 所有固定路径的前缀，容器中挂载宿主机根目录时使用
	HostRoot string `yaml:"host_root"`
	// Parallel 并行执行相互独立的查询
	Parallel bool `yaml:"parallel"`
	// DisabledProbes 从虚拟化判定中剔除的探测名称
	DisabledProbes []string `yaml:"disabled_probes,omitempty"`
	// SMBIOSStreamFallback entries 目录缺失时解码完整 SMBIOS 结构流
	SMBIOSStreamFallback bool `yaml:"smbios_stream_fallback"`
	// LogLevel 仅供命令行程序使用
	LogLevel string `yaml:"log_level,omitempty"`
}

var defaultConfig = Config{
	HostRoot:             "/",
	Parallel:             true,
	SMBIOSStreamFallback: true,
	LogLevel:             "info",
}

// DefaultConfig 返回默认配置的副本
func DefaultConfig() *Config {
	cfg := defaultConfig
	return &cfg
}

// configCandidates path 为空时依次尝试的位置
var configCandidates = func() []string {
	return []string{
		"/etc/sysinfo/config.yaml",
		filepath.Join(os.Getenv("HOME"), ".config/sysinfo/config.yaml"),
		"sysinfo.yaml",
	}
}

// LoadConfig 读取 YAML 配置。path 为空时按候选位置查找，都不存在时使用默认值。
// 文件中未出现的字段保持默认值，HOST_ROOT 环境变量优先于文件中的 host_root。
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		for _, c := range configCandidates() {
			if _, err := os.Stat(c); err == nil {
				path = c
				break
			}
		}
	}

	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errdefs.FromOS(err, path)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrapf(err, "sysinfo: parse config %s", path)
		}
	}

	if root := strings.TrimSpace(os.Getenv(EnvHostRoot)); root != "" {
		cfg.HostRoot = root
	}
	if cfg.HostRoot == "" {
		cfg.HostRoot = defaultConfig.HostRoot
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate 校验配置
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("sysinfo: config is nil")
	}
	if c.HostRoot != "" && !filepath.IsAbs(c.HostRoot) {
		return errors.Errorf("sysinfo: host_root must be an absolute path, got %q", c.HostRoot)
	}
	return virt.ValidateProbeNames(c.DisabledProbes)
}
