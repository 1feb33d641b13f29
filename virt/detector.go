// Package virt 判断当前主机是否运行在虚拟机或容器中。
//
// 判定由一组相互独立的探测组合而成：CPUID 标志位、hypervisor 厂商签名、sysfs 标记、
// 容器哨兵文件、外部命令输出等。任何单项都不可靠，任一探测命中即判定为虚拟化；
// 探测出错（命令不存在、文件不可读、权限不足）按"未命中"处理，不会中断整体判定。
package virt

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/darkit/sysinfo/errdefs"
)

// Signal 单项探测的三态结果
type Signal int8

const (
	// Unknown 探测出错，按未命中处理
	Unknown Signal = iota
	// Absent 未发现虚拟化迹象
	Absent
	// Present 发现虚拟化迹象
	Present
)

func (s Signal) String() string {
	switch s {
	case Present:
		return "present"
	case Absent:
		return "absent"
	default:
		return "unknown"
	}
}

func signalOf(found bool, err error) Signal {
	switch {
	case err != nil:
		return Unknown
	case found:
		return Present
	default:
		return Absent
	}
}

// Env 探测运行环境：文件路径都相对 Root 解析，外部命令经 Run 执行。
type Env struct {
	Root string
	Run  Runner
}

// onHost Root 为空或 "/" 时探测直接面向本机
func (e *Env) onHost() bool {
	return e.Root == "" || e.Root == "/"
}

func (e *Env) path(p string) string {
	if e.Root == "" {
		return p
	}
	return filepath.Join(e.Root, p)
}

func (e *Env) readFile(p string) (string, error) {
	full := e.path(p)
	data, err := os.ReadFile(full)
	if err != nil {
		return "", errdefs.FromOS(err, full)
	}
	return string(data), nil
}

// exists 文件存在返回 true；不存在返回 false 且无错误；其余错误原样返回。
func (e *Env) exists(p string) (bool, error) {
	full := e.path(p)
	if _, err := os.Stat(full); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, errdefs.FromOS(err, full)
	}
	return true, nil
}

func (e *Env) output(name string, args ...string) (string, error) {
	run := e.Run
	if run == nil {
		run = ExecRunner
	}
	return run(name, args...)
}

// Probe 单项探测
type Probe struct {
	Name  string
	Check func(env *Env) (bool, error)
}

// Observation 单项探测的观测结果
type Observation struct {
	Probe  string
	Signal Signal
	Err    error
}

// Detector 按固定顺序执行探测并取逻辑或
type Detector struct {
	env    Env
	probes []Probe
	logger zerolog.Logger
}

// Option 配置 Detector
type Option func(*Detector)

// WithRoot 指定文件探测的根目录（例如容器中挂载的宿主机根目录）
func WithRoot(root string) Option {
	return func(d *Detector) { d.env.Root = root }
}

// WithRunner 替换外部命令执行器
func WithRunner(r Runner) Option {
	return func(d *Detector) { d.env.Run = r }
}

// WithLogger 指定逐项探测日志的输出。默认使用全局 logger 的 Trace 级别。
func WithLogger(l zerolog.Logger) Option {
	return func(d *Detector) { d.logger = l }
}

// WithProbes 替换整个探测列表
func WithProbes(probes ...Probe) Option {
	return func(d *Detector) { d.probes = append([]Probe(nil), probes...) }
}

// WithoutProbes 按名称剔除探测
func WithoutProbes(names ...string) Option {
	return func(d *Detector) {
		if len(names) == 0 {
			return
		}
		skip := make(map[string]struct{}, len(names))
		for _, n := range names {
			skip[n] = struct{}{}
		}
		kept := d.probes[:0:0]
		for _, p := range d.probes {
			if _, ok := skip[p.Name]; !ok {
				kept = append(kept, p)
			}
		}
		d.probes = kept
	}
}

// New 创建 Detector，默认使用当前架构的全部探测。
// 选项按顺序应用，WithoutProbes 应放在 WithProbes 之后。
func New(opts ...Option) *Detector {
	d := &Detector{
		env:    Env{Root: "/", Run: ExecRunner},
		probes: DefaultProbes(),
		logger: log.Logger,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Probes 返回探测名称，按执行顺序
func (d *Detector) Probes() []string {
	names := make([]string, 0, len(d.probes))
	for _, p := range d.probes {
		names = append(names, p.Name)
	}
	return names
}

func (d *Detector) run(p Probe) Observation {
	found, err := p.Check(&d.env)
	obs := Observation{Probe: p.Name, Signal: signalOf(found, err), Err: err}
	d.logger.Trace().Err(err).Str("probe", p.Name).Stringer("signal", obs.Signal).Msg("virtualization probe")
	return obs
}

// Detect 返回虚拟化判定。遇到第一个命中的探测即返回 true。
func (d *Detector) Detect() bool {
	for _, p := range d.probes {
		if d.run(p).Signal == Present {
			return true
		}
	}
	return false
}

// Evaluate 执行全部探测并返回每一项的观测结果，用于诊断。
func (d *Detector) Evaluate() []Observation {
	out := make([]Observation, 0, len(d.probes))
	for _, p := range d.probes {
		out = append(out, d.run(p))
	}
	return out
}

// Verdict 由观测结果计算判定
func Verdict(obs []Observation) bool {
	for _, o := range obs {
		if o.Signal == Present {
			return true
		}
	}
	return false
}

// IsVirtual 使用默认配置执行一次判定
func IsVirtual() bool {
	return New().Detect()
}

// ValidateProbeNames 检查名称是否都是已知探测
func ValidateProbeNames(names []string) error {
	known := make(map[string]struct{}, len(KnownProbes))
	for _, n := range KnownProbes {
		known[n] = struct{}{}
	}
	var unknown []string
	for _, n := range names {
		if _, ok := known[n]; !ok {
			unknown = append(unknown, n)
		}
	}
	if len(unknown) > 0 {
		return errors.Errorf("sysinfo: unknown virtualization probes: %s", strings.Join(unknown, ", "))
	}
	return nil
}
