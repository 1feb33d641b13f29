package virt

import (
	"strings"

	"github.com/klauspost/cpuid/v2"
	"github.com/pkg/errors"
	"github.com/shirou/gopsutil/v4/host"
)

// 探测名称
const (
	ProbeCPUID           = "cpuid_hypervisor_bit"
	ProbeSignature       = "hypervisor_signature"
	ProbeSysHypervisor   = "sys_hypervisor"
	ProbeDmesg           = "dmesg"
	ProbeDockerSentinel  = "docker_sentinel"
	ProbeSystemd         = "systemd_container"
	ProbeDeviceTree      = "device_tree"
	ProbeCPUInfo         = "cpuinfo"
	ProbeRdmsr           = "rdmsr"
	ProbeContainerCgroup = "container_cgroup"
	ProbeHostRole        = "host_role"
)

// KnownProbes 所有平台上出现过的探测名称
var KnownProbes = []string{
	ProbeCPUID,
	ProbeSignature,
	ProbeSysHypervisor,
	ProbeDmesg,
	ProbeDockerSentinel,
	ProbeSystemd,
	ProbeDeviceTree,
	ProbeCPUInfo,
	ProbeRdmsr,
	ProbeContainerCgroup,
	ProbeHostRole,
}

// 以下变量便于测试替换
var (
	cpuHypervisorBit   = func() bool { return cpuid.CPU.Supports(cpuid.HYPERVISOR) }
	cpuHypervisorID    = func() string { return cpuid.CPU.HypervisorVendorString }
	hostVirtualization = host.Virtualization
)

// DefaultProbes 返回当前架构的探测列表：架构相关的 CPU 探测在前，通用探测在后。
func DefaultProbes() []Probe {
	probes := archProbes()
	return append(probes,
		Probe{Name: ProbeSysHypervisor, Check: checkSysHypervisor},
		Probe{Name: ProbeDmesg, Check: checkDmesg},
		Probe{Name: ProbeDockerSentinel, Check: checkDockerSentinel},
		Probe{Name: ProbeSystemd, Check: checkSystemd},
		Probe{Name: ProbeContainerCgroup, Check: checkContainerCgroup},
		Probe{Name: ProbeHostRole, Check: checkHostRole},
	)
}

// checkCPUID CPUID leaf 1 ECX bit 31
func checkCPUID(_ *Env) (bool, error) {
	return cpuHypervisorBit(), nil
}

// checkSignature CPUID leaf 0x40000000 厂商签名，未识别的签名不算命中
func checkSignature(_ *Env) (bool, error) {
	_, ok := MatchSignature(cpuHypervisorID())
	return ok, nil
}

// checkSysHypervisor 读取 /sys/hypervisor 下的类型与能力标记
func checkSysHypervisor(env *Env) (bool, error) {
	typ, typErr := env.readFile("/sys/hypervisor/type")
	if typErr == nil && (strings.Contains(typ, "xen") || strings.Contains(typ, "kvm")) {
		return true, nil
	}
	caps, capsErr := env.readFile("/sys/hypervisor/properties/capabilities")
	if capsErr == nil && strings.Contains(caps, "kvm") {
		return true, nil
	}
	if typErr != nil && capsErr != nil {
		return false, typErr
	}
	return false, nil
}

func checkDmesg(env *Env) (bool, error) {
	out, err := env.output("dmesg")
	if err != nil {
		return false, err
	}
	return strings.Contains(out, "hypervisor") || strings.Contains(out, "virtualization"), nil
}

func checkDockerSentinel(env *Env) (bool, error) {
	var firstErr error
	for _, p := range []string{"/.dockerenv", "/.dockerinit"} {
		ok, err := env.exists(p)
		if ok {
			return true, nil
		}
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return false, firstErr
}

func checkSystemd(env *Env) (bool, error) {
	out, err := env.output("systemctl", "is-system-running")
	if err != nil {
		return false, err
	}
	return strings.Contains(out, "running in container"), nil
}

// checkDeviceTree 设备树中存在 hypervisor 节点
func checkDeviceTree(env *Env) (bool, error) {
	return env.exists("/proc/device-tree/hypervisor")
}

func checkCPUInfo(env *Env) (bool, error) {
	info, err := env.readFile("/proc/cpuinfo")
	if err != nil {
		return false, err
	}
	return strings.Contains(info, "hypervisor"), nil
}

func checkRdmsr(env *Env) (bool, error) {
	out, err := env.output("rdmsr", "0xC0C")
	if err != nil {
		return false, err
	}
	return strings.Contains(out, "hypervisor"), nil
}

func checkContainerCgroup(env *Env) (bool, error) {
	id, err := containerID(env)
	if err != nil {
		return false, err
	}
	return id != "", nil
}

// errForeignRoot 探测只能观察当前进程所在的环境
var errForeignRoot = errors.New("sysinfo: probe cannot follow a host root")

// checkHostRole gopsutil 报告本机角色为 guest。gopsutil 的部分判断读取 /proc/self，
// 无法指向挂载进来的宿主机根目录，此时按未知处理。
func checkHostRole(env *Env) (bool, error) {
	if env != nil && !env.onHost() {
		return false, errForeignRoot
	}
	_, role, err := hostVirtualization()
	if err != nil {
		return false, err
	}
	return role == "guest", nil
}
