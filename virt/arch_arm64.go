//go:build arm64
// +build arm64

package virt

func archProbes() []Probe {
	return []Probe{
		{Name: ProbeCPUInfo, Check: checkCPUInfo},
		{Name: ProbeRdmsr, Check: checkRdmsr},
		{Name: ProbeDeviceTree, Check: checkDeviceTree},
	}
}
