//go:build !amd64 && !386 && !arm64
// +build !amd64,!386,!arm64

package virt

func archProbes() []Probe {
	return []Probe{
		{Name: ProbeCPUInfo, Check: checkCPUInfo},
	}
}
