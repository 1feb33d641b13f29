//go:build amd64 || 386
// +build amd64 386

package virt

func archProbes() []Probe {
	return []Probe{
		{Name: ProbeCPUID, Check: checkCPUID},
		{Name: ProbeSignature, Check: checkSignature},
	}
}
