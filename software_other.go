//go:build !linux
// +build !linux

package sysinfo

import (
	"github.com/pkg/errors"
	"github.com/shirou/gopsutil/v4/host"

	"github.com/darkit/sysinfo/errdefs"
)

// readUname 非 Linux 平台由 gopsutil 提供内核信息，没有 domainname
func readUname() (unameInfo, error) {
	info, err := host.Info()
	if err != nil {
		return unameInfo{}, errors.Wrap(errdefs.Mark(errdefs.ErrIO, err), "sysinfo: host info")
	}
	return unameInfo{
		Sysname:  info.OS,
		Nodename: info.Hostname,
		Release:  info.KernelVersion,
		Version:  info.PlatformVersion,
		Machine:  info.KernelArch,
	}, nil
}
