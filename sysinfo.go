// Package sysinfo reports hardware and software identity facts of the running host.
//
// https://github.com/darkit/sysinfo
//
// The hardware side decodes the SMBIOS BIOS, System and Enclosure structures
// exported by the kernel, combines several independent virtualization signals
// into one verdict, and looks up the serial number of the disk holding the root
// filesystem plus the MAC addresses of all non-loopback interfaces.
// The software side carries the raw /etc/os-release text and the kernel identity
// reported by uname.
//
// Every lookup except MAC enumeration degrades to an empty value instead of
// failing the whole report, so a partial snapshot is still returned inside
// containers or on hosts without firmware tables.
//
// Each record has an optional Extra field holding arbitrary caller data. It is
// omitted from JSON when nil, and payloads without it decode with Extra == nil.
package sysinfo // import "github.com/darkit/sysinfo"

import (
	"github.com/darkit/sysinfo/smbios"
)

// MachineInfo 完整的主机报告
type MachineInfo struct {
	Hardware HardwareInfo `json:"hardware" yaml:"hardware"`
	Software SoftwareInfo `json:"software" yaml:"software"`
	Extra    any          `json:"extra,omitempty" yaml:"extra,omitempty"`
}

// HardwareInfo 硬件快照
type HardwareInfo struct {
	CPUIsVirtual     bool                 `json:"cpu_is_virtual" yaml:"cpu_is_virtual"`
	DiskSerialNumber string               `json:"disk_serial_number" yaml:"disk_serial_number"`
	MACAddresses     []string             `json:"mac_addresses" yaml:"mac_addresses"`
	BIOSInfo         smbios.BIOSInfo      `json:"bios_info" yaml:"bios_info"`
	SystemInfo       smbios.SystemInfo    `json:"system_info" yaml:"system_info"`
	EnclosureInfo    smbios.EnclosureInfo `json:"enclosure_info" yaml:"enclosure_info"`
	Extra            any                  `json:"extra,omitempty" yaml:"extra,omitempty"`
}

// SoftwareInfo 软件快照。Uname 为 JSON 对象文本，键为 sysname、nodename、release、version、machine、domainname。
type SoftwareInfo struct {
	OSRelease string `json:"os_release" yaml:"os_release"`
	Uname     string `json:"uname" yaml:"uname"`
	Extra     any    `json:"extra,omitempty" yaml:"extra,omitempty"`
}

// WithExtra 返回附带 extra 的副本
func (m MachineInfo) WithExtra(extra any) MachineInfo {
	m.Extra = extra
	return m
}

// WithExtra 返回附带 extra 的副本
func (h HardwareInfo) WithExtra(extra any) HardwareInfo {
	h.Extra = extra
	return h
}

// WithExtra 返回附带 extra 的副本
func (s SoftwareInfo) WithExtra(extra any) SoftwareInfo {
	s.Extra = extra
	return s
}
