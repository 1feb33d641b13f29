package sysinfo

import (
	"bytes"
	"context"
	"net"
	"slices"
	"sort"

	"github.com/pkg/errors"
	psnet "github.com/shirou/gopsutil/v4/net"

	"github.com/darkit/sysinfo/errdefs"
)

var netInterfaces = psnet.InterfacesWithContext

// listMACAddresses 返回所有非回环网卡的 MAC 地址（小写、排序、去重）。
// 枚举失败原样返回错误；没有网卡时返回空列表。
func listMACAddresses(ctx context.Context) ([]string, error) {
	ifaces, err := netInterfaces(ctx)
	if err != nil {
		return nil, errors.Wrap(errdefs.Mark(errdefs.ErrIO, err), "sysinfo: failed to list interfaces")
	}

	seen := make(map[string]struct{}, len(ifaces))
	macs := make([]string, 0, len(ifaces))
	for _, iface := range ifaces {
		if slices.Contains(iface.Flags, "loopback") {
			continue
		}
		mac := normalizeMACAddress(iface.HardwareAddr)
		if mac == "" {
			continue
		}
		if _, ok := seen[mac]; ok {
			continue
		}
		seen[mac] = struct{}{}
		macs = append(macs, mac)
	}
	sort.Strings(macs)
	return macs, nil
}

// normalizeMACAddress 无法解析或全零的地址返回空串
func normalizeMACAddress(s string) string {
	hw, err := net.ParseMAC(s)
	if err != nil || len(hw) == 0 {
		return ""
	}
	if bytes.Equal(hw, make(net.HardwareAddr, len(hw))) {
		return ""
	}
	return hw.String()
}
