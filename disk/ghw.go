package disk

import (
	"github.com/jaypipes/ghw"
	"github.com/pkg/errors"

	"github.com/darkit/sysinfo/errdefs"
)

// ghw 在取不到值时填 "unknown"
const ghwUnknown = "unknown"

var blockInfo = func(root string) (*ghw.BlockInfo, error) {
	return ghw.Block(ghw.WithChroot(root), ghw.WithDisableWarnings())
}

// ghwSerial 在 ghw 块设备清单中按整盘或分区名查找磁盘序列号
func ghwSerial(root, name string) (string, error) {
	if root == "" {
		root = "/"
	}
	info, err := blockInfo(root)
	if err != nil {
		return "", errors.Wrap(errdefs.Mark(errdefs.ErrDeviceLookup, err), "ghw block")
	}
	for _, d := range info.Disks {
		if d == nil {
			continue
		}
		match := d.Name == name
		for _, p := range d.Partitions {
			if p != nil && p.Name == name {
				match = true
			}
		}
		if !match {
			continue
		}
		if d.SerialNumber == "" || d.SerialNumber == ghwUnknown {
			return "", errors.Wrapf(errdefs.ErrNotFound, "ghw: disk %s has no serial", d.Name)
		}
		return d.SerialNumber, nil
	}
	return "", errors.Wrapf(errdefs.ErrNotFound, "ghw: no disk for %s", name)
}
