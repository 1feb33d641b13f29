// Package disk 定位根文件系统所在的块设备并查询它的序列号。
//
// 序列号优先从 udev 数据库读取（/run/udev/data/b<major>:<minor>），
// 读不到时再退回 ghw 的块设备清单。
package disk

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/darkit/sysinfo/errdefs"
)

// Lookup 按块设备名（分区或整盘）查询所在磁盘的序列号
type Lookup func(root, name string) (string, error)

// 以下变量便于测试替换
var (
	udevLookup Lookup = udevSerial
	ghwLookup  Lookup = ghwSerial
)

// SerialNumber 返回 name 所在磁盘的序列号。root 为宿主机根目录前缀。
func SerialNumber(root, name string) (string, error) {
	name = strings.TrimPrefix(name, "/dev/")
	if name == "" {
		return "", errors.Wrap(errdefs.ErrDeviceLookup, "sysinfo: empty block device name")
	}

	serial, err := udevLookup(root, name)
	if err == nil {
		return serial, nil
	}
	log.Debug().Err(err).Str("device", name).Msg("udev serial lookup failed, trying ghw")

	serial, ghwErr := ghwLookup(root, name)
	if ghwErr != nil {
		return "", errors.Wrapf(errdefs.Mark(errdefs.ErrDeviceLookup, ghwErr), "sysinfo: serial of %s (udev: %v)", name, err)
	}
	return serial, nil
}

// RootSerialNumber 返回根文件系统所在磁盘的序列号
func RootSerialNumber(root string) (string, error) {
	dev, err := RootDevice(root)
	if err != nil {
		return "", err
	}
	return SerialNumber(root, dev)
}
