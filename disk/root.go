package disk

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/moby/sys/mountinfo"
	"github.com/pkg/errors"

	"github.com/darkit/sysinfo/errdefs"
)

// RootDevice 返回挂载在 / 上的设备名，去掉 /dev/ 前缀。
// root 不是 "/" 时读取宿主机 init 进程的 mountinfo（root/proc/1/mountinfo）。
func RootDevice(root string) (string, error) {
	var (
		mounts []*mountinfo.Info
		err    error
	)
	if root == "" || root == "/" {
		mounts, err = mountinfo.GetMounts(rootMounts)
		if err != nil {
			return "", errors.Wrap(errdefs.Mark(errdefs.ErrIO, err), "sysinfo: read mountinfo")
		}
	} else {
		p := filepath.Join(root, "proc", "1", "mountinfo")
		f, openErr := os.Open(p)
		if openErr != nil {
			return "", errdefs.FromOS(openErr, p)
		}
		defer f.Close()
		if mounts, err = readMounts(f); err != nil {
			return "", errors.Wrapf(errdefs.Mark(errdefs.ErrIO, err), "sysinfo: parse %s", p)
		}
	}
	return rootSource(mounts)
}

// rootMounts 保留所有挂载在 / 上的条目，不提前停止，被覆盖挂载时可以取到最后一条
func rootMounts(m *mountinfo.Info) (skip, stop bool) {
	return m.Mountpoint != "/", false
}

func rootSource(mounts []*mountinfo.Info) (string, error) {
	// 同一挂载点被多次挂载时，最后一条才是可见的
	for i := len(mounts) - 1; i >= 0; i-- {
		if mounts[i].Mountpoint == "/" {
			return strings.TrimPrefix(mounts[i].Source, "/dev/"), nil
		}
	}
	return "", errors.Wrap(errdefs.ErrNotFound, "sysinfo: root filesystem device not found")
}
