//go:build !linux
// +build !linux

package disk

import (
	"io"

	"github.com/moby/sys/mountinfo"
	"github.com/pkg/errors"

	"github.com/darkit/sysinfo/errdefs"
)

// readMounts 只有 Linux 提供 mountinfo 文本格式
func readMounts(io.Reader) ([]*mountinfo.Info, error) {
	return nil, errors.Wrap(errdefs.ErrNotFound, "mountinfo text is linux only")
}
